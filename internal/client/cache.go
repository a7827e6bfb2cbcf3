package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/relaxflow/core/internal/infrastructure/logger"
)

// Status is the lifecycle of a cache's contents.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// State is a snapshot of a cache.
type State[T any] struct {
	Items     []T
	IsLoading bool
	Error     string
	Status    Status
}

// Record is anything a cache can patch by identifier.
type Record interface {
	GetID() string
}

type cacheConfig struct {
	revalidate bool
	logger     *logger.Logger
}

// CacheOption configures a cache.
type CacheOption func(*cacheConfig)

// WithoutRevalidation makes mutations rely on the local patch only.
func WithoutRevalidation() CacheOption {
	return func(c *cacheConfig) { c.revalidate = false }
}

// WithLogger sets the cache logger.
func WithLogger(l *logger.Logger) CacheOption {
	return func(c *cacheConfig) { c.logger = l }
}

// Cache holds a client side copy of one collection. Operations are not
// serialised end to end; the last response to land wins.
type Cache[T Record] struct {
	resource   *Resource[T]
	revalidate bool
	logger     *logger.Logger

	mu        sync.RWMutex
	items     []T
	isLoading bool
	err       string
	status    Status
}

// NewCache creates an idle cache over resource.
func NewCache[T Record](resource *Resource[T], opts ...CacheOption) *Cache[T] {
	cfg := cacheConfig{revalidate: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.NewNop()
	}
	return &Cache[T]{
		resource:   resource,
		revalidate: cfg.revalidate,
		logger:     cfg.logger.WithFields("collection", resource.Collection()),
		items:      []T{},
		status:     StatusIdle,
	}
}

// Collection returns the name of the cached collection.
func (c *Cache[T]) Collection() string { return c.resource.Collection() }

// State returns a copy of the current state.
func (c *Cache[T]) State() State[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return State[T]{Items: items, IsLoading: c.isLoading, Error: c.err, Status: c.status}
}

// Items returns a copy of the cached records.
func (c *Cache[T]) Items() []T {
	return c.State().Items
}

// FetchAll replaces the cached records with the server's.
func (c *Cache[T]) FetchAll(ctx context.Context) error {
	c.mu.Lock()
	c.isLoading = true
	c.status = StatusLoading
	c.mu.Unlock()

	items, err := c.resource.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.isLoading = false
	if err != nil {
		c.err = fmt.Sprintf("Failed to fetch %s: %v", c.resource.Collection(), err)
		c.status = StatusError
		c.logger.Warnw("Fetch failed", "error", err)
		return err
	}
	c.items = items
	c.err = ""
	c.status = StatusReady
	return nil
}

// CreateOne creates a record and prepends it locally.
func (c *Cache[T]) CreateOne(ctx context.Context, input interface{}) (T, error) {
	prev := c.beginMutation()
	item, err := c.resource.Create(ctx, input)
	if err != nil {
		c.fail(prev, "create", err)
		return item, err
	}

	c.mu.Lock()
	c.items = append([]T{item}, c.items...)
	c.isLoading = false
	c.status = prev
	c.mu.Unlock()

	c.afterMutation(ctx)
	return item, nil
}

// UpdateOne updates a record and replaces it in place locally.
func (c *Cache[T]) UpdateOne(ctx context.Context, input interface{}) (T, error) {
	prev := c.beginMutation()
	item, err := c.resource.Update(ctx, input)
	if err != nil {
		c.fail(prev, "update", err)
		return item, err
	}

	c.mu.Lock()
	for i := range c.items {
		if c.items[i].GetID() == item.GetID() {
			c.items[i] = item
			break
		}
	}
	c.isLoading = false
	c.status = prev
	c.mu.Unlock()

	c.afterMutation(ctx)
	return item, nil
}

// RemoveOne deletes a record and filters it out locally.
func (c *Cache[T]) RemoveOne(ctx context.Context, id string) error {
	prev := c.beginMutation()
	if err := c.resource.Delete(ctx, id); err != nil {
		c.fail(prev, "delete", err)
		return err
	}

	c.mu.Lock()
	kept := c.items[:0:0]
	for _, item := range c.items {
		if item.GetID() != id {
			kept = append(kept, item)
		}
	}
	c.items = kept
	c.isLoading = false
	c.status = prev
	c.mu.Unlock()

	c.afterMutation(ctx)
	return nil
}

// beginMutation marks the cache as loading and returns the status to restore
// once the request settles.
func (c *Cache[T]) beginMutation() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.status
	if prev == StatusLoading {
		prev = StatusReady
	}
	c.isLoading = true
	c.status = StatusLoading
	return prev
}

func (c *Cache[T]) fail(prev Status, op string, err error) {
	c.mu.Lock()
	c.isLoading = false
	c.status = prev
	c.err = fmt.Sprintf("Failed to %s %s: %v", op, c.resource.noun, err)
	c.mu.Unlock()
	c.logger.Warnw("Mutation failed", "operation", op, "error", err)
}

// afterMutation clears a stale error and, when enabled, refetches. A failed
// refetch is reported through the cache state.
func (c *Cache[T]) afterMutation(ctx context.Context) {
	c.mu.Lock()
	c.err = ""
	c.mu.Unlock()

	if c.revalidate {
		_ = c.FetchAll(ctx)
	}
}
