package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/relaxflow/core/internal/ports"
)

// Watch streams change events for the named collections (all when empty) to
// fn until ctx is cancelled or the connection drops.
func (c *Client) Watch(ctx context.Context, collections []string, fn func(ports.ChangeEvent)) error {
	u, err := url.Parse(c.baseURL + "/api/events")
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if len(collections) > 0 {
		q := u.Query()
		q.Set("collections", strings.Join(collections, ","))
		u.RawQuery = q.Encode()
	}

	header := http.Header{}
	if token := c.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return fmt.Errorf("failed to connect to change feed: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var event ports.ChangeEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return nil
			}
			return fmt.Errorf("change feed closed: %w", err)
		}
		fn(event)
	}
}

// Refetcher is a cache that can reload itself.
type Refetcher interface {
	Collection() string
	FetchAll(ctx context.Context) error
}

// Sync refetches each cache whenever the change feed reports a change to its
// collection. It blocks like Watch.
func (c *Client) Sync(ctx context.Context, caches ...Refetcher) error {
	byCollection := make(map[string][]Refetcher, len(caches))
	names := make([]string, 0, len(caches))
	for _, cache := range caches {
		name := cache.Collection()
		if _, ok := byCollection[name]; !ok {
			names = append(names, name)
		}
		byCollection[name] = append(byCollection[name], cache)
	}

	return c.Watch(ctx, names, func(event ports.ChangeEvent) {
		for _, cache := range byCollection[event.Collection] {
			if err := cache.FetchAll(ctx); err != nil {
				c.logger.Warnw("Revalidation failed", "collection", event.Collection, "error", err)
			}
		}
	})
}
