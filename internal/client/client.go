package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/relaxflow/core/internal/application/analytics"
	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/infrastructure/config"
	"github.com/relaxflow/core/internal/infrastructure/logger"
	"github.com/relaxflow/core/internal/ports"
)

// Client talks to the RelaxFlow HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger

	mu    sync.RWMutex
	token string
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string                `json:"message"`
	Fields     []entities.FieldError `json:"errors"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// New creates a client for cfg.BaseURL. cfg.Token, if set, is sent as a bearer token.
func New(cfg config.ClientConfig, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.WithComponent("client"),
		token:      cfg.Token,
	}
}

// SetToken replaces the bearer token used for later requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges administrator credentials for a token and keeps it for later requests.
func (c *Client) Login(ctx context.Context, email, password string) (*ports.AuthResponse, error) {
	var resp ports.AuthResponse
	req := ports.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

// Dashboard fetches the server computed overview.
func (c *Client) Dashboard(ctx context.Context) (*analytics.Overview, error) {
	var overview analytics.Overview
	if err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}

// Users returns the users resource.
func (c *Client) Users() *Resource[entities.User] {
	return newResource[entities.User](c, entities.CollectionUsers, "user")
}

// Owners returns the owners resource.
func (c *Client) Owners() *Resource[entities.Owner] {
	return newResource[entities.Owner](c, entities.CollectionOwners, "owner")
}

// Products returns the products resource.
func (c *Client) Products() *Resource[entities.Product] {
	return newResource[entities.Product](c, entities.CollectionProducts, "product")
}

// Meditations returns the meditations resource.
func (c *Client) Meditations() *Resource[entities.Meditation] {
	return newResource[entities.Meditation](c, entities.CollectionMeditations, "meditation")
}

// DailyPlays returns the daily play resource. Update on it records a play.
func (c *Client) DailyPlays() *Resource[entities.DailyPlay] {
	return newResource[entities.DailyPlay](c, entities.CollectionDailyPlay, "daily play")
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if len(data) > 0 {
			_ = json.Unmarshal(data, apiErr)
		}
		c.logger.Debugw("API request failed", "method", method, "path", path, "status", resp.StatusCode)
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Resource is one collection endpoint under /api.
type Resource[T any] struct {
	client     *Client
	collection string
	noun       string
}

func newResource[T any](c *Client, collection, noun string) *Resource[T] {
	return &Resource[T]{client: c, collection: collection, noun: noun}
}

// Collection returns the collection name, which is also the change feed topic.
func (r *Resource[T]) Collection() string { return r.collection }

func (r *Resource[T]) path() string { return "/api/" + r.collection }

// List returns every record.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.client.do(ctx, http.MethodGet, r.path(), nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Create posts input and returns the stored record.
func (r *Resource[T]) Create(ctx context.Context, input interface{}) (T, error) {
	var item T
	err := r.client.do(ctx, http.MethodPost, r.path(), input, &item)
	return item, err
}

// Update puts input and returns the stored record.
func (r *Resource[T]) Update(ctx context.Context, input interface{}) (T, error) {
	var item T
	err := r.client.do(ctx, http.MethodPut, r.path(), input, &item)
	return item, err
}

// Delete removes the record with id.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.client.do(ctx, http.MethodDelete, r.path(), ports.DeleteRequest{ID: id}, nil)
}
