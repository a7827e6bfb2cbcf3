package client

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relaxflow/core/internal/application/analytics"
	"github.com/relaxflow/core/internal/domain/entities"
)

// Dashboard bundles one cache per collection and derives the overview locally.
type Dashboard struct {
	Users       *Cache[entities.User]
	Owners      *Cache[entities.Owner]
	Products    *Cache[entities.Product]
	Meditations *Cache[entities.Meditation]
	Plays       *PlayCache
}

// NewDashboard creates idle caches for every collection.
func NewDashboard(c *Client, opts ...CacheOption) *Dashboard {
	return &Dashboard{
		Users:       NewCache(c.Users(), opts...),
		Owners:      NewCache(c.Owners(), opts...),
		Products:    NewCache(c.Products(), opts...),
		Meditations: NewCache(c.Meditations(), opts...),
		Plays:       NewPlayCache(c.DailyPlays(), opts...),
	}
}

// Caches returns every cache, for Client.Sync.
func (d *Dashboard) Caches() []Refetcher {
	return []Refetcher{d.Users, d.Owners, d.Products, d.Meditations, d.Plays}
}

// Load fetches every collection concurrently.
func (d *Dashboard) Load(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, cache := range d.Caches() {
		cache := cache
		g.Go(func() error { return cache.FetchAll(ctx) })
	}
	return g.Wait()
}

// Overview computes dashboard metrics from the cached records.
func (d *Dashboard) Overview(now time.Time) analytics.Overview {
	return analytics.BuildOverview(analytics.Input{
		Users:       d.Users.Items(),
		Owners:      d.Owners.Items(),
		Products:    d.Products.Items(),
		Meditations: d.Meditations.Items(),
		DailyPlays:  d.Plays.Items(),
	}, now)
}
