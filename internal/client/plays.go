package client

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/ports"
)

// PlayCache is the daily play cache. RecordPlay updates it optimistically.
type PlayCache struct {
	*Cache[entities.DailyPlay]
	now func() time.Time
}

// NewPlayCache creates an idle daily play cache.
func NewPlayCache(resource *Resource[entities.DailyPlay], opts ...CacheOption) *PlayCache {
	return &PlayCache{Cache: NewCache(resource, opts...), now: time.Now}
}

// RecordPlay counts one play for today. The local count is incremented before
// the request; if the request fails the error is recorded and the cache is
// refetched from the server.
func (p *PlayCache) RecordPlay(ctx context.Context, meditationID string) error {
	today := p.now().UTC().Format(entities.DateLayout)

	p.mu.Lock()
	found := false
	for i := range p.items {
		if p.items[i].Date == today {
			p.items[i].Plays++
			found = true
			break
		}
	}
	if !found {
		p.items = append(p.items, entities.DailyPlay{Date: today, Plays: 1})
		sort.SliceStable(p.items, func(i, j int) bool { return p.items[i].Date < p.items[j].Date })
	}
	p.err = ""
	p.mu.Unlock()

	record, err := p.resource.Update(ctx, ports.RecordPlayRequest{Date: today, MeditationID: meditationID})
	if err != nil {
		p.mu.Lock()
		p.err = fmt.Sprintf("Failed to record play: %v", err)
		p.mu.Unlock()
		p.logger.Warnw("Record play failed", "error", err)
		_ = p.FetchAll(ctx)
		return err
	}

	if p.revalidate {
		_ = p.FetchAll(ctx)
		return nil
	}

	// Adopt the server's count for the day.
	p.mu.Lock()
	for i := range p.items {
		if p.items[i].Date == record.Date {
			p.items[i] = record
			break
		}
	}
	p.mu.Unlock()
	return nil
}
