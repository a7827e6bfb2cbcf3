package services

import (
	"context"
	"fmt"
	"time"

	"github.com/relaxflow/core/internal/application/analytics"
	"github.com/relaxflow/core/internal/infrastructure/logger"
	"github.com/relaxflow/core/internal/ports"
)

// DashboardService loads every collection and summarises it
type DashboardService struct {
	store  *ports.Store
	logger *logger.Logger
	now    func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(store *ports.Store, logger *logger.Logger) *DashboardService {
	return &DashboardService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Overview computes the dashboard metrics as of now
func (s *DashboardService) Overview(ctx context.Context) (*analytics.Overview, error) {
	var (
		in  analytics.Input
		err error
	)

	if in.Users, err = s.store.Users.ReadAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	if in.Owners, err = s.store.Owners.ReadAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to load owners: %w", err)
	}
	if in.Products, err = s.store.Products.ReadAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if in.Meditations, err = s.store.Meditations.ReadAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to load meditations: %w", err)
	}
	if in.DailyPlays, err = s.store.DailyPlays.ReadAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to load daily plays: %w", err)
	}

	overview := analytics.BuildOverview(in, s.now())

	s.logger.Debugw("Dashboard overview computed",
		"users", overview.TotalUsers,
		"owners", overview.TotalOwners,
		"plays_today", overview.Plays.Today,
	)

	return &overview, nil
}
