package repository

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/relaxflow/core/internal/domain/entities"
)

func TestInstrument_CountsResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewStoreMetrics(reg)
	users := Instrument(NewFileCollection[entities.User](t.TempDir(), entities.CollectionUsers), metrics)
	ctx := context.Background()

	if _, err := users.ReadAll(ctx); err != nil {
		t.Fatal(err)
	}
	_ = users.Update(ctx, func(records []entities.User) ([]entities.User, error) {
		return nil, entities.ErrUserNotFound
	})

	ok := testutil.ToFloat64(metrics.operations.WithLabelValues("users", "read_all", "ok"))
	if ok != 1 {
		t.Errorf("Expected 1 successful read, got %v", ok)
	}
	aborted := testutil.ToFloat64(metrics.operations.WithLabelValues("users", "update", "aborted"))
	if aborted != 1 {
		t.Errorf("Expected 1 aborted update, got %v", aborted)
	}
}

func TestInstrument_NilMetricsPassesThrough(t *testing.T) {
	c := NewFileCollection[entities.User](t.TempDir(), entities.CollectionUsers)
	if Instrument(c, nil) != c {
		t.Error("Expected the collection to be returned unchanged")
	}
}
