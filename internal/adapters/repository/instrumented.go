package repository

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/ports"
)

// StoreMetrics counts record store operations by collection, operation and result.
type StoreMetrics struct {
	operations *prometheus.CounterVec
}

// NewStoreMetrics registers the store counters with reg.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	ops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relaxflow",
			Subsystem: "record_store",
			Name:      "operations_total",
			Help:      "Record store operations by collection, operation and result",
		},
		[]string{"collection", "operation", "result"},
	)
	reg.MustRegister(ops)
	return &StoreMetrics{operations: ops}
}

func (m *StoreMetrics) observe(collection, op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case entities.IsStorage(err):
		result = "error"
	default:
		// fn rejected the change, nothing was written
		result = "aborted"
	}
	m.operations.WithLabelValues(collection, op, result).Inc()
}

type instrumentedCollection[T any] struct {
	next    ports.Collection[T]
	metrics *StoreMetrics
}

// Instrument wraps a collection so every call is counted. A nil metrics value
// returns the collection unchanged.
func Instrument[T any](next ports.Collection[T], metrics *StoreMetrics) ports.Collection[T] {
	if metrics == nil {
		return next
	}
	return &instrumentedCollection[T]{next: next, metrics: metrics}
}

func (c *instrumentedCollection[T]) Name() string { return c.next.Name() }

func (c *instrumentedCollection[T]) ReadAll(ctx context.Context) ([]T, error) {
	records, err := c.next.ReadAll(ctx)
	c.metrics.observe(c.next.Name(), "read_all", err)
	return records, err
}

func (c *instrumentedCollection[T]) WriteAll(ctx context.Context, records []T) error {
	err := c.next.WriteAll(ctx, records)
	c.metrics.observe(c.next.Name(), "write_all", err)
	return err
}

func (c *instrumentedCollection[T]) Update(ctx context.Context, fn func(records []T) ([]T, error)) error {
	err := c.next.Update(ctx, fn)
	c.metrics.observe(c.next.Name(), "update", err)
	return err
}
