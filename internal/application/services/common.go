package services

import (
	"time"

	"github.com/relaxflow/core/internal/application/validation"
	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/infrastructure/logger"
	"github.com/relaxflow/core/internal/ports"
)

// Dependencies are shared by every entity service. IDs is required.
type Dependencies struct {
	IDs       ports.IDGenerator
	Validator *validation.Validator
	Events    ports.ChangePublisher
	Logger    *logger.Logger
	Now       func() time.Time
}

type nopPublisher struct{}

func (nopPublisher) Publish(ports.ChangeEvent) {}

func (d Dependencies) withDefaults() Dependencies {
	if d.Validator == nil {
		d.Validator = validation.New()
	}
	if d.Events == nil {
		d.Events = nopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// recordChange logs a committed mutation and announces it on the change feed.
func (d Dependencies) recordChange(collection string, action ports.ChangeAction, id string) {
	d.Logger.LogMutation(collection, string(action), id)
	d.Events.Publish(ports.ChangeEvent{
		Collection: collection,
		Action:     action,
		ID:         id,
		At:         d.Now().UTC(),
	})
}

func indexByID[T ports.Record](records []T, id string) int {
	for i, r := range records {
		if r.GetID() == id {
			return i
		}
	}
	return -1
}

func existingIDs[T ports.Record](records []T) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.GetID())
	}
	return ids
}

func prepend[T any](records []T, record T) []T {
	return append([]T{record}, records...)
}

func removeAt[T any](records []T, i int) []T {
	out := make([]T, 0, len(records)-1)
	out = append(out, records[:i]...)
	return append(out, records[i+1:]...)
}

func requireID(id string) error {
	if id == "" {
		return &entities.ValidationError{
			Message: "validation failed",
			Fields:  []entities.FieldError{{Field: "id", Message: "is required"}},
		}
	}
	return nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
