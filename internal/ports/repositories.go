package ports

import (
	"context"
	"time"

	"github.com/relaxflow/core/internal/domain/entities"
)

// Record is anything stored in a collection under an identifier.
type Record interface {
	GetID() string
}

// Collection defines whole-collection storage for one entity type.
type Collection[T any] interface {
	// Name returns the collection key.
	Name() string
	// ReadAll returns every record. A missing collection is created empty.
	ReadAll(ctx context.Context) ([]T, error)
	// WriteAll replaces the persisted collection.
	WriteAll(ctx context.Context, records []T) error
	// Update runs fn as one read-modify-write. If fn returns an error nothing is written.
	Update(ctx context.Context, fn func(records []T) ([]T, error)) error
}

// Store bundles one collection per entity type.
type Store struct {
	Users       Collection[entities.User]
	Owners      Collection[entities.Owner]
	Products    Collection[entities.Product]
	Meditations Collection[entities.Meditation]
	DailyPlays  Collection[entities.DailyPlay]
}

// IDGenerator assigns identifiers to new records.
type IDGenerator interface {
	NextID(existing []string) string
}

// ChangeAction names the mutation that produced a ChangeEvent.
type ChangeAction string

const (
	ChangeCreated ChangeAction = "created"
	ChangeUpdated ChangeAction = "updated"
	ChangeDeleted ChangeAction = "deleted"
	ChangePlayed  ChangeAction = "played"
)

// ChangeEvent is broadcast after a successful mutation.
type ChangeEvent struct {
	Collection string       `json:"collection"`
	Action     ChangeAction `json:"action"`
	ID         string       `json:"id"`
	At         time.Time    `json:"at"`
}

// ChangePublisher receives change events from services.
type ChangePublisher interface {
	Publish(event ChangeEvent)
}
