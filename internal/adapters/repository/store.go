package repository

import (
	"fmt"

	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/infrastructure/config"
	"github.com/relaxflow/core/internal/infrastructure/database"
	"github.com/relaxflow/core/internal/infrastructure/kv"
	"github.com/relaxflow/core/internal/ports"
)

// Storage drivers accepted in configuration.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Backends carries the connections a driver may need. Only the one matching
// the configured driver has to be set.
type Backends struct {
	DB    *database.DB
	Redis *kv.Redis
}

// NewFileStore creates JSON file collections under dataDir.
func NewFileStore(dataDir string, metrics *StoreMetrics) *ports.Store {
	return &ports.Store{
		Users:       Instrument(NewFileCollection[entities.User](dataDir, entities.CollectionUsers), metrics),
		Owners:      Instrument(NewFileCollection[entities.Owner](dataDir, entities.CollectionOwners), metrics),
		Products:    Instrument(NewFileCollection[entities.Product](dataDir, entities.CollectionProducts), metrics),
		Meditations: Instrument(NewFileCollection[entities.Meditation](dataDir, entities.CollectionMeditations), metrics),
		DailyPlays:  Instrument(NewFileCollection[entities.DailyPlay](dataDir, entities.CollectionDailyPlay), metrics),
	}
}

// NewPostgresStore creates JSONB collections in the record_collections table.
func NewPostgresStore(db *database.DB, metrics *StoreMetrics) *ports.Store {
	return &ports.Store{
		Users:       Instrument(NewPostgresCollection[entities.User](db, entities.CollectionUsers), metrics),
		Owners:      Instrument(NewPostgresCollection[entities.Owner](db, entities.CollectionOwners), metrics),
		Products:    Instrument(NewPostgresCollection[entities.Product](db, entities.CollectionProducts), metrics),
		Meditations: Instrument(NewPostgresCollection[entities.Meditation](db, entities.CollectionMeditations), metrics),
		DailyPlays:  Instrument(NewPostgresCollection[entities.DailyPlay](db, entities.CollectionDailyPlay), metrics),
	}
}

// NewRedisStore creates collections stored as JSON strings in redis.
func NewRedisStore(r *kv.Redis, metrics *StoreMetrics) *ports.Store {
	return &ports.Store{
		Users:       Instrument(NewRedisCollection[entities.User](r, entities.CollectionUsers), metrics),
		Owners:      Instrument(NewRedisCollection[entities.Owner](r, entities.CollectionOwners), metrics),
		Products:    Instrument(NewRedisCollection[entities.Product](r, entities.CollectionProducts), metrics),
		Meditations: Instrument(NewRedisCollection[entities.Meditation](r, entities.CollectionMeditations), metrics),
		DailyPlays:  Instrument(NewRedisCollection[entities.DailyPlay](r, entities.CollectionDailyPlay), metrics),
	}
}

// New picks the backend named by cfg.Driver.
func New(cfg config.StorageConfig, backends Backends, metrics *StoreMetrics) (*ports.Store, error) {
	switch cfg.Driver {
	case "", DriverFile:
		return NewFileStore(cfg.DataDir, metrics), nil
	case DriverPostgres:
		if backends.DB == nil {
			return nil, fmt.Errorf("postgres storage requires a database connection")
		}
		return NewPostgresStore(backends.DB, metrics), nil
	case DriverRedis:
		if backends.Redis == nil {
			return nil, fmt.Errorf("redis storage requires a redis connection")
		}
		return NewRedisStore(backends.Redis, metrics), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
