package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/infrastructure/database"
	"github.com/relaxflow/core/internal/ports"
)

// PostgresCollection keeps a whole collection as one JSONB array row.
type PostgresCollection[T any] struct {
	name string
	db   *database.DB
}

// NewPostgresCollection creates a collection backed by the record_collections table.
func NewPostgresCollection[T any](db *database.DB, name string) ports.Collection[T] {
	return &PostgresCollection[T]{name: name, db: db}
}

func (c *PostgresCollection[T]) Name() string { return c.name }

const ensureCollectionQuery = `
	INSERT INTO record_collections (name, records, updated_at)
	VALUES ($1, '[]'::jsonb, NOW())
	ON CONFLICT (name) DO NOTHING`

func (c *PostgresCollection[T]) ReadAll(ctx context.Context) ([]T, error) {
	if _, err := c.db.DB.ExecContext(ctx, ensureCollectionQuery, c.name); err != nil {
		return nil, c.storageErr("read", err)
	}

	var raw []byte
	err := c.db.DB.GetContext(ctx, &raw, `SELECT records FROM record_collections WHERE name = $1`, c.name)
	if err != nil {
		return nil, c.storageErr("read", err)
	}

	return c.decode(raw)
}

func (c *PostgresCollection[T]) WriteAll(ctx context.Context, records []T) error {
	raw, err := c.encode(records)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO record_collections (name, records, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (name) DO UPDATE SET records = EXCLUDED.records, updated_at = EXCLUDED.updated_at`

	if _, err := c.db.DB.ExecContext(ctx, query, c.name, raw); err != nil {
		return c.storageErr("write", err)
	}
	return nil
}

// Update holds a row lock on the collection for the whole read-modify-write, so
// concurrent writers in any process are serialised.
func (c *PostgresCollection[T]) Update(ctx context.Context, fn func(records []T) ([]T, error)) error {
	return c.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, ensureCollectionQuery, c.name); err != nil {
			return c.storageErr("update", err)
		}

		var raw []byte
		err := tx.GetContext(ctx, &raw, `SELECT records FROM record_collections WHERE name = $1 FOR UPDATE`, c.name)
		if err != nil {
			if err == sql.ErrNoRows {
				raw = []byte("[]")
			} else {
				return c.storageErr("update", err)
			}
		}

		records, err := c.decode(raw)
		if err != nil {
			return err
		}

		updated, err := fn(records)
		if err != nil {
			return err
		}

		encoded, err := c.encode(updated)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE record_collections SET records = $2::jsonb, updated_at = NOW() WHERE name = $1`,
			c.name, encoded)
		if err != nil {
			return c.storageErr("update", err)
		}
		return nil
	})
}

func (c *PostgresCollection[T]) decode(raw []byte) ([]T, error) {
	var records []T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, c.storageErr("decode", err)
		}
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (c *PostgresCollection[T]) encode(records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, c.storageErr("encode", err)
	}
	return raw, nil
}

func (c *PostgresCollection[T]) storageErr(op string, err error) error {
	return &entities.StorageError{Collection: c.name, Op: op, Err: fmt.Errorf("postgres: %w", err)}
}
