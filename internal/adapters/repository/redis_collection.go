package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/infrastructure/kv"
	"github.com/relaxflow/core/internal/ports"
)

// maxTxAttempts bounds optimistic retries when another writer touches the key
// between WATCH and EXEC.
const maxTxAttempts = 10

// RedisCollection keeps a whole collection as one JSON string value.
type RedisCollection[T any] struct {
	name   string
	key    string
	client *redis.Client
}

// NewRedisCollection creates a collection stored under the prefixed collection name.
func NewRedisCollection[T any](r *kv.Redis, name string) ports.Collection[T] {
	return &RedisCollection[T]{name: name, key: r.Key(name), client: r.Client}
}

func (c *RedisCollection[T]) Name() string { return c.name }

func (c *RedisCollection[T]) ReadAll(ctx context.Context) ([]T, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, c.key, "[]", 0).Err(); err != nil {
			return nil, c.storageErr("read", err)
		}
		return []T{}, nil
	}
	if err != nil {
		return nil, c.storageErr("read", err)
	}
	return c.decode(raw)
}

func (c *RedisCollection[T]) WriteAll(ctx context.Context, records []T) error {
	raw, err := c.encode(records)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key, raw, 0).Err(); err != nil {
		return c.storageErr("write", err)
	}
	return nil
}

// Update uses WATCH/MULTI so the write only lands if nobody changed the key
// since it was read; conflicting attempts are retried.
func (c *RedisCollection[T]) Update(ctx context.Context, fn func(records []T) ([]T, error)) error {
	var fnErr error
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, c.key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return c.storageErr("update", err)
		}

		records, err := c.decode(raw)
		if err != nil {
			return err
		}

		updated, err := fn(records)
		if err != nil {
			fnErr = err
			return err
		}

		encoded, err := c.encode(updated)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key, encoded, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		fnErr = nil
		err := c.client.Watch(ctx, txf, c.key)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case fnErr != nil, entities.IsStorage(err):
			return err
		default:
			return c.storageErr("update", err)
		}
	}
	return c.storageErr("update", fmt.Errorf("too many concurrent writers"))
}

func (c *RedisCollection[T]) decode(raw []byte) ([]T, error) {
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

func (c *RedisCollection[T]) encode(records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, c.storageErr("encode", err)
	}
	return raw, nil
}

func (c *RedisCollection[T]) storageErr(op string, err error) error {
	return &entities.StorageError{Collection: c.name, Op: op, Err: fmt.Errorf("redis: %w", err)}
}
