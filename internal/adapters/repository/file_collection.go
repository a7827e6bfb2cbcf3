package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/ports"
)

var emptyArray = []byte("[]")

// FileNames maps collection names to the JSON files that hold them.
var FileNames = map[string]string{
	entities.CollectionUsers:       "users.json",
	entities.CollectionOwners:      "owners.json",
	entities.CollectionProducts:    "products.json",
	entities.CollectionMeditations: "music-meditations.json",
	entities.CollectionDailyPlay:   "daily-play.json",
}

// FileCollection stores one collection as an indented JSON array on disk.
type FileCollection[T any] struct {
	name string
	path string
	// mu serialises Update so concurrent read-modify-write cycles in this
	// process cannot lose each other's changes.
	mu sync.Mutex
}

// NewFileCollection creates a file-backed collection inside dataDir.
func NewFileCollection[T any](dataDir, name string) ports.Collection[T] {
	file, ok := FileNames[name]
	if !ok {
		file = name + ".json"
	}
	return &FileCollection[T]{
		name: name,
		path: filepath.Join(dataDir, file),
	}
}

func (c *FileCollection[T]) Name() string { return c.name }

func (c *FileCollection[T]) ReadAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, c.storageErr("read", err)
	}
	return c.read()
}

func (c *FileCollection[T]) WriteAll(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return c.storageErr("write", err)
	}
	return c.write(records)
}

func (c *FileCollection[T]) Update(ctx context.Context, fn func(records []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return c.storageErr("update", err)
	}

	records, err := c.read()
	if err != nil {
		return err
	}

	updated, err := fn(records)
	if err != nil {
		return err
	}

	return c.write(updated)
}

func (c *FileCollection[T]) read() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return c.initialise()
	}
	if err != nil {
		return nil, c.storageErr("read", err)
	}
	return c.decode(data)
}

// initialise creates the file with an empty array. A file that appears in the
// meantime, e.g. from a concurrent Update, is never replaced; it is read instead.
func (c *FileCollection[T]) initialise() ([]T, error) {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return nil, c.storageErr("write", err)
	}

	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		data, err := os.ReadFile(c.path)
		if err != nil {
			return nil, c.storageErr("read", err)
		}
		return c.decode(data)
	}
	if err != nil {
		return nil, c.storageErr("write", err)
	}

	_, err = f.Write(emptyArray)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, c.storageErr("write", err)
	}
	return []T{}, nil
}

func (c *FileCollection[T]) decode(data []byte) ([]T, error) {
	// A file being initialised may briefly be empty.
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, c.storageErr("decode", err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// encode renders records as a 2-space indented array without a trailing
// newline or HTML escaping, the layout the dashboard has always written.
func (c *FileCollection[T]) encode(records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, c.storageErr("encode", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// write replaces the file through a temp file and rename so readers never see a
// half-written array.
func (c *FileCollection[T]) write(records []T) error {
	data, err := c.encode(records)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return c.storageErr("write", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return c.storageErr("write", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return c.storageErr("write", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return c.storageErr("write", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return c.storageErr("write", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return c.storageErr("write", err)
	}
	return nil
}

func (c *FileCollection[T]) storageErr(op string, err error) error {
	return &entities.StorageError{Collection: c.name, Op: op, Err: fmt.Errorf("%s: %w", c.path, err)}
}
