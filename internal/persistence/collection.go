package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Collection is a JSON array of T stored under a single key. Every write
// replaces the whole array.
type Collection[T any] struct {
	store  BlobStore
	key    string
	logger *zap.Logger
}

// NewCollection binds a collection to key in store.
func NewCollection[T any](store BlobStore, key string, logger *zap.Logger) *Collection[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection[T]{store: store, key: key, logger: logger}
}

// Key returns the storage key.
func (c *Collection[T]) Key() string {
	return c.key
}

// Load returns the stored items and the version they were read at. A
// missing key yields an empty list. A value that does not decode is
// logged and treated as empty; the returned version still lets the next
// Save overwrite it.
func (c *Collection[T]) Load(ctx context.Context) ([]T, int64, error) {
	blob, err := c.store.Load(ctx, c.key)
	if err != nil {
		return nil, 0, err
	}
	if blob.Empty() {
		return []T{}, blob.Version, nil
	}
	var items []T
	if err := json.Unmarshal(blob.Data, &items); err != nil {
		c.logger.Warn("discarding undecodable collection",
			zap.String("key", c.key),
			zap.Int64("version", blob.Version),
			zap.Error(err))
		return []T{}, blob.Version, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, blob.Version, nil
}

// Save writes items if the stored version still equals version.
func (c *Collection[T]) Save(ctx context.Context, items []T, version int64) (int64, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", c.key, err)
	}
	return c.store.Save(ctx, c.key, data, version)
}

// Document is a single JSON value stored under a key.
type Document[T any] struct {
	store  BlobStore
	key    string
	logger *zap.Logger
}

// NewDocument binds a document to key in store.
func NewDocument[T any](store BlobStore, key string, logger *zap.Logger) *Document[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Document[T]{store: store, key: key, logger: logger}
}

// Load returns the stored value, or nil if absent or undecodable.
func (d *Document[T]) Load(ctx context.Context) (*T, int64, error) {
	blob, err := d.store.Load(ctx, d.key)
	if err != nil {
		return nil, 0, err
	}
	if blob.Empty() {
		return nil, blob.Version, nil
	}
	var value T
	if err := json.Unmarshal(blob.Data, &value); err != nil {
		d.logger.Warn("discarding undecodable document",
			zap.String("key", d.key),
			zap.Error(err))
		return nil, blob.Version, nil
	}
	return &value, blob.Version, nil
}

// Save writes value if the stored version still equals version.
func (d *Document[T]) Save(ctx context.Context, value T, version int64) (int64, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", d.key, err)
	}
	return d.store.Save(ctx, d.key, data, version)
}

// Delete removes the document. Deleting a missing document is not an error.
func (d *Document[T]) Delete(ctx context.Context) error {
	return d.store.Delete(ctx, d.key)
}
