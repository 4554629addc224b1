package persistence

import (
	"context"
	"errors"
)

// ErrVersionConflict is returned by Save when the stored version no longer
// matches the version the caller read.
var ErrVersionConflict = errors.New("blob version conflict")

// Blob is a named JSON value together with its version. A key that was
// never written loads as an empty Blob with Version 0.
type Blob struct {
	Data    []byte
	Version int64
}

// Empty reports whether nothing is stored under the key.
func (b Blob) Empty() bool {
	return len(b.Data) == 0
}

// BlobStore reads and writes whole JSON blobs by key. Writes are
// compare-and-swap on the version so that concurrent writers surface as
// ErrVersionConflict instead of silently overwriting each other.
type BlobStore interface {
	Load(ctx context.Context, key string) (Blob, error)
	// Save stores data if the current version equals expectedVersion and
	// returns the new version.
	Save(ctx context.Context, key string, data []byte, expectedVersion int64) (int64, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
