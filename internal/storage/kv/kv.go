// Package kv defines the transactional key-value contract shared by the
// storage engines.
//
// Every governance call runs inside exactly one transaction: all writes made
// through the Tx become visible together when the callback returns nil, and
// none of them do when it returns an error.
package kv

import (
	"context"
	"errors"
	"io"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv store closed")
	ErrReadOnly    = errors.New("write in read-only transaction")
)

// Reader is the read side of a transaction.
type Reader interface {
	// Get returns the value for key or ErrKeyNotFound.
	// The returned slice is owned by the caller.
	Get(key []byte) ([]byte, error)

	// Scan visits keys with the given prefix in ascending byte order.
	// The callback returns false to stop iteration.
	Scan(prefix []byte, fn func(key, value []byte) bool) error
}

// Tx is a read-write transaction.
type Tx interface {
	Reader

	Set(key, value []byte) error
	Delete(key []byte) error
}

// Store is a transactional key-value store.
type Store interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(Reader) error) error

	// Update runs fn in a read-write transaction and commits if fn
	// returns nil.
	Update(ctx context.Context, fn func(Tx) error) error

	// Backup writes a full dump of the store to w.
	Backup(ctx context.Context, w io.Writer) error

	// Stats returns storage statistics.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases resources. Further calls return ErrClosed.
	Close() error
}

// Stats contains storage statistics.
type Stats struct {
	Engine string `json:"engine"`

	// Keys is exact for the memory engine and 0 for Badger.
	Keys uint64 `json:"keys"`

	// TotalSize is the on-disk size in bytes (Badger only).
	TotalSize uint64 `json:"total_size"`

	LSMSize      uint64 `json:"lsm_size,omitempty"`
	ValueLogSize uint64 `json:"value_log_size,omitempty"`

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64 `json:"last_gc_time,omitempty"`

	// ShardSkew is the largest memory shard over the mean (memory only).
	ShardSkew float64 `json:"shard_skew,omitempty"`
}
