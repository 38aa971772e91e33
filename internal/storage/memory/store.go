package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/yndnr/govmesh-go/internal/storage/kv"
	"github.com/yndnr/govmesh-go/pkg/cmap"
)

// Store is an in-memory kv.Store.
type Store struct {
	data *cmap.Map[string, []byte]

	// mu orders transactions: View holds it shared, Update exclusive.
	mu     sync.RWMutex
	closed bool
}

// Option configures the Store.
type Option func(*storeOptions)

type storeOptions struct {
	shards int
}

// WithShards sets the number of map shards (power of two).
func WithShards(n int) Option {
	return func(o *storeOptions) {
		o.shards = n
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	o := storeOptions{shards: cmap.DefaultShardCount}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{data: cmap.NewWithShards[string, []byte](o.shards)}
}

// View runs fn against the committed state.
func (s *Store) View(ctx context.Context, fn func(kv.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return kv.ErrClosed
	}
	return fn(&tx{store: s, readOnly: true})
}

// Update runs fn in a transaction and applies its writes if fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(kv.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return kv.ErrClosed
	}

	t := &tx{store: s, writes: make(map[string][]byte), deletes: make(map[string]struct{})}
	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.commit()
	return nil
}

// Stats returns the key count.
func (s *Store) Stats(_ context.Context) (*kv.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, kv.ErrClosed
	}
	return &kv.Stats{Engine: "memory", Keys: uint64(s.data.Count()), ShardSkew: s.data.Skew()}, nil
}

// Close drops all data.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.data.Clear()
	return nil
}

type record struct {
	Key   []byte `json:"k"`
	Value []byte `json:"v"`
}

// Backup writes every committed pair as one JSON object per line, in key
// order.
func (s *Store) Backup(ctx context.Context, w io.Writer) error {
	return s.View(ctx, func(r kv.Reader) error {
		enc := json.NewEncoder(w)
		var encErr error
		err := r.Scan(nil, func(key, value []byte) bool {
			if encErr = enc.Encode(record{Key: key, Value: value}); encErr != nil {
				return false
			}
			return ctx.Err() == nil
		})
		if err != nil {
			return err
		}
		if encErr != nil {
			return fmt.Errorf("memory: encode backup: %w", encErr)
		}
		return ctx.Err()
	})
}

// Restore loads a stream written by Backup in a single transaction.
// Existing keys are overwritten; other keys are kept.
func (s *Store) Restore(ctx context.Context, r io.Reader) error {
	return s.Update(ctx, func(t kv.Tx) error {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
		line := 0
		for sc.Scan() {
			line++
			var rec record
			if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
				return fmt.Errorf("memory: restore line %d: %w", line, err)
			}
			if err := t.Set(rec.Key, rec.Value); err != nil {
				return err
			}
		}
		return sc.Err()
	})
}

// tx reads through its own pending writes to the committed map.
type tx struct {
	store    *Store
	readOnly bool
	writes   map[string][]byte
	deletes  map[string]struct{}
}

func (t *tx) Get(key []byte) ([]byte, error) {
	k := string(key)
	if v, ok := t.writes[k]; ok {
		return clone(v), nil
	}
	if _, ok := t.deletes[k]; ok {
		return nil, kv.ErrKeyNotFound
	}
	v, ok := t.store.data.Get(k)
	if !ok {
		return nil, kv.ErrKeyNotFound
	}
	return clone(v), nil
}

func (t *tx) Set(key, value []byte) error {
	if t.readOnly {
		return kv.ErrReadOnly
	}
	k := string(key)
	delete(t.deletes, k)
	t.writes[k] = clone(value)
	return nil
}

func (t *tx) Delete(key []byte) error {
	if t.readOnly {
		return kv.ErrReadOnly
	}
	k := string(key)
	delete(t.writes, k)
	t.deletes[k] = struct{}{}
	return nil
}

func (t *tx) Scan(prefix []byte, fn func(key, value []byte) bool) error {
	p := string(prefix)
	keys := t.store.data.KeysWithPrefix(p)
	if len(t.writes) > 0 {
		seen := make(map[string]struct{}, len(keys))
		for _, k := range keys {
			seen[k] = struct{}{}
		}
		for k := range t.writes {
			if _, ok := seen[k]; !ok && strings.HasPrefix(k, p) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
	}

	for _, k := range keys {
		v, err := t.Get([]byte(k))
		if err == kv.ErrKeyNotFound {
			continue
		}
		if err != nil {
			return err
		}
		if !fn([]byte(k), v) {
			return nil
		}
	}
	return nil
}

func (t *tx) commit() {
	t.store.data.Apply(t.writes, t.deletes)
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
