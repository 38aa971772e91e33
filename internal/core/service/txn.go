package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/storage/keyspace"
	"github.com/yndnr/govmesh-go/internal/storage/kv"
)

// Txn is the unit of work of one governance call. Components read and
// write state only through it; events are buffered until the surrounding
// store transaction commits.
type Txn struct {
	ctx    context.Context
	r      kv.Reader
	w      kv.Tx // nil for read-only calls
	now    uint32
	events []domain.Event
	series []int
}

// NewTxn wraps a read-write transaction.
func NewTxn(ctx context.Context, tx kv.Tx, now uint32) *Txn {
	return &Txn{ctx: ctx, r: tx, w: tx, now: now}
}

// NewReadTxn wraps a read-only transaction.
func NewReadTxn(ctx context.Context, r kv.Reader, now uint32) *Txn {
	return &Txn{ctx: ctx, r: r, now: now}
}

// Context returns the request context.
func (t *Txn) Context() context.Context { return t.ctx }

// Now returns the logical time the call observes.
func (t *Txn) Now() uint32 { return t.now }

// Events returns the buffered events.
func (t *Txn) Events() []domain.Event { return t.events }

func (t *Txn) emit(e domain.Event) {
	t.events = append(t.events, e)
}

// get decodes the value stored under k into v. It reports false when the
// key is absent.
func (t *Txn) get(k keyspace.Key, v any) (bool, error) {
	raw, err := t.r.Get(k.Encode())
	if errors.Is(err, kv.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, domain.ErrStorageError.WithDetailsf("read %s", k.Tag()).WithCause(err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, domain.ErrStorageError.WithDetailsf("decode %s", k.Tag()).WithCause(err)
	}
	return true, nil
}

func (t *Txn) has(k keyspace.Key) (bool, error) {
	_, err := t.r.Get(k.Encode())
	if errors.Is(err, kv.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, domain.ErrStorageError.WithDetailsf("read %s", k.Tag()).WithCause(err)
	}
	return true, nil
}

func (t *Txn) put(k keyspace.Key, v any) error {
	if t.w == nil {
		return domain.ErrInternalServer.WithDetailsf("write %s in read-only call", k.Tag())
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return domain.ErrInternalServer.WithDetailsf("encode %s", k.Tag()).WithCause(err)
	}
	if err := t.w.Set(k.Encode(), raw); err != nil {
		return domain.ErrStorageError.WithDetailsf("write %s", k.Tag()).WithCause(err)
	}
	return nil
}

func (t *Txn) del(k keyspace.Key) error {
	if t.w == nil {
		return domain.ErrInternalServer.WithDetailsf("delete %s in read-only call", k.Tag())
	}
	if err := t.w.Delete(k.Encode()); err != nil {
		return domain.ErrStorageError.WithDetailsf("delete %s", k.Tag()).WithCause(err)
	}
	return nil
}

// scan visits every key of the given tag.
func (t *Txn) scan(tag keyspace.Tag, fn func(k keyspace.Key, raw []byte) error) error {
	var cbErr error
	err := t.r.Scan(keyspace.Prefix(tag), func(key, value []byte) bool {
		k, err := keyspace.Decode(key)
		if err != nil {
			cbErr = domain.ErrStorageError.WithCause(err)
			return false
		}
		if err := fn(k, value); err != nil {
			cbErr = err
			return false
		}
		return true
	})
	if err != nil {
		return domain.ErrStorageError.WithDetailsf("scan %s", tag).WithCause(err)
	}
	return cbErr
}
