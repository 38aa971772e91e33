// Package kvtest holds behavioral tests every kv.Store must pass.
package kvtest

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/yndnr/govmesh-go/internal/storage/kv"
)

var errAbort = errors.New("abort")

// Run exercises store semantics against stores returned by open. Each
// subtest gets a fresh store.
func Run(t *testing.T, open func(t *testing.T) kv.Store) {
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, open(t)) })
	t.Run("CommitVisible", func(t *testing.T) { testCommitVisible(t, open(t)) })
	t.Run("RollbackOnError", func(t *testing.T) { testRollback(t, open(t)) })
	t.Run("ReadYourWrites", func(t *testing.T) { testReadYourWrites(t, open(t)) })
	t.Run("ScanPrefixOrdered", func(t *testing.T) { testScan(t, open(t)) })
	t.Run("ViewIsReadOnly", func(t *testing.T) { testViewReadOnly(t, open(t)) })
	t.Run("ValuesAreCopies", func(t *testing.T) { testCopies(t, open(t)) })
	t.Run("Backup", func(t *testing.T) { testBackup(t, open(t)) })
}

func set(t *testing.T, s kv.Store, pairs ...string) {
	t.Helper()
	err := s.Update(context.Background(), func(tx kv.Tx) error {
		for i := 0; i+1 < len(pairs); i += 2 {
			if err := tx.Set([]byte(pairs[i]), []byte(pairs[i+1])); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func get(t *testing.T, s kv.Store, key string) (string, error) {
	t.Helper()
	var out []byte
	err := s.View(context.Background(), func(r kv.Reader) error {
		v, err := r.Get([]byte(key))
		out = v
		return err
	})
	return string(out), err
}

func testGetMissing(t *testing.T, s kv.Store) {
	if _, err := get(t, s, "nope"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Errorf("Get(missing) = %v, want ErrKeyNotFound", err)
	}
}

func testCommitVisible(t *testing.T, s kv.Store) {
	set(t, s, "a", "1", "b", "2")
	if v, err := get(t, s, "a"); err != nil || v != "1" {
		t.Errorf("Get(a) = %q, %v", v, err)
	}

	err := s.Update(context.Background(), func(tx kv.Tx) error {
		return tx.Delete([]byte("a"))
	})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := get(t, s, "a"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Errorf("Get(a) after delete = %v", err)
	}
}

func testRollback(t *testing.T, s kv.Store) {
	set(t, s, "keep", "old")

	err := s.Update(context.Background(), func(tx kv.Tx) error {
		if err := tx.Set([]byte("keep"), []byte("new")); err != nil {
			return err
		}
		if err := tx.Set([]byte("extra"), []byte("x")); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("Update error = %v, want errAbort", err)
	}

	if v, _ := get(t, s, "keep"); v != "old" {
		t.Errorf("keep = %q after rollback, want old", v)
	}
	if _, err := get(t, s, "extra"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Errorf("extra should not exist after rollback, got %v", err)
	}
}

func testReadYourWrites(t *testing.T, s kv.Store) {
	set(t, s, "k", "v0")
	err := s.Update(context.Background(), func(tx kv.Tx) error {
		if err := tx.Set([]byte("k"), []byte("v1")); err != nil {
			return err
		}
		v, err := tx.Get([]byte("k"))
		if err != nil || string(v) != "v1" {
			t.Errorf("Get inside tx = %q, %v", v, err)
		}
		if err := tx.Delete([]byte("k")); err != nil {
			return err
		}
		if _, err := tx.Get([]byte("k")); !errors.Is(err, kv.ErrKeyNotFound) {
			t.Errorf("Get after delete inside tx = %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func testScan(t *testing.T, s kv.Store) {
	set(t, s, "p/b", "2", "p/a", "1", "q/a", "x", "p/c", "3")

	var keys []string
	err := s.Update(context.Background(), func(tx kv.Tx) error {
		if err := tx.Set([]byte("p/ab"), []byte("pending")); err != nil {
			return err
		}
		if err := tx.Delete([]byte("p/c")); err != nil {
			return err
		}
		return tx.Scan([]byte("p/"), func(k, _ []byte) bool {
			keys = append(keys, string(k))
			return true
		})
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	want := []string{"p/a", "p/ab", "p/b"}
	if len(keys) != len(want) {
		t.Fatalf("Scan keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %s, want %s", i, keys[i], want[i])
		}
	}

	n := 0
	_ = s.View(context.Background(), func(r kv.Reader) error {
		return r.Scan([]byte("p/"), func(_, _ []byte) bool {
			n++
			return false
		})
	})
	if n != 1 {
		t.Errorf("early stop visited %d keys, want 1", n)
	}
}

func testViewReadOnly(t *testing.T, s kv.Store) {
	err := s.View(context.Background(), func(r kv.Reader) error {
		tx, ok := r.(kv.Tx)
		if !ok {
			return nil
		}
		return tx.Set([]byte("x"), []byte("y"))
	})
	if err != nil && !errors.Is(err, kv.ErrReadOnly) {
		t.Logf("write in View returned engine error: %v", err)
	}
	if _, err := get(t, s, "x"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Errorf("write inside View must not persist, got %v", err)
	}
}

func testCopies(t *testing.T, s kv.Store) {
	val := []byte("abc")
	err := s.Update(context.Background(), func(tx kv.Tx) error {
		return tx.Set([]byte("k"), val)
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	val[0] = 'z'

	if v, _ := get(t, s, "k"); v != "abc" {
		t.Errorf("stored value changed with caller buffer: %q", v)
	}
}

func testBackup(t *testing.T, s kv.Store) {
	set(t, s, "a", "1", "b", "2")
	var buf bytes.Buffer
	if err := s.Backup(context.Background(), &buf); err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("Backup wrote nothing")
	}

	st, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Engine == "" {
		t.Error("Stats.Engine is empty")
	}
}
