package confloader

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNewWatcher(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if !filepath.IsAbs(w.Path()) || filepath.Base(w.Path()) != "govmesh.yaml" {
		t.Errorf("Path() = %q", w.Path())
	}
	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v", w.debounce)
	}
}

func TestNewWatcher_MissingDir(t *testing.T) {
	if _, err := NewWatcher(filepath.Join(t.TempDir(), "nope", "govmesh.yaml")); err == nil {
		t.Fatal("expected error for a missing directory")
	}
}

func TestWatcher_ReportsWrites(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	w, err := NewWatcher(path, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	var got atomic.Value
	var calls atomic.Int32
	w.OnChange(func(p string) {
		got.Store(p)
		calls.Add(1)
	})
	w.Start()

	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return calls.Load() > 0 })
	if got.Load().(string) != w.Path() {
		t.Errorf("callback path = %v, want %q", got.Load(), w.Path())
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	w, err := NewWatcher(path, WithDebounce(0))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	var calls atomic.Int32
	w.OnChange(func(string) { calls.Add(1) })
	w.Start()

	sibling := filepath.Join(filepath.Dir(path), "other.yaml")
	if err := os.WriteFile(sibling, []byte("x: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("sibling write fired %d callbacks", n)
	}
}

func TestWatcher_DebounceCoalesces(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	w, err := NewWatcher(path, WithDebounce(150*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	var calls atomic.Int32
	w.OnChange(func(string) { calls.Add(1) })
	w.Start()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("log:\n  level: warn\n"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	waitFor(t, func() bool { return calls.Load() > 0 })
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("burst fired %d callbacks, want 1", n)
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}
