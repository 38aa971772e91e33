package cmap

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestNewWithShards(t *testing.T) {
	for in, want := range map[int]int{0: DefaultShardCount, -4: DefaultShardCount, 6: DefaultShardCount, 1: 1, 64: 64} {
		if got := NewWithShards[string, int](in).ShardCount(); got != want {
			t.Errorf("NewWithShards(%d).ShardCount() = %d, want %d", in, got, want)
		}
	}
}

func TestGetSetDelete(t *testing.T) {
	m := New[string, []byte]()
	m.Set("org/dao", []byte("v1"))
	m.Set("org/dao", []byte("v2"))

	if v, ok := m.Get("org/dao"); !ok || string(v) != "v2" {
		t.Fatalf("Get() = %q, %v", v, ok)
	}
	m.Delete("org/dao")
	if _, ok := m.Get("org/dao"); ok {
		t.Fatal("key survived Delete")
	}
	m.Set("a", nil)
	m.Clear()
	if m.Count() != 0 {
		t.Errorf("Count() after Clear = %d", m.Count())
	}
}

type orgKey string

func TestNamedKeyType(t *testing.T) {
	m := New[orgKey, int]()
	m.Set(orgKey("dao"), 1)
	if v, _ := m.Get("dao"); v != 1 {
		t.Errorf("Get(dao) = %d", v)
	}
}

func TestShardIndexStable(t *testing.T) {
	a := NewWithShards[string, int](32)
	b := NewWithShards[string, int](32)
	for i := 0; i < 100; i++ {
		k := fmt.Sprintf("proposal/%04d", i)
		if a.ShardIndex(k) != b.ShardIndex(k) {
			t.Fatalf("shard of %q differs between maps", k)
		}
	}
}

func TestApply(t *testing.T) {
	m := NewWithShards[string, string](4)
	m.Set("keep", "k")
	m.Set("drop", "d")
	m.Set("replace", "old")

	m.Apply(
		map[string]string{"replace": "new", "add": "a"},
		map[string]struct{}{"drop": {}, "missing": {}},
	)

	want := map[string]string{"keep": "k", "replace": "new", "add": "a"}
	if m.Count() != len(want) {
		t.Fatalf("Count() = %d, want %d", m.Count(), len(want))
	}
	for k, v := range want {
		if got, _ := m.Get(k); got != v {
			t.Errorf("Get(%q) = %q, want %q", k, got, v)
		}
	}
}

func TestKeysWithPrefix(t *testing.T) {
	m := New[string, int]()
	for _, k := range []string{"b/2", "a/9", "b/1", "b/10", "c"} {
		m.Set(k, 0)
	}
	if got, want := m.KeysWithPrefix("b/"), []string{"b/1", "b/10", "b/2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("KeysWithPrefix(b/) = %v, want %v", got, want)
	}
	if got := m.KeysWithPrefix(""); len(got) != 5 || got[0] != "a/9" {
		t.Errorf("KeysWithPrefix(\"\") = %v", got)
	}
	if got := m.KeysWithPrefix("z"); len(got) != 0 {
		t.Errorf("KeysWithPrefix(z) = %v", got)
	}
}

func TestSkew(t *testing.T) {
	m := NewWithShards[string, int](8)
	if m.Skew() != 0 {
		t.Errorf("empty Skew() = %v", m.Skew())
	}
	for i := 0; i < 4000; i++ {
		m.Set(fmt.Sprintf("balance/%d", i), i)
	}
	if s := m.Skew(); s < 1 || s > 1.5 {
		t.Errorf("Skew() = %v, want murmur3 to spread keys evenly", s)
	}

	one := NewWithShards[string, int](8)
	one.Set("only", 1)
	if one.Skew() != 8 {
		t.Errorf("single key Skew() = %v, want 8", one.Skew())
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[string, int]()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := fmt.Sprintf("g%d/%d", g, i)
				m.Set(k, i)
				m.Get(k)
				if i%2 == 0 {
					m.Apply(nil, map[string]struct{}{k: {}})
				}
			}
		}(g)
	}
	wg.Wait()
	if m.Count() != 8*100 {
		t.Errorf("Count() = %d, want %d", m.Count(), 800)
	}
}
