package cmap

import (
	"sort"
	"strings"
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultShardCount is used when a shard count is zero or not a power of
// two.
const DefaultShardCount = 16

// Map is a sharded concurrent map.
type Map[K ~string, V any] struct {
	shards []*bucket[K, V]
	mask   uint64
}

type bucket[K ~string, V any] struct {
	sync.RWMutex
	m map[K]V
}

// New returns a map with DefaultShardCount shards.
func New[K ~string, V any]() *Map[K, V] {
	return NewWithShards[K, V](DefaultShardCount)
}

// NewWithShards returns a map with n shards.
func NewWithShards[K ~string, V any](n int) *Map[K, V] {
	if n <= 0 || n&(n-1) != 0 {
		n = DefaultShardCount
	}
	shards := make([]*bucket[K, V], n)
	for i := range shards {
		shards[i] = &bucket[K, V]{m: make(map[K]V)}
	}
	return &Map[K, V]{shards: shards, mask: uint64(n - 1)}
}

// ShardIndex returns the shard holding key.
func (m *Map[K, V]) ShardIndex(key K) int {
	return int(murmur3.Sum64([]byte(key)) & m.mask)
}

// ShardCount returns the number of shards.
func (m *Map[K, V]) ShardCount() int { return len(m.shards) }

func (m *Map[K, V]) bucketFor(key K) *bucket[K, V] {
	return m.shards[m.ShardIndex(key)]
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	b := m.bucketFor(key)
	b.RLock()
	v, ok := b.m[key]
	b.RUnlock()
	return v, ok
}

// Set stores value under key.
func (m *Map[K, V]) Set(key K, value V) {
	b := m.bucketFor(key)
	b.Lock()
	b.m[key] = value
	b.Unlock()
}

// Delete removes key.
func (m *Map[K, V]) Delete(key K) {
	b := m.bucketFor(key)
	b.Lock()
	delete(b.m, key)
	b.Unlock()
}

// Apply removes every key in deletes and then stores every pair in sets,
// taking each shard's lock once.
func (m *Map[K, V]) Apply(sets map[K]V, deletes map[K]struct{}) {
	type batch struct {
		sets []K
		dels []K
	}
	batches := make(map[int]*batch)
	at := func(k K) *batch {
		i := m.ShardIndex(k)
		if batches[i] == nil {
			batches[i] = &batch{}
		}
		return batches[i]
	}
	for k := range deletes {
		at(k).dels = append(at(k).dels, k)
	}
	for k := range sets {
		at(k).sets = append(at(k).sets, k)
	}

	for i, bt := range batches {
		b := m.shards[i]
		b.Lock()
		for _, k := range bt.dels {
			delete(b.m, k)
		}
		for _, k := range bt.sets {
			b.m[k] = sets[k]
		}
		b.Unlock()
	}
}

// Count returns the number of keys.
func (m *Map[K, V]) Count() int {
	n := 0
	for _, b := range m.shards {
		b.RLock()
		n += len(b.m)
		b.RUnlock()
	}
	return n
}

// Clear removes every key.
func (m *Map[K, V]) Clear() {
	for _, b := range m.shards {
		b.Lock()
		b.m = make(map[K]V)
		b.Unlock()
	}
}

// KeysWithPrefix returns the keys starting with prefix in ascending byte
// order. An empty prefix returns every key.
func (m *Map[K, V]) KeysWithPrefix(prefix string) []K {
	var keys []K
	for _, b := range m.shards {
		b.RLock()
		for k := range b.m {
			if strings.HasPrefix(string(k), prefix) {
				keys = append(keys, k)
			}
		}
		b.RUnlock()
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Skew returns the largest shard size divided by the mean shard size, or
// 0 for an empty map. A perfectly balanced map has a skew of 1.
func (m *Map[K, V]) Skew() float64 {
	total, largest := 0, 0
	for _, b := range m.shards {
		b.RLock()
		n := len(b.m)
		b.RUnlock()
		total += n
		if n > largest {
			largest = n
		}
	}
	if total == 0 {
		return 0
	}
	return float64(largest) * float64(len(m.shards)) / float64(total)
}
