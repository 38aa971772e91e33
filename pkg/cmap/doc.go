// Package cmap is a string-keyed map split into independently locked
// shards, used as the committed state of the in-memory store.
//
// murmur3 picks a key's shard, so placement is stable across processes
// and a store of N keys spreads roughly N/shards keys per lock. Apply
// commits a batch of sets and deletes shard by shard; readers running
// alongside it can observe a partially applied batch, so callers that need
// atomic batches order them with their own lock.
package cmap
