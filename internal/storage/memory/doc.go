// Package memory provides an in-memory transactional kv.Store.
//
// Committed data lives in a sharded map (pkg/cmap). A read-write
// transaction buffers its writes in a private overlay and applies them
// on commit while holding the store's write lock, so transactions are
// serializable and an aborted transaction leaves no trace.
//
// The store is intended for tests and single-node deployments that do
// not need durability across restarts; Backup and Restore move its
// contents through a JSON-lines stream.
package memory
