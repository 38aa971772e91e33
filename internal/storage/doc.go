// Package storage opens the kv.Store that backs govmesh.
//
// Two engines are available:
//
//   - memory: in-process sharded map, lost on restart
//   - badger: Badger v3 on local disk, with value-log GC and Prometheus
//     size gauges
//
// Both implement kv.Store; every governance call runs as one of its
// transactions.
package storage
