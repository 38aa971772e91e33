// Package main provides the entry point for govmesh-server.
//
// The server hosts the governance engine: the organization registry,
// checkpointed token ledgers, proposals and voting. It serves the HTTP API,
// Prometheus metrics and the admin endpoints.
//
// Usage:
//
//	govmesh-server [flags]
//	govmesh-server -config /etc/govmesh/server.yaml
//	govmesh-server -hash-key gmak_...
//
// The server loads configuration, opens the store, restores the ledger
// clock and starts the HTTP listener. Changing log.level in the config file
// takes effect without a restart.
package main
