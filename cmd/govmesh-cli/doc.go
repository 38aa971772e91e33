// Package main provides the entry point for govmesh-cli.
//
// The CLI gives command-line access to a govmesh-server:
//
//   - Organizations, tokens and governance configuration
//   - Proposals and voting
//   - Ledger balances, allowances and checkpoints
//   - Probes, the ledger clock and administration
//
// Usage:
//
//	govmesh-cli [global flags] command [flags] [args]
//	govmesh-cli -p alice org create --name "My DAO" dao
//	govmesh-cli -o json proposal list dao
//	govmesh-cli shell
package main
