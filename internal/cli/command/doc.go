// Package command defines the govmesh-cli commands on urfave/cli/v2.
//
//   - root.go: the App, global flags and shared helpers
//   - org.go, configuration.go: organization registry and configuration
//   - proposal.go: proposals and votes
//   - token.go: balances, transfers, allowances and checkpoints
//   - system.go: health, clock and admin operations
//   - profile.go: the local CLI profile
//   - shell.go: the interactive shell
//
// Every remote command builds an HTTP client from the global flags, calls
// one route, and renders the envelope data with the selected formatter.
package command
