// Package domain defines the governance domain model for govmesh.
//
// Domain models are plain values without IO dependencies or framework
// coupling. This package contains:
//
//   - Amount: signed 128-bit token quantities
//   - Checkpoint and Series: historical balances and their pruning rule
//   - Proposal, ActiveProposal and Status: the proposal state machine
//   - Configuration: per-organization voting parameters
//   - Organization and TokenInfo: registry records
//   - Event: notifications published after a committed call
//   - Errors: coded domain failures
//
// Storage, authorization and hook dispatch live in the service layer.
package domain
