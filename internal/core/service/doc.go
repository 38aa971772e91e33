// Package service provides the governance engine of GovMesh.
//
// The engine is a set of components that share one transactional key-value
// store through a per-call Txn:
//
//   - OrgRegistry: organizations, their owners, hooks and membership tokens
//   - Ledger: balances, allowances and the checkpoint series behind
//     snapshot voting power
//   - ConfigurationService: per-organization proposal parameters
//   - Reserve: anti-spam deposits collected at creation and refunded once
//   - ProposalEngine: proposal lifecycle, voting and finalization
//
// Governor is the facade callers use. It serializes calls, runs each in a
// single store transaction, publishes events after commit and records
// metrics. Organizations may extend the engine through Hooks resolved by
// address.
package service
