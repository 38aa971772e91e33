package service

import (
	"context"
	"time"

	"github.com/yndnr/govmesh-go/internal/core/domain"
)

// Registry answers questions about organizations. It is consulted on every
// call rather than cached, so ownership changes take effect immediately.
type Registry interface {
	// OrganizationExists reports whether org is registered.
	OrganizationExists(t *Txn, org domain.Address) (bool, error)

	// GetOwner returns the administrator of org.
	GetOwner(t *Txn, org domain.Address) (domain.Address, error)

	// GetTokenAddress returns the membership token of org.
	GetTokenAddress(t *Txn, org domain.Address) (domain.Address, error)

	// GetHookAddress returns the hook of org, or "" when none is set.
	GetHookAddress(t *Txn, org domain.Address) (domain.Address, error)
}

// Hooks is the per-organization extension point. Before* methods abort
// the surrounding call by returning an error; Adjust* and On* methods may
// rewrite the value passed in.
//
// Embed NoopHooks to implement only the methods of interest.
type Hooks interface {
	AdjustVoteWeight(ctx context.Context, org domain.Address, proposalID uint32, voter domain.Address, power domain.Amount) (domain.Amount, error)
	BeforeProposalCreation(ctx context.Context, org, owner domain.Address) error
	BeforeSetMetadata(ctx context.Context, org domain.Address, proposalID uint32, meta domain.Metadata, owner domain.Address) error
	OnSetConfiguration(ctx context.Context, org domain.Address, proposalDuration uint32) (uint32, error)
	BeforeFaultProposal(ctx context.Context, org domain.Address, proposalID uint32, reason string) error
	BeforeFinalizeProposal(ctx context.Context, org domain.Address, proposalID uint32) error
	BeforeMarkImplemented(ctx context.Context, org domain.Address, proposalID uint32) error

	BeforeDestroyOrganization(ctx context.Context, org domain.Address) error
	BeforeChangeOwner(ctx context.Context, org, newOwner, oldOwner domain.Address) error

	AdjustTransfer(ctx context.Context, org, from, to domain.Address, amount domain.Amount) (domain.Amount, error)
	AdjustTransferFrom(ctx context.Context, org, spender, from, to domain.Address, amount domain.Amount) (domain.Amount, error)
	AdjustIncreaseAllowance(ctx context.Context, org, owner, spender domain.Address, amount domain.Amount) (domain.Amount, error)
	AdjustDecreaseAllowance(ctx context.Context, org, owner, spender domain.Address, amount domain.Amount) (domain.Amount, error)
}

// HookResolver maps a hook address to its implementation.
type HookResolver interface {
	Resolve(addr domain.Address) (Hooks, error)
}

// Clock provides the logical time. The engine only reads it.
type Clock interface {
	Now() uint32
}

// EventSink receives the events of a call after it committed.
type EventSink interface {
	Publish(ctx context.Context, events []domain.Event)
}

// Metrics records governance activity.
type Metrics interface {
	ObserveCall(op, code string, elapsed time.Duration)
	ProposalCreated(org domain.Address)
	VoteCast(org domain.Address, inFavor bool)
	ProposalResolved(org domain.Address, status domain.Status)
	DepositRefunded(org domain.Address)
	CheckpointsWritten(seriesLen int)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) ObserveCall(string, string, time.Duration)      {}
func (NopMetrics) ProposalCreated(domain.Address)                 {}
func (NopMetrics) VoteCast(domain.Address, bool)                  {}
func (NopMetrics) ProposalResolved(domain.Address, domain.Status) {}
func (NopMetrics) DepositRefunded(domain.Address)                 {}
func (NopMetrics) CheckpointsWritten(int)                         {}
