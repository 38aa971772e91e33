package service

import (
	"context"
	"sync"

	"github.com/yndnr/govmesh-go/internal/core/domain"
)

// NoopHooks passes every value through unchanged and never aborts.
type NoopHooks struct{}

func (NoopHooks) AdjustVoteWeight(_ context.Context, _ domain.Address, _ uint32, _ domain.Address, power domain.Amount) (domain.Amount, error) {
	return power, nil
}

func (NoopHooks) BeforeProposalCreation(context.Context, domain.Address, domain.Address) error {
	return nil
}

func (NoopHooks) BeforeSetMetadata(context.Context, domain.Address, uint32, domain.Metadata, domain.Address) error {
	return nil
}

func (NoopHooks) OnSetConfiguration(_ context.Context, _ domain.Address, d uint32) (uint32, error) {
	return d, nil
}

func (NoopHooks) BeforeFaultProposal(context.Context, domain.Address, uint32, string) error {
	return nil
}

func (NoopHooks) BeforeFinalizeProposal(context.Context, domain.Address, uint32) error {
	return nil
}

func (NoopHooks) BeforeMarkImplemented(context.Context, domain.Address, uint32) error {
	return nil
}

func (NoopHooks) BeforeDestroyOrganization(context.Context, domain.Address) error {
	return nil
}

func (NoopHooks) BeforeChangeOwner(context.Context, domain.Address, domain.Address, domain.Address) error {
	return nil
}

func (NoopHooks) AdjustTransfer(_ context.Context, _, _, _ domain.Address, a domain.Amount) (domain.Amount, error) {
	return a, nil
}

func (NoopHooks) AdjustTransferFrom(_ context.Context, _, _, _, _ domain.Address, a domain.Amount) (domain.Amount, error) {
	return a, nil
}

func (NoopHooks) AdjustIncreaseAllowance(_ context.Context, _, _, _ domain.Address, a domain.Amount) (domain.Amount, error) {
	return a, nil
}

func (NoopHooks) AdjustDecreaseAllowance(_ context.Context, _, _, _ domain.Address, a domain.Amount) (domain.Amount, error) {
	return a, nil
}

// HookTable is a HookResolver backed by an in-process table.
type HookTable struct {
	mu    sync.RWMutex
	hooks map[domain.Address]Hooks
}

// NewHookTable creates an empty table.
func NewHookTable() *HookTable {
	return &HookTable{hooks: make(map[domain.Address]Hooks)}
}

// Register binds addr to h, replacing any previous binding.
func (ht *HookTable) Register(addr domain.Address, h Hooks) {
	ht.mu.Lock()
	defer ht.mu.Unlock()
	ht.hooks[addr] = h
}

// Resolve returns the hooks bound to addr.
func (ht *HookTable) Resolve(addr domain.Address) (Hooks, error) {
	ht.mu.RLock()
	defer ht.mu.RUnlock()
	h, ok := ht.hooks[addr]
	if !ok {
		return nil, domain.ErrHookNotFound.WithDetails(string(addr))
	}
	return h, nil
}

// Addresses returns the registered hook addresses.
func (ht *HookTable) Addresses() []domain.Address {
	ht.mu.RLock()
	defer ht.mu.RUnlock()
	out := make([]domain.Address, 0, len(ht.hooks))
	for a := range ht.hooks {
		out = append(out, a)
	}
	return out
}

// PolicyHook is a built-in hook enforcing simple organization policy.
// Zero-valued fields disable the corresponding rule.
type PolicyHook struct {
	NoopHooks

	// MaxVoteWeight caps the power of a single vote.
	MaxVoteWeight *domain.Amount
	// MinProposalDuration raises shorter configured durations.
	MinProposalDuration uint32
	// MaxTransfer caps a single transfer; larger transfers are rejected.
	MaxTransfer *domain.Amount
	// ProposerAllowlist restricts who may create proposals.
	ProposerAllowlist []domain.Address
}

func (p *PolicyHook) AdjustVoteWeight(_ context.Context, _ domain.Address, _ uint32, _ domain.Address, power domain.Amount) (domain.Amount, error) {
	if p.MaxVoteWeight != nil && power.Cmp(*p.MaxVoteWeight) > 0 {
		return *p.MaxVoteWeight, nil
	}
	return power, nil
}

func (p *PolicyHook) OnSetConfiguration(_ context.Context, _ domain.Address, d uint32) (uint32, error) {
	if d < p.MinProposalDuration {
		return p.MinProposalDuration, nil
	}
	return d, nil
}

func (p *PolicyHook) BeforeProposalCreation(_ context.Context, _, owner domain.Address) error {
	if len(p.ProposerAllowlist) == 0 {
		return nil
	}
	for _, a := range p.ProposerAllowlist {
		if a == owner {
			return nil
		}
	}
	return domain.ErrPermissionDenied.WithDetailsf("%s may not create proposals", owner)
}

func (p *PolicyHook) AdjustTransfer(_ context.Context, _, _, _ domain.Address, a domain.Amount) (domain.Amount, error) {
	return p.checkTransfer(a)
}

func (p *PolicyHook) AdjustTransferFrom(_ context.Context, _, _, _, _ domain.Address, a domain.Amount) (domain.Amount, error) {
	return p.checkTransfer(a)
}

func (p *PolicyHook) checkTransfer(a domain.Amount) (domain.Amount, error) {
	if p.MaxTransfer != nil && a.Cmp(*p.MaxTransfer) > 0 {
		return a, domain.ErrInvalidArgument.WithDetailsf("transfer of %s exceeds limit %s", a, *p.MaxTransfer)
	}
	return a, nil
}

// hooksFor resolves the hooks of org. Organizations without a hook get
// NoopHooks.
func hooksFor(t *Txn, reg Registry, res HookResolver, org domain.Address) (Hooks, domain.Address, error) {
	addr, err := reg.GetHookAddress(t, org)
	if err != nil {
		return nil, "", err
	}
	if addr == "" {
		return NoopHooks{}, "", nil
	}
	if res == nil {
		return nil, "", domain.ErrHookNotFound.WithDetails(string(addr))
	}
	h, err := res.Resolve(addr)
	if err != nil {
		return nil, "", err
	}
	return h, addr, nil
}

// hookErr marks err as a rejection by the hook at addr.
func hookErr(addr domain.Address, err error) error {
	if err == nil {
		return nil
	}
	return domain.ErrHookRejected.WithDetails(string(addr)).WithCause(err)
}
