package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/storage/keyspace"
	"github.com/yndnr/govmesh-go/internal/storage/kv"
)

// GovernorConfig configures the governance engine.
type GovernorConfig struct {
	Proposals ProposalConfig
	Reserve   ReserveConfig

	// NativeSymbol and NativeName describe the native token created by
	// Bootstrap. NativeOwner may mint it.
	NativeSymbol string
	NativeName   string
	NativeOwner  domain.Address
}

// DefaultGovernorConfig returns the default configuration.
func DefaultGovernorConfig() GovernorConfig {
	return GovernorConfig{
		Proposals: DefaultProposalConfig(),
		Reserve: ReserveConfig{
			NativeToken:   "native",
			Custody:       "govmesh-custody",
			DefaultAmount: domain.NewAmount(domain.DefaultReserveUnits),
		},
		NativeSymbol: "GOV",
		NativeName:   "Governance Native Token",
		NativeOwner:  "treasury",
	}
}

// GovernorOption customizes a Governor.
type GovernorOption func(*Governor)

// WithClock sets the logical clock. Default: a ManualClock at 0.
func WithClock(c Clock) GovernorOption {
	return func(g *Governor) { g.clock = c }
}

// WithHooks sets the hook resolver.
func WithHooks(r HookResolver) GovernorOption {
	return func(g *Governor) { g.hooks = r }
}

// WithEventSink sets where committed events go.
func WithEventSink(s EventSink) GovernorOption {
	return func(g *Governor) { g.sink = s }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) GovernorOption {
	return func(g *Governor) { g.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) GovernorOption {
	return func(g *Governor) { g.logger = l }
}

// Governor is the entry point of the governance engine. Calls are
// serialized, and each one runs in a single store transaction: either all
// of its writes commit or none do. Events are published after commit.
type Governor struct {
	mu sync.Mutex

	cfg     GovernorConfig
	store   kv.Store
	clock   Clock
	hooks   HookResolver
	sink    EventSink
	metrics Metrics
	logger  *slog.Logger

	registry  *OrgRegistry
	ledger    *Ledger
	configs   *ConfigurationService
	reserve   *Reserve
	proposals *ProposalEngine
}

// NewGovernor wires the governance components on top of store.
func NewGovernor(store kv.Store, cfg GovernorConfig, opts ...GovernorOption) *Governor {
	g := &Governor{
		cfg:     cfg,
		store:   store,
		clock:   NewManualClock(0),
		metrics: NopMetrics{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.registry = NewOrgRegistry(g.hooks)
	g.configs = NewConfigurationService(g.registry, g.hooks)
	g.proposals = NewProposalEngine(cfg.Proposals, g.registry, g.hooks, g.configs)
	g.ledger = NewLedger(g.registry, g.hooks, g.proposals)
	g.reserve = NewReserve(g.ledger, cfg.Reserve)
	g.proposals.Bind(g.ledger, g.reserve)
	return g
}

// Config returns the governor configuration.
func (g *Governor) Config() GovernorConfig { return g.cfg }

// Clock returns the logical clock.
func (g *Governor) Clock() Clock { return g.clock }

// ============================================================================
// Transactions
// ============================================================================

// update runs fn in a read-write transaction at the current logical time.
func (g *Governor) update(ctx context.Context, op string, fn func(t *Txn) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.updateAt(ctx, op, g.clock.Now(), fn)
}

// updateAt runs fn in a write transaction at logical time now. g.mu must
// be held.
func (g *Governor) updateAt(ctx context.Context, op string, now uint32, fn func(t *Txn) error) error {
	start := time.Now()

	var t *Txn
	err := g.store.Update(ctx, func(tx kv.Tx) error {
		t = NewTxn(ctx, tx, now)
		if err := fn(t); err != nil {
			return err
		}
		return g.stampClock(t)
	})
	err = normalize(err)
	g.observe(ctx, op, start, err)
	if err != nil {
		return err
	}

	if events := t.Events(); len(events) > 0 {
		g.record(events)
		if g.sink != nil {
			g.sink.Publish(ctx, events)
		}
	}
	for _, n := range t.series {
		g.metrics.CheckpointsWritten(n)
	}
	return nil
}

// view runs fn in a read-only transaction.
func (g *Governor) view(ctx context.Context, op string, fn func(t *Txn) error) error {
	start := time.Now()
	now := g.clock.Now()
	err := g.store.View(ctx, func(r kv.Reader) error {
		return fn(NewReadTxn(ctx, r, now))
	})
	err = normalize(err)
	g.observe(ctx, op, start, err)
	return err
}

// stampClock persists the logical time so a restart resumes from it.
func (g *Governor) stampClock(t *Txn) error {
	var last uint32
	if _, err := t.get(keyspace.Clock{}, &last); err != nil {
		return err
	}
	if last >= t.Now() {
		return nil
	}
	return t.put(keyspace.Clock{}, t.Now())
}

func (g *Governor) observe(ctx context.Context, op string, start time.Time, err error) {
	elapsed := time.Since(start)
	code := "OK"
	if err != nil {
		code = domain.GetErrorCode(err)
	}
	g.metrics.ObserveCall(op, code, elapsed)

	switch {
	case err == nil:
		g.logger.DebugContext(ctx, "governance call committed", "op", op, "elapsed", elapsed)
	case domain.KindOf(err) == domain.KindInternal:
		g.logger.ErrorContext(ctx, "governance call failed", "op", op, "code", code, "error", err)
	default:
		g.logger.InfoContext(ctx, "governance call rejected", "op", op, "code", code, "error", err)
	}
}

// record derives activity metrics from committed events.
func (g *Governor) record(events []domain.Event) {
	for _, e := range events {
		switch e.Topic {
		case domain.TopicProposalCreated:
			g.metrics.ProposalCreated(e.OrgID)
		case domain.TopicVoteCast:
			inFavor, _ := e.Data["in_favor"].(bool)
			g.metrics.VoteCast(e.OrgID, inFavor)
		case domain.TopicStatusUpdate:
			if s, ok := e.Data["status"].(domain.Status); ok {
				g.metrics.ProposalResolved(e.OrgID, s)
			}
		case domain.TopicDepositRefunded:
			g.metrics.DepositRefunded(e.OrgID)
		}
	}
}

// normalize makes every failure a DomainError.
func normalize(err error) error {
	if err == nil {
		return nil
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrServiceUnavailable.WithCause(err)
	}
	if errors.Is(err, kv.ErrClosed) {
		return domain.ErrServiceUnavailable.WithDetails("store closed").WithCause(err)
	}
	return domain.ErrStorageError.WithCause(err)
}

// ============================================================================
// Lifecycle
// ============================================================================

// Bootstrap restores the logical clock from storage and creates the native
// token deposits are paid in.
func (g *Governor) Bootstrap(ctx context.Context) error {
	if r, ok := g.clock.(interface{ Restore(uint32) }); ok {
		var last uint32
		err := g.view(ctx, "bootstrap", func(t *Txn) error {
			_, err := t.get(keyspace.Clock{}, &last)
			return err
		})
		if err != nil {
			return err
		}
		r.Restore(last)
	}

	if g.cfg.Reserve.NativeToken == "" {
		return nil
	}
	return g.update(ctx, "bootstrap", func(t *Txn) error {
		_, err := g.ledger.EnsureToken(t, domain.TokenInfo{
			Address:  g.cfg.Reserve.NativeToken,
			Symbol:   g.cfg.NativeSymbol,
			Name:     g.cfg.NativeName,
			Decimals: domain.TokenDecimals,
			Owner:    g.cfg.NativeOwner,
		})
		return err
	})
}

// Now returns the current logical time.
func (g *Governor) Now() uint32 { return g.clock.Now() }

// AdvanceClock moves a manually driven clock forward. The new time is
// persisted first; the clock only moves once the write succeeds.
func (g *Governor) AdvanceClock(ctx context.Context, delta uint32) (uint32, error) {
	adv, ok := g.clock.(interface {
		Restore(uint32)
	})
	if !ok {
		return 0, domain.ErrBadRequest.WithDetails("clock cannot be advanced manually")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	cur := g.clock.Now()
	next := cur + delta
	if next < cur {
		return 0, domain.ErrInvalidArgument.WithDetailsf("advancing %d by %d overflows", cur, delta)
	}
	if err := g.updateAt(ctx, "advance_clock", next, func(*Txn) error { return nil }); err != nil {
		return 0, err
	}
	adv.Restore(next)
	return g.clock.Now(), nil
}

// Backup streams a dump of the store to w.
func (g *Governor) Backup(ctx context.Context, w io.Writer) error {
	start := time.Now()
	err := normalize(g.store.Backup(ctx, w))
	g.observe(ctx, "backup", start, err)
	return err
}

// StoreStats returns storage statistics.
func (g *Governor) StoreStats(ctx context.Context) (*kv.Stats, error) {
	st, err := g.store.Stats(ctx)
	return st, normalize(err)
}

// ============================================================================
// Organizations
// ============================================================================

// CreateOrganization registers org with caller as its owner.
func (g *Governor) CreateOrganization(ctx context.Context, caller, org domain.Address, name string) (*domain.Organization, error) {
	var out *domain.Organization
	err := g.update(ctx, "create_organization", func(t *Txn) (err error) {
		out, err = g.registry.Create(t, org, name, caller)
		return err
	})
	return out, err
}

// Organization returns org.
func (g *Governor) Organization(ctx context.Context, org domain.Address) (*domain.Organization, error) {
	var out *domain.Organization
	err := g.view(ctx, "get_organization", func(t *Txn) (err error) {
		out, err = g.registry.Organization(t, org)
		return err
	})
	return out, err
}

// Organizations lists every organization.
func (g *Governor) Organizations(ctx context.Context) ([]domain.Organization, error) {
	var out []domain.Organization
	err := g.view(ctx, "list_organizations", func(t *Txn) (err error) {
		out, err = g.registry.List(t)
		return err
	})
	return out, err
}

// ChangeOwner hands org to newOwner.
func (g *Governor) ChangeOwner(ctx context.Context, caller, org, newOwner domain.Address) (*domain.Organization, error) {
	var out *domain.Organization
	err := g.update(ctx, "change_owner", func(t *Txn) (err error) {
		out, err = g.registry.ChangeOwner(t, org, caller, newOwner)
		return err
	})
	return out, err
}

// SetHook binds org to a hook, or clears it.
func (g *Governor) SetHook(ctx context.Context, caller, org, hook domain.Address) (*domain.Organization, error) {
	var out *domain.Organization
	err := g.update(ctx, "set_hook", func(t *Txn) (err error) {
		out, err = g.registry.SetHook(t, org, caller, hook)
		return err
	})
	return out, err
}

// IssueToken creates the membership token of org.
func (g *Governor) IssueToken(ctx context.Context, caller, org domain.Address, info domain.TokenInfo) (*domain.TokenInfo, error) {
	var out *domain.TokenInfo
	err := g.update(ctx, "issue_token", func(t *Txn) (err error) {
		out, err = g.registry.IssueToken(t, org, caller, info)
		return err
	})
	return out, err
}

// DestroyOrganization removes org. Its configuration must be removed and
// no proposal may still be active.
func (g *Governor) DestroyOrganization(ctx context.Context, caller, org domain.Address) error {
	return g.update(ctx, "destroy_organization", func(t *Txn) error {
		if _, err := g.registry.Organization(t, org); err != nil {
			return err
		}
		if _, err := g.proposals.Active(t, org); err != nil {
			return err
		}
		return g.registry.Destroy(t, org, caller)
	})
}

// ============================================================================
// Configuration
// ============================================================================

// SetConfiguration stores the governance parameters of org.
func (g *Governor) SetConfiguration(ctx context.Context, caller, org domain.Address, cfg domain.Configuration) (*domain.Configuration, error) {
	var out *domain.Configuration
	err := g.update(ctx, "set_configuration", func(t *Txn) (err error) {
		out, err = g.configs.Set(t, org, caller, cfg)
		return err
	})
	return out, err
}

// GetConfiguration returns the governance parameters of org.
func (g *Governor) GetConfiguration(ctx context.Context, org domain.Address) (*domain.Configuration, error) {
	var out *domain.Configuration
	err := g.view(ctx, "get_configuration", func(t *Txn) (err error) {
		out, err = g.configs.Get(t, org)
		return err
	})
	return out, err
}

// RemoveConfiguration deletes the governance parameters of org.
func (g *Governor) RemoveConfiguration(ctx context.Context, caller, org domain.Address) error {
	return g.update(ctx, "remove_configuration", func(t *Txn) error {
		return g.configs.Remove(t, org, caller)
	})
}

// ============================================================================
// Proposals
// ============================================================================

// CreateProposal opens a proposal in org owned by caller.
func (g *Governor) CreateProposal(ctx context.Context, caller, org domain.Address) (uint32, error) {
	var id uint32
	err := g.update(ctx, "create_proposal", func(t *Txn) (err error) {
		id, err = g.proposals.Create(t, org, caller)
		return err
	})
	return id, err
}

// SetMetadata attaches metadata to a running proposal.
func (g *Governor) SetMetadata(ctx context.Context, caller, org domain.Address, id uint32, meta domain.Metadata) error {
	return g.update(ctx, "set_metadata", func(t *Txn) error {
		return g.proposals.SetMetadata(t, org, id, meta, caller)
	})
}

// GetMetadata returns the metadata of proposal id.
func (g *Governor) GetMetadata(ctx context.Context, id uint32) (*domain.Metadata, error) {
	var out *domain.Metadata
	err := g.view(ctx, "get_metadata", func(t *Txn) (err error) {
		out, err = g.proposals.Metadata(t, id)
		return err
	})
	return out, err
}

// ActiveProposals returns the live proposals of org. Expired entries are
// dropped from storage as a side effect.
func (g *Governor) ActiveProposals(ctx context.Context, org domain.Address) ([]domain.ActiveProposal, error) {
	var out []domain.ActiveProposal
	err := g.update(ctx, "get_active_proposals", func(t *Txn) (err error) {
		exists, err := g.registry.OrganizationExists(t, org)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrganizationNotFound.WithDetails(string(org))
		}
		out, err = g.proposals.Active(t, org)
		return err
	})
	return out, err
}

// ArchivedProposal returns a proposal that left the running state.
func (g *Governor) ArchivedProposal(ctx context.Context, id uint32) (*domain.Proposal, error) {
	var out *domain.Proposal
	err := g.view(ctx, "get_archived_proposal", func(t *Txn) (err error) {
		out, err = g.proposals.Archived(t, id)
		return err
	})
	return out, err
}

// Vote records the vote of caller on proposal id.
func (g *Governor) Vote(ctx context.Context, caller, org domain.Address, id uint32, inFavor bool) (*VoteResult, error) {
	var out *VoteResult
	err := g.update(ctx, "vote", func(t *Txn) (err error) {
		out, err = g.proposals.Vote(t, org, id, inFavor, caller)
		return err
	})
	return out, err
}

// VoteOf returns the recorded vote of voter on proposal id.
func (g *Governor) VoteOf(ctx context.Context, id uint32, voter domain.Address) (*domain.VoteRecord, bool, error) {
	var (
		out   *domain.VoteRecord
		found bool
	)
	err := g.view(ctx, "get_vote", func(t *Txn) (err error) {
		out, found, err = g.proposals.VoteOf(t, id, voter)
		return err
	})
	return out, found, err
}

// FaultProposal marks a running proposal as faulty.
func (g *Governor) FaultProposal(ctx context.Context, caller, org domain.Address, id uint32, reason string) (*domain.Proposal, error) {
	var out *domain.Proposal
	err := g.update(ctx, "fault_proposal", func(t *Txn) (err error) {
		out, err = g.proposals.Fault(t, org, id, reason, caller)
		return err
	})
	return out, err
}

// FinalizeProposal decides a proposal whose voting period has ended.
func (g *Governor) FinalizeProposal(ctx context.Context, org domain.Address, id uint32) (*domain.Proposal, error) {
	var out *domain.Proposal
	err := g.update(ctx, "finalize_proposal", func(t *Txn) (err error) {
		out, err = g.proposals.Finalize(t, org, id)
		return err
	})
	return out, err
}

// MarkImplemented records that an accepted proposal was carried out.
func (g *Governor) MarkImplemented(ctx context.Context, caller domain.Address, id uint32) (*domain.Proposal, error) {
	var out *domain.Proposal
	err := g.update(ctx, "mark_implemented", func(t *Txn) (err error) {
		out, err = g.proposals.MarkImplemented(t, id, caller)
		return err
	})
	return out, err
}

// ============================================================================
// Ledger
// ============================================================================

// Token returns token metadata.
func (g *Governor) Token(ctx context.Context, token domain.Address) (*domain.TokenInfo, error) {
	var out *domain.TokenInfo
	err := g.view(ctx, "get_token", func(t *Txn) (err error) {
		out, err = g.ledger.Token(t, token)
		return err
	})
	return out, err
}

// SetTokenOwner hands minting rights of token to newOwner.
func (g *Governor) SetTokenOwner(ctx context.Context, caller, token, newOwner domain.Address) (*domain.TokenInfo, error) {
	var out *domain.TokenInfo
	err := g.update(ctx, "set_token_owner", func(t *Txn) (err error) {
		out, err = g.ledger.SetTokenOwner(t, token, caller, newOwner)
		return err
	})
	return out, err
}

// Mint credits amount to an account that never held token.
func (g *Governor) Mint(ctx context.Context, caller, token, to domain.Address, amount domain.Amount) error {
	return g.update(ctx, "mint", func(t *Txn) error {
		return g.ledger.Mint(t, token, caller, to, amount)
	})
}

// Transfer moves amount from caller to to.
func (g *Governor) Transfer(ctx context.Context, caller, token, to domain.Address, amount domain.Amount) error {
	return g.update(ctx, "transfer", func(t *Txn) error {
		return g.ledger.Transfer(t, token, caller, to, amount)
	})
}

// TransferFrom moves amount from from to to using the allowance of caller.
func (g *Governor) TransferFrom(ctx context.Context, caller, token, from, to domain.Address, amount domain.Amount) error {
	return g.update(ctx, "transfer_from", func(t *Txn) error {
		return g.ledger.TransferFrom(t, token, caller, from, to, amount)
	})
}

// IncreaseAllowance raises what spender may move on behalf of caller.
func (g *Governor) IncreaseAllowance(ctx context.Context, caller, token, spender domain.Address, amount domain.Amount) error {
	return g.update(ctx, "increase_allowance", func(t *Txn) error {
		return g.ledger.IncreaseAllowance(t, token, caller, spender, amount)
	})
}

// DecreaseAllowance lowers what spender may move on behalf of caller.
func (g *Governor) DecreaseAllowance(ctx context.Context, caller, token, spender domain.Address, amount domain.Amount) error {
	return g.update(ctx, "decrease_allowance", func(t *Txn) error {
		return g.ledger.DecreaseAllowance(t, token, caller, spender, amount)
	})
}

// BalanceOf returns the current balance of account.
func (g *Governor) BalanceOf(ctx context.Context, token, account domain.Address) (domain.Amount, error) {
	var out domain.Amount
	err := g.view(ctx, "balance_of", func(t *Txn) (err error) {
		out, err = g.ledger.BalanceOf(t, token, account)
		return err
	})
	return out, err
}

// Allowance returns what spender may move on behalf of owner.
func (g *Governor) Allowance(ctx context.Context, token, owner, spender domain.Address) (domain.Amount, error) {
	var out domain.Amount
	err := g.view(ctx, "allowance", func(t *Txn) (err error) {
		out, err = g.ledger.Allowance(t, token, owner, spender)
		return err
	})
	return out, err
}

// BalanceAsOf returns the balance of account at logical time at.
func (g *Governor) BalanceAsOf(ctx context.Context, token, account domain.Address, at uint32) (domain.Amount, error) {
	var out domain.Amount
	err := g.view(ctx, "balance_as_of", func(t *Txn) (err error) {
		out, err = g.ledger.BalanceAsOf(t, token, account, at)
		return err
	})
	return out, err
}

// Checkpoints returns the checkpoint series of account.
func (g *Governor) Checkpoints(ctx context.Context, token, account domain.Address) (domain.Series, error) {
	var out domain.Series
	err := g.view(ctx, "checkpoints", func(t *Txn) (err error) {
		out, err = g.ledger.Checkpoints(t, token, account)
		return err
	})
	return out, err
}

// CheckpointCount returns the number of checkpoints of account.
func (g *Governor) CheckpointCount(ctx context.Context, token, account domain.Address) (uint32, error) {
	var out uint32
	err := g.view(ctx, "checkpoint_count", func(t *Txn) (err error) {
		out, err = g.ledger.CheckpointCount(t, token, account)
		return err
	})
	return out, err
}

// CheckpointAt returns one checkpoint of account.
func (g *Governor) CheckpointAt(ctx context.Context, token, account domain.Address, index uint32) (domain.Checkpoint, error) {
	var out domain.Checkpoint
	err := g.view(ctx, "checkpoint_at", func(t *Txn) (err error) {
		out, err = g.ledger.CheckpointAt(t, token, account, index)
		return err
	})
	return out, err
}
