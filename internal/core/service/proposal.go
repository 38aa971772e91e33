package service

import (
	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/storage/keyspace"
)

// ProposalConfig tunes the proposal engine.
type ProposalConfig struct {
	// MaxActive caps running proposals per organization.
	// Default: domain.MaxActiveProposals
	MaxActive int
	// FinalizationGrace is how long after the voting period a proposal
	// stays listed, and finalizable, before it is dropped.
	FinalizationGrace uint32
}

// DefaultProposalConfig returns the default engine configuration.
func DefaultProposalConfig() ProposalConfig {
	return ProposalConfig{
		MaxActive:         domain.MaxActiveProposals,
		FinalizationGrace: 1000,
	}
}

// ProposalEngine owns the proposal state machine: creation, metadata,
// voting, faulting, finalization and implementation.
type ProposalEngine struct {
	cfg      ProposalConfig
	registry Registry
	hooks    HookResolver
	configs  *ConfigurationService
	reserve  *Reserve
	ledger   *Ledger
}

// NewProposalEngine creates a ProposalEngine. The ledger and reserve are
// attached with Bind because the ledger itself reads anchors from the
// engine.
func NewProposalEngine(cfg ProposalConfig, registry Registry, hooks HookResolver, configs *ConfigurationService) *ProposalEngine {
	if cfg.MaxActive <= 0 {
		cfg.MaxActive = domain.MaxActiveProposals
	}
	return &ProposalEngine{cfg: cfg, registry: registry, hooks: hooks, configs: configs}
}

// Bind attaches the ledger and reserve.
func (e *ProposalEngine) Bind(ledger *Ledger, reserve *Reserve) {
	e.ledger = ledger
	e.reserve = reserve
}

// Config returns the engine configuration.
func (e *ProposalEngine) Config() ProposalConfig { return e.cfg }

// ============================================================================
// Active set
// ============================================================================

func (e *ProposalEngine) expired(p *domain.Proposal, now uint32) bool {
	return uint64(now) > p.ExpiresAt(e.cfg.FinalizationGrace)
}

// loadActive returns the stored active set and the subset still live.
func (e *ProposalEngine) loadActive(t *Txn, org domain.Address) (stored, live []domain.ActiveProposal, err error) {
	if _, err := t.get(keyspace.ActiveProposals{Org: org}, &stored); err != nil {
		return nil, nil, err
	}
	live = make([]domain.ActiveProposal, 0, len(stored))
	for _, ap := range stored {
		if !e.expired(&ap.Proposal, t.Now()) {
			live = append(live, ap)
		}
	}
	return stored, live, nil
}

// Active returns the live proposals of org, dropping expired ones from
// storage when there are any.
func (e *ProposalEngine) Active(t *Txn, org domain.Address) ([]domain.ActiveProposal, error) {
	stored, live, err := e.loadActive(t, org)
	if err != nil {
		return nil, err
	}
	if len(live) != len(stored) && t.w != nil {
		if err := e.storeActive(t, org, live); err != nil {
			return nil, err
		}
	}
	return live, nil
}

func (e *ProposalEngine) storeActive(t *Txn, org domain.Address, active []domain.ActiveProposal) error {
	if len(active) == 0 {
		return t.del(keyspace.ActiveProposals{Org: org})
	}
	return t.put(keyspace.ActiveProposals{Org: org}, active)
}

// Anchors implements AnchorSource. It never writes.
func (e *ProposalEngine) Anchors(t *Txn, org domain.Address) ([]uint32, error) {
	_, live, err := e.loadActive(t, org)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, len(live))
	for i, ap := range live {
		out[i] = ap.Proposal.CreationTime
	}
	return out, nil
}

// find locates proposal id among the live proposals of org.
func (e *ProposalEngine) find(t *Txn, org domain.Address, id uint32) ([]domain.ActiveProposal, int, error) {
	active, err := e.Active(t, org)
	if err != nil {
		return nil, -1, err
	}
	for i := range active {
		if active[i].ID == id {
			return active, i, nil
		}
	}
	return nil, -1, domain.ErrProposalNotFound.WithDetailsf("no active proposal %d in %s", id, org)
}

// ============================================================================
// Create / metadata / queries
// ============================================================================

// Create opens a proposal in org owned by owner and collects its deposit.
func (e *ProposalEngine) Create(t *Txn, org, owner domain.Address) (uint32, error) {
	// 1. Organization and configuration must exist
	exists, err := e.registry.OrganizationExists(t, org)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, domain.ErrOrganizationNotFound.WithDetails(string(org))
	}
	if err := domain.ValidateAddress("owner", owner); err != nil {
		return 0, err
	}
	cfg, err := e.configs.Get(t, org)
	if err != nil {
		return 0, err
	}

	// 2. Enforce the active proposal cap
	active, err := e.Active(t, org)
	if err != nil {
		return 0, err
	}
	if len(active) >= e.cfg.MaxActive {
		return 0, domain.ErrMaxProposalsReached.WithDetailsf("%s has %d active proposals", org, len(active))
	}

	// 3. Hook
	h, addr, err := hooksFor(t, e.registry, e.hooks, org)
	if err != nil {
		return 0, err
	}
	if err := h.BeforeProposalCreation(t.Context(), org, owner); err != nil {
		return 0, hookErr(addr, err)
	}

	// 4. Assign the next id
	var seq uint32
	if _, err := t.get(keyspace.ProposalSeq{}, &seq); err != nil {
		return 0, err
	}
	if seq == ^uint32(0) {
		return 0, domain.ErrInternalServer.WithDetails("proposal id space exhausted")
	}
	id := seq + 1
	if err := t.put(keyspace.ProposalSeq{}, id); err != nil {
		return 0, err
	}

	// 5. Collect the deposit
	deposit := cfg.Deposit(e.reserve.Config().DefaultAmount)
	if err := e.reserve.Collect(t, id, owner, deposit); err != nil {
		return 0, err
	}

	// 6. Append to the active set
	ap := domain.ActiveProposal{
		ID: id,
		Proposal: domain.Proposal{
			OrgID:        org,
			CreationTime: t.Now(),
			Duration:     cfg.ProposalDuration,
			MinThreshold: cfg.MinThreshold,
			Mode:         cfg.Mode(),
			Owner:        owner,
			Status:       domain.StatusRunning,
			Deposit:      deposit,
		},
	}
	if err := e.storeActive(t, org, append(active, ap)); err != nil {
		return 0, err
	}

	t.emit(domain.NewEvent(domain.TopicProposalCreated, org, t.Now(), map[string]any{
		"owner":    owner,
		"deposit":  deposit,
		"duration": cfg.ProposalDuration,
	}).ForProposal(id))
	return id, nil
}

// SetMetadata attaches metadata to a running proposal. Only the proposal
// owner may do so, and only once.
func (e *ProposalEngine) SetMetadata(t *Txn, org domain.Address, id uint32, meta domain.Metadata, caller domain.Address) error {
	active, i, err := e.find(t, org, id)
	if err != nil {
		return err
	}
	p := &active[i].Proposal
	if p.Owner != caller {
		return domain.ErrNotProposalOwner.WithDetailsf("%s does not own proposal %d", caller, id)
	}
	if err := meta.Validate(); err != nil {
		return err
	}

	set, err := t.has(keyspace.Metadata{ID: id})
	if err != nil {
		return err
	}
	if set {
		return domain.ErrMetadataAlreadySet.WithDetailsf("proposal %d", id)
	}

	h, addr, err := hooksFor(t, e.registry, e.hooks, org)
	if err != nil {
		return err
	}
	if err := h.BeforeSetMetadata(t.Context(), org, id, meta, p.Owner); err != nil {
		return hookErr(addr, err)
	}

	if err := t.put(keyspace.Metadata{ID: id}, &meta); err != nil {
		return err
	}
	t.emit(domain.NewEvent(domain.TopicMetadataSet, org, t.Now(), map[string]any{
		"url":  meta.URL,
		"hash": meta.Hash,
	}).ForProposal(id))
	return nil
}

// Metadata returns the metadata of proposal id.
func (e *ProposalEngine) Metadata(t *Txn, id uint32) (*domain.Metadata, error) {
	var meta domain.Metadata
	found, err := t.get(keyspace.Metadata{ID: id}, &meta)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrMetadataNotFound.WithDetailsf("proposal %d", id)
	}
	return &meta, nil
}

// Archived returns a proposal that left the running state.
func (e *ProposalEngine) Archived(t *Txn, id uint32) (*domain.Proposal, error) {
	var p domain.Proposal
	found, err := t.get(keyspace.ArchivedProposal{ID: id}, &p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrProposalNotFound.WithDetailsf("proposal %d is not archived", id)
	}
	return &p, nil
}
