package service

import (
	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/storage/keyspace"
)

// VoteResult is the outcome of a vote call.
type VoteResult struct {
	Power   domain.Amount `json:"power"`
	InFavor domain.Amount `json:"in_favor"`
	Against domain.Amount `json:"against"`
	Flipped bool          `json:"flipped"`
}

// votingPower resolves the power of voter on proposal ap: the balance of
// the organization token as of the proposal creation, shaped by the voting
// mode and then by the organization hook.
func (e *ProposalEngine) votingPower(t *Txn, org domain.Address, ap *domain.ActiveProposal, voter domain.Address) (domain.Amount, error) {
	token, err := e.registry.GetTokenAddress(t, org)
	if err != nil {
		return domain.Amount{}, err
	}
	raw, err := e.ledger.BalanceAsOf(t, token, voter, ap.Proposal.CreationTime)
	if err != nil {
		return domain.Amount{}, err
	}
	if ap.Proposal.Mode == domain.VotingMember {
		if raw.Sign() > 0 {
			raw = domain.NewAmount(1)
		} else {
			raw = domain.Amount{}
		}
	}

	h, addr, err := hooksFor(t, e.registry, e.hooks, org)
	if err != nil {
		return domain.Amount{}, err
	}
	power, err := h.AdjustVoteWeight(t.Context(), org, ap.ID, voter, raw)
	if err != nil {
		return domain.Amount{}, hookErr(addr, err)
	}
	if err := requireNonNegative(power); err != nil {
		return domain.Amount{}, err
	}
	return power, nil
}

// Vote records the choice of voter on proposal id. Voting is open from
// CreationTime+1 until VotingEnds. A voter may change direction; the power
// previously counted moves to the other side.
func (e *ProposalEngine) Vote(t *Txn, org domain.Address, id uint32, inFavor bool, voter domain.Address) (*VoteResult, error) {
	if err := domain.ValidateAddress("voter", voter); err != nil {
		return nil, err
	}
	active, i, err := e.find(t, org, id)
	if err != nil {
		return nil, err
	}
	ap := &active[i]
	// The creation tick can still rewrite the snapshot checkpoint, so
	// voting opens on the tick after it.
	if t.Now() <= ap.Proposal.CreationTime {
		return nil, domain.ErrVotingClosed.WithDetailsf("voting on proposal %d opens after %d", id, ap.Proposal.CreationTime)
	}
	if uint64(t.Now()) >= ap.Proposal.VotingEnds() {
		return nil, domain.ErrVotingClosed.WithDetailsf("voting on proposal %d ended at %d", id, ap.Proposal.VotingEnds())
	}

	var prev domain.VoteRecord
	voted, err := t.get(keyspace.VoteRecord{Voter: voter, ProposalID: id}, &prev)
	if err != nil {
		return nil, err
	}
	if voted && prev.InFavor == inFavor {
		return nil, domain.ErrVoteAlreadyCast.WithDetailsf("%s already voted on proposal %d", voter, id)
	}

	power, err := e.votingPower(t, org, ap, voter)
	if err != nil {
		return nil, err
	}

	// Withdraw the power counted for the previous direction
	if voted {
		side := &ap.Against
		if prev.InFavor {
			side = &ap.InFavor
		}
		if *side, err = side.Sub(prev.Power); err != nil {
			return nil, err
		}
	}

	side := &ap.Against
	if inFavor {
		side = &ap.InFavor
	}
	if *side, err = side.Add(power); err != nil {
		return nil, err
	}

	if err := t.put(keyspace.VoteRecord{Voter: voter, ProposalID: id}, domain.VoteRecord{InFavor: inFavor, Power: power}); err != nil {
		return nil, err
	}
	if err := e.storeActive(t, org, active); err != nil {
		return nil, err
	}

	t.emit(domain.NewEvent(domain.TopicVoteCast, org, t.Now(), map[string]any{
		"voter":    voter,
		"in_favor": inFavor,
		"power":    power,
	}).ForProposal(id))
	return &VoteResult{Power: power, InFavor: ap.InFavor, Against: ap.Against, Flipped: voted}, nil
}

// VoteOf returns the recorded vote of voter on proposal id.
func (e *ProposalEngine) VoteOf(t *Txn, id uint32, voter domain.Address) (*domain.VoteRecord, bool, error) {
	var rec domain.VoteRecord
	found, err := t.get(keyspace.VoteRecord{Voter: voter, ProposalID: id}, &rec)
	if err != nil || !found {
		return nil, false, err
	}
	return &rec, true, nil
}

// Fault marks a running proposal as faulty, archives it and refunds its
// deposit. Only the organization owner may fault a proposal.
func (e *ProposalEngine) Fault(t *Txn, org domain.Address, id uint32, reason string, caller domain.Address) (*domain.Proposal, error) {
	if err := requireOrgOwner(t, e.registry, org, caller); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, domain.ErrMissingArgument.WithDetails("reason is required")
	}
	active, i, err := e.locate(t, org, id)
	if err != nil {
		return nil, err
	}
	p := active[i].Proposal

	h, addr, err := hooksFor(t, e.registry, e.hooks, org)
	if err != nil {
		return nil, err
	}
	if err := h.BeforeFaultProposal(t.Context(), org, id, reason); err != nil {
		return nil, hookErr(addr, err)
	}

	if err := p.Fault(reason); err != nil {
		return nil, err
	}
	if err := e.retire(t, org, active, i, &p); err != nil {
		return nil, err
	}

	t.emit(domain.NewEvent(domain.TopicProposalFaulted, org, t.Now(), map[string]any{
		"reason": reason,
	}).ForProposal(id))
	t.emit(statusEvent(org, id, t.Now(), p.Status))
	return &p, nil
}

// Finalize closes voting on a proposal, decides the outcome, archives it
// and refunds its deposit. Anyone may finalize once voting has ended.
func (e *ProposalEngine) Finalize(t *Txn, org domain.Address, id uint32) (*domain.Proposal, error) {
	active, i, err := e.locate(t, org, id)
	if err != nil {
		return nil, err
	}
	ap := active[i]
	p := ap.Proposal
	if uint64(t.Now()) < p.VotingEnds() {
		return nil, domain.ErrProposalStillActive.WithDetailsf("proposal %d can be finalized from %d", id, p.VotingEnds())
	}

	h, addr, err := hooksFor(t, e.registry, e.hooks, org)
	if err != nil {
		return nil, err
	}
	if err := h.BeforeFinalizeProposal(t.Context(), org, id); err != nil {
		return nil, hookErr(addr, err)
	}

	accepted, err := ap.Accepted(p.MinThreshold)
	if err != nil {
		return nil, err
	}
	if err := p.Resolve(accepted); err != nil {
		return nil, err
	}
	if err := e.retire(t, org, active, i, &p); err != nil {
		return nil, err
	}

	t.emit(statusEvent(org, id, t.Now(), p.Status))
	return &p, nil
}

// MarkImplemented records that an accepted proposal was carried out.
// Only the owner of the proposal's organization may do so.
func (e *ProposalEngine) MarkImplemented(t *Txn, id uint32, caller domain.Address) (*domain.Proposal, error) {
	p, err := e.Archived(t, id)
	if err != nil {
		return nil, err
	}
	if err := requireOrgOwner(t, e.registry, p.OrgID, caller); err != nil {
		return nil, err
	}
	if p.Status != domain.StatusAccepted {
		return nil, domain.ErrUnacceptedProposal.WithDetailsf("proposal %d is %s", id, p.Status)
	}

	h, addr, err := hooksFor(t, e.registry, e.hooks, p.OrgID)
	if err != nil {
		return nil, err
	}
	if err := h.BeforeMarkImplemented(t.Context(), p.OrgID, id); err != nil {
		return nil, hookErr(addr, err)
	}

	if err := p.MarkImplemented(); err != nil {
		return nil, err
	}
	if err := t.put(keyspace.ArchivedProposal{ID: id}, p); err != nil {
		return nil, err
	}
	t.emit(statusEvent(p.OrgID, id, t.Now(), p.Status))
	return p, nil
}

// locate is find with a precise error for proposals that already left the
// running state.
func (e *ProposalEngine) locate(t *Txn, org domain.Address, id uint32) ([]domain.ActiveProposal, int, error) {
	active, i, err := e.find(t, org, id)
	if err == nil {
		return active, i, nil
	}
	if !domain.IsDomainError(err, domain.ErrProposalNotFound.Code) {
		return nil, -1, err
	}
	archived, aerr := e.Archived(t, id)
	if aerr != nil {
		return nil, -1, err
	}
	if archived.OrgID != org {
		return nil, -1, err
	}
	return nil, -1, domain.ErrProposalNotRunning.WithDetailsf("proposal %d is %s", id, archived.Status)
}

// retire archives p, removes it from the active set and refunds its
// deposit.
func (e *ProposalEngine) retire(t *Txn, org domain.Address, active []domain.ActiveProposal, i int, p *domain.Proposal) error {
	id := active[i].ID
	if err := t.put(keyspace.ArchivedProposal{ID: id}, p); err != nil {
		return err
	}
	rest := append(active[:i:i], active[i+1:]...)
	if err := e.storeActive(t, org, rest); err != nil {
		return err
	}

	amount, refunded, err := e.reserve.Refund(t, id)
	if err != nil {
		return err
	}
	if refunded {
		t.emit(domain.NewEvent(domain.TopicDepositRefunded, org, t.Now(), map[string]any{
			"owner":  p.Owner,
			"amount": amount,
		}).ForProposal(id))
	}
	return nil
}

func statusEvent(org domain.Address, id uint32, now uint32, s domain.Status) domain.Event {
	return domain.NewEvent(domain.TopicStatusUpdate, org, now, map[string]any{
		"status": s,
	}).ForProposal(id)
}
