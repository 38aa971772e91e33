package domain

import (
	"net/url"
)

// MaxActiveProposals is the number of proposals an organization may have
// running at the same time.
const MaxActiveProposals = 25

// DefaultReserveUnits is the anti-spam deposit in base units
// (100 tokens at 7 decimals).
const DefaultReserveUnits int64 = 100 * 10_000_000

// Status is the lifecycle state of a proposal.
type Status string

const (
	StatusRunning     Status = "running"
	StatusAccepted    Status = "accepted"
	StatusRejected    Status = "rejected"
	StatusFaulty      Status = "faulty"
	StatusImplemented Status = "implemented"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusRunning, StatusAccepted, StatusRejected, StatusFaulty, StatusImplemented:
		return true
	}
	return false
}

// Proposal is the lifecycle record of a proposal. While the proposal is
// running it is embedded in an ActiveProposal; afterwards the archived
// Proposal is authoritative.
//
// Duration, MinThreshold and Mode are copied from the organization's
// configuration at creation, so later configuration changes never alter
// the rules of a proposal already open.
type Proposal struct {
	OrgID        Address    `json:"org_id"`
	CreationTime uint32     `json:"creation_time"`
	Duration     uint32     `json:"duration"`
	MinThreshold Amount     `json:"min_threshold"`
	Mode         VotingMode `json:"voting_mode"`
	Owner        Address    `json:"owner"`
	Status       Status     `json:"status"`
	FaultReason  string     `json:"fault_reason,omitempty"`
	Deposit      Amount     `json:"deposit"`
}

// VotingEnds returns the first logical time at which the proposal can be
// finalized. Voting is open strictly before it.
func (p *Proposal) VotingEnds() uint64 {
	return uint64(p.CreationTime) + uint64(p.Duration)
}

// ExpiresAt returns the last logical time at which the proposal is still
// listed as active, given the finalization grace.
func (p *Proposal) ExpiresAt(grace uint32) uint64 {
	return p.VotingEnds() + uint64(grace)
}

// Fault moves a running proposal to StatusFaulty.
func (p *Proposal) Fault(reason string) error {
	if p.Status != StatusRunning {
		return ErrProposalNotRunning.WithDetailsf("status %s", p.Status)
	}
	p.Status = StatusFaulty
	p.FaultReason = reason
	return nil
}

// Resolve moves a running proposal to StatusAccepted or StatusRejected.
func (p *Proposal) Resolve(accepted bool) error {
	if p.Status != StatusRunning {
		return ErrProposalNotRunning.WithDetailsf("status %s", p.Status)
	}
	if accepted {
		p.Status = StatusAccepted
	} else {
		p.Status = StatusRejected
	}
	return nil
}

// MarkImplemented moves an accepted proposal to StatusImplemented.
func (p *Proposal) MarkImplemented() error {
	if p.Status != StatusAccepted {
		return ErrUnacceptedProposal.WithDetailsf("status %s", p.Status)
	}
	p.Status = StatusImplemented
	return nil
}

// ActiveProposal is a running proposal together with its live tally.
type ActiveProposal struct {
	ID       uint32   `json:"id"`
	InFavor  Amount   `json:"in_favor"`
	Against  Amount   `json:"against"`
	Proposal Proposal `json:"proposal"`
}

// Accepted applies the acceptance rule: more power in favor than against,
// and total participation of at least minThreshold.
func (a *ActiveProposal) Accepted(minThreshold Amount) (bool, error) {
	if a.InFavor.Cmp(a.Against) <= 0 {
		return false, nil
	}
	total, err := a.InFavor.Add(a.Against)
	if err != nil {
		return false, err
	}
	return total.Cmp(minThreshold) >= 0, nil
}

// Metadata points at the off-ledger description of a proposal.
type Metadata struct {
	URL  string `json:"url"`
	Hash string `json:"hash"`
}

// Validate checks the metadata fields.
func (m *Metadata) Validate() error {
	if m.URL == "" {
		return ErrMissingArgument.WithDetails("url is required")
	}
	if _, err := url.ParseRequestURI(m.URL); err != nil {
		return ErrInvalidArgument.WithDetails("url is malformed").WithCause(err)
	}
	if m.Hash == "" {
		return ErrMissingArgument.WithDetails("hash is required")
	}
	if len(m.Hash) > 128 {
		return ErrInvalidArgument.WithDetails("hash exceeds 128 characters")
	}
	return nil
}

// VoteRecord is the direction a voter last chose on a proposal and the
// power that is currently counted for it.
type VoteRecord struct {
	InFavor bool   `json:"in_favor"`
	Power   Amount `json:"power"`
}
