package domain

import (
	"errors"
	"testing"
)

func TestProposal_Transitions(t *testing.T) {
	p := Proposal{Status: StatusRunning, CreationTime: 10, Duration: 5}

	if p.VotingEnds() != 15 {
		t.Errorf("VotingEnds() = %d, want 15", p.VotingEnds())
	}
	if p.ExpiresAt(3) != 18 {
		t.Errorf("ExpiresAt(3) = %d, want 18", p.ExpiresAt(3))
	}

	if err := p.MarkImplemented(); !errors.Is(err, ErrUnacceptedProposal) {
		t.Errorf("MarkImplemented on running = %v, want ErrUnacceptedProposal", err)
	}
	if err := p.Resolve(true); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Status != StatusAccepted {
		t.Fatalf("Status = %s, want accepted", p.Status)
	}
	if err := p.Resolve(false); !errors.Is(err, ErrProposalNotRunning) {
		t.Errorf("second Resolve = %v, want ErrProposalNotRunning", err)
	}
	if err := p.Fault("late"); !errors.Is(err, ErrProposalNotRunning) {
		t.Errorf("Fault after resolve = %v, want ErrProposalNotRunning", err)
	}
	if err := p.MarkImplemented(); err != nil {
		t.Fatalf("MarkImplemented: %v", err)
	}
	if p.Status != StatusImplemented {
		t.Errorf("Status = %s, want implemented", p.Status)
	}

	q := Proposal{Status: StatusRunning}
	if err := q.Fault("spam"); err != nil {
		t.Fatalf("Fault: %v", err)
	}
	if q.Status != StatusFaulty || q.FaultReason != "spam" {
		t.Errorf("after Fault = %+v", q)
	}
}

func TestProposal_VotingEndsNoOverflow(t *testing.T) {
	p := Proposal{CreationTime: ^uint32(0), Duration: ^uint32(0)}
	if p.VotingEnds() != 2*uint64(^uint32(0)) {
		t.Errorf("VotingEnds overflowed: %d", p.VotingEnds())
	}
}

func TestActiveProposal_Accepted(t *testing.T) {
	tests := []struct {
		name      string
		inFavor   int64
		against   int64
		threshold int64
		want      bool
	}{
		{"majority above threshold", 60, 40, 100, true},
		{"majority below threshold", 60, 30, 100, false},
		{"tie", 50, 50, 0, false},
		{"minority", 10, 90, 0, false},
		{"no votes zero threshold", 0, 0, 0, false},
		{"unanimous zero threshold", 1, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ActiveProposal{InFavor: NewAmount(tt.inFavor), Against: NewAmount(tt.against)}
			got, err := a.Accepted(NewAmount(tt.threshold))
			if err != nil {
				t.Fatalf("Accepted: %v", err)
			}
			if got != tt.want {
				t.Errorf("Accepted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetadata_Validate(t *testing.T) {
	tests := []struct {
		name    string
		meta    Metadata
		wantErr error
	}{
		{"valid", Metadata{URL: "https://example.org/p/1", Hash: "abc123"}, nil},
		{"missing url", Metadata{Hash: "abc"}, ErrMissingArgument},
		{"bad url", Metadata{URL: "not a url", Hash: "abc"}, ErrInvalidArgument},
		{"missing hash", Metadata{URL: "https://example.org"}, ErrMissingArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meta.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfiguration_Validate(t *testing.T) {
	neg := NewAmount(-1)
	dep := NewAmount(5)

	tests := []struct {
		name    string
		cfg     Configuration
		wantErr bool
	}{
		{"valid", Configuration{ProposalDuration: 10, MinThreshold: NewAmount(1)}, false},
		{"zero duration", Configuration{ProposalDuration: 0}, true},
		{"negative threshold", Configuration{ProposalDuration: 1, MinThreshold: neg}, true},
		{"negative deposit", Configuration{ProposalDuration: 1, TokenDeposit: &neg}, true},
		{"member mode", Configuration{ProposalDuration: 1, VotingMode: VotingMember}, false},
		{"unknown mode", Configuration{ProposalDuration: 1, VotingMode: "quadratic"}, true},
		{"custom deposit", Configuration{ProposalDuration: 1, TokenDeposit: &dep}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("Validate() = %v, want ErrInvalidConfiguration", err)
			}
		})
	}

	c := Configuration{TokenDeposit: &dep}
	if c.Deposit(NewAmount(100)).Cmp(dep) != 0 {
		t.Error("Deposit should prefer the configured amount")
	}
	c = Configuration{}
	if c.Deposit(NewAmount(100)).Cmp(NewAmount(100)) != 0 {
		t.Error("Deposit should fall back to the default")
	}
	if c.Mode() != VotingWeighted {
		t.Errorf("Mode() = %s, want weighted", c.Mode())
	}
}

func TestValidateAddress(t *testing.T) {
	if err := ValidateAddress("org_id", "acme-dao"); err != nil {
		t.Errorf("valid address rejected: %v", err)
	}
	if err := ValidateAddress("org_id", ""); !errors.Is(err, ErrMissingArgument) {
		t.Errorf("empty = %v, want ErrMissingArgument", err)
	}
	if err := ValidateAddress("org_id", "has space"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("space = %v, want ErrInvalidArgument", err)
	}
}
