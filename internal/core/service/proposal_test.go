package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yndnr/govmesh-go/internal/core/domain"
)

func TestProposal_CreatePreconditions(t *testing.T) {
	f := newFixture(t)
	f.fund(testOwner)

	_, err := f.g.CreateProposal(f.ctx, testOwner, testOrg)
	wantErr(t, err, domain.ErrOrganizationNotFound)

	if _, err := f.g.CreateOrganization(f.ctx, testOwner, testOrg, "Test DAO"); err != nil {
		t.Fatalf("CreateOrganization() error = %v", err)
	}
	_, err = f.g.CreateProposal(f.ctx, testOwner, testOrg)
	wantErr(t, err, domain.ErrConfigurationNotFound)

	if _, err := f.g.SetConfiguration(f.ctx, testOwner, testOrg, defaultConfig()); err != nil {
		t.Fatalf("SetConfiguration() error = %v", err)
	}
	id := f.propose(testOwner)
	if id != 1 {
		t.Errorf("first proposal id = %d, want 1", id)
	}
	if id2 := f.propose(testOwner); id2 != 2 {
		t.Errorf("second proposal id = %d, want 2", id2)
	}
}

func TestProposal_CreateSnapshotsConfiguration(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(domain.Configuration{ProposalDuration: 40, MinThreshold: amt(7), VotingMode: domain.VotingMember})
	f.fund(testOwner)

	f.at(5)
	id := f.propose(testOwner)

	if _, err := f.g.SetConfiguration(f.ctx, testOwner, testOrg, defaultConfig()); err != nil {
		t.Fatalf("SetConfiguration() error = %v", err)
	}

	active, err := f.g.ActiveProposals(f.ctx, testOrg)
	if err != nil {
		t.Fatalf("ActiveProposals() error = %v", err)
	}
	if len(active) != 1 || active[0].ID != id {
		t.Fatalf("active = %+v, want proposal %d", active, id)
	}
	p := active[0].Proposal
	if p.CreationTime != 5 || p.Duration != 40 || p.Mode != domain.VotingMember {
		t.Errorf("proposal = %+v, want creation 5, duration 40, member mode", p)
	}
	wantAmount(t, "min threshold", p.MinThreshold, 7)
	if p.Status != domain.StatusRunning || p.Owner != testOwner {
		t.Errorf("status = %s owner = %s", p.Status, p.Owner)
	}
}

func TestProposal_MaxActive(t *testing.T) {
	f := newFixture(t)
	zero := amt(0)
	f.setupOrg(domain.Configuration{ProposalDuration: 10, MinThreshold: amt(1), TokenDeposit: &zero})

	for i := 0; i < domain.MaxActiveProposals; i++ {
		f.propose(testOwner)
	}
	_, err := f.g.CreateProposal(f.ctx, testOwner, testOrg)
	wantErr(t, err, domain.ErrMaxProposalsReached)

	// Expired proposals free their slots.
	f.at(10 + 50 + 1)
	active, err := f.g.ActiveProposals(f.ctx, testOrg)
	if err != nil {
		t.Fatalf("ActiveProposals() error = %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("active = %d, want 0 after expiry", len(active))
	}
	f.propose(testOwner)
}

func TestProposal_ActiveKeepsProposalsDuringGrace(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.fund(testOwner)
	f.propose(testOwner)

	for _, tc := range []struct {
		now  uint32
		want int
	}{
		{99, 1},  // voting open
		{100, 1}, // voting closed, finalizable
		{150, 1}, // last instant of grace
		{151, 0}, // dropped
	} {
		f.at(tc.now)
		active, err := f.g.ActiveProposals(f.ctx, testOrg)
		if err != nil {
			t.Fatalf("ActiveProposals() at %d error = %v", tc.now, err)
		}
		if len(active) != tc.want {
			t.Errorf("at %d: active = %d, want %d", tc.now, len(active), tc.want)
		}
	}
}

func TestProposal_ActiveUnknownOrganization(t *testing.T) {
	f := newFixture(t)
	_, err := f.g.ActiveProposals(f.ctx, "ghost")
	wantErr(t, err, domain.ErrOrganizationNotFound)
}

func TestProposal_Metadata(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.fund(testOwner)
	id := f.propose(testOwner)

	_, err := f.g.GetMetadata(f.ctx, id)
	wantErr(t, err, domain.ErrMetadataNotFound)

	meta := domain.Metadata{URL: "https://example.org/p/1", Hash: "abc123"}

	err = f.g.SetMetadata(f.ctx, "bob", testOrg, id, meta)
	wantErr(t, err, domain.ErrNotProposalOwner)

	err = f.g.SetMetadata(f.ctx, testOwner, testOrg, id, domain.Metadata{URL: "https://example.org"})
	wantErr(t, err, domain.ErrMissingArgument)

	if err := f.g.SetMetadata(f.ctx, testOwner, testOrg, id, meta); err != nil {
		t.Fatalf("SetMetadata() error = %v", err)
	}
	got, err := f.g.GetMetadata(f.ctx, id)
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if *got != meta {
		t.Errorf("metadata = %+v, want %+v", *got, meta)
	}

	err = f.g.SetMetadata(f.ctx, testOwner, testOrg, id, meta)
	wantErr(t, err, domain.ErrMetadataAlreadySet)

	err = f.g.SetMetadata(f.ctx, testOwner, testOrg, 999, meta)
	wantErr(t, err, domain.ErrProposalNotFound)
}

func TestProposal_DepositRefundedOnceOnFinalize(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.fund(testOwner)

	id := f.propose(testOwner)
	wantAmount(t, "owner after create", f.balance(testNative, testOwner), 1000-testDeposit)
	wantAmount(t, "custody after create", f.balance(testNative, testCustody), testDeposit)

	f.at(100)
	if _, err := f.g.FinalizeProposal(f.ctx, testOrg, id); err != nil {
		t.Fatalf("FinalizeProposal() error = %v", err)
	}
	wantAmount(t, "owner after finalize", f.balance(testNative, testOwner), 1000)
	wantAmount(t, "custody after finalize", f.balance(testNative, testCustody), 0)

	_, err := f.g.FinalizeProposal(f.ctx, testOrg, id)
	wantErr(t, err, domain.ErrProposalNotRunning)
	_, err = f.g.FaultProposal(f.ctx, testOwner, testOrg, id, "late")
	wantErr(t, err, domain.ErrProposalNotRunning)

	wantAmount(t, "owner after retries", f.balance(testNative, testOwner), 1000)
	if f.metrics.refunds != 1 {
		t.Errorf("refunds = %d, want 1", f.metrics.refunds)
	}
}

func TestProposal_DepositRefundedOnceOnFault(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.fund("bob")

	id := f.propose("bob")
	wantAmount(t, "bob after create", f.balance(testNative, "bob"), 1000-testDeposit)

	_, err := f.g.FaultProposal(f.ctx, "bob", testOrg, id, "spam")
	wantErr(t, err, domain.ErrNotOrganizationOwner)

	_, err = f.g.FaultProposal(f.ctx, testOwner, testOrg, id, "")
	wantErr(t, err, domain.ErrMissingArgument)

	p, err := f.g.FaultProposal(f.ctx, testOwner, testOrg, id, "spam")
	if err != nil {
		t.Fatalf("FaultProposal() error = %v", err)
	}
	if p.Status != domain.StatusFaulty || p.FaultReason != "spam" {
		t.Errorf("proposal = %+v, want faulty(spam)", p)
	}
	wantAmount(t, "bob after fault", f.balance(testNative, "bob"), 1000)

	archived, err := f.g.ArchivedProposal(f.ctx, id)
	if err != nil {
		t.Fatalf("ArchivedProposal() error = %v", err)
	}
	if archived.Status != domain.StatusFaulty {
		t.Errorf("archived status = %s, want faulty", archived.Status)
	}

	active, _ := f.g.ActiveProposals(f.ctx, testOrg)
	if len(active) != 0 {
		t.Errorf("active = %d, want 0 after fault", len(active))
	}

	f.at(100)
	_, err = f.g.FinalizeProposal(f.ctx, testOrg, id)
	wantErr(t, err, domain.ErrProposalNotRunning)
	wantAmount(t, "bob after finalize attempt", f.balance(testNative, "bob"), 1000)
}

func TestProposal_CreateWithoutFundsRollsBack(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())

	_, err := f.g.CreateProposal(f.ctx, "pauper", testOrg)
	wantErr(t, err, domain.ErrInsufficientBalance)

	// The id was not consumed.
	f.fund(testOwner)
	if id := f.propose(testOwner); id != 1 {
		t.Errorf("proposal id = %d, want 1", id)
	}
}

func TestProposal_FinalizeTiming(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.fund(testOwner)

	f.at(10)
	id := f.propose(testOwner)

	f.at(109)
	_, err := f.g.FinalizeProposal(f.ctx, testOrg, id)
	wantErr(t, err, domain.ErrProposalStillActive)

	f.at(110)
	p, err := f.g.FinalizeProposal(f.ctx, testOrg, id)
	if err != nil {
		t.Fatalf("FinalizeProposal() error = %v", err)
	}
	// No votes: nothing in favor, so the proposal is rejected.
	if p.Status != domain.StatusRejected {
		t.Errorf("status = %s, want rejected", p.Status)
	}
}

func TestProposal_FinalizeAfterDropForfeitsDeposit(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.fund(testOwner)
	id := f.propose(testOwner)

	f.at(151)
	_, err := f.g.FinalizeProposal(f.ctx, testOrg, id)
	wantErr(t, err, domain.ErrProposalNotFound)
	wantAmount(t, "custody", f.balance(testNative, testCustody), testDeposit)
}

func TestProposal_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		inFavor   int64
		against   int64
		threshold int64
		want      domain.Status
	}{
		{"majority in favor", 700_000, 300_000, 1_000, domain.StatusAccepted},
		{"majority against", 300_000, 700_000, 1_000, domain.StatusRejected},
		{"tie", 500_000, 500_000, 1_000, domain.StatusRejected},
		{"below threshold", 600, 300, 1_000, domain.StatusRejected},
		{"exactly threshold", 700, 300, 1_000, domain.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.setupOrg(domain.Configuration{ProposalDuration: 100, MinThreshold: amt(tt.threshold)})
			f.fund(testOwner)
			f.mint("yes", tt.inFavor)
			f.mint("no", tt.against)

			f.at(1)
			id := f.propose(testOwner)
			f.at(2)
			if _, err := f.g.Vote(f.ctx, "yes", testOrg, id, true); err != nil {
				t.Fatalf("Vote(yes) error = %v", err)
			}
			if _, err := f.g.Vote(f.ctx, "no", testOrg, id, false); err != nil {
				t.Fatalf("Vote(no) error = %v", err)
			}

			f.at(101)
			p, err := f.g.FinalizeProposal(f.ctx, testOrg, id)
			if err != nil {
				t.Fatalf("FinalizeProposal() error = %v", err)
			}
			if p.Status != tt.want {
				t.Errorf("status = %s, want %s", p.Status, tt.want)
			}
		})
	}
}

func TestProposal_MarkImplemented(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.fund(testOwner)
	f.mint("yes", 5_000)

	rejected := f.propose(testOwner)
	accepted := f.propose(testOwner)
	f.at(1)
	if _, err := f.g.Vote(f.ctx, "yes", testOrg, accepted, true); err != nil {
		t.Fatalf("Vote() error = %v", err)
	}

	_, err := f.g.MarkImplemented(f.ctx, testOwner, accepted)
	wantErr(t, err, domain.ErrProposalNotFound)

	f.at(100)
	for _, id := range []uint32{rejected, accepted} {
		if _, err := f.g.FinalizeProposal(f.ctx, testOrg, id); err != nil {
			t.Fatalf("FinalizeProposal(%d) error = %v", id, err)
		}
	}

	_, err = f.g.MarkImplemented(f.ctx, testOwner, rejected)
	wantErr(t, err, domain.ErrUnacceptedProposal)

	_, err = f.g.MarkImplemented(f.ctx, "bob", accepted)
	wantErr(t, err, domain.ErrNotOrganizationOwner)

	p, err := f.g.MarkImplemented(f.ctx, testOwner, accepted)
	if err != nil {
		t.Fatalf("MarkImplemented() error = %v", err)
	}
	if p.Status != domain.StatusImplemented {
		t.Errorf("status = %s, want implemented", p.Status)
	}

	_, err = f.g.MarkImplemented(f.ctx, testOwner, accepted)
	wantErr(t, err, domain.ErrUnacceptedProposal)
}

func TestProposal_FaultAndFinalizeHooks(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.fund(testOwner)

	f.hooks.Register("guard", &rejectingHooks{})
	if _, err := f.g.SetHook(f.ctx, testOwner, testOrg, "guard"); err != nil {
		t.Fatalf("SetHook() error = %v", err)
	}
	id := f.propose(testOwner)

	_, err := f.g.FaultProposal(f.ctx, testOwner, testOrg, id, "bad")
	wantErr(t, err, domain.ErrHookRejected)

	f.at(100)
	_, err = f.g.FinalizeProposal(f.ctx, testOrg, id)
	wantErr(t, err, domain.ErrHookRejected)

	// Nothing changed: still running, deposit still held.
	active, _ := f.g.ActiveProposals(f.ctx, testOrg)
	if len(active) != 1 {
		t.Fatalf("active = %d, want 1", len(active))
	}
	wantAmount(t, "custody", f.balance(testNative, testCustody), testDeposit)
}

func TestProposal_Events(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.fund(testOwner)
	f.mint("yes", 5_000)

	id := f.propose(testOwner)
	if err := f.g.SetMetadata(f.ctx, testOwner, testOrg, id, domain.Metadata{URL: "https://x.test/1", Hash: "h"}); err != nil {
		t.Fatalf("SetMetadata() error = %v", err)
	}
	f.at(1)
	if _, err := f.g.Vote(f.ctx, "yes", testOrg, id, true); err != nil {
		t.Fatalf("Vote() error = %v", err)
	}
	f.at(100)
	if _, err := f.g.FinalizeProposal(f.ctx, testOrg, id); err != nil {
		t.Fatalf("FinalizeProposal() error = %v", err)
	}

	var got []domain.Event
	for _, e := range f.sink.Recent(testOrg, 0) {
		if e.ProposalID != nil && *e.ProposalID == id {
			got = append(got, e)
		}
	}
	want := []domain.Topic{
		domain.TopicProposalCreated,
		domain.TopicMetadataSet,
		domain.TopicVoteCast,
		domain.TopicDepositRefunded,
		domain.TopicStatusUpdate,
	}
	if len(got) != len(want) {
		t.Fatalf("events = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Topic != w {
			t.Errorf("event[%d] = %s, want %s", i, got[i].Topic, w)
		}
	}
	if s := got[len(got)-1].Data["status"]; s != domain.StatusAccepted {
		t.Errorf("status event = %v, want accepted", s)
	}
}

// rejectingHooks aborts faulting and finalization.
type rejectingHooks struct {
	NoopHooks
}

var errRejected = errors.New("rejected by policy")

func (*rejectingHooks) BeforeFaultProposal(context.Context, domain.Address, uint32, string) error {
	return errRejected
}

func (*rejectingHooks) BeforeFinalizeProposal(context.Context, domain.Address, uint32) error {
	return errRejected
}
