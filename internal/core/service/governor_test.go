package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/storage/kv"
	"github.com/yndnr/govmesh-go/internal/storage/memory"
)

type fixedClock uint32

func (c fixedClock) Now() uint32 { return uint32(c) }

func TestGovernor_FailedCallPublishesNothing(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())

	before := len(f.sink.Recent("", 0))
	created := f.metrics.created

	_, err := f.g.CreateProposal(f.ctx, "pauper", testOrg)
	wantErr(t, err, domain.ErrInsufficientBalance)

	if got := len(f.sink.Recent("", 0)); got != before {
		t.Errorf("events = %d, want %d", got, before)
	}
	if f.metrics.created != created {
		t.Errorf("created metric = %d, want %d", f.metrics.created, created)
	}
	if f.metrics.codes[domain.ErrInsufficientBalance.Code] != 1 {
		t.Errorf("error code metric = %d, want 1", f.metrics.codes[domain.ErrInsufficientBalance.Code])
	}
}

func TestGovernor_Metrics(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.fund(testOwner)
	f.mint("bob", 2000)

	id := f.propose(testOwner)
	f.at(1)
	if _, err := f.g.Vote(f.ctx, "bob", testOrg, id, true); err != nil {
		t.Fatalf("Vote() error = %v", err)
	}
	f.at(100)
	if _, err := f.g.FinalizeProposal(f.ctx, testOrg, id); err != nil {
		t.Fatalf("FinalizeProposal() error = %v", err)
	}

	if f.metrics.created != 1 {
		t.Errorf("created = %d, want 1", f.metrics.created)
	}
	if f.metrics.votes != 1 {
		t.Errorf("votes = %d, want 1", f.metrics.votes)
	}
	if f.metrics.resolved[domain.StatusAccepted] != 1 {
		t.Errorf("accepted = %d, want 1", f.metrics.resolved[domain.StatusAccepted])
	}
	if f.metrics.refunds != 1 {
		t.Errorf("refunds = %d, want 1", f.metrics.refunds)
	}
	if len(f.metrics.seriesSizes) == 0 {
		t.Error("no checkpoint writes recorded")
	}
	if f.metrics.calls["vote"] != 1 {
		t.Errorf("vote calls = %d, want 1", f.metrics.calls["vote"])
	}
}

func TestGovernor_ClockPersistsAcrossRestart(t *testing.T) {
	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	clock := NewManualClock(0)
	g := NewGovernor(store, DefaultGovernorConfig(), WithClock(clock), WithLogger(logger))
	if err := g.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	now, err := g.AdvanceClock(ctx, 42)
	if err != nil {
		t.Fatalf("AdvanceClock() error = %v", err)
	}
	if now != 42 {
		t.Fatalf("now = %d, want 42", now)
	}

	restarted := NewManualClock(0)
	g2 := NewGovernor(store, DefaultGovernorConfig(), WithClock(restarted), WithLogger(logger))
	if err := g2.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() after restart error = %v", err)
	}
	if got := g2.Now(); got != 42 {
		t.Errorf("restored clock = %d, want 42", got)
	}
}

func TestGovernor_AdvanceClockFailedWriteKeepsTime(t *testing.T) {
	store := memory.New()
	clock := NewManualClock(5)
	g := NewGovernor(store, DefaultGovernorConfig(), WithClock(clock), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := g.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := g.AdvanceClock(context.Background(), 10); err == nil {
		t.Fatal("AdvanceClock() on closed store succeeded")
	}
	if got := g.Now(); got != 5 {
		t.Errorf("Now() = %d after failed advance, want 5", got)
	}
}

func TestGovernor_AdvanceClockOverflow(t *testing.T) {
	g := NewGovernor(memory.New(), DefaultGovernorConfig(), WithClock(NewManualClock(math.MaxUint32-1)))
	_, err := g.AdvanceClock(context.Background(), 2)
	wantErr(t, err, domain.ErrInvalidArgument)
	if got := g.Now(); got != math.MaxUint32-1 {
		t.Errorf("Now() = %d, want unchanged", got)
	}
}

func TestGovernor_AdvanceClockRequiresManualClock(t *testing.T) {
	g := NewGovernor(memory.New(), DefaultGovernorConfig(), WithClock(fixedClock(7)))
	_, err := g.AdvanceClock(context.Background(), 1)
	wantErr(t, err, domain.ErrBadRequest)
	if g.Now() != 7 {
		t.Errorf("Now() = %d, want 7", g.Now())
	}
}

func TestGovernor_BootstrapIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.fund("bob")
	if err := f.g.Bootstrap(f.ctx); err != nil {
		t.Fatalf("second Bootstrap() error = %v", err)
	}
	info, err := f.g.Token(f.ctx, testNative)
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if info.Owner != testTreasury || info.OrgID != "" {
		t.Errorf("native token = %+v", info)
	}
	wantAmount(t, "bob", f.balance(testNative, "bob"), 1000)
}

func TestGovernor_Backup(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())

	var buf bytes.Buffer
	if err := f.g.Backup(f.ctx, &buf); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("backup is empty")
	}

	restored := memory.New()
	if err := restored.Restore(f.ctx, &buf); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	g := NewGovernor(restored, DefaultGovernorConfig())
	org, err := g.Organization(f.ctx, testOrg)
	if err != nil {
		t.Fatalf("Organization() on restored store error = %v", err)
	}
	if org.Owner != testOwner {
		t.Errorf("owner = %s, want %s", org.Owner, testOwner)
	}
}

func TestGovernor_ClosedStore(t *testing.T) {
	store := memory.New()
	g := NewGovernor(store, DefaultGovernorConfig())
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	_, err := g.Organizations(context.Background())
	wantErr(t, err, domain.ErrServiceUnavailable)
}

func TestNormalize(t *testing.T) {
	if normalize(nil) != nil {
		t.Error("normalize(nil) != nil")
	}
	de := domain.ErrProposalNotFound.WithDetails("x")
	if got := normalize(de); got != de {
		t.Errorf("normalize(domain) = %v, want unchanged", got)
	}
	wantErr(t, normalize(errors.New("disk on fire")), domain.ErrStorageError)
	wantErr(t, normalize(context.Canceled), domain.ErrServiceUnavailable)
	wantErr(t, normalize(kv.ErrClosed), domain.ErrServiceUnavailable)
}

func TestGovernor_ReadsDoNotWrite(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.fund(testOwner)
	f.propose(testOwner)
	f.at(500)

	// Anchors are computed without rewriting the stored active set.
	if _, err := f.g.BalanceAsOf(f.ctx, testToken, testOwner, 0); err != nil {
		t.Fatalf("BalanceAsOf() error = %v", err)
	}
	if _, err := f.g.GetConfiguration(f.ctx, testOrg); err != nil {
		t.Fatalf("GetConfiguration() error = %v", err)
	}
}
