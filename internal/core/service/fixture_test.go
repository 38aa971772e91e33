package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/storage/memory"
)

const (
	testOrg      domain.Address = "dao"
	testOwner    domain.Address = "alice"
	testToken    domain.Address = "dao-token"
	testTreasury domain.Address = "treasury"
	testNative   domain.Address = "native"
	testCustody  domain.Address = "govmesh-custody"
	testDeposit  int64          = 100
)

// countingMetrics records every call for assertions.
type countingMetrics struct {
	mu          sync.Mutex
	calls       map[string]int
	codes       map[string]int
	created     int
	votes       int
	resolved    map[domain.Status]int
	refunds     int
	seriesSizes []int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		calls:    make(map[string]int),
		codes:    make(map[string]int),
		resolved: make(map[domain.Status]int),
	}
}

func (m *countingMetrics) ObserveCall(op, code string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	m.codes[code]++
}

func (m *countingMetrics) ProposalCreated(domain.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
}

func (m *countingMetrics) VoteCast(domain.Address, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.votes++
}

func (m *countingMetrics) ProposalResolved(_ domain.Address, s domain.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved[s]++
}

func (m *countingMetrics) DepositRefunded(domain.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds++
}

func (m *countingMetrics) CheckpointsWritten(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seriesSizes = append(m.seriesSizes, n)
}

type fixture struct {
	t       *testing.T
	ctx     context.Context
	g       *Governor
	store   *memory.Store
	clock   *ManualClock
	sink    *MemorySink
	hooks   *HookTable
	metrics *countingMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := DefaultGovernorConfig()
	cfg.Reserve.DefaultAmount = domain.NewAmount(testDeposit)
	cfg.Proposals.FinalizationGrace = 50

	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		store:   memory.New(),
		clock:   NewManualClock(0),
		sink:    NewMemorySink(256),
		hooks:   NewHookTable(),
		metrics: newCountingMetrics(),
	}
	f.g = NewGovernor(f.store, cfg,
		WithClock(f.clock),
		WithHooks(f.hooks),
		WithEventSink(f.sink),
		WithMetrics(f.metrics),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err := f.g.Bootstrap(f.ctx); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	return f
}

func amt(v int64) domain.Amount { return domain.NewAmount(v) }

// at moves the logical clock forward to now.
func (f *fixture) at(now uint32) {
	f.t.Helper()
	cur := f.clock.Now()
	if now < cur {
		f.t.Fatalf("clock cannot go back from %d to %d", cur, now)
	}
	if _, err := f.clock.Advance(now - cur); err != nil {
		f.t.Fatalf("Advance() error = %v", err)
	}
}

// setupOrg registers testOrg owned by testOwner, issues testToken and
// stores cfg.
func (f *fixture) setupOrg(cfg domain.Configuration) {
	f.t.Helper()
	if _, err := f.g.CreateOrganization(f.ctx, testOwner, testOrg, "Test DAO"); err != nil {
		f.t.Fatalf("CreateOrganization() error = %v", err)
	}
	info := domain.TokenInfo{Address: testToken, Symbol: "DAO", Name: "DAO Token"}
	if _, err := f.g.IssueToken(f.ctx, testOwner, testOrg, info); err != nil {
		f.t.Fatalf("IssueToken() error = %v", err)
	}
	if _, err := f.g.SetConfiguration(f.ctx, testOwner, testOrg, cfg); err != nil {
		f.t.Fatalf("SetConfiguration() error = %v", err)
	}
}

// fund mints native tokens so accounts can pay deposits.
func (f *fixture) fund(accounts ...domain.Address) {
	f.t.Helper()
	for _, a := range accounts {
		if err := f.g.Mint(f.ctx, testTreasury, testNative, a, amt(1000)); err != nil {
			f.t.Fatalf("Mint(native, %s) error = %v", a, err)
		}
	}
}

// mint credits membership tokens.
func (f *fixture) mint(to domain.Address, v int64) {
	f.t.Helper()
	if err := f.g.Mint(f.ctx, testOwner, testToken, to, amt(v)); err != nil {
		f.t.Fatalf("Mint(%s) error = %v", to, err)
	}
}

func (f *fixture) propose(owner domain.Address) uint32 {
	f.t.Helper()
	id, err := f.g.CreateProposal(f.ctx, owner, testOrg)
	if err != nil {
		f.t.Fatalf("CreateProposal() error = %v", err)
	}
	return id
}

func (f *fixture) balance(token, account domain.Address) domain.Amount {
	f.t.Helper()
	b, err := f.g.BalanceOf(f.ctx, token, account)
	if err != nil {
		f.t.Fatalf("BalanceOf() error = %v", err)
	}
	return b
}

func (f *fixture) topics() []domain.Topic {
	var out []domain.Topic
	for _, e := range f.sink.Recent("", 0) {
		out = append(out, e.Topic)
	}
	return out
}

func defaultConfig() domain.Configuration {
	return domain.Configuration{ProposalDuration: 100, MinThreshold: amt(1000)}
}

func wantErr(t *testing.T, err error, target *domain.DomainError) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %s, got nil", target.Code)
	}
	if !errors.Is(err, target) {
		t.Fatalf("expected error %s, got %v", target.Code, err)
	}
}

func wantAmount(t *testing.T, name string, got domain.Amount, want int64) {
	t.Helper()
	if got.Cmp(amt(want)) != 0 {
		t.Errorf("%s = %s, want %d", name, got, want)
	}
}
