package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/govmesh-go/internal/core/domain"
)

func TestAdminAuth(t *testing.T) {
	hash, err := HashAdminKey("s3cret-admin")
	if err != nil {
		t.Fatalf("HashAdminKey() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=16384,t=2,p=2$") {
		t.Errorf("hash = %s", hash)
	}

	auth := NewAdminAuth(hash)
	if !auth.Enabled() {
		t.Fatal("Enabled() = false")
	}
	if err := auth.Verify("s3cret-admin"); err != nil {
		t.Errorf("Verify(correct) error = %v", err)
	}
	wantErr(t, auth.Verify("wrong"), domain.ErrAdminKeyInvalid)
	wantErr(t, auth.Verify(""), domain.ErrAdminKeyInvalid)

	disabled := NewAdminAuth("")
	if disabled.Enabled() {
		t.Error("empty hash is enabled")
	}
	wantErr(t, disabled.Verify("anything"), domain.ErrPermissionDenied)
}

func TestVerifyArgon2Hash_Malformed(t *testing.T) {
	tests := []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=16,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=16,t=1,p=1$c2FsdA$",
	}
	for _, h := range tests {
		if verifyArgon2Hash("key", h) {
			t.Errorf("verifyArgon2Hash(%q) = true", h)
		}
	}
}

func TestRateLimiterRegistry(t *testing.T) {
	r := NewRateLimiterRegistry(1, 2)

	if !r.Allow("10.0.0.1") || !r.Allow("10.0.0.1") {
		t.Fatal("burst not honored")
	}
	if r.Allow("10.0.0.1") {
		t.Error("third request within burst window allowed")
	}
	if !r.Allow("10.0.0.2") {
		t.Error("independent key throttled")
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestManualClock(t *testing.T) {
	c := NewManualClock(10)
	if got, err := c.Advance(5); err != nil || got != 15 {
		t.Fatalf("Advance(5) = %d, %v", got, err)
	}

	c.Restore(12)
	if c.Now() != 15 {
		t.Errorf("Restore moved clock back to %d", c.Now())
	}
	c.Restore(40)
	if c.Now() != 40 {
		t.Errorf("Now() = %d, want 40", c.Now())
	}

	_, err := c.Advance(^uint32(0))
	wantErr(t, err, domain.ErrInvalidArgument)
	if c.Now() != 40 {
		t.Errorf("overflowing Advance changed clock to %d", c.Now())
	}
}

func TestManualClock_ConcurrentAdvance(t *testing.T) {
	c := NewManualClock(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Advance(2)
		}()
	}
	wg.Wait()
	if c.Now() != 100 {
		t.Errorf("Now() = %d, want 100", c.Now())
	}
}

func TestTickerClock(t *testing.T) {
	c := NewTickerClock(0, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for c.Now() < 2 {
		select {
		case <-deadline:
			t.Fatal("clock did not tick")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done

	if NewTickerClock(0, 0).Interval() != 5*time.Second {
		t.Error("zero interval not defaulted")
	}
}

func TestMemorySink(t *testing.T) {
	s := NewMemorySink(3)
	ev := func(org domain.Address, topic domain.Topic) domain.Event {
		return domain.NewEvent(topic, org, 0, nil)
	}

	s.Publish(context.Background(), []domain.Event{
		ev("a", domain.TopicProposalCreated),
		ev("b", domain.TopicVoteCast),
	})
	if got := s.Recent("", 0); len(got) != 2 {
		t.Fatalf("Recent() = %d events, want 2", len(got))
	}

	s.Publish(context.Background(), []domain.Event{
		ev("a", domain.TopicMetadataSet),
		ev("a", domain.TopicStatusUpdate),
	})

	all := s.Recent("", 0)
	if len(all) != 3 {
		t.Fatalf("Recent() = %d events, want 3", len(all))
	}
	if all[0].Topic != domain.TopicVoteCast || all[2].Topic != domain.TopicStatusUpdate {
		t.Errorf("order = %s..%s", all[0].Topic, all[2].Topic)
	}

	onlyA := s.Recent("a", 0)
	if len(onlyA) != 2 {
		t.Errorf("Recent(a) = %d events, want 2", len(onlyA))
	}
	last := s.Recent("", 1)
	if len(last) != 1 || last[0].Topic != domain.TopicStatusUpdate {
		t.Errorf("Recent(limit 1) = %+v", last)
	}
}

func TestMultiSink(t *testing.T) {
	a, b := NewMemorySink(4), NewMemorySink(4)
	MultiSink{a, b}.Publish(context.Background(), []domain.Event{
		domain.NewEvent(domain.TopicTokenMinted, "", 1, nil),
	})
	if len(a.Recent("", 0)) != 1 || len(b.Recent("", 0)) != 1 {
		t.Error("event not fanned out")
	}
}

func TestHookTable(t *testing.T) {
	ht := NewHookTable()
	_, err := ht.Resolve("x")
	wantErr(t, err, domain.ErrHookNotFound)

	ht.Register("x", NoopHooks{})
	ht.Register("y", &PolicyHook{})
	if _, err := ht.Resolve("x"); err != nil {
		t.Errorf("Resolve(x) error = %v", err)
	}
	if got := ht.Addresses(); len(got) != 2 {
		t.Errorf("Addresses() = %v", got)
	}
}

func TestPolicyHook(t *testing.T) {
	ctx := context.Background()
	maxWeight := amt(10)
	maxTransfer := amt(100)
	p := &PolicyHook{
		MaxVoteWeight:       &maxWeight,
		MinProposalDuration: 30,
		MaxTransfer:         &maxTransfer,
		ProposerAllowlist:   []domain.Address{"alice"},
	}

	w, _ := p.AdjustVoteWeight(ctx, "org", 1, "v", amt(50))
	wantAmount(t, "capped weight", w, 10)
	w, _ = p.AdjustVoteWeight(ctx, "org", 1, "v", amt(3))
	wantAmount(t, "small weight", w, 3)

	if d, _ := p.OnSetConfiguration(ctx, "org", 5); d != 30 {
		t.Errorf("duration = %d, want 30", d)
	}
	if d, _ := p.OnSetConfiguration(ctx, "org", 90); d != 90 {
		t.Errorf("duration = %d, want 90", d)
	}

	if err := p.BeforeProposalCreation(ctx, "org", "alice"); err != nil {
		t.Errorf("allowlisted proposer rejected: %v", err)
	}
	wantErr(t, p.BeforeProposalCreation(ctx, "org", "bob"), domain.ErrPermissionDenied)

	if _, err := p.AdjustTransfer(ctx, "org", "a", "b", amt(101)); err == nil {
		t.Error("transfer above limit allowed")
	}
	if _, err := p.AdjustTransferFrom(ctx, "org", "s", "a", "b", amt(100)); err != nil {
		t.Errorf("transfer at limit rejected: %v", err)
	}
}

func TestHooksFor_NoResolver(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.hooks.Register("policy", &PolicyHook{})
	if _, err := f.g.SetHook(f.ctx, testOwner, testOrg, "policy"); err != nil {
		t.Fatalf("SetHook() error = %v", err)
	}

	// A governor without a resolver cannot honor the stored hook address.
	g := NewGovernor(f.store, f.g.Config(), WithClock(f.clock))
	_, err := g.SetConfiguration(f.ctx, testOwner, testOrg, defaultConfig())
	wantErr(t, err, domain.ErrHookNotFound)
}
