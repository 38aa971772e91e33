package service

import (
	"testing"

	"github.com/yndnr/govmesh-go/internal/core/domain"
)

func TestLedger_MintOnce(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())

	f.mint("bob", 500)
	wantAmount(t, "balance", f.balance(testToken, "bob"), 500)

	err := f.g.Mint(f.ctx, testOwner, testToken, "bob", amt(1))
	wantErr(t, err, domain.ErrCanOnlyBeMintedOnce)
	wantAmount(t, "balance after second mint", f.balance(testToken, "bob"), 500)
}

func TestLedger_MintZeroStillCountsAsMinted(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())

	f.mint("bob", 0)
	err := f.g.Mint(f.ctx, testOwner, testToken, "bob", amt(10))
	wantErr(t, err, domain.ErrCanOnlyBeMintedOnce)
}

func TestLedger_MintValidation(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())

	tests := []struct {
		name   string
		caller domain.Address
		token  domain.Address
		to     domain.Address
		amount int64
		want   *domain.DomainError
	}{
		{"not token owner", "mallory", testToken, "bob", 10, domain.ErrNotTokenOwner},
		{"negative amount", testOwner, testToken, "bob", -1, domain.ErrNegativeAmount},
		{"unknown token", testOwner, "nope", "bob", 10, domain.ErrTokenNotFound},
		{"missing recipient", testOwner, testToken, "", 10, domain.ErrMissingArgument},
		{"malformed recipient", testOwner, testToken, "b o b", 10, domain.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.g.Mint(f.ctx, tt.caller, tt.token, tt.to, amt(tt.amount))
			wantErr(t, err, tt.want)
		})
	}
}

func TestLedger_Transfer(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.mint(testOwner, 1000)

	f.at(1)
	if err := f.g.Transfer(f.ctx, testOwner, testToken, "bob", amt(300)); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	wantAmount(t, "sender", f.balance(testToken, testOwner), 700)
	wantAmount(t, "recipient", f.balance(testToken, "bob"), 300)

	err := f.g.Transfer(f.ctx, "bob", testToken, testOwner, amt(301))
	wantErr(t, err, domain.ErrInsufficientBalance)

	err = f.g.Transfer(f.ctx, "bob", testToken, testOwner, amt(-5))
	wantErr(t, err, domain.ErrNegativeAmount)

	wantAmount(t, "recipient after failures", f.balance(testToken, "bob"), 300)
}

func TestLedger_CheckpointCountGrowsByAtMostOne(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.mint(testOwner, 1000)

	count := func(a domain.Address) uint32 {
		n, err := f.g.CheckpointCount(f.ctx, testToken, a)
		if err != nil {
			t.Fatalf("CheckpointCount() error = %v", err)
		}
		return n
	}

	if got := count(testOwner); got != 1 {
		t.Fatalf("owner checkpoints after mint = %d, want 1", got)
	}

	for now := uint32(1); now <= 5; now++ {
		f.at(now)
		before := count(testOwner)
		if err := f.g.Transfer(f.ctx, testOwner, testToken, "bob", amt(10)); err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}
		if after := count(testOwner); after > before+1 {
			t.Errorf("t=%d: owner checkpoints %d -> %d", now, before, after)
		}
	}

	// Without active proposals only the latest checkpoint is retained.
	if got := count(testOwner); got != 1 {
		t.Errorf("owner checkpoints = %d, want 1", got)
	}
}

func TestLedger_SameTimeWritesReplaceCheckpoint(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.mint(testOwner, 1000)

	f.at(3)
	for i := 0; i < 3; i++ {
		if err := f.g.Transfer(f.ctx, testOwner, testToken, "bob", amt(100)); err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}
	}

	series, err := f.g.Checkpoints(f.ctx, testToken, testOwner)
	if err != nil {
		t.Fatalf("Checkpoints() error = %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("series = %v, want one checkpoint", series)
	}
	if series[0].Time != 3 {
		t.Errorf("checkpoint time = %d, want 3", series[0].Time)
	}
	wantAmount(t, "checkpoint balance", series[0].Balance, 700)
}

func TestLedger_SnapshotScenario(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.fund(testOwner)

	f.mint(testOwner, 1_000_000)

	f.at(1)
	if err := f.g.Transfer(f.ctx, testOwner, testToken, "bob", amt(100_000)); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	cp, err := f.g.CheckpointAt(f.ctx, testToken, testOwner, 0)
	if err != nil {
		t.Fatalf("CheckpointAt() error = %v", err)
	}
	if cp.Time != 1 {
		t.Errorf("owner checkpoint time = %d, want 1", cp.Time)
	}
	wantAmount(t, "owner checkpoint", cp.Balance, 900_000)

	cp, err = f.g.CheckpointAt(f.ctx, testToken, "bob", 0)
	if err != nil {
		t.Fatalf("CheckpointAt(bob) error = %v", err)
	}
	if cp.Time != 1 {
		t.Errorf("bob checkpoint time = %d, want 1", cp.Time)
	}
	wantAmount(t, "bob checkpoint", cp.Balance, 100_000)

	f.at(10)
	f.propose(testOwner)
	if err := f.g.Transfer(f.ctx, testOwner, testToken, "bob", amt(100_000)); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}

	series, err := f.g.Checkpoints(f.ctx, testToken, testOwner)
	if err != nil {
		t.Fatalf("Checkpoints() error = %v", err)
	}
	want := []struct {
		time uint32
		bal  int64
	}{{1, 900_000}, {10, 800_000}}
	if len(series) != len(want) {
		t.Fatalf("series = %v, want %d checkpoints", series, len(want))
	}
	for i, w := range want {
		if series[i].Time != w.time {
			t.Errorf("series[%d].Time = %d, want %d", i, series[i].Time, w.time)
		}
		wantAmount(t, "series balance", series[i].Balance, w.bal)
	}

	b9, err := f.g.BalanceAsOf(f.ctx, testToken, testOwner, 9)
	if err != nil {
		t.Fatalf("BalanceAsOf(9) error = %v", err)
	}
	wantAmount(t, "balanceAsOf(9)", b9, 900_000)

	b10, err := f.g.BalanceAsOf(f.ctx, testToken, testOwner, 10)
	if err != nil {
		t.Fatalf("BalanceAsOf(10) error = %v", err)
	}
	wantAmount(t, "balanceAsOf(10)", b10, 800_000)

	b0, err := f.g.BalanceAsOf(f.ctx, testToken, testOwner, 0)
	if err != nil {
		t.Fatalf("BalanceAsOf(0) error = %v", err)
	}
	if !b0.IsZero() {
		t.Errorf("balanceAsOf(0) = %s, want 0 after pruning", b0)
	}
}

func TestLedger_CheckpointAtErrors(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())

	_, err := f.g.CheckpointAt(f.ctx, testToken, "nobody", 0)
	wantErr(t, err, domain.ErrNoCheckpoint)

	f.mint("bob", 1)
	_, err = f.g.CheckpointAt(f.ctx, testToken, "bob", 1)
	wantErr(t, err, domain.ErrCheckpointIndex)
}

func TestLedger_Allowance(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.mint(testOwner, 1000)

	allowance := func() domain.Amount {
		a, err := f.g.Allowance(f.ctx, testToken, testOwner, "spender")
		if err != nil {
			t.Fatalf("Allowance() error = %v", err)
		}
		return a
	}

	if err := f.g.IncreaseAllowance(f.ctx, testOwner, testToken, "spender", amt(200)); err != nil {
		t.Fatalf("IncreaseAllowance() error = %v", err)
	}
	if err := f.g.IncreaseAllowance(f.ctx, testOwner, testToken, "spender", amt(50)); err != nil {
		t.Fatalf("IncreaseAllowance() error = %v", err)
	}
	wantAmount(t, "allowance", allowance(), 250)

	if err := f.g.DecreaseAllowance(f.ctx, testOwner, testToken, "spender", amt(100)); err != nil {
		t.Fatalf("DecreaseAllowance() error = %v", err)
	}
	wantAmount(t, "allowance after decrease", allowance(), 150)

	// Decreasing below zero clamps.
	if err := f.g.DecreaseAllowance(f.ctx, testOwner, testToken, "spender", amt(1000)); err != nil {
		t.Fatalf("DecreaseAllowance() error = %v", err)
	}
	wantAmount(t, "allowance after clamp", allowance(), 0)

	err := f.g.IncreaseAllowance(f.ctx, testOwner, testToken, "spender", amt(-1))
	wantErr(t, err, domain.ErrNegativeAmount)
}

func TestLedger_TransferFrom(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.mint(testOwner, 1000)

	err := f.g.TransferFrom(f.ctx, "spender", testToken, testOwner, "carol", amt(10))
	wantErr(t, err, domain.ErrInsufficientAllowance)

	if err := f.g.IncreaseAllowance(f.ctx, testOwner, testToken, "spender", amt(300)); err != nil {
		t.Fatalf("IncreaseAllowance() error = %v", err)
	}
	if err := f.g.TransferFrom(f.ctx, "spender", testToken, testOwner, "carol", amt(120)); err != nil {
		t.Fatalf("TransferFrom() error = %v", err)
	}

	wantAmount(t, "owner", f.balance(testToken, testOwner), 880)
	wantAmount(t, "carol", f.balance(testToken, "carol"), 120)
	a, _ := f.g.Allowance(f.ctx, testToken, testOwner, "spender")
	wantAmount(t, "remaining allowance", a, 180)
}

func TestLedger_TransferFromRollsBackAllowance(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.mint(testOwner, 100)

	if err := f.g.IncreaseAllowance(f.ctx, testOwner, testToken, "spender", amt(500)); err != nil {
		t.Fatalf("IncreaseAllowance() error = %v", err)
	}

	// The allowance is spent before the balance check fails.
	err := f.g.TransferFrom(f.ctx, "spender", testToken, testOwner, "carol", amt(400))
	wantErr(t, err, domain.ErrInsufficientBalance)

	a, _ := f.g.Allowance(f.ctx, testToken, testOwner, "spender")
	wantAmount(t, "allowance", a, 500)
	wantAmount(t, "owner", f.balance(testToken, testOwner), 100)
}

func TestLedger_Overflow(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())

	if err := f.g.Mint(f.ctx, testOwner, testToken, "whale", domain.MaxAmount()); err != nil {
		t.Fatalf("Mint(max) error = %v", err)
	}
	f.mint("bob", 1)

	err := f.g.Transfer(f.ctx, "bob", testToken, "whale", amt(1))
	wantErr(t, err, domain.ErrAmountOverflow)
	wantAmount(t, "bob", f.balance(testToken, "bob"), 1)
}

func TestLedger_SetTokenOwner(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())

	_, err := f.g.SetTokenOwner(f.ctx, "mallory", testToken, "mallory")
	wantErr(t, err, domain.ErrNotTokenOwner)

	info, err := f.g.SetTokenOwner(f.ctx, testOwner, testToken, "minter")
	if err != nil {
		t.Fatalf("SetTokenOwner() error = %v", err)
	}
	if info.Owner != "minter" {
		t.Errorf("owner = %s, want minter", info.Owner)
	}

	err = f.g.Mint(f.ctx, testOwner, testToken, "bob", amt(1))
	wantErr(t, err, domain.ErrNotTokenOwner)
	if err := f.g.Mint(f.ctx, "minter", testToken, "bob", amt(1)); err != nil {
		t.Fatalf("Mint() by new owner error = %v", err)
	}
}

func TestLedger_TransferHook(t *testing.T) {
	f := newFixture(t)
	f.setupOrg(defaultConfig())
	f.mint(testOwner, 1000)

	limit := amt(50)
	f.hooks.Register("policy", &PolicyHook{MaxTransfer: &limit})
	if _, err := f.g.SetHook(f.ctx, testOwner, testOrg, "policy"); err != nil {
		t.Fatalf("SetHook() error = %v", err)
	}

	err := f.g.Transfer(f.ctx, testOwner, testToken, "bob", amt(51))
	wantErr(t, err, domain.ErrHookRejected)

	if err := f.g.Transfer(f.ctx, testOwner, testToken, "bob", amt(50)); err != nil {
		t.Fatalf("Transfer() within limit error = %v", err)
	}
	wantAmount(t, "bob", f.balance(testToken, "bob"), 50)
}
