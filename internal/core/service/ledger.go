package service

import (
	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/storage/keyspace"
)

// AnchorSource lists the logical times whose balances must stay readable
// for an organization: the creation times of its active proposals.
type AnchorSource interface {
	Anchors(t *Txn, org domain.Address) ([]uint32, error)
}

// Ledger keeps token balances and allowances. Every balance change writes
// through to the account's checkpoint series in the same transaction.
type Ledger struct {
	registry Registry
	hooks    HookResolver
	anchors  AnchorSource
}

// NewLedger creates a Ledger.
func NewLedger(registry Registry, hooks HookResolver, anchors AnchorSource) *Ledger {
	return &Ledger{registry: registry, hooks: hooks, anchors: anchors}
}

// Token loads the token metadata or fails with ErrTokenNotFound.
func (l *Ledger) Token(t *Txn, token domain.Address) (*domain.TokenInfo, error) {
	var info domain.TokenInfo
	found, err := t.get(keyspace.Token{Token: token}, &info)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrTokenNotFound.WithDetails(string(token))
	}
	return &info, nil
}

// EnsureToken creates a token without an organization, such as the native
// token deposits are paid in. Existing tokens are left as they are.
func (l *Ledger) EnsureToken(t *Txn, info domain.TokenInfo) (*domain.TokenInfo, error) {
	if existing, err := l.Token(t, info.Address); err == nil {
		return existing, nil
	} else if !domain.IsDomainError(err, domain.ErrTokenNotFound.Code) {
		return nil, err
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateAddress("owner", info.Owner); err != nil {
		return nil, err
	}
	if err := t.put(keyspace.Token{Token: info.Address}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SetTokenOwner hands minting rights to newOwner.
func (l *Ledger) SetTokenOwner(t *Txn, token, caller, newOwner domain.Address) (*domain.TokenInfo, error) {
	info, err := l.Token(t, token)
	if err != nil {
		return nil, err
	}
	if info.Owner != caller {
		return nil, domain.ErrNotTokenOwner.WithDetailsf("%s does not own %s", caller, token)
	}
	if err := domain.ValidateAddress("new_owner", newOwner); err != nil {
		return nil, err
	}
	info.Owner = newOwner
	if err := t.put(keyspace.Token{Token: token}, info); err != nil {
		return nil, err
	}
	return info, nil
}

// ============================================================================
// Reads
// ============================================================================

// BalanceOf returns the current balance, 0 for unknown accounts.
func (l *Ledger) BalanceOf(t *Txn, token, account domain.Address) (domain.Amount, error) {
	var bal domain.Amount
	if _, err := t.get(keyspace.Balance{Token: token, Account: account}, &bal); err != nil {
		return domain.Amount{}, err
	}
	return bal, nil
}

// Allowance returns how much spender may move from owner.
func (l *Ledger) Allowance(t *Txn, token, owner, spender domain.Address) (domain.Amount, error) {
	var a domain.Amount
	if _, err := t.get(keyspace.Allowance{Token: token, Owner: owner, Spender: spender}, &a); err != nil {
		return domain.Amount{}, err
	}
	return a, nil
}

// Checkpoints returns the balance history of account.
func (l *Ledger) Checkpoints(t *Txn, token, account domain.Address) (domain.Series, error) {
	var s domain.Series
	if _, err := t.get(keyspace.Checkpoints{Token: token, Account: account}, &s); err != nil {
		return nil, err
	}
	return s, nil
}

// BalanceAsOf returns the balance of account at logical time at. Accounts
// without history at that time have balance 0.
func (l *Ledger) BalanceAsOf(t *Txn, token, account domain.Address, at uint32) (domain.Amount, error) {
	s, err := l.Checkpoints(t, token, account)
	if err != nil {
		return domain.Amount{}, err
	}
	bal, _ := s.BalanceAsOf(at)
	return bal, nil
}

// CheckpointCount returns the length of the account's series.
func (l *Ledger) CheckpointCount(t *Txn, token, account domain.Address) (uint32, error) {
	s, err := l.Checkpoints(t, token, account)
	if err != nil {
		return 0, err
	}
	return uint32(len(s)), nil
}

// CheckpointAt returns one checkpoint of the account's series.
func (l *Ledger) CheckpointAt(t *Txn, token, account domain.Address, index uint32) (domain.Checkpoint, error) {
	s, err := l.Checkpoints(t, token, account)
	if err != nil {
		return domain.Checkpoint{}, err
	}
	return s.At(index)
}

// ============================================================================
// Mutations
// ============================================================================

// Mint credits amount to an account that has never held a balance.
// Only the token owner may mint.
func (l *Ledger) Mint(t *Txn, token, caller, to domain.Address, amount domain.Amount) error {
	info, err := l.Token(t, token)
	if err != nil {
		return err
	}
	if info.Owner != caller {
		return domain.ErrNotTokenOwner.WithDetailsf("%s does not own %s", caller, token)
	}
	if err := requireNonNegative(amount); err != nil {
		return err
	}
	if err := domain.ValidateAddress("to", to); err != nil {
		return err
	}

	minted, err := t.has(keyspace.Checkpoints{Token: token, Account: to})
	if err != nil {
		return err
	}
	if minted {
		return domain.ErrCanOnlyBeMintedOnce.WithDetails(string(to))
	}

	if err := l.writeBalance(t, info, to, amount); err != nil {
		return err
	}
	t.emit(domain.NewEvent(domain.TopicTokenMinted, info.OrgID, t.Now(), map[string]any{
		"token":  token,
		"to":     to,
		"amount": amount,
	}))
	return nil
}

// Transfer moves amount from the caller to another account.
func (l *Ledger) Transfer(t *Txn, token, from, to domain.Address, amount domain.Amount) error {
	info, err := l.Token(t, token)
	if err != nil {
		return err
	}
	if err := requireNonNegative(amount); err != nil {
		return err
	}
	if err := domain.ValidateAddress("to", to); err != nil {
		return err
	}

	if info.OrgID != "" {
		h, addr, err := hooksFor(t, l.registry, l.hooks, info.OrgID)
		if err != nil {
			return err
		}
		if amount, err = h.AdjustTransfer(t.Context(), info.OrgID, from, to, amount); err != nil {
			return hookErr(addr, err)
		}
		if err := requireNonNegative(amount); err != nil {
			return err
		}
	}
	return l.move(t, info, from, to, amount)
}

// TransferFrom moves amount from one account to another using the
// allowance granted to spender.
func (l *Ledger) TransferFrom(t *Txn, token, spender, from, to domain.Address, amount domain.Amount) error {
	info, err := l.Token(t, token)
	if err != nil {
		return err
	}
	if err := requireNonNegative(amount); err != nil {
		return err
	}
	if err := domain.ValidateAddress("to", to); err != nil {
		return err
	}

	if info.OrgID != "" {
		h, addr, err := hooksFor(t, l.registry, l.hooks, info.OrgID)
		if err != nil {
			return err
		}
		if amount, err = h.AdjustTransferFrom(t.Context(), info.OrgID, spender, from, to, amount); err != nil {
			return hookErr(addr, err)
		}
		if err := requireNonNegative(amount); err != nil {
			return err
		}
	}

	if err := l.spendAllowance(t, token, from, spender, amount); err != nil {
		return err
	}
	return l.move(t, info, from, to, amount)
}

// IncreaseAllowance raises what spender may move on behalf of owner.
func (l *Ledger) IncreaseAllowance(t *Txn, token, owner, spender domain.Address, amount domain.Amount) error {
	info, err := l.Token(t, token)
	if err != nil {
		return err
	}
	if err := requireNonNegative(amount); err != nil {
		return err
	}
	if err := domain.ValidateAddress("spender", spender); err != nil {
		return err
	}

	if info.OrgID != "" {
		h, addr, err := hooksFor(t, l.registry, l.hooks, info.OrgID)
		if err != nil {
			return err
		}
		if amount, err = h.AdjustIncreaseAllowance(t.Context(), info.OrgID, owner, spender, amount); err != nil {
			return hookErr(addr, err)
		}
		if err := requireNonNegative(amount); err != nil {
			return err
		}
	}

	cur, err := l.Allowance(t, token, owner, spender)
	if err != nil {
		return err
	}
	next, err := cur.Add(amount)
	if err != nil {
		return err
	}
	return l.writeAllowance(t, info, owner, spender, next)
}

// DecreaseAllowance lowers what spender may move on behalf of owner,
// stopping at zero.
func (l *Ledger) DecreaseAllowance(t *Txn, token, owner, spender domain.Address, amount domain.Amount) error {
	info, err := l.Token(t, token)
	if err != nil {
		return err
	}
	if err := requireNonNegative(amount); err != nil {
		return err
	}

	if info.OrgID != "" {
		h, addr, err := hooksFor(t, l.registry, l.hooks, info.OrgID)
		if err != nil {
			return err
		}
		if amount, err = h.AdjustDecreaseAllowance(t.Context(), info.OrgID, owner, spender, amount); err != nil {
			return hookErr(addr, err)
		}
		if err := requireNonNegative(amount); err != nil {
			return err
		}
	}

	cur, err := l.Allowance(t, token, owner, spender)
	if err != nil {
		return err
	}
	next := domain.Amount{}
	if cur.Cmp(amount) > 0 {
		if next, err = cur.Sub(amount); err != nil {
			return err
		}
	}
	return l.writeAllowance(t, info, owner, spender, next)
}

// move debits from and credits to without hooks or authorization. Callers
// have already authorized the movement.
func (l *Ledger) move(t *Txn, info *domain.TokenInfo, from, to domain.Address, amount domain.Amount) error {
	if err := l.spendBalance(t, info, from, amount); err != nil {
		return err
	}
	if err := l.receiveBalance(t, info, to, amount); err != nil {
		return err
	}
	t.emit(domain.NewEvent(domain.TopicTokenTransferred, info.OrgID, t.Now(), map[string]any{
		"token":  info.Address,
		"from":   from,
		"to":     to,
		"amount": amount,
	}))
	return nil
}

func (l *Ledger) spendBalance(t *Txn, info *domain.TokenInfo, account domain.Address, amount domain.Amount) error {
	bal, err := l.BalanceOf(t, info.Address, account)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance.WithDetailsf("%s holds %s, needs %s", account, bal, amount)
	}
	next, err := bal.Sub(amount)
	if err != nil {
		return err
	}
	return l.writeBalance(t, info, account, next)
}

func (l *Ledger) receiveBalance(t *Txn, info *domain.TokenInfo, account domain.Address, amount domain.Amount) error {
	bal, err := l.BalanceOf(t, info.Address, account)
	if err != nil {
		return err
	}
	next, err := bal.Add(amount)
	if err != nil {
		return err
	}
	return l.writeBalance(t, info, account, next)
}

func (l *Ledger) spendAllowance(t *Txn, token, owner, spender domain.Address, amount domain.Amount) error {
	cur, err := l.Allowance(t, token, owner, spender)
	if err != nil {
		return err
	}
	if cur.Cmp(amount) < 0 {
		return domain.ErrInsufficientAllowance.WithDetailsf("%s may spend %s of %s, needs %s", spender, cur, owner, amount)
	}
	next, err := cur.Sub(amount)
	if err != nil {
		return err
	}
	return t.put(keyspace.Allowance{Token: token, Owner: owner, Spender: spender}, next)
}

func (l *Ledger) writeAllowance(t *Txn, info *domain.TokenInfo, owner, spender domain.Address, v domain.Amount) error {
	if err := t.put(keyspace.Allowance{Token: info.Address, Owner: owner, Spender: spender}, v); err != nil {
		return err
	}
	t.emit(domain.NewEvent(domain.TopicAllowanceChanged, info.OrgID, t.Now(), map[string]any{
		"token":     info.Address,
		"owner":     owner,
		"spender":   spender,
		"allowance": v,
	}))
	return nil
}

// writeBalance stores the new balance and rewrites the checkpoint series,
// keeping only the entries active proposals can still read.
func (l *Ledger) writeBalance(t *Txn, info *domain.TokenInfo, account domain.Address, bal domain.Amount) error {
	if err := t.put(keyspace.Balance{Token: info.Address, Account: account}, bal); err != nil {
		return err
	}

	var anchors []uint32
	if info.OrgID != "" && l.anchors != nil {
		var err error
		if anchors, err = l.anchors.Anchors(t, info.OrgID); err != nil {
			return err
		}
	}

	s, err := l.Checkpoints(t, info.Address, account)
	if err != nil {
		return err
	}
	s = s.Append(t.Now(), bal, anchors)
	t.series = append(t.series, len(s))
	return t.put(keyspace.Checkpoints{Token: info.Address, Account: account}, s)
}

func requireNonNegative(a domain.Amount) error {
	if a.Sign() < 0 {
		return domain.ErrNegativeAmount.WithDetails(a.String())
	}
	return nil
}
