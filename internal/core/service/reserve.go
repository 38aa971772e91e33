package service

import (
	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/storage/keyspace"
)

// ReserveConfig names where anti-spam deposits are paid and held.
type ReserveConfig struct {
	// NativeToken is the token deposits are paid in.
	NativeToken domain.Address
	// Custody is the account holding deposits until they are refunded.
	Custody domain.Address
	// DefaultAmount applies when the configuration sets no deposit.
	DefaultAmount domain.Amount
}

// depositRecord is an unrefunded deposit. The key is deleted on refund, so
// its presence is what makes a refund possible at most once.
type depositRecord struct {
	Owner  domain.Address `json:"owner"`
	Amount domain.Amount  `json:"amount"`
}

// Reserve collects and refunds proposal deposits.
type Reserve struct {
	ledger *Ledger
	cfg    ReserveConfig
}

// NewReserve creates a Reserve.
func NewReserve(ledger *Ledger, cfg ReserveConfig) *Reserve {
	return &Reserve{ledger: ledger, cfg: cfg}
}

// Config returns the reserve configuration.
func (r *Reserve) Config() ReserveConfig { return r.cfg }

// Collect moves amount from owner into custody on behalf of proposal id.
func (r *Reserve) Collect(t *Txn, id uint32, owner domain.Address, amount domain.Amount) error {
	if err := requireNonNegative(amount); err != nil {
		return err
	}
	if amount.Sign() > 0 {
		info, err := r.ledger.Token(t, r.cfg.NativeToken)
		if err != nil {
			return err
		}
		if err := r.ledger.move(t, info, owner, r.cfg.Custody, amount); err != nil {
			return err
		}
	}
	return t.put(keyspace.Deposit{ID: id}, depositRecord{Owner: owner, Amount: amount})
}

// Refund pays the deposit of proposal id back to its owner. It reports
// false when no deposit is held, which means it was already refunded.
func (r *Reserve) Refund(t *Txn, id uint32) (domain.Amount, bool, error) {
	var rec depositRecord
	found, err := t.get(keyspace.Deposit{ID: id}, &rec)
	if err != nil || !found {
		return domain.Amount{}, false, err
	}
	if err := t.del(keyspace.Deposit{ID: id}); err != nil {
		return domain.Amount{}, false, err
	}
	if rec.Amount.Sign() > 0 {
		info, err := r.ledger.Token(t, r.cfg.NativeToken)
		if err != nil {
			return domain.Amount{}, false, err
		}
		if err := r.ledger.move(t, info, r.cfg.Custody, rec.Owner, rec.Amount); err != nil {
			return domain.Amount{}, false, err
		}
	}
	return rec.Amount, true, nil
}

// Held returns the deposit still held for proposal id.
func (r *Reserve) Held(t *Txn, id uint32) (domain.Amount, bool, error) {
	var rec depositRecord
	found, err := t.get(keyspace.Deposit{ID: id}, &rec)
	return rec.Amount, found, err
}
