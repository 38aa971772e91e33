package domain

import (
	"bytes"
	"math/big"
)

var (
	maxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minAmount = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// Amount is a signed 128-bit token quantity. The zero value is 0.
// Amounts are immutable; arithmetic returns a new value and fails with
// ErrAmountOverflow when the result leaves the 128-bit range.
type Amount struct {
	i *big.Int
}

// NewAmount returns the Amount for v.
func NewAmount(v int64) Amount {
	return Amount{i: big.NewInt(v)}
}

// MaxAmount is the largest representable Amount (2^127 - 1).
func MaxAmount() Amount { return Amount{i: new(big.Int).Set(maxAmount)} }

// MinAmount is the smallest representable Amount (-2^127).
func MinAmount() Amount { return Amount{i: new(big.Int).Set(minAmount)} }

// ParseAmount parses a base-10 integer string.
func ParseAmount(s string) (Amount, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, ErrInvalidArgument.WithDetailsf("amount %q is not an integer", s)
	}
	return fromBig(v)
}

func fromBig(v *big.Int) (Amount, error) {
	if v.Cmp(maxAmount) > 0 || v.Cmp(minAmount) < 0 {
		return Amount{}, ErrAmountOverflow.WithDetails(v.String())
	}
	return Amount{i: v}, nil
}

func (a Amount) big() *big.Int {
	if a.i == nil {
		return new(big.Int)
	}
	return a.i
}

// Add returns a + b.
func (a Amount) Add(b Amount) (Amount, error) {
	return fromBig(new(big.Int).Add(a.big(), b.big()))
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) (Amount, error) {
	return fromBig(new(big.Int).Sub(a.big(), b.big()))
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.big().Cmp(b.big())
}

// Sign returns -1, 0 or +1 depending on the sign of a.
func (a Amount) Sign() int {
	return a.big().Sign()
}

// IsZero reports whether a == 0.
func (a Amount) IsZero() bool {
	return a.Sign() == 0
}

// String returns the base-10 representation.
func (a Amount) String() string {
	return a.big().String()
}

// MarshalJSON encodes the amount as a decimal string so values above
// 2^53 survive JSON consumers that parse numbers as float64.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts either a decimal string or a bare JSON integer.
// null decodes to zero; an empty string is rejected.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Amount{}
		return nil
	}
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		data = data[1 : len(data)-1]
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return ErrMissingArgument.WithDetails("amount is empty")
	}
	v, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
