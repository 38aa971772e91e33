package domain

import (
	"regexp"
	"time"
)

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._:-]{0,127}$`)

// ValidateAddress checks that a is a usable identifier.
func ValidateAddress(field string, a Address) error {
	if a == "" {
		return ErrMissingArgument.WithDetails(field + " is required")
	}
	if !idPattern.MatchString(string(a)) {
		return ErrInvalidArgument.WithDetailsf("%s %q is malformed", field, a)
	}
	return nil
}

// Organization is a registry entry for a tokenized organization.
type Organization struct {
	ID        Address `json:"id"`
	Name      string  `json:"name"`
	Owner     Address `json:"owner"`
	Token     Address `json:"token,omitempty"`
	Hook      Address `json:"hook,omitempty"`
	CreatedAt int64   `json:"created_at"`
}

// NewOrganization creates a validated organization record.
func NewOrganization(id Address, name string, owner Address) (*Organization, error) {
	if err := ValidateAddress("org_id", id); err != nil {
		return nil, err
	}
	if err := ValidateAddress("owner", owner); err != nil {
		return nil, err
	}
	if name == "" {
		name = string(id)
	}
	return &Organization{
		ID:        id,
		Name:      name,
		Owner:     owner,
		CreatedAt: time.Now().UnixMilli(),
	}, nil
}

// TokenDecimals is the fixed precision of membership tokens.
const TokenDecimals = 18

// TokenInfo describes a membership token issued by an organization.
type TokenInfo struct {
	Address  Address `json:"address"`
	OrgID    Address `json:"org_id"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Decimals uint32  `json:"decimals"`
	Owner    Address `json:"owner"`
}

// Validate checks the token fields.
func (t *TokenInfo) Validate() error {
	if err := ValidateAddress("token", t.Address); err != nil {
		return err
	}
	if t.Symbol == "" || len(t.Symbol) > 12 {
		return ErrInvalidArgument.WithDetails("symbol must be 1-12 characters")
	}
	if t.Name == "" {
		return ErrMissingArgument.WithDetails("name is required")
	}
	return nil
}
