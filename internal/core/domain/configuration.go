package domain

// VotingMode selects how snapshot balances translate into voting power.
type VotingMode string

const (
	// VotingWeighted counts the full snapshot balance.
	VotingWeighted VotingMode = "weighted"
	// VotingMember counts one unit per account holding a positive snapshot balance.
	VotingMember VotingMode = "member"
)

// Configuration holds the governance parameters of one organization.
// A configuration must exist before proposals can be created.
type Configuration struct {
	ProposalDuration uint32     `json:"proposal_duration"`
	MinThreshold     Amount     `json:"min_threshold"`
	TokenDeposit     *Amount    `json:"token_deposit,omitempty"`
	VotingMode       VotingMode `json:"voting_mode,omitempty"`
}

// Validate checks the configuration values.
func (c *Configuration) Validate() error {
	if c.ProposalDuration == 0 {
		return ErrInvalidConfiguration.WithDetails("proposal_duration must be positive")
	}
	if c.MinThreshold.Sign() < 0 {
		return ErrInvalidConfiguration.WithDetails("min_threshold must not be negative")
	}
	if c.TokenDeposit != nil && c.TokenDeposit.Sign() < 0 {
		return ErrInvalidConfiguration.WithDetails("token_deposit must not be negative")
	}
	switch c.VotingMode {
	case "", VotingWeighted, VotingMember:
	default:
		return ErrInvalidConfiguration.WithDetailsf("unknown voting_mode %q", c.VotingMode)
	}
	return nil
}

// Mode returns the voting mode, defaulting to VotingWeighted.
func (c *Configuration) Mode() VotingMode {
	if c.VotingMode == "" {
		return VotingWeighted
	}
	return c.VotingMode
}

// Deposit returns the anti-spam deposit, falling back to def.
func (c *Configuration) Deposit(def Amount) Amount {
	if c.TokenDeposit != nil {
		return *c.TokenDeposit
	}
	return def
}
