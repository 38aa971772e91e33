package service

import (
	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/storage/keyspace"
)

// ConfigurationService stores the governance parameters of organizations.
type ConfigurationService struct {
	registry Registry
	hooks    HookResolver
}

// NewConfigurationService creates a ConfigurationService.
func NewConfigurationService(registry Registry, hooks HookResolver) *ConfigurationService {
	return &ConfigurationService{registry: registry, hooks: hooks}
}

// Set stores cfg for org, replacing any previous configuration. The
// organization hook may lengthen or shorten the proposal duration.
func (s *ConfigurationService) Set(t *Txn, org, caller domain.Address, cfg domain.Configuration) (*domain.Configuration, error) {
	// 1. Only the organization owner may configure it
	if err := requireOrgOwner(t, s.registry, org, caller); err != nil {
		return nil, err
	}

	// 2. Validate values
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 3. Let the hook adjust the duration
	h, addr, err := hooksFor(t, s.registry, s.hooks, org)
	if err != nil {
		return nil, err
	}
	d, err := h.OnSetConfiguration(t.Context(), org, cfg.ProposalDuration)
	if err != nil {
		return nil, hookErr(addr, err)
	}
	cfg.ProposalDuration = d
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 4. Persist and announce
	if err := t.put(keyspace.Configuration{Org: org}, &cfg); err != nil {
		return nil, err
	}

	data := map[string]any{
		"proposal_duration": cfg.ProposalDuration,
		"min_threshold":     cfg.MinThreshold,
		"voting_mode":       cfg.Mode(),
	}
	if cfg.TokenDeposit != nil {
		data["token_deposit"] = *cfg.TokenDeposit
	}
	t.emit(domain.NewEvent(domain.TopicConfigurationSet, org, t.Now(), data))
	return &cfg, nil
}

// Get returns the configuration of org.
func (s *ConfigurationService) Get(t *Txn, org domain.Address) (*domain.Configuration, error) {
	var cfg domain.Configuration
	found, err := t.get(keyspace.Configuration{Org: org}, &cfg)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrConfigurationNotFound.WithDetails(string(org))
	}
	return &cfg, nil
}

// Remove deletes the configuration of org. Proposals already running keep
// the parameters they were created with.
func (s *ConfigurationService) Remove(t *Txn, org, caller domain.Address) error {
	if err := requireOrgOwner(t, s.registry, org, caller); err != nil {
		return err
	}
	if _, err := s.Get(t, org); err != nil {
		return err
	}
	return t.del(keyspace.Configuration{Org: org})
}

// requireOrgOwner checks that org exists and caller administers it.
func requireOrgOwner(t *Txn, reg Registry, org, caller domain.Address) error {
	owner, err := reg.GetOwner(t, org)
	if err != nil {
		return err
	}
	if owner != caller {
		return domain.ErrNotOrganizationOwner.WithDetailsf("%s does not own %s", caller, org)
	}
	return nil
}
