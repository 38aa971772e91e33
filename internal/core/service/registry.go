package service

import (
	"encoding/json"

	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/storage/keyspace"
)

// OrgRegistry is the store-backed organization registry. It implements
// Registry for the governance components and adds the administrative
// operations that create and change organizations.
type OrgRegistry struct {
	hooks HookResolver
}

// NewOrgRegistry creates a registry. hooks resolves organization hooks for
// the owner-change and destroy extension points; it may be nil.
func NewOrgRegistry(hooks HookResolver) *OrgRegistry {
	return &OrgRegistry{hooks: hooks}
}

var _ Registry = (*OrgRegistry)(nil)

// Organization loads org or fails with ErrOrganizationNotFound.
func (r *OrgRegistry) Organization(t *Txn, org domain.Address) (*domain.Organization, error) {
	var o domain.Organization
	found, err := t.get(keyspace.Organization{Org: org}, &o)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrOrganizationNotFound.WithDetails(string(org))
	}
	return &o, nil
}

// OrganizationExists implements Registry.
func (r *OrgRegistry) OrganizationExists(t *Txn, org domain.Address) (bool, error) {
	return t.has(keyspace.Organization{Org: org})
}

// GetOwner implements Registry.
func (r *OrgRegistry) GetOwner(t *Txn, org domain.Address) (domain.Address, error) {
	o, err := r.Organization(t, org)
	if err != nil {
		return "", err
	}
	return o.Owner, nil
}

// GetTokenAddress implements Registry.
func (r *OrgRegistry) GetTokenAddress(t *Txn, org domain.Address) (domain.Address, error) {
	o, err := r.Organization(t, org)
	if err != nil {
		return "", err
	}
	if o.Token == "" {
		return "", domain.ErrTokenNotIssued.WithDetails(string(org))
	}
	return o.Token, nil
}

// GetHookAddress implements Registry.
func (r *OrgRegistry) GetHookAddress(t *Txn, org domain.Address) (domain.Address, error) {
	o, err := r.Organization(t, org)
	if err != nil {
		return "", err
	}
	return o.Hook, nil
}

// List returns every organization in key order.
func (r *OrgRegistry) List(t *Txn) ([]domain.Organization, error) {
	var out []domain.Organization
	err := t.scan(keyspace.TagOrganization, func(_ keyspace.Key, raw []byte) error {
		var o domain.Organization
		if err := json.Unmarshal(raw, &o); err != nil {
			return domain.ErrStorageError.WithCause(err)
		}
		out = append(out, o)
		return nil
	})
	return out, err
}

// Create registers a new organization owned by owner.
func (r *OrgRegistry) Create(t *Txn, id domain.Address, name string, owner domain.Address) (*domain.Organization, error) {
	o, err := domain.NewOrganization(id, name, owner)
	if err != nil {
		return nil, err
	}
	exists, err := r.OrganizationExists(t, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrOrganizationExists.WithDetails(string(id))
	}
	if err := t.put(keyspace.Organization{Org: id}, o); err != nil {
		return nil, err
	}

	t.emit(domain.NewEvent(domain.TopicOrganizationCreated, id, t.Now(), map[string]any{
		"owner": owner,
		"name":  o.Name,
	}))
	return o, nil
}

// requireOwner loads org and checks that caller administers it.
func (r *OrgRegistry) requireOwner(t *Txn, org, caller domain.Address) (*domain.Organization, error) {
	o, err := r.Organization(t, org)
	if err != nil {
		return nil, err
	}
	if o.Owner != caller {
		return nil, domain.ErrNotOrganizationOwner.WithDetailsf("%s does not own %s", caller, org)
	}
	return o, nil
}

// ChangeOwner transfers administration of org to newOwner.
func (r *OrgRegistry) ChangeOwner(t *Txn, org, caller, newOwner domain.Address) (*domain.Organization, error) {
	o, err := r.requireOwner(t, org, caller)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateAddress("new_owner", newOwner); err != nil {
		return nil, err
	}

	h, addr, err := hooksFor(t, r, r.hooks, org)
	if err != nil {
		return nil, err
	}
	if err := h.BeforeChangeOwner(t.Context(), org, newOwner, o.Owner); err != nil {
		return nil, hookErr(addr, err)
	}

	old := o.Owner
	o.Owner = newOwner
	if err := t.put(keyspace.Organization{Org: org}, o); err != nil {
		return nil, err
	}

	t.emit(domain.NewEvent(domain.TopicOwnerChanged, org, t.Now(), map[string]any{
		"old_owner": old,
		"new_owner": newOwner,
	}))
	return o, nil
}

// SetHook binds org to the hook at addr, or clears it when addr is empty.
func (r *OrgRegistry) SetHook(t *Txn, org, caller, addr domain.Address) (*domain.Organization, error) {
	o, err := r.requireOwner(t, org, caller)
	if err != nil {
		return nil, err
	}
	if addr != "" {
		if r.hooks == nil {
			return nil, domain.ErrHookNotFound.WithDetails(string(addr))
		}
		if _, err := r.hooks.Resolve(addr); err != nil {
			return nil, err
		}
	}

	o.Hook = addr
	if err := t.put(keyspace.Organization{Org: org}, o); err != nil {
		return nil, err
	}
	return o, nil
}

// IssueToken creates the membership token of org. The organization owner
// becomes the token owner. An organization issues at most one token.
func (r *OrgRegistry) IssueToken(t *Txn, org, caller domain.Address, info domain.TokenInfo) (*domain.TokenInfo, error) {
	o, err := r.requireOwner(t, org, caller)
	if err != nil {
		return nil, err
	}
	if o.Token != "" {
		return nil, domain.ErrTokenAlreadyIssued.WithDetails(string(o.Token))
	}

	info.OrgID = org
	info.Owner = o.Owner
	info.Decimals = domain.TokenDecimals
	if err := info.Validate(); err != nil {
		return nil, err
	}
	taken, err := t.has(keyspace.Token{Token: info.Address})
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrInvalidArgument.WithDetailsf("token address %s already in use", info.Address)
	}

	if err := t.put(keyspace.Token{Token: info.Address}, &info); err != nil {
		return nil, err
	}
	o.Token = info.Address
	if err := t.put(keyspace.Organization{Org: org}, o); err != nil {
		return nil, err
	}

	t.emit(domain.NewEvent(domain.TopicTokenIssued, org, t.Now(), map[string]any{
		"token":  info.Address,
		"symbol": info.Symbol,
	}))
	return &info, nil
}

// Destroy removes org from the registry. The configuration must be removed
// first; balances of the organization token are left untouched.
func (r *OrgRegistry) Destroy(t *Txn, org, caller domain.Address) error {
	if _, err := r.requireOwner(t, org, caller); err != nil {
		return err
	}
	configured, err := t.has(keyspace.Configuration{Org: org})
	if err != nil {
		return err
	}
	if configured {
		return domain.ErrMustRemoveConfigFirst.WithDetails(string(org))
	}
	var active []domain.ActiveProposal
	if _, err := t.get(keyspace.ActiveProposals{Org: org}, &active); err != nil {
		return err
	}
	if len(active) > 0 {
		return domain.ErrProposalStillActive.WithDetailsf("%s has %d active proposals", org, len(active))
	}

	h, addr, err := hooksFor(t, r, r.hooks, org)
	if err != nil {
		return err
	}
	if err := h.BeforeDestroyOrganization(t.Context(), org); err != nil {
		return hookErr(addr, err)
	}

	if err := t.del(keyspace.Organization{Org: org}); err != nil {
		return err
	}
	t.emit(domain.NewEvent(domain.TopicOrganizationDestroyed, org, t.Now(), nil))
	return nil
}
