package config

import "github.com/yndnr/govmesh-go/pkg/token"

// Sanitize returns a copy of cfg that is safe to log. The admin key hash
// is replaced by its fingerprint, which still lets operators tell which
// hash a server loaded. Slices are copied so the result never aliases cfg.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	out := *cfg

	h := &out.Server.HTTP
	if h.AdminKeyHash != "" {
		h.AdminKeyHash = "fp:" + token.Fingerprint(h.AdminKeyHash)
	}
	h.AdminAllowList = append([]string(nil), h.AdminAllowList...)
	h.CORSOrigins = append([]string(nil), h.CORSOrigins...)

	policies := make([]PolicyConfig, len(cfg.Governance.Policies))
	for i, p := range cfg.Governance.Policies {
		p.ProposerAllowlist = append([]string(nil), p.ProposerAllowlist...)
		policies[i] = p
	}
	out.Governance.Policies = policies
	return &out
}
