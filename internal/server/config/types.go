package config

import "time"

// ServerConfig is the root configuration for govmesh-server.
type ServerConfig struct {
	Server     ServerSection     `koanf:"server"`
	Storage    StorageSection    `koanf:"storage"`
	Governance GovernanceSection `koanf:"governance"`
	Log        LogSection        `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`

	// ShutdownTimeout bounds the graceful shutdown of all components.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// AdminKeyHash is the argon2id hash of the admin API key. Admin
	// endpoints are disabled when empty.
	AdminKeyHash string `koanf:"admin_key_hash"`

	// RateLimit is the per-client request rate (requests/second).
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// AdminAllowList restricts /admin/v1 to these IPs or CIDRs.
	// Empty means no restriction.
	AdminAllowList []string `koanf:"admin_allow_list"`

	// CORSOrigins enables CORS for the listed origins ("*" for any).
	CORSOrigins []string `koanf:"cors_origins"`

	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// StorageSection configures the key-value store.
type StorageSection struct {
	// Engine is "memory" or "badger".
	Engine       string `koanf:"engine"`
	DataDir      string `koanf:"data_dir"`
	MemoryShards int    `koanf:"memory_shards"`

	GCInterval  time.Duration `koanf:"gc_interval"`
	GCThreshold float64       `koanf:"gc_threshold"`
	CacheSizeMB int64         `koanf:"cache_size_mb"`
	SyncWrites  bool          `koanf:"sync_writes"`
}

// GovernanceSection configures the governance engine.
type GovernanceSection struct {
	NativeToken  string `koanf:"native_token"`
	NativeSymbol string `koanf:"native_symbol"`
	NativeName   string `koanf:"native_name"`
	NativeOwner  string `koanf:"native_owner"`

	// Custody holds proposal deposits until they are refunded.
	Custody string `koanf:"custody"`

	// ReserveAmount is the default deposit in base units, as a decimal
	// string so that it can exceed 64 bits.
	ReserveAmount string `koanf:"reserve_amount"`

	MaxActiveProposals int `koanf:"max_active_proposals"`

	// FinalizationGrace is how many ticks past the voting period an
	// unfinalized proposal stays in the active set.
	FinalizationGrace uint32 `koanf:"finalization_grace"`

	Clock ClockConfig `koanf:"clock"`

	// Policies registers built-in policy hooks that organizations can
	// attach by address.
	Policies []PolicyConfig `koanf:"policies"`
}

// PolicyConfig describes one built-in policy hook. Empty fields disable the
// matching rule.
type PolicyConfig struct {
	Address string `koanf:"address"`

	// MaxVoteWeight caps the power of a single vote (decimal string).
	MaxVoteWeight string `koanf:"max_vote_weight"`

	MinProposalDuration uint32 `koanf:"min_proposal_duration"`

	// MaxTransfer caps a single transfer (decimal string).
	MaxTransfer string `koanf:"max_transfer"`

	ProposerAllowlist []string `koanf:"proposer_allowlist"`
}

// ClockConfig selects the logical clock.
type ClockConfig struct {
	// Mode is "manual" (advanced through the admin API) or "ticker".
	Mode string `koanf:"mode"`

	// Start is the initial time when the store holds none.
	Start uint32 `koanf:"start"`

	// Interval is the wall-clock duration of one tick in ticker mode.
	Interval time.Duration `koanf:"interval"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
