package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/core/service"
	"github.com/yndnr/govmesh-go/internal/storage"
)

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5380"
	DefaultRateLimit       = 50.0
	DefaultRateBurst       = 100
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultStorageEngine = storage.EngineBadger
	DefaultDataDir       = "/var/lib/govmesh-server/data"

	DefaultClockMode     = ClockModeTicker
	DefaultClockInterval = 5 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Clock modes.
const (
	ClockModeManual = "manual"
	ClockModeTicker = "ticker"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	sc := storage.DefaultConfig()
	gc := service.DefaultGovernorConfig()

	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:         DefaultHTTPAddr,
				RateLimit:    DefaultRateLimit,
				RateBurst:    DefaultRateBurst,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
				IdleTimeout:  DefaultIdleTimeout,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Storage: StorageSection{
			Engine:       DefaultStorageEngine,
			DataDir:      DefaultDataDir,
			MemoryShards: sc.MemoryShards,
			GCInterval:   sc.Badger.GCInterval,
			GCThreshold:  sc.Badger.GCThreshold,
			CacheSizeMB:  sc.Badger.CacheSize >> 20,
			SyncWrites:   sc.Badger.SyncWrites,
		},
		Governance: GovernanceSection{
			NativeToken:        string(gc.Reserve.NativeToken),
			NativeSymbol:       gc.NativeSymbol,
			NativeName:         gc.NativeName,
			NativeOwner:        string(gc.NativeOwner),
			Custody:            string(gc.Reserve.Custody),
			ReserveAmount:      strconv.FormatInt(domain.DefaultReserveUnits, 10),
			MaxActiveProposals: gc.Proposals.MaxActive,
			FinalizationGrace:  gc.Proposals.FinalizationGrace,
			Clock: ClockConfig{
				Mode:     DefaultClockMode,
				Interval: DefaultClockInterval,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// StorageConfig converts the storage section for storage.Open.
func (c *ServerConfig) StorageConfig() storage.Config {
	sc := storage.DefaultConfig()
	sc.Engine = c.Storage.Engine
	sc.Dir = c.Storage.DataDir
	if c.Storage.MemoryShards > 0 {
		sc.MemoryShards = c.Storage.MemoryShards
	}
	if c.Storage.GCInterval > 0 {
		sc.Badger.GCInterval = c.Storage.GCInterval
	}
	if c.Storage.GCThreshold > 0 {
		sc.Badger.GCThreshold = c.Storage.GCThreshold
	}
	if c.Storage.CacheSizeMB > 0 {
		sc.Badger.CacheSize = c.Storage.CacheSizeMB << 20
	}
	sc.Badger.SyncWrites = c.Storage.SyncWrites
	return sc
}

// GovernorConfig converts the governance section. Call Verify first; an
// unparsable reserve amount is reported again here.
func (c *ServerConfig) GovernorConfig() (service.GovernorConfig, error) {
	g := c.Governance
	amount, err := domain.ParseAmount(g.ReserveAmount)
	if err != nil {
		return service.GovernorConfig{}, err
	}

	gc := service.DefaultGovernorConfig()
	gc.Proposals.MaxActive = g.MaxActiveProposals
	gc.Proposals.FinalizationGrace = g.FinalizationGrace
	gc.Reserve = service.ReserveConfig{
		NativeToken:   domain.Address(g.NativeToken),
		Custody:       domain.Address(g.Custody),
		DefaultAmount: amount,
	}
	gc.NativeSymbol = g.NativeSymbol
	gc.NativeName = g.NativeName
	gc.NativeOwner = domain.Address(g.NativeOwner)
	return gc, nil
}

// Hook builds the PolicyHook described by p.
func (p PolicyConfig) Hook() (*service.PolicyHook, error) {
	hook := &service.PolicyHook{MinProposalDuration: p.MinProposalDuration}

	limit := func(name, v string) (*domain.Amount, error) {
		if v == "" {
			return nil, nil
		}
		a, err := domain.ParseAmount(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if a.Sign() <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %s", name, a)
		}
		return &a, nil
	}

	var err error
	if hook.MaxVoteWeight, err = limit("max_vote_weight", p.MaxVoteWeight); err != nil {
		return nil, err
	}
	if hook.MaxTransfer, err = limit("max_transfer", p.MaxTransfer); err != nil {
		return nil, err
	}
	for _, addr := range p.ProposerAllowlist {
		hook.ProposerAllowlist = append(hook.ProposerAllowlist, domain.Address(addr))
	}
	return hook, nil
}

// HookTable registers every configured policy hook.
func (c *ServerConfig) HookTable() (*service.HookTable, error) {
	table := service.NewHookTable()
	for _, p := range c.Governance.Policies {
		hook, err := p.Hook()
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", p.Address, err)
		}
		table.Register(domain.Address(p.Address), hook)
	}
	return table, nil
}
