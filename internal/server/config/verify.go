package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/storage"
)

// Verify validates the configuration. All problems are reported together.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyServer(&cfg.Server),
		verifyStorage(&cfg.Storage),
		verifyGovernance(&cfg.Governance),
		verifyLog(&cfg.Log),
	)
}

func verifyServer(cfg *ServerSection) error {
	var errs []error
	h := cfg.HTTP

	if _, _, err := net.SplitHostPort(h.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr %q: %w", h.Addr, err))
	}
	if (h.TLSCertFile == "") != (h.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}
	for _, f := range []string{h.TLSCertFile, h.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("server.http tls file: %w", err))
		}
	}
	if h.AdminKeyHash != "" && !strings.HasPrefix(h.AdminKeyHash, "$argon2id$") {
		errs = append(errs, errors.New("server.http.admin_key_hash must be an argon2id hash"))
	}
	if h.RateLimit < 0 {
		errs = append(errs, errors.New("server.http.rate_limit must not be negative"))
	}
	if h.RateLimit > 0 && h.RateBurst < 1 {
		errs = append(errs, errors.New("server.http.rate_burst must be at least 1"))
	}
	for _, entry := range h.AdminAllowList {
		if !validACLEntry(entry) {
			errs = append(errs, fmt.Errorf("server.http.admin_allow_list: %q is not an IP or CIDR", entry))
		}
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	return errors.Join(errs...)
}

func validACLEntry(entry string) bool {
	if strings.Contains(entry, "/") {
		_, _, err := net.ParseCIDR(entry)
		return err == nil
	}
	return net.ParseIP(entry) != nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Engine {
	case storage.EngineMemory:
		return nil
	case storage.EngineBadger:
	default:
		return fmt.Errorf("storage.engine %q: want memory or badger", cfg.Engine)
	}

	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required for the badger engine")
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return errors.New("cannot create data directory: " + err.Error())
	}
	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		return fmt.Errorf("storage.gc_threshold must be in (0, 1), got %v", cfg.GCThreshold)
	}
	return nil
}

func verifyGovernance(cfg *GovernanceSection) error {
	var errs []error

	for field, v := range map[string]string{
		"governance.native_token": cfg.NativeToken,
		"governance.native_owner": cfg.NativeOwner,
		"governance.custody":      cfg.Custody,
	} {
		if err := domain.ValidateAddress(field, domain.Address(v)); err != nil {
			errs = append(errs, err)
		}
	}
	if cfg.NativeSymbol == "" {
		errs = append(errs, errors.New("governance.native_symbol is required"))
	}

	amount, err := domain.ParseAmount(cfg.ReserveAmount)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("governance.reserve_amount: %w", err))
	case amount.Sign() < 0:
		errs = append(errs, errors.New("governance.reserve_amount must not be negative"))
	}

	if cfg.MaxActiveProposals < 1 {
		errs = append(errs, errors.New("governance.max_active_proposals must be at least 1"))
	}

	switch cfg.Clock.Mode {
	case ClockModeManual:
	case ClockModeTicker:
		if cfg.Clock.Interval <= 0 {
			errs = append(errs, errors.New("governance.clock.interval must be positive in ticker mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("governance.clock.mode %q: want manual or ticker", cfg.Clock.Mode))
	}

	seen := make(map[string]bool)
	for i, p := range cfg.Policies {
		field := fmt.Sprintf("governance.policies[%d]", i)
		if err := domain.ValidateAddress(field+".address", domain.Address(p.Address)); err != nil {
			errs = append(errs, err)
		}
		if seen[p.Address] {
			errs = append(errs, fmt.Errorf("%s.address %q is registered twice", field, p.Address))
		}
		seen[p.Address] = true
		if _, err := p.Hook(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}
	return errors.Join(errs...)
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q: want debug, info, warn or error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q: want json or text", cfg.Format)
	}
	return nil
}
