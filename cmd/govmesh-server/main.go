package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/yndnr/govmesh-go/internal/core/service"
	"github.com/yndnr/govmesh-go/internal/infra/buildinfo"
	"github.com/yndnr/govmesh-go/internal/infra/confloader"
	"github.com/yndnr/govmesh-go/internal/infra/shutdown"
	"github.com/yndnr/govmesh-go/internal/server/config"
	"github.com/yndnr/govmesh-go/internal/server/httpserver"
	"github.com/yndnr/govmesh-go/internal/storage"
	"github.com/yndnr/govmesh-go/internal/storage/kv"
	"github.com/yndnr/govmesh-go/internal/telemetry/logger"
	"github.com/yndnr/govmesh-go/internal/telemetry/metric"
	"github.com/yndnr/govmesh-go/pkg/token"
)

// eventBufferSize is how many recent events the admin API can show.
const eventBufferSize = 1024

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		hashKey     = flag.String("hash-key", "", "Print the argon2id hash of an admin key and exit")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("govmesh-server %s\n", buildinfo.String())
		return nil
	}
	if *hashKey != "" {
		hash, err := service.HashAdminKey(*hashKey)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogLogger := logger.Std(log)

	log.Info("starting govmesh-server",
		"version", buildinfo.Get().Version,
		"commit", buildinfo.Get().Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	metrics := metric.NewRegistry()

	store, err := storage.Open(cfg.StorageConfig(), slogLogger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	if bs, ok := store.(*storage.BadgerStore); ok {
		bs.RegisterMetrics(metrics.Registerer())
	}
	metrics.MustRegister(metric.NewStoreCollector(store))

	gov, clock, events, err := initGovernor(cfg, store, metrics, slogLogger)
	if err != nil {
		_ = store.Close()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := gov.Bootstrap(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("bootstrap governor: %w", err)
	}
	log.Info("governor ready", "clock", cfg.Governance.Clock.Mode, "now", gov.Now())

	if ticker, ok := clock.(*service.TickerClock); ok {
		go ticker.Run(ctx)
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Governor:       gov,
		Admin:          adminAuth(cfg, log),
		Limiter:        rateLimiter(cfg),
		Metrics:        metrics,
		Events:         events,
		Ready:          func(ctx context.Context) error { _, err := gov.StoreStats(ctx); return err },
		AdminAllowList: cfg.Server.HTTP.AdminAllowList,
		CORSOrigins:    cfg.Server.HTTP.CORSOrigins,
		Logger:         slogLogger,
	})

	h := cfg.Server.HTTP
	httpServer := httpserver.New(httpserver.Config{
		Addr:         h.Addr,
		TLSCertFile:  h.TLSCertFile,
		TLSKeyFile:   h.TLSKeyFile,
		ReadTimeout:  h.ReadTimeout,
		WriteTimeout: h.WriteTimeout,
		IdleTimeout:  h.IdleTimeout,
	}, router)

	shutdownHandler := shutdown.NewHandler(cfg.Server.ShutdownTimeout, slogLogger)

	// Hooks run in reverse order: HTTP first, then the clock, then storage.
	shutdownHandler.OnShutdown("storage", func(ctx context.Context) error {
		log.Info("closing storage")
		return store.Close()
	})
	shutdownHandler.OnShutdown("clock", func(ctx context.Context) error {
		cancel()
		return nil
	})
	if watcher := watchConfig(*configFile, slogLogger); watcher != nil {
		shutdownHandler.OnShutdown("config-watcher", func(ctx context.Context) error {
			return watcher.Stop()
		})
	}
	shutdownHandler.OnShutdown("http", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", h.Addr, "tls", h.TLSCertFile != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			shutdownHandler.Trigger()
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(context.Background()); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initGovernor wires the clock, hooks, event sinks and metrics into a
// Governor.
func initGovernor(cfg *config.ServerConfig, store kv.Store, metrics *metric.Registry, log *slog.Logger) (*service.Governor, service.Clock, *service.MemorySink, error) {
	gc, err := cfg.GovernorConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("governance config: %w", err)
	}
	hooks, err := cfg.HookTable()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("policy hooks: %w", err)
	}

	var clock service.Clock
	c := cfg.Governance.Clock
	if c.Mode == config.ClockModeTicker {
		clock = service.NewTickerClock(c.Start, c.Interval)
	} else {
		clock = service.NewManualClock(c.Start)
	}

	events := service.NewMemorySink(eventBufferSize)
	gov := service.NewGovernor(store, gc,
		service.WithClock(clock),
		service.WithHooks(hooks),
		service.WithEventSink(service.MultiSink{service.NewLogSink(log), events}),
		service.WithMetrics(metrics),
		service.WithLogger(log),
	)

	log.Info("governor configured",
		"native_token", gc.Reserve.NativeToken,
		"reserve", gc.Reserve.DefaultAmount.String(),
		"max_active_proposals", gc.Proposals.MaxActive,
		"policy_hooks", len(hooks.Addresses()))
	return gov, clock, events, nil
}

func adminAuth(cfg *config.ServerConfig, log logger.Logger) *service.AdminAuth {
	auth := service.NewAdminAuth(cfg.Server.HTTP.AdminKeyHash)
	if auth.Enabled() {
		log.Info("admin API enabled", "key_hash_fp", token.Fingerprint(cfg.Server.HTTP.AdminKeyHash))
	} else {
		log.Warn("admin API disabled: server.http.admin_key_hash is empty")
	}
	return auth
}

func rateLimiter(cfg *config.ServerConfig) *service.RateLimiterRegistry {
	if cfg.Server.HTTP.RateLimit <= 0 {
		return nil
	}
	return service.NewRateLimiterRegistry(cfg.Server.HTTP.RateLimit, cfg.Server.HTTP.RateBurst)
}

// watchConfig reapplies log.level whenever the config file changes. Other
// settings need a restart.
func watchConfig(path string, log *slog.Logger) *confloader.Watcher {
	if path == "" {
		return nil
	}
	watcher, err := confloader.NewWatcher(path, confloader.WithWatcherLogger(log))
	if err != nil {
		log.Warn("config watcher unavailable", "path", path, "error", err)
		return nil
	}

	watcher.OnChange(func(changed string) {
		cfg, err := loadConfig(changed)
		if err != nil {
			log.Warn("config reload rejected", "path", changed, "error", err)
			return
		}
		if !strings.EqualFold(cfg.Log.Level, logger.GetLevel()) {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	watcher.Start()
	return watcher
}
