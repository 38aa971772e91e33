package storage

import (
	"log/slog"

	"github.com/yndnr/govmesh-go/internal/storage/kv"
	"github.com/yndnr/govmesh-go/internal/storage/memory"
)

// Open creates the store selected by cfg.Engine.
func Open(cfg Config, logger *slog.Logger) (kv.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Engine {
	case EngineBadger:
		return NewBadgerStore(cfg, logger)
	default:
		logger.Info("memory store started", "shards", cfg.MemoryShards)
		return memory.New(memory.WithShards(cfg.MemoryShards)), nil
	}
}
