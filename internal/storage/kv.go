package storage

import (
	"fmt"
	"time"
)

// Engine names.
const (
	EngineMemory = "memory"
	EngineBadger = "badger"
)

// Config configures the storage engine.
type Config struct {
	// Engine is "memory" or "badger".
	// Default: "memory"
	Engine string

	// Dir is the Badger data directory.
	Dir string

	// MemoryShards is the shard count of the memory engine.
	MemoryShards int

	Badger BadgerConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic value-log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the discard ratio that makes a value-log file
	// eligible for rewrite (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 256MB
	ValueLogFileSize int64

	// NumMemtables is the number of memtables.
	// Default: 2
	NumMemtables int

	// SyncWrites fsyncs every commit. Governance state has no other
	// durability layer, so this defaults to true.
	SyncWrites bool

	// InMemory runs Badger without touching disk (tests).
	InMemory bool
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig() Config {
	return Config{
		Engine:       EngineMemory,
		Dir:          "data/badger",
		MemoryShards: 16,
		Badger:       DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        64 << 20,  // 64MB
		ValueLogFileSize: 256 << 20, // 256MB
		NumMemtables:     2,
		SyncWrites:       true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Engine {
	case EngineMemory:
		return nil
	case EngineBadger:
		if c.Dir == "" && !c.Badger.InMemory {
			return fmt.Errorf("storage: dir is required for the badger engine")
		}
		if c.Badger.GCThreshold <= 0 || c.Badger.GCThreshold >= 1 {
			return fmt.Errorf("storage: gc threshold must be in (0, 1), got %v", c.Badger.GCThreshold)
		}
		return nil
	default:
		return fmt.Errorf("storage: unknown engine %q", c.Engine)
	}
}
