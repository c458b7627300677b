// Package config loads blockcore's runtime knobs from the environment,
// following the envconfig-based pattern used for service configuration
// elsewhere in the corpus.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const envVarPrefix = "BLOCKCORE"

// Config holds the knobs an arena and its metadata-slot provider need
// at startup. None of it is read by block itself, which takes every
// parameter as an explicit argument; this exists for the cmd/blockctl
// demo and for integration tests that want a real mmap-backed arena.
type Config struct {
	// ArenaCount is validated and reported by the status subcommand;
	// the other demo subcommands each create a single arena regardless.
	ArenaCount int `envconfig:"ARENA_COUNT" default:"1"`

	// MetadataSlotChunk is the number of Descriptor/Extent slots carved
	// out of each underlying allocation the slot pool requests from the
	// OS, amortizing the mmap syscall the way fixalloc amortizes it for
	// the teacher's own metadata allocations.
	MetadataSlotChunk int `envconfig:"METADATA_SLOT_CHUNK" default:"128"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// LogJSON selects JSON-formatted log records over text.
	LogJSON bool `envconfig:"LOG_JSON" default:"false"`
}

// Load reads Config from environment variables prefixed BLOCKCORE_.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects configurations that would make an arena unusable.
func (c *Config) Validate() error {
	if c.ArenaCount <= 0 {
		return fmt.Errorf("%s_ARENA_COUNT must be positive, got %d", envVarPrefix, c.ArenaCount)
	}
	if c.MetadataSlotChunk <= 0 {
		return fmt.Errorf("%s_METADATA_SLOT_CHUNK must be positive, got %d", envVarPrefix, c.MetadataSlotChunk)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%s_LOG_LEVEL must be one of debug,info,warn,error, got %q", envVarPrefix, c.LogLevel)
	}
	return nil
}
