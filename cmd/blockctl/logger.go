package main

import (
	"fmt"
	"log/slog"

	"github.com/hugepage-labs/blockcore/internal/config"
	"github.com/hugepage-labs/blockcore/internal/obslog"
)

func newLogger(cfg *config.Config) (*obslog.Logger, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	if cfg.LogJSON {
		return obslog.NewJSON(level), nil
	}
	return obslog.NewText(level), nil
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
