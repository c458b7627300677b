// Package obslog wraps log/slog with blockcore-specific context, in
// the same shape the corpus uses for structured logging (no
// third-party logging library appears anywhere in the pack, so this
// follows its own convention rather than introducing one).
package obslog

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with blockcore-specific helpers.
type Logger struct {
	*slog.Logger
}

// New creates a Logger with the given handler. A nil handler defaults
// to a text handler on stderr at info level.
func New(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSON creates a Logger that emits JSON-formatted records.
func NewJSON(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewText creates a Logger that emits human-readable text records.
func NewText(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// Noop creates a Logger that discards all output.
func Noop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(1000)}))}
}

// WithArena tags subsequent records with an arena index.
func (l *Logger) WithArena(index int) *Logger {
	return &Logger{Logger: l.Logger.With("arena", index)}
}

// WithBlock tags subsequent records with a block's base address.
func (l *Logger) WithBlock(address uintptr) *Logger {
	return &Logger{Logger: l.Logger.With("block", address)}
}

// LogReserve logs a page reservation.
func (l *Logger) LogReserve(ctx context.Context, address uintptr, pages, index int) {
	l.DebugContext(ctx, "reserve completed",
		"block", address,
		"pages", pages,
		"index", index,
	)
}

// LogRelease logs a page release.
func (l *Logger) LogRelease(ctx context.Context, address uintptr, index, pages int) {
	l.DebugContext(ctx, "release completed",
		"block", address,
		"index", index,
		"pages", pages,
	)
}

// LogActivate logs a block being placed into service.
func (l *Logger) LogActivate(ctx context.Context, address uintptr, epoch uint64) {
	l.InfoContext(ctx, "block activated",
		"block", address,
		"epoch", epoch,
	)
}

// LogRetire logs a block returning to the unused pool.
func (l *Logger) LogRetire(ctx context.Context, address uintptr, generation uint32) {
	l.InfoContext(ctx, "block retired",
		"block", address,
		"generation", generation,
	)
}

// LogArenaGrow logs an arena mapping a new block from the OS.
func (l *Logger) LogArenaGrow(ctx context.Context, index int, address uintptr, err error) {
	if err != nil {
		l.ErrorContext(ctx, "arena grow failed", "arena", index, "error", err)
		return
	}
	l.InfoContext(ctx, "arena grew", "arena", index, "block", address)
}
