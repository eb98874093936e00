// Package logging builds slog loggers backed by a rotating log file and
// stderr, with per-subsystem level overrides.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// LogBackend multiplexes log output to stderr and an optional rotating
// file, and hands out per-subsystem loggers.
type LogBackend struct {
	mu       sync.Mutex
	backend  *slog.Backend
	rotator  *rotator.Rotator
	loggers  map[string]slog.Logger
	defLevel slog.Level
	levels   map[string]slog.Level
}

// Config controls where logs go and how verbose they are.
type Config struct {
	// LogFile is the path of the rotated log file. Empty disables file
	// logging.
	LogFile string

	// DebugLevel is either a single level name ("info", "debug") or a
	// comma-separated list of subsys=level pairs ("SRVR=debug,GAME=trace").
	DebugLevel string

	// MaxLogFiles and MaxBufferLines bound rotation. Zero values pick
	// defaults.
	MaxLogFiles    int
	MaxBufferLines int
}

type teeWriter struct {
	rot *rotator.Rotator
}

func (w teeWriter) Write(p []byte) (int, error) {
	os.Stderr.Write(p)
	if w.rot != nil {
		return w.rot.Write(p)
	}
	return len(p), nil
}

// NewLogBackend creates the backend, opening the rotated log file if one
// was configured.
func NewLogBackend(cfg Config) (*LogBackend, error) {
	b := &LogBackend{
		loggers:  make(map[string]slog.Logger),
		defLevel: slog.LevelInfo,
		levels:   make(map[string]slog.Level),
	}

	if cfg.LogFile != "" {
		logDir := filepath.Dir(cfg.LogFile)
		if err := os.MkdirAll(logDir, 0o700); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		maxFiles := cfg.MaxLogFiles
		if maxFiles == 0 {
			maxFiles = 5
		}
		r, err := rotator.New(cfg.LogFile, 1024, false, maxFiles)
		if err != nil {
			return nil, fmt.Errorf("create log rotator: %w", err)
		}
		b.rotator = r
	}

	b.backend = slog.NewBackend(teeWriter{rot: b.rotator})

	if err := b.parseDebugLevel(cfg.DebugLevel); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *LogBackend) parseDebugLevel(spec string) error {
	if spec == "" {
		return nil
	}
	if !strings.Contains(spec, "=") {
		lvl, ok := slog.LevelFromString(spec)
		if !ok {
			return fmt.Errorf("unknown log level %q", spec)
		}
		b.defLevel = lvl
		return nil
	}
	for _, pair := range strings.Split(spec, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("malformed debug level %q", pair)
		}
		lvl, ok := slog.LevelFromString(kv[1])
		if !ok {
			return fmt.Errorf("unknown log level %q", kv[1])
		}
		b.levels[strings.TrimSpace(kv[0])] = lvl
	}
	return nil
}

// Logger returns the logger for a subsystem tag, creating it on first use.
func (b *LogBackend) Logger(subsys string) slog.Logger {
	b.mu.Lock()
	defer b.mu.Unlock()

	if l, ok := b.loggers[subsys]; ok {
		return l
	}
	l := b.backend.Logger(subsys)
	if lvl, ok := b.levels[subsys]; ok {
		l.SetLevel(lvl)
	} else {
		l.SetLevel(b.defLevel)
	}
	b.loggers[subsys] = l
	return l
}

// Close flushes and closes the rotated log file.
func (b *LogBackend) Close() error {
	if b.rotator != nil {
		return b.rotator.Close()
	}
	return nil
}

var _ io.Writer = teeWriter{}
