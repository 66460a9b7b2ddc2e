package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EnvLogLevel overrides the default level when no level is passed explicitly.
const EnvLogLevel = "COMMIT_CRAFTER_LOG_LEVEL"

// Config captures options for configuring the global logger.
type Config struct {
	Level  string    // optional log level ("debug", "info", etc.)
	Output io.Writer // optional writer (defaults to os.Stderr)
	RunID  string    // optional run ID; generated when empty
	JSON   bool      // emit raw JSON instead of console formatting
}

var (
	mu    sync.RWMutex
	base  = zerolog.Nop()
	runID string
)

// Configure (re)initialises the global logger. It returns the run ID in use.
func Configure(cfg Config) string {
	level := zerolog.WarnLevel
	raw := cfg.Level
	if raw == "" {
		raw = os.Getenv(EnvLogLevel)
	}
	if raw != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw))); err == nil {
			level = parsed
		}
	}
	zerolog.TimeFieldFormat = time.RFC3339

	writer := cfg.Output
	if writer == nil {
		writer = os.Stderr
	}
	if !cfg.JSON {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.Kitchen}
	}

	id := cfg.RunID
	if id == "" {
		id = uuid.NewString()
	}

	mu.Lock()
	defer mu.Unlock()
	runID = id
	base = zerolog.New(writer).Level(level).With().
		Timestamp().
		Str("run_id", id).
		Logger()
	return id
}

// Base returns the configured base logger instance.
func Base() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// RunID returns the run ID attached to every entry.
func RunID() string {
	mu.RLock()
	defer mu.RUnlock()
	return runID
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	l := Base()
	return l.With().Str("component", component).Logger()
}
