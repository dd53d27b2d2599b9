package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

const historyLimit = 500

// Logger is the subset of *slog.Logger the rest of the code depends
// on, useful for tests that want to swap in a recorder.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config selects the global level and output format, plus per-module
// level overrides keyed by module name.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

// LogCallback receives every entry written to the log history.
type LogCallback func(entry LogEntry)

// registry owns the module loggers and their runtime-adjustable
// levels.
type registry struct {
	mu       sync.RWMutex
	cfg      Config
	loggers  map[string]*slog.Logger
	levels   map[string]*slog.LevelVar
	global   *slog.LevelVar
	history  *History
	callback LogCallback
}

var reg = newRegistry()

func newRegistry() *registry {
	return &registry{
		loggers: make(map[string]*slog.Logger),
		levels:  make(map[string]*slog.LevelVar),
		global:  &slog.LevelVar{},
		history: NewHistory(historyLimit),
	}
}

// Initialize applies a logging configuration. Safe to call again after
// a config reload: module loggers keep their identity and pick up the
// new levels through their LevelVars.
func Initialize(cfg Config) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.cfg = cfg
	reg.global.Set(levelOrDefault(cfg.Level, slog.LevelInfo))

	// Rebuild handlers so a format change and the history handler
	// apply to loggers created before Initialize ran.
	for module, lv := range reg.levels {
		lv.Set(reg.moduleLevelLocked(module))
		reg.loggers[module] = slog.New(reg.buildHandlerLocked(lv)).With("module", module)
	}
	slog.SetDefault(slog.New(reg.buildHandlerLocked(reg.global)))
}

// GetLogger returns the logger for a module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	reg.mu.RLock()
	if logger, ok := reg.loggers[module]; ok {
		reg.mu.RUnlock()
		return logger
	}
	reg.mu.RUnlock()

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if logger, ok := reg.loggers[module]; ok {
		return logger
	}

	// The level lives in a LevelVar so later Initialize calls can
	// adjust it without replacing the logger.
	lv := &slog.LevelVar{}
	lv.Set(reg.moduleLevelLocked(module))

	logger := slog.New(reg.buildHandlerLocked(lv)).With("module", module)
	reg.loggers[module] = logger
	reg.levels[module] = lv
	return logger
}

// SetLogCallback registers a callback invoked for each new log entry,
// used to bridge log lines onto the event bus for live streaming. The
// callback must not log through this package.
func SetLogCallback(cb LogCallback) {
	reg.mu.Lock()
	reg.callback = cb
	reg.mu.Unlock()
}

func getLogCallback() LogCallback {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.callback
}

// GetHistory returns the retained log history backing the logs API.
func GetHistory() *History {
	return reg.history
}

// moduleLevelLocked resolves the effective level for a module from the
// current configuration. The zero configuration resolves to info.
func (r *registry) moduleLevelLocked(module string) slog.Level {
	level := levelOrDefault(r.cfg.Level, slog.LevelInfo)
	if name, ok := r.cfg.Modules[module]; ok {
		level = levelOrDefault(name, level)
	}
	return level
}

// buildHandlerLocked assembles the output chain: console, the systemd
// journal when running under it, and the in-memory history.
func (r *registry) buildHandlerLocked(level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var console slog.Handler
	if r.cfg.Format == "json" {
		console = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		console = slog.NewTextHandler(os.Stdout, opts)
	}

	handlers := make([]slog.Handler, 0, 3)
	if stdoutUsable() {
		handlers = append(handlers, console)
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}
	handlers = append(handlers, NewHistoryHandler(r.history, level))

	if len(handlers) == 1 {
		return handlers[0]
	}
	return NewMultiHandler(handlers...)
}

// stdoutUsable reports whether stdout points somewhere worth writing:
// a terminal, pipe, socket, or regular file.
func stdoutUsable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&(os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket) != 0 || mode.IsRegular()
}

func levelOrDefault(name string, def slog.Level) slog.Level {
	if level, ok := parseLevel(name); ok {
		return level
	}
	return def
}

func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}
