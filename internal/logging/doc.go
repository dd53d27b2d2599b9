// Package logging provides structured logging with per-module log level configuration.
//
// The logging system uses Go's slog package with automatic output routing:
//   - systemd journal when available (Linux systems with journald)
//   - stdout when a terminal, pipe, or file is connected
//   - an in-memory history backing the logs API
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"linuxav": "debug",  // Per-module overrides
//			"api":     "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("discovery")
//	logger.Info("Scan finished", "candidates", n)
//
// Module-specific levels override the global level for that module only,
// and can be changed at runtime by calling Initialize again (the config
// watcher does this on file change).
//
// When running under systemd:
//
//	journalctl -t v4lfind               # All v4lfind logs
//	journalctl -t v4lfind -f            # Follow live
//	journalctl -t v4lfind MODULE=linuxav
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//	linuxav = "debug"
//	api = "warn"
package logging
