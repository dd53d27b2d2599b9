package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/v4lfind/v4lfind/cmd"
	"github.com/v4lfind/v4lfind/internal/api"
	"github.com/v4lfind/v4lfind/internal/config"
	"github.com/v4lfind/v4lfind/internal/discovery"
	"github.com/v4lfind/v4lfind/internal/events"
	"github.com/v4lfind/v4lfind/internal/logging"
	"github.com/v4lfind/v4lfind/internal/metrics/exporters"
	"github.com/v4lfind/v4lfind/internal/updater"
)

// Options for the CLI. The config file and V4LFIND_* environment
// variables overlay these through applyFile.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090"`

	// Discovery settings
	DeviceRoot string `help:"Directory scanned for video nodes" default:"/dev"`
	MediaRoot  string `help:"Directory scanned for media nodes" default:"/dev"`

	// Metrics settings
	MetricsEnabled bool `help:"Expose Prometheus metrics" default:"true"`

	// Hotplug settings
	HotplugEnabled bool `help:"Publish device hotplug events" default:"true"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:""`
	AuthPassword string `help:"Basic auth password" default:""`

	// Update settings
	UpdateRepository string `help:"GitHub repository for self-updates (owner/repo)" default:"v4lfind/v4lfind"`
	UpdatePrerelease bool   `help:"Include prerelease versions when updating" default:"false"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text"`
	LoggingLinuxav   string `help:"Device access logging level" default:"info"`
	LoggingDiscovery string `help:"Discovery logging level" default:"info"`
	LoggingAPI       string `help:"API logging level" default:"info"`
	LoggingHTTP      string `help:"HTTP request logging level" default:"info"`
}

// applyFile overlays file and environment settings onto the CLI
// options. Values absent from both sources keep their flag defaults.
func applyFile(opts *Options, f *config.File) {
	if f.Server.Port != "" {
		opts.Port = f.Server.Port
	}
	if f.Discovery.DeviceRoot != "" {
		opts.DeviceRoot = f.Discovery.DeviceRoot
	}
	if f.Discovery.MediaRoot != "" {
		opts.MediaRoot = f.Discovery.MediaRoot
	}
	if f.Metrics.Enabled != nil {
		opts.MetricsEnabled = *f.Metrics.Enabled
	}
	if f.Hotplug.Enabled != nil {
		opts.HotplugEnabled = *f.Hotplug.Enabled
	}
	if f.Auth.Username != "" {
		opts.AuthUsername = f.Auth.Username
	}
	if f.Auth.Password != "" {
		opts.AuthPassword = f.Auth.Password
	}
	if f.Update.Repository != "" {
		opts.UpdateRepository = f.Update.Repository
	}
	if f.Update.Prerelease != nil {
		opts.UpdatePrerelease = *f.Update.Prerelease
	}
	if v, ok := f.Logging["level"]; ok {
		opts.LoggingLevel = v
	}
	if v, ok := f.Logging["format"]; ok {
		opts.LoggingFormat = v
	}
	if v, ok := f.Logging["linuxav"]; ok {
		opts.LoggingLinuxav = v
	}
	if v, ok := f.Logging["discovery"]; ok {
		opts.LoggingDiscovery = v
	}
	if v, ok := f.Logging["api"]; ok {
		opts.LoggingAPI = v
	}
	if v, ok := f.Logging["http"]; ok {
		opts.LoggingHTTP = v
	}
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		fileCfg, loadErr := config.Load(opts.Config)
		if loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
			fileCfg = &config.File{}
		}
		applyFile(opts, fileCfg)

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"linuxav":   opts.LoggingLinuxav,
				"discovery": opts.LoggingDiscovery,
				"api":       opts.LoggingAPI,
				"http":      opts.LoggingHTTP,
			},
		})

		logger := logging.GetLogger("main")

		// Event bus for discovery progress and log streaming.
		eventBus := events.New()

		// Bridge new log entries onto the bus for the SSE logs endpoint.
		var logSeq atomic.Uint64
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Seq:        logSeq.Add(1),
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		discoveryService := discovery.NewService(eventBus,
			discovery.WithVideoRoot(opts.DeviceRoot),
			discovery.WithMediaRoot(opts.MediaRoot),
		)

		var hotplugBridge *discovery.HotplugBridge
		if opts.HotplugEnabled {
			hotplugBridge = discovery.NewHotplugBridge(eventBus)
		}

		updateService, updateErr := updater.New(updater.Options{
			Repository: opts.UpdateRepository,
			Prerelease: opts.UpdatePrerelease,
		})
		if updateErr != nil {
			logger.Warn("Self-update unavailable", "error", updateErr)
		}

		apiOpts := &api.Options{
			AuthUsername: opts.AuthUsername,
			AuthPassword: opts.AuthPassword,
			Discovery:    discoveryService,
			EventBus:     eventBus,
			DeviceRoot:   opts.DeviceRoot,
		}
		if updateErr == nil {
			apiOpts.UpdateService = updateService
		}
		if opts.MetricsEnabled {
			apiOpts.PrometheusHandler = exporters.HTTPHandler()
		}

		server := api.NewServer(apiOpts)

		// Reload logging levels when the config file changes.
		var watcher *config.Watcher
		if _, statErr := os.Stat(opts.Config); statErr == nil {
			watcher = config.NewWatcher(opts.Config, logging.GetLogger("config"))
			watcher.OnReload(func(f *config.File) {
				logger.Info("Reloading logging configuration")
				logging.Initialize(f.LoggingConfig())
			})
		}

		hooks.OnStart(func() {
			if hotplugBridge != nil {
				if startErr := hotplugBridge.Start(); startErr != nil {
					logger.Warn("Hotplug monitoring unavailable", "error", startErr)
					hotplugBridge = nil
				}
			}

			if watcher != nil {
				if startErr := watcher.Start(); startErr != nil {
					logger.Warn("Failed to start config watcher", "error", startErr)
				}
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			if watcher != nil {
				if stopErr := watcher.Stop(); stopErr != nil {
					logger.Warn("Error stopping config watcher", "error", stopErr)
				}
			}
			if hotplugBridge != nil {
				hotplugBridge.Stop()
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateProbeCmd())
	cli.Root().AddCommand(cmd.CreateListCmd())

	cli.Run()
}
