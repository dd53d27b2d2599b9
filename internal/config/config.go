// Package config loads the v4lfind configuration file and watches it
// for changes on disk.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/v4lfind/v4lfind/internal/logging"
)

// File mirrors the on-disk TOML layout. Fields absent from the file
// stay zero so callers can tell "unset" apart from an explicit value;
// booleans use pointers for the same reason.
type File struct {
	Server struct {
		Port string `toml:"port"`
	} `toml:"server"`

	Discovery struct {
		DeviceRoot string `toml:"device_root"`
		MediaRoot  string `toml:"media_root"`
	} `toml:"discovery"`

	Metrics struct {
		Enabled *bool `toml:"enabled"`
	} `toml:"metrics"`

	Hotplug struct {
		Enabled *bool `toml:"enabled"`
	} `toml:"hotplug"`

	Auth struct {
		Username string `toml:"username"`
		Password string `toml:"password"`
	} `toml:"auth"`

	Update struct {
		Repository string `toml:"repository"`
		Prerelease *bool  `toml:"prerelease"`
	} `toml:"update"`

	// Logging holds "level", "format", and per-module level keys.
	Logging map[string]string `toml:"logging"`
}

// Load reads the TOML file at path and applies V4LFIND_* environment
// overrides on top. A missing file is not an error; the environment
// overrides still apply to the empty configuration.
func Load(path string) (*File, error) {
	var f File
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &f); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	f.applyEnv()
	return &f, nil
}

// LoggingConfig converts the [logging] table into the logging
// package's configuration. The "level" and "format" keys are global;
// every other key names a module and sets its level.
func (f *File) LoggingConfig() logging.Config {
	cfg := logging.Config{
		Level:   "info",
		Format:  "text",
		Modules: make(map[string]string),
	}
	for key, value := range f.Logging {
		switch key {
		case "level":
			cfg.Level = value
		case "format":
			cfg.Format = value
		default:
			cfg.Modules[key] = value
		}
	}
	return cfg
}

// The logging modules that accept a V4LFIND_LOGGING_<NAME> override.
var loggingEnvKeys = []string{"LEVEL", "FORMAT", "LINUXAV", "DISCOVERY", "API", "HTTP"}

func (f *File) applyEnv() {
	envString("SERVER_PORT", &f.Server.Port)
	envString("DISCOVERY_DEVICE_ROOT", &f.Discovery.DeviceRoot)
	envString("DISCOVERY_MEDIA_ROOT", &f.Discovery.MediaRoot)
	envBool("METRICS_ENABLED", &f.Metrics.Enabled)
	envBool("HOTPLUG_ENABLED", &f.Hotplug.Enabled)
	envString("AUTH_USERNAME", &f.Auth.Username)
	envString("AUTH_PASSWORD", &f.Auth.Password)
	envString("UPDATE_REPOSITORY", &f.Update.Repository)
	envBool("UPDATE_PRERELEASE", &f.Update.Prerelease)

	for _, key := range loggingEnvKeys {
		v := os.Getenv("V4LFIND_LOGGING_" + key)
		if v == "" {
			continue
		}
		if f.Logging == nil {
			f.Logging = make(map[string]string)
		}
		f.Logging[strings.ToLower(key)] = v
	}
}

func envString(key string, dst *string) {
	if v := os.Getenv("V4LFIND_" + key); v != "" {
		*dst = v
	}
}

func envBool(key string, dst **bool) {
	v := os.Getenv("V4LFIND_" + key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return
	}
	*dst = &b
}
