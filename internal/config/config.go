// Package config loads the optional TOML configuration file shared by
// cmd/nedsa and cmd/nedsad. No environment variable ever governs behavior;
// everything here is file- or flag-driven only.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the full set of optional settings. Default returns the values
// used when no config file is supplied; the zero value differs from it
// (LogEstimate false, daemon fields empty).
type Config struct {
	// LogEstimate controls whether the compiler logs its worst-case
	// decide-table estimate after compiling. Defaults to true.
	LogEstimate bool `toml:"log_estimate"`

	Daemon DaemonConfig `toml:"daemon"`
}

// DaemonConfig configures cmd/nedsad.
type DaemonConfig struct {
	// ListenAddr is the address cmd/nedsad binds to, e.g. ":8080".
	ListenAddr string `toml:"listen_addr"`

	// AuditDBPath is the SQLite file used for the run/decide audit log.
	AuditDBPath string `toml:"audit_db_path"`

	// JWTSecret signs and validates bearer tokens for the daemon's API.
	// If empty, the daemon generates a random one at startup and logs a
	// warning; the generated secret itself is not logged.
	JWTSecret string `toml:"jwt_secret"`
}

// Default returns the configuration used when no config file is supplied.
func Default() Config {
	return Config{
		LogEstimate: true,
		Daemon: DaemonConfig{
			ListenAddr:  ":8080",
			AuditDBPath: "nedsa-audit.db",
		},
	}
}

// Load reads and parses a TOML config file at path, starting from
// Default() so a file only needs to mention the fields it overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
