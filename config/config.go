// Package config loads the YAML configuration of the store CLI and server.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// StoreConfig sizes new stores. Workers is recorded on each store but does
// not affect execution.
type StoreConfig struct {
	Branching uint16 `yaml:"branching"`
	Workers   uint8  `yaml:"workers"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

const (
	DefaultBranching = 4
	DefaultWorkers   = 1
	DefaultAddr      = ":3000"
	DefaultLogLevel  = "INFO"
)

var levels = []string{"DEBUG", "INFO", "WARN", "ERROR", "NOOP"}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Branching: DefaultBranching,
			Workers:   DefaultWorkers,
		},
		Server: ServerConfig{Addr: DefaultAddr},
		Log:    LogConfig{Level: DefaultLogLevel},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Store.Branching < 3 {
		return errors.Errorf("store.branching must be at least 3, got %d", c.Store.Branching)
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr must not be empty")
	}

	for _, l := range levels {
		if strings.EqualFold(l, c.Log.Level) {
			return nil
		}
	}
	return errors.Errorf("log.level %q is not one of %s", c.Log.Level, strings.Join(levels, ", "))
}
