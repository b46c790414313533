// Package config loads the cowclash service configuration from YAML.
//
// ${VAR} references are expanded from the environment before parsing, so
// secrets can stay out of the file:
//
//	database:
//	  protocol: mysql
//	  host: db.internal
//	  username: cowclash
//	  password: ${COWCLASH_DB_PASSWORD}
//	  database: cowclash
//	kits:
//	  file: kits.yaml
package config

import (
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/cowclash/internal/database"
	"github.com/koustreak/cowclash/internal/errs"
	"github.com/koustreak/cowclash/internal/filestore"
	"github.com/koustreak/cowclash/internal/logger"
)

// Config is the root of the service configuration.
type Config struct {
	Database database.Config `yaml:"database"`
	Logging  logger.Config   `yaml:"logging"`
	Admin    AdminConfig     `yaml:"admin"`
	Kits     KitsConfig      `yaml:"kits"`
}

// AdminConfig controls the HTTP admin surface.
type AdminConfig struct {
	Addr            string        `yaml:"addr"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// KitsConfig says where kit definitions come from. File and Store may both
// be set; file kits are saved first.
type KitsConfig struct {
	File      string       `yaml:"file"`
	Store     *StoreConfig `yaml:"store"`
	CacheSize int          `yaml:"cache_size"`
}

// StoreConfig is an object store holding kit YAML files under Prefix.
type StoreConfig struct {
	filestore.Config `yaml:",inline"`
	Prefix           string `yaml:"prefix"`
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, "config file not found", err)
		}
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "read config file", err)
	}
	return Parse(data)
}

// Parse is Load for config bytes already in memory.
func Parse(data []byte) (*Config, error) {
	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "parse config yaml", err)
	}
	return &cfg, nil
}

// LoadWithDefaults loads config and applies default values.
func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
