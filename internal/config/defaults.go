package config

import (
	"time"

	"github.com/koustreak/cowclash/internal/database"
	"github.com/koustreak/cowclash/internal/database/drivers"
	"github.com/koustreak/cowclash/internal/filestore"
)

// Default values for optional configuration fields.
const (
	DefaultMinPoolSize     = 2
	DefaultMaxPoolSize     = 10
	DefaultConnectTimeout  = 10 * time.Second
	DefaultConnMaxLifetime = 30 * time.Minute
	DefaultConnMaxIdleTime = 10 * time.Minute
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultLogTimeFormat   = "rfc3339"
	DefaultAdminAddr       = ":8080"
	DefaultRequestTimeout  = 15 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultKitCacheSize    = 128
)

// ApplyDefaults fills every unset optional field.
func (c *Config) ApplyDefaults() {
	applyDBDefaults(&c.Database)

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.TimeFormat == "" {
		c.Logging.TimeFormat = DefaultLogTimeFormat
	}

	if c.Admin.Addr == "" {
		c.Admin.Addr = DefaultAdminAddr
	}
	if c.Admin.RequestTimeout == 0 {
		c.Admin.RequestTimeout = DefaultRequestTimeout
	}
	if c.Admin.ShutdownTimeout == 0 {
		c.Admin.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Kits.CacheSize == 0 {
		c.Kits.CacheSize = DefaultKitCacheSize
	}
	if c.Kits.Store != nil && c.Kits.Store.Provider == "" {
		c.Kits.Store.Provider = filestore.ProviderMinIO
	}
}

func applyDBDefaults(db *database.Config) {
	if db.Protocol == "" {
		db.Protocol = database.ProtocolMySQL
	}
	if db.Port == 0 {
		db.Port = drivers.DefaultPort(db.Protocol)
	}
	if db.MaxPoolSize == 0 {
		db.MaxPoolSize = DefaultMaxPoolSize
	}
	// An unset minimum never exceeds an explicit maximum.
	if db.MinPoolSize == 0 {
		db.MinPoolSize = min(DefaultMinPoolSize, db.MaxPoolSize)
	}
	if db.ConnectTimeout == 0 {
		db.ConnectTimeout = DefaultConnectTimeout
	}
	if db.ConnMaxLifetime == 0 {
		db.ConnMaxLifetime = DefaultConnMaxLifetime
	}
	if db.ConnMaxIdleTime == 0 {
		db.ConnMaxIdleTime = DefaultConnMaxIdleTime
	}
}
