package config

import (
	"fmt"

	"github.com/koustreak/cowclash/internal/errs"
	"github.com/koustreak/cowclash/internal/logger"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "database", err)
	}

	if !logger.ValidLevel(c.Logging.Level) {
		return errs.Newf(errs.ErrKindInvalidInput, "logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "logging.format must be json or console, got %q", c.Logging.Format)
	}

	if c.Admin.Addr == "" {
		return errs.New(errs.ErrKindInvalidInput, "admin.addr is required")
	}
	if c.Admin.RequestTimeout < 0 || c.Admin.ShutdownTimeout < 0 {
		return errs.New(errs.ErrKindInvalidInput, "admin timeouts must not be negative")
	}

	if c.Kits.CacheSize < 1 {
		return errs.Newf(errs.ErrKindInvalidInput, "kits.cache_size must be >= 1, got %d", c.Kits.CacheSize)
	}
	if s := c.Kits.Store; s != nil {
		if err := s.Validate(); err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, "kits.store", err)
		}
		if s.DefaultBucket == "" {
			return errs.New(errs.ErrKindInvalidInput, "kits.store.bucket is required")
		}
	}

	return nil
}

// String renders the config for startup logs with secrets masked.
func (c *Config) String() string {
	store := "none"
	if c.Kits.Store != nil {
		store = fmt.Sprintf("%s/%s/%s", c.Kits.Store.Endpoint, c.Kits.Store.DefaultBucket, c.Kits.Store.Prefix)
	}
	return fmt.Sprintf("database=%s admin=%s kits.file=%q kits.store=%s",
		c.Database.URL(), c.Admin.Addr, c.Kits.File, store)
}
