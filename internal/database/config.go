package database

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/koustreak/cowclash/internal/errs"
)

// Protocol identifies the database engine and the scheme of the connection URL.
type Protocol string

const (
	ProtocolMySQL    Protocol = "mysql"
	ProtocolPostgres Protocol = "postgres"
)

// Config holds all settings needed to connect to and pool a database.
// A Gateway copies its Config on construction; later edits have no effect.
type Config struct {
	// Protocol is the database engine (e.g. ProtocolMySQL).
	Protocol Protocol `yaml:"protocol"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`

	// Pool sizing
	MinPoolSize int `yaml:"min_pool_size"` // connections kept idle
	MaxPoolSize int `yaml:"max_pool_size"` // upper bound on open connections

	// Pool tuning, zero means driver default
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`

	// Params are extra driver parameters appended to the DSN.
	Params map[string]string `yaml:"params"`
}

// DefaultConfig returns MySQL pool settings for the given server and credentials.
func DefaultConfig(host, database, username, password string) *Config {
	return &Config{
		Protocol:        ProtocolMySQL,
		Host:            host,
		Port:            3306,
		Username:        username,
		Password:        password,
		Database:        database,
		MinPoolSize:     2,
		MaxPoolSize:     10,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}

// Validate reports the first problem that would stop the pool from opening.
func (c *Config) Validate() error {
	switch c.Protocol {
	case ProtocolMySQL, ProtocolPostgres:
	case "":
		return errs.New(errs.ErrKindInvalidInput, "protocol is required")
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unsupported protocol %q", c.Protocol)
	}
	if c.Host == "" {
		return errs.New(errs.ErrKindInvalidInput, "host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errs.Newf(errs.ErrKindInvalidInput, "port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Username == "" {
		return errs.New(errs.ErrKindInvalidInput, "username is required")
	}
	if c.Database == "" {
		return errs.New(errs.ErrKindInvalidInput, "database is required")
	}
	if c.MinPoolSize < 0 {
		return errs.Newf(errs.ErrKindInvalidInput, "min pool size must be >= 0, got %d", c.MinPoolSize)
	}
	if c.MaxPoolSize < 1 {
		return errs.Newf(errs.ErrKindInvalidInput, "max pool size must be >= 1, got %d", c.MaxPoolSize)
	}
	if c.MinPoolSize > c.MaxPoolSize {
		return errs.Newf(errs.ErrKindInvalidInput,
			"min pool size (%d) exceeds max pool size (%d)", c.MinPoolSize, c.MaxPoolSize)
	}
	return nil
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL returns <protocol>://<host>:<port>/<database>.
// Credentials are never part of it, so it is safe to log.
func (c *Config) URL() string {
	return fmt.Sprintf("%s://%s/%s", c.Protocol, c.Addr(), c.Database)
}
