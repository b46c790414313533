// Package drivers resolves a protocol name to its database adapter.
package drivers

import (
	"context"

	"github.com/koustreak/cowclash/internal/database"
	"github.com/koustreak/cowclash/internal/database/mysql"
	"github.com/koustreak/cowclash/internal/database/postgres"
	"github.com/koustreak/cowclash/internal/errs"
)

var registry = map[database.Protocol]func() database.Driver{
	database.ProtocolMySQL:    mysql.Driver,
	database.ProtocolPostgres: postgres.Driver,
}

// Lookup returns the adapter for protocol. An empty protocol means MySQL.
func Lookup(protocol database.Protocol) (database.Driver, error) {
	if protocol == "" {
		protocol = database.ProtocolMySQL
	}
	fn, ok := registry[protocol]
	if !ok {
		return database.Driver{}, errs.Newf(errs.ErrKindInvalidInput, "unsupported protocol %q", protocol)
	}
	return fn(), nil
}

// DefaultPort returns the well-known port for protocol, or 0.
func DefaultPort(protocol database.Protocol) int {
	switch protocol {
	case database.ProtocolPostgres:
		return postgres.DefaultPort
	case database.ProtocolMySQL, "":
		return mysql.DefaultPort
	default:
		return 0
	}
}

// Connect looks up the adapter for cfg.Protocol and opens a Gateway with it.
func Connect(ctx context.Context, cfg database.Config, opts ...database.Option) (*database.Gateway, error) {
	if cfg.Protocol == "" {
		cfg.Protocol = database.ProtocolMySQL
	}
	drv, err := Lookup(cfg.Protocol)
	if err != nil {
		return nil, err
	}
	return database.New(ctx, cfg, drv, opts...)
}
