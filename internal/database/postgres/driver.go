// Package postgres adapts pgx v5 (through its database/sql shim) to the
// database gateway.
package postgres

import (
	"database/sql"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/koustreak/cowclash/internal/database"
	"github.com/koustreak/cowclash/internal/errs"
)

const DefaultPort = 5432

// Driver returns the PostgreSQL adapter for database.New.
func Driver() database.Driver {
	return database.Driver{
		Name:     database.ProtocolPostgres,
		Dialect:  database.DialectPostgres,
		Open:     Open,
		MapError: mapError,
	}
}

// Open parses the connection URL for cfg and builds the *sql.DB.
// No connection is made until first use.
func Open(cfg *database.Config) (*sql.DB, error) {
	connCfg, err := pgx.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid postgres configuration", err)
	}
	return stdlib.OpenDB(*connCfg), nil
}

// ConnString returns the postgres:// URL for cfg, credentials included.
// It must not be logged; use cfg.URL() for that.
func ConnString(cfg *database.Config) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   cfg.Addr(),
		Path:   "/" + cfg.Database,
	}

	q := url.Values{}
	for k, v := range cfg.Params {
		q.Set(k, v)
	}
	if cfg.ConnectTimeout > 0 && q.Get("connect_timeout") == "" {
		secs := int(cfg.ConnectTimeout.Seconds())
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
