// Package mysql adapts go-sql-driver/mysql to the database gateway.
package mysql

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/koustreak/cowclash/internal/database"
)

const (
	driverName  = "mysql"
	DefaultPort = 3306
)

// Driver returns the MySQL adapter for database.New.
func Driver() database.Driver {
	return database.Driver{
		Name:      database.ProtocolMySQL,
		Dialect:   database.DialectMySQL,
		Open:      Open,
		MapError:  mapError,
		IsBadConn: isBadConn,
	}
}

// Open builds the *sql.DB for cfg. No connection is made until first use.
func Open(cfg *database.Config) (*sql.DB, error) {
	connector, err := mysql.NewConnector(buildConfig(cfg))
	if err != nil {
		return nil, mapError(err, "invalid mysql configuration")
	}
	return sql.OpenDB(connector), nil
}

// DSN returns the driver connection string for cfg.
// It contains the password and must not be logged.
func DSN(cfg *database.Config) string {
	return buildConfig(cfg).FormatDSN()
}

// buildConfig maps cfg onto the driver's config.
// format: user:pass@tcp(host:port)/dbname?parseTime=true
func buildConfig(cfg *database.Config) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Addr()
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.Timeout = cfg.ConnectTimeout
	if len(cfg.Params) > 0 {
		mc.Params = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			mc.Params[k] = v
		}
	}
	return mc
}

func isBadConn(err error) bool {
	return errors.Is(err, mysql.ErrInvalidConn)
}
