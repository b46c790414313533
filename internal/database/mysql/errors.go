package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"

	"github.com/koustreak/cowclash/internal/errs"
)

// MySQL error numbers
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errDBAccessDenied   = 1044
	errAccessDenied     = 1045
	errUnknownDatabase  = 1049
	errTooManyConns     = 1040
	errUserConnLimit    = 1203
	errConnRefused      = 2003
	errServerGone       = 2006
	errServerLost       = 2013
	errDuplicateEntry   = 1062
	errRowIsReferenced  = 1451
	errNoReferencedRow  = 1452
	errBadFieldError    = 1054
	errParseError       = 1064
	errNoSuchTable      = 1146
	errLockWaitTimeout  = 1205
	errDeadlock         = 1213
	errQueryInterrupted = 1317
)

// mapError translates go-sql-driver/mysql errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return errs.Wrap(
			classifyMySQLCode(mysqlErr.Number),
			fmt.Sprintf("%s: %s", msg, mysqlErr.Message),
			err,
		)
	}

	var netErr net.Error
	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

// classifyMySQLCode maps MySQL error numbers to ErrKind.
func classifyMySQLCode(code uint16) errs.ErrKind {
	switch code {
	case errDBAccessDenied, errAccessDenied:
		return errs.ErrKindPermissionDenied
	case errUnknownDatabase, errTooManyConns, errUserConnLimit,
		errConnRefused, errServerGone, errServerLost:
		return errs.ErrKindConnectionFailed
	case errDuplicateEntry, errRowIsReferenced, errNoReferencedRow:
		return errs.ErrKindConflict
	case errLockWaitTimeout, errQueryInterrupted:
		return errs.ErrKindTimeout
	case errBadFieldError, errParseError, errNoSuchTable, errDeadlock:
		return errs.ErrKindQueryFailed
	default:
		return errs.ErrKindQueryFailed
	}
}
