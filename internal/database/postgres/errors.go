package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/koustreak/cowclash/internal/errs"
)

// PostgreSQL SQLSTATE codes
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgErrQueryCanceled       = "57014"
	pgErrAdminShutdown       = "57P01"
	pgErrInvalidPassword     = "28P01"
	pgErrInsufficientPrivs   = "42501"
	pgErrLockNotAvailable    = "55P03"
	pgClassConnection        = "08"
	pgClassIntegrity         = "23"
	pgClassSyntaxOrAccess    = "42"
	pgClassInvalidAuthorizer = "28"
)

// mapError translates pgx / pgconn native errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errs.Wrap(
			classifySQLState(pgErr.Code),
			fmt.Sprintf("%s: %s", msg, pgErr.Message),
			err,
		)
	}

	if pgconn.Timeout(err) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var netErr net.Error
	var connectErr *pgconn.ConnectError
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.As(err, &connectErr) || errors.As(err, &netErr) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

// classifySQLState maps a SQLSTATE code to ErrKind, first by exact code and
// then by its two-character class.
func classifySQLState(code string) errs.ErrKind {
	switch code {
	case pgErrQueryCanceled, pgErrLockNotAvailable:
		return errs.ErrKindTimeout
	case pgErrAdminShutdown:
		return errs.ErrKindConnectionFailed
	case pgErrInvalidPassword, pgErrInsufficientPrivs:
		return errs.ErrKindPermissionDenied
	}
	if len(code) < 2 {
		return errs.ErrKindQueryFailed
	}
	switch code[:2] {
	case pgClassConnection:
		return errs.ErrKindConnectionFailed
	case pgClassIntegrity:
		return errs.ErrKindConflict
	case pgClassInvalidAuthorizer:
		return errs.ErrKindPermissionDenied
	case pgClassSyntaxOrAccess:
		return errs.ErrKindQueryFailed
	default:
		return errs.ErrKindQueryFailed
	}
}
