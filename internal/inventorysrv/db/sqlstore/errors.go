package sqlstore

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/tansive/tansive-inventory/internal/common/apperrors"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/dberror"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// mapError converts a driver error into a dberror value.
func mapError(err error, msg string) apperrors.Error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(apperrors.Error); ok {
		return appErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return dberror.ErrNotFound.MsgErr(msg, err)
	}
	if errors.Is(err, sql.ErrTxDone) {
		return dberror.ErrTxDone.Err(err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return dberror.ErrAlreadyExists.MsgErr(msg, err)
		case "23503", "23502": // foreign_key_violation, not_null_violation
			return dberror.ErrInvalidInput.MsgErr(msg, err)
		}
		return dberror.ErrDatabase.MsgErr(msg, err)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return dberror.ErrAlreadyExists.MsgErr(msg, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return dberror.ErrInvalidInput.MsgErr(msg, err)
		}
	}
	return dberror.ErrDatabase.MsgErr(msg, err)
}
