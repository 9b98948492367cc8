package repos

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"wedmarket/internal/domain"
)

// mapErr turns driver errors into domain error kinds, keeping the cause.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	if isPermissionDenied(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isPermissionDenied(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// insufficient_privilege, raised by row-level security policies
		return pqErr.Code == "42501"
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code() & 0xff {
		case sqlite3.SQLITE_READONLY, sqlite3.SQLITE_AUTH, sqlite3.SQLITE_PERM:
			return true
		}
	}
	return false
}
