package sqlite

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

func sqliteCode(err error) (int, bool) {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code(), true
	}
	return 0, false
}

func isUniqueViolation(err error) bool {
	code, ok := sqliteCode(err)
	return ok && (code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
}

func isBusy(err error) bool {
	code, ok := sqliteCode(err)
	if !ok {
		return false
	}
	switch code & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// mapWriteError traduce errores del motor a errores de dominio. La violación del índice de
// referencias del ledger se reporta como conflicto para que el reintento reproduzca la operación.
func mapWriteError(err error, onUnique error) error {
	if err == nil {
		return nil
	}
	if isBusy(err) {
		return domain.ErrConcurrentModification
	}
	if isUniqueViolation(err) {
		if strings.Contains(err.Error(), "stock_movements.reference_id") {
			return domain.ErrConcurrentModification
		}
		if onUnique != nil {
			return onUnique
		}
	}
	return err
}
