package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"

	// Índices únicos que respaldan la idempotencia del ledger (ver migrations/0001_init.sql).
	movementReferenceIndex = "ux_stock_movements_reference"
	transferReferenceIndex = "ux_stock_movements_transfer_reference"
)

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == codeUniqueViolation
}

// isRetryable agrupa los errores que el motor resuelve abortando una de las transacciones en competencia.
func isRetryable(err error) bool {
	pgErr, ok := pgError(err)
	if !ok {
		return false
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}

// mapWriteError traduce errores del motor a errores de dominio. Una violación del índice de referencias
// del ledger indica que otra transacción aplicó la misma operación: se trata como conflicto para que el
// reintento la encuentre y la reproduzca.
func mapWriteError(err error, onUnique error) error {
	if err == nil {
		return nil
	}
	if isRetryable(err) {
		return domain.ErrConcurrentModification
	}
	if isUniqueViolation(err) {
		switch pgErr, _ := pgError(err); pgErr.ConstraintName {
		case movementReferenceIndex, transferReferenceIndex:
			return domain.ErrConcurrentModification
		}
		if onUnique != nil {
			return onUnique
		}
	}
	return err
}
