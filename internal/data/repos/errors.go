package repos

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Pseudo-CS/bitespeed-assign/internal/platform/apperr"
)

// classifyStorageErr maps driver-level failures onto the engine's error
// kinds. Uniqueness and check failures are constraint violations; everything
// else (connection loss, timeouts, cancelled contexts) counts as the store
// being unavailable.
func classifyStorageErr(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 23 — integrity constraint violation.
		if len(pgErr.Code) == 5 && pgErr.Code[:2] == "23" {
			return fmt.Errorf("%w: %s", apperr.ErrConstraintViolation, pgErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", apperr.ErrStorageUnavailable, err)
}
