// Package apperr defines the failure kinds the reconciliation engine can
// surface. Callers distinguish them with errors.Is; the HTTP layer maps each
// kind to a status code.
package apperr

import "errors"

var (
	// ErrInvalidRequest means the caller supplied an unusable observation,
	// e.g. neither email nor phone.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrStorageUnavailable covers connectivity failures and timeouts talking
	// to the contact store.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrConstraintViolation means the store rejected a write (uniqueness,
	// check constraint).
	ErrConstraintViolation = errors.New("storage constraint violation")
	// ErrInvariantViolation means the engine found corrupted link state, e.g.
	// a secondary whose linked_id does not resolve to a live primary. Not
	// recoverable within the request.
	ErrInvariantViolation = errors.New("identity link invariant violation")
)
