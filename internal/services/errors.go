package services

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// Error taxonomy surfaced to the HTTP layer. All of these are recoverable
// outcomes for the caller; none should crash the process.
var (
	// ErrConflict means the task was not OPEN when a lock was attempted,
	// typically because a concurrent locker won the race.
	ErrConflict = errors.New("task is not open")

	// ErrForbidden covers role violations (trainee on a paid task, admin as
	// performer) and submitting against a task assigned to someone else.
	ErrForbidden = errors.New("operation not permitted for this user")

	// ErrInsufficientFunds means the wallet balance does not cover the
	// deposit required to lock a paid task.
	ErrInsufficientFunds = errors.New("insufficient funds for deposit")

	// ErrInvalidStatus means a moderation target other than APPROVED or
	// REJECTED was requested.
	ErrInvalidStatus = errors.New("invalid target status")

	// ErrNotFound means the referenced task, user, or submission is absent.
	ErrNotFound = errors.New("not found")
)

// notFound maps a pgx no-rows result to ErrNotFound and passes every other
// error through unchanged.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
