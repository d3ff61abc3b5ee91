package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("ledger: not found")
	ErrAlreadyExists = errors.New("ledger: already exists")
	ErrInvalidInput  = errors.New("ledger: invalid input")

	// Entity errors
	ErrAccountNotFound = errors.New("ledger: account not found")
	ErrBudgetNotFound  = errors.New("ledger: budget not found")

	// Debit errors
	ErrInvalidUser         = errors.New("ledger: invalid user")
	ErrInvalidAmount       = errors.New("ledger: amount must be positive")
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrTransactionConflict = errors.New("ledger: transaction conflict")
	ErrLedgerUnavailable   = errors.New("ledger: ledger unavailable")

	// Billing errors
	ErrUnknownAction = errors.New("ledger: action has no cost")

	// Store errors
	ErrNoRowsAffected = errors.New("ledger: no rows affected")
	ErrStoreClosed    = errors.New("ledger: store is closed")
	ErrCommitFailed   = errors.New("ledger: commit failed")
	// ErrTransactionAborted marks a transaction the store rolled back
	// because it lost to a concurrent one (write conflict, lock timeout,
	// serialization failure).
	ErrTransactionAborted = errors.New("ledger: transaction aborted by store")
)

// InsufficientBalanceError reports the balance seen and the amount the
// debit required. It matches ErrInsufficientBalance with errors.Is.
type InsufficientBalanceError struct {
	Balance  int64
	Required int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("ledger: insufficient balance: have %d, need %d", e.Balance, e.Required)
}

// Is implements errors.Is.
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// UnknownActionError reports an action kind with no cost. It matches both
// ErrUnknownAction and ErrInvalidInput with errors.Is.
type UnknownActionError struct {
	Kind string
}

func (e UnknownActionError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnknownAction, e.Kind)
}

// Is implements errors.Is.
func (e UnknownActionError) Is(target error) bool {
	return target == ErrUnknownAction || target == ErrInvalidInput
}

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("ledger: validation failed for %s: %s", e.Field, e.Message)
}

// Is implements errors.Is so validation failures match ErrInvalidInput.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrBudgetNotFound)
}

// IsChargeFailure returns true if the error came out of a debit.
func IsChargeFailure(err error) bool {
	return errors.Is(err, ErrInvalidUser) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrTransactionConflict) ||
		errors.Is(err, ErrLedgerUnavailable)
}

// IsPaymentRequired returns true if the debit failed for a reason the user
// can act on: not enough credits, or a concurrent spend won the race.
func IsPaymentRequired(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrTransactionConflict)
}

// unavailable wraps a lower-level failure as ErrLedgerUnavailable while
// keeping the cause in the message.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrLedgerUnavailable, op, err)
}
