// Package plugin provides an extensible plugin system for the credit ledger.
// Plugins can hook into lifecycle and debit events to extend functionality.
package plugin

import (
	"context"

	"github.com/ficoreafrica/ledger/action"
	"github.com/ficoreafrica/ledger/id"
	"github.com/ficoreafrica/ledger/transaction"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the ledger is stopping.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Debit hooks
// ──────────────────────────────────────────────────

// Debit describes the outcome of a debit attempt that reached the store.
type Debit struct {
	Entry           *transaction.Entry
	PreviousBalance int64
	NewBalance      int64
}

// OnDebitCompleted is called after a debit commits.
type OnDebitCompleted interface {
	Plugin
	OnDebitCompleted(ctx context.Context, d *Debit) error
}

// OnDebitRejected is called when a debit fails a precondition and no
// write was attempted.
type OnDebitRejected interface {
	Plugin
	OnDebitRejected(ctx context.Context, accountID id.AccountID, kind action.Kind, amount int64, reason error) error
}

// OnDebitFailed is called when a debit transaction was aborted.
type OnDebitFailed interface {
	Plugin
	OnDebitFailed(ctx context.Context, entry *transaction.Entry, reason error) error
}

// OnChargeBypassed is called when a privileged caller performs a
// billable action without being charged.
type OnChargeBypassed interface {
	Plugin
	OnChargeBypassed(ctx context.Context, accountID id.AccountID, kind action.Kind, referenceID string) error
}
