// Package ledger provides a prepaid credit ledger for metering billable
// actions in the budgeting service.
//
// Each account carries a non-negative balance of whole credit units. A
// billable action (creating a budget, deleting one, exporting a PDF) is
// paid for with a debit. A debit is three writes committed in one store
// transaction:
//
//   - the balance decrement, conditional on the balance covering it
//   - a completed ledger entry with the negated amount
//   - an audit entry recording the previous and new balance
//
// # Quick Start
//
//	import (
//	    "github.com/ficoreafrica/ledger"
//	    "github.com/ficoreafrica/ledger/store/sqlite"
//	)
//
//	st, err := sqlite.Open("ficore.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	l := ledger.New(st, ledger.WithLogger(logger))
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
//	receipt, err := l.Debit(ctx, accountID, 1, action.CreateBudget, budgetID.String())
//	switch {
//	case errors.Is(err, ledger.ErrInsufficientBalance):
//	    // ask the user to top up
//	case err != nil:
//	    // ErrInvalidUser, ErrInvalidAmount, ErrTransactionConflict or ErrLedgerUnavailable
//	}
//
// # Failure model
//
// Preconditions (known account, positive amount, sufficient balance) are
// checked before any write. When the conditional decrement finds no
// matching row, because a concurrent debit spent the credits first, the
// transaction is aborted, a failed entry is recorded outside it and
// ErrTransactionConflict is returned. The ledger never retries and never
// caches a balance; concurrent debits are serialized by the store.
//
// Pricing and the admin bypass live in the billing package, which wraps
// domain operations so they only complete when the debit succeeds.
//
// # Stores
//
// Four backends implement store.Store: memory (tests and local runs),
// sqlite, postgres and mongo.
package ledger
