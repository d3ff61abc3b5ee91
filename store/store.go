package store

import (
	"context"

	"github.com/ficoreafrica/ledger/account"
	"github.com/ficoreafrica/ledger/audit"
	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/id"
	"github.com/ficoreafrica/ledger/transaction"
)

// Store is the unified storage interface for accounts, ledger entries,
// audit entries and budgets. It satisfies account.Store, transaction.Store,
// audit.Store and budget.Store.
type Store interface {
	// Account methods
	CreateAccount(ctx context.Context, a *account.Account) error
	GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*account.Account, error)

	// Ledger entry methods
	InsertTransaction(ctx context.Context, e *transaction.Entry) error
	ListTransactions(ctx context.Context, accountID id.AccountID, opts transaction.ListOpts) ([]*transaction.Entry, error)

	// Audit methods
	InsertAudit(ctx context.Context, e *audit.Entry) error
	ListAudit(ctx context.Context, actor string, opts audit.ListOpts) ([]*audit.Entry, error)

	// Budget methods
	CreateBudget(ctx context.Context, b *budget.Budget) error
	GetBudget(ctx context.Context, ownerID id.AccountID, budgetID id.BudgetID) (*budget.Budget, error)
	ListBudgets(ctx context.Context, ownerID id.AccountID, opts budget.ListOpts) ([]*budget.Budget, error)
	CountBudgets(ctx context.Context, ownerID id.AccountID) (int64, error)
	DeleteBudget(ctx context.Context, ownerID id.AccountID, budgetID id.BudgetID) error

	// Transact runs fn inside one store transaction. Writes made through
	// the Tx commit together when fn returns nil and are discarded
	// otherwise.
	Transact(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Tx is the set of writes a debit performs atomically.
type Tx interface {
	// DecrementBalance subtracts amount from the account balance only if
	// the balance covers it, and returns the new balance. When no row
	// matches it returns ledger.ErrNoRowsAffected.
	DecrementBalance(ctx context.Context, accountID id.AccountID, amount int64) (int64, error)
	InsertTransaction(ctx context.Context, e *transaction.Entry) error
	InsertAudit(ctx context.Context, e *audit.Entry) error
}

// compile-time checks that Store covers each entity store
var (
	_ account.Store     = Store(nil)
	_ transaction.Store = Store(nil)
	_ audit.Store       = Store(nil)
	_ budget.Store      = Store(nil)
)
