package budget

import (
	"context"

	"github.com/ficoreafrica/ledger/id"
)

// Store persists budgets. Every lookup is scoped to the owning account.
type Store interface {
	CreateBudget(ctx context.Context, b *Budget) error
	GetBudget(ctx context.Context, ownerID id.AccountID, budgetID id.BudgetID) (*Budget, error)
	// ListBudgets returns the owner's budgets newest first.
	ListBudgets(ctx context.Context, ownerID id.AccountID, opts ListOpts) ([]*Budget, error)
	CountBudgets(ctx context.Context, ownerID id.AccountID) (int64, error)
	DeleteBudget(ctx context.Context, ownerID id.AccountID, budgetID id.BudgetID) error
}
