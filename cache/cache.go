// Package cache keeps recently listed budget pages so dashboard and
// manage views do not hit the store on every request.
package cache

import (
	"context"

	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/id"
)

// BudgetCache stores one page of an owner's budget list.
type BudgetCache interface {
	// Budgets returns the cached page and whether it was found.
	Budgets(ctx context.Context, ownerID id.AccountID, page, limit int) ([]*budget.Budget, bool)
	SetBudgets(ctx context.Context, ownerID id.AccountID, page, limit int, budgets []*budget.Budget) error
	// Invalidate drops every cached page for the owner.
	Invalidate(ctx context.Context, ownerID id.AccountID) error
}

// Nop is a BudgetCache that never stores anything.
type Nop struct{}

var _ BudgetCache = Nop{}

func (Nop) Budgets(context.Context, id.AccountID, int, int) ([]*budget.Budget, bool) {
	return nil, false
}

func (Nop) SetBudgets(context.Context, id.AccountID, int, int, []*budget.Budget) error { return nil }

func (Nop) Invalidate(context.Context, id.AccountID) error { return nil }
