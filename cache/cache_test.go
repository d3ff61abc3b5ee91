package cache_test

import (
	"context"
	"testing"

	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/cache"
	"github.com/ficoreafrica/ledger/id"
)

func TestNopNeverHits(t *testing.T) {
	var c cache.BudgetCache = cache.Nop{}
	ctx := context.Background()
	owner := id.NewAccountID()

	if err := c.SetBudgets(ctx, owner, 1, 10, []*budget.Budget{{ID: id.NewBudgetID()}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok := c.Budgets(ctx, owner, 1, 10); ok {
		t.Error("nop cache should never hit")
	}
	if err := c.Invalidate(ctx, owner); err != nil {
		t.Errorf("invalidate: %v", err)
	}
}

func TestDialFailsWithoutServer(t *testing.T) {
	if _, err := cache.Dial(context.Background(), "127.0.0.1:1", "", 0); err == nil {
		t.Fatal("expected dial error for closed port")
	}
}
