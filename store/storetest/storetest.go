// Package storetest holds the behavioural suite every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/account"
	"github.com/ficoreafrica/ledger/action"
	"github.com/ficoreafrica/ledger/audit"
	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/id"
	"github.com/ficoreafrica/ledger/store"
	"github.com/ficoreafrica/ledger/transaction"
	"github.com/ficoreafrica/ledger/types"
)

// Factory returns a fresh, migrated store for one subtest.
type Factory func(t *testing.T) store.Store

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"Accounts", testAccounts},
		{"Transactions", testTransactions},
		{"Audit", testAudit},
		{"Budgets", testBudgets},
		{"TransactCommit", testTransactCommit},
		{"TransactConditionalDecrement", testTransactConditionalDecrement},
		{"TransactRollback", testTransactRollback},
		{"LedgerDebit", testLedgerDebit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newAccount(t *testing.T, s store.Store, email string, balance int64) *account.Account {
	t.Helper()
	a := &account.Account{
		Entity:  types.Entity{CreatedAt: base, UpdatedAt: base},
		ID:      id.NewAccountID(),
		Email:   email,
		Role:    account.RoleUser,
		Balance: balance,
	}
	if err := s.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func newEntry(accountID id.AccountID, kind action.Kind, amount int64, status transaction.Status, at time.Time) *transaction.Entry {
	return &transaction.Entry{
		ID:        id.NewTransactionID(),
		AccountID: accountID,
		Action:    kind,
		Amount:    amount,
		Status:    status,
		SessionID: "sess-1",
		CreatedAt: at,
	}
}

func mustBalance(t *testing.T, s store.Store, accountID id.AccountID) int64 {
	t.Helper()
	a, err := s.GetAccount(context.Background(), accountID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return a.Balance
}

func testAccounts(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := newAccount(t, s, "Ada@Example.com", 7)

	got, err := s.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.ID != a.ID || got.Balance != 7 || got.Role != account.RoleUser {
		t.Errorf("unexpected account: %+v", got)
	}

	byEmail, err := s.GetAccountByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != a.ID {
		t.Errorf("expected %s, got %s", a.ID, byEmail.ID)
	}

	if err := s.CreateAccount(ctx, a); !errors.Is(err, ledger.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists for duplicate id, got %v", err)
	}

	if _, err := s.GetAccount(ctx, id.NewAccountID()); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := s.GetAccountByEmail(ctx, "nobody@example.com"); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound by email, got %v", err)
	}
}

func testTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := newAccount(t, s, "tx@example.com", 10)
	other := newAccount(t, s, "other@example.com", 10)

	first := newEntry(a.ID, action.CreateBudget, -1, transaction.StatusCompleted, base)
	second := newEntry(a.ID, action.DeleteBudget, -1, transaction.StatusFailed, base.Add(time.Second))
	third := newEntry(a.ID, action.ExportBudgetPDFHistory, -2, transaction.StatusCompleted, base.Add(2*time.Second))
	foreign := newEntry(other.ID, action.CreateBudget, -1, transaction.StatusCompleted, base)

	for _, e := range []*transaction.Entry{first, second, third, foreign} {
		if err := s.InsertTransaction(ctx, e); err != nil {
			t.Fatalf("insert transaction: %v", err)
		}
	}

	if err := s.InsertTransaction(ctx, first); !errors.Is(err, ledger.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists for duplicate entry, got %v", err)
	}

	all, err := s.ListTransactions(ctx, a.ID, transaction.ListOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].ID != third.ID || all[2].ID != first.ID {
		t.Errorf("expected newest first, got %s, %s, %s", all[0].ID, all[1].ID, all[2].ID)
	}
	if all[0].Amount != -2 || all[0].SessionID != "sess-1" || all[0].Action != action.ExportBudgetPDFHistory {
		t.Errorf("entry fields not preserved: %+v", all[0])
	}

	completed, err := s.ListTransactions(ctx, a.ID, transaction.ListOpts{Status: transaction.StatusCompleted})
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(completed) != 2 {
		t.Errorf("expected 2 completed entries, got %d", len(completed))
	}

	page, err := s.ListTransactions(ctx, a.ID, transaction.ListOpts{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 1 || page[0].ID != second.ID {
		t.Errorf("expected second entry on page 2, got %+v", page)
	}
}

func testAudit(t *testing.T, s store.Store) {
	ctx := context.Background()
	prev, next := int64(5), int64(4)

	debit := &audit.Entry{
		ID:     id.NewAuditID(),
		Actor:  audit.ActorSystem,
		Action: action.CreateBudget,
		Type:   audit.TypeDebit,
		Details: audit.Details{
			AccountID:       "acct_x",
			Amount:          1,
			PreviousBalance: &prev,
			NewBalance:      &next,
		},
		CreatedAt: base,
	}
	count := 3
	view := &audit.Entry{
		ID:        id.NewAuditID(),
		Actor:     "acct_x",
		Action:    action.ViewBudgetManage,
		Type:      audit.TypeActivity,
		Details:   audit.Details{BudgetCount: &count},
		CreatedAt: base.Add(time.Second),
	}
	for _, e := range []*audit.Entry{debit, view} {
		if err := s.InsertAudit(ctx, e); err != nil {
			t.Fatalf("insert audit: %v", err)
		}
	}

	system, err := s.ListAudit(ctx, audit.ActorSystem, audit.ListOpts{})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(system) != 1 {
		t.Fatalf("expected 1 system entry, got %d", len(system))
	}
	d := system[0].Details
	if d.PreviousBalance == nil || *d.PreviousBalance != 5 || d.NewBalance == nil || *d.NewBalance != 4 {
		t.Errorf("balances not preserved: %+v", d)
	}

	all, err := s.ListAudit(ctx, "", audit.ListOpts{})
	if err != nil {
		t.Fatalf("list all audit: %v", err)
	}
	if len(all) != 2 || all[0].ID != view.ID {
		t.Errorf("expected 2 entries newest first, got %d", len(all))
	}

	activity, err := s.ListAudit(ctx, "", audit.ListOpts{Type: audit.TypeActivity})
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(activity) != 1 || activity[0].Details.BudgetCount == nil || *activity[0].Details.BudgetCount != 3 {
		t.Errorf("unexpected activity entries: %+v", activity)
	}
}

func newBudget(owner id.AccountID, income string, at time.Time) *budget.Budget {
	b := &budget.Budget{
		Entity:        types.Entity{CreatedAt: at, UpdatedAt: at},
		ID:            id.NewBudgetID(),
		OwnerID:       owner,
		Income:        decimal.RequireFromString(income),
		Housing:       decimal.RequireFromString("1200.50"),
		Food:          decimal.RequireFromString("300"),
		Transport:     decimal.RequireFromString("100"),
		Miscellaneous: decimal.RequireFromString("50"),
		Others:        decimal.Zero,
		SavingsGoal:   decimal.RequireFromString("200"),
		Dependents:    2,
		CustomCategories: []budget.CustomCategory{
			{Name: "Gym", Amount: decimal.RequireFromString("25.75")},
		},
	}
	b.Recalculate()
	return b
}

func testBudgets(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newAccount(t, s, "budget@example.com", 10)
	stranger := newAccount(t, s, "stranger@example.com", 10)

	older := newBudget(owner.ID, "3000", base)
	newer := newBudget(owner.ID, "4000", base.Add(time.Minute))
	for _, b := range []*budget.Budget{older, newer} {
		if err := s.CreateBudget(ctx, b); err != nil {
			t.Fatalf("create budget: %v", err)
		}
	}

	got, err := s.GetBudget(ctx, owner.ID, older.ID)
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	if !got.Income.Equal(older.Income) || !got.Housing.Equal(older.Housing) || !got.SurplusDeficit.Equal(older.SurplusDeficit) {
		t.Errorf("amounts not preserved: income=%s housing=%s surplus=%s", got.Income, got.Housing, got.SurplusDeficit)
	}
	if len(got.CustomCategories) != 1 || got.CustomCategories[0].Name != "Gym" || !got.CustomCategories[0].Amount.Equal(decimal.RequireFromString("25.75")) {
		t.Errorf("custom categories not preserved: %+v", got.CustomCategories)
	}
	if got.Dependents != 2 {
		t.Errorf("expected 2 dependents, got %d", got.Dependents)
	}

	if _, err := s.GetBudget(ctx, stranger.ID, older.ID); !errors.Is(err, ledger.ErrBudgetNotFound) {
		t.Errorf("expected ErrBudgetNotFound for other owner, got %v", err)
	}

	list, err := s.ListBudgets(ctx, owner.ID, budget.ListOpts{})
	if err != nil {
		t.Fatalf("list budgets: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID {
		t.Errorf("expected newest budget first")
	}

	page, err := s.ListBudgets(ctx, owner.ID, budget.ListOpts{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 1 || page[0].ID != older.ID {
		t.Errorf("expected older budget on page 2")
	}

	n, err := s.CountBudgets(ctx, owner.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 budgets, got %d", n)
	}

	if err := s.DeleteBudget(ctx, stranger.ID, older.ID); !errors.Is(err, ledger.ErrBudgetNotFound) {
		t.Errorf("expected stranger delete to fail with ErrBudgetNotFound, got %v", err)
	}
	if err := s.DeleteBudget(ctx, owner.ID, older.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteBudget(ctx, owner.ID, older.ID); !errors.Is(err, ledger.ErrBudgetNotFound) {
		t.Errorf("expected second delete to return ErrBudgetNotFound, got %v", err)
	}
	if n, _ := s.CountBudgets(ctx, owner.ID); n != 1 {
		t.Errorf("expected 1 budget after delete, got %d", n)
	}
}

func testTransactCommit(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := newAccount(t, s, "commit@example.com", 5)
	entry := newEntry(a.ID, action.CreateBudget, -2, transaction.StatusCompleted, base)

	err := s.Transact(ctx, func(ctx context.Context, tx store.Tx) error {
		newBalance, err := tx.DecrementBalance(ctx, a.ID, 2)
		if err != nil {
			return err
		}
		if newBalance != 3 {
			t.Errorf("expected new balance 3, got %d", newBalance)
		}
		if err := tx.InsertTransaction(ctx, entry); err != nil {
			return err
		}
		return tx.InsertAudit(ctx, &audit.Entry{
			ID: id.NewAuditID(), Actor: audit.ActorSystem, Action: action.CreateBudget,
			Type: audit.TypeDebit, CreatedAt: base,
		})
	})
	if err != nil {
		t.Fatalf("transact: %v", err)
	}

	if got := mustBalance(t, s, a.ID); got != 3 {
		t.Errorf("expected committed balance 3, got %d", got)
	}
	list, _ := s.ListTransactions(ctx, a.ID, transaction.ListOpts{})
	if len(list) != 1 {
		t.Errorf("expected committed entry, got %d", len(list))
	}
	logs, _ := s.ListAudit(ctx, audit.ActorSystem, audit.ListOpts{})
	if len(logs) != 1 {
		t.Errorf("expected committed audit entry, got %d", len(logs))
	}
}

func testTransactConditionalDecrement(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := newAccount(t, s, "cond@example.com", 1)

	err := s.Transact(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.DecrementBalance(ctx, a.ID, 2)
		return err
	})
	if !errors.Is(err, ledger.ErrNoRowsAffected) {
		t.Fatalf("expected ErrNoRowsAffected, got %v", err)
	}
	if got := mustBalance(t, s, a.ID); got != 1 {
		t.Errorf("balance changed to %d", got)
	}

	err = s.Transact(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.DecrementBalance(ctx, id.NewAccountID(), 1)
		return err
	})
	if !errors.Is(err, ledger.ErrNoRowsAffected) {
		t.Errorf("expected ErrNoRowsAffected for unknown account, got %v", err)
	}
}

func testTransactRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := newAccount(t, s, "rollback@example.com", 5)
	boom := errors.New("boom")

	err := s.Transact(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.DecrementBalance(ctx, a.ID, 1); err != nil {
			return err
		}
		if err := tx.InsertTransaction(ctx, newEntry(a.ID, action.CreateBudget, -1, transaction.StatusCompleted, base)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	if got := mustBalance(t, s, a.ID); got != 5 {
		t.Errorf("expected balance unchanged at 5, got %d", got)
	}
	list, _ := s.ListTransactions(ctx, a.ID, transaction.ListOpts{})
	if len(list) != 0 {
		t.Errorf("expected no entries after rollback, got %d", len(list))
	}
}

func testLedgerDebit(t *testing.T, s store.Store) {
	ctx := ledger.WithSessionID(context.Background(), "sess-9")
	l := ledger.New(s)

	a := &account.Account{Email: "debit@example.com", Balance: 3}
	if err := l.OpenAccount(ctx, a); err != nil {
		t.Fatalf("open account: %v", err)
	}

	receipt, err := l.Debit(ctx, a.ID, 2, action.ExportBudgetPDFHistory, "ref-1")
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if receipt.PreviousBalance != 3 || receipt.NewBalance != 1 {
		t.Errorf("unexpected receipt: %+v", receipt)
	}

	_, err = l.Debit(ctx, a.ID, 2, action.ExportBudgetPDFHistory, "ref-2")
	var insufficient *ledger.InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientBalanceError, got %v", err)
	}
	if insufficient.Balance != 1 || insufficient.Required != 2 {
		t.Errorf("unexpected insufficient details: %+v", insufficient)
	}

	list, err := l.Statement(ctx, a.ID, transaction.ListOpts{})
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if len(list) != 1 || list[0].SessionID != "sess-9" || list[0].Amount != -2 {
		t.Errorf("unexpected statement: %+v", list)
	}
}
