package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/ficoreafrica/ledger/account"
	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/id"
	"github.com/ficoreafrica/ledger/report"
)

var now = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func sampleBudget(income float64) *budget.Budget {
	f := func(v float64) *float64 { return &v }
	deps := 1
	return budget.New(id.NewAccountID(), budget.Input{
		Income:        f(income),
		Housing:       f(500),
		Food:          f(200),
		Transport:     f(50),
		Dependents:    &deps,
		Miscellaneous: f(25),
		Others:        f(0),
		SavingsGoal:   f(100),
		CustomCategories: []budget.CategoryInput{
			{Name: "Gym", Amount: f(30)},
		},
	}, "")
}

func TestSingle(t *testing.T) {
	owner := &account.Account{Email: "pdf@example.com", DisplayName: "Ada"}
	data, err := report.Single(owner, sampleBudget(2000), now)
	if err != nil {
		t.Fatalf("single: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("expected PDF header, got %q", data[:min(8, len(data))])
	}
}

func TestHistorySpansPages(t *testing.T) {
	owner := &account.Account{Email: "pdf@example.com"}
	budgets := make([]*budget.Budget, 0, 100)
	for i := range 100 {
		budgets = append(budgets, sampleBudget(float64(1000+i)))
	}

	data, err := report.History(owner, budgets, now)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatal("expected PDF output")
	}

	one, err := report.History(owner, budgets[:1], now)
	if err != nil {
		t.Fatalf("history of one: %v", err)
	}
	if len(data) <= len(one) {
		t.Errorf("expected 100 rows to render more than one row: %d <= %d", len(data), len(one))
	}
}

func TestHistoryEmpty(t *testing.T) {
	data, err := report.History(&account.Account{}, nil, now)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected a document")
	}
}

func TestFilename(t *testing.T) {
	if got := report.Filename("single", now); got != "budget_single_20261014.pdf" {
		t.Errorf("unexpected filename %q", got)
	}
}
