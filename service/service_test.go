package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/account"
	"github.com/ficoreafrica/ledger/action"
	"github.com/ficoreafrica/ledger/audit"
	"github.com/ficoreafrica/ledger/billing"
	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/events"
	"github.com/ficoreafrica/ledger/service"
	"github.com/ficoreafrica/ledger/store/memory"
	"github.com/ficoreafrica/ledger/types"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.ToolUsage
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if u, ok := v.(*events.ToolUsage); ok {
		p.events = append(p.events, u)
	}
	return nil
}

func (p *recordingPublisher) actions() []action.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]action.Kind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	svc       *service.Service
	store     *memory.Store
	ledger    *ledger.Ledger
	publisher *recordingPublisher
	accounts  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	l := ledger.New(st)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = l.Stop() })

	gw, err := billing.NewGateway(l)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	pub := &recordingPublisher{}
	svc := service.New(st, gw,
		service.WithPublisher(pub),
		service.WithClock(func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }),
	)
	return &fixture{svc: svc, store: st, ledger: l, publisher: pub}
}

func (f *fixture) actor(t *testing.T, balance int64, role account.Role) billing.Actor {
	t.Helper()
	f.accounts++
	a := &account.Account{
		Email:       fmt.Sprintf("amina%d@example.com", f.accounts),
		DisplayName: "Amina",
		Balance:     balance,
		Role:        role,
	}
	if err := f.ledger.OpenAccount(context.Background(), a); err != nil {
		t.Fatalf("open account: %v", err)
	}
	return billing.Actor{AccountID: a.ID, Role: a.Role}
}

func (f *fixture) balance(t *testing.T, actor billing.Actor) int64 {
	t.Helper()
	b, err := f.ledger.Balance(context.Background(), actor.AccountID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return b
}

func (f *fixture) activity(t *testing.T, actor billing.Actor, kind action.Kind) []*audit.Entry {
	t.Helper()
	got, err := f.store.ListAudit(context.Background(), actor.AccountID.String(), audit.ListOpts{Action: kind, Type: audit.TypeActivity})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	return got
}

func (f *fixture) budgetCount(t *testing.T, actor billing.Actor) int64 {
	t.Helper()
	n, err := f.store.CountBudgets(context.Background(), actor.AccountID)
	if err != nil {
		t.Fatalf("count budgets: %v", err)
	}
	return n
}

func ptr[T any](v T) *T { return &v }

func validInput() budget.Input {
	return budget.Input{
		Income:        ptr(500000.0),
		Housing:       ptr(150000.0),
		Food:          ptr(80000.0),
		Transport:     ptr(30000.0),
		Dependents:    ptr(2),
		Miscellaneous: ptr(20000.0),
		Others:        ptr(10000.0),
		SavingsGoal:   ptr(50000.0),
		CustomCategories: []budget.CategoryInput{
			{Name: "Data <b>bundle</b>", Amount: ptr(5000.0)},
		},
	}
}

func (f *fixture) create(t *testing.T, actor billing.Actor) *budget.Budget {
	t.Helper()
	b, err := f.svc.Create(context.Background(), actor, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return b
}

// ──────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────

func TestCreateChargesAndRecords(t *testing.T) {
	f := newFixture(t)
	actor := f.actor(t, 10, account.RoleUser)

	b := f.create(t, actor)

	if got := f.balance(t, actor); got != 9 {
		t.Errorf("balance = %d, want 9", got)
	}
	if _, err := f.store.GetBudget(context.Background(), actor.AccountID, b.ID); err != nil {
		t.Fatalf("get budget: %v", err)
	}
	if b.CustomCategories[0].Name != "Data bundle" {
		t.Errorf("category name = %q, want markup stripped", b.CustomCategories[0].Name)
	}

	logs := f.activity(t, actor, action.CreateBudget)
	if len(logs) != 1 {
		t.Fatalf("expected 1 create audit, got %d", len(logs))
	}
	if logs[0].Details.BudgetID != b.ID.String() || logs[0].Details.Email != "amina1@example.com" {
		t.Errorf("unexpected audit details: %+v", logs[0].Details)
	}

	if got := f.publisher.actions(); len(got) != 1 || got[0] != action.CreateBudget {
		t.Errorf("tool usage = %v, want [create_budget]", got)
	}
}

func TestCreateInvalidInput(t *testing.T) {
	f := newFixture(t)
	actor := f.actor(t, 10, account.RoleUser)

	in := validInput()
	in.Income = nil

	_, err := f.svc.Create(context.Background(), actor, in)
	var fields budget.FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if _, ok := fields["income"]; !ok {
		t.Errorf("expected income error, got %v", fields)
	}
	if got := f.balance(t, actor); got != 10 {
		t.Errorf("balance = %d, want 10", got)
	}
	if n := f.budgetCount(t, actor); n != 0 {
		t.Errorf("budgets = %d, want 0", n)
	}
}

func TestCreateInsufficientCreditsRemovesBudget(t *testing.T) {
	f := newFixture(t)
	actor := f.actor(t, 0, account.RoleUser)

	_, err := f.svc.Create(context.Background(), actor, validInput())
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if n := f.budgetCount(t, actor); n != 0 {
		t.Errorf("budgets = %d, want 0 after failed charge", n)
	}
	if logs := f.activity(t, actor, action.CreateBudget); len(logs) != 0 {
		t.Errorf("expected no create audit, got %d", len(logs))
	}
	if got := f.publisher.actions(); len(got) != 0 {
		t.Errorf("expected no tool usage, got %v", got)
	}
}

func TestCreateAdminBypass(t *testing.T) {
	f := newFixture(t)
	actor := f.actor(t, 0, account.RoleAdmin)

	f.create(t, actor)

	if got := f.balance(t, actor); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
	if n := f.budgetCount(t, actor); n != 1 {
		t.Errorf("budgets = %d, want 1", n)
	}
}

// ──────────────────────────────────────────────────
// Listing
// ──────────────────────────────────────────────────

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 10},
		{-3, 5, 1, 5},
		{2, 100, 2, 50},
		{4, -1, 4, 1},
		{1, 50, 1, 50},
		{math.MaxInt, 10, service.MaxPage, 10},
	}
	for _, tt := range tests {
		page, limit := service.NormalizePage(tt.page, tt.limit)
		if page != tt.wantPage || limit != tt.wantLimit {
			t.Errorf("NormalizePage(%d, %d) = (%d, %d), want (%d, %d)",
				tt.page, tt.limit, page, limit, tt.wantPage, tt.wantLimit)
		}
	}
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	actor := f.actor(t, 10, account.RoleUser)
	for range 3 {
		f.create(t, actor)
	}

	d, err := f.svc.Dashboard(context.Background(), actor, 1, 2)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(d.Budgets) != 2 {
		t.Errorf("budgets on page = %d, want 2", len(d.Budgets))
	}
	want := service.Pagination{Page: 1, Limit: 2, Total: 3, Pages: 2}
	if d.Pagination != want {
		t.Errorf("pagination = %+v, want %+v", d.Pagination, want)
	}
	if d.LatestBudget == nil || d.LatestBudget.ID != d.Budgets[0].ID {
		t.Fatal("expected the first budget on the page as latest")
	}
	if len(d.Categories) == 0 || len(d.Tips) == 0 {
		t.Error("expected categories and tips")
	}

	logs := f.activity(t, actor, action.ViewBudgetDashboard)
	if len(logs) != 1 || logs[0].Details.LatestBudgetID != d.LatestBudget.ID.String() {
		t.Errorf("unexpected dashboard audit: %+v", logs)
	}
	if got := f.balance(t, actor); got != 7 {
		t.Errorf("balance = %d, want 7 since viewing is free", got)
	}
}

func TestDashboardEmpty(t *testing.T) {
	f := newFixture(t)
	actor := f.actor(t, 10, account.RoleUser)

	d, err := f.svc.Dashboard(context.Background(), actor, 0, 0)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.LatestBudget != nil {
		t.Error("expected no latest budget")
	}
	if d.Budgets == nil || d.Categories == nil || d.Insights == nil {
		t.Error("expected empty, non-nil slices")
	}
	if d.Pagination.Pages != 0 || d.Pagination.Limit != service.DefaultLimit {
		t.Errorf("unexpected pagination: %+v", d.Pagination)
	}
	if logs := f.activity(t, actor, action.ViewBudgetDashboard); len(logs) != 0 {
		t.Errorf("expected no dashboard audit without a budget, got %d", len(logs))
	}
}

func TestListingPastLastPage(t *testing.T) {
	f := newFixture(t)
	actor := f.actor(t, 10, account.RoleUser)
	f.create(t, actor)
	ctx := context.Background()

	d, err := f.svc.Dashboard(ctx, actor, math.MaxInt, 10)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(d.Budgets) != 0 || d.LatestBudget != nil {
		t.Errorf("expected an empty page, got %d budgets", len(d.Budgets))
	}
	if d.Pagination.Page != service.MaxPage || d.Pagination.Total != 1 {
		t.Errorf("pagination = %+v", d.Pagination)
	}

	m, err := f.svc.Manage(ctx, actor, math.MaxInt, service.MaxLimit)
	if err != nil {
		t.Fatalf("manage: %v", err)
	}
	if len(m.Budgets) != 0 {
		t.Errorf("expected an empty page, got %d budgets", len(m.Budgets))
	}
}

func TestManage(t *testing.T) {
	f := newFixture(t)
	actor := f.actor(t, 10, account.RoleUser)
	b := f.create(t, actor)

	m, err := f.svc.Manage(context.Background(), actor, 1, 10)
	if err != nil {
		t.Fatalf("manage: %v", err)
	}
	if len(m.Budgets) != 1 {
		t.Fatalf("budgets = %d, want 1", len(m.Budgets))
	}
	if got, want := m.Budgets[0].SurplusDeficitFormatted, types.FormatAmount(b.SurplusDeficit); got != want {
		t.Errorf("formatted = %q, want %q", got, want)
	}

	logs := f.activity(t, actor, action.ViewBudgetManage)
	if len(logs) != 1 || logs[0].Details.BudgetCount == nil || *logs[0].Details.BudgetCount != 1 {
		t.Errorf("unexpected manage audit: %+v", logs)
	}
}

// ──────────────────────────────────────────────────
// Delete
// ──────────────────────────────────────────────────

func TestDelete(t *testing.T) {
	f := newFixture(t)
	actor := f.actor(t, 10, account.RoleUser)
	b := f.create(t, actor)

	if err := f.svc.Delete(context.Background(), actor, b.ID.String()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := f.budgetCount(t, actor); n != 0 {
		t.Errorf("budgets = %d, want 0", n)
	}
	if got := f.balance(t, actor); got != 8 {
		t.Errorf("balance = %d, want 8", got)
	}
	if logs := f.activity(t, actor, action.DeleteBudget); len(logs) != 1 {
		t.Errorf("expected 1 delete audit, got %d", len(logs))
	}
}

func TestDeleteErrors(t *testing.T) {
	f := newFixture(t)
	actor := f.actor(t, 10, account.RoleUser)
	other := f.actor(t, 10, account.RoleUser)

	if err := f.svc.Delete(context.Background(), actor, "not-an-id"); !errors.Is(err, ledger.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	b := f.create(t, actor)
	if err := f.svc.Delete(context.Background(), other, b.ID.String()); !errors.Is(err, ledger.ErrBudgetNotFound) {
		t.Errorf("expected ErrBudgetNotFound for another owner, got %v", err)
	}
	if got := f.balance(t, other); got != 10 {
		t.Errorf("other balance = %d, want 10", got)
	}
}

func TestDeleteInsufficientCreditsRestoresBudget(t *testing.T) {
	f := newFixture(t)
	actor := f.actor(t, 1, account.RoleUser)
	b := f.create(t, actor)

	err := f.svc.Delete(context.Background(), actor, b.ID.String())
	var insufficient *ledger.InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientBalanceError, got %v", err)
	}
	if insufficient.Required != 1 || insufficient.Balance != 0 {
		t.Errorf("unexpected error detail: %+v", insufficient)
	}
	if _, err := f.store.GetBudget(context.Background(), actor.AccountID, b.ID); err != nil {
		t.Errorf("expected budget restored, got %v", err)
	}
}

// ──────────────────────────────────────────────────
// Export
// ──────────────────────────────────────────────────

func TestExportSingle(t *testing.T) {
	f := newFixture(t)
	actor := f.actor(t, 10, account.RoleUser)
	b := f.create(t, actor)

	exp, err := f.svc.Export(context.Background(), actor, "single", b.ID.String())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exp.Filename != "budget_single_20260314.pdf" {
		t.Errorf("filename = %q", exp.Filename)
	}
	if !bytes.HasPrefix(exp.Data, []byte("%PDF")) {
		t.Error("expected PDF data")
	}
	if exp.Charge == nil || exp.Charge.Cost != 1 {
		t.Errorf("unexpected charge: %+v", exp.Charge)
	}
	if got := f.balance(t, actor); got != 8 {
		t.Errorf("balance = %d, want 8", got)
	}

	logs := f.activity(t, actor, action.ExportBudgetPDFSingle)
	if len(logs) != 1 || logs[0].Details.BudgetID != b.ID.String() {
		t.Errorf("unexpected export audit: %+v", logs)
	}
}

func TestExportHistory(t *testing.T) {
	f := newFixture(t)
	actor := f.actor(t, 10, account.RoleUser)
	f.create(t, actor)
	f.create(t, actor)

	exp, err := f.svc.Export(context.Background(), actor, "history", "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exp.Filename != "budget_history_20260314.pdf" {
		t.Errorf("filename = %q", exp.Filename)
	}
	if got := f.balance(t, actor); got != 6 {
		t.Errorf("balance = %d, want 6", got)
	}
}

func TestExportErrors(t *testing.T) {
	f := newFixture(t)
	actor := f.actor(t, 10, account.RoleUser)

	tests := []struct {
		name       string
		exportType string
		budgetID   string
		want       error
	}{
		{"unknown type", "weekly", "", ledger.ErrInvalidInput},
		{"single without id", "single", "", ledger.ErrInvalidInput},
		{"single not found", "single", "bgt_01h455vb4pex5vsknk084sn02q", ledger.ErrBudgetNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Export(context.Background(), actor, tt.exportType, tt.budgetID)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if got := f.balance(t, actor); got != 10 {
		t.Errorf("balance = %d, want 10", got)
	}
}

func TestExportInsufficientCredits(t *testing.T) {
	f := newFixture(t)
	actor := f.actor(t, 2, account.RoleUser)
	f.create(t, actor)

	exp, err := f.svc.Export(context.Background(), actor, "history", "")
	if !ledger.IsPaymentRequired(err) {
		t.Fatalf("expected a payment-required error, got %v", err)
	}
	if exp != nil {
		t.Error("expected no export on failed charge")
	}
	if got := f.balance(t, actor); got != 1 {
		t.Errorf("balance = %d, want 1", got)
	}
}

// ──────────────────────────────────────────────────
// Credits
// ──────────────────────────────────────────────────

func TestCredits(t *testing.T) {
	f := newFixture(t)
	actor := f.actor(t, 10, account.RoleUser)
	f.create(t, actor)
	f.create(t, actor)

	c, err := f.svc.Credits(context.Background(), actor, 0)
	if err != nil {
		t.Fatalf("credits: %v", err)
	}
	if c.Balance != 8 {
		t.Errorf("balance = %d, want 8", c.Balance)
	}
	if len(c.Entries) != 2 {
		t.Errorf("entries = %d, want 2", len(c.Entries))
	}
	if c.Costs[action.ExportBudgetPDFHistory] != 2 {
		t.Errorf("history cost = %d, want 2", c.Costs[action.ExportBudgetPDFHistory])
	}
}
