package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/account"
	"github.com/ficoreafrica/ledger/action"
	"github.com/ficoreafrica/ledger/billing"
	"github.com/ficoreafrica/ledger/id"
	"github.com/ficoreafrica/ledger/store/memory"
)

type debitCall struct {
	amount int64
	kind   action.Kind
	ref    string
}

type fakeDebiter struct {
	err      error
	debits   []debitCall
	bypassed []action.Kind
}

func (f *fakeDebiter) Debit(_ context.Context, _ id.AccountID, amount int64, kind action.Kind, ref string) (*ledger.Receipt, error) {
	f.debits = append(f.debits, debitCall{amount, kind, ref})
	if f.err != nil {
		return nil, f.err
	}
	return &ledger.Receipt{PreviousBalance: 10, NewBalance: 10 - amount}, nil
}

func (f *fakeDebiter) RecordBypass(_ context.Context, _ id.AccountID, kind action.Kind, _ string) {
	f.bypassed = append(f.bypassed, kind)
}

func newGateway(t *testing.T, d billing.Debiter) *billing.Gateway {
	t.Helper()
	g, err := billing.NewGateway(d)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	return g
}

var user = billing.Actor{AccountID: id.NewAccountID(), Role: account.RoleUser}

func TestDefaultScheduleCosts(t *testing.T) {
	s := billing.DefaultSchedule()
	tests := []struct {
		kind action.Kind
		want int64
	}{
		{action.CreateBudget, 1},
		{action.DeleteBudget, 1},
		{action.ExportBudgetPDFSingle, 1},
		{action.ExportBudgetPDFHistory, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, err := s.Cost(tt.kind)
			if err != nil {
				t.Fatalf("cost: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}

	_, err := s.Cost(action.ViewBudgetDashboard)
	if !errors.Is(err, ledger.ErrUnknownAction) || !errors.Is(err, ledger.ErrInvalidInput) {
		t.Errorf("expected ErrUnknownAction and ErrInvalidInput for activity kind, got %v", err)
	}
}

func TestScheduleValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       billing.Schedule
		wantErr bool
	}{
		{"default", billing.DefaultSchedule(), false},
		{"missing kind", billing.Schedule{action.CreateBudget: 1}, true},
		{"zero cost", billing.DefaultSchedule().Merge(map[string]int64{"delete_budget": 0}), true},
		{"activity priced", billing.DefaultSchedule().Merge(map[string]int64{"view_budget_manage": 1}), true},
		{"raised cost", billing.DefaultSchedule().Merge(map[string]int64{"export_budget_pdf_history": 5}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ledger.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestNewGatewayRejectsBadSchedule(t *testing.T) {
	if _, err := billing.NewGateway(&fakeDebiter{}, billing.WithSchedule(billing.Schedule{})); err == nil {
		t.Fatal("expected error for empty schedule")
	}
}

func TestChargeDebitsScheduleCost(t *testing.T) {
	d := &fakeDebiter{}
	g := newGateway(t, d)

	charge, err := g.Charge(context.Background(), user, action.ExportBudgetPDFHistory, "")
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if charge.Cost != 2 || charge.Bypassed {
		t.Errorf("unexpected charge: %+v", charge)
	}
	if len(d.debits) != 1 || d.debits[0].amount != 2 {
		t.Errorf("expected one debit of 2, got %+v", d.debits)
	}
}

func TestChargeAdminBypass(t *testing.T) {
	d := &fakeDebiter{}
	g := newGateway(t, d)
	admin := billing.Actor{AccountID: id.NewAccountID(), Role: account.RoleAdmin}

	charge, err := g.Charge(context.Background(), admin, action.CreateBudget, "bgt_1")
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if !charge.Bypassed {
		t.Error("expected bypassed charge")
	}
	if len(d.debits) != 0 {
		t.Errorf("admin should not be debited, got %d debits", len(d.debits))
	}
	if len(d.bypassed) != 1 || d.bypassed[0] != action.CreateBudget {
		t.Errorf("expected bypass recorded, got %v", d.bypassed)
	}
}

func TestChargeUnknownAction(t *testing.T) {
	d := &fakeDebiter{}
	g := newGateway(t, d)

	if _, err := g.Charge(context.Background(), user, action.ViewBudgetDashboard, ""); !errors.Is(err, ledger.ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
	if len(d.debits) != 0 {
		t.Error("no debit expected")
	}
}

func TestPerformUndoesOnChargeFailure(t *testing.T) {
	d := &fakeDebiter{err: &ledger.InsufficientBalanceError{Balance: 0, Required: 1}}
	g := newGateway(t, d)

	var ran, undone bool
	_, err := g.Perform(context.Background(), user, action.CreateBudget, "bgt_1", func(context.Context) (func(context.Context) error, error) {
		ran = true
		return func(context.Context) error {
			undone = true
			return nil
		}, nil
	})
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if !ran || !undone {
		t.Errorf("expected op to run and be undone, ran=%v undone=%v", ran, undone)
	}
}

func TestPerformKeepsResultOnSuccess(t *testing.T) {
	d := &fakeDebiter{}
	g := newGateway(t, d)

	undone := false
	charge, err := g.Perform(context.Background(), user, action.DeleteBudget, "bgt_1", func(context.Context) (func(context.Context) error, error) {
		return func(context.Context) error {
			undone = true
			return nil
		}, nil
	})
	if err != nil {
		t.Fatalf("perform: %v", err)
	}
	if undone {
		t.Error("undo must not run after a successful charge")
	}
	if charge.Cost != 1 || d.debits[0].ref != "bgt_1" {
		t.Errorf("unexpected charge %+v debits %+v", charge, d.debits)
	}
}

func TestPerformOperationErrorSkipsCharge(t *testing.T) {
	d := &fakeDebiter{}
	g := newGateway(t, d)
	boom := errors.New("boom")

	_, err := g.Perform(context.Background(), user, action.CreateBudget, "", func(context.Context) (func(context.Context) error, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected op error, got %v", err)
	}
	if len(d.debits) != 0 {
		t.Error("failed operation must not be charged")
	}
}

func TestExportDiscardsOutputOnChargeFailure(t *testing.T) {
	d := &fakeDebiter{err: ledger.ErrTransactionConflict}
	g := newGateway(t, d)

	data, _, err := g.Export(context.Background(), user, action.ExportBudgetPDFSingle, "bgt_1", func(context.Context) ([]byte, error) {
		return []byte("%PDF"), nil
	})
	if !errors.Is(err, ledger.ErrTransactionConflict) {
		t.Fatalf("expected ErrTransactionConflict, got %v", err)
	}
	if data != nil {
		t.Error("expected no output on failed charge")
	}
}

func TestGatewayWithLedger(t *testing.T) {
	st := memory.New()
	l := ledger.New(st)
	ctx := context.Background()

	a := &account.Account{Email: "gw@example.com", Balance: 2}
	if err := l.OpenAccount(ctx, a); err != nil {
		t.Fatalf("open account: %v", err)
	}
	g := newGateway(t, l)
	actor := billing.Actor{AccountID: a.ID, Role: account.RoleUser}

	data, charge, err := g.Export(ctx, actor, action.ExportBudgetPDFHistory, "", func(context.Context) ([]byte, error) {
		return []byte("%PDF-1.3"), nil
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if string(data) != "%PDF-1.3" || charge.Receipt.NewBalance != 0 {
		t.Errorf("unexpected export result: %q %+v", data, charge.Receipt)
	}

	_, err = g.Charge(ctx, actor, action.CreateBudget, "")
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance on empty balance, got %v", err)
	}
}
