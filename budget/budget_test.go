package budget

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ficoreafrica/ledger/id"
)

func f(v float64) *float64 { return &v }

func n(v int) *int { return &v }

func validInput() Input {
	return Input{
		Income:        f(500000),
		Housing:       f(150000),
		Food:          f(80000),
		Transport:     f(30000),
		Dependents:    n(2),
		Miscellaneous: f(20000),
		Others:        f(10000),
		SavingsGoal:   f(50000),
	}
}

func TestNewDerivesTotals(t *testing.T) {
	in := validInput()
	in.CustomCategories = []CategoryInput{{Name: "Church <b>tithe</b>", Amount: f(5000)}}

	owner := id.NewAccountID()
	b := New(owner, in, "sess-1")

	if b.ID.Prefix() != id.PrefixBudget {
		t.Errorf("id prefix = %q", b.ID.Prefix())
	}
	if b.OwnerID != owner {
		t.Error("owner not set")
	}
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"fixed", b.FixedExpenses, "260000"},
		{"variable", b.VariableExpenses, "30000"},
		{"surplus", b.SurplusDeficit, "160000"},
		{"total", b.TotalExpenses(), "290000"},
	}
	for _, c := range checks {
		if !c.got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	if b.Dependents != 2 {
		t.Errorf("dependents = %d", b.Dependents)
	}
	if got := b.CustomCategories[0].Name; got != "Church tithe" {
		t.Errorf("sanitized name = %q", got)
	}
	if b.SessionID != "sess-1" {
		t.Errorf("session = %q", b.SessionID)
	}
}

func TestNewDeficit(t *testing.T) {
	in := validInput()
	in.Income = f(100000)

	b := New(id.NewAccountID(), in, "")
	if b.SurplusDeficit.Sign() >= 0 {
		t.Fatalf("expected deficit, got %s", b.SurplusDeficit)
	}
	insights := b.Insights()
	if len(insights) != 1 || insights[0] != InsightDeficit {
		t.Errorf("insights = %v", insights)
	}
}

func TestInsightsBalanced(t *testing.T) {
	in := validInput()
	in.Income = f(340000)

	b := New(id.NewAccountID(), in, "")
	if !b.SurplusDeficit.IsZero() {
		t.Fatalf("expected zero, got %s", b.SurplusDeficit)
	}
	if got := b.Insights(); len(got) != 0 {
		t.Errorf("insights = %v", got)
	}
}

func TestCategories(t *testing.T) {
	in := validInput()
	in.CustomCategories = []CategoryInput{{Name: "Gym", Amount: f(7000)}}
	cats := New(id.NewAccountID(), in, "").Categories()

	if len(cats) != 6 {
		t.Fatalf("len = %d, want 6", len(cats))
	}
	if cats[0].Label != "Housing/Rent" || cats[0].Color != "#FF6384" {
		t.Errorf("first category = %+v", cats[0])
	}
	if cats[5].Label != "Gym" || cats[5].Color != "#FF9F40" {
		t.Errorf("custom category = %+v", cats[5])
	}
}

func TestValidate(t *testing.T) {
	tooMany := make([]CategoryInput, MaxCustomCategories+1)
	for i := range tooMany {
		tooMany[i] = CategoryInput{Name: "x", Amount: f(1)}
	}

	tests := []struct {
		name   string
		mutate func(*Input)
		field  string
	}{
		{"missing income", func(in *Input) { in.Income = nil }, "income"},
		{"negative food", func(in *Input) { in.Food = f(-1) }, "food"},
		{"huge savings", func(in *Input) { in.SavingsGoal = f(2e10) }, "savings_goal"},
		{"too many dependents", func(in *Input) { in.Dependents = n(101) }, "dependents"},
		{"too many categories", func(in *Input) { in.CustomCategories = tooMany }, "custom_categories"},
		{"long category name", func(in *Input) {
			in.CustomCategories = []CategoryInput{{Name: strings.Repeat("a", 51), Amount: f(1)}}
		}, "custom_categories[0].name"},
		{"missing category amount", func(in *Input) {
			in.CustomCategories = []CategoryInput{{Name: "ok"}}
		}, "custom_categories[0].amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			err := in.Validate()
			var fields FieldErrors
			if !errors.As(err, &fields) {
				t.Fatalf("expected FieldErrors, got %v", err)
			}
			if _, ok := fields[tt.field]; !ok {
				t.Errorf("expected error on %q, got %v", tt.field, fields)
			}
		})
	}
}

func TestValidateAcceptsZeros(t *testing.T) {
	in := Input{
		Income: f(0), Housing: f(0), Food: f(0), Transport: f(0),
		Dependents: n(0), Miscellaneous: f(0), Others: f(0), SavingsGoal: f(0),
	}
	if err := in.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
