package budget

import (
	"github.com/shopspring/decimal"

	"github.com/ficoreafrica/ledger/id"
	"github.com/ficoreafrica/ledger/types"
)

// MaxCustomCategories bounds the user-defined expense lines on one budget.
const MaxCustomCategories = 20

type Budget struct {
	types.Entity
	ID               id.BudgetID      `json:"id"`
	OwnerID          id.AccountID     `json:"owner_id"`
	Income           decimal.Decimal  `json:"income"`
	Housing          decimal.Decimal  `json:"housing"`
	Food             decimal.Decimal  `json:"food"`
	Transport        decimal.Decimal  `json:"transport"`
	Miscellaneous    decimal.Decimal  `json:"miscellaneous"`
	Others           decimal.Decimal  `json:"others"`
	SavingsGoal      decimal.Decimal  `json:"savings_goal"`
	Dependents       int              `json:"dependents"`
	CustomCategories []CustomCategory `json:"custom_categories"`
	FixedExpenses    decimal.Decimal  `json:"fixed_expenses"`
	VariableExpenses decimal.Decimal  `json:"variable_expenses"`
	SurplusDeficit   decimal.Decimal  `json:"surplus_deficit"`
	SessionID        string           `json:"session_id,omitempty"`
}

type CustomCategory struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type ListOpts struct {
	Limit  int
	Offset int
}

// New builds a budget for owner from validated input and derives the
// expense totals and the surplus or deficit.
func New(ownerID id.AccountID, in Input, sessionID string) *Budget {
	b := &Budget{
		Entity:        types.NewEntity(),
		ID:            id.NewBudgetID(),
		OwnerID:       ownerID,
		Income:        amount(in.Income),
		Housing:       amount(in.Housing),
		Food:          amount(in.Food),
		Transport:     amount(in.Transport),
		Miscellaneous: amount(in.Miscellaneous),
		Others:        amount(in.Others),
		SavingsGoal:   amount(in.SavingsGoal),
		SessionID:     sessionID,
	}
	if in.Dependents != nil {
		b.Dependents = *in.Dependents
	}

	for _, c := range in.CustomCategories {
		b.CustomCategories = append(b.CustomCategories, CustomCategory{
			Name:   SanitizeName(c.Name),
			Amount: amount(c.Amount),
		})
	}

	b.Recalculate()
	return b
}

// Recalculate refreshes the derived totals from the line items.
func (b *Budget) Recalculate() {
	b.FixedExpenses = types.Sum(b.Housing, b.Food, b.Transport)
	b.VariableExpenses = types.Sum(b.Miscellaneous, b.Others)
	b.SurplusDeficit = b.Income.Sub(b.FixedExpenses).Sub(b.VariableExpenses).Sub(b.SavingsGoal)
}

// TotalExpenses is the sum of fixed and variable expenses.
func (b *Budget) TotalExpenses() decimal.Decimal {
	return b.FixedExpenses.Add(b.VariableExpenses)
}

func amount(f *float64) decimal.Decimal {
	if f == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*f)
}
