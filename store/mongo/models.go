package mongo

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ficoreafrica/ledger/account"
	"github.com/ficoreafrica/ledger/action"
	"github.com/ficoreafrica/ledger/audit"
	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/id"
	"github.com/ficoreafrica/ledger/transaction"
	"github.com/ficoreafrica/ledger/types"
)

// ==================== Account models ====================

type accountModel struct {
	ID          string    `bson:"_id"`
	Email       string    `bson:"email"`
	DisplayName string    `bson:"display_name"`
	Role        string    `bson:"role"`
	Balance     int64     `bson:"balance"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toAccountModel(a *account.Account) *accountModel {
	return &accountModel{
		ID:          a.ID.String(),
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Role:        string(a.Role),
		Balance:     a.Balance,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	accountID, err := id.ParseAccountID(m.ID)
	if err != nil {
		return nil, err
	}
	return &account.Account{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          accountID,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		Role:        account.Role(m.Role),
		Balance:     m.Balance,
	}, nil
}

// ==================== Ledger entry models ====================

type transactionModel struct {
	ID          string    `bson:"_id"`
	AccountID   string    `bson:"account_id"`
	Action      string    `bson:"action"`
	Amount      int64     `bson:"amount"`
	ReferenceID string    `bson:"reference_id,omitempty"`
	SessionID   string    `bson:"session_id,omitempty"`
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"created_at"`
}

func toTransactionModel(e *transaction.Entry) *transactionModel {
	return &transactionModel{
		ID:          e.ID.String(),
		AccountID:   e.AccountID.String(),
		Action:      string(e.Action),
		Amount:      e.Amount,
		ReferenceID: e.ReferenceID,
		SessionID:   e.SessionID,
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt,
	}
}

func fromTransactionModel(m *transactionModel) (*transaction.Entry, error) {
	entryID, err := id.ParseTransactionID(m.ID)
	if err != nil {
		return nil, err
	}
	accountID, err := id.ParseAccountID(m.AccountID)
	if err != nil {
		return nil, err
	}
	return &transaction.Entry{
		ID:          entryID,
		AccountID:   accountID,
		Action:      action.Kind(m.Action),
		Amount:      m.Amount,
		ReferenceID: m.ReferenceID,
		SessionID:   m.SessionID,
		Status:      transaction.Status(m.Status),
		CreatedAt:   m.CreatedAt,
	}, nil
}

// ==================== Audit models ====================

type auditModel struct {
	ID        string        `bson:"_id"`
	Actor     string        `bson:"actor"`
	Action    string        `bson:"action"`
	Type      string        `bson:"type"`
	Details   auditDetailsM `bson:"details"`
	CreatedAt time.Time     `bson:"created_at"`
}

type auditDetailsM struct {
	AccountID       string `bson:"account_id,omitempty"`
	Amount          int64  `bson:"amount,omitempty"`
	ReferenceID     string `bson:"reference_id,omitempty"`
	PreviousBalance *int64 `bson:"previous_balance,omitempty"`
	NewBalance      *int64 `bson:"new_balance,omitempty"`
	BudgetID        string `bson:"budget_id,omitempty"`
	LatestBudgetID  string `bson:"latest_budget_id,omitempty"`
	BudgetCount     *int   `bson:"budget_count,omitempty"`
	Email           string `bson:"email,omitempty"`
	ExportType      string `bson:"export_type,omitempty"`
}

func toAuditModel(e *audit.Entry) *auditModel {
	d := e.Details
	return &auditModel{
		ID:     e.ID.String(),
		Actor:  e.Actor,
		Action: string(e.Action),
		Type:   string(e.Type),
		Details: auditDetailsM{
			AccountID:       d.AccountID,
			Amount:          d.Amount,
			ReferenceID:     d.ReferenceID,
			PreviousBalance: d.PreviousBalance,
			NewBalance:      d.NewBalance,
			BudgetID:        d.BudgetID,
			LatestBudgetID:  d.LatestBudgetID,
			BudgetCount:     d.BudgetCount,
			Email:           d.Email,
			ExportType:      d.ExportType,
		},
		CreatedAt: e.CreatedAt,
	}
}

func fromAuditModel(m *auditModel) (*audit.Entry, error) {
	auditID, err := id.ParseAuditID(m.ID)
	if err != nil {
		return nil, err
	}
	d := m.Details
	return &audit.Entry{
		ID:     auditID,
		Actor:  m.Actor,
		Action: action.Kind(m.Action),
		Type:   audit.Type(m.Type),
		Details: audit.Details{
			AccountID:       d.AccountID,
			Amount:          d.Amount,
			ReferenceID:     d.ReferenceID,
			PreviousBalance: d.PreviousBalance,
			NewBalance:      d.NewBalance,
			BudgetID:        d.BudgetID,
			LatestBudgetID:  d.LatestBudgetID,
			BudgetCount:     d.BudgetCount,
			Email:           d.Email,
			ExportType:      d.ExportType,
		},
		CreatedAt: m.CreatedAt,
	}, nil
}

// ==================== Budget models ====================

// Amounts are stored as decimal strings so no precision is lost to
// float64 round trips.
type budgetModel struct {
	ID               string          `bson:"_id"`
	OwnerID          string          `bson:"owner_id"`
	Income           string          `bson:"income"`
	Housing          string          `bson:"housing"`
	Food             string          `bson:"food"`
	Transport        string          `bson:"transport"`
	Miscellaneous    string          `bson:"miscellaneous"`
	Others           string          `bson:"others"`
	SavingsGoal      string          `bson:"savings_goal"`
	Dependents       int             `bson:"dependents"`
	CustomCategories []categoryModel `bson:"custom_categories"`
	FixedExpenses    string          `bson:"fixed_expenses"`
	VariableExpenses string          `bson:"variable_expenses"`
	SurplusDeficit   string          `bson:"surplus_deficit"`
	SessionID        string          `bson:"session_id,omitempty"`
	CreatedAt        time.Time       `bson:"created_at"`
	UpdatedAt        time.Time       `bson:"updated_at"`
}

type categoryModel struct {
	Name   string `bson:"name"`
	Amount string `bson:"amount"`
}

func toBudgetModel(b *budget.Budget) *budgetModel {
	cats := make([]categoryModel, 0, len(b.CustomCategories))
	for _, c := range b.CustomCategories {
		cats = append(cats, categoryModel{Name: c.Name, Amount: c.Amount.String()})
	}
	return &budgetModel{
		ID:               b.ID.String(),
		OwnerID:          b.OwnerID.String(),
		Income:           b.Income.String(),
		Housing:          b.Housing.String(),
		Food:             b.Food.String(),
		Transport:        b.Transport.String(),
		Miscellaneous:    b.Miscellaneous.String(),
		Others:           b.Others.String(),
		SavingsGoal:      b.SavingsGoal.String(),
		Dependents:       b.Dependents,
		CustomCategories: cats,
		FixedExpenses:    b.FixedExpenses.String(),
		VariableExpenses: b.VariableExpenses.String(),
		SurplusDeficit:   b.SurplusDeficit.String(),
		SessionID:        b.SessionID,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func fromBudgetModel(m *budgetModel) (*budget.Budget, error) {
	budgetID, err := id.ParseBudgetID(m.ID)
	if err != nil {
		return nil, err
	}
	ownerID, err := id.ParseAccountID(m.OwnerID)
	if err != nil {
		return nil, err
	}

	b := &budget.Budget{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         budgetID,
		OwnerID:    ownerID,
		Dependents: m.Dependents,
		SessionID:  m.SessionID,
	}

	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&b.Income, m.Income}, {&b.Housing, m.Housing}, {&b.Food, m.Food},
		{&b.Transport, m.Transport}, {&b.Miscellaneous, m.Miscellaneous},
		{&b.Others, m.Others}, {&b.SavingsGoal, m.SavingsGoal},
		{&b.FixedExpenses, m.FixedExpenses}, {&b.VariableExpenses, m.VariableExpenses},
		{&b.SurplusDeficit, m.SurplusDeficit},
	} {
		if *f.dst, err = parseDecimal(f.src); err != nil {
			return nil, err
		}
	}

	for _, c := range m.CustomCategories {
		amt, err := parseDecimal(c.Amount)
		if err != nil {
			return nil, err
		}
		b.CustomCategories = append(b.CustomCategories, budget.CustomCategory{Name: c.Name, Amount: amt})
	}
	return b, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
