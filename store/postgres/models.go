package postgres

import (
	"encoding/json"
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
	ID          string    `gorm:"column:id;primaryKey"`
	Email       string    `gorm:"column:email"`
	DisplayName string    `gorm:"column:display_name"`
	Role        string    `gorm:"column:role"`
	Balance     int64     `gorm:"column:balance"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (accountModel) TableName() string { return "ledger_accounts" }

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
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          accountID,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		Role:        account.Role(m.Role),
		Balance:     m.Balance,
	}, nil
}

// ==================== Ledger entry models ====================

type transactionModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	AccountID   string    `gorm:"column:account_id"`
	Action      string    `gorm:"column:action"`
	Amount      int64     `gorm:"column:amount"`
	ReferenceID string    `gorm:"column:reference_id"`
	SessionID   string    `gorm:"column:session_id"`
	Status      string    `gorm:"column:status"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (transactionModel) TableName() string { return "ledger_transactions" }

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
	ID        string    `gorm:"column:id;primaryKey"`
	Actor     string    `gorm:"column:actor"`
	Action    string    `gorm:"column:action"`
	Type      string    `gorm:"column:type"`
	Details   string    `gorm:"column:details"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (auditModel) TableName() string { return "ledger_audit_logs" }

func toAuditModel(e *audit.Entry) (*auditModel, error) {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return nil, err
	}
	return &auditModel{
		ID:        e.ID.String(),
		Actor:     e.Actor,
		Action:    string(e.Action),
		Type:      string(e.Type),
		Details:   string(details),
		CreatedAt: e.CreatedAt,
	}, nil
}

func fromAuditModel(m *auditModel) (*audit.Entry, error) {
	auditID, err := id.ParseAuditID(m.ID)
	if err != nil {
		return nil, err
	}
	e := &audit.Entry{
		ID:        auditID,
		Actor:     m.Actor,
		Action:    action.Kind(m.Action),
		Type:      audit.Type(m.Type),
		CreatedAt: m.CreatedAt,
	}
	if m.Details != "" {
		if err := json.Unmarshal([]byte(m.Details), &e.Details); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// ==================== Budget models ====================

type budgetModel struct {
	ID               string          `gorm:"column:id;primaryKey"`
	OwnerID          string          `gorm:"column:owner_id"`
	Income           decimal.Decimal `gorm:"column:income"`
	Housing          decimal.Decimal `gorm:"column:housing"`
	Food             decimal.Decimal `gorm:"column:food"`
	Transport        decimal.Decimal `gorm:"column:transport"`
	Miscellaneous    decimal.Decimal `gorm:"column:miscellaneous"`
	Others           decimal.Decimal `gorm:"column:others"`
	SavingsGoal      decimal.Decimal `gorm:"column:savings_goal"`
	Dependents       int             `gorm:"column:dependents"`
	CustomCategories string          `gorm:"column:custom_categories"`
	FixedExpenses    decimal.Decimal `gorm:"column:fixed_expenses"`
	VariableExpenses decimal.Decimal `gorm:"column:variable_expenses"`
	SurplusDeficit   decimal.Decimal `gorm:"column:surplus_deficit"`
	SessionID        string          `gorm:"column:session_id"`
	CreatedAt        time.Time       `gorm:"column:created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at"`
}

func (budgetModel) TableName() string { return "budgets" }

func toBudgetModel(b *budget.Budget) (*budgetModel, error) {
	cats := b.CustomCategories
	if cats == nil {
		cats = []budget.CustomCategory{}
	}
	encoded, err := json.Marshal(cats)
	if err != nil {
		return nil, err
	}
	return &budgetModel{
		ID:               b.ID.String(),
		OwnerID:          b.OwnerID.String(),
		Income:           b.Income,
		Housing:          b.Housing,
		Food:             b.Food,
		Transport:        b.Transport,
		Miscellaneous:    b.Miscellaneous,
		Others:           b.Others,
		SavingsGoal:      b.SavingsGoal,
		Dependents:       b.Dependents,
		CustomCategories: string(encoded),
		FixedExpenses:    b.FixedExpenses,
		VariableExpenses: b.VariableExpenses,
		SurplusDeficit:   b.SurplusDeficit,
		SessionID:        b.SessionID,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}, nil
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

	var cats []budget.CustomCategory
	if m.CustomCategories != "" {
		if err := json.Unmarshal([]byte(m.CustomCategories), &cats); err != nil {
			return nil, err
		}
	}

	return &budget.Budget{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:               budgetID,
		OwnerID:          ownerID,
		Income:           m.Income,
		Housing:          m.Housing,
		Food:             m.Food,
		Transport:        m.Transport,
		Miscellaneous:    m.Miscellaneous,
		Others:           m.Others,
		SavingsGoal:      m.SavingsGoal,
		Dependents:       m.Dependents,
		CustomCategories: cats,
		FixedExpenses:    m.FixedExpenses,
		VariableExpenses: m.VariableExpenses,
		SurplusDeficit:   m.SurplusDeficit,
		SessionID:        m.SessionID,
	}, nil
}
