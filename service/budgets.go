package service

import (
	"context"
	"errors"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/action"
	"github.com/ficoreafrica/ledger/audit"
	"github.com/ficoreafrica/ledger/billing"
	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/id"
	"github.com/ficoreafrica/ledger/types"
)

// Create validates and stores a budget, then charges for it. When the
// charge fails the budget is removed again and the charge error returned.
func (s *Service) Create(ctx context.Context, actor billing.Actor, in budget.Input) (*budget.Budget, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	b := budget.New(actor.AccountID, in, ledger.SessionIDFrom(ctx))

	_, err := s.gateway.Perform(ctx, actor, action.CreateBudget, b.ID.String(), func(ctx context.Context) (func(context.Context) error, error) {
		if err := s.store.CreateBudget(ctx, b); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			return s.store.DeleteBudget(ctx, b.OwnerID, b.ID)
		}, nil
	})
	if err != nil {
		s.logger.Warn("create budget failed",
			"account_id", actor.AccountID.String(),
			"session_id", ledger.SessionIDFrom(ctx),
			"error", err,
		)
		return nil, err
	}

	s.invalidate(ctx, actor.AccountID)
	s.toolUsage(ctx, actor, action.CreateBudget)

	var email string
	if a, err := s.store.GetAccount(ctx, actor.AccountID); err == nil {
		email = a.Email
	}
	s.activity(ctx, actor, action.CreateBudget, audit.Details{BudgetID: b.ID.String(), Email: email})

	s.logger.Info("budget created", "account_id", actor.AccountID.String(), "budget_id", b.ID.String())
	return b, nil
}

// Dashboard is the budget overview for one page of budgets.
type Dashboard struct {
	LatestBudget *budget.Budget    `json:"latest_budget"`
	Budgets      []*budget.Budget  `json:"budgets"`
	Categories   []budget.Category `json:"categories"`
	Insights     []string          `json:"insights"`
	Tips         []string          `json:"tips"`
	Pagination   Pagination        `json:"pagination"`
}

// Dashboard lists a page of budgets and summarises the newest one on it.
func (s *Service) Dashboard(ctx context.Context, actor billing.Actor, page, limit int) (*Dashboard, error) {
	page, limit = NormalizePage(page, limit)

	budgets, err := s.listBudgets(ctx, actor.AccountID, page, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountBudgets(ctx, actor.AccountID)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Budgets:    budgets,
		Categories: []budget.Category{},
		Insights:   []string{},
		Tips:       s.Tips(),
		Pagination: newPagination(page, limit, total),
	}

	if len(budgets) > 0 {
		latest := budgets[0]
		d.LatestBudget = latest
		d.Categories = latest.Categories()
		d.Insights = latest.Insights()
		s.activity(ctx, actor, action.ViewBudgetDashboard, audit.Details{LatestBudgetID: latest.ID.String()})
	}
	return d, nil
}

// ManagedBudget is a budget with its display-formatted surplus.
type ManagedBudget struct {
	*budget.Budget
	SurplusDeficitFormatted string `json:"surplus_deficit_formatted"`
}

// Manage is one page of budgets for the management view.
type Manage struct {
	Budgets    []ManagedBudget `json:"budgets"`
	Pagination Pagination      `json:"pagination"`
}

// Manage lists a page of budgets with formatted amounts.
func (s *Service) Manage(ctx context.Context, actor billing.Actor, page, limit int) (*Manage, error) {
	page, limit = NormalizePage(page, limit)

	budgets, err := s.listBudgets(ctx, actor.AccountID, page, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountBudgets(ctx, actor.AccountID)
	if err != nil {
		return nil, err
	}

	m := &Manage{
		Budgets:    make([]ManagedBudget, 0, len(budgets)),
		Pagination: newPagination(page, limit, total),
	}
	for _, b := range budgets {
		m.Budgets = append(m.Budgets, ManagedBudget{
			Budget:                  b,
			SurplusDeficitFormatted: types.FormatAmount(b.SurplusDeficit),
		})
	}

	count := len(budgets)
	s.activity(ctx, actor, action.ViewBudgetManage, audit.Details{BudgetCount: &count})
	return m, nil
}

// Delete removes one of the actor's budgets and charges for it. When the
// charge fails the budget is restored.
func (s *Service) Delete(ctx context.Context, actor billing.Actor, rawID string) error {
	budgetID, err := id.ParseBudgetID(rawID)
	if err != nil {
		return ErrInvalidBudgetID
	}

	b, err := s.store.GetBudget(ctx, actor.AccountID, budgetID)
	if err != nil {
		return err
	}

	_, err = s.gateway.Perform(ctx, actor, action.DeleteBudget, budgetID.String(), func(ctx context.Context) (func(context.Context) error, error) {
		if err := s.store.DeleteBudget(ctx, actor.AccountID, budgetID); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			if err := s.store.CreateBudget(ctx, b); err != nil && !errors.Is(err, ledger.ErrAlreadyExists) {
				return err
			}
			return nil
		}, nil
	})
	if err != nil {
		s.logger.Warn("delete budget failed",
			"account_id", actor.AccountID.String(),
			"session_id", ledger.SessionIDFrom(ctx),
			"budget_id", budgetID.String(),
			"error", err,
		)
		return err
	}

	s.activity(ctx, actor, action.DeleteBudget, audit.Details{BudgetID: budgetID.String()})
	s.invalidate(ctx, actor.AccountID)
	s.toolUsage(ctx, actor, action.DeleteBudget)

	s.logger.Info("budget deleted", "account_id", actor.AccountID.String(), "budget_id", budgetID.String())
	return nil
}
