package service

import (
	"context"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/action"
	"github.com/ficoreafrica/ledger/audit"
	"github.com/ficoreafrica/ledger/billing"
	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/report"
)

// Export is a rendered PDF ready to send.
type Export struct {
	Filename string
	Data     []byte
	Charge   *billing.Charge
}

// Export renders a single budget or the budget history as PDF and charges
// for it. rawID is required for a single export and ignored otherwise.
func (s *Service) Export(ctx context.Context, actor billing.Actor, rawType, rawID string) (*Export, error) {
	exportType, err := action.ParseExportType(rawType)
	if err != nil {
		return nil, ErrInvalidExportType
	}
	single := exportType == action.ExportSingle
	if single && rawID == "" {
		return nil, ErrBudgetIDRequired
	}

	window := historyExportWindow
	if single {
		window = singleExportWindow
	}
	budgets, err := s.store.ListBudgets(ctx, actor.AccountID, budget.ListOpts{Limit: window})
	if err != nil {
		return nil, err
	}

	var target *budget.Budget
	if single {
		for _, b := range budgets {
			if b.ID.String() == rawID {
				target = b
				break
			}
		}
		if target == nil {
			return nil, ledger.ErrBudgetNotFound
		}
	}

	owner, err := s.store.GetAccount(ctx, actor.AccountID)
	if err != nil {
		return nil, err
	}

	details := audit.Details{ExportType: string(exportType)}
	ref := ""
	if single {
		details.BudgetID = rawID
		ref = rawID
	}
	kind := exportType.Kind()
	s.activity(ctx, actor, kind, details)

	now := s.now()
	data, charge, err := s.gateway.Export(ctx, actor, kind, ref, func(context.Context) ([]byte, error) {
		if single {
			return report.Single(owner, target, now)
		}
		return report.History(owner, budgets, now)
	})
	if err != nil {
		s.logger.Warn("export failed",
			"account_id", actor.AccountID.String(),
			"session_id", ledger.SessionIDFrom(ctx),
			"export_type", string(exportType),
			"error", err,
		)
		return nil, err
	}

	return &Export{
		Filename: report.Filename(string(exportType), now),
		Data:     data,
		Charge:   charge,
	}, nil
}
