// Package service implements the budget operations shared by the HTML and
// JSON route sets.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/action"
	"github.com/ficoreafrica/ledger/audit"
	"github.com/ficoreafrica/ledger/billing"
	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/cache"
	"github.com/ficoreafrica/ledger/events"
	"github.com/ficoreafrica/ledger/id"
	"github.com/ficoreafrica/ledger/store"
)

// List sizes used when loading budgets for an export.
const (
	singleExportWindow  = 20
	historyExportWindow = 100
)

// Request errors. Each matches ledger.ErrInvalidInput.
var (
	ErrInvalidBudgetID   = ledger.ValidationError{Field: "budget_id", Message: "invalid budget id"}
	ErrBudgetIDRequired  = ledger.ValidationError{Field: "budget_id", Message: "required for a single export"}
	ErrInvalidExportType = ledger.ValidationError{Field: "export_type", Message: "must be single or history"}
)

// Service runs budget operations and charges billable ones through the
// gateway.
type Service struct {
	store     store.Store
	gateway   *billing.Gateway
	cache     cache.BudgetCache
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCache sets the budget list cache.
func WithCache(c cache.BudgetCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithPublisher sets where tool-usage events go.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service.
func New(st store.Store, gw *billing.Gateway, opts ...Option) *Service {
	s := &Service{
		store:     st,
		gateway:   gw,
		cache:     cache.Nop{},
		publisher: events.Discard{},
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tips returns the static budgeting hints.
func (s *Service) Tips() []string {
	return append([]string(nil), budget.Tips...)
}

// Pagination describes one page of a budget list.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// Default and maximum page sizes, and the highest page served. Any page
// past MaxPage is empty for every owner the budget limits allow.
const (
	DefaultLimit = 10
	MaxLimit     = 50
	MaxPage      = 1_000_000
)

// NormalizePage clamps page to 1..MaxPage and limit to 1..MaxLimit. A
// zero limit selects DefaultLimit.
func NormalizePage(page, limit int) (int, int) {
	page = max(1, min(MaxPage, page))
	if limit == 0 {
		limit = DefaultLimit
	}
	limit = max(1, min(MaxLimit, limit))
	return page, limit
}

func newPagination(page, limit int, total int64) Pagination {
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: (total + int64(limit) - 1) / int64(limit),
	}
}

// listBudgets returns one page of the owner's budgets, served from the
// cache when possible.
func (s *Service) listBudgets(ctx context.Context, ownerID id.AccountID, page, limit int) ([]*budget.Budget, error) {
	if cached, ok := s.cache.Budgets(ctx, ownerID, page, limit); ok {
		return cached, nil
	}

	budgets, err := s.store.ListBudgets(ctx, ownerID, budget.ListOpts{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetBudgets(ctx, ownerID, page, limit, budgets); err != nil {
		s.logger.Warn("cache budgets", "account_id", ownerID.String(), "error", err)
	}
	return budgets, nil
}

func (s *Service) invalidate(ctx context.Context, ownerID id.AccountID) {
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.logger.Warn("invalidate budget cache", "account_id", ownerID.String(), "error", err)
	}
}

// activity writes an activity audit entry. Failures are logged only.
func (s *Service) activity(ctx context.Context, actor billing.Actor, kind action.Kind, details audit.Details) {
	e := &audit.Entry{
		ID:        id.NewAuditID(),
		Actor:     actor.AccountID.String(),
		Action:    kind,
		Type:      audit.TypeActivity,
		Details:   details,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertAudit(ctx, e); err != nil {
		s.logger.Error("write activity audit",
			"account_id", actor.AccountID.String(),
			"session_id", ledger.SessionIDFrom(ctx),
			"action", kind.String(),
			"error", err,
		)
	}
}

// toolUsage publishes a tool-usage event. Failures are logged only.
func (s *Service) toolUsage(ctx context.Context, actor billing.Actor, kind action.Kind) {
	evt := events.NewToolUsage(actor.AccountID, ledger.SessionIDFrom(ctx), kind)
	if err := s.publisher.Publish(ctx, actor.AccountID.String(), evt); err != nil {
		s.logger.Warn("publish tool usage", "account_id", actor.AccountID.String(), "action", kind.String(), "error", err)
	}
}
