// Package billing gates billable operations behind a credit debit.
package billing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/account"
	"github.com/ficoreafrica/ledger/action"
	"github.com/ficoreafrica/ledger/id"
)

// Debiter is the part of the ledger the gateway needs.
type Debiter interface {
	Debit(ctx context.Context, accountID id.AccountID, amount int64, kind action.Kind, referenceID string) (*ledger.Receipt, error)
	RecordBypass(ctx context.Context, accountID id.AccountID, kind action.Kind, referenceID string)
}

// Actor is the caller a charge is made against.
type Actor struct {
	AccountID id.AccountID
	Role      account.Role
}

func (a Actor) IsAdmin() bool { return a.Role == account.RoleAdmin }

// Charge is the outcome of a successful charge.
type Charge struct {
	Kind     action.Kind
	Cost     int64
	Bypassed bool
	Receipt  *ledger.Receipt
}

// Operation performs a domain change and returns a function that reverses
// it. The undo may be nil when nothing needs reversing.
type Operation func(ctx context.Context) (undo func(ctx context.Context) error, err error)

// Renderer produces the bytes of an export.
type Renderer func(ctx context.Context) ([]byte, error)

// Gateway charges billable actions.
type Gateway struct {
	debiter  Debiter
	schedule Schedule
	logger   *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithSchedule replaces the default cost schedule.
func WithSchedule(s Schedule) Option {
	return func(g *Gateway) { g.schedule = s }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// NewGateway creates a gateway and validates its schedule.
func NewGateway(d Debiter, opts ...Option) (*Gateway, error) {
	g := &Gateway{
		debiter:  d,
		schedule: DefaultSchedule(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if err := g.schedule.Validate(); err != nil {
		return nil, fmt.Errorf("billing: invalid schedule: %w", err)
	}
	return g, nil
}

// Schedule returns the active cost schedule.
func (g *Gateway) Schedule() Schedule { return g.schedule }

// Charge debits the cost of kind from the actor. Admins are not charged;
// the bypass is recorded instead.
func (g *Gateway) Charge(ctx context.Context, actor Actor, kind action.Kind, referenceID string) (*Charge, error) {
	cost, err := g.schedule.Cost(kind)
	if err != nil {
		return nil, err
	}

	if actor.IsAdmin() {
		g.debiter.RecordBypass(ctx, actor.AccountID, kind, referenceID)
		return &Charge{Kind: kind, Bypassed: true}, nil
	}

	receipt, err := g.debiter.Debit(ctx, actor.AccountID, cost, kind, referenceID)
	if err != nil {
		return nil, err
	}
	return &Charge{Kind: kind, Cost: cost, Receipt: receipt}, nil
}

// Perform runs op and then charges for it. When the charge fails the
// operation is reversed through its undo function and the charge error is
// returned.
func (g *Gateway) Perform(ctx context.Context, actor Actor, kind action.Kind, referenceID string, op Operation) (*Charge, error) {
	if _, err := g.schedule.Cost(kind); err != nil {
		return nil, err
	}

	undo, err := op(ctx)
	if err != nil {
		return nil, err
	}

	charge, err := g.Charge(ctx, actor, kind, referenceID)
	if err != nil {
		if undo != nil {
			if undoErr := undo(context.WithoutCancel(ctx)); undoErr != nil {
				g.logger.Error("undo after failed charge",
					"account_id", actor.AccountID.String(),
					"action", kind.String(),
					"reference_id", referenceID,
					"error", undoErr,
				)
			}
		}
		return nil, err
	}
	return charge, nil
}

// Export renders the document and charges for it. The rendered bytes are
// only returned when the charge succeeds.
func (g *Gateway) Export(ctx context.Context, actor Actor, kind action.Kind, referenceID string, render Renderer) ([]byte, *Charge, error) {
	if _, err := g.schedule.Cost(kind); err != nil {
		return nil, nil, err
	}

	data, err := render(ctx)
	if err != nil {
		return nil, nil, err
	}

	charge, err := g.Charge(ctx, actor, kind, referenceID)
	if err != nil {
		return nil, nil, err
	}
	return data, charge, nil
}
