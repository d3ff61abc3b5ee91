package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ficoreafrica/ledger/account"
	"github.com/ficoreafrica/ledger/action"
	"github.com/ficoreafrica/ledger/audit"
	"github.com/ficoreafrica/ledger/id"
	"github.com/ficoreafrica/ledger/plugin"
	"github.com/ficoreafrica/ledger/store"
	"github.com/ficoreafrica/ledger/transaction"
	"github.com/ficoreafrica/ledger/types"
)

// Ledger is the prepaid credit engine. Every balance change goes through
// Debit, which runs inside a single store transaction.
type Ledger struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	now     func() time.Time

	skipMigrate bool
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:   s,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		now:     func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock overrides the time source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithoutMigrate makes Start leave the store schema alone. Plugins are
// still initialized.
func WithoutMigrate() Option {
	return func(l *Ledger) {
		l.skipMigrate = true
	}
}

// Start migrates the store and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if l.skipMigrate {
		l.logger.Info("store migration disabled")
	} else if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("ledger started", "plugins", l.plugins.Count())

	return nil
}

// Stop shuts down plugins and closes the store.
func (l *Ledger) Stop() error {
	l.plugins.EmitShutdown(context.Background())

	return l.store.Close()
}

// Store returns the backing store.
func (l *Ledger) Store() store.Store { return l.store }

// ──────────────────────────────────────────────────
// Accounts
// ──────────────────────────────────────────────────

// OpenAccount creates an account with its starting balance.
func (l *Ledger) OpenAccount(ctx context.Context, a *account.Account) error {
	if a.Balance < 0 {
		return ValidationError{Field: "balance", Message: "must not be negative"}
	}
	if a.ID.IsNil() {
		a.ID = id.NewAccountID()
	}
	if a.Role == "" {
		a.Role = account.RoleUser
	}
	a.Entity = types.EntityAt(l.now())

	return l.store.CreateAccount(ctx, a)
}

// Account returns the account as currently stored.
func (l *Ledger) Account(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	return l.store.GetAccount(ctx, accountID)
}

// Balance reads the current balance straight from the store.
func (l *Ledger) Balance(ctx context.Context, accountID id.AccountID) (int64, error) {
	a, err := l.store.GetAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return a.Balance, nil
}

// Statement lists the account's ledger entries, newest first.
func (l *Ledger) Statement(ctx context.Context, accountID id.AccountID, opts transaction.ListOpts) ([]*transaction.Entry, error) {
	return l.store.ListTransactions(ctx, accountID, opts)
}

// ──────────────────────────────────────────────────
// Debits
// ──────────────────────────────────────────────────

// Receipt describes a committed debit.
type Receipt struct {
	Entry           *transaction.Entry `json:"entry"`
	PreviousBalance int64              `json:"previous_balance"`
	NewBalance      int64              `json:"new_balance"`
}

// Debit takes amount credits from the account for a billable action.
//
// The balance decrement, the completed ledger entry and the audit entry are
// written in one store transaction. Precondition failures write nothing.
// A decrement that matches no row, or a transaction the store aborts in
// favour of a concurrent one, records a failed entry and returns
// ErrTransactionConflict. Every other failure is reported as
// ErrLedgerUnavailable.
func (l *Ledger) Debit(ctx context.Context, accountID id.AccountID, amount int64, kind action.Kind, referenceID string) (receipt *Receipt, err error) {
	sessionID := SessionIDFrom(ctx)
	log := l.logger.With(
		"account_id", accountID.String(),
		"session_id", sessionID,
		"action", kind.String(),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("debit panicked", "amount", amount, "panic", r)
			receipt, err = nil, unavailable("debit", fmt.Errorf("panic: %v", r))
		}
	}()

	if err := l.checkRequest(accountID, amount, kind); err != nil {
		log.Error("debit rejected", "amount", amount, "error", err)
		l.plugins.EmitDebitRejected(ctx, accountID, kind, amount, err)
		return nil, err
	}

	acct, err := l.store.GetAccount(ctx, accountID)
	if err != nil {
		if IsNotFound(err) {
			log.Error("debit rejected: account not found", "amount", amount)
			l.plugins.EmitDebitRejected(ctx, accountID, kind, amount, ErrInvalidUser)
			return nil, ErrInvalidUser
		}
		log.Error("debit failed: read balance", "amount", amount, "error", err)
		return nil, unavailable("read balance", err)
	}

	if acct.Balance < amount {
		insufficient := &InsufficientBalanceError{Balance: acct.Balance, Required: amount}
		log.Warn("insufficient credits", "balance", acct.Balance, "required", amount)
		l.plugins.EmitDebitRejected(ctx, accountID, kind, amount, insufficient)
		return nil, insufficient
	}

	entry := &transaction.Entry{
		ID:          id.NewTransactionID(),
		AccountID:   accountID,
		Action:      kind,
		Amount:      -amount,
		ReferenceID: referenceID,
		SessionID:   sessionID,
		Status:      transaction.StatusCompleted,
		CreatedAt:   l.now(),
	}

	var previous, next int64
	txErr := l.store.Transact(ctx, func(ctx context.Context, tx store.Tx) error {
		newBalance, err := tx.DecrementBalance(ctx, accountID, amount)
		if err != nil {
			return err
		}
		previous, next = newBalance+amount, newBalance

		if err := tx.InsertTransaction(ctx, entry); err != nil {
			return err
		}
		return tx.InsertAudit(ctx, l.debitAudit(entry, previous, next))
	})
	if txErr != nil {
		return nil, l.abort(ctx, log, entry, txErr)
	}

	log.Info("credits deducted", "amount", amount, "new_balance", next)

	l.plugins.EmitDebitCompleted(ctx, &plugin.Debit{
		Entry:           entry,
		PreviousBalance: previous,
		NewBalance:      next,
	})

	return &Receipt{Entry: entry, PreviousBalance: previous, NewBalance: next}, nil
}

// RecordBypass notes that a privileged caller performed a billable action
// without a charge.
func (l *Ledger) RecordBypass(ctx context.Context, accountID id.AccountID, kind action.Kind, referenceID string) {
	l.logger.Info("charge bypassed",
		"account_id", accountID.String(),
		"session_id", SessionIDFrom(ctx),
		"action", kind.String(),
	)
	l.plugins.EmitChargeBypassed(ctx, accountID, kind, referenceID)
}

func (l *Ledger) checkRequest(accountID id.AccountID, amount int64, kind action.Kind) error {
	if accountID.IsNil() {
		return ErrInvalidUser
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !kind.Valid() {
		return UnknownActionError{Kind: string(kind)}
	}
	return nil
}

// abort converts a transaction failure into a debit error and leaves a
// failed entry behind for the audit trail.
func (l *Ledger) abort(ctx context.Context, log *slog.Logger, entry *transaction.Entry, cause error) error {
	result := ErrTransactionConflict
	if !errors.Is(cause, ErrNoRowsAffected) && !errors.Is(cause, ErrTransactionAborted) {
		result = unavailable("debit transaction", cause)
	}

	failed := *entry
	failed.Status = transaction.StatusFailed
	if err := l.store.InsertTransaction(context.WithoutCancel(ctx), &failed); err != nil {
		log.Error("record failed debit", "entry_id", failed.ID.String(), "error", err)
	}

	if errors.Is(result, ErrTransactionConflict) {
		log.Warn("debit conflict", "amount", -entry.Amount)
	} else {
		log.Error("debit failed", "amount", -entry.Amount, "error", cause)
	}

	l.plugins.EmitDebitFailed(ctx, &failed, result)
	return result
}

func (l *Ledger) debitAudit(entry *transaction.Entry, previous, next int64) *audit.Entry {
	return &audit.Entry{
		ID:     id.NewAuditID(),
		Actor:  audit.ActorSystem,
		Action: entry.Action,
		Type:   audit.TypeDebit,
		Details: audit.Details{
			AccountID:       entry.AccountID.String(),
			Amount:          -entry.Amount,
			ReferenceID:     entry.ReferenceID,
			PreviousBalance: &previous,
			NewBalance:      &next,
		},
		CreatedAt: entry.CreatedAt,
	}
}
