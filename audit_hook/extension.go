// Package audithook bridges ledger debit events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular backend. The events package supplies a Kafka-backed
// Recorder; tests use RecorderFunc.
package audithook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/action"
	"github.com/ficoreafrica/ledger/id"
	"github.com/ficoreafrica/ledger/plugin"
	"github.com/ficoreafrica/ledger/transaction"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin           = (*Extension)(nil)
	_ plugin.OnInit           = (*Extension)(nil)
	_ plugin.OnShutdown       = (*Extension)(nil)
	_ plugin.OnDebitCompleted = (*Extension)(nil)
	_ plugin.OnDebitRejected  = (*Extension)(nil)
	_ plugin.OnDebitFailed    = (*Extension)(nil)
	_ plugin.OnChargeBypassed = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a backend-neutral audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger events to an audit trail backend.
type Extension struct {
	recorder Recorder
	skip     map[string]bool
	minRank  int
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit implements plugin.OnInit.
func (e *Extension) OnInit(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionLedgerStarted, SeverityInfo, OutcomeSuccess,
		ResourceLedger, "", CategoryLifecycle, nil)
}

// OnShutdown implements plugin.OnShutdown.
func (e *Extension) OnShutdown(ctx context.Context) error {
	return e.record(ctx, ActionLedgerStopped, SeverityInfo, OutcomeSuccess,
		ResourceLedger, "", CategoryLifecycle, nil)
}

// ──────────────────────────────────────────────────
// Debit hooks
// ──────────────────────────────────────────────────

// OnDebitCompleted implements plugin.OnDebitCompleted.
func (e *Extension) OnDebitCompleted(ctx context.Context, d *plugin.Debit) error {
	return e.record(ctx, ActionCreditsDebited, SeverityInfo, OutcomeSuccess,
		ResourceLedgerEntry, d.Entry.ID.String(), CategoryBilling, nil,
		"account_id", d.Entry.AccountID.String(),
		"action", string(d.Entry.Action),
		"amount", -d.Entry.Amount,
		"previous_balance", d.PreviousBalance,
		"new_balance", d.NewBalance,
		"reference_id", d.Entry.ReferenceID,
		"session_id", d.Entry.SessionID,
	)
}

// OnDebitRejected implements plugin.OnDebitRejected.
func (e *Extension) OnDebitRejected(ctx context.Context, accountID id.AccountID, kind action.Kind, amount int64, reason error) error {
	return e.record(ctx, ActionDebitRejected, SeverityWarning, OutcomeFailure,
		ResourceAccount, accountID.String(), CategoryAccess, reason,
		"action", string(kind),
		"amount", amount,
	)
}

// OnDebitFailed implements plugin.OnDebitFailed.
func (e *Extension) OnDebitFailed(ctx context.Context, entry *transaction.Entry, reason error) error {
	return e.record(ctx, ActionDebitFailed, failureSeverity(reason), OutcomeFailure,
		ResourceLedgerEntry, entry.ID.String(), CategoryBilling, reason,
		"account_id", entry.AccountID.String(),
		"action", string(entry.Action),
		"amount", -entry.Amount,
		"session_id", entry.SessionID,
	)
}

// OnChargeBypassed implements plugin.OnChargeBypassed.
func (e *Extension) OnChargeBypassed(ctx context.Context, accountID id.AccountID, kind action.Kind, referenceID string) error {
	return e.record(ctx, ActionChargeBypassed, SeverityInfo, OutcomeSuccess,
		ResourceAccount, accountID.String(), CategoryBilling, nil,
		"action", string(kind),
		"reference_id", referenceID,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event unless it is filtered out.
func (e *Extension) record(
	ctx context.Context,
	act, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.skip[act] || severityRank[severity] < e.minRank {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     act,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", act,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

// failureSeverity separates a lost race from a ledger outage.
func failureSeverity(reason error) string {
	if errors.Is(reason, ledger.ErrTransactionConflict) {
		return SeverityWarning
	}
	if errors.Is(reason, ledger.ErrLedgerUnavailable) {
		return SeverityCritical
	}
	return SeverityError
}
