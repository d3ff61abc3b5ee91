// Package observability provides a metrics extension for the ledger that
// records debit outcomes through a MetricFactory.
package observability

import (
	"context"
	"errors"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/action"
	"github.com/ficoreafrica/ledger/id"
	"github.com/ficoreafrica/ledger/plugin"
	"github.com/ficoreafrica/ledger/transaction"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin           = (*MetricsExtension)(nil)
	_ plugin.OnInit           = (*MetricsExtension)(nil)
	_ plugin.OnDebitCompleted = (*MetricsExtension)(nil)
	_ plugin.OnDebitRejected  = (*MetricsExtension)(nil)
	_ plugin.OnDebitFailed    = (*MetricsExtension)(nil)
	_ plugin.OnChargeBypassed = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger debit metrics.
// Register it as a ledger plugin to track charges automatically.
type MetricsExtension struct {
	factory MetricFactory

	// Debit metrics
	DebitsCompleted Counter
	CreditsDebited  Counter
	BalanceAfter    Histogram

	// Rejections by cause
	RejectedInsufficient Counter
	RejectedInvalid      Counter
	RejectedOther        Counter

	// Aborted transactions
	DebitConflicts   Counter
	DebitUnavailable Counter

	ChargesBypassed Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		DebitsCompleted: factory.Counter("ledger.debits.completed"),
		CreditsDebited:  factory.Counter("ledger.credits.debited"),
		BalanceAfter:    factory.Histogram("ledger.balance.after_debit"),

		RejectedInsufficient: factory.Counter("ledger.debits.rejected.insufficient"),
		RejectedInvalid:      factory.Counter("ledger.debits.rejected.invalid"),
		RejectedOther:        factory.Counter("ledger.debits.rejected.other"),

		DebitConflicts:   factory.Counter("ledger.debits.conflict"),
		DebitUnavailable: factory.Counter("ledger.debits.unavailable"),

		ChargesBypassed: factory.Counter("ledger.charges.bypassed"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// OnDebitCompleted implements plugin.OnDebitCompleted.
func (m *MetricsExtension) OnDebitCompleted(_ context.Context, d *plugin.Debit) error {
	m.DebitsCompleted.Inc()
	m.CreditsDebited.Add(float64(d.PreviousBalance - d.NewBalance))
	m.BalanceAfter.Observe(float64(d.NewBalance))
	return nil
}

// OnDebitRejected implements plugin.OnDebitRejected.
func (m *MetricsExtension) OnDebitRejected(_ context.Context, _ id.AccountID, _ action.Kind, _ int64, reason error) error {
	switch {
	case errors.Is(reason, ledger.ErrInsufficientBalance):
		m.RejectedInsufficient.Inc()
	case errors.Is(reason, ledger.ErrInvalidUser),
		errors.Is(reason, ledger.ErrInvalidAmount),
		errors.Is(reason, ledger.ErrInvalidInput):
		m.RejectedInvalid.Inc()
	default:
		m.RejectedOther.Inc()
	}
	return nil
}

// OnDebitFailed implements plugin.OnDebitFailed.
func (m *MetricsExtension) OnDebitFailed(_ context.Context, _ *transaction.Entry, reason error) error {
	if errors.Is(reason, ledger.ErrTransactionConflict) {
		m.DebitConflicts.Inc()
	} else {
		m.DebitUnavailable.Inc()
	}
	return nil
}

// OnChargeBypassed implements plugin.OnChargeBypassed.
func (m *MetricsExtension) OnChargeBypassed(_ context.Context, _ id.AccountID, _ action.Kind, _ string) error {
	m.ChargesBypassed.Inc()
	return nil
}
