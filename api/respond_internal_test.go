package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/action"
	"github.com/ficoreafrica/ledger/billing"
)

func TestClassifyUnknownActionConsistently(t *testing.T) {
	_, scheduleErr := billing.DefaultSchedule().Cost(action.ViewBudgetDashboard)
	tests := []struct {
		name string
		err  error
	}{
		{"schedule", scheduleErr},
		{"ledger", ledger.UnknownActionError{Kind: "launch_rocket"}},
		{"wrapped", fmt.Errorf("charge: %w", ledger.UnknownActionError{Kind: "x"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := classify(tt.err, msgFailed)
			if status != http.StatusBadRequest || msg != msgInvalidInput {
				t.Errorf("classify = %d %q, want 400 %q", status, msg, msgInvalidInput)
			}
		})
	}
}

func TestClassifyChargeFailures(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&ledger.InsufficientBalanceError{Balance: 0, Required: 1}, http.StatusPaymentRequired},
		{ledger.ErrTransactionConflict, http.StatusPaymentRequired},
		{ledger.ErrInvalidAmount, http.StatusPaymentRequired},
		{ledger.ErrInvalidUser, http.StatusUnauthorized},
		{fmt.Errorf("%w: down", ledger.ErrLedgerUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if status, _ := classify(tt.err, msgFailed); status != tt.want {
			t.Errorf("classify(%v) = %d, want %d", tt.err, status, tt.want)
		}
	}
}
