package billing

import (
	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/action"
)

// Schedule maps each billable action to its credit cost.
type Schedule map[action.Kind]int64

// DefaultSchedule returns the standard costs.
func DefaultSchedule() Schedule {
	return Schedule{
		action.CreateBudget:           1,
		action.DeleteBudget:           1,
		action.ExportBudgetPDFSingle:  1,
		action.ExportBudgetPDFHistory: 2,
	}
}

// Cost returns the credits charged for kind.
func (s Schedule) Cost(kind action.Kind) (int64, error) {
	cost, ok := s[kind]
	if !ok {
		return 0, ledger.UnknownActionError{Kind: string(kind)}
	}
	return cost, nil
}

// Validate checks that every billable kind has a positive cost and that
// nothing else is priced.
func (s Schedule) Validate() error {
	for _, kind := range action.Billable() {
		cost, ok := s[kind]
		if !ok {
			return ledger.ValidationError{Field: string(kind), Message: "missing cost"}
		}
		if cost <= 0 {
			return ledger.ValidationError{Field: string(kind), Message: "cost must be positive"}
		}
	}
	for kind := range s {
		if !kind.IsBillable() {
			return ledger.ValidationError{Field: string(kind), Message: "not a billable action"}
		}
	}
	return nil
}

// Merge returns a copy of s with overrides applied.
func (s Schedule) Merge(overrides map[string]int64) Schedule {
	out := make(Schedule, len(s))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range overrides {
		out[action.Kind(k)] = v
	}
	return out
}
