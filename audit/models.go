package audit

import (
	"time"

	"github.com/ficoreafrica/ledger/action"
	"github.com/ficoreafrica/ledger/id"
)

// ActorSystem marks entries written by the ledger itself.
const ActorSystem = "system"

type Type string

const (
	TypeDebit    Type = "debit"
	TypeActivity Type = "activity"
)

// Entry is an immutable audit record.
type Entry struct {
	ID        id.AuditID  `json:"id"`
	Actor     string      `json:"actor"`
	Action    action.Kind `json:"action"`
	Type      Type        `json:"type"`
	Details   Details     `json:"details"`
	CreatedAt time.Time   `json:"created_at"`
}

// Label is the historical action name: debits are recorded as
// "deduct_credits_<kind>", activity entries as the kind itself.
func (e *Entry) Label() string {
	if e.Type == TypeDebit {
		return "deduct_credits_" + string(e.Action)
	}
	return string(e.Action)
}

// Details is the structured payload of an audit entry. Fields that do not
// apply to an action are left zero.
type Details struct {
	AccountID       string `json:"account_id,omitempty"`
	Amount          int64  `json:"amount,omitempty"`
	ReferenceID     string `json:"reference_id,omitempty"`
	PreviousBalance *int64 `json:"previous_balance,omitempty"`
	NewBalance      *int64 `json:"new_balance,omitempty"`
	BudgetID        string `json:"budget_id,omitempty"`
	LatestBudgetID  string `json:"latest_budget_id,omitempty"`
	BudgetCount     *int   `json:"budget_count,omitempty"`
	Email           string `json:"email,omitempty"`
	ExportType      string `json:"export_type,omitempty"`
}

type ListOpts struct {
	Action action.Kind
	Type   Type
	Limit  int
	Offset int
}
