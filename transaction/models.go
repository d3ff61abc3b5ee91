package transaction

import (
	"time"

	"github.com/ficoreafrica/ledger/action"
	"github.com/ficoreafrica/ledger/id"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Entry is one debit attempt. Amount is signed and negative for debits.
// Entries are never updated or removed.
type Entry struct {
	ID          id.TransactionID `json:"id"`
	AccountID   id.AccountID     `json:"account_id"`
	Action      action.Kind      `json:"action"`
	Amount      int64            `json:"amount"`
	ReferenceID string           `json:"reference_id,omitempty"`
	SessionID   string           `json:"session_id,omitempty"`
	Status      Status           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
}

type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
