package transaction

import (
	"context"

	"github.com/ficoreafrica/ledger/id"
)

type Store interface {
	InsertTransaction(ctx context.Context, e *Entry) error
	ListTransactions(ctx context.Context, accountID id.AccountID, opts ListOpts) ([]*Entry, error)
}
