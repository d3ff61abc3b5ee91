package account

import (
	"context"

	"github.com/ficoreafrica/ledger/id"
)

// Store persists accounts. Balances change only through a ledger
// transaction; there is no update method here.
type Store interface {
	CreateAccount(ctx context.Context, a *Account) error
	GetAccount(ctx context.Context, accountID id.AccountID) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
}
