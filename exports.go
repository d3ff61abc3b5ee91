package ledger

import (
	"github.com/ficoreafrica/ledger/account"
	"github.com/ficoreafrica/ledger/transaction"
)

// Account is a credit account. Aliased here so callers opening accounts
// need only this package.
type Account = account.Account

// Entry is one row of an account's statement.
type Entry = transaction.Entry
