package service

import (
	"context"

	"github.com/ficoreafrica/ledger/billing"
	"github.com/ficoreafrica/ledger/transaction"
)

// Credits is an account's balance with its latest ledger entries.
type Credits struct {
	Balance int64                `json:"balance"`
	Entries []*transaction.Entry `json:"entries"`
	Costs   billing.Schedule     `json:"costs"`
}

// Credits reads the balance and the most recent limit ledger entries.
func (s *Service) Credits(ctx context.Context, actor billing.Actor, limit int) (*Credits, error) {
	_, limit = NormalizePage(1, limit)

	a, err := s.store.GetAccount(ctx, actor.AccountID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListTransactions(ctx, actor.AccountID, transaction.ListOpts{Limit: limit})
	if err != nil {
		return nil, err
	}
	return &Credits{Balance: a.Balance, Entries: entries, Costs: s.gateway.Schedule()}, nil
}
