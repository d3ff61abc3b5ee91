// Package memory provides an in-process store.Store for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/account"
	"github.com/ficoreafrica/ledger/audit"
	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/id"
	ledgerstore "github.com/ficoreafrica/ledger/store"
	"github.com/ficoreafrica/ledger/transaction"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	accounts     map[string]*account.Account
	emails       map[string]string
	transactions []*transaction.Entry
	audits       []*audit.Entry
	budgets      map[string]*budget.Budget

	beforeCommit func() error
}

// Option configures a memory Store.
type Option func(*Store)

// WithCommitHook installs fn to run after a transaction's writes are staged
// and before they are applied. A non-nil error discards the writes, which
// lets tests simulate a failed commit.
func WithCommitHook(fn func() error) Option {
	return func(s *Store) {
		s.beforeCommit = fn
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		accounts: make(map[string]*account.Account),
		emails:   make(map[string]string),
		budgets:  make(map[string]*budget.Budget),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ==================== Account Store ====================

func (s *Store) CreateAccount(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID.String()]; exists {
		return ledger.ErrAlreadyExists
	}
	email := strings.ToLower(a.Email)
	if _, exists := s.emails[email]; exists && email != "" {
		return ledger.ErrAlreadyExists
	}

	cp := *a
	s.accounts[a.ID.String()] = &cp
	if email != "" {
		s.emails[email] = a.ID.String()
	}
	return nil
}

func (s *Store) GetAccount(_ context.Context, accountID id.AccountID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[accountID.String()]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) GetAccountByEmail(_ context.Context, email string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	cp := *s.accounts[key]
	return &cp, nil
}

// ==================== Ledger Entry Store ====================

func (s *Store) InsertTransaction(_ context.Context, e *transaction.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertTransaction(e)
}

func (s *Store) insertTransaction(e *transaction.Entry) error {
	for _, existing := range s.transactions {
		if existing.ID == e.ID {
			return ledger.ErrAlreadyExists
		}
	}
	cp := *e
	s.transactions = append(s.transactions, &cp)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, accountID id.AccountID, opts transaction.ListOpts) ([]*transaction.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*transaction.Entry, 0)
	for i := len(s.transactions) - 1; i >= 0; i-- {
		e := s.transactions[i]
		if e.AccountID != accountID {
			continue
		}
		if opts.Status != "" && e.Status != opts.Status {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

// ==================== Audit Store ====================

func (s *Store) InsertAudit(_ context.Context, e *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	s.audits = append(s.audits, &cp)
	return nil
}

func (s *Store) ListAudit(_ context.Context, actor string, opts audit.ListOpts) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*audit.Entry, 0)
	for i := len(s.audits) - 1; i >= 0; i-- {
		e := s.audits[i]
		if actor != "" && e.Actor != actor {
			continue
		}
		if opts.Action != "" && e.Action != opts.Action {
			continue
		}
		if opts.Type != "" && e.Type != opts.Type {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

// ==================== Budget Store ====================

func (s *Store) CreateBudget(_ context.Context, b *budget.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.budgets[b.ID.String()]; exists {
		return ledger.ErrAlreadyExists
	}
	cp := *b
	s.budgets[b.ID.String()] = &cp
	return nil
}

func (s *Store) GetBudget(_ context.Context, ownerID id.AccountID, budgetID id.BudgetID) (*budget.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.budgets[budgetID.String()]
	if !ok || b.OwnerID != ownerID {
		return nil, ledger.ErrBudgetNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *Store) ListBudgets(_ context.Context, ownerID id.AccountID, opts budget.ListOpts) ([]*budget.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*budget.Budget, 0)
	for _, b := range s.budgets {
		if b.OwnerID == ownerID {
			cp := *b
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountBudgets(_ context.Context, ownerID id.AccountID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, b := range s.budgets {
		if b.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteBudget(_ context.Context, ownerID id.AccountID, budgetID id.BudgetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.budgets[budgetID.String()]
	if !ok || b.OwnerID != ownerID {
		return ledger.ErrBudgetNotFound
	}
	delete(s.budgets, budgetID.String())
	return nil
}

// ==================== Transactions ====================

// Transact holds the write lock for the whole of fn, so transactions on
// this store are fully serialized.
func (s *Store) Transact(ctx context.Context, fn func(ctx context.Context, tx ledgerstore.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, balances: make(map[string]int64)}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	if s.beforeCommit != nil {
		if err := s.beforeCommit(); err != nil {
			return fmt.Errorf("%w: %w", ledger.ErrCommitFailed, err)
		}
	}

	for _, e := range tx.transactions {
		for _, existing := range s.transactions {
			if existing.ID == e.ID {
				return ledger.ErrAlreadyExists
			}
		}
	}

	for accountID, balance := range tx.balances {
		s.accounts[accountID].Balance = balance
	}
	s.transactions = append(s.transactions, tx.transactions...)
	s.audits = append(s.audits, tx.audits...)
	return nil
}

// memTx stages writes until Transact decides to apply them.
type memTx struct {
	store        *Store
	balances     map[string]int64
	transactions []*transaction.Entry
	audits       []*audit.Entry
}

func (t *memTx) DecrementBalance(_ context.Context, accountID id.AccountID, amount int64) (int64, error) {
	key := accountID.String()

	current, staged := t.balances[key]
	if !staged {
		a, ok := t.store.accounts[key]
		if !ok {
			return 0, ledger.ErrNoRowsAffected
		}
		current = a.Balance
	}

	if current < amount {
		return 0, ledger.ErrNoRowsAffected
	}

	t.balances[key] = current - amount
	return current - amount, nil
}

func (t *memTx) InsertTransaction(_ context.Context, e *transaction.Entry) error {
	cp := *e
	t.transactions = append(t.transactions, &cp)
	return nil
}

func (t *memTx) InsertAudit(_ context.Context, e *audit.Entry) error {
	cp := *e
	t.audits = append(t.audits, &cp)
	return nil
}

// ==================== Core ====================

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func paginate[T any](items []T, offset, limit int) []T {
	start := max(0, offset)
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
