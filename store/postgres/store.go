// Package postgres implements store.Store on PostgreSQL through GORM.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

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

// Store implements store.Store using PostgreSQL via GORM.
type Store struct {
	db *gorm.DB
}

// New wraps an existing GORM handle. The handle should be opened with
// TranslateError enabled so duplicate keys surface as ledger.ErrAlreadyExists.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open connects to the database described by dsn.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: open: %w", err)
	}
	return New(db), nil
}

// DB returns the underlying GORM handle for direct access.
func (s *Store) DB() *gorm.DB { return s.db }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range migrations {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("ledger/postgres: migration failed: %w", err)
			}
		}
		return nil
	})
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ==================== Account Store ====================

func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	m := toAccountModel(a)
	m.Email = strings.ToLower(m.Email)
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicate(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/postgres: create account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	return s.findAccount(ctx, "id = ?", accountID.String())
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.findAccount(ctx, "email = ?", strings.ToLower(email))
}

func (s *Store) findAccount(ctx context.Context, where string, arg any) (*account.Account, error) {
	m := new(accountModel)
	if err := s.db.WithContext(ctx).Where(where, arg).Take(m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, fmt.Errorf("ledger/postgres: get account: %w", err)
	}
	return fromAccountModel(m)
}

// ==================== Ledger Entry Store ====================

func (s *Store) InsertTransaction(ctx context.Context, e *transaction.Entry) error {
	return insertTransaction(s.db.WithContext(ctx), e)
}

func insertTransaction(db *gorm.DB, e *transaction.Entry) error {
	if err := db.Create(toTransactionModel(e)).Error; err != nil {
		if isDuplicate(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/postgres: insert transaction: %w", err)
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, accountID id.AccountID, opts transaction.ListOpts) ([]*transaction.Entry, error) {
	q := s.db.WithContext(ctx).Where("account_id = ?", accountID.String())
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}

	var models []transactionModel
	if err := paged(q.Order("created_at DESC, id DESC"), opts.Limit, opts.Offset).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("ledger/postgres: list transactions: %w", err)
	}

	result := make([]*transaction.Entry, 0, len(models))
	for i := range models {
		e, err := fromTransactionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

// ==================== Audit Store ====================

func (s *Store) InsertAudit(ctx context.Context, e *audit.Entry) error {
	return insertAudit(s.db.WithContext(ctx), e)
}

func insertAudit(db *gorm.DB, e *audit.Entry) error {
	m, err := toAuditModel(e)
	if err != nil {
		return fmt.Errorf("ledger/postgres: encode audit details: %w", err)
	}
	if err := db.Create(m).Error; err != nil {
		return fmt.Errorf("ledger/postgres: insert audit: %w", err)
	}
	return nil
}

func (s *Store) ListAudit(ctx context.Context, actor string, opts audit.ListOpts) ([]*audit.Entry, error) {
	q := s.db.WithContext(ctx).Model(&auditModel{})
	if actor != "" {
		q = q.Where("actor = ?", actor)
	}
	if opts.Action != "" {
		q = q.Where("action = ?", string(opts.Action))
	}
	if opts.Type != "" {
		q = q.Where("type = ?", string(opts.Type))
	}

	var models []auditModel
	if err := paged(q.Order("created_at DESC, id DESC"), opts.Limit, opts.Offset).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("ledger/postgres: list audit: %w", err)
	}

	result := make([]*audit.Entry, 0, len(models))
	for i := range models {
		e, err := fromAuditModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

// ==================== Budget Store ====================

func (s *Store) CreateBudget(ctx context.Context, b *budget.Budget) error {
	m, err := toBudgetModel(b)
	if err != nil {
		return fmt.Errorf("ledger/postgres: encode budget: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicate(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/postgres: create budget: %w", err)
	}
	return nil
}

func (s *Store) GetBudget(ctx context.Context, ownerID id.AccountID, budgetID id.BudgetID) (*budget.Budget, error) {
	m := new(budgetModel)
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", budgetID.String(), ownerID.String()).
		Take(m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrBudgetNotFound
		}
		return nil, fmt.Errorf("ledger/postgres: get budget: %w", err)
	}
	return fromBudgetModel(m)
}

func (s *Store) ListBudgets(ctx context.Context, ownerID id.AccountID, opts budget.ListOpts) ([]*budget.Budget, error) {
	q := s.db.WithContext(ctx).Where("owner_id = ?", ownerID.String()).Order("created_at DESC, id DESC")

	var models []budgetModel
	if err := paged(q, opts.Limit, opts.Offset).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("ledger/postgres: list budgets: %w", err)
	}

	result := make([]*budget.Budget, 0, len(models))
	for i := range models {
		b, err := fromBudgetModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, nil
}

func (s *Store) CountBudgets(ctx context.Context, ownerID id.AccountID) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&budgetModel{}).Where("owner_id = ?", ownerID.String()).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("ledger/postgres: count budgets: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteBudget(ctx context.Context, ownerID id.AccountID, budgetID id.BudgetID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", budgetID.String(), ownerID.String()).
		Delete(&budgetModel{})
	if res.Error != nil {
		return fmt.Errorf("ledger/postgres: delete budget: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ledger.ErrBudgetNotFound
	}
	return nil
}

// ==================== Transactions ====================

// Transact runs fn inside a database transaction, rolled back when fn
// fails or panics.
func (s *Store) Transact(ctx context.Context, fn func(ctx context.Context, tx ledgerstore.Tx) error) error {
	var (
		ran   bool
		fnErr error
	)
	err := s.db.WithContext(ctx).Transaction(func(dbTx *gorm.DB) error {
		ran = true
		fnErr = fn(ctx, &tx{db: dbTx})
		return fnErr
	})
	switch {
	case err == nil:
		return nil
	case !ran:
		return fmt.Errorf("ledger/postgres: begin: %w", err)
	case fnErr != nil:
		return aborted(fnErr)
	default:
		return fmt.Errorf("%w: %w", ledger.ErrCommitFailed, aborted(err))
	}
}

// SQLSTATE codes for a transaction the server aborted for a concurrent one.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// aborted marks serialization failures and deadlocks with
// ledger.ErrTransactionAborted.
func aborted(err error) error {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		switch pgErr.SQLState() {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected:
			return fmt.Errorf("%w: %w", ledger.ErrTransactionAborted, err)
		}
	}
	return err
}

type tx struct {
	db *gorm.DB
}

func (t *tx) DecrementBalance(ctx context.Context, accountID id.AccountID, amount int64) (int64, error) {
	db := t.db.WithContext(ctx)

	res := db.Model(&accountModel{}).
		Where("id = ? AND balance >= ?", accountID.String(), amount).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("ledger/postgres: decrement balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ledger.ErrNoRowsAffected
	}

	var balance int64
	if err := db.Raw("SELECT balance FROM ledger_accounts WHERE id = ?", accountID.String()).Row().Scan(&balance); err != nil {
		return 0, fmt.Errorf("ledger/postgres: read balance: %w", err)
	}
	return balance, nil
}

func (t *tx) InsertTransaction(ctx context.Context, e *transaction.Entry) error {
	return insertTransaction(t.db.WithContext(ctx), e)
}

func (t *tx) InsertAudit(ctx context.Context, e *audit.Entry) error {
	return insertAudit(t.db.WithContext(ctx), e)
}

// ==================== Helpers ====================

func paged(q *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	return q
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "SQLSTATE 23505")
}
