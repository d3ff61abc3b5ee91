// Package sqlite implements store.Store on SQLite through the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite" // register sqlite driver
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/account"
	"github.com/ficoreafrica/ledger/action"
	"github.com/ficoreafrica/ledger/audit"
	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/id"
	ledgerstore "github.com/ficoreafrica/ledger/store"
	"github.com/ficoreafrica/ledger/transaction"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// timeFormat is fixed width so text ordering matches time ordering.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database file at path.
//
// The pool is limited to one connection, so SQLite's single writer is
// never contended and transactions are serialized.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("ledger/sqlite: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("ledger/sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ledger/sqlite: migration failed: %w", err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ==================== Account Store ====================

const accountColumns = `id, email, display_name, role, balance, created_at, updated_at`

func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ledger_accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, strings.ToLower(a.Email), a.DisplayName, string(a.Role), a.Balance,
		a.CreatedAt.UTC().Format(timeFormat), a.UpdatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/sqlite: create account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM ledger_accounts WHERE id = ?`, accountID)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, fmt.Errorf("ledger/sqlite: get account: %w", err)
	}
	return a, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*account.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM ledger_accounts WHERE email = ?`, strings.ToLower(email))
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, fmt.Errorf("ledger/sqlite: get account by email: %w", err)
	}
	return a, nil
}

func scanAccount(row *sql.Row) (*account.Account, error) {
	var (
		a                    account.Account
		role                 string
		createdAt, updatedAt string
	)
	if err := row.Scan(&a.ID, &a.Email, &a.DisplayName, &role, &a.Balance, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	a.Role = account.Role(role)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}

// ==================== Ledger Entry Store ====================

func (s *Store) InsertTransaction(ctx context.Context, e *transaction.Entry) error {
	return insertTransaction(ctx, s.db, e)
}

func insertTransaction(ctx context.Context, q querier, e *transaction.Entry) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO ledger_transactions (id, account_id, action, amount, reference_id, session_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AccountID, string(e.Action), e.Amount, e.ReferenceID, e.SessionID, string(e.Status),
		e.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/sqlite: insert transaction: %w", err)
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, accountID id.AccountID, opts transaction.ListOpts) ([]*transaction.Entry, error) {
	query := `SELECT id, account_id, action, amount, reference_id, session_id, status, created_at
		FROM ledger_transactions WHERE account_id = ?`
	args := []any{accountID}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC` + limitClause(opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger/sqlite: list transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]*transaction.Entry, 0)
	for rows.Next() {
		var (
			e                    transaction.Entry
			kind, status, crTime string
		)
		if err := rows.Scan(&e.ID, &e.AccountID, &kind, &e.Amount, &e.ReferenceID, &e.SessionID, &status, &crTime); err != nil {
			return nil, fmt.Errorf("ledger/sqlite: scan transaction: %w", err)
		}
		e.Action = action.Kind(kind)
		e.Status = transaction.Status(status)
		e.CreatedAt = parseTime(crTime)
		result = append(result, &e)
	}
	return result, rows.Err()
}

// ==================== Audit Store ====================

func (s *Store) InsertAudit(ctx context.Context, e *audit.Entry) error {
	return insertAudit(ctx, s.db, e)
}

func insertAudit(ctx context.Context, q querier, e *audit.Entry) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("ledger/sqlite: encode audit details: %w", err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO ledger_audit_logs (id, actor, action, type, details, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Actor, string(e.Action), string(e.Type), string(details), e.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("ledger/sqlite: insert audit: %w", err)
	}
	return nil
}

func (s *Store) ListAudit(ctx context.Context, actor string, opts audit.ListOpts) ([]*audit.Entry, error) {
	query := `SELECT id, actor, action, type, details, created_at FROM ledger_audit_logs WHERE 1 = 1`
	var args []any
	if actor != "" {
		query += ` AND actor = ?`
		args = append(args, actor)
	}
	if opts.Action != "" {
		query += ` AND action = ?`
		args = append(args, string(opts.Action))
	}
	if opts.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(opts.Type))
	}
	query += ` ORDER BY created_at DESC, id DESC` + limitClause(opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger/sqlite: list audit: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]*audit.Entry, 0)
	for rows.Next() {
		var (
			e                          audit.Entry
			kind, typ, details, crTime string
		)
		if err := rows.Scan(&e.ID, &e.Actor, &kind, &typ, &details, &crTime); err != nil {
			return nil, fmt.Errorf("ledger/sqlite: scan audit: %w", err)
		}
		if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
			return nil, fmt.Errorf("ledger/sqlite: decode audit details: %w", err)
		}
		e.Action = action.Kind(kind)
		e.Type = audit.Type(typ)
		e.CreatedAt = parseTime(crTime)
		result = append(result, &e)
	}
	return result, rows.Err()
}

// ==================== Budget Store ====================

const budgetColumns = `id, owner_id, income, housing, food, transport, miscellaneous, others,
	savings_goal, dependents, custom_categories, fixed_expenses, variable_expenses,
	surplus_deficit, session_id, created_at, updated_at`

func (s *Store) CreateBudget(ctx context.Context, b *budget.Budget) error {
	cats, err := json.Marshal(b.CustomCategories)
	if err != nil {
		return fmt.Errorf("ledger/sqlite: encode categories: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.Income.String(), b.Housing.String(), b.Food.String(), b.Transport.String(),
		b.Miscellaneous.String(), b.Others.String(), b.SavingsGoal.String(), b.Dependents, string(cats),
		b.FixedExpenses.String(), b.VariableExpenses.String(), b.SurplusDeficit.String(), b.SessionID,
		b.CreatedAt.UTC().Format(timeFormat), b.UpdatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/sqlite: create budget: %w", err)
	}
	return nil
}

func (s *Store) GetBudget(ctx context.Context, ownerID id.AccountID, budgetID id.BudgetID) (*budget.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND owner_id = ?`, budgetID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ledger/sqlite: get budget: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("ledger/sqlite: get budget: %w", err)
		}
		return nil, ledger.ErrBudgetNotFound
	}
	return scanBudget(rows)
}

func (s *Store) ListBudgets(ctx context.Context, ownerID id.AccountID, opts budget.ListOpts) ([]*budget.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE owner_id = ? ORDER BY created_at DESC, id DESC`+
			limitClause(opts.Limit, opts.Offset), ownerID)
	if err != nil {
		return nil, fmt.Errorf("ledger/sqlite: list budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]*budget.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (s *Store) CountBudgets(ctx context.Context, ownerID id.AccountID) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM budgets WHERE owner_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("ledger/sqlite: count budgets: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteBudget(ctx context.Context, ownerID id.AccountID, budgetID id.BudgetID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND owner_id = ?`, budgetID, ownerID)
	if err != nil {
		return fmt.Errorf("ledger/sqlite: delete budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ledger/sqlite: delete budget: %w", err)
	}
	if n == 0 {
		return ledger.ErrBudgetNotFound
	}
	return nil
}

func scanBudget(rows *sql.Rows) (*budget.Budget, error) {
	var (
		b                                                      budget.Budget
		income, housing, food, transport, misc, others, saving string
		cats, fixed, variable, surplus, createdAt, updatedAt   string
	)
	if err := rows.Scan(&b.ID, &b.OwnerID, &income, &housing, &food, &transport, &misc, &others,
		&saving, &b.Dependents, &cats, &fixed, &variable, &surplus, &b.SessionID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("ledger/sqlite: scan budget: %w", err)
	}
	if err := json.Unmarshal([]byte(cats), &b.CustomCategories); err != nil {
		return nil, fmt.Errorf("ledger/sqlite: decode categories: %w", err)
	}

	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&b.Income, income}, {&b.Housing, housing}, {&b.Food, food}, {&b.Transport, transport},
		{&b.Miscellaneous, misc}, {&b.Others, others}, {&b.SavingsGoal, saving},
		{&b.FixedExpenses, fixed}, {&b.VariableExpenses, variable}, {&b.SurplusDeficit, surplus},
	} {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return nil, fmt.Errorf("ledger/sqlite: decode amount %q: %w", f.src, err)
		}
		*f.dst = d
	}

	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}

// ==================== Transactions ====================

// Transact runs fn inside a database transaction.
func (s *Store) Transact(ctx context.Context, fn func(ctx context.Context, tx ledgerstore.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger/sqlite: begin: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(ctx, &tx{tx: sqlTx}); err != nil {
		return aborted(err)
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ledger.ErrCommitFailed, aborted(err))
	}
	return nil
}

// aborted marks lock contention with ledger.ErrTransactionAborted. The
// driver reports extended result codes; the low byte is the primary code.
func aborted(err error) error {
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		switch coded.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %w", ledger.ErrTransactionAborted, err)
		}
	}
	return err
}

type tx struct {
	tx *sql.Tx
}

func (t *tx) DecrementBalance(ctx context.Context, accountID id.AccountID, amount int64) (int64, error) {
	var balance int64
	err := t.tx.QueryRowContext(ctx,
		`UPDATE ledger_accounts SET balance = balance - ?, updated_at = ?
		WHERE id = ? AND balance >= ? RETURNING balance`,
		amount, time.Now().UTC().Format(timeFormat), accountID, amount,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ledger.ErrNoRowsAffected
		}
		return 0, fmt.Errorf("ledger/sqlite: decrement balance: %w", err)
	}
	return balance, nil
}

func (t *tx) InsertTransaction(ctx context.Context, e *transaction.Entry) error {
	return insertTransaction(ctx, t.tx, e)
}

func (t *tx) InsertAudit(ctx context.Context, e *audit.Entry) error {
	return insertAudit(ctx, t.tx, e)
}

// ==================== Helpers ====================

func limitClause(limit, offset int) string {
	if limit <= 0 && offset <= 0 {
		return ""
	}
	if limit <= 0 {
		limit = -1
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
