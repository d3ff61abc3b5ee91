// Package mongo implements store.Store on MongoDB using the official v2
// driver. Debits use multi-document transactions, so the deployment must
// run as a replica set.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/account"
	"github.com/ficoreafrica/ledger/audit"
	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/id"
	ledgerstore "github.com/ficoreafrica/ledger/store"
	"github.com/ficoreafrica/ledger/transaction"
)

// Collection name constants.
const (
	colAccounts     = "ledger_accounts"
	colTransactions = "ledger_transactions"
	colAudit        = "ledger_audit_logs"
	colBudgets      = "budgets"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New creates a store on an already connected client.
func New(client *mongo.Client, database string) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
	}
}

// Open connects to uri and selects database.
func Open(uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: connect: %w", err)
	}
	return New(client, database), nil
}

// DB returns the underlying database for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

// Migrate creates indexes for all ledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.db.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("ledger/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// ==================== Account Store ====================

func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	m := toAccountModel(a)
	m.Email = strings.ToLower(m.Email)
	if _, err := s.db.Collection(colAccounts).InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/mongo: create account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	return s.findAccount(ctx, bson.M{"_id": accountID.String()})
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.findAccount(ctx, bson.M{"email": strings.ToLower(email)})
}

func (s *Store) findAccount(ctx context.Context, filter bson.M) (*account.Account, error) {
	var m accountModel
	err := s.db.Collection(colAccounts).FindOne(ctx, filter).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

// ==================== Ledger Entry Store ====================

func (s *Store) InsertTransaction(ctx context.Context, e *transaction.Entry) error {
	if _, err := s.db.Collection(colTransactions).InsertOne(ctx, toTransactionModel(e)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/mongo: insert transaction: %w", err)
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, accountID id.AccountID, opts transaction.ListOpts) ([]*transaction.Entry, error) {
	filter := bson.M{"account_id": accountID.String()}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	var models []transactionModel
	if err := s.find(ctx, colTransactions, filter, opts.Limit, opts.Offset, &models); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list transactions: %w", err)
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
	if _, err := s.db.Collection(colAudit).InsertOne(ctx, toAuditModel(e)); err != nil {
		return fmt.Errorf("ledger/mongo: insert audit: %w", err)
	}
	return nil
}

func (s *Store) ListAudit(ctx context.Context, actor string, opts audit.ListOpts) ([]*audit.Entry, error) {
	filter := bson.M{}
	if actor != "" {
		filter["actor"] = actor
	}
	if opts.Action != "" {
		filter["action"] = string(opts.Action)
	}
	if opts.Type != "" {
		filter["type"] = string(opts.Type)
	}

	var models []auditModel
	if err := s.find(ctx, colAudit, filter, opts.Limit, opts.Offset, &models); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list audit: %w", err)
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
	if _, err := s.db.Collection(colBudgets).InsertOne(ctx, toBudgetModel(b)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/mongo: create budget: %w", err)
	}
	return nil
}

func (s *Store) GetBudget(ctx context.Context, ownerID id.AccountID, budgetID id.BudgetID) (*budget.Budget, error) {
	var m budgetModel
	err := s.db.Collection(colBudgets).
		FindOne(ctx, bson.M{"_id": budgetID.String(), "owner_id": ownerID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrBudgetNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get budget: %w", err)
	}
	return fromBudgetModel(&m)
}

func (s *Store) ListBudgets(ctx context.Context, ownerID id.AccountID, opts budget.ListOpts) ([]*budget.Budget, error) {
	var models []budgetModel
	if err := s.find(ctx, colBudgets, bson.M{"owner_id": ownerID.String()}, opts.Limit, opts.Offset, &models); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list budgets: %w", err)
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
	n, err := s.db.Collection(colBudgets).CountDocuments(ctx, bson.M{"owner_id": ownerID.String()})
	if err != nil {
		return 0, fmt.Errorf("ledger/mongo: count budgets: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteBudget(ctx context.Context, ownerID id.AccountID, budgetID id.BudgetID) error {
	res, err := s.db.Collection(colBudgets).DeleteOne(ctx, bson.M{"_id": budgetID.String(), "owner_id": ownerID.String()})
	if err != nil {
		return fmt.Errorf("ledger/mongo: delete budget: %w", err)
	}
	if res.DeletedCount == 0 {
		return ledger.ErrBudgetNotFound
	}
	return nil
}

// ==================== Transactions ====================

// Transact runs fn inside a multi-document transaction. The transaction
// is attempted once. When the server aborts it for a concurrent writer the
// error matches ledger.ErrTransactionAborted.
func (s *Store) Transact(ctx context.Context, fn func(ctx context.Context, tx ledgerstore.Tx) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("ledger/mongo: start session: %w", err)
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	if err := sess.StartTransaction(); err != nil {
		return fmt.Errorf("ledger/mongo: start transaction: %w", err)
	}

	sctx := mongo.NewSessionContext(ctx, sess)
	if err := fn(sctx, &tx{store: s}); err != nil {
		_ = sess.AbortTransaction(context.WithoutCancel(ctx))
		return aborted(err)
	}

	if err := sess.CommitTransaction(sctx); err != nil {
		_ = sess.AbortTransaction(context.WithoutCancel(ctx))
		return fmt.Errorf("%w: %w", ledger.ErrCommitFailed, aborted(err))
	}
	return nil
}

// Server signals that a transaction lost to a concurrent one.
const (
	labelTransientTransaction = "TransientTransactionError"
	codeWriteConflict         = 112
)

// aborted marks err with ledger.ErrTransactionAborted when the server
// rolled the transaction back for a conflicting writer.
func aborted(err error) error {
	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorLabel(labelTransientTransaction) || se.HasErrorCode(codeWriteConflict)) {
		return fmt.Errorf("%w: %w", ledger.ErrTransactionAborted, err)
	}
	return err
}

// tx issues its writes with the session context handed to fn.
type tx struct {
	store *Store
}

func (t *tx) DecrementBalance(ctx context.Context, accountID id.AccountID, amount int64) (int64, error) {
	var m accountModel
	err := t.store.db.Collection(colAccounts).FindOneAndUpdate(ctx,
		bson.M{"_id": accountID.String(), "balance": bson.M{"$gte": amount}},
		bson.M{
			"$inc": bson.M{"balance": -amount},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return 0, ledger.ErrNoRowsAffected
		}
		return 0, fmt.Errorf("ledger/mongo: decrement balance: %w", err)
	}
	return m.Balance, nil
}

func (t *tx) InsertTransaction(ctx context.Context, e *transaction.Entry) error {
	return t.store.InsertTransaction(ctx, e)
}

func (t *tx) InsertAudit(ctx context.Context, e *audit.Entry) error {
	return t.store.InsertAudit(ctx, e)
}

// ==================== Helpers ====================

// find runs a newest-first query with optional paging and decodes every
// document into out.
func (s *Store) find(ctx context.Context, col string, filter bson.M, limit, offset int, out any) error {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}

	cursor, err := s.db.Collection(col).Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all ledger collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colAccounts: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"email": bson.M{"$gt": ""}}),
			},
		},
		colTransactions: {
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		colAudit: {
			{Keys: bson.D{{Key: "actor", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "action", Value: 1}}},
		},
		colBudgets: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
}
