package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/id"
)

// DefaultTTL bounds how stale a cached page can get.
const DefaultTTL = 5 * time.Minute

// Redis is a BudgetCache backed by Redis. Page keys for an owner are
// tracked in a set so Invalidate can remove them together.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

var _ BudgetCache = (*Redis)(nil)

// RedisOption configures a Redis cache.
type RedisOption func(*Redis)

// WithTTL sets the lifetime of cached pages.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RedisOption {
	return func(r *Redis) { r.logger = logger }
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		prefix: "ficore",
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int, opts ...RedisOption) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping redis: %w", err)
	}
	return NewRedis(client, opts...), nil
}

// Close closes the client.
func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) pageKey(ownerID id.AccountID, page, limit int) string {
	return fmt.Sprintf("%s:budgets:%s:%d:%d", r.prefix, ownerID.String(), page, limit)
}

func (r *Redis) indexKey(ownerID id.AccountID) string {
	return fmt.Sprintf("%s:budgets:%s:keys", r.prefix, ownerID.String())
}

func (r *Redis) Budgets(ctx context.Context, ownerID id.AccountID, page, limit int) ([]*budget.Budget, bool) {
	val, err := r.client.Get(ctx, r.pageKey(ownerID, page, limit)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("cache: read budgets", "account_id", ownerID.String(), "error", err)
		}
		return nil, false
	}

	var budgets []*budget.Budget
	if err := json.Unmarshal(val, &budgets); err != nil {
		r.logger.Warn("cache: decode budgets", "account_id", ownerID.String(), "error", err)
		return nil, false
	}
	return budgets, true
}

func (r *Redis) SetBudgets(ctx context.Context, ownerID id.AccountID, page, limit int, budgets []*budget.Budget) error {
	data, err := json.Marshal(budgets)
	if err != nil {
		return fmt.Errorf("cache: encode budgets: %w", err)
	}

	key := r.pageKey(ownerID, page, limit)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, data, r.ttl)
	pipe.SAdd(ctx, r.indexKey(ownerID), key)
	pipe.Expire(ctx, r.indexKey(ownerID), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache: store budgets: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, ownerID id.AccountID) error {
	index := r.indexKey(ownerID)
	keys, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("cache: list cached pages: %w", err)
	}
	keys = append(keys, index)
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: invalidate budgets: %w", err)
	}
	return nil
}
