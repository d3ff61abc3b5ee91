package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/ficoreafrica/ledger/action"
	"github.com/ficoreafrica/ledger/id"
	"github.com/ficoreafrica/ledger/transaction"
)

// hookTimeout bounds a single plugin call.
const hookTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit           []OnInit
	onShutdown       []OnShutdown
	onDebitCompleted []OnDebitCompleted
	onDebitRejected  []OnDebitRejected
	onDebitFailed    []OnDebitFailed
	onChargeBypassed []OnChargeBypassed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnDebitCompleted); ok {
		r.onDebitCompleted = append(r.onDebitCompleted, v)
	}
	if v, ok := p.(OnDebitRejected); ok {
		r.onDebitRejected = append(r.onDebitRejected, v)
	}
	if v, ok := p.(OnDebitFailed); ok {
		r.onDebitFailed = append(r.onDebitFailed, v)
	}
	if v, ok := p.(OnChargeBypassed); ok {
		r.onChargeBypassed = append(r.onChargeBypassed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

// implementedInterfaces returns the hook names a plugin implements.
func implementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	check := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	check(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	check(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	check(reflect.TypeOf((*OnDebitCompleted)(nil)).Elem(), "OnDebitCompleted")
	check(reflect.TypeOf((*OnDebitRejected)(nil)).Elem(), "OnDebitRejected")
	check(reflect.TypeOf((*OnDebitFailed)(nil)).Elem(), "OnDebitFailed")
	check(reflect.TypeOf((*OnChargeBypassed)(nil)).Elem(), "OnChargeBypassed")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnInit", func() error {
			return p.OnInit(ctx, ledger)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnShutdown", func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitDebitCompleted emits a committed debit.
func (r *Registry) EmitDebitCompleted(ctx context.Context, d *Debit) {
	r.mu.RLock()
	plugins := r.onDebitCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnDebitCompleted", func() error {
			return p.OnDebitCompleted(ctx, d)
		})
	}
}

// EmitDebitRejected emits a debit that failed its preconditions.
func (r *Registry) EmitDebitRejected(ctx context.Context, accountID id.AccountID, kind action.Kind, amount int64, reason error) {
	r.mu.RLock()
	plugins := r.onDebitRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnDebitRejected", func() error {
			return p.OnDebitRejected(ctx, accountID, kind, amount, reason)
		})
	}
}

// EmitDebitFailed emits an aborted debit transaction.
func (r *Registry) EmitDebitFailed(ctx context.Context, entry *transaction.Entry, reason error) {
	r.mu.RLock()
	plugins := r.onDebitFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnDebitFailed", func() error {
			return p.OnDebitFailed(ctx, entry, reason)
		})
	}
}

// EmitChargeBypassed emits an uncharged billable action.
func (r *Registry) EmitChargeBypassed(ctx context.Context, accountID id.AccountID, kind action.Kind, referenceID string) {
	r.mu.RLock()
	plugins := r.onChargeBypassed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnChargeBypassed", func() error {
			return p.OnChargeBypassed(ctx, accountID, kind, referenceID)
		})
	}
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (r *Registry) dispatch(ctx context.Context, pluginName, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(hookTimeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
