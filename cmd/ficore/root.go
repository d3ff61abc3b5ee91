package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/app"
	"github.com/ficoreafrica/ledger/config"
	"github.com/ficoreafrica/ledger/store"
)

type rootOptions struct {
	configPath string
	envFile    string
	driver     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "ficore",
		Short:        "Ficore budget service",
		Long:         "Serve the budget tool and manage the credit accounts it charges.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "TOML config file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded when present")
	root.PersistentFlags().StringVar(&opts.driver, "store", "", "Store driver override (memory, sqlite, postgres, mongo)")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newAccountsCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

// load reads the configuration and applies flag overrides.
func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath, o.envFile)
	if err != nil {
		return cfg, err
	}
	if o.driver != "" {
		cfg.Store.Driver = o.driver
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func (o *rootOptions) logger(cfg config.Config) (*slog.Logger, error) {
	return cfg.Log.NewLogger(os.Stderr)
}

// openLedger opens the configured store, migrates it and returns a ledger
// over it. The caller closes the store.
func (o *rootOptions) openLedger(ctx context.Context) (*ledger.Ledger, store.Store, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := o.logger(cfg)
	if err != nil {
		return nil, nil, err
	}

	st, err := app.OpenStore(cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return ledger.New(st, ledger.WithLogger(logger)), st, nil
}
