package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ficoreafrica/ledger/auth"
	"github.com/ficoreafrica/ledger/id"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token <account-id>",
		Short: "Issue an access token for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := id.ParseAccountID(args[0])
			if err != nil {
				return err
			}

			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := cfg.RequireSecret(); err != nil {
				return err
			}
			authn, err := auth.New(cfg.Auth.Secret, auth.WithIssuer(cfg.Auth.Issuer), auth.WithTTL(cfg.Auth.TokenTTL))
			if err != nil {
				return err
			}

			l, st, err := opts.openLedger(contextOf(cmd))
			if err != nil {
				return err
			}
			defer st.Close()

			a, err := l.Account(contextOf(cmd), accountID)
			if err != nil {
				return err
			}
			token, err := authn.Issue(a.ID, a.Role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
