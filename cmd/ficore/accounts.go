package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ficoreafrica/ledger/account"
	"github.com/ficoreafrica/ledger/id"
	"github.com/ficoreafrica/ledger/transaction"
)

func newAccountsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage credit accounts",
	}
	cmd.AddCommand(
		newAccountsCreateCmd(opts),
		newAccountsBalanceCmd(opts),
		newAccountsStatementCmd(opts),
	)
	return cmd
}

func newAccountsCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		email   string
		name    string
		balance int64
		admin   bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open an account with a starting balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, st, err := opts.openLedger(contextOf(cmd))
			if err != nil {
				return err
			}
			defer st.Close()

			a := &account.Account{Email: email, DisplayName: name, Balance: balance}
			if admin {
				a.Role = account.RoleAdmin
			}
			if err := l.OpenAccount(contextOf(cmd), a); err != nil {
				return fmt.Errorf("open account: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().Int64Var(&balance, "balance", 0, "Starting credit balance")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant the admin role, which bypasses charges")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newAccountsBalanceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Print an account balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := id.ParseAccountID(args[0])
			if err != nil {
				return err
			}
			l, st, err := opts.openLedger(contextOf(cmd))
			if err != nil {
				return err
			}
			defer st.Close()

			balance, err := l.Balance(contextOf(cmd), accountID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), balance)
			return nil
		},
	}
}

func newAccountsStatementCmd(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		status string
	)

	cmd := &cobra.Command{
		Use:   "statement <account-id>",
		Short: "List an account's ledger entries, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := id.ParseAccountID(args[0])
			if err != nil {
				return err
			}
			l, st, err := opts.openLedger(contextOf(cmd))
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := l.Statement(contextOf(cmd), accountID, transaction.ListOpts{
				Status: transaction.Status(status),
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tACTION\tAMOUNT\tSTATUS\tREFERENCE")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
					e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, e.Amount, e.Status, e.ReferenceID)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum entries")
	cmd.Flags().StringVar(&status, "status", "", "Only entries with this status (completed, failed)")
	return cmd
}
