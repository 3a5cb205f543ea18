package cli

import (
	"fmt"
	"text/tabwriter"

	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/spf13/cobra"
)

func newAccountsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage the chart of accounts",
	}

	var q appledger.ListAccountsQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts ordered by code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := a.container.Ledger.ListAccounts(cmd.Context(), a.tenant, q)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tCATEGORY\tCOUNTRY")
			for _, acc := range accounts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", acc.Code, acc.Name, acc.Category, acc.Country)
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&q.Category, "category", "", "asset, liability, equity, revenue or expense")
	list.Flags().StringVar(&q.Country, "country", "", "BE, FR or OHADA")

	var req appledger.UpsertAccountRequest
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an account, or update it with --allow-update",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			acc, err := a.container.Ledger.UpsertAccount(cmd.Context(), a.tenant, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s, %s)\n", acc.Code, acc.Name, acc.Category, acc.Country)
			return nil
		},
	}
	add.Flags().StringVar(&req.Code, "code", "", "account code")
	add.Flags().StringVar(&req.Name, "name", "", "account name")
	add.Flags().StringVar(&req.Category, "category", "", "asset, liability, equity, revenue or expense")
	add.Flags().StringVar(&req.Country, "country", "", "chart country (default: ledger.default_country)")
	add.Flags().BoolVar(&req.AllowUpdate, "allow-update", false, "update name and category of an existing account")
	_ = add.MarkFlagRequired("code")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("category")

	var country string
	remove := &cobra.Command{
		Use:   "delete <code>",
		Short: "Delete an account that no entry references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.container.Ledger.DeleteAccount(cmd.Context(), a.tenant, country, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
	remove.Flags().StringVar(&country, "country", "", "chart country (default: ledger.default_country)")

	cmd.AddCommand(list, add, remove)
	return cmd
}
