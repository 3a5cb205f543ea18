package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTrialBalanceCommand(a *app) *cobra.Command {
	var cutoff, xlsx string
	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Print per-account totals up to a cutoff date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			at, err := parseDate("cutoff", cutoff)
			if err != nil {
				return err
			}
			if xlsx != "" {
				file, err := a.container.Exports.TrialBalanceWorkbook(cmd.Context(), a.tenant, at)
				if err != nil {
					return err
				}
				return writeOutput(cmd, xlsx, file.Content)
			}

			tb, err := a.container.Ledger.ComputeTrialBalance(cmd.Context(), a.tenant, at)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "ACCOUNT\tNAME\tDEBIT\tCREDIT\tBALANCE\t")
			for _, row := range tb.Accounts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", row.Code, row.Name,
					row.TotalDebit.StringFixed(2), row.TotalCredit.StringFixed(2), row.Balance.StringFixed(2))
			}
			fmt.Fprintf(w, "TOTAL\t\t%s\t%s\t\t\n", tb.TotalDebit.StringFixed(2), tb.TotalCredit.StringFixed(2))
			if err := w.Flush(); err != nil {
				return err
			}
			if !tb.Balanced {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: trial balance at %s is not balanced\n", tb.Cutoff)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cutoff, "cutoff", "", "cutoff date, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "write a workbook to this file instead of printing")
	return cmd
}
