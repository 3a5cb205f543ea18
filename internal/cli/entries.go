package cli

import (
	"fmt"
	"text/tabwriter"

	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/spf13/cobra"
)

func newEntriesCommand(a *app) *cobra.Command {
	var (
		q        appledger.ListEntriesQuery
		from, to string
	)
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List journal lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if q.From, err = parseDate("from", from); err != nil {
				return err
			}
			if q.To, err = parseDate("to", to); err != nil {
				return err
			}
			lines, err := a.container.Ledger.ListEntries(cmd.Context(), a.tenant, q)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "DATE\tJOURNAL\tREF\tACCOUNT\tDEBIT\tCREDIT\tDESCRIPTION\t")
			for _, l := range lines {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
					l.TransactionDate.Format(dateLayout), l.Journal, l.EntryRef, l.AccountCode,
					l.Debit.StringFixed(2), l.Credit.StringFixed(2), l.Description)
			}
			return w.Flush()
		},
	}
	f := cmd.Flags()
	f.StringVar(&from, "from", "", "first transaction date, YYYY-MM-DD")
	f.StringVar(&to, "to", "", "last transaction date, YYYY-MM-DD")
	f.StringVar(&q.AccountCode, "account", "", "account code")
	f.StringVar(&q.Journal, "journal", "", "journal code (VE, AC, BQ, OD, AN)")
	f.StringVar(&q.SourceType, "source", "", "source document type")
	f.IntVar(&q.Limit, "limit", 0, "maximum number of lines (default: ledger.default_entry_limit)")
	f.BoolVar(&q.Descending, "desc", false, "newest first")
	return cmd
}
