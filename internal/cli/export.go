package cli

import (
	"context"
	"fmt"
	"time"

	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type periodExport func(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (*appledger.FileResponse, error)

func newExportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Produce regulatory exports",
	}
	cmd.AddCommand(
		newPeriodExportCommand(a, "ledger-text", "Pipe-delimited ledger listing for tax audits",
			func(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (*appledger.FileResponse, error) {
				return a.container.Exports.LedgerText(ctx, tenantID, from, to)
			}),
		newPeriodExportCommand(a, "audit-file", "Standard audit file XML for the period",
			func(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (*appledger.FileResponse, error) {
				return a.container.Exports.AuditFile(ctx, tenantID, from, to)
			}),
		newCIICommand(a),
	)
	return cmd
}

func newPeriodExportCommand(a *app, use, short string, export periodExport) *cobra.Command {
	var from, to, output string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := parseDate("from", from)
			if err != nil {
				return err
			}
			end, err := parseDate("to", to)
			if err != nil {
				return err
			}
			file, err := export(cmd.Context(), a.tenant, start, end)
			if err != nil {
				return err
			}
			if output == "." {
				output = file.Filename
			}
			return writeOutput(cmd, output, file.Content)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "period start, YYYY-MM-DD (default: January 1st)")
	cmd.Flags().StringVar(&to, "to", "", "period end, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", `output file, "-" for stdout, "." for the standard file name`)
	return cmd
}

func newCIICommand(a *app) *cobra.Command {
	var profile, output string
	cmd := &cobra.Command{
		Use:   "cii <invoice-id>",
		Short: "Cross-industry invoice XML for a finalized invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid invoice id %q", args[0])
			}
			file, err := a.container.Exports.InvoiceCII(cmd.Context(), a.tenant, id, profile)
			if err != nil {
				return err
			}
			if output == "." {
				output = file.Filename
			}
			return writeOutput(cmd, output, file.Content)
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "MINIMUM, BASIC or EN16931 (default BASIC)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", `output file, "-" for stdout, "." for the standard file name`)
	return cmd
}
