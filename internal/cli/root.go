// Package cli implements ledgerctl, an operator tool that runs the ledger
// services directly against the configured database.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/erp/ledger/internal/bootstrap"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// app is the state shared by every subcommand of one invocation
type app struct {
	configPath string
	tenantFlag string
	verbose    bool

	tenant    uuid.UUID
	container *bootstrap.Container
	logger    *zap.Logger
}

// NewRootCommand builds the ledgerctl command tree
func NewRootCommand() *cobra.Command {
	return (&app{}).command()
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Inspect and export the double-entry ledger",
		Long:          "ledgerctl reads the chart of accounts and journal, computes the trial balance\nand produces regulatory exports straight from the ledger database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: ./config.toml)")
	root.PersistentFlags().StringVar(&a.tenantFlag, "tenant", "", "tenant id (default: http.default_tenant_id)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newAccountsCommand(a),
		newEntriesCommand(a),
		newTrialBalanceCommand(a),
		newExportCommand(a),
	)
	return root
}

// Execute runs ledgerctl with args and returns the process exit code
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{}
	// PersistentPostRunE is skipped when RunE fails
	defer a.close()

	root := a.command()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
	return 0
}

func (a *app) open(ctx context.Context) error {
	cfg, err := config.LoadFile(a.configPath)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	a.logger, err = logger.New(&logger.Config{Level: level, Format: "console", Output: "stderr"})
	if err != nil {
		return err
	}

	raw := strings.TrimSpace(a.tenantFlag)
	if raw == "" {
		raw = cfg.HTTP.DefaultTenantID
	}
	a.tenant, err = uuid.Parse(raw)
	if err != nil || a.tenant == uuid.Nil {
		return fmt.Errorf("invalid tenant id %q", raw)
	}

	a.container, err = bootstrap.New(ctx, cfg, a.logger, bootstrap.Options{
		AutoMigrate: cfg.Database.Driver == "sqlite",
	})
	return err
}

func (a *app) close() error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.container == nil {
		return nil
	}
	err := a.container.Close()
	a.container = nil
	return err
}

// parseDate parses an optional YYYY-MM-DD flag value
func parseDate(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: expected YYYY-MM-DD", name, value)
	}
	return &d, nil
}

// writeOutput writes content to path, or to the command output when path is "-" or empty
func writeOutput(cmd *cobra.Command, path string, content []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(content)
		return err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", path, len(content))
	return nil
}
