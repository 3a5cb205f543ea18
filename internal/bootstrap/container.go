// Package bootstrap wires configuration, storage and the application services
// shared by the HTTP server and the command-line tool.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	appinvoicing "github.com/erp/ledger/internal/application/invoicing"
	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/lock"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/metrics"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/spreadsheet"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Container holds the wired services and the resources they depend on
type Container struct {
	DB              *persistence.Database
	Ledger          *appledger.LedgerService
	OpeningBalances *appledger.OpeningBalanceService
	Exports         *appledger.ExportService
	Invoices        *appinvoicing.InvoiceService
	Reconciler      *appinvoicing.PaymentReconciler
	Events          *event.InMemoryEventBus
	Metrics         *metrics.Recorder

	closers []func() error
}

// Options selects the optional parts of the container
type Options struct {
	// Registerer receives the Prometheus series; nil disables metrics
	Registerer prometheus.Registerer
	// AutoMigrate creates missing tables from the GORM models
	AutoMigrate bool
}

// New opens the database and builds every service from cfg.
// On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (c *Container, err error) {
	exportCfg, err := ExportConfig(cfg.Ledger)
	if err != nil {
		return nil, err
	}

	c = &Container{}
	defer func() {
		if err != nil {
			_ = c.Close()
			c = nil
		}
	}()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	c.DB, err = persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, c.DB.Close)

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err = telemetry.RegisterDBTracing(c.DB.DB, telemetry.DBTracingConfig{
			Enabled:  true,
			DBSystem: dbSystem(cfg.Database.Driver),
		}, log); err != nil {
			return nil, err
		}
	}
	if opts.AutoMigrate {
		if err = c.DB.AutoMigrate(); err != nil {
			return nil, err
		}
	}

	var redisClient *redis.Client
	if cfg.Lock.Backend == "redis" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("lock backend redis: %w", err)
		}
		c.closers = append(c.closers, redisClient.Close)
	}

	var locker appinvoicing.InvoiceLocker = lock.NewKeyedMutex()
	var idempotency shared.IdempotencyStore
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient, lock.Options{
			Expiry:     cfg.Lock.Expiry,
			RetryDelay: cfg.Lock.RetryDelay,
			Tries:      cfg.Lock.Tries,
		}, log)
		idempotency = cache.NewRedisIdempotencyStore(redisClient, cache.DefaultKeyPrefix)
	} else {
		store := cache.NewInMemoryIdempotencyStore()
		c.closers = append(c.closers, store.Close)
		idempotency = store
	}

	ledgerOpts := []appledger.Option{appledger.WithConfig(LedgerConfig(cfg.Ledger))}
	invoicingOpts := []appinvoicing.Option{}
	if opts.Registerer != nil {
		c.Metrics = metrics.NewRecorder(opts.Registerer)
		ledgerOpts = append(ledgerOpts, appledger.WithMetrics(c.Metrics))
		invoicingOpts = append(invoicingOpts, appinvoicing.WithMetrics(c.Metrics))
	}

	accounts := persistence.NewGormAccountRepository(c.DB.DB)
	entries := persistence.NewGormEntryRepository(c.DB.DB)
	ledgerScope := persistence.NewGormLedgerTransactionScope(c.DB.DB)
	invoicingScope := persistence.NewGormInvoicingTransactionScope(c.DB.DB)

	c.Events = event.NewInMemoryEventBus(log)
	c.Events.Subscribe(appledger.NewInvoiceFinalizedHandler(ledgerScope, idempotency, log, ledgerOpts...))
	invoicingOpts = append(invoicingOpts, appinvoicing.WithEventPublisher(c.Events))

	c.Ledger = appledger.NewLedgerService(accounts, entries, log, ledgerOpts...)
	c.OpeningBalances = appledger.NewOpeningBalanceService(ledgerScope, log, ledgerOpts...)
	c.Exports = appledger.NewExportService(
		accounts,
		entries,
		persistence.NewGormInvoiceRepository(c.DB.DB),
		persistence.NewGormPartyRepository(c.DB.DB),
		spreadsheet.NewWorkbookRenderer(),
		exportCfg,
		log,
		ledgerOpts...,
	)
	c.Invoices = appinvoicing.NewInvoiceService(invoicingScope, locker, log, invoicingOpts...)
	c.Reconciler = appinvoicing.NewPaymentReconciler(invoicingScope, locker, log, invoicingOpts...)

	return c, nil
}

// Close releases resources in reverse order of acquisition
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// LedgerConfig maps the configuration file onto the ledger service settings
func LedgerConfig(cfg config.LedgerConfig) appledger.Config {
	return appledger.Config{
		DefaultCountry:             ledger.ParseCountry(cfg.DefaultCountry),
		DefaultEntryLimit:          cfg.DefaultEntryLimit,
		EnforceOpeningBalanceCheck: cfg.EnforceOpeningBalanceCheck,
	}
}

// ExportConfig maps the configured company identity onto the export settings
func ExportConfig(cfg config.LedgerConfig) (appledger.ExportConfig, error) {
	currency, err := valueobject.ParseCurrency(cfg.Currency)
	if err != nil {
		return appledger.ExportConfig{}, fmt.Errorf("ledger.currency: %w", err)
	}
	return appledger.ExportConfig{
		CompanyName:    cfg.CompanyName,
		CompanyLegalID: cfg.CompanyLegalID,
		CompanyVAT:     cfg.CompanyVATNumber,
		CountryCode:    cfg.CompanyCountryCode,
		Currency:       currency,
		SoftwareID:     cfg.SoftwareID,
	}, nil
}

func dbSystem(driver string) string {
	if driver == "sqlite" {
		return "sqlite"
	}
	return "postgresql"
}
