package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/ledger/internal/bootstrap"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	configPath := flag.String("config", "", "Config file (default: ./config.toml)")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}
	tp, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	if cfg.Telemetry.LogsEnabled {
		lp, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, log)
		if err != nil {
			log.Fatal("Failed to initialize log export", zap.Error(err))
		}
		log = lp.Attach(log, logger.ParseLevel(cfg.Log.Level))
		defer func() { _ = lp.Shutdown(context.Background()) }()
	}

	log.Info("Starting ledger server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database", cfg.Database.Driver),
		zap.String("lock_backend", cfg.Lock.Backend),
	)

	container, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{
		Registerer:  prometheus.DefaultRegisterer,
		AutoMigrate: cfg.Database.Driver == "sqlite",
	})
	if err != nil {
		log.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error("Error closing resources", zap.Error(err))
		}
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	serviceName := ""
	if tp.Enabled() {
		serviceName = cfg.Telemetry.ServiceName
	}
	engine := router.NewEngine(router.EngineOptions{
		HTTP:        cfg.HTTP,
		ServiceName: serviceName,
		Metrics:     container.Metrics,
	}, router.Handlers{
		Accounts:        handler.NewAccountHandler(container.Ledger),
		Entries:         handler.NewJournalEntryHandler(container.Ledger, container.Exports),
		OpeningBalances: handler.NewOpeningBalanceHandler(container.OpeningBalances),
		Invoices:        handler.NewInvoiceHandler(container.Invoices, container.Reconciler),
		Exports:         handler.NewExportHandler(container.Exports),
		System:          handler.NewSystemHandler(cfg.App.Name, version, container.DB),
	}, log)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush traces", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
