package router

import (
	"net/http"
	"time"

	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Paths served outside the versioned API
const (
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

// Handlers groups the HTTP handlers mounted on the engine
type Handlers struct {
	Accounts        *handler.AccountHandler
	Entries         *handler.JournalEntryHandler
	OpeningBalances *handler.OpeningBalanceHandler
	Invoices        *handler.InvoiceHandler
	Exports         *handler.ExportHandler
	System          *handler.SystemHandler
}

// EngineOptions holds the cross-cutting settings of the engine
type EngineOptions struct {
	HTTP config.HTTPConfig
	// ServiceName enables OpenTelemetry spans when set
	ServiceName string
	// Metrics records request counts; nil disables the middleware
	Metrics middleware.HTTPObserver
	// MetricsHandler serves /metrics; promhttp.Handler() when nil
	MetricsHandler http.Handler
}

// NewEngine builds the gin engine with the middleware stack and every route.
// Middleware order: request id, access log, recovery, CORS, body limit,
// tracing, metrics; tenant resolution runs on /api/v1 only.
func NewEngine(opts EngineOptions, h Handlers, log *zap.Logger) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.CORSWithConfig(corsConfig(opts.HTTP)))
	engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	if opts.ServiceName != "" {
		engine.Use(middleware.Tracing(opts.ServiceName), middleware.SpanAnnotator())
	}
	if opts.Metrics != nil {
		engine.Use(middleware.Metrics(opts.Metrics, HealthPath, MetricsPath))
	}

	if h.System != nil {
		engine.GET(HealthPath, h.System.Health)
	}
	metricsHandler := opts.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	engine.GET(MetricsPath, gin.WrapH(metricsHandler))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeRouteNotFound, "Route not found", middleware.GetRequestID(c)))
	})

	defaultTenant, err := uuid.Parse(opts.HTTP.DefaultTenantID)
	if err != nil && opts.HTTP.DefaultTenantID != "" {
		log.Warn("Ignoring malformed default tenant id", zap.String("tenant_id", opts.HTTP.DefaultTenantID))
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(middleware.Tenant(defaultTenant))
	for _, group := range ledgerRoutes(h) {
		r.Register(group)
	}
	r.Setup()

	return engine
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowOrigins) > 0 {
		c.AllowOrigins = cfg.CORSAllowOrigins
	}
	if len(cfg.CORSAllowMethods) > 0 {
		c.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		c.AllowHeaders = cfg.CORSAllowHeaders
	}
	c.ExposeHeaders = []string{middleware.RequestIDHeader, "Content-Disposition"}
	c.MaxAge = 12 * time.Hour
	return c
}

func ledgerRoutes(h Handlers) []*DomainGroup {
	var groups []*DomainGroup

	if h.Accounts != nil {
		accounts := NewDomainGroup("accounts", "/accounts")
		accounts.GET("", h.Accounts.List)
		accounts.POST("", h.Accounts.Upsert)
		accounts.DELETE("/:country/:code", h.Accounts.Delete)
		groups = append(groups, accounts)
	}

	if h.Entries != nil {
		entries := NewDomainGroup("journal", "")
		entries.POST("/journal-entries", h.Entries.Post)
		entries.GET("/journal-entries", h.Entries.List)
		entries.GET("/trial-balance", h.Entries.TrialBalance)
		entries.GET("/trial-balance.xlsx", h.Entries.TrialBalanceWorkbook)
		groups = append(groups, entries)
	}

	if h.OpeningBalances != nil {
		opening := NewDomainGroup("opening-balances", "/opening-balances")
		opening.POST("", h.OpeningBalances.Reinitialize)
		opening.POST("/validate", h.OpeningBalances.Validate)
		groups = append(groups, opening)
	}

	if h.Invoices != nil {
		invoices := NewDomainGroup("invoices", "/invoices")
		invoices.GET("/:id", h.Invoices.Get)
		invoices.POST("/:id/finalize", h.Invoices.Finalize)
		invoices.POST("/:id/payments", h.Invoices.RecordPayment)
		invoices.GET("/:id/payments", h.Invoices.ListPayments)
		invoices.POST("/:id/recompute", h.Invoices.Recompute)

		payments := NewDomainGroup("payments", "/payments")
		payments.POST("/lump-sum", h.Invoices.RecordLumpSum)
		payments.DELETE("/:id", h.Invoices.DeletePayment)
		groups = append(groups, invoices, payments)
	}

	if h.Exports != nil {
		exports := NewDomainGroup("exports", "/exports")
		exports.GET("/ledger-text", h.Exports.LedgerText)
		exports.GET("/audit-file", h.Exports.AuditFile)
		exports.Group("invoice-cii", "/invoices").GET("/:id/cii", h.Exports.InvoiceCII)
		groups = append(groups, exports)
	}

	return groups
}
