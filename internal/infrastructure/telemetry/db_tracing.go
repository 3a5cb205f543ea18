package telemetry

import (
	"errors"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls the otelgorm plugin.
type DBTracingConfig struct {
	Enabled bool
	// DBSystem names the database in span attributes (postgresql, sqlite)
	DBSystem string
	// IncludeVariables keeps bound query values in db.statement; amounts and
	// party identifiers then leave the process, so it stays off outside development.
	IncludeVariables bool
}

// RegisterDBTracing installs otelgorm on db and tags each statement span with the
// table and rows affected. A missing row is not marked as a span error.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.IncludeVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	for _, reg := range []func() error{
		func() error {
			return cb.Create().After("gorm:create").Register("ledger:span_attrs_create", annotateStatement)
		},
		func() error {
			return cb.Query().After("gorm:query").Register("ledger:span_attrs_query", annotateStatement)
		},
		func() error {
			return cb.Update().After("gorm:update").Register("ledger:span_attrs_update", annotateStatement)
		},
		func() error {
			return cb.Delete().After("gorm:delete").Register("ledger:span_attrs_delete", annotateStatement)
		},
	} {
		if err := reg(); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Bool("include_variables", cfg.IncludeVariables),
	)
	return nil
}

func annotateStatement(db *gorm.DB) {
	if db.Statement == nil || db.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		RecordError(span, db.Error)
	}
}
