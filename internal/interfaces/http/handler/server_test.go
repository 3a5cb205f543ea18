package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appinvoicing "github.com/erp/ledger/internal/application/invoicing"
	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/lock"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/spreadsheet"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// testServer mounts every handler over an in-memory SQLite database
type testServer struct {
	engine *gin.Engine
	db     *persistence.Database
	tenant uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	log := zap.NewNop()
	accounts := persistence.NewGormAccountRepository(db.DB)
	entries := persistence.NewGormEntryRepository(db.DB)
	ledgerScope := persistence.NewGormLedgerTransactionScope(db.DB)
	invoicingScope := persistence.NewGormInvoicingTransactionScope(db.DB)
	locker := lock.NewKeyedMutex()

	bus := event.NewInMemoryEventBus(log)
	idempotency := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = idempotency.Close() })
	bus.Subscribe(appledger.NewInvoiceFinalizedHandler(ledgerScope, idempotency, log))

	ledgerSvc := appledger.NewLedgerService(accounts, entries, log)
	exports := appledger.NewExportService(
		accounts, entries,
		persistence.NewGormInvoiceRepository(db.DB),
		persistence.NewGormPartyRepository(db.DB),
		spreadsheet.NewWorkbookRenderer(),
		appledger.ExportConfig{CompanyName: "Atelier Nord", CompanyLegalID: "123456789", CountryCode: "FR"},
		log,
	)

	ts := &testServer{engine: gin.New(), db: db, tenant: uuid.New()}
	ts.engine.Use(middleware.RequestID())
	api := ts.engine.Group("/api/v1", middleware.Tenant(ts.tenant))

	accountH := NewAccountHandler(ledgerSvc)
	api.GET("/accounts", accountH.List)
	api.POST("/accounts", accountH.Upsert)
	api.DELETE("/accounts/:country/:code", accountH.Delete)

	entryH := NewJournalEntryHandler(ledgerSvc, exports)
	api.POST("/journal-entries", entryH.Post)
	api.GET("/journal-entries", entryH.List)
	api.GET("/trial-balance", entryH.TrialBalance)
	api.GET("/trial-balance.xlsx", entryH.TrialBalanceWorkbook)

	openingH := NewOpeningBalanceHandler(appledger.NewOpeningBalanceService(ledgerScope, log))
	api.POST("/opening-balances", openingH.Reinitialize)
	api.POST("/opening-balances/validate", openingH.Validate)

	invoiceH := NewInvoiceHandler(
		appinvoicing.NewInvoiceService(invoicingScope, locker, log, appinvoicing.WithEventPublisher(bus)),
		appinvoicing.NewPaymentReconciler(invoicingScope, locker, log),
	)
	api.GET("/invoices/:id", invoiceH.Get)
	api.POST("/invoices/:id/finalize", invoiceH.Finalize)
	api.POST("/invoices/:id/payments", invoiceH.RecordPayment)
	api.GET("/invoices/:id/payments", invoiceH.ListPayments)
	api.POST("/invoices/:id/recompute", invoiceH.Recompute)
	api.POST("/payments/lump-sum", invoiceH.RecordLumpSum)
	api.DELETE("/payments/:id", invoiceH.DeletePayment)

	exportH := NewExportHandler(exports)
	api.GET("/exports/ledger-text", exportH.LedgerText)
	api.GET("/exports/audit-file", exportH.AuditFile)
	api.GET("/exports/invoices/:id/cii", exportH.InvoiceCII)

	ts.engine.GET("/health", NewSystemHandler("ledger", "test", db).Health)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

// envelope decodes the response envelope, with data left raw
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
		Details   []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func (ts *testServer) createAccount(t *testing.T, code, name, category string) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/v1/accounts", map[string]any{
		"code": code, "name": name, "category": category, "country": "FR",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func (ts *testServer) postEntry(t *testing.T, date, debitAccount, creditAccount, amount string) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/v1/journal-entries", map[string]any{
		"journal":          "OD",
		"transaction_date": date + "T00:00:00Z",
		"lines": []map[string]any{
			{"account_code": debitAccount, "debit": amount},
			{"account_code": creditAccount, "credit": amount},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp appledger.PostEntriesResponse
	decode(t, w, &resp)
	return resp.EntryRef
}

// seedInvoice stores a client and a draft invoice of 100 HT + 20% VAT
func (ts *testServer) seedInvoice(t *testing.T, number string) *invoicing.Invoice {
	t.Helper()
	ctx := context.Background()
	client, err := invoicing.NewParty(ts.tenant, invoicing.PartyRoleClient, "Client "+number)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormPartyRepository(ts.db.DB).Save(ctx, client))

	inv, err := invoicing.NewInvoice(ts.tenant, invoicing.InvoiceInput{
		Number:    number,
		ClientID:  client.ID,
		IssueDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Lines: []invoicing.InvoiceLine{{
			Description: "Consulting",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(100),
			VATRate:     decimal.NewFromInt(20),
		}},
	})
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormInvoiceRepository(ts.db.DB).Create(ctx, inv))
	return inv
}
