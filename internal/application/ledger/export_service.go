package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/export"
	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Content types of the rendered exports
const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeXML  = "application/xml; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WorkbookRenderer renders a trial balance as a spreadsheet
type WorkbookRenderer interface {
	RenderTrialBalance(tb *ledger.TrialBalance, companyName string) ([]byte, error)
}

// ExportConfig is the company identity used when the tenant has no company record
type ExportConfig struct {
	CompanyName    string
	CompanyLegalID string
	CompanyVAT     string
	CountryCode    string
	Currency       valueobject.Currency
	SoftwareID     string
}

// ExportService gathers ledger, invoice and party data and runs the export formatters
type ExportService struct {
	accounts ledger.AccountRepository
	entries  ledger.EntryRepository
	invoices invoicing.InvoiceRepository
	parties  invoicing.PartyRepository
	workbook WorkbookRenderer
	cfg      ExportConfig
	opts     options
	logger   *zap.Logger
}

// NewExportService creates a new ExportService
func NewExportService(
	accounts ledger.AccountRepository,
	entries ledger.EntryRepository,
	invoices invoicing.InvoiceRepository,
	parties invoicing.PartyRepository,
	workbook WorkbookRenderer,
	cfg ExportConfig,
	logger *zap.Logger,
	opts ...Option,
) *ExportService {
	if cfg.Currency == "" {
		cfg.Currency = valueobject.DefaultCurrency
	}
	return &ExportService{
		accounts: accounts,
		entries:  entries,
		invoices: invoices,
		parties:  parties,
		workbook: workbook,
		cfg:      cfg,
		opts:     buildOptions(opts),
		logger:   logger,
	}
}

// LedgerText renders the period's entries as the pipe-delimited ledger file.
// An empty period returns export.ErrNoEntries.
func (s *ExportService) LedgerText(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (file *FileResponse, err error) {
	start := time.Now()
	defer func() { s.opts.metrics.ObserveExport("ledger_text", time.Since(start), err) }()
	ctx, span := telemetry.StartServiceSpan(ctx, "export", "ledger_text")
	defer span.End()

	periodStart, periodEnd, err := s.period(from, to)
	if err != nil {
		return nil, err
	}
	entries, err := s.periodEntries(ctx, tenantID, periodStart, periodEnd)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	names, err := s.accountNames(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	company, err := s.company(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result := export.FormatLedgerText(export.LedgerTextInput{
		Company:      company,
		PeriodEnd:    periodEnd,
		Entries:      entries,
		AccountNames: names,
	})
	if result.Empty {
		return nil, export.ErrNoEntries
	}

	s.logger.Info("ledger text exported",
		zap.String("tenant_id", tenantID.String()),
		zap.String("filename", result.Filename),
		zap.Int("rows", result.Rows),
	)
	return &FileResponse{Filename: result.Filename, ContentType: ContentTypeText, Content: []byte(result.Content)}, nil
}

// AuditFile renders the period as audit-file XML
func (s *ExportService) AuditFile(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (file *FileResponse, err error) {
	start := time.Now()
	defer func() { s.opts.metrics.ObserveExport("audit_file", time.Since(start), err) }()
	ctx, span := telemetry.StartServiceSpan(ctx, "export", "audit_file")
	defer span.End()

	periodStart, periodEnd, err := s.period(from, to)
	if err != nil {
		return nil, err
	}
	entries, err := s.periodEntries(ctx, tenantID, periodStart, periodEnd)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	accounts, err := s.accounts.List(ctx, tenantID, ledger.AccountFilter{})
	if err != nil {
		return nil, shared.WrapStoreError("list accounts", err)
	}
	customers, err := s.parties.ListClients(ctx, tenantID)
	if err != nil {
		return nil, shared.WrapStoreError("list clients", err)
	}
	company, err := s.company(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	content := export.FormatAuditFile(export.AuditFileInput{
		Company:    company,
		Currency:   s.cfg.Currency,
		SoftwareID: s.cfg.SoftwareID,
		From:       periodStart,
		To:         periodEnd,
		Accounts:   accounts,
		Customers:  customers,
		Entries:    entries,
	})
	filename := fmt.Sprintf("audit-file-%s-%s.xml", periodStart.Format("20060102"), periodEnd.Format("20060102"))
	return &FileResponse{Filename: filename, ContentType: ContentTypeXML, Content: []byte(content)}, nil
}

// InvoiceCII renders one invoice as CII XML for the requested profile; empty means BASIC
func (s *ExportService) InvoiceCII(ctx context.Context, tenantID, invoiceID uuid.UUID, profile string) (file *FileResponse, err error) {
	start := time.Now()
	defer func() { s.opts.metrics.ObserveExport("cii", time.Since(start), err) }()

	p, err := export.ParseProfile(profile)
	if err != nil {
		return nil, err
	}
	inv, err := s.invoices.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, invoicing.ErrInvoiceNotFound.Withf("invoice %s not found", invoiceID)
		}
		return nil, shared.WrapStoreError("load invoice", err)
	}
	seller, err := s.company(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	buyer, err := s.parties.FindByID(ctx, tenantID, inv.ClientID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, shared.WrapStoreError("load client", err)
		}
		buyer = nil
	}

	content := export.FormatCII(export.CIIInput{Invoice: inv, Seller: seller, Buyer: buyer, Profile: p})
	return &FileResponse{
		Filename:    fmt.Sprintf("%s.xml", fileSafe(inv.Number, inv.ID.String())),
		ContentType: ContentTypeXML,
		Content:     []byte(content),
	}, nil
}

// TrialBalanceWorkbook renders the trial balance at the cutoff as an XLSX workbook
func (s *ExportService) TrialBalanceWorkbook(ctx context.Context, tenantID uuid.UUID, cutoff *time.Time) (file *FileResponse, err error) {
	start := time.Now()
	defer func() { s.opts.metrics.ObserveExport("trial_balance_xlsx", time.Since(start), err) }()

	day := s.opts.now()
	if cutoff != nil {
		day = *cutoff
	}
	tb, err := ledger.NewTrialBalanceAggregator(s.accounts, s.entries).Compute(ctx, tenantID, day)
	if err != nil {
		return nil, err
	}
	company, err := s.company(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	content, err := s.workbook.RenderTrialBalance(tb, company.Name)
	if err != nil {
		return nil, shared.NewExternalIOError("render trial balance workbook", err)
	}
	return &FileResponse{
		Filename:    fmt.Sprintf("trial-balance-%s.xlsx", tb.Cutoff.Format("20060102")),
		ContentType: ContentTypeXLSX,
		Content:     content,
	}, nil
}

func (s *ExportService) period(from, to *time.Time) (time.Time, time.Time, error) {
	start, end := defaultRange(s.opts.now(), from, to)
	if start.After(end) {
		return time.Time{}, time.Time{}, ledger.ErrInvalidDateRange.Withf("start date %s is after end date %s",
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return start, end, nil
}

func (s *ExportService) periodEntries(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]ledger.JournalEntry, error) {
	entries, err := s.entries.Query(ctx, tenantID, ledger.EntryFilter{From: &from, To: &to})
	if err != nil {
		return nil, shared.WrapStoreError("query journal entries", err)
	}
	return entries, nil
}

func (s *ExportService) accountNames(ctx context.Context, tenantID uuid.UUID) (map[string]string, error) {
	accounts, err := s.accounts.List(ctx, tenantID, ledger.AccountFilter{})
	if err != nil {
		return nil, shared.WrapStoreError("list accounts", err)
	}
	names := make(map[string]string, len(accounts))
	for _, acc := range accounts {
		if _, ok := names[acc.Code]; !ok {
			names[acc.Code] = acc.Name
		}
	}
	return names, nil
}

// company returns the tenant's company record, falling back to the configured identity
func (s *ExportService) company(ctx context.Context, tenantID uuid.UUID) (*invoicing.Party, error) {
	company, err := s.parties.FindCompany(ctx, tenantID)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, shared.WrapStoreError("load company", err)
	}
	return &invoicing.Party{
		TenantID:    tenantID,
		Role:        invoicing.PartyRoleCompany,
		Name:        s.cfg.CompanyName,
		LegalID:     s.cfg.CompanyLegalID,
		VATNumber:   s.cfg.CompanyVAT,
		CountryCode: s.cfg.CountryCode,
	}, nil
}

func fileSafe(name, fallback string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return string(out)
}
