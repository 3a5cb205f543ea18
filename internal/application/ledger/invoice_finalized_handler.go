package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"go.uber.org/zap"
)

// InvoiceFinalizedHandler posts the sales entry of an invoice when it is finalized:
// receivables debited with the total including VAT, revenue and VAT collected credited.
type InvoiceFinalizedHandler struct {
	scope       TransactionScope
	idempotency shared.IdempotencyStore
	opts        options
	logger      *zap.Logger
}

// NewInvoiceFinalizedHandler creates the handler. A nil idempotency store disables deduplication.
func NewInvoiceFinalizedHandler(
	scope TransactionScope,
	idempotency shared.IdempotencyStore,
	logger *zap.Logger,
	opts ...Option,
) *InvoiceFinalizedHandler {
	return &InvoiceFinalizedHandler{
		scope:       scope,
		idempotency: idempotency,
		opts:        buildOptions(opts),
		logger:      logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *InvoiceFinalizedHandler) EventTypes() []string {
	return []string{invoicing.EventTypeInvoiceFinalized}
}

// Handle processes an InvoiceFinalizedEvent
func (h *InvoiceFinalizedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	finalized, ok := event.(*invoicing.InvoiceFinalizedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", invoicing.EventTypeInvoiceFinalized),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			invoicing.EventTypeInvoiceFinalized, event.EventType())
	}

	key := "invoice-finalized:" + finalized.InvoiceID.String()
	if h.idempotency != nil {
		done, err := h.idempotency.IsProcessed(ctx, key)
		if err != nil {
			return fmt.Errorf("check idempotency: %w", err)
		}
		if done {
			h.logger.Info("invoice already posted, skipping",
				zap.String("invoice_id", finalized.InvoiceID.String()),
			)
			return nil
		}
	}

	req, err := h.salesPosting(finalized)
	if err != nil {
		return err
	}
	country := h.opts.cfg.DefaultCountry

	var ref string
	err = h.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		chart := ledger.NewChartOfAccounts(repos.Accounts(), repos.Entries())
		if _, err := chart.SeedCountryChart(ctx, event.TenantID(), country); err != nil {
			return err
		}
		journal := ledger.NewJournalLedger(repos.Accounts(), repos.Entries(), ledger.WithClock(h.opts.now))
		ref, err = journal.PostEntries(ctx, event.TenantID(), req)
		return err
	})
	h.opts.metrics.ObservePosting(string(req.Journal), len(req.Lines), err)
	if err != nil {
		h.logger.Error("failed to post invoice sales entry",
			zap.String("invoice_id", finalized.InvoiceID.String()),
			zap.String("invoice_number", finalized.InvoiceNumber),
			zap.Error(err),
		)
		return fmt.Errorf("post sales entry for invoice %s: %w", finalized.InvoiceNumber, err)
	}

	if h.idempotency != nil {
		if _, err := h.idempotency.MarkProcessed(ctx, key, shared.DefaultIdempotencyTTL); err != nil {
			h.logger.Warn("failed to mark invoice as posted",
				zap.String("invoice_id", finalized.InvoiceID.String()),
				zap.Error(err),
			)
		}
	}

	h.logger.Info("invoice sales entry posted",
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("invoice_id", finalized.InvoiceID.String()),
		zap.String("invoice_number", finalized.InvoiceNumber),
		zap.String("entry_ref", ref),
	)
	return nil
}

func (h *InvoiceFinalizedHandler) salesPosting(e *invoicing.InvoiceFinalizedEvent) (ledger.PostingRequest, error) {
	date, err := time.Parse(time.DateOnly, e.IssueDate)
	if err != nil {
		return ledger.PostingRequest{}, invoicing.ErrInvalidInvoice.Withf("invalid issue date %q", e.IssueDate)
	}
	mapping := ledger.MappingFor(h.opts.cfg.DefaultCountry)
	description := "Facture " + e.InvoiceNumber
	invoiceID := e.InvoiceID

	lines := []ledger.EntryLine{
		{AccountCode: mapping.Receivables.Code, Debit: e.TotalTTC, Description: description},
		{AccountCode: mapping.SalesRevenue.Code, Credit: e.TotalHT, Description: description},
	}
	if e.TotalTVA.IsPositive() {
		lines = append(lines, ledger.EntryLine{AccountCode: mapping.VATCollected.Code, Credit: e.TotalTVA, Description: description})
	}
	return ledger.PostingRequest{
		Lines:           lines,
		Journal:         ledger.JournalSales,
		TransactionDate: date,
		SourceType:      ledger.SourceInvoice,
		SourceID:        &invoiceID,
	}, nil
}

var _ shared.EventHandler = (*InvoiceFinalizedHandler)(nil)
