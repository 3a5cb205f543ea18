package invoicing

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceService drives invoice lifecycle transitions that other components react to
type InvoiceService struct {
	scope  TransactionScope
	locker InvoiceLocker
	opts   options
	logger *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(scope TransactionScope, locker InvoiceLocker, logger *zap.Logger, opts ...Option) *InvoiceService {
	return &InvoiceService{
		scope:  scope,
		locker: locker,
		opts:   buildOptions(opts),
		logger: logger,
	}
}

// GetInvoice returns the current state of an invoice
func (s *InvoiceService) GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	var resp InvoiceResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.Invoices().FindByID(ctx, tenantID, invoiceID)
		if err != nil {
			return notFoundInvoice(invoiceID, err)
		}
		resp = ToInvoiceResponse(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// FinalizeInvoice moves a draft invoice to sent and publishes InvoiceFinalized, which the
// accounting handler turns into the sales journal entry. The transition is committed before
// handlers run; a handler failure is returned wrapped so the caller can retry the posting.
// Calling it again on a sent or paid invoice only republishes the event.
func (s *InvoiceService) FinalizeInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "finalize",
		telemetry.WithAttribute("invoice_id", invoiceID.String()),
	)
	defer span.End()

	unlock, err := s.locker.Lock(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var inv *invoicing.Invoice
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		current, err := repos.Invoices().FindByIDForUpdate(ctx, tenantID, invoiceID)
		if err != nil {
			return notFoundInvoice(invoiceID, err)
		}
		inv = current
		if current.Status != invoicing.InvoiceStatusDraft {
			return current.RepeatFinalized()
		}
		if err := current.Finalize(); err != nil {
			return err
		}
		current.IncrementVersion()
		if err := repos.Invoices().SaveWithLock(ctx, current); err != nil {
			return shared.WrapStoreError("save invoice", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := ToInvoiceResponse(inv)
	events := inv.GetDomainEvents()
	inv.ClearDomainEvents()
	if s.opts.events != nil && len(events) > 0 {
		if err := s.opts.events.Publish(ctx, events...); err != nil {
			telemetry.RecordError(span, err)
			s.logger.Error("invoice finalized but event handling failed",
				zap.String("invoice_id", invoiceID.String()),
				zap.Error(err),
			)
			return &resp, fmt.Errorf("invoice %s finalized, event handling failed: %w", inv.Number, err)
		}
	}

	s.logger.Info("invoice finalized",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("invoice_number", inv.Number),
	)
	return &resp, nil
}
