package invoicing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceRepository reads invoice totals and writes the payment-derived fields
type InvoiceRepository interface {
	// FindByID returns shared.ErrNotFound when the invoice does not exist
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	// FindByIDForUpdate additionally takes a row lock where the store supports it
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	Create(ctx context.Context, invoice *Invoice) error
	// SaveWithLock persists the invoice if its stored version is invoice.Version-1;
	// a mismatch is reported as ErrConcurrency.
	SaveWithLock(ctx context.Context, invoice *Invoice) error
	ExistingIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
}

// PaymentRepository stores payments
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	// FindByID returns shared.ErrNotFound when the payment does not exist
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// SumDirectForInvoice sums non lump-sum payments of the invoice
	SumDirectForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error)
	ListDirectForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Payment, error)
}

// AllocationRepository stores lump-sum allocations
type AllocationRepository interface {
	CreateBatch(ctx context.Context, allocations []PaymentAllocation) error
	ListByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) ([]PaymentAllocation, error)
	ListForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]PaymentAllocation, error)
	SumForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error)
	DeleteByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) error
}

// PartyRepository reads company and client records
type PartyRepository interface {
	// FindCompany returns shared.ErrNotFound when the tenant has no company record
	FindCompany(ctx context.Context, tenantID uuid.UUID) (*Party, error)
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Party, error)
	ListClients(ctx context.Context, tenantID uuid.UUID) ([]Party, error)
	Save(ctx context.Context, party *Party) error
}
