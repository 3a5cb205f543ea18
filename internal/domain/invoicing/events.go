package invoicing

import (
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeInvoice is the aggregate type for invoice events
const AggregateTypeInvoice = "Invoice"

const (
	EventTypeInvoiceFinalized = "InvoiceFinalized"
	EventTypeInvoicePaid      = "InvoicePaid"
)

// InvoiceFinalizedEvent is raised when a draft invoice is sent; the accounting
// handler turns it into a sales journal entry.
type InvoiceFinalizedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	ClientID      uuid.UUID       `json:"client_id"`
	IssueDate     string          `json:"issue_date"`
	TotalHT       decimal.Decimal `json:"total_ht"`
	TotalTVA      decimal.Decimal `json:"total_tva"`
	TotalTTC      decimal.Decimal `json:"total_ttc"`
}

// NewInvoiceFinalizedEvent creates an InvoiceFinalized event from the invoice
func NewInvoiceFinalizedEvent(inv *Invoice) *InvoiceFinalizedEvent {
	return &InvoiceFinalizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceFinalized, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.Number,
		ClientID:        inv.ClientID,
		IssueDate:       inv.IssueDate.Format("2006-01-02"),
		TotalHT:         inv.TotalHT,
		TotalTVA:        inv.TotalTVA,
		TotalTTC:        inv.TotalTTC,
	}
}

// EventType returns the event type name
func (e *InvoiceFinalizedEvent) EventType() string {
	return EventTypeInvoiceFinalized
}

// InvoicePaidEvent is raised when recompute moves an invoice to fully paid
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
}

// NewInvoicePaidEvent creates an InvoicePaid event from the invoice
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.Number,
		AmountPaid:      inv.AmountPaid,
	}
}

// EventType returns the event type name
func (e *InvoicePaidEvent) EventType() string {
	return EventTypeInvoicePaid
}
