package invoicing

import "github.com/erp/ledger/internal/domain/shared"

var (
	ErrInvoiceNotFound = shared.NewKindError(shared.KindNotFound, "INVOICE_NOT_FOUND", "Invoice not found")
	ErrPaymentNotFound = shared.NewKindError(shared.KindNotFound, "PAYMENT_NOT_FOUND", "Payment not found")
	ErrPartyNotFound   = shared.NewKindError(shared.KindNotFound, "PARTY_NOT_FOUND", "Party not found")
	ErrInvalidPayment  = shared.NewDomainError("INVALID_PAYMENT", "Invalid payment")
	ErrInvalidInvoice  = shared.NewDomainError("INVALID_INVOICE", "Invalid invoice")
	ErrOverAllocation  = shared.NewDomainError("OVER_ALLOCATION", "Allocations exceed the payment amount")
	ErrInvoiceState    = shared.NewKindError(shared.KindInvalidState, "INVALID_INVOICE_STATE", "Operation not allowed for the invoice status")
	ErrConcurrency     = shared.NewKindError(shared.KindConcurrency, "CONCURRENCY_CONFLICT", "Invoice was modified concurrently")
	ErrInvoiceLocked   = shared.NewKindError(shared.KindConcurrency, "INVOICE_LOCKED", "Invoice is locked by another operation")
)
