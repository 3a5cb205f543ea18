package invoicing

import (
	"time"

	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ===================== Request DTOs =====================

// RecordPaymentRequest records a payment tied to one invoice
type RecordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Method      string          `json:"method" binding:"omitempty,oneof=bank_transfer card cash cheque other"`
	PaymentDate *time.Time      `json:"payment_date"`
	Reference   string          `json:"reference" binding:"omitempty,max=100"`
}

// AllocationRequest is the share of a lump-sum payment applied to one invoice
type AllocationRequest struct {
	InvoiceID uuid.UUID       `json:"invoice_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// LumpSumPaymentRequest records one payment split across several invoices
type LumpSumPaymentRequest struct {
	ClientID    uuid.UUID           `json:"client_id"`
	Amount      decimal.Decimal     `json:"amount" binding:"required"`
	Method      string              `json:"method" binding:"omitempty,oneof=bank_transfer card cash cheque other"`
	PaymentDate *time.Time          `json:"payment_date"`
	Reference   string              `json:"reference" binding:"omitempty,max=100"`
	Allocations []AllocationRequest `json:"allocations" binding:"required,min=1,dive"`
}

// ===================== Response DTOs =====================

// InvoiceResponse is the payment-derived state of an invoice
type InvoiceResponse struct {
	ID            uuid.UUID       `json:"id"`
	Number        string          `json:"number"`
	ClientID      uuid.UUID       `json:"client_id"`
	Status        string          `json:"status"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	Currency      string          `json:"currency"`
	TotalHT       decimal.Decimal `json:"total_ht"`
	TotalTVA      decimal.Decimal `json:"total_tva"`
	TotalTTC      decimal.Decimal `json:"total_ttc"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	PaymentStatus string          `json:"payment_status"`
	Version       int             `json:"version"`
}

// AllocationResponse is one allocation row of a lump-sum payment
type AllocationResponse struct {
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// PaymentResponse represents a recorded payment
type PaymentResponse struct {
	ID          uuid.UUID            `json:"id"`
	InvoiceID   *uuid.UUID           `json:"invoice_id,omitempty"`
	ClientID    *uuid.UUID           `json:"client_id,omitempty"`
	Amount      decimal.Decimal      `json:"amount"`
	Method      string               `json:"method"`
	PaymentDate time.Time            `json:"payment_date"`
	Reference   string               `json:"reference,omitempty"`
	IsLumpSum   bool                 `json:"is_lump_sum"`
	Allocations []AllocationResponse `json:"allocations,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// InvoicePaymentResponse is a payment as seen from one invoice: the applied amount is the
// full payment for a direct payment and the allocated share for a lump-sum payment.
type InvoicePaymentResponse struct {
	PaymentID     uuid.UUID       `json:"payment_id"`
	AppliedAmount decimal.Decimal `json:"applied_amount"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	Method        string          `json:"method"`
	PaymentDate   time.Time       `json:"payment_date"`
	Reference     string          `json:"reference,omitempty"`
	IsLumpSum     bool            `json:"is_lump_sum"`
}

// RecordPaymentResponse is the recorded payment and the recomputed invoice
type RecordPaymentResponse struct {
	Payment PaymentResponse `json:"payment"`
	Invoice InvoiceResponse `json:"invoice"`
}

// RecomputeFailure is an invoice whose recompute failed
type RecomputeFailure struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	Code      string    `json:"code,omitempty"`
	Error     string    `json:"error"`
}

// RecomputeReport lists the outcome of recomputing several invoices.
// A failure on one invoice does not undo the others.
type RecomputeReport struct {
	Recomputed []InvoiceResponse  `json:"recomputed"`
	Failed     []RecomputeFailure `json:"failed"`
}

// OK reports whether every invoice was recomputed
func (r *RecomputeReport) OK() bool {
	return len(r.Failed) == 0
}

// LumpSumPaymentResponse is the recorded lump-sum payment and its recompute report
type LumpSumPaymentResponse struct {
	Payment PaymentResponse  `json:"payment"`
	Report  *RecomputeReport `json:"report"`
}

// ===================== Mappers =====================

// ToInvoiceResponse converts a domain invoice to its response DTO
func ToInvoiceResponse(inv *invoicing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		Number:        inv.Number,
		ClientID:      inv.ClientID,
		Status:        string(inv.Status),
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Currency:      inv.Currency.String(),
		TotalHT:       inv.TotalHT,
		TotalTVA:      inv.TotalTVA,
		TotalTTC:      inv.TotalTTC,
		AmountPaid:    inv.AmountPaid,
		BalanceDue:    inv.BalanceDue,
		PaymentStatus: string(inv.PaymentStatus),
		Version:       inv.Version,
	}
}

// ToPaymentResponse converts a domain payment to its response DTO
func ToPaymentResponse(p *invoicing.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:          p.ID,
		InvoiceID:   p.InvoiceID,
		ClientID:    p.ClientID,
		Amount:      p.Amount,
		Method:      string(p.Method),
		PaymentDate: p.PaymentDate,
		Reference:   p.Reference,
		IsLumpSum:   p.IsLumpSum,
		CreatedAt:   p.CreatedAt,
	}
	for _, a := range p.Allocations {
		resp.Allocations = append(resp.Allocations, AllocationResponse{InvoiceID: a.InvoiceID, Amount: a.Amount})
	}
	return resp
}
