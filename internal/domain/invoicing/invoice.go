package invoicing

import (
	"sort"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the document lifecycle status
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// PaymentStatus is derived from the amount paid against the invoice total
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// DerivePaymentStatus is a pure function of the total paid and the invoice total
func DerivePaymentStatus(totalPaid, totalTTC decimal.Decimal) PaymentStatus {
	switch {
	case totalPaid.GreaterThanOrEqual(totalTTC):
		return PaymentStatusPaid
	case totalPaid.IsPositive():
		return PaymentStatusPartial
	default:
		return PaymentStatusUnpaid
	}
}

// InvoiceLine is one billed item
type InvoiceLine struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	VATRate     decimal.Decimal // percent, e.g. 20
	LineTotal   decimal.Decimal // excluding VAT
}

// Invoice is the external invoice record whose payment fields this core maintains
type Invoice struct {
	shared.TenantAggregateRoot
	Number        string
	ClientID      uuid.UUID
	Status        InvoiceStatus
	IssueDate     time.Time
	DueDate       *time.Time
	Currency      valueobject.Currency
	TotalHT       decimal.Decimal
	TotalTVA      decimal.Decimal
	TotalTTC      decimal.Decimal
	AmountPaid    decimal.Decimal
	BalanceDue    decimal.Decimal
	PaymentStatus PaymentStatus
	BuyerRef      string
	Lines         []InvoiceLine
}

// InvoiceInput carries the fields accepted by NewInvoice
type InvoiceInput struct {
	Number    string
	ClientID  uuid.UUID
	IssueDate time.Time
	DueDate   *time.Time
	Currency  valueobject.Currency
	BuyerRef  string
	Lines     []InvoiceLine
}

// NewInvoice builds a draft invoice and computes its totals from the lines
func NewInvoice(tenantID uuid.UUID, in InvoiceInput) (*Invoice, error) {
	if in.Number == "" {
		return nil, ErrInvalidInvoice.Withf("invoice number is required")
	}
	if in.ClientID == uuid.Nil {
		return nil, ErrInvalidInvoice.Withf("invoice %s: client is required", in.Number)
	}
	if len(in.Lines) == 0 {
		return nil, ErrInvalidInvoice.Withf("invoice %s: at least one line is required", in.Number)
	}
	currency := in.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	issue := in.IssueDate
	if issue.IsZero() {
		issue = time.Now()
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              in.Number,
		ClientID:            in.ClientID,
		Status:              InvoiceStatusDraft,
		IssueDate:           issue,
		DueDate:             in.DueDate,
		Currency:            currency,
		BuyerRef:            in.BuyerRef,
		PaymentStatus:       PaymentStatusUnpaid,
		AmountPaid:          decimal.Zero,
	}

	totalHT := decimal.Zero
	for i, line := range in.Lines {
		if line.Quantity.IsZero() || line.UnitPrice.IsNegative() || line.VATRate.IsNegative() {
			return nil, ErrInvalidInvoice.Withf("invoice %s: line %d is invalid", in.Number, i+1)
		}
		line.LineTotal = valueobject.RoundCents(line.Quantity.Mul(line.UnitPrice))
		totalHT = totalHT.Add(line.LineTotal)
		inv.Lines = append(inv.Lines, line)
	}
	inv.TotalHT = valueobject.RoundCents(totalHT)
	// VAT is rounded per rate so the header total always equals the breakdown
	inv.TotalTVA = decimal.Zero
	for _, g := range inv.VATBreakdown() {
		inv.TotalTVA = inv.TotalTVA.Add(g.Amount)
	}
	inv.TotalTTC = inv.TotalHT.Add(inv.TotalTVA)
	inv.BalanceDue = inv.TotalTTC
	return inv, nil
}

// ApplyTotalPaid recomputes amount paid, balance due and payment status from the sum of
// applicable payments. When the invoice becomes fully paid its own status moves to paid.
// Returns true when any persisted field changed.
func (inv *Invoice) ApplyTotalPaid(totalPaid decimal.Decimal) bool {
	amountPaid := valueobject.RoundCents(totalPaid)
	balance := valueobject.RoundCents(inv.TotalTTC.Sub(totalPaid))
	status := DerivePaymentStatus(totalPaid, inv.TotalTTC)

	changed := !amountPaid.Equal(inv.AmountPaid) || !balance.Equal(inv.BalanceDue) || status != inv.PaymentStatus
	inv.AmountPaid = amountPaid
	inv.BalanceDue = balance
	inv.PaymentStatus = status

	if status == PaymentStatusPaid && inv.Status != InvoiceStatusPaid {
		inv.Status = InvoiceStatusPaid
		changed = true
		inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	}
	if changed {
		inv.Touch()
	}
	return changed
}

// Finalize moves a draft invoice to sent and records an InvoiceFinalized event
func (inv *Invoice) Finalize() error {
	if inv.Status != InvoiceStatusDraft {
		return ErrInvoiceState.Withf("invoice %s is %s, only drafts can be finalized", inv.Number, inv.Status)
	}
	inv.Status = InvoiceStatusSent
	inv.Touch()
	inv.AddDomainEvent(NewInvoiceFinalizedEvent(inv))
	return nil
}

// RepeatFinalized records InvoiceFinalized again for an invoice that already left draft,
// leaving its state untouched. Consumers deduplicate on the invoice ID.
func (inv *Invoice) RepeatFinalized() error {
	if inv.Status != InvoiceStatusSent && inv.Status != InvoiceStatusPaid {
		return ErrInvoiceState.Withf("invoice %s is %s and has no finalization to repeat", inv.Number, inv.Status)
	}
	inv.AddDomainEvent(NewInvoiceFinalizedEvent(inv))
	return nil
}

// VATBreakdown groups line totals by VAT rate, ordered by ascending rate
func (inv *Invoice) VATBreakdown() []VATGroup {
	var groups []VATGroup
	index := make(map[string]int)
	for _, line := range inv.Lines {
		key := line.VATRate.String()
		i, ok := index[key]
		if !ok {
			groups = append(groups, VATGroup{Rate: line.VATRate, Basis: decimal.Zero, Amount: decimal.Zero})
			i = len(groups) - 1
			index[key] = i
		}
		groups[i].Basis = groups[i].Basis.Add(line.LineTotal)
	}
	for i := range groups {
		groups[i].Amount = valueobject.RoundCents(groups[i].Basis.Mul(groups[i].Rate).Div(decimal.NewFromInt(100)))
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Rate.LessThan(groups[j].Rate)
	})
	return groups
}

// VATGroup is the taxable basis and VAT amount of one rate
type VATGroup struct {
	Rate   decimal.Decimal
	Basis  decimal.Decimal
	Amount decimal.Decimal
}
