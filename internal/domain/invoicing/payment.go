package invoicing

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a payment was received
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodOther        PaymentMethod = "other"
)

// ParsePaymentMethod normalises a method, defaulting to bank transfer
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case "":
		return PaymentMethodBankTransfer, nil
	case PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodCash, PaymentMethodCheque, PaymentMethodOther:
		return m, nil
	}
	return "", ErrInvalidPayment.Withf("unknown payment method %q", s)
}

// Payment is money received, either for one invoice (direct) or split across
// several invoices through allocations (lump-sum).
type Payment struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	InvoiceID   *uuid.UUID
	ClientID    *uuid.UUID
	Amount      decimal.Decimal
	Method      PaymentMethod
	PaymentDate time.Time
	Reference   string
	IsLumpSum   bool
	CreatedAt   time.Time
	Allocations []PaymentAllocation
}

// PaymentAllocation is the share of a lump-sum payment applied to one invoice
type PaymentAllocation struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	PaymentID uuid.UUID
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
	CreatedAt time.Time
}

// AllocationInput requests part of a lump-sum payment for an invoice
type AllocationInput struct {
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
}

func validateAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	amount = valueobject.RoundCents(amount)
	if !amount.IsPositive() {
		return amount, ErrInvalidPayment.Withf("payment amount must be positive")
	}
	return amount, nil
}

// NewDirectPayment builds a payment tied to exactly one invoice
func NewDirectPayment(tenantID, invoiceID uuid.UUID, amount decimal.Decimal, method PaymentMethod, date time.Time, reference string) (*Payment, error) {
	if invoiceID == uuid.Nil {
		return nil, ErrInvalidPayment.Withf("invoice is required for a direct payment")
	}
	amount, err := validateAmount(amount)
	if err != nil {
		return nil, err
	}
	return newPayment(tenantID, amount, method, date, reference, func(p *Payment) {
		p.InvoiceID = &invoiceID
	}), nil
}

// NewLumpSumPayment builds one payment split across invoices. The allocations may not
// exceed the payment amount in total.
func NewLumpSumPayment(tenantID, clientID uuid.UUID, amount decimal.Decimal, method PaymentMethod, date time.Time, reference string, allocations []AllocationInput) (*Payment, error) {
	amount, err := validateAmount(amount)
	if err != nil {
		return nil, err
	}
	if len(allocations) == 0 {
		return nil, ErrInvalidPayment.Withf("a lump-sum payment needs at least one allocation")
	}

	allocated := decimal.Zero
	rows := make([]PaymentAllocation, 0, len(allocations))
	for i, in := range allocations {
		if in.InvoiceID == uuid.Nil {
			return nil, ErrInvalidPayment.Withf("allocation %d: invoice is required", i+1)
		}
		share := valueobject.RoundCents(in.Amount)
		if !share.IsPositive() {
			return nil, ErrInvalidPayment.Withf("allocation %d: amount must be positive", i+1)
		}
		allocated = allocated.Add(share)
		rows = append(rows, PaymentAllocation{
			ID:        uuid.New(),
			TenantID:  tenantID,
			InvoiceID: in.InvoiceID,
			Amount:    share,
		})
	}
	if allocated.GreaterThan(amount) {
		return nil, ErrOverAllocation.Withf("allocations total %s exceeds payment amount %s",
			valueobject.FormatFixed(allocated), valueobject.FormatFixed(amount))
	}

	p := newPayment(tenantID, amount, method, date, reference, func(p *Payment) {
		p.IsLumpSum = true
		if clientID != uuid.Nil {
			p.ClientID = &clientID
		}
	})
	for i := range rows {
		rows[i].PaymentID = p.ID
		rows[i].CreatedAt = p.CreatedAt
	}
	p.Allocations = rows
	return p, nil
}

func newPayment(tenantID uuid.UUID, amount decimal.Decimal, method PaymentMethod, date time.Time, reference string, shape func(*Payment)) *Payment {
	if method == "" {
		method = PaymentMethodBankTransfer
	}
	if date.IsZero() {
		date = time.Now()
	}
	p := &Payment{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Amount:      amount,
		Method:      method,
		PaymentDate: date,
		Reference:   strings.TrimSpace(reference),
		CreatedAt:   time.Now(),
	}
	shape(p)
	return p
}

// TouchedInvoices returns the distinct invoices the payment applies to, in ascending id order
func (p *Payment) TouchedInvoices() []uuid.UUID {
	var ids []uuid.UUID
	if p.InvoiceID != nil {
		ids = append(ids, *p.InvoiceID)
	}
	for _, a := range p.Allocations {
		ids = append(ids, a.InvoiceID)
	}
	return DistinctInvoiceIDs(ids)
}

// DistinctInvoiceIDs dedupes and sorts ids so locks are always taken in the same order
func DistinctInvoiceIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
