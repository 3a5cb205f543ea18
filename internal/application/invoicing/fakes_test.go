package invoicing

import (
	"context"
	"sync"
	"time"

	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memInvoicing is an in-memory store behind the invoice, payment and allocation fakes
type memInvoicing struct {
	mu          sync.Mutex
	invoices    map[uuid.UUID]invoicing.Invoice
	payments    map[uuid.UUID]invoicing.Payment
	allocations []invoicing.PaymentAllocation
	saves       int
	failSaveFor uuid.UUID
	conflictFor uuid.UUID
}

func newMemInvoicing() *memInvoicing {
	return &memInvoicing{
		invoices: make(map[uuid.UUID]invoicing.Invoice),
		payments: make(map[uuid.UUID]invoicing.Payment),
	}
}

func (m *memInvoicing) scope() *NoOpTransactionScope {
	return NewNoOpTransactionScope(memInvoices{m}, memPayments{m}, memAllocations{m})
}

func (m *memInvoicing) invoice(id uuid.UUID) invoicing.Invoice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invoices[id]
}

type memInvoices struct{ m *memInvoicing }
type memPayments struct{ m *memInvoicing }
type memAllocations struct{ m *memInvoicing }

func (r memInvoices) FindByID(_ context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	inv, ok := r.m.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &inv, nil
}

func (r memInvoices) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r memInvoices) Create(_ context.Context, inv *invoicing.Invoice) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored := *inv
	stored.ClearDomainEvents()
	r.m.invoices[inv.ID] = stored
	return nil
}

func (r memInvoices) SaveWithLock(_ context.Context, inv *invoicing.Invoice) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if inv.ID == r.m.failSaveFor {
		return shared.NewExternalIOError("save invoice", context.DeadlineExceeded)
	}
	current, ok := r.m.invoices[inv.ID]
	if !ok || current.Version != inv.Version-1 || inv.ID == r.m.conflictFor {
		return invoicing.ErrConcurrency
	}
	stored := *inv
	stored.ClearDomainEvents()
	r.m.invoices[inv.ID] = stored
	r.m.saves++
	return nil
}

func (r memInvoices) ExistingIDs(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []uuid.UUID
	for _, id := range ids {
		if inv, ok := r.m.invoices[id]; ok && inv.TenantID == tenantID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r memPayments) Create(_ context.Context, p *invoicing.Payment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored := *p
	stored.Allocations = nil
	r.m.payments[p.ID] = stored
	return nil
}

func (r memPayments) FindByID(_ context.Context, tenantID, id uuid.UUID) (*invoicing.Payment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.payments[id]
	if !ok || p.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r memPayments) Delete(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.payments, id)
	return nil
}

func (r memPayments) SumDirectForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	list, _ := r.ListDirectForInvoice(ctx, tenantID, invoiceID)
	total := decimal.Zero
	for _, p := range list {
		total = total.Add(p.Amount)
	}
	return total, nil
}

func (r memPayments) ListDirectForInvoice(_ context.Context, tenantID, invoiceID uuid.UUID) ([]invoicing.Payment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []invoicing.Payment
	for _, p := range r.m.payments {
		if p.TenantID == tenantID && !p.IsLumpSum && p.InvoiceID != nil && *p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memAllocations) CreateBatch(_ context.Context, rows []invoicing.PaymentAllocation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.allocations = append(r.m.allocations, rows...)
	return nil
}

func (r memAllocations) ListByPayment(_ context.Context, tenantID, paymentID uuid.UUID) ([]invoicing.PaymentAllocation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []invoicing.PaymentAllocation
	for _, a := range r.m.allocations {
		if a.TenantID == tenantID && a.PaymentID == paymentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAllocations) ListForInvoice(_ context.Context, tenantID, invoiceID uuid.UUID) ([]invoicing.PaymentAllocation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []invoicing.PaymentAllocation
	for _, a := range r.m.allocations {
		if a.TenantID == tenantID && a.InvoiceID == invoiceID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAllocations) SumForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	list, _ := r.ListForInvoice(ctx, tenantID, invoiceID)
	total := decimal.Zero
	for _, a := range list {
		total = total.Add(a.Amount)
	}
	return total, nil
}

func (r memAllocations) DeleteByPayment(_ context.Context, _ uuid.UUID, paymentID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	kept := r.m.allocations[:0]
	for _, a := range r.m.allocations {
		if a.PaymentID != paymentID {
			kept = append(kept, a)
		}
	}
	r.m.allocations = kept
	return nil
}

// mutexLocker serializes per invoice id in-process
type mutexLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
	order []uuid.UUID
}

func (l *mutexLocker) Lock(_ context.Context, id uuid.UUID) (func(), error) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = map[uuid.UUID]*sync.Mutex{}
	}
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.order = append(l.order, id)
	l.mu.Unlock()
	m.Lock()
	return m.Unlock, nil
}

// recordingPublisher keeps published events. With failures set, err is
// returned only for that many calls; otherwise it is returned every time.
type recordingPublisher struct {
	mu       sync.Mutex
	events   []shared.DomainEvent
	err      error
	failures int
	calls    int
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.events = append(p.events, events...)
	if p.failures > 0 && p.calls > p.failures {
		return nil
	}
	return p.err
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) *time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return &t
}

// seedInvoice stores a sent invoice with a single line of the given total excluding VAT at 20%
func seedInvoice(m *memInvoicing, tenantID uuid.UUID, number, totalHT string) *invoicing.Invoice {
	inv, err := invoicing.NewInvoice(tenantID, invoicing.InvoiceInput{
		Number:    number,
		ClientID:  uuid.New(),
		IssueDate: *date("2026-01-15"),
		Lines: []invoicing.InvoiceLine{
			{Description: "Service", Quantity: decimal.NewFromInt(1), UnitPrice: dec(totalHT), VATRate: dec("20")},
		},
	})
	if err != nil {
		panic(err)
	}
	inv.Status = invoicing.InvoiceStatusSent
	_ = memInvoices{m}.Create(context.Background(), inv)
	return inv
}
