package invoicing

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Option configures the invoicing application services
type Option func(*options)

type options struct {
	events  shared.EventPublisher
	metrics Metrics
	now     func() time.Time
}

// WithEventPublisher publishes invoice events after each committed change
func WithEventPublisher(p shared.EventPublisher) Option {
	return func(o *options) {
		o.events = p
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithClock overrides the clock used for undated payments
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{metrics: noopMetrics{}, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// PaymentReconciler records payments and keeps invoice balance and payment status in step
// with them. Every recompute of an invoice holds the invoice lock and runs in a transaction
// that reads the invoice row for update and saves it with a version check.
type PaymentReconciler struct {
	scope  TransactionScope
	locker InvoiceLocker
	opts   options
	logger *zap.Logger
}

// NewPaymentReconciler creates a new PaymentReconciler
func NewPaymentReconciler(scope TransactionScope, locker InvoiceLocker, logger *zap.Logger, opts ...Option) *PaymentReconciler {
	return &PaymentReconciler{
		scope:  scope,
		locker: locker,
		opts:   buildOptions(opts),
		logger: logger,
	}
}

// RecordPayment stores a direct payment and recomputes its invoice in the same transaction
func (r *PaymentReconciler) RecordPayment(ctx context.Context, tenantID, invoiceID uuid.UUID, req RecordPaymentRequest) (resp *RecordPaymentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_reconciler", "record_payment",
		telemetry.WithAttribute("invoice_id", invoiceID.String()),
	)
	defer span.End()
	defer func() { r.opts.metrics.ObservePayment("direct", err) }()

	method, err := invoicing.ParsePaymentMethod(req.Method)
	if err != nil {
		return nil, err
	}
	payment, err := invoicing.NewDirectPayment(tenantID, invoiceID, req.Amount, method, r.paymentDate(req.PaymentDate), req.Reference)
	if err != nil {
		return nil, err
	}

	unlock, err := r.locker.Lock(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var inv *invoicing.Invoice
	err = r.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		current, err := r.loadForUpdate(ctx, repos, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if err := ensurePayable(current); err != nil {
			return err
		}
		if err := repos.Payments().Create(ctx, payment); err != nil {
			return shared.WrapStoreError("create payment", err)
		}
		inv, err = r.applyPayments(ctx, repos, current)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	r.publish(ctx, inv)

	r.logger.Info("payment recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.String("payment_status", string(inv.PaymentStatus)),
	)
	return &RecordPaymentResponse{Payment: ToPaymentResponse(payment), Invoice: ToInvoiceResponse(inv)}, nil
}

// RecordLumpSum stores one payment and its allocations atomically, then recomputes every
// allocated invoice once. The payment stays recorded when an individual recompute fails.
func (r *PaymentReconciler) RecordLumpSum(ctx context.Context, tenantID uuid.UUID, req LumpSumPaymentRequest) (resp *LumpSumPaymentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_reconciler", "record_lump_sum",
		telemetry.WithAttribute("allocations", len(req.Allocations)),
	)
	defer span.End()
	defer func() { r.opts.metrics.ObservePayment("lump_sum", err) }()

	method, err := invoicing.ParsePaymentMethod(req.Method)
	if err != nil {
		return nil, err
	}
	allocations := make([]invoicing.AllocationInput, len(req.Allocations))
	for i, a := range req.Allocations {
		allocations[i] = invoicing.AllocationInput{InvoiceID: a.InvoiceID, Amount: a.Amount}
	}
	payment, err := invoicing.NewLumpSumPayment(tenantID, req.ClientID, req.Amount, method,
		r.paymentDate(req.PaymentDate), req.Reference, allocations)
	if err != nil {
		return nil, err
	}
	touched := payment.TouchedInvoices()

	err = r.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.Invoices().ExistingIDs(ctx, tenantID, touched)
		if err != nil {
			return shared.WrapStoreError("check invoices", err)
		}
		if missing := missingIDs(touched, existing); len(missing) > 0 {
			return invoicing.ErrInvoiceNotFound.Withf("invoice(s) not found: %v", missing)
		}
		for _, id := range touched {
			inv, err := repos.Invoices().FindByID(ctx, tenantID, id)
			if err != nil {
				return notFoundInvoice(id, err)
			}
			if err := ensurePayable(inv); err != nil {
				return err
			}
		}
		if err := repos.Payments().Create(ctx, payment); err != nil {
			return shared.WrapStoreError("create payment", err)
		}
		if err := repos.Allocations().CreateBatch(ctx, payment.Allocations); err != nil {
			return shared.WrapStoreError("create allocations", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	report := r.recomputeAll(ctx, tenantID, touched)
	r.logger.Info("lump-sum payment recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.Int("invoices", len(touched)),
		zap.Int("failed", len(report.Failed)),
	)
	return &LumpSumPaymentResponse{Payment: ToPaymentResponse(payment), Report: report}, nil
}

// RecomputeInvoice derives amount paid, balance due and payment status from the invoice's
// direct payments and allocations.
func (r *PaymentReconciler) RecomputeInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_reconciler", "recompute",
		telemetry.WithAttribute("invoice_id", invoiceID.String()),
	)
	defer span.End()

	start := time.Now()
	inv, err := r.recompute(ctx, tenantID, invoiceID)
	r.opts.metrics.ObserveRecompute(recomputeOutcome(err), time.Since(start))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// DeletePayment removes a payment with its allocations and recomputes every invoice it touched
func (r *PaymentReconciler) DeletePayment(ctx context.Context, tenantID, paymentID uuid.UUID) (*RecomputeReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_reconciler", "delete_payment",
		telemetry.WithAttribute("payment_id", paymentID.String()),
	)
	defer span.End()

	var touched []uuid.UUID
	err := r.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.Payments().FindByID(ctx, tenantID, paymentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return invoicing.ErrPaymentNotFound.Withf("payment %s not found", paymentID)
			}
			return shared.WrapStoreError("load payment", err)
		}
		payment.Allocations, err = repos.Allocations().ListByPayment(ctx, tenantID, paymentID)
		if err != nil {
			return shared.WrapStoreError("load allocations", err)
		}
		touched = payment.TouchedInvoices()

		if err := repos.Allocations().DeleteByPayment(ctx, tenantID, paymentID); err != nil {
			return shared.WrapStoreError("delete allocations", err)
		}
		if err := repos.Payments().Delete(ctx, tenantID, paymentID); err != nil {
			return shared.WrapStoreError("delete payment", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	report := r.recomputeAll(ctx, tenantID, touched)
	r.logger.Info("payment deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_id", paymentID.String()),
		zap.Int("invoices", len(touched)),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

// ListPayments returns the direct payments and lump-sum shares applied to an invoice, oldest first
func (r *PaymentReconciler) ListPayments(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]InvoicePaymentResponse, error) {
	var out []InvoicePaymentResponse
	err := r.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Invoices().FindByID(ctx, tenantID, invoiceID); err != nil {
			return notFoundInvoice(invoiceID, err)
		}
		direct, err := repos.Payments().ListDirectForInvoice(ctx, tenantID, invoiceID)
		if err != nil {
			return shared.WrapStoreError("list payments", err)
		}
		for _, p := range direct {
			out = append(out, InvoicePaymentResponse{
				PaymentID:     p.ID,
				AppliedAmount: p.Amount,
				PaymentAmount: p.Amount,
				Method:        string(p.Method),
				PaymentDate:   p.PaymentDate,
				Reference:     p.Reference,
			})
		}

		allocations, err := repos.Allocations().ListForInvoice(ctx, tenantID, invoiceID)
		if err != nil {
			return shared.WrapStoreError("list allocations", err)
		}
		for _, a := range allocations {
			p, err := repos.Payments().FindByID(ctx, tenantID, a.PaymentID)
			if err != nil {
				return shared.WrapStoreError("load payment", err)
			}
			out = append(out, InvoicePaymentResponse{
				PaymentID:     p.ID,
				AppliedAmount: a.Amount,
				PaymentAmount: p.Amount,
				Method:        string(p.Method),
				PaymentDate:   p.PaymentDate,
				Reference:     p.Reference,
				IsLumpSum:     true,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PaymentDate.Before(out[j].PaymentDate)
	})
	if out == nil {
		out = []InvoicePaymentResponse{}
	}
	return out, nil
}

// recomputeAll recomputes invoices one at a time in ascending id order, collecting failures
func (r *PaymentReconciler) recomputeAll(ctx context.Context, tenantID uuid.UUID, invoiceIDs []uuid.UUID) *RecomputeReport {
	report := &RecomputeReport{Recomputed: []InvoiceResponse{}, Failed: []RecomputeFailure{}}
	for _, id := range invoicing.DistinctInvoiceIDs(invoiceIDs) {
		start := time.Now()
		inv, err := r.recompute(ctx, tenantID, id)
		r.opts.metrics.ObserveRecompute(recomputeOutcome(err), time.Since(start))
		if err != nil {
			r.logger.Error("invoice recompute failed",
				zap.String("tenant_id", tenantID.String()),
				zap.String("invoice_id", id.String()),
				zap.Error(err),
			)
			failure := RecomputeFailure{InvoiceID: id, Error: err.Error()}
			var de *shared.DomainError
			if errors.As(err, &de) {
				failure.Code = de.Code
			}
			report.Failed = append(report.Failed, failure)
			continue
		}
		report.Recomputed = append(report.Recomputed, ToInvoiceResponse(inv))
	}
	return report
}

func (r *PaymentReconciler) recompute(ctx context.Context, tenantID, invoiceID uuid.UUID) (*invoicing.Invoice, error) {
	unlock, err := r.locker.Lock(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var inv *invoicing.Invoice
	err = r.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		current, err := r.loadForUpdate(ctx, repos, tenantID, invoiceID)
		if err != nil {
			return err
		}
		inv, err = r.applyPayments(ctx, repos, current)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.publish(ctx, inv)
	return inv, nil
}

func (r *PaymentReconciler) loadForUpdate(ctx context.Context, repos TransactionalRepositories, tenantID, invoiceID uuid.UUID) (*invoicing.Invoice, error) {
	inv, err := repos.Invoices().FindByIDForUpdate(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, notFoundInvoice(invoiceID, err)
	}
	return inv, nil
}

// applyPayments sums direct payments and allocations and saves the invoice when anything changed
func (r *PaymentReconciler) applyPayments(ctx context.Context, repos TransactionalRepositories, inv *invoicing.Invoice) (*invoicing.Invoice, error) {
	direct, err := repos.Payments().SumDirectForInvoice(ctx, inv.TenantID, inv.ID)
	if err != nil {
		return nil, shared.WrapStoreError("sum payments", err)
	}
	allocated, err := repos.Allocations().SumForInvoice(ctx, inv.TenantID, inv.ID)
	if err != nil {
		return nil, shared.WrapStoreError("sum allocations", err)
	}

	if !inv.ApplyTotalPaid(direct.Add(allocated)) {
		return inv, nil
	}
	inv.IncrementVersion()
	if err := repos.Invoices().SaveWithLock(ctx, inv); err != nil {
		return nil, shared.WrapStoreError("save invoice", err)
	}
	return inv, nil
}

// publish delivers the invoice's pending events after commit; failures are logged
func (r *PaymentReconciler) publish(ctx context.Context, inv *invoicing.Invoice) {
	events := inv.GetDomainEvents()
	inv.ClearDomainEvents()
	if r.opts.events == nil || len(events) == 0 {
		return
	}
	if err := r.opts.events.Publish(ctx, events...); err != nil {
		r.logger.Warn("failed to publish invoice events",
			zap.String("invoice_id", inv.ID.String()),
			zap.Error(err),
		)
	}
}

func (r *PaymentReconciler) paymentDate(d *time.Time) time.Time {
	if d != nil && !d.IsZero() {
		return *d
	}
	return r.opts.now()
}

// ensurePayable rejects payments against cancelled invoices
func ensurePayable(inv *invoicing.Invoice) error {
	if inv.Status == invoicing.InvoiceStatusCancelled {
		return invoicing.ErrInvoiceState.Withf("invoice %s is cancelled", inv.Number)
	}
	return nil
}

func notFoundInvoice(invoiceID uuid.UUID, err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return invoicing.ErrInvoiceNotFound.Withf("invoice %s not found", invoiceID)
	}
	return shared.WrapStoreError("load invoice", err)
}

func missingIDs(want, have []uuid.UUID) []uuid.UUID {
	found := make(map[uuid.UUID]bool, len(have))
	for _, id := range have {
		found[id] = true
	}
	var missing []uuid.UUID
	for _, id := range want {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

func recomputeOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case shared.IsKind(err, shared.KindConcurrency):
		return "conflict"
	case shared.IsKind(err, shared.KindNotFound):
		return "not_found"
	default:
		return "error"
	}
}
