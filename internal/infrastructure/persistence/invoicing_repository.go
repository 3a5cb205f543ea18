package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements invoicing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID loads an invoice with its lines
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	return r.find(ctx, false, tenantID, id)
}

// FindByIDForUpdate loads an invoice and locks its row until the transaction ends.
// SQLite has no row locks and runs the plain select.
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	return r.find(ctx, true, tenantID, id)
}

func (r *GormInvoiceRepository) find(ctx context.Context, forUpdate bool, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	query := r.db.WithContext(ctx)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var model models.InvoiceModel
	if err := query.
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", model.ID).
		Order("position ASC").
		Find(&model.Lines).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts an invoice with its lines
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *invoicing.Invoice) error {
	return r.db.WithContext(ctx).Create(models.InvoiceModelFromDomain(invoice)).Error
}

// SaveWithLock writes status and payment fields when the stored version is
// invoice.Version-1; otherwise reports invoicing.ErrConcurrency.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *invoicing.Invoice) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", invoice.TenantID, invoice.ID, invoice.Version-1).
		Updates(map[string]any{
			"status":         string(invoice.Status),
			"amount_paid":    invoice.AmountPaid,
			"balance_due":    invoice.BalanceDue,
			"payment_status": string(invoice.PaymentStatus),
			"version":        invoice.Version,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return invoicing.ErrConcurrency.Withf("invoice %s was modified concurrently", invoice.Number)
	}
	return nil
}

// ExistingIDs returns the subset of ids that belong to the tenant
func (r *GormInvoiceRepository) ExistingIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

// GormPaymentRepository implements invoicing.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create inserts a payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *invoicing.Payment) error {
	return r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(payment)).Error
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Delete removes a payment
func (r *GormPaymentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.PaymentModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SumDirectForInvoice sums the non lump-sum payments of the invoice
func (r *GormPaymentRepository) SumDirectForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	return sumAmount(r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("tenant_id = ? AND invoice_id = ? AND is_lump_sum = ?", tenantID, invoiceID, false))
}

// ListDirectForInvoice lists the non lump-sum payments of the invoice by date
func (r *GormPaymentRepository) ListDirectForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]invoicing.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ? AND is_lump_sum = ?", tenantID, invoiceID, false).
		Order("payment_date ASC").
		Order("created_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]invoicing.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = *paymentModels[i].ToDomain()
	}
	return payments, nil
}

// GormAllocationRepository implements invoicing.AllocationRepository using GORM
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewGormAllocationRepository creates a new GormAllocationRepository
func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

// CreateBatch inserts the allocations of one payment
func (r *GormAllocationRepository) CreateBatch(ctx context.Context, allocations []invoicing.PaymentAllocation) error {
	if len(allocations) == 0 {
		return nil
	}
	allocationModels := make([]*models.PaymentAllocationModel, len(allocations))
	for i := range allocations {
		allocationModels[i] = models.PaymentAllocationModelFromDomain(&allocations[i])
	}
	return r.db.WithContext(ctx).Create(allocationModels).Error
}

// ListByPayment lists the allocations of a lump-sum payment
func (r *GormAllocationRepository) ListByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) ([]invoicing.PaymentAllocation, error) {
	return r.list(ctx, "tenant_id = ? AND payment_id = ?", tenantID, paymentID)
}

// ListForInvoice lists the allocations made to an invoice
func (r *GormAllocationRepository) ListForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]invoicing.PaymentAllocation, error) {
	return r.list(ctx, "tenant_id = ? AND invoice_id = ?", tenantID, invoiceID)
}

func (r *GormAllocationRepository) list(ctx context.Context, where string, args ...any) ([]invoicing.PaymentAllocation, error) {
	var allocationModels []models.PaymentAllocationModel
	if err := r.db.WithContext(ctx).
		Where(where, args...).
		Order("created_at ASC").
		Find(&allocationModels).Error; err != nil {
		return nil, err
	}
	allocations := make([]invoicing.PaymentAllocation, len(allocationModels))
	for i := range allocationModels {
		allocations[i] = allocationModels[i].ToDomain()
	}
	return allocations, nil
}

// SumForInvoice sums the allocations made to an invoice
func (r *GormAllocationRepository) SumForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	return sumAmount(r.db.WithContext(ctx).Model(&models.PaymentAllocationModel{}).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID))
}

// DeleteByPayment removes the allocations of a payment
func (r *GormAllocationRepository) DeleteByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND payment_id = ?", tenantID, paymentID).
		Delete(&models.PaymentAllocationModel{}).Error
}

// sumAmount totals the amount column of query, rounded to cents.
// SQLite returns SUM over NUMERIC columns as REAL.
func sumAmount(query *gorm.DB) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := query.Select("COALESCE(SUM(amount), 0) AS total").Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return valueobject.RoundCents(result.Total), nil
}

// GormPartyRepository implements invoicing.PartyRepository using GORM
type GormPartyRepository struct {
	db *gorm.DB
}

// NewGormPartyRepository creates a new GormPartyRepository
func NewGormPartyRepository(db *gorm.DB) *GormPartyRepository {
	return &GormPartyRepository{db: db}
}

// FindCompany returns the tenant's company record
func (r *GormPartyRepository) FindCompany(ctx context.Context, tenantID uuid.UUID) (*invoicing.Party, error) {
	var model models.PartyModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND role = ?", tenantID, string(invoicing.PartyRoleCompany)).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a party by its ID
func (r *GormPartyRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Party, error) {
	var model models.PartyModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListClients lists the tenant's clients by name
func (r *GormPartyRepository) ListClients(ctx context.Context, tenantID uuid.UUID) ([]invoicing.Party, error) {
	var partyModels []models.PartyModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND role = ?", tenantID, string(invoicing.PartyRoleClient)).
		Order("name ASC").
		Find(&partyModels).Error; err != nil {
		return nil, err
	}
	parties := make([]invoicing.Party, len(partyModels))
	for i := range partyModels {
		parties[i] = *partyModels[i].ToDomain()
	}
	return parties, nil
}

// Save creates or updates a party
func (r *GormPartyRepository) Save(ctx context.Context, party *invoicing.Party) error {
	return r.db.WithContext(ctx).Save(models.PartyModelFromDomain(party)).Error
}

var (
	_ invoicing.InvoiceRepository    = (*GormInvoiceRepository)(nil)
	_ invoicing.PaymentRepository    = (*GormPaymentRepository)(nil)
	_ invoicing.AllocationRepository = (*GormAllocationRepository)(nil)
	_ invoicing.PartyRepository      = (*GormPartyRepository)(nil)
)
