package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the invoice header; payment fields are maintained by the reconciler
type InvoiceModel struct {
	TenantAggregateModel
	Number        string             `gorm:"type:varchar(64);not null;index"`
	ClientID      uuid.UUID          `gorm:"type:uuid;not null;index"`
	Status        string             `gorm:"type:varchar(20);not null"`
	IssueDate     time.Time          `gorm:"type:date;not null"`
	DueDate       *time.Time         `gorm:"type:date"`
	Currency      string             `gorm:"type:varchar(3);not null"`
	TotalHT       decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	TotalTVA      decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	TotalTTC      decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	AmountPaid    decimal.Decimal    `gorm:"type:decimal(18,2);not null;default:0"`
	BalanceDue    decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	PaymentStatus string             `gorm:"type:varchar(20);not null"`
	BuyerRef      string             `gorm:"type:varchar(100)"`
	Lines         []InvoiceLineModel `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the model to a domain Invoice
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		Number:        m.Number,
		ClientID:      m.ClientID,
		Status:        invoicing.InvoiceStatus(m.Status),
		IssueDate:     m.IssueDate,
		DueDate:       m.DueDate,
		Currency:      valueobject.Currency(m.Currency),
		TotalHT:       m.TotalHT,
		TotalTVA:      m.TotalTVA,
		TotalTTC:      m.TotalTTC,
		AmountPaid:    m.AmountPaid,
		BalanceDue:    m.BalanceDue,
		PaymentStatus: invoicing.PaymentStatus(m.PaymentStatus),
		BuyerRef:      m.BuyerRef,
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	for _, l := range m.Lines {
		inv.Lines = append(inv.Lines, l.ToDomain())
	}
	return inv
}

// InvoiceModelFromDomain converts a domain Invoice to its model, lines included
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		Number:        inv.Number,
		ClientID:      inv.ClientID,
		Status:        string(inv.Status),
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Currency:      string(inv.Currency),
		TotalHT:       inv.TotalHT,
		TotalTVA:      inv.TotalTVA,
		TotalTTC:      inv.TotalTTC,
		AmountPaid:    inv.AmountPaid,
		BalanceDue:    inv.BalanceDue,
		PaymentStatus: string(inv.PaymentStatus),
		BuyerRef:      inv.BuyerRef,
	}
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	for i, l := range inv.Lines {
		m.Lines = append(m.Lines, InvoiceLineModel{
			ID:          uuid.New(),
			InvoiceID:   inv.ID,
			Position:    i + 1,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			VATRate:     l.VATRate,
			LineTotal:   l.LineTotal,
		})
	}
	return m
}

// InvoiceLineModel is one invoice line, ordered by position
type InvoiceLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null"`
	Description string          `gorm:"type:varchar(500);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	VATRate     decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the model to a domain InvoiceLine
func (m *InvoiceLineModel) ToDomain() invoicing.InvoiceLine {
	return invoicing.InvoiceLine{
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		VATRate:     m.VATRate,
		LineTotal:   m.LineTotal,
	}
}

// PaymentModel is a direct (invoice_id set) or lump-sum (client_id set) payment
type PaymentModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID   *uuid.UUID      `gorm:"type:uuid;index"`
	ClientID    *uuid.UUID      `gorm:"type:uuid;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Method      string          `gorm:"type:varchar(20);not null"`
	PaymentDate time.Time       `gorm:"type:date;not null"`
	Reference   string          `gorm:"type:varchar(100)"`
	IsLumpSum   bool            `gorm:"not null;default:false"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the model to a domain Payment without allocations
func (m *PaymentModel) ToDomain() *invoicing.Payment {
	return &invoicing.Payment{
		ID:          m.ID,
		TenantID:    m.TenantID,
		InvoiceID:   m.InvoiceID,
		ClientID:    m.ClientID,
		Amount:      m.Amount,
		Method:      invoicing.PaymentMethod(m.Method),
		PaymentDate: m.PaymentDate,
		Reference:   m.Reference,
		IsLumpSum:   m.IsLumpSum,
		CreatedAt:   m.CreatedAt,
	}
}

// PaymentModelFromDomain converts a domain Payment to its model
func PaymentModelFromDomain(p *invoicing.Payment) *PaymentModel {
	return &PaymentModel{
		ID:          p.ID,
		TenantID:    p.TenantID,
		InvoiceID:   p.InvoiceID,
		ClientID:    p.ClientID,
		Amount:      p.Amount,
		Method:      string(p.Method),
		PaymentDate: p.PaymentDate,
		Reference:   p.Reference,
		IsLumpSum:   p.IsLumpSum,
		CreatedAt:   p.CreatedAt,
	}
}

// PaymentAllocationModel assigns part of a lump-sum payment to one invoice
type PaymentAllocationModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	PaymentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentAllocationModel) TableName() string {
	return "payment_allocations"
}

// ToDomain converts the model to a domain PaymentAllocation
func (m *PaymentAllocationModel) ToDomain() invoicing.PaymentAllocation {
	return invoicing.PaymentAllocation{
		ID:        m.ID,
		TenantID:  m.TenantID,
		PaymentID: m.PaymentID,
		InvoiceID: m.InvoiceID,
		Amount:    m.Amount,
		CreatedAt: m.CreatedAt,
	}
}

// PaymentAllocationModelFromDomain converts a domain PaymentAllocation to its model
func PaymentAllocationModelFromDomain(a *invoicing.PaymentAllocation) *PaymentAllocationModel {
	return &PaymentAllocationModel{
		ID:        a.ID,
		TenantID:  a.TenantID,
		PaymentID: a.PaymentID,
		InvoiceID: a.InvoiceID,
		Amount:    a.Amount,
		CreatedAt: a.CreatedAt,
	}
}

// PartyModel stores the company identity and clients used by exports
type PartyModel struct {
	BaseModel
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Role        string    `gorm:"type:varchar(20);not null;index"`
	Name        string    `gorm:"type:varchar(200);not null"`
	LegalID     string    `gorm:"type:varchar(50)"`
	VATNumber   string    `gorm:"type:varchar(50)"`
	IBAN        string    `gorm:"type:varchar(34)"`
	BIC         string    `gorm:"type:varchar(11)"`
	Email       string    `gorm:"type:varchar(200)"`
	AddressLine string    `gorm:"type:varchar(300)"`
	PostalCode  string    `gorm:"type:varchar(20)"`
	City        string    `gorm:"type:varchar(100)"`
	CountryCode string    `gorm:"type:varchar(2)"`
}

// TableName returns the table name for GORM
func (PartyModel) TableName() string {
	return "parties"
}

// ToDomain converts the model to a domain Party
func (m *PartyModel) ToDomain() *invoicing.Party {
	return &invoicing.Party{
		ID:          m.ID,
		TenantID:    m.TenantID,
		Role:        invoicing.PartyRole(m.Role),
		Name:        m.Name,
		LegalID:     m.LegalID,
		VATNumber:   m.VATNumber,
		IBAN:        m.IBAN,
		BIC:         m.BIC,
		Email:       m.Email,
		AddressLine: m.AddressLine,
		PostalCode:  m.PostalCode,
		City:        m.City,
		CountryCode: m.CountryCode,
	}
}

// PartyModelFromDomain converts a domain Party to its model
func PartyModelFromDomain(p *invoicing.Party) *PartyModel {
	now := time.Now()
	return &PartyModel{
		BaseModel:   BaseModel{ID: p.ID, CreatedAt: now, UpdatedAt: now},
		TenantID:    p.TenantID,
		Role:        string(p.Role),
		Name:        p.Name,
		LegalID:     p.LegalID,
		VATNumber:   p.VATNumber,
		IBAN:        p.IBAN,
		BIC:         p.BIC,
		Email:       p.Email,
		AddressLine: p.AddressLine,
		PostalCode:  p.PostalCode,
		City:        p.City,
		CountryCode: p.CountryCode,
	}
}

// AllModels lists every model in dependency order, for AutoMigrate in tests and dev tooling
func AllModels() []any {
	return []any{
		&AccountModel{},
		&JournalEntryModel{},
		&PartyModel{},
		&InvoiceModel{},
		&InvoiceLineModel{},
		&PaymentModel{},
		&PaymentAllocationModel{},
	}
}
