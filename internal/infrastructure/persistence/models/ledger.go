package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountModel is a chart-of-accounts row; (tenant_id, country, code) is unique
type AccountModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_accounts_tenant_country_code,priority:1"`
	Country  string    `gorm:"type:varchar(8);not null;uniqueIndex:idx_accounts_tenant_country_code,priority:2"`
	Code     string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_accounts_tenant_country_code,priority:3"`
	Name     string    `gorm:"type:varchar(200);not null"`
	Category string    `gorm:"type:varchar(20);not null;index"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the model to a domain Account
func (m *AccountModel) ToDomain() *ledger.Account {
	return &ledger.Account{
		ID:        m.ID,
		TenantID:  m.TenantID,
		Code:      m.Code,
		Name:      m.Name,
		Category:  ledger.Category(m.Category),
		Country:   ledger.Country(m.Country),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// AccountModelFromDomain converts a domain Account to its model
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	return &AccountModel{
		BaseModel: BaseModel{ID: a.ID, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt},
		TenantID:  a.TenantID,
		Country:   string(a.Country),
		Code:      a.Code,
		Name:      a.Name,
		Category:  string(a.Category),
	}
}

// JournalEntryModel is one append-only journal line
type JournalEntryModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_journal_entries_tenant_date,priority:1"`
	EntryRef        string          `gorm:"type:varchar(64);not null;index"`
	Journal         string          `gorm:"type:varchar(4);not null"`
	TransactionDate time.Time       `gorm:"type:date;not null;index:idx_journal_entries_tenant_date,priority:2"`
	AccountCode     string          `gorm:"type:varchar(20);not null;index"`
	Debit           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Credit          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Description     string          `gorm:"type:varchar(500)"`
	SourceType      string          `gorm:"type:varchar(32);not null;index"`
	SourceID        *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// ToDomain converts the model to a domain JournalEntry
func (m *JournalEntryModel) ToDomain() ledger.JournalEntry {
	return ledger.JournalEntry{
		ID:              m.ID,
		TenantID:        m.TenantID,
		EntryRef:        m.EntryRef,
		Journal:         ledger.Journal(m.Journal),
		TransactionDate: ledger.TruncateDay(m.TransactionDate),
		AccountCode:     m.AccountCode,
		Debit:           m.Debit,
		Credit:          m.Credit,
		Description:     m.Description,
		SourceType:      ledger.SourceType(m.SourceType),
		SourceID:        m.SourceID,
		CreatedAt:       m.CreatedAt,
	}
}

// JournalEntryModelFromDomain converts a domain JournalEntry to its model
func JournalEntryModelFromDomain(e *ledger.JournalEntry) *JournalEntryModel {
	return &JournalEntryModel{
		ID:              e.ID,
		TenantID:        e.TenantID,
		EntryRef:        e.EntryRef,
		Journal:         string(e.Journal),
		TransactionDate: ledger.TruncateDay(e.TransactionDate),
		AccountCode:     e.AccountCode,
		Debit:           e.Debit,
		Credit:          e.Credit,
		Description:     e.Description,
		SourceType:      string(e.SourceType),
		SourceID:        e.SourceID,
		CreatedAt:       e.CreatedAt,
	}
}
