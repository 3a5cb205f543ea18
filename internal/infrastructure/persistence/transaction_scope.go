package persistence

import (
	"context"

	appinvoicing "github.com/erp/ledger/internal/application/invoicing"
	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/erp/ledger/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormLedgerTransactionScope runs ledger work in one database transaction.
// Returning an error from fn rolls the transaction back.
type GormLedgerTransactionScope struct {
	db *gorm.DB
}

// NewGormLedgerTransactionScope creates a new GormLedgerTransactionScope
func NewGormLedgerTransactionScope(db *gorm.DB) *GormLedgerTransactionScope {
	return &GormLedgerTransactionScope{db: db}
}

// Execute implements appledger.TransactionScope
func (s *GormLedgerTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormLedgerRepositories{tx: tx})
	})
}

type gormLedgerRepositories struct {
	tx *gorm.DB
}

func (r *gormLedgerRepositories) Accounts() ledger.AccountRepository {
	return NewGormAccountRepository(r.tx)
}

func (r *gormLedgerRepositories) Entries() ledger.EntryRepository {
	return NewGormEntryRepository(r.tx)
}

// GormInvoicingTransactionScope runs payment work in one database transaction.
type GormInvoicingTransactionScope struct {
	db *gorm.DB
}

// NewGormInvoicingTransactionScope creates a new GormInvoicingTransactionScope
func NewGormInvoicingTransactionScope(db *gorm.DB) *GormInvoicingTransactionScope {
	return &GormInvoicingTransactionScope{db: db}
}

// Execute implements appinvoicing.TransactionScope
func (s *GormInvoicingTransactionScope) Execute(ctx context.Context, fn func(repos appinvoicing.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormInvoicingRepositories{tx: tx})
	})
}

type gormInvoicingRepositories struct {
	tx *gorm.DB
}

func (r *gormInvoicingRepositories) Invoices() invoicing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormInvoicingRepositories) Payments() invoicing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *gormInvoicingRepositories) Allocations() invoicing.AllocationRepository {
	return NewGormAllocationRepository(r.tx)
}

var (
	_ appledger.TransactionScope    = (*GormLedgerTransactionScope)(nil)
	_ appinvoicing.TransactionScope = (*GormInvoicingTransactionScope)(nil)
)
