package invoicing

import (
	"context"

	"github.com/erp/ledger/internal/domain/invoicing"
)

// TransactionScope provides transactional access to invoicing repositories.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the invoicing repositories bound to one transaction
type TransactionalRepositories interface {
	Invoices() invoicing.InvoiceRepository
	Payments() invoicing.PaymentRepository
	Allocations() invoicing.AllocationRepository
}

// NoOpTransactionScope runs the function against plain repositories without a transaction.
type NoOpTransactionScope struct {
	invoices    invoicing.InvoiceRepository
	payments    invoicing.PaymentRepository
	allocations invoicing.AllocationRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	invoices invoicing.InvoiceRepository,
	payments invoicing.PaymentRepository,
	allocations invoicing.AllocationRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{invoices: invoices, payments: payments, allocations: allocations}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Invoices returns the invoice repository.
func (s *NoOpTransactionScope) Invoices() invoicing.InvoiceRepository {
	return s.invoices
}

// Payments returns the payment repository.
func (s *NoOpTransactionScope) Payments() invoicing.PaymentRepository {
	return s.payments
}

// Allocations returns the allocation repository.
func (s *NoOpTransactionScope) Allocations() invoicing.AllocationRepository {
	return s.allocations
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
