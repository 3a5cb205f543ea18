package ledger

import (
	"context"

	"github.com/erp/ledger/internal/domain/ledger"
)

// TransactionScope provides transactional access to ledger repositories.
// All repository operations inside Execute commit or roll back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the ledger repositories bound to one transaction
type TransactionalRepositories interface {
	Accounts() ledger.AccountRepository
	Entries() ledger.EntryRepository
}

// NoOpTransactionScope runs the function against plain repositories without a transaction.
// Useful in tests that mock the repositories.
type NoOpTransactionScope struct {
	accounts ledger.AccountRepository
	entries  ledger.EntryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(accounts ledger.AccountRepository, entries ledger.EntryRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{accounts: accounts, entries: entries}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Accounts returns the account repository.
func (s *NoOpTransactionScope) Accounts() ledger.AccountRepository {
	return s.accounts
}

// Entries returns the journal entry repository.
func (s *NoOpTransactionScope) Entries() ledger.EntryRepository {
	return s.entries
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
