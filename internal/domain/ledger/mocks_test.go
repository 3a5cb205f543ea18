package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, country Country, code string) (*Account, error) {
	args := m.Called(ctx, tenantID, country, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func (m *MockAccountRepository) FindByCodes(ctx context.Context, tenantID uuid.UUID, codes []string) ([]Account, error) {
	args := m.Called(ctx, tenantID, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Account), args.Error(1)
}

func (m *MockAccountRepository) List(ctx context.Context, tenantID uuid.UUID, filter AccountFilter) ([]Account, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Account), args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, account *Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) AppendBatch(ctx context.Context, entries []JournalEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockEntryRepository) Query(ctx context.Context, tenantID uuid.UUID, filter EntryFilter) ([]JournalEntry, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]JournalEntry), args.Error(1)
}

func (m *MockEntryRepository) ExistsForAccount(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockEntryRepository) DeleteBySource(ctx context.Context, tenantID uuid.UUID, source SourceType) (int64, error) {
	args := m.Called(ctx, tenantID, source)
	return args.Get(0).(int64), args.Error(1)
}

func testAccount(tenantID uuid.UUID, code, name string, category Category) Account {
	acc, err := NewAccount(tenantID, AccountInput{Code: code, Name: name, Category: category, Country: CountryFR})
	if err != nil {
		panic(err)
	}
	return *acc
}
