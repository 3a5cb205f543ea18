package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// memStore is an in-memory account and entry store shared by the fakes below
type memStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]ledger.Account
	entries  []ledger.JournalEntry
	failNext error
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[uuid.UUID]ledger.Account)}
}

type memAccounts struct{ s *memStore }
type memEntries struct{ s *memStore }

func (r memAccounts) FindByCode(_ context.Context, tenantID uuid.UUID, country ledger.Country, code string) (*ledger.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.TenantID == tenantID && a.Country == country && a.Code == code {
			acc := a
			return &acc, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memAccounts) FindByCodes(_ context.Context, tenantID uuid.UUID, codes []string) ([]ledger.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}
	var out []ledger.Account
	for _, a := range r.s.accounts {
		if a.TenantID == tenantID && want[a.Code] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAccounts) List(_ context.Context, tenantID uuid.UUID, filter ledger.AccountFilter) ([]ledger.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []ledger.Account
	for _, a := range r.s.accounts {
		if a.TenantID != tenantID {
			continue
		}
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		if filter.Country != "" && a.Country != filter.Country {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r memAccounts) Save(_ context.Context, account *ledger.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.accounts[account.ID] = *account
	return nil
}

func (r memAccounts) Delete(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.accounts, id)
	return nil
}

func (r memEntries) AppendBatch(_ context.Context, entries []ledger.JournalEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failNext != nil {
		err := r.s.failNext
		r.s.failNext = nil
		return err
	}
	r.s.entries = append(r.s.entries, entries...)
	return nil
}

func (r memEntries) Query(_ context.Context, tenantID uuid.UUID, f ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []ledger.JournalEntry
	for _, e := range r.s.entries {
		if e.TenantID != tenantID {
			continue
		}
		if f.From != nil && e.TransactionDate.Before(*f.From) {
			continue
		}
		if f.To != nil && !e.TransactionDate.Before(f.To.AddDate(0, 0, 1)) {
			continue
		}
		if f.AccountCode != "" && e.AccountCode != f.AccountCode {
			continue
		}
		if f.Journal != "" && e.Journal != f.Journal {
			continue
		}
		if f.SourceType != "" && e.SourceType != f.SourceType {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if f.Descending {
			return out[i].TransactionDate.After(out[j].TransactionDate)
		}
		return out[i].TransactionDate.Before(out[j].TransactionDate)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r memEntries) ExistsForAccount(_ context.Context, tenantID uuid.UUID, code string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.entries {
		if e.TenantID == tenantID && e.AccountCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r memEntries) DeleteBySource(_ context.Context, tenantID uuid.UUID, source ledger.SourceType) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.entries[:0]
	var removed int64
	for _, e := range r.s.entries {
		if e.TenantID == tenantID && e.SourceType == source {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.s.entries = kept
	return removed, nil
}

// snapshotScope rolls the store back when the function fails
type snapshotScope struct{ s *memStore }

func (sc snapshotScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	sc.s.mu.Lock()
	accounts := make(map[uuid.UUID]ledger.Account, len(sc.s.accounts))
	for k, v := range sc.s.accounts {
		accounts[k] = v
	}
	entries := append([]ledger.JournalEntry(nil), sc.s.entries...)
	sc.s.mu.Unlock()

	if err := fn(NewNoOpTransactionScope(memAccounts{sc.s}, memEntries{sc.s})); err != nil {
		sc.s.mu.Lock()
		sc.s.accounts, sc.s.entries = accounts, entries
		sc.s.mu.Unlock()
		return err
	}
	return nil
}

// memIdempotency is a map-backed idempotency store
type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (m *memIdempotency) MarkProcessed(_ context.Context, id string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		m.keys = map[string]bool{}
	}
	if m.keys[id] {
		return false, nil
	}
	m.keys[id] = true
	return true, nil
}

func (m *memIdempotency) IsProcessed(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[id], nil
}

func (m *memIdempotency) Close() error { return nil }

// MockInvoiceRepository is a mock implementation of invoicing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	return m.FindByID(ctx, tenantID, id)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *invoicing.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *invoicing.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockInvoiceRepository) ExistingIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockPartyRepository is a mock implementation of invoicing.PartyRepository
type MockPartyRepository struct {
	mock.Mock
}

func (m *MockPartyRepository) FindCompany(ctx context.Context, tenantID uuid.UUID) (*invoicing.Party, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Party), args.Error(1)
}

func (m *MockPartyRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Party, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Party), args.Error(1)
}

func (m *MockPartyRepository) ListClients(ctx context.Context, tenantID uuid.UUID) ([]invoicing.Party, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]invoicing.Party), args.Error(1)
}

func (m *MockPartyRepository) Save(ctx context.Context, party *invoicing.Party) error {
	return m.Called(ctx, party).Error(0)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func fixedClock(s string) func() time.Time {
	t := day(s)
	return func() time.Time { return t }
}
