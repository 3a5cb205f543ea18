package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountFilter narrows account listings
type AccountFilter struct {
	Category Category
	Country  Country
}

// AccountRepository stores chart-of-accounts rows
type AccountRepository interface {
	// FindByCode returns shared.ErrNotFound when the account does not exist
	FindByCode(ctx context.Context, tenantID uuid.UUID, country Country, code string) (*Account, error)
	// FindByCodes returns the accounts of any country whose code is in codes
	FindByCodes(ctx context.Context, tenantID uuid.UUID, codes []string) ([]Account, error)
	// List returns accounts ordered by code ascending
	List(ctx context.Context, tenantID uuid.UUID, filter AccountFilter) ([]Account, error)
	Save(ctx context.Context, account *Account) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// EntryFilter narrows journal entry queries. Zero values mean "no constraint";
// a zero Limit returns every matching row.
type EntryFilter struct {
	From        *time.Time
	To          *time.Time
	AccountCode string
	Journal     Journal
	SourceType  SourceType
	Limit       int
	Descending  bool
}

// EntryRepository is the append-only store of journal entries
type EntryRepository interface {
	// AppendBatch stores all entries or none
	AppendBatch(ctx context.Context, entries []JournalEntry) error
	// Query returns entries ordered by transaction date
	Query(ctx context.Context, tenantID uuid.UUID, filter EntryFilter) ([]JournalEntry, error)
	ExistsForAccount(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	// DeleteBySource removes every entry of a source type; used only by opening-balance reinitialization
	DeleteBySource(ctx context.Context, tenantID uuid.UUID, source SourceType) (int64, error)
}
