package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Journal is the code of the book an entry is recorded in
type Journal string

const (
	JournalSales     Journal = "VE"
	JournalPurchases Journal = "AC"
	JournalBank      Journal = "BQ"
	JournalMisc      Journal = "OD"
	JournalOpening   Journal = "AN"
)

var journalLabels = map[Journal]string{
	JournalSales:     "Ventes",
	JournalPurchases: "Achats",
	JournalBank:      "Banque",
	JournalMisc:      "Opérations diverses",
	JournalOpening:   "A-nouveaux",
}

// IsValid checks if the journal code is known
func (j Journal) IsValid() bool {
	_, ok := journalLabels[j]
	return ok
}

// Label returns the human-readable journal name
func (j Journal) Label() string {
	return journalLabels[j]
}

// SourceType identifies the business object an entry was generated from
type SourceType string

const (
	SourceManual         SourceType = "manual"
	SourceOpeningBalance SourceType = "opening_balance"
	SourceInvoice        SourceType = "invoice"
	SourcePayment        SourceType = "payment"
)

// EntryLine is one requested debit or credit line before posting
type EntryLine struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// JournalEntry is one persisted debit-or-credit line. Entries are never updated.
type JournalEntry struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	EntryRef        string
	Journal         Journal
	TransactionDate time.Time
	AccountCode     string
	Debit           decimal.Decimal
	Credit          decimal.Decimal
	Description     string
	SourceType      SourceType
	SourceID        *uuid.UUID
	CreatedAt       time.Time
}

// Amount returns the nonzero side of the line, signed positive for debits
func (e *JournalEntry) Amount() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}

// NormalizeLine rounds both sides to cents and checks that exactly one of them is positive.
func NormalizeLine(line EntryLine) (EntryLine, error) {
	line.AccountCode = strings.TrimSpace(line.AccountCode)
	line.Description = strings.TrimSpace(line.Description)
	line.Debit = valueobject.RoundCents(line.Debit)
	line.Credit = valueobject.RoundCents(line.Credit)

	if line.AccountCode == "" {
		return line, ErrInvalidEntryLine.Withf("account code is required")
	}
	if line.Debit.IsNegative() || line.Credit.IsNegative() {
		return line, ErrInvalidEntryLine.Withf("account %s: amounts must not be negative", line.AccountCode)
	}
	if line.Debit.IsZero() == line.Credit.IsZero() {
		return line, ErrInvalidEntryLine.Withf("account %s: exactly one of debit or credit must be nonzero", line.AccountCode)
	}
	return line, nil
}

// NewJournalEntry builds a persisted line from a normalised EntryLine
func NewJournalEntry(tenantID uuid.UUID, ref string, journal Journal, date time.Time, line EntryLine, source SourceType, sourceID *uuid.UUID) (*JournalEntry, error) {
	if ref == "" {
		return nil, ErrInvalidEntryLine.Withf("entry reference is required")
	}
	if !journal.IsValid() {
		return nil, ErrInvalidJournal.Withf("unknown journal %q", journal)
	}
	normalized, err := NormalizeLine(line)
	if err != nil {
		return nil, err
	}
	if source == "" {
		source = SourceManual
	}
	return &JournalEntry{
		ID:              uuid.New(),
		TenantID:        tenantID,
		EntryRef:        ref,
		Journal:         journal,
		TransactionDate: TruncateDay(date),
		AccountCode:     normalized.AccountCode,
		Debit:           normalized.Debit,
		Credit:          normalized.Credit,
		Description:     normalized.Description,
		SourceType:      source,
		SourceID:        sourceID,
		CreatedAt:       time.Now(),
	}, nil
}

// NewEntryRef generates a reference of the form VE-20260115-1a2b3c4d
func NewEntryRef(journal Journal, date time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s", journal, date.Format("20060102"), suffix)
}

// OpeningEntryRef is the reference shared by all opening-balance lines of a year
func OpeningEntryRef(year int) string {
	return fmt.Sprintf("OUV-%d", year)
}

// TruncateDay drops the time of day, keeping the date in UTC
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
