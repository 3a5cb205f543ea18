package ledger

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefaultQueryLimit applies when a query does not set a limit
	DefaultQueryLimit = 100
	// MaxQueryLimit caps a single query
	MaxQueryLimit = 10000
)

// PostingRequest is a balanced set of lines to append to the ledger
type PostingRequest struct {
	Lines           []EntryLine
	Journal         Journal
	TransactionDate time.Time
	SourceType      SourceType
	SourceID        *uuid.UUID
	// EntryRef is generated when empty
	EntryRef string
}

// JournalLedger is the single append point for journal entries
type JournalLedger struct {
	chart   *ChartOfAccounts
	entries EntryRepository
	now     func() time.Time
}

// JournalLedgerOption configures a JournalLedger
type JournalLedgerOption func(*JournalLedger)

// WithClock overrides the clock used for undated postings
func WithClock(now func() time.Time) JournalLedgerOption {
	return func(l *JournalLedger) {
		l.now = now
	}
}

// NewJournalLedger creates a ledger over the given stores
func NewJournalLedger(accounts AccountRepository, entries EntryRepository, opts ...JournalLedgerOption) *JournalLedger {
	l := &JournalLedger{
		chart:   NewChartOfAccounts(accounts, entries),
		entries: entries,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ValidateLines normalises lines and checks the set is postable, without touching the chart.
func ValidateLines(lines []EntryLine) ([]EntryLine, error) {
	if len(lines) < 2 {
		return nil, ErrTooFewLines.Withf("a journal entry needs at least two lines, got %d", len(lines))
	}
	normalized := make([]EntryLine, len(lines))
	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for i, line := range lines {
		n, err := NormalizeLine(line)
		if err != nil {
			return nil, err
		}
		normalized[i] = n
		totalDebit = totalDebit.Add(n.Debit)
		totalCredit = totalCredit.Add(n.Credit)
	}
	if !valueobject.Balanced(totalDebit, totalCredit) {
		return nil, ErrImbalancedEntry.Withf("debits %s and credits %s do not balance",
			valueobject.FormatFixed(totalDebit), valueobject.FormatFixed(totalCredit))
	}
	return normalized, nil
}

// PostEntries validates the request and appends all lines atomically under one entry reference.
func (l *JournalLedger) PostEntries(ctx context.Context, tenantID uuid.UUID, req PostingRequest) (string, error) {
	if !req.Journal.IsValid() {
		return "", ErrInvalidJournal.Withf("unknown journal %q", req.Journal)
	}
	lines, err := ValidateLines(req.Lines)
	if err != nil {
		return "", err
	}

	codes := distinctCodes(lines)
	missing, err := l.chart.resolve(ctx, tenantID, codes)
	if err != nil {
		return "", err
	}
	if len(missing) > 0 {
		return "", ErrUnknownAccount.Withf("unknown account code(s): %v", missing)
	}

	date := req.TransactionDate
	if date.IsZero() {
		date = l.now()
	}
	ref := req.EntryRef
	if ref == "" {
		ref = NewEntryRef(req.Journal, date)
	}

	entries := make([]JournalEntry, 0, len(lines))
	for _, line := range lines {
		entry, err := NewJournalEntry(tenantID, ref, req.Journal, date, line, req.SourceType, req.SourceID)
		if err != nil {
			return "", err
		}
		entries = append(entries, *entry)
	}

	if err := l.entries.AppendBatch(ctx, entries); err != nil {
		return "", shared.WrapStoreError("append journal entries", err)
	}
	return ref, nil
}

// QueryEntries returns entries in a date range ordered by transaction date
func (l *JournalLedger) QueryEntries(ctx context.Context, tenantID uuid.UUID, filter EntryFilter) ([]JournalEntry, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, ErrInvalidDateRange.Withf("start date %s is after end date %s",
			filter.From.Format(time.DateOnly), filter.To.Format(time.DateOnly))
	}
	if filter.Journal != "" && !filter.Journal.IsValid() {
		return nil, ErrInvalidJournal.Withf("unknown journal %q", filter.Journal)
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultQueryLimit
	}
	if filter.Limit > MaxQueryLimit {
		filter.Limit = MaxQueryLimit
	}

	entries, err := l.entries.Query(ctx, tenantID, filter)
	if err != nil {
		return nil, shared.WrapStoreError("query journal entries", err)
	}
	return entries, nil
}

func distinctCodes(lines []EntryLine) []string {
	seen := make(map[string]bool, len(lines))
	codes := make([]string, 0, len(lines))
	for _, line := range lines {
		if !seen[line.AccountCode] {
			seen[line.AccountCode] = true
			codes = append(codes, line.AccountCode)
		}
	}
	return codes
}
