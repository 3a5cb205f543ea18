package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrialBalanceLine holds the totals of one account
type TrialBalanceLine struct {
	Code        string
	Name        string
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	// Balance is TotalDebit - TotalCredit
	Balance decimal.Decimal
}

// TrialBalance is the per-account and global total of the ledger up to a cutoff date
type TrialBalance struct {
	Cutoff      time.Time
	Accounts    []TrialBalanceLine
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Balanced    bool
}

// Difference returns TotalDebit - TotalCredit
func (tb *TrialBalance) Difference() decimal.Decimal {
	return tb.TotalDebit.Sub(tb.TotalCredit)
}

// TrialBalanceAggregator reads the ledger and produces trial balances
type TrialBalanceAggregator struct {
	accounts AccountRepository
	entries  EntryRepository
}

// NewTrialBalanceAggregator creates the aggregator
func NewTrialBalanceAggregator(accounts AccountRepository, entries EntryRepository) *TrialBalanceAggregator {
	return &TrialBalanceAggregator{accounts: accounts, entries: entries}
}

// Compute aggregates every entry dated on or before the cutoff day
func (a *TrialBalanceAggregator) Compute(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) (*TrialBalance, error) {
	day := TruncateDay(cutoff)
	entries, err := a.entries.Query(ctx, tenantID, EntryFilter{To: &day})
	if err != nil {
		return nil, shared.WrapStoreError("query journal entries", err)
	}
	accounts, err := a.accounts.List(ctx, tenantID, AccountFilter{})
	if err != nil {
		return nil, shared.WrapStoreError("list accounts", err)
	}
	names := make(map[string]string, len(accounts))
	for _, acc := range accounts {
		if _, ok := names[acc.Code]; !ok {
			names[acc.Code] = acc.Name
		}
	}
	return ComputeFromEntries(entries, names, day), nil
}

// ComputeFromEntries is the pure aggregation behind Compute. Entries dated after
// the cutoff day are ignored.
func ComputeFromEntries(entries []JournalEntry, names map[string]string, cutoff time.Time) *TrialBalance {
	day := TruncateDay(cutoff)
	byCode := make(map[string]*TrialBalanceLine)
	for _, e := range entries {
		if TruncateDay(e.TransactionDate).After(day) {
			continue
		}
		line, ok := byCode[e.AccountCode]
		if !ok {
			line = &TrialBalanceLine{
				Code:        e.AccountCode,
				Name:        names[e.AccountCode],
				TotalDebit:  decimal.Zero,
				TotalCredit: decimal.Zero,
			}
			byCode[e.AccountCode] = line
		}
		line.TotalDebit = line.TotalDebit.Add(e.Debit)
		line.TotalCredit = line.TotalCredit.Add(e.Credit)
	}

	tb := &TrialBalance{
		Cutoff:      day,
		Accounts:    make([]TrialBalanceLine, 0, len(byCode)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, line := range byCode {
		line.TotalDebit = valueobject.RoundCents(line.TotalDebit)
		line.TotalCredit = valueobject.RoundCents(line.TotalCredit)
		line.Balance = valueobject.RoundCents(line.TotalDebit.Sub(line.TotalCredit))
		tb.TotalDebit = tb.TotalDebit.Add(line.TotalDebit)
		tb.TotalCredit = tb.TotalCredit.Add(line.TotalCredit)
		tb.Accounts = append(tb.Accounts, *line)
	}
	sort.Slice(tb.Accounts, func(i, j int) bool {
		return tb.Accounts[i].Code < tb.Accounts[j].Code
	})
	tb.TotalDebit = valueobject.RoundCents(tb.TotalDebit)
	tb.TotalCredit = valueobject.RoundCents(tb.TotalCredit)
	tb.Balanced = valueobject.Balanced(tb.TotalDebit, tb.TotalCredit)
	return tb
}
