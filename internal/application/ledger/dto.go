package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ===================== Request DTOs =====================

// ListAccountsQuery filters the chart of accounts
type ListAccountsQuery struct {
	Category string `form:"category" json:"category,omitempty" binding:"omitempty,oneof=asset liability equity revenue expense"`
	Country  string `form:"country" json:"country,omitempty" binding:"omitempty,oneof=BE FR OHADA"`
}

// UpsertAccountRequest creates an account, or updates it when AllowUpdate is set
type UpsertAccountRequest struct {
	Code        string `json:"code" binding:"required,max=20"`
	Name        string `json:"name" binding:"required,max=200"`
	Category    string `json:"category" binding:"required,oneof=asset liability equity revenue expense"`
	Country     string `json:"country" binding:"omitempty,oneof=BE FR OHADA"`
	AllowUpdate bool   `json:"allow_update"`
}

// EntryLineRequest is one line of a posting
type EntryLineRequest struct {
	AccountCode string          `json:"account_code" binding:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

// PostEntriesRequest is a balanced set of lines posted under one entry reference
type PostEntriesRequest struct {
	Journal         string             `json:"journal" binding:"required,oneof=VE AC BQ OD AN"`
	TransactionDate *time.Time         `json:"transaction_date"`
	EntryRef        string             `json:"entry_ref" binding:"omitempty,max=50"`
	SourceType      string             `json:"source_type" binding:"omitempty,oneof=manual opening_balance invoice payment"`
	SourceID        *uuid.UUID         `json:"source_id"`
	Lines           []EntryLineRequest `json:"lines" binding:"required,dive"`
}

// ListEntriesQuery filters journal entries. A nil range means the current calendar year.
type ListEntriesQuery struct {
	From        *time.Time
	To          *time.Time
	AccountCode string
	Journal     string
	SourceType  string
	Limit       int
	Descending  bool
}

// OpeningBalanceRequest carries the balance-sheet figures entered at onboarding
type OpeningBalanceRequest struct {
	Country  string                     `json:"country"`
	AsOf     *time.Time                 `json:"as_of"`
	Balances map[string]decimal.Decimal `json:"balances" binding:"required"`
}

// ===================== Response DTOs =====================

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JournalEntryResponse represents one journal line in API responses
type JournalEntryResponse struct {
	ID              uuid.UUID       `json:"id"`
	EntryRef        string          `json:"entry_ref"`
	Journal         string          `json:"journal"`
	TransactionDate time.Time       `json:"transaction_date"`
	AccountCode     string          `json:"account_code"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	Description     string          `json:"description"`
	SourceType      string          `json:"source_type,omitempty"`
	SourceID        *uuid.UUID      `json:"source_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PostEntriesResponse is the result of a successful posting
type PostEntriesResponse struct {
	EntryRef string `json:"entry_ref"`
	Lines    int    `json:"lines"`
}

// TrialBalanceLineResponse is one account row of the trial balance
type TrialBalanceLineResponse struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// TrialBalanceResponse represents the trial balance at a cutoff date
type TrialBalanceResponse struct {
	Cutoff      string                     `json:"cutoff"`
	Accounts    []TrialBalanceLineResponse `json:"accounts"`
	TotalDebit  decimal.Decimal            `json:"total_debit"`
	TotalCredit decimal.Decimal            `json:"total_credit"`
	Balanced    bool                       `json:"balanced"`
}

// OpeningBalanceValidationResponse reports whether the balance sheet inputs balance
type OpeningBalanceValidationResponse struct {
	TotalAssets               decimal.Decimal `json:"total_assets"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
	Difference                decimal.Decimal `json:"difference"`
	Balanced                  bool            `json:"balanced"`
}

// OpeningBalanceResponse is the result of a reinitialization
type OpeningBalanceResponse struct {
	Country        string                 `json:"country"`
	EntryRef       string                 `json:"entry_ref,omitempty"`
	RemovedEntries int64                  `json:"removed_entries"`
	Entries        []JournalEntryResponse `json:"entries"`
}

// FileResponse is a rendered export file
type FileResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"-"`
}

// ===================== Mappers =====================

// ToAccountResponse converts a domain account to its response DTO
func ToAccountResponse(a *ledger.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Code:      a.Code,
		Name:      a.Name,
		Category:  string(a.Category),
		Country:   string(a.Country),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// ToJournalEntryResponse converts a domain journal entry to its response DTO
func ToJournalEntryResponse(e *ledger.JournalEntry) JournalEntryResponse {
	return JournalEntryResponse{
		ID:              e.ID,
		EntryRef:        e.EntryRef,
		Journal:         string(e.Journal),
		TransactionDate: e.TransactionDate,
		AccountCode:     e.AccountCode,
		Debit:           e.Debit,
		Credit:          e.Credit,
		Description:     e.Description,
		SourceType:      string(e.SourceType),
		SourceID:        e.SourceID,
		CreatedAt:       e.CreatedAt,
	}
}

// ToTrialBalanceResponse converts a computed trial balance to its response DTO
func ToTrialBalanceResponse(tb *ledger.TrialBalance) *TrialBalanceResponse {
	lines := make([]TrialBalanceLineResponse, len(tb.Accounts))
	for i, l := range tb.Accounts {
		lines[i] = TrialBalanceLineResponse{
			Code:        l.Code,
			Name:        l.Name,
			TotalDebit:  l.TotalDebit,
			TotalCredit: l.TotalCredit,
			Balance:     l.Balance,
		}
	}
	return &TrialBalanceResponse{
		Cutoff:      tb.Cutoff.Format(time.DateOnly),
		Accounts:    lines,
		TotalDebit:  tb.TotalDebit,
		TotalCredit: tb.TotalCredit,
		Balanced:    tb.Balanced,
	}
}

func toJournalEntryResponses(entries []ledger.JournalEntry) []JournalEntryResponse {
	out := make([]JournalEntryResponse, len(entries))
	for i := range entries {
		out[i] = ToJournalEntryResponse(&entries[i])
	}
	return out
}
