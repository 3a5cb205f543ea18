package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OpeningBalances maps balance-sheet fields to their amounts
type OpeningBalances map[BalanceField]decimal.Decimal

// ParseOpeningBalances converts raw field names, rejecting unrecognised fields and negative amounts
func ParseOpeningBalances(raw map[string]decimal.Decimal) (OpeningBalances, error) {
	balances := make(OpeningBalances, len(raw))
	var unknown []string
	for name, amount := range raw {
		field := BalanceField(strings.ToLower(strings.TrimSpace(name)))
		if !field.IsValid() {
			unknown = append(unknown, name)
			continue
		}
		if amount.IsNegative() {
			return nil, ErrInvalidOpeningBalance.Withf("%s must not be negative", field)
		}
		balances[field] = amount
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, ErrInvalidOpeningBalance.Withf("unknown balance field(s): %s", strings.Join(unknown, ", "))
	}
	return balances, nil
}

// Totals returns the rounded asset total and liability-plus-equity total
func (b OpeningBalances) Totals() (assets, liabilitiesAndEquity decimal.Decimal) {
	assets, liabilitiesAndEquity = decimal.Zero, decimal.Zero
	for field, amount := range b {
		if !amount.IsPositive() {
			continue
		}
		if field.IsAsset() {
			assets = assets.Add(amount)
		} else {
			liabilitiesAndEquity = liabilitiesAndEquity.Add(amount)
		}
	}
	return valueobject.RoundCents(assets), valueobject.RoundCents(liabilitiesAndEquity)
}

// ValidateOpeningBalances checks that assets equal liabilities plus equity within one cent
func ValidateOpeningBalances(b OpeningBalances) error {
	assets, le := b.Totals()
	if !valueobject.Balanced(assets, le) {
		return ErrUnbalancedOpeningBalance.Withf("assets %s do not equal liabilities and equity %s",
			valueobject.FormatFixed(assets), valueobject.FormatFixed(le))
	}
	return nil
}

// OpeningPlan is the posting generated from opening balances
type OpeningPlan struct {
	Country Country
	Request PostingRequest
}

// IsEmpty reports whether no field carried a positive amount
func (p *OpeningPlan) IsEmpty() bool {
	return len(p.Request.Lines) == 0
}

// PlanOpeningEntries emits, for each field with a positive amount, the mapped account on
// its normal side against the suspense account, all under OUV-{year}.
func PlanOpeningEntries(country Country, balances OpeningBalances, asOf time.Time) *OpeningPlan {
	mapping := MappingFor(country)
	year := asOf.Year()
	plan := &OpeningPlan{
		Country: mapping.Country,
		Request: PostingRequest{
			Journal:         JournalOpening,
			TransactionDate: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			SourceType:      SourceOpeningBalance,
			EntryRef:        OpeningEntryRef(year),
		},
	}

	for _, field := range BalanceFields {
		amount := valueobject.RoundCents(balances[field])
		if !amount.IsPositive() {
			continue
		}
		target := mapping.Opening[field]
		description := "Solde d'ouverture " + target.Name
		main := EntryLine{AccountCode: target.Code, Description: description}
		suspense := EntryLine{AccountCode: mapping.Suspense.Code, Description: description}
		if field.IsAsset() {
			main.Debit, suspense.Credit = amount, amount
		} else {
			main.Credit, suspense.Debit = amount, amount
		}
		plan.Request.Lines = append(plan.Request.Lines, main, suspense)
	}
	return plan
}
