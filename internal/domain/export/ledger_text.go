package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// NoEntriesMessage is returned instead of a file when the period holds no entries
const NoEntriesMessage = "No entries found for the selected period"

// ErrNoEntries reports an empty export period to callers that need an error value
var ErrNoEntries = shared.NewKindError(shared.KindNotFound, "NO_ENTRIES", NoEntriesMessage)

const (
	utf8BOM          = "\ufeff"
	ledgerTextSep    = "|"
	ledgerTextEOL    = "\r\n"
	ledgerTextSuffix = ".txt"
)

// LedgerTextColumns is the fixed header of the ledger text file
var LedgerTextColumns = []string{
	"JournalCode",
	"JournalLib",
	"EcritureNum",
	"EcritureDate",
	"CompteNum",
	"CompteLib",
	"CompAuxNum",
	"CompAuxLib",
	"PieceRef",
	"PieceDate",
	"EcritureLib",
	"Debit",
	"Credit",
	"EcritureLet",
	"DateLet",
	"ValidDate",
	"Montantdevise",
	"Idevise",
}

// LedgerTextInput is everything the ledger text file is built from
type LedgerTextInput struct {
	Company      *invoicing.Party
	PeriodEnd    time.Time
	Entries      []ledger.JournalEntry
	AccountNames map[string]string
}

// LedgerTextResult is either a file (Filename, Content) or, for an empty period, Empty with Message
type LedgerTextResult struct {
	Empty    bool
	Message  string
	Filename string
	Content  string
	Rows     int
}

// FormatLedgerText renders entries as the pipe-delimited ledger text file: UTF-8 with BOM,
// one header line, one row per entry with a 1-based sequence number.
func FormatLedgerText(in LedgerTextInput) LedgerTextResult {
	if len(in.Entries) == 0 {
		return LedgerTextResult{Empty: true, Message: NoEntriesMessage}
	}

	var b strings.Builder
	b.WriteString(utf8BOM)
	b.WriteString(strings.Join(LedgerTextColumns, ledgerTextSep))
	b.WriteString(ledgerTextEOL)

	for i, e := range in.Entries {
		date := compactDate(e.TransactionDate)
		row := []string{
			string(e.Journal),
			e.Journal.Label(),
			strconv.Itoa(i + 1),
			date,
			e.AccountCode,
			in.AccountNames[e.AccountCode],
			"",
			"",
			e.EntryRef,
			date,
			e.Description,
			commaAmount(e.Debit),
			commaAmount(e.Credit),
			"",
			"",
			date,
			"",
			"",
		}
		for j := range row {
			row[j] = ledgerTextField(row[j])
		}
		b.WriteString(strings.Join(row, ledgerTextSep))
		b.WriteString(ledgerTextEOL)
	}

	return LedgerTextResult{
		Filename: LedgerTextFilename(in.Company, in.PeriodEnd),
		Content:  b.String(),
		Rows:     len(in.Entries),
	}
}

// LedgerTextFilename follows the {legal id}FEC{period end}.txt convention
func LedgerTextFilename(company *invoicing.Party, periodEnd time.Time) string {
	legalID := ""
	if company != nil {
		legalID = strings.ReplaceAll(company.LegalID, " ", "")
	}
	return legalID + "FEC" + compactDate(periodEnd) + ledgerTextSuffix
}

// ledgerTextField keeps a value on one line and free of the column separator
func ledgerTextField(s string) string {
	s = cleanText(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '|', '\r', '\n', '\t':
			return ' '
		}
		return r
	}, s)
}

func commaAmount(d decimal.Decimal) string {
	return strings.Replace(fixed2(d), ".", ",", 1)
}
