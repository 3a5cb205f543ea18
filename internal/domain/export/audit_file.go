package export

import (
	"strconv"
	"time"

	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

const (
	// AuditFileNamespace is the default namespace of the audit file
	AuditFileNamespace = "urn:OECD:StandardAuditFile-Tax:2.00"
	// AuditFileVersion is written in the header
	AuditFileVersion = "2.00"
)

// AuditFileInput is everything the audit file is built from
type AuditFileInput struct {
	Company    *invoicing.Party
	Currency   valueobject.Currency
	SoftwareID string
	From       time.Time
	To         time.Time
	Accounts   []ledger.Account
	Customers  []invoicing.Party
	Entries    []ledger.JournalEntry
}

// FormatAuditFile renders the Header, MasterFiles and GeneralLedgerEntries blocks
func FormatAuditFile(in AuditFileInput) string {
	company := in.Company
	if company == nil {
		company = &invoicing.Party{}
	}
	currency := in.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	w := newXMLWriter()
	w.open("AuditFile", attr{"xmlns", AuditFileNamespace})

	w.open("Header")
	w.leaf("AuditFileVersion", AuditFileVersion)
	w.leaf("CompanyID", company.LegalID)
	w.leaf("CompanyName", company.Name)
	w.optional("TaxRegistrationNumber", company.VATNumber)
	w.leaf("StartDate", isoDate(in.From))
	w.leaf("EndDate", isoDate(in.To))
	w.leaf("DefaultCurrencyCode", currency.String())
	w.optional("SoftwareID", in.SoftwareID)
	w.close("Header")

	w.open("MasterFiles")
	w.open("GeneralLedgerAccounts")
	for _, acc := range in.Accounts {
		w.open("Account")
		w.leaf("AccountID", acc.Code)
		w.leaf("AccountDescription", acc.Name)
		w.leaf("AccountType", string(acc.Category))
		w.close("Account")
	}
	w.close("GeneralLedgerAccounts")
	w.open("Customers")
	for _, c := range in.Customers {
		w.open("Customer")
		w.leaf("CustomerID", c.ID.String())
		w.leaf("Name", c.Name)
		w.optional("TaxRegistrationNumber", c.VATNumber)
		if c.HasAddress() {
			w.open("Address")
			w.optional("StreetName", c.AddressLine)
			w.optional("City", c.City)
			w.optional("PostalCode", c.PostalCode)
			w.optional("Country", c.CountryCode)
			w.close("Address")
		}
		w.optional("Email", c.Email)
		w.close("Customer")
	}
	w.close("Customers")
	w.close("MasterFiles")

	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for _, e := range in.Entries {
		totalDebit = totalDebit.Add(e.Debit)
		totalCredit = totalCredit.Add(e.Credit)
	}
	w.open("GeneralLedgerEntries")
	w.leaf("NumberOfEntries", strconv.Itoa(len(in.Entries)))
	w.leaf("TotalDebit", fixed2(totalDebit))
	w.leaf("TotalCredit", fixed2(totalCredit))
	for i, e := range in.Entries {
		w.open("Entry")
		w.leaf("EntryNumber", strconv.Itoa(i+1))
		w.leaf("EntryRef", e.EntryRef)
		w.leaf("JournalID", string(e.Journal))
		w.leaf("TransactionDate", isoDate(e.TransactionDate))
		w.leaf("AccountID", e.AccountCode)
		w.leaf("Description", e.Description)
		w.leaf("DebitAmount", fixed2(e.Debit))
		w.leaf("CreditAmount", fixed2(e.Credit))
		w.optional("SourceType", string(e.SourceType))
		if e.SourceID != nil {
			w.leaf("SourceID", e.SourceID.String())
		}
		w.close("Entry")
	}
	w.close("GeneralLedgerEntries")

	w.close("AuditFile")
	return w.String()
}
