package export

import (
	"encoding/xml"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleEntries() []ledger.JournalEntry {
	day := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	return []ledger.JournalEntry{
		{EntryRef: "VE-20260305-aa", Journal: ledger.JournalSales, TransactionDate: day, AccountCode: "411", Debit: dec("120"), Credit: decimal.Zero, Description: "Facture F-1 | client <A&B>"},
		{EntryRef: "VE-20260305-aa", Journal: ledger.JournalSales, TransactionDate: day, AccountCode: "706", Debit: decimal.Zero, Credit: dec("100"), Description: "Facture F-1"},
		{EntryRef: "VE-20260305-aa", Journal: ledger.JournalSales, TransactionDate: day, AccountCode: "44571", Debit: decimal.Zero, Credit: dec("20"), Description: "TVA\nF-1"},
	}
}

// assertWellFormed walks the whole document with the standard decoder
func assertWellFormed(t *testing.T, doc string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return
		}
		require.NoError(t, err, "document is not well-formed")
	}
}

func TestFormatLedgerText(t *testing.T) {
	company := &invoicing.Party{Name: "ACME", LegalID: "123 456 789"}
	periodEnd := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	t.Run("empty period returns the message and no file", func(t *testing.T) {
		res := FormatLedgerText(LedgerTextInput{Company: company, PeriodEnd: periodEnd})

		assert.True(t, res.Empty)
		assert.Equal(t, NoEntriesMessage, res.Message)
		assert.Empty(t, res.Content)
		assert.Empty(t, res.Filename)
	})

	t.Run("renders header and one row per entry", func(t *testing.T) {
		res := FormatLedgerText(LedgerTextInput{
			Company:      company,
			PeriodEnd:    periodEnd,
			Entries:      sampleEntries(),
			AccountNames: map[string]string{"411": "Clients", "706": "Prestations de services"},
		})

		require.False(t, res.Empty)
		assert.Equal(t, "123456789FEC20261231.txt", res.Filename)
		assert.True(t, strings.HasPrefix(res.Content, "\ufeffJournalCode|JournalLib|EcritureNum|"))

		lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(res.Content, "\ufeff"), "\r\n"), "\r\n")
		require.Len(t, lines, 1+3)
		assert.Equal(t, strings.Join(LedgerTextColumns, "|"), lines[0])
		for i, line := range lines[1:] {
			fields := strings.Split(line, "|")
			require.Len(t, fields, 18, "row %d", i+1)
			assert.Equal(t, []string{"VE", "Ventes"}, fields[0:2])
			assert.Equal(t, string(rune('1'+i)), fields[2])
			assert.Equal(t, "20260305", fields[3])
			assert.Equal(t, "20260305", fields[9])
			assert.Equal(t, "20260305", fields[15])
		}

		first := strings.Split(lines[1], "|")
		assert.Equal(t, "411", first[4])
		assert.Equal(t, "Clients", first[5])
		assert.Equal(t, "VE-20260305-aa", first[8])
		assert.Equal(t, "Facture F-1   client <A&B>", first[10])
		assert.Equal(t, "120,00", first[11])
		assert.Equal(t, "0,00", first[12])

		third := strings.Split(lines[3], "|")
		assert.Equal(t, "", third[5])
		assert.Equal(t, "TVA F-1", third[10])
		assert.Equal(t, "20,00", third[12])
	})

	t.Run("filename without company", func(t *testing.T) {
		assert.Equal(t, "FEC20261231.txt", LedgerTextFilename(nil, periodEnd))
	})
}

func TestFormatAuditFile(t *testing.T) {
	client := invoicing.Party{ID: uuid.New(), Name: `O'Brien & "Sons" <Ltd>`, City: "Lyon", CountryCode: "FR"}
	doc := FormatAuditFile(AuditFileInput{
		Company:    &invoicing.Party{Name: "ACME & Co", LegalID: "123456789", VATNumber: "FR12123456789"},
		SoftwareID: "ledger",
		From:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:         time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		Accounts: []ledger.Account{
			{Code: "411", Name: "Clients", Category: ledger.CategoryAsset},
			{Code: "706", Name: "Prestations <services>", Category: ledger.CategoryRevenue},
		},
		Customers: []invoicing.Party{client, {ID: uuid.New(), Name: "Bare"}},
		Entries:   sampleEntries(),
	})

	assertWellFormed(t, doc)
	assert.Contains(t, doc, `<AuditFile xmlns="urn:OECD:StandardAuditFile-Tax:2.00">`)
	assert.Contains(t, doc, "<CompanyName>ACME &amp; Co</CompanyName>")
	assert.Contains(t, doc, "<StartDate>2026-01-01</StartDate>")
	assert.Contains(t, doc, "<EndDate>2026-12-31</EndDate>")
	assert.Contains(t, doc, "<DefaultCurrencyCode>EUR</DefaultCurrencyCode>")
	assert.Contains(t, doc, "<Name>O&apos;Brien &amp; &quot;Sons&quot; &lt;Ltd&gt;</Name>")
	assert.Contains(t, doc, "<AccountDescription>Prestations &lt;services&gt;</AccountDescription>")
	assert.Contains(t, doc, "<NumberOfEntries>3</NumberOfEntries>")
	assert.Contains(t, doc, "<TotalDebit>120.00</TotalDebit>")
	assert.Contains(t, doc, "<TotalCredit>120.00</TotalCredit>")
	assert.Equal(t, 3, strings.Count(doc, "<Entry>"))
	assert.Contains(t, doc, "<Description>Facture F-1 | client &lt;A&amp;B&gt;</Description>")
	assert.NotContains(t, doc, "<A&B>")
	// only the customer with an address gets an Address block
	assert.Equal(t, 1, strings.Count(doc, "<Address>"))
}

func TestFormatAuditFile_MissingOptionalFields(t *testing.T) {
	doc := FormatAuditFile(AuditFileInput{})

	assertWellFormed(t, doc)
	assert.Contains(t, doc, "<CompanyID></CompanyID>")
	assert.Contains(t, doc, "<NumberOfEntries>0</NumberOfEntries>")
	assert.NotContains(t, doc, "TaxRegistrationNumber")
	assert.NotContains(t, doc, "SoftwareID")
}

func ciiInvoice(t *testing.T) *invoicing.Invoice {
	t.Helper()
	due := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	inv, err := invoicing.NewInvoice(uuid.New(), invoicing.InvoiceInput{
		Number:    "F-2026-007",
		ClientID:  uuid.New(),
		IssueDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		DueDate:   &due,
		Lines: []invoicing.InvoiceLine{
			{Description: "Audit <sécurité> & conseil", Quantity: dec("3"), UnitPrice: dec("333.333"), VATRate: dec("20")},
		},
	})
	require.NoError(t, err)
	return inv
}

func TestFormatCII(t *testing.T) {
	seller := &invoicing.Party{
		Name: "ACME", LegalID: "123456789", VATNumber: "FR12123456789", IBAN: "FR76 3000 6000 0112 3456 7890 189",
		AddressLine: "1 rue de la Paix", PostalCode: "75002", City: "Paris", CountryCode: "FR", Email: "billing@acme.test",
	}
	buyer := &invoicing.Party{Name: "Client SA", CountryCode: "BE"}

	t.Run("selects the guideline of each profile", func(t *testing.T) {
		for profile, urn := range map[Profile]string{
			ProfileMinimum: "urn:factur-x.eu:1p0:minimum",
			ProfileBasic:   "urn:cen.eu:en16931:2017#compliant#urn:factur-x.eu:1p0:basic",
			ProfileEN16931: "urn:cen.eu:en16931:2017",
		} {
			doc := FormatCII(CIIInput{Invoice: ciiInvoice(t), Seller: seller, Buyer: buyer, Profile: profile})
			assertWellFormed(t, doc)
			assert.Contains(t, doc, "<ram:ID>"+urn+"</ram:ID>", "profile %s", profile)
		}
	})

	t.Run("basic renders amounts, dates and optional blocks", func(t *testing.T) {
		doc := FormatCII(CIIInput{Invoice: ciiInvoice(t), Seller: seller, Buyer: buyer, Profile: ProfileBasic})

		assert.Contains(t, doc, `<udt:DateTimeString format="102">20260115</udt:DateTimeString>`)
		assert.Contains(t, doc, `<udt:DateTimeString format="102">20260214</udt:DateTimeString>`)
		assert.Contains(t, doc, "<ram:LineTotalAmount>1000.00</ram:LineTotalAmount>")
		assert.Contains(t, doc, `<ram:TaxTotalAmount currencyID="EUR">200.00</ram:TaxTotalAmount>`)
		assert.Contains(t, doc, "<ram:GrandTotalAmount>1200.00</ram:GrandTotalAmount>")
		assert.Contains(t, doc, "<ram:DuePayableAmount>1200.00</ram:DuePayableAmount>")
		assert.Contains(t, doc, "<ram:ChargeAmount>333.33</ram:ChargeAmount>")
		assert.Contains(t, doc, "<ram:IBANID>FR7630006000011234567890189</ram:IBANID>")
		assert.Contains(t, doc, `<ram:ID schemeID="VA">FR12123456789</ram:ID>`)
		assert.Contains(t, doc, "<ram:Name>Audit &lt;sécurité&gt; &amp; conseil</ram:Name>")
		assert.NotContains(t, doc, "URIUniversalCommunication")
	})

	t.Run("absent seller VAT and IBAN are omitted", func(t *testing.T) {
		bare := &invoicing.Party{Name: "Solo"}
		doc := FormatCII(CIIInput{Invoice: ciiInvoice(t), Seller: bare, Buyer: buyer, Profile: ProfileEN16931})

		assertWellFormed(t, doc)
		assert.NotContains(t, doc, "SpecifiedTaxRegistration")
		assert.NotContains(t, doc, "IBANID")
		assert.NotContains(t, doc, "SpecifiedTradeSettlementPaymentMeans")
	})

	t.Run("minimum omits line items and payment means", func(t *testing.T) {
		doc := FormatCII(CIIInput{Invoice: ciiInvoice(t), Seller: seller, Buyer: buyer, Profile: ProfileMinimum})

		assert.NotContains(t, doc, "IncludedSupplyChainTradeLineItem")
		assert.NotContains(t, doc, "IBANID")
		assert.NotContains(t, doc, "LineTotalAmount")
		assert.Contains(t, doc, "<ram:CountryID>FR</ram:CountryID>")
	})

	t.Run("en16931 adds contact e-mail", func(t *testing.T) {
		doc := FormatCII(CIIInput{Invoice: ciiInvoice(t), Seller: seller, Buyer: buyer, Profile: ProfileEN16931})
		assert.Contains(t, doc, `<ram:URIID schemeID="EM">billing@acme.test</ram:URIID>`)
	})

	t.Run("nil parties render empty names", func(t *testing.T) {
		doc := FormatCII(CIIInput{Invoice: ciiInvoice(t)})
		assertWellFormed(t, doc)
		assert.Contains(t, doc, "<ram:Name></ram:Name>")
		assert.Contains(t, doc, DefaultProfile.GuidelineID())
	})
}

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile("")
	require.NoError(t, err)
	assert.Equal(t, ProfileBasic, p)

	p, err = ParseProfile("en16931")
	require.NoError(t, err)
	assert.Equal(t, ProfileEN16931, p)

	_, err = ParseProfile("EXTENDED")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestXMLWriter(t *testing.T) {
	w := newXMLWriter()
	w.open("root", attr{"xmlns", "urn:test"})
	w.leaf("Name", `a & b <c> "d" 'e'`)
	w.leaf("Bell", "bel\x07l")
	// decomposed e + combining acute becomes the composed form
	w.leaf("Accent", "e\u0301")
	w.leaf("Empty", "")
	w.optional("Skipped", "")
	w.leaf("Amount", "1.00", attr{"currencyID", "EUR"})
	w.close("root")
	doc := w.String()

	assertWellFormed(t, doc)
	assert.True(t, strings.HasPrefix(doc, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, doc, `<root xmlns="urn:test">`)
	assert.Contains(t, doc, "<Name>a &amp; b &lt;c&gt; &quot;d&quot; &apos;e&apos;</Name>")
	assert.Contains(t, doc, "<Bell>bell</Bell>")
	assert.Contains(t, doc, "<Accent>\u00e9</Accent>")
	assert.Contains(t, doc, "<Empty></Empty>")
	assert.NotContains(t, doc, "Skipped")
	assert.Contains(t, doc, "\n  <Amount currencyID=\"EUR\">1.00</Amount>\n")
}

func TestXMLWriter_MismatchedClosePanics(t *testing.T) {
	w := newXMLWriter()
	w.open("a")
	assert.Panics(t, func() { w.close("b") })
}

func TestFormatCII_TaxTotalMatchesBreakdown(t *testing.T) {
	inv, err := invoicing.NewInvoice(uuid.New(), invoicing.InvoiceInput{
		Number:    "F-2026-010",
		ClientID:  uuid.New(),
		IssueDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Lines: []invoicing.InvoiceLine{
			{Description: "a", Quantity: dec("1"), UnitPrice: dec("0.10"), VATRate: dec("4.5")},
			{Description: "b", Quantity: dec("1"), UnitPrice: dec("0.09"), VATRate: dec("5")},
		},
	})
	require.NoError(t, err)

	doc := FormatCII(CIIInput{Invoice: inv, Seller: &invoicing.Party{Name: "ACME"}, Buyer: &invoicing.Party{Name: "B"}, Profile: ProfileEN16931})
	assertWellFormed(t, doc)

	var parsed struct {
		Transaction struct {
			Settlement struct {
				Taxes []struct {
					Calculated string `xml:"CalculatedAmount"`
				} `xml:"ApplicableTradeTax"`
				Summation struct {
					TaxTotal string `xml:"TaxTotalAmount"`
					Grand    string `xml:"GrandTotalAmount"`
				} `xml:"SpecifiedTradeSettlementHeaderMonetarySummation"`
			} `xml:"ApplicableHeaderTradeSettlement"`
		} `xml:"SupplyChainTradeTransaction"`
	}
	require.NoError(t, xml.Unmarshal([]byte(doc), &parsed))

	settlement := parsed.Transaction.Settlement
	require.Len(t, settlement.Taxes, 2)
	sum := decimal.Zero
	for _, tax := range settlement.Taxes {
		sum = sum.Add(dec(tax.Calculated))
	}
	assert.Equal(t, fixed2(sum), settlement.Summation.TaxTotal)
	assert.Equal(t, "0.00", settlement.Summation.TaxTotal)
	assert.Equal(t, "0.19", settlement.Summation.Grand)
}
