package ledger

// SuspenseAccountCode is the opening-balance suspense account, identical in every supported chart
const SuspenseAccountCode = "890"

// BalanceField is one of the coarse balance-sheet inputs accepted at onboarding
type BalanceField string

const (
	FieldBankBalance   BalanceField = "bank_balance"
	FieldReceivables   BalanceField = "receivables"
	FieldPayables      BalanceField = "payables"
	FieldEquityCapital BalanceField = "equity_capital"
	FieldLoanBalance   BalanceField = "loan_balance"
	FieldFixedAssets   BalanceField = "fixed_assets"
)

// BalanceFields lists the recognised fields in posting order
var BalanceFields = []BalanceField{
	FieldBankBalance,
	FieldReceivables,
	FieldPayables,
	FieldEquityCapital,
	FieldLoanBalance,
	FieldFixedAssets,
}

// IsAsset reports whether the field is debit-normal
func (f BalanceField) IsAsset() bool {
	switch f {
	case FieldBankBalance, FieldReceivables, FieldFixedAssets:
		return true
	}
	return false
}

// IsValid checks if the field is recognised
func (f BalanceField) IsValid() bool {
	for _, known := range BalanceFields {
		if f == known {
			return true
		}
	}
	return false
}

// ChartMapping resolves the accounts the system posts to for one national chart
type ChartMapping struct {
	Country      Country
	Opening      map[BalanceField]AccountInput
	Suspense     AccountInput
	Receivables  AccountInput
	SalesRevenue AccountInput
	VATCollected AccountInput
}

func account(country Country, code, name string, category Category) AccountInput {
	return AccountInput{Code: code, Name: name, Category: category, Country: country}
}

var chartMappings = map[Country]ChartMapping{
	CountryFR: {
		Country: CountryFR,
		Opening: map[BalanceField]AccountInput{
			FieldBankBalance:   account(CountryFR, "512", "Banque", CategoryAsset),
			FieldReceivables:   account(CountryFR, "411", "Clients", CategoryAsset),
			FieldPayables:      account(CountryFR, "401", "Fournisseurs", CategoryLiability),
			FieldEquityCapital: account(CountryFR, "101", "Capital", CategoryEquity),
			FieldLoanBalance:   account(CountryFR, "164", "Emprunts auprès des établissements de crédit", CategoryLiability),
			FieldFixedAssets:   account(CountryFR, "218", "Autres immobilisations corporelles", CategoryAsset),
		},
		Suspense:     account(CountryFR, SuspenseAccountCode, "Bilan d'ouverture", CategoryEquity),
		Receivables:  account(CountryFR, "411", "Clients", CategoryAsset),
		SalesRevenue: account(CountryFR, "706", "Prestations de services", CategoryRevenue),
		VATCollected: account(CountryFR, "44571", "TVA collectée", CategoryLiability),
	},
	CountryBE: {
		Country: CountryBE,
		Opening: map[BalanceField]AccountInput{
			FieldBankBalance:   account(CountryBE, "550", "Établissements de crédit : comptes courants", CategoryAsset),
			FieldReceivables:   account(CountryBE, "400", "Clients", CategoryAsset),
			FieldPayables:      account(CountryBE, "440", "Fournisseurs", CategoryLiability),
			FieldEquityCapital: account(CountryBE, "100", "Capital souscrit", CategoryEquity),
			FieldLoanBalance:   account(CountryBE, "173", "Établissements de crédit", CategoryLiability),
			FieldFixedAssets:   account(CountryBE, "230", "Installations, machines et outillage", CategoryAsset),
		},
		Suspense:     account(CountryBE, SuspenseAccountCode, "Compte d'ouverture", CategoryEquity),
		Receivables:  account(CountryBE, "400", "Clients", CategoryAsset),
		SalesRevenue: account(CountryBE, "700", "Ventes et prestations de services", CategoryRevenue),
		VATCollected: account(CountryBE, "451", "TVA à payer", CategoryLiability),
	},
	CountryOHADA: {
		Country: CountryOHADA,
		Opening: map[BalanceField]AccountInput{
			FieldBankBalance:   account(CountryOHADA, "521", "Banques locales", CategoryAsset),
			FieldReceivables:   account(CountryOHADA, "411", "Clients", CategoryAsset),
			FieldPayables:      account(CountryOHADA, "401", "Fournisseurs, dettes en compte", CategoryLiability),
			FieldEquityCapital: account(CountryOHADA, "101", "Capital social", CategoryEquity),
			FieldLoanBalance:   account(CountryOHADA, "162", "Emprunts et dettes auprès des établissements de crédit", CategoryLiability),
			FieldFixedAssets:   account(CountryOHADA, "241", "Matériel et outillage industriel et commercial", CategoryAsset),
		},
		Suspense:     account(CountryOHADA, SuspenseAccountCode, "Compte d'ouverture", CategoryEquity),
		Receivables:  account(CountryOHADA, "411", "Clients", CategoryAsset),
		SalesRevenue: account(CountryOHADA, "706", "Services vendus", CategoryRevenue),
		VATCollected: account(CountryOHADA, "4431", "TVA facturée sur ventes", CategoryLiability),
	},
}

// MappingFor returns the chart mapping of a country, falling back to FR
func MappingFor(country Country) ChartMapping {
	if m, ok := chartMappings[country]; ok {
		return m
	}
	return chartMappings[DefaultCountry]
}

// systemAccounts lists every distinct account of a country mapping
func systemAccounts(country Country) []AccountInput {
	m := MappingFor(country)
	seen := make(map[string]bool)
	var out []AccountInput
	add := func(in AccountInput) {
		if seen[in.Code] {
			return
		}
		seen[in.Code] = true
		out = append(out, in)
	}
	for _, f := range BalanceFields {
		add(m.Opening[f])
	}
	add(m.Suspense)
	add(m.Receivables)
	add(m.SalesRevenue)
	add(m.VATCollected)
	return out
}
