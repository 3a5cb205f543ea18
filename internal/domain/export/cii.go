package export

import (
	"strconv"
	"strings"

	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
)

// Profile selects the CII conformance level
type Profile string

const (
	ProfileMinimum Profile = "MINIMUM"
	ProfileBasic   Profile = "BASIC"
	ProfileEN16931 Profile = "EN16931"

	DefaultProfile = ProfileBasic
)

const (
	ciiDateFormat           = "102"
	ciiInvoiceType          = "380"
	ciiSEPATransfer         = "58"
	ciiVATScheme            = "VA"
	ciiLegalIDScheme        = "0002"
	ciiUnitCode             = "C62"
	ciiStandardVATCategory  = "S"
	ciiZeroRatedVATCategory = "Z"
)

var profileGuidelines = map[Profile]string{
	ProfileMinimum: "urn:factur-x.eu:1p0:minimum",
	ProfileBasic:   "urn:cen.eu:en16931:2017#compliant#urn:factur-x.eu:1p0:basic",
	ProfileEN16931: "urn:cen.eu:en16931:2017",
}

// ErrUnknownProfile is returned for a profile other than MINIMUM, BASIC or EN16931
var ErrUnknownProfile = shared.NewDomainError("UNKNOWN_PROFILE", "Unknown e-invoice profile")

// ParseProfile accepts the profile name case-insensitively; empty means BASIC
func ParseProfile(s string) (Profile, error) {
	p := Profile(strings.ToUpper(strings.TrimSpace(s)))
	if p == "" {
		return DefaultProfile, nil
	}
	if _, ok := profileGuidelines[p]; !ok {
		return "", ErrUnknownProfile.Withf("unknown e-invoice profile %q", s)
	}
	return p, nil
}

// GuidelineID returns the guideline URN of the profile
func (p Profile) GuidelineID() string {
	if id, ok := profileGuidelines[p]; ok {
		return id
	}
	return profileGuidelines[DefaultProfile]
}

func (p Profile) hasLines() bool {
	return p == ProfileBasic || p == ProfileEN16931
}

const (
	nsRSM = "urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100"
	nsRAM = "urn:un:unece:uncefact:data:standard:ReusableAggregateBusinessInformationEntity:100"
	nsUDT = "urn:un:unece:uncefact:data:standard:UnqualifiedDataType:100"
	nsQDT = "urn:un:unece:uncefact:data:standard:QualifiedDataType:100"
)

// CIIInput is everything the e-invoice is built from
type CIIInput struct {
	Invoice *invoicing.Invoice
	Seller  *invoicing.Party
	Buyer   *invoicing.Party
	Profile Profile
}

// FormatCII renders the invoice as Cross Industry Invoice XML for the requested profile.
// Optional blocks are omitted when their source field is empty.
func FormatCII(in CIIInput) string {
	inv := in.Invoice
	if inv == nil {
		inv = &invoicing.Invoice{}
	}
	seller, buyer := in.Seller, in.Buyer
	if seller == nil {
		seller = &invoicing.Party{}
	}
	if buyer == nil {
		buyer = &invoicing.Party{}
	}
	profile := in.Profile
	if _, ok := profileGuidelines[profile]; !ok {
		profile = DefaultProfile
	}
	currency := inv.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	cur := attr{"currencyID", currency.String()}

	w := newXMLWriter()
	w.open("rsm:CrossIndustryInvoice",
		attr{"xmlns:rsm", nsRSM},
		attr{"xmlns:ram", nsRAM},
		attr{"xmlns:udt", nsUDT},
		attr{"xmlns:qdt", nsQDT},
	)

	w.open("rsm:ExchangedDocumentContext")
	w.open("ram:GuidelineSpecifiedDocumentContextParameter")
	w.leaf("ram:ID", profile.GuidelineID())
	w.close("ram:GuidelineSpecifiedDocumentContextParameter")
	w.close("rsm:ExchangedDocumentContext")

	w.open("rsm:ExchangedDocument")
	w.leaf("ram:ID", inv.Number)
	w.leaf("ram:TypeCode", ciiInvoiceType)
	writeDateTime(w, "ram:IssueDateTime", compactDate(inv.IssueDate))
	w.close("rsm:ExchangedDocument")

	w.open("rsm:SupplyChainTradeTransaction")
	if profile.hasLines() {
		for i, line := range inv.Lines {
			writeLineItem(w, i+1, line)
		}
	}

	w.open("ram:ApplicableHeaderTradeAgreement")
	w.optional("ram:BuyerReference", inv.BuyerRef)
	writeParty(w, "ram:SellerTradeParty", seller, profile, true)
	writeParty(w, "ram:BuyerTradeParty", buyer, profile, false)
	w.close("ram:ApplicableHeaderTradeAgreement")

	w.open("ram:ApplicableHeaderTradeDelivery")
	w.close("ram:ApplicableHeaderTradeDelivery")

	w.open("ram:ApplicableHeaderTradeSettlement")
	w.leaf("ram:InvoiceCurrencyCode", currency.String())
	if profile.hasLines() {
		if seller.IBAN != "" {
			w.open("ram:SpecifiedTradeSettlementPaymentMeans")
			w.leaf("ram:TypeCode", ciiSEPATransfer)
			w.open("ram:PayeePartyCreditorFinancialAccount")
			w.leaf("ram:IBANID", strings.ReplaceAll(seller.IBAN, " ", ""))
			w.close("ram:PayeePartyCreditorFinancialAccount")
			if seller.BIC != "" {
				w.open("ram:PayeeSpecifiedCreditorFinancialInstitution")
				w.leaf("ram:BICID", seller.BIC)
				w.close("ram:PayeeSpecifiedCreditorFinancialInstitution")
			}
			w.close("ram:SpecifiedTradeSettlementPaymentMeans")
		}
		for _, g := range inv.VATBreakdown() {
			w.open("ram:ApplicableTradeTax")
			w.leaf("ram:CalculatedAmount", fixed2(g.Amount))
			w.leaf("ram:TypeCode", "VAT")
			w.leaf("ram:BasisAmount", fixed2(g.Basis))
			w.leaf("ram:CategoryCode", vatCategory(g.Rate.IsZero()))
			w.leaf("ram:RateApplicablePercent", fixed2(g.Rate))
			w.close("ram:ApplicableTradeTax")
		}
		if inv.DueDate != nil {
			w.open("ram:SpecifiedTradePaymentTerms")
			writeDateTime(w, "ram:DueDateDateTime", compactDate(*inv.DueDate))
			w.close("ram:SpecifiedTradePaymentTerms")
		}
	}

	w.open("ram:SpecifiedTradeSettlementHeaderMonetarySummation")
	if profile.hasLines() {
		w.leaf("ram:LineTotalAmount", fixed2(inv.TotalHT))
	}
	w.leaf("ram:TaxBasisTotalAmount", fixed2(inv.TotalHT))
	w.leaf("ram:TaxTotalAmount", fixed2(inv.TotalTVA), cur)
	w.leaf("ram:GrandTotalAmount", fixed2(inv.TotalTTC))
	if profile.hasLines() && inv.AmountPaid.IsPositive() {
		w.leaf("ram:TotalPrepaidAmount", fixed2(inv.AmountPaid))
	}
	w.leaf("ram:DuePayableAmount", fixed2(inv.BalanceDue))
	w.close("ram:SpecifiedTradeSettlementHeaderMonetarySummation")
	w.close("ram:ApplicableHeaderTradeSettlement")

	w.close("rsm:SupplyChainTradeTransaction")
	w.close("rsm:CrossIndustryInvoice")
	return w.String()
}

func writeDateTime(w *xmlWriter, name, value string) {
	w.open(name)
	w.leaf("udt:DateTimeString", value, attr{"format", ciiDateFormat})
	w.close(name)
}

func vatCategory(zeroRated bool) string {
	if zeroRated {
		return ciiZeroRatedVATCategory
	}
	return ciiStandardVATCategory
}

func writeParty(w *xmlWriter, name string, p *invoicing.Party, profile Profile, isSeller bool) {
	w.open(name)
	w.leaf("ram:Name", p.Name)
	if p.LegalID != "" {
		w.open("ram:SpecifiedLegalOrganization")
		w.leaf("ram:ID", p.LegalID, attr{"schemeID", ciiLegalIDScheme})
		w.close("ram:SpecifiedLegalOrganization")
	}
	// MINIMUM keeps only the seller country; richer profiles carry the full address
	if profile == ProfileMinimum {
		if isSeller && p.CountryCode != "" {
			w.open("ram:PostalTradeAddress")
			w.leaf("ram:CountryID", p.CountryCode)
			w.close("ram:PostalTradeAddress")
		}
	} else if p.HasAddress() {
		w.open("ram:PostalTradeAddress")
		w.optional("ram:PostcodeCode", p.PostalCode)
		w.optional("ram:LineOne", p.AddressLine)
		w.optional("ram:CityName", p.City)
		w.optional("ram:CountryID", p.CountryCode)
		w.close("ram:PostalTradeAddress")
	}
	if profile == ProfileEN16931 && p.Email != "" {
		w.open("ram:URIUniversalCommunication")
		w.leaf("ram:URIID", p.Email, attr{"schemeID", "EM"})
		w.close("ram:URIUniversalCommunication")
	}
	if p.VATNumber != "" && (isSeller || profile != ProfileMinimum) {
		w.open("ram:SpecifiedTaxRegistration")
		w.leaf("ram:ID", p.VATNumber, attr{"schemeID", ciiVATScheme})
		w.close("ram:SpecifiedTaxRegistration")
	}
	w.close(name)
}

func writeLineItem(w *xmlWriter, n int, line invoicing.InvoiceLine) {
	w.open("ram:IncludedSupplyChainTradeLineItem")
	w.open("ram:AssociatedDocumentLineDocument")
	w.leaf("ram:LineID", strconv.Itoa(n))
	w.close("ram:AssociatedDocumentLineDocument")
	w.open("ram:SpecifiedTradeProduct")
	w.leaf("ram:Name", line.Description)
	w.close("ram:SpecifiedTradeProduct")
	w.open("ram:SpecifiedLineTradeAgreement")
	w.open("ram:NetPriceProductTradePrice")
	w.leaf("ram:ChargeAmount", fixed2(line.UnitPrice))
	w.close("ram:NetPriceProductTradePrice")
	w.close("ram:SpecifiedLineTradeAgreement")
	w.open("ram:SpecifiedLineTradeDelivery")
	w.leaf("ram:BilledQuantity", line.Quantity.String(), attr{"unitCode", ciiUnitCode})
	w.close("ram:SpecifiedLineTradeDelivery")
	w.open("ram:SpecifiedLineTradeSettlement")
	w.open("ram:ApplicableTradeTax")
	w.leaf("ram:TypeCode", "VAT")
	w.leaf("ram:CategoryCode", vatCategory(line.VATRate.IsZero()))
	w.leaf("ram:RateApplicablePercent", fixed2(line.VATRate))
	w.close("ram:ApplicableTradeTax")
	w.open("ram:SpecifiedTradeSettlementLineMonetarySummation")
	w.leaf("ram:LineTotalAmount", fixed2(line.LineTotal))
	w.close("ram:SpecifiedTradeSettlementLineMonetarySummation")
	w.close("ram:SpecifiedLineTradeSettlement")
	w.close("ram:IncludedSupplyChainTradeLineItem")
}
