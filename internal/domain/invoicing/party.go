package invoicing

import (
	"strings"

	"github.com/google/uuid"
)

// PartyRole distinguishes the issuing company from its clients
type PartyRole string

const (
	PartyRoleCompany PartyRole = "company"
	PartyRoleClient  PartyRole = "client"
)

// Party is a company or client record consumed by the regulatory exports.
// Optional fields are empty strings when unknown.
type Party struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Role        PartyRole
	Name        string
	LegalID     string // SIREN, BCE number, RCCM...
	VATNumber   string
	IBAN        string
	BIC         string
	Email       string
	AddressLine string
	PostalCode  string
	City        string
	CountryCode string // ISO 3166-1 alpha-2
}

// NewParty validates and builds a party
func NewParty(tenantID uuid.UUID, role PartyRole, name string) (*Party, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInvoice.Withf("party name is required")
	}
	if role != PartyRoleCompany && role != PartyRoleClient {
		return nil, ErrInvalidInvoice.Withf("unknown party role %q", role)
	}
	return &Party{
		ID:       uuid.New(),
		TenantID: tenantID,
		Role:     role,
		Name:     name,
	}, nil
}

// HasAddress reports whether any postal address field is set
func (p *Party) HasAddress() bool {
	return p.AddressLine != "" || p.PostalCode != "" || p.City != "" || p.CountryCode != ""
}
