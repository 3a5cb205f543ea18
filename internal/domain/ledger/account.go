package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category is the accounting nature of an account
type Category string

const (
	CategoryAsset     Category = "asset"
	CategoryLiability Category = "liability"
	CategoryEquity    Category = "equity"
	CategoryRevenue   Category = "revenue"
	CategoryExpense   Category = "expense"
)

// IsValid checks if the category is recognised
func (c Category) IsValid() bool {
	switch c {
	case CategoryAsset, CategoryLiability, CategoryEquity, CategoryRevenue, CategoryExpense:
		return true
	}
	return false
}

// Country selects the national chart of accounts
type Country string

const (
	CountryBE    Country = "BE"    // Belgian PCMN
	CountryFR    Country = "FR"    // French PCG
	CountryOHADA Country = "OHADA" // SYSCOHADA
)

// DefaultCountry is used when no or an unknown country is given
const DefaultCountry = CountryFR

// IsValid checks if the country is supported
func (c Country) IsValid() bool {
	switch c {
	case CountryBE, CountryFR, CountryOHADA:
		return true
	}
	return false
}

// ParseCountry normalises a country code, falling back to FR for unknown values.
func ParseCountry(s string) Country {
	c := Country(strings.ToUpper(strings.TrimSpace(s)))
	if c.IsValid() {
		return c
	}
	return DefaultCountry
}

const maxAccountCodeLength = 20

// Account is an entry of a tenant's chart of accounts
type Account struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Code      string
	Name      string
	Category  Category
	Country   Country
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountInput carries the fields accepted by NewAccount
type AccountInput struct {
	Code     string
	Name     string
	Category Category
	Country  Country
}

// NewAccount validates the input and builds an account
func NewAccount(tenantID uuid.UUID, in AccountInput) (*Account, error) {
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)

	if tenantID == uuid.Nil {
		return nil, ErrInvalidAccount.Withf("tenant is required")
	}
	if err := validateAccountCode(code); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, ErrInvalidAccount.Withf("account %s: name is required", code)
	}
	if !in.Category.IsValid() {
		return nil, ErrInvalidAccount.Withf("account %s: unknown category %q", code, in.Category)
	}
	country := in.Country
	if country == "" {
		country = DefaultCountry
	}
	if !country.IsValid() {
		return nil, ErrInvalidAccount.Withf("account %s: unsupported country %q", code, in.Country)
	}

	now := time.Now()
	return &Account{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Code:      code,
		Name:      name,
		Category:  in.Category,
		Country:   country,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func validateAccountCode(code string) error {
	if code == "" {
		return ErrInvalidAccount.Withf("account code is required")
	}
	if len(code) > maxAccountCodeLength {
		return ErrInvalidAccount.Withf("account code %s exceeds %d characters", code, maxAccountCodeLength)
	}
	for _, r := range code {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			return ErrInvalidAccount.Withf("account code %s must be alphanumeric", code)
		}
	}
	return nil
}

// Rename updates mutable attributes of an existing account
func (a *Account) Rename(name string, category Category) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidAccount.Withf("account %s: name is required", a.Code)
	}
	if !category.IsValid() {
		return ErrInvalidAccount.Withf("account %s: unknown category %q", a.Code, category)
	}
	a.Name = name
	a.Category = category
	a.UpdatedAt = time.Now()
	return nil
}
