package ledger

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// ChartOfAccounts owns the valid account codes of a tenant per country
type ChartOfAccounts struct {
	accounts AccountRepository
	entries  EntryRepository
}

// NewChartOfAccounts creates the registry
func NewChartOfAccounts(accounts AccountRepository, entries EntryRepository) *ChartOfAccounts {
	return &ChartOfAccounts{accounts: accounts, entries: entries}
}

// UpsertAccount creates an account, or updates name and category of an existing one
// when allowUpdate is set. Without update intent an existing (country, code) is a
// duplicate.
func (c *ChartOfAccounts) UpsertAccount(ctx context.Context, tenantID uuid.UUID, in AccountInput, allowUpdate bool) (*Account, error) {
	candidate, err := NewAccount(tenantID, in)
	if err != nil {
		return nil, err
	}

	existing, err := c.accounts.FindByCode(ctx, tenantID, candidate.Country, candidate.Code)
	switch {
	case err == nil:
		if !allowUpdate {
			return nil, ErrDuplicateAccount.Withf("account %s already exists for %s", candidate.Code, candidate.Country)
		}
		if err := existing.Rename(candidate.Name, candidate.Category); err != nil {
			return nil, err
		}
		if err := c.accounts.Save(ctx, existing); err != nil {
			return nil, shared.WrapStoreError("save account", err)
		}
		return existing, nil
	case errors.Is(err, shared.ErrNotFound):
		if err := c.accounts.Save(ctx, candidate); err != nil {
			return nil, shared.WrapStoreError("save account", err)
		}
		return candidate, nil
	default:
		return nil, shared.WrapStoreError("find account", err)
	}
}

// ListAccounts returns accounts ordered by code ascending
func (c *ChartOfAccounts) ListAccounts(ctx context.Context, tenantID uuid.UUID, filter AccountFilter) ([]Account, error) {
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, ErrInvalidAccount.Withf("unknown category %q", filter.Category)
	}
	accounts, err := c.accounts.List(ctx, tenantID, filter)
	if err != nil {
		return nil, shared.WrapStoreError("list accounts", err)
	}
	return accounts, nil
}

// DeleteAccount removes an account that no journal entry references.
// Entry lines carry only the account code, so a line posted under one country
// keeps the same code in use for every other country of the tenant.
func (c *ChartOfAccounts) DeleteAccount(ctx context.Context, tenantID uuid.UUID, country Country, code string) error {
	account, err := c.accounts.FindByCode(ctx, tenantID, country, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrAccountNotFound.Withf("account %s not found for %s", code, country)
		}
		return shared.WrapStoreError("find account", err)
	}

	inUse, err := c.entries.ExistsForAccount(ctx, tenantID, account.Code)
	if err != nil {
		return shared.WrapStoreError("check account usage", err)
	}
	if inUse {
		return ErrAccountInUse.Withf("account %s is referenced by journal entries", account.Code)
	}

	if err := c.accounts.Delete(ctx, tenantID, account.ID); err != nil {
		return shared.WrapStoreError("delete account", err)
	}
	return nil
}

// SeedCountryChart makes sure every account the system posts to on its own
// (opening balances, invoice postings) exists for the country.
func (c *ChartOfAccounts) SeedCountryChart(ctx context.Context, tenantID uuid.UUID, country Country) ([]Account, error) {
	seeded := make([]Account, 0, len(systemAccounts(country)))
	for _, in := range systemAccounts(country) {
		existing, err := c.accounts.FindByCode(ctx, tenantID, in.Country, in.Code)
		if err == nil {
			seeded = append(seeded, *existing)
			continue
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, shared.WrapStoreError("find account", err)
		}
		account, err := NewAccount(tenantID, in)
		if err != nil {
			return nil, err
		}
		if err := c.accounts.Save(ctx, account); err != nil {
			return nil, shared.WrapStoreError("save account", err)
		}
		seeded = append(seeded, *account)
	}
	return seeded, nil
}

// resolve returns the subset of codes that are unknown to the chart
func (c *ChartOfAccounts) resolve(ctx context.Context, tenantID uuid.UUID, codes []string) ([]string, error) {
	found, err := c.accounts.FindByCodes(ctx, tenantID, codes)
	if err != nil {
		return nil, shared.WrapStoreError("resolve accounts", err)
	}
	known := make(map[string]struct{}, len(found))
	for _, a := range found {
		known[a.Code] = struct{}{}
	}
	var missing []string
	for _, code := range codes {
		if _, ok := known[code]; !ok {
			missing = append(missing, code)
		}
	}
	return missing, nil
}
