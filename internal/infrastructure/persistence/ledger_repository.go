package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const entryBatchSize = 500

// GormAccountRepository implements ledger.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByCode finds an account by country and code
func (r *GormAccountRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, country ledger.Country, code string) (*ledger.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND country = ? AND code = ?", tenantID, string(country), code).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCodes returns the accounts of any country whose code is in codes
func (r *GormAccountRepository) FindByCodes(ctx context.Context, tenantID uuid.UUID, codes []string) ([]ledger.Account, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var accountModels []models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code IN ?", tenantID, codes).
		Find(&accountModels).Error; err != nil {
		return nil, err
	}
	return toAccounts(accountModels), nil
}

// List returns the tenant's accounts ordered by code
func (r *GormAccountRepository) List(ctx context.Context, tenantID uuid.UUID, filter ledger.AccountFilter) ([]ledger.Account, error) {
	query := r.db.WithContext(ctx).Model(&models.AccountModel{}).
		Where("tenant_id = ?", tenantID)
	if filter.Category != "" {
		query = query.Where("category = ?", string(filter.Category))
	}
	if filter.Country != "" {
		query = query.Where("country = ?", string(filter.Country))
	}

	var accountModels []models.AccountModel
	if err := query.Order("code ASC").Order("country ASC").Find(&accountModels).Error; err != nil {
		return nil, err
	}
	return toAccounts(accountModels), nil
}

// Save creates or updates an account. A concurrent insert of the same
// (country, code) is reported as ledger.ErrDuplicateAccount.
func (r *GormAccountRepository) Save(ctx context.Context, account *ledger.Account) error {
	err := r.db.WithContext(ctx).Save(models.AccountModelFromDomain(account)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ledger.ErrDuplicateAccount.Withf("account %s already exists for %s", account.Code, account.Country)
	}
	return err
}

// Delete removes an account
func (r *GormAccountRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.AccountModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toAccounts(accountModels []models.AccountModel) []ledger.Account {
	accounts := make([]ledger.Account, len(accountModels))
	for i := range accountModels {
		accounts[i] = *accountModels[i].ToDomain()
	}
	return accounts
}

// GormEntryRepository implements ledger.EntryRepository using GORM
type GormEntryRepository struct {
	db *gorm.DB
}

// NewGormEntryRepository creates a new GormEntryRepository
func NewGormEntryRepository(db *gorm.DB) *GormEntryRepository {
	return &GormEntryRepository{db: db}
}

// AppendBatch inserts all entries in one transaction (a savepoint when already inside one)
func (r *GormEntryRepository) AppendBatch(ctx context.Context, entries []ledger.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	entryModels := make([]*models.JournalEntryModel, len(entries))
	for i := range entries {
		entryModels[i] = models.JournalEntryModelFromDomain(&entries[i])
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(entryModels, entryBatchSize).Error
	})
}

// Query returns entries ordered by transaction date, then entry reference.
// The To bound is inclusive of the whole day.
func (r *GormEntryRepository) Query(ctx context.Context, tenantID uuid.UUID, filter ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	query := r.db.WithContext(ctx).Model(&models.JournalEntryModel{}).
		Where("tenant_id = ?", tenantID)
	if filter.From != nil {
		query = query.Where("transaction_date >= ?", ledger.TruncateDay(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("transaction_date < ?", ledger.TruncateDay(*filter.To).Add(24*time.Hour))
	}
	if filter.AccountCode != "" {
		query = query.Where("account_code = ?", filter.AccountCode)
	}
	if filter.Journal != "" {
		query = query.Where("journal = ?", string(filter.Journal))
	}
	if filter.SourceType != "" {
		query = query.Where("source_type = ?", string(filter.SourceType))
	}

	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}
	query = query.
		Order("transaction_date " + direction).
		Order("entry_ref " + direction).
		Order("created_at " + direction).
		Order("id ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var entryModels []models.JournalEntryModel
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]ledger.JournalEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}

// ExistsForAccount reports whether any entry posts to the account code
func (r *GormEntryRepository) ExistsForAccount(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.JournalEntryModel{}).
		Where("tenant_id = ? AND account_code = ?", tenantID, code).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteBySource removes every entry of the source type and returns how many were removed
func (r *GormEntryRepository) DeleteBySource(ctx context.Context, tenantID uuid.UUID, source ledger.SourceType) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_type = ?", tenantID, string(source)).
		Delete(&models.JournalEntryModel{})
	return result.RowsAffected, result.Error
}

var (
	_ ledger.AccountRepository = (*GormAccountRepository)(nil)
	_ ledger.EntryRepository   = (*GormEntryRepository)(nil)
)
