package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/erp/ledger/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add parties table", "add_parties_table"},
		{"Add-Payment-Allocations", "add_payment_allocations"},
		{"ADD_JOURNAL_INDEX", "add_journal_index"},
		{"add__vat__column", "add_vat_column"},
		{"Invoices 2026", "invoices_2026"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersAfterExisting(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"000001_init.up.sql", "000001_init.down.sql", "000007_accounts.up.sql", "000007_accounts.down.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- test"), 0o644))
	}

	mf, err := CreateMigration(dir, "Add bank journal", "Seed the BQ journal")
	require.NoError(t, err)

	assert.Equal(t, uint(8), mf.Version)
	assert.Equal(t, filepath.Join(dir, "000008_add_bank_journal.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "000008_add_bank_journal.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- add_bank_journal")
	assert.Contains(t, string(up), "-- Seed the BQ journal")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback of add_bank_journal")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(nested, "init", "")
	require.NoError(t, err)
	assert.Equal(t, uint(1), mf.Version)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_payments.up.sql":   {Data: []byte("-- up")},
		"000002_payments.down.sql": {Data: []byte("-- down")},
		"000001_init.up.sql":       {Data: []byte("-- up")},
		"000001_init.down.sql":     {Data: []byte("-- down")},
		"README.md":                {Data: []byte("docs")},
		"embed.go":                 {Data: []byte("package migrations")},
		"subdir.up.sql/keep":       {Data: []byte("")},
	}

	list, err := ListMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint(1), list[0].Version)
	assert.Equal(t, "init", list[0].Name)
	assert.Equal(t, "000001_init.down.sql", list[0].DownPath)
	assert.Equal(t, uint(2), list[1].Version)
}

func TestListMigrations_MissingDown(t *testing.T) {
	fsys := fstest.MapFS{"000001_init.up.sql": {Data: []byte("-- up")}}

	_, err := ListMigrations(fsys)
	assert.ErrorContains(t, err, "no down file")
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	list, err := ListMigrations(os.DirFS("/nonexistent/path/to/migrations"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListMigrations_EmbeddedSet(t *testing.T) {
	list, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	for i, mf := range list {
		assert.Equal(t, uint(i+1), mf.Version, "embedded migrations must be numbered without gaps")
	}
}
