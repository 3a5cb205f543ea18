package migration

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/erp/ledger/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name != 'schema_migrations' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestMigrator_SQLiteUpAndDown(t *testing.T) {
	db := openSQLite(t)
	m, err := New(db, "sqlite", migrations.FS, ".", zap.NewNop())
	require.NoError(t, err)

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	require.NoError(t, m.Up())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.Equal(t, []string{
		"accounts", "invoice_lines", "invoices", "journal_entries",
		"parties", "payment_allocations", "payments",
	}, tableNames(t, db))

	// A second run is a no-op
	require.NoError(t, m.Up())

	require.NoError(t, m.Steps(-1))
	assert.Equal(t, []string{"accounts", "journal_entries"}, tableNames(t, db))

	require.NoError(t, m.GoTo(2))
	require.NoError(t, m.Down())
	assert.Empty(t, tableNames(t, db))
}

func TestMigrator_RejectsNegativeAmounts(t *testing.T) {
	db := openSQLite(t)
	m, err := New(db, "sqlite", migrations.FS, ".", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	_, err = db.Exec(`INSERT INTO journal_entries (id, tenant_id, entry_ref, journal, transaction_date, account_code, debit, credit, source_type)
		VALUES ('e1', 't1', 'OD-1', 'OD', '2026-01-01', '512000', -5, 0, 'manual')`)
	assert.Error(t, err)
}

func TestNew_UnsupportedDriver(t *testing.T) {
	db := openSQLite(t)
	_, err := New(db, "mysql", migrations.FS, ".", zap.NewNop())
	assert.ErrorContains(t, err, `unsupported migration driver "mysql"`)
}
