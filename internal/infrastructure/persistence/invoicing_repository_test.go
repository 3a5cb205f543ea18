package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newInvoice(t *testing.T, tenantID uuid.UUID, number string) *invoicing.Invoice {
	t.Helper()
	inv, err := invoicing.NewInvoice(tenantID, invoicing.InvoiceInput{
		Number:    number,
		ClientID:  uuid.New(),
		IssueDate: day("2026-02-01"),
		Lines: []invoicing.InvoiceLine{
			{Description: "Consulting", Quantity: dec("2"), UnitPrice: dec("400"), VATRate: dec("20")},
			{Description: "Travel", Quantity: dec("1"), UnitPrice: dec("200"), VATRate: dec("0")},
		},
	})
	require.NoError(t, err)
	return inv
}

func TestGormInvoiceRepository(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDatabase(t)
	repo := NewGormInvoiceRepository(db.DB)
	tenantID := uuid.New()

	inv := newInvoice(t, tenantID, "F-2026-001")
	require.NoError(t, repo.Create(ctx, inv))

	t.Run("find loads lines in order", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "F-2026-001", found.Number)
		assert.True(t, found.TotalTTC.Equal(dec("1160")))
		assert.True(t, found.BalanceDue.Equal(dec("1160")))
		assert.Equal(t, invoicing.PaymentStatusUnpaid, found.PaymentStatus)
		assert.Equal(t, 1, found.Version)
		require.Len(t, found.Lines, 2)
		assert.Equal(t, "Consulting", found.Lines[0].Description)
		assert.Equal(t, "Travel", found.Lines[1].Description)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.FindByIDForUpdate(ctx, tenantID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindByID(ctx, uuid.New(), inv.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("save with lock", func(t *testing.T) {
		current, err := repo.FindByIDForUpdate(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		require.True(t, current.ApplyTotalPaid(dec("160")))
		current.IncrementVersion()
		require.NoError(t, repo.SaveWithLock(ctx, current))

		reloaded, err := repo.FindByID(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, reloaded.Version)
		assert.True(t, reloaded.AmountPaid.Equal(dec("160")))
		assert.True(t, reloaded.BalanceDue.Equal(dec("1000")))
		assert.Equal(t, invoicing.PaymentStatusPartial, reloaded.PaymentStatus)
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		stale, err := repo.FindByID(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		stale.Version = 1
		stale.IncrementVersion()

		err = repo.SaveWithLock(ctx, stale)
		assert.ErrorIs(t, err, invoicing.ErrConcurrency)
		assert.True(t, shared.IsKind(err, shared.KindConcurrency))
	})

	t.Run("existing ids", func(t *testing.T) {
		other := newInvoice(t, uuid.New(), "F-OTHER")
		require.NoError(t, repo.Create(ctx, other))

		found, err := repo.ExistingIDs(ctx, tenantID, []uuid.UUID{inv.ID, other.ID, uuid.New()})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{inv.ID}, found)

		none, err := repo.ExistingIDs(ctx, tenantID, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestGormInvoiceRepository_FindByIDForUpdateLocksRow(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	repo := NewGormInvoiceRepository(db.DB)
	tenantID, invoiceID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE tenant_id = \$1 AND id = \$2 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "tenant_id", "version", "number", "client_id", "status", "issue_date", "currency",
			"total_ht", "total_tva", "total_ttc", "amount_paid", "balance_due", "payment_status",
		}).AddRow(
			invoiceID.String(), tenantID.String(), 3, "F-1", uuid.NewString(), "sent", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), "EUR",
			"100.00", "20.00", "120.00", "0.00", "120.00", "unpaid",
		))
	mock.ExpectQuery(`SELECT \* FROM "invoice_lines" WHERE invoice_id = \$1 ORDER BY position ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "invoice_id", "position", "description"}))

	inv, err := repo.FindByIDForUpdate(context.Background(), tenantID, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, 3, inv.Version)
	assert.Equal(t, invoicing.InvoiceStatusSent, inv.Status)
	assert.True(t, inv.TotalTTC.Equal(dec("120")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormPaymentAndAllocationRepositories(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDatabase(t)
	payments := NewGormPaymentRepository(db.DB)
	allocations := NewGormAllocationRepository(db.DB)
	tenantID := uuid.New()
	invoiceID, otherInvoiceID := uuid.New(), uuid.New()

	first, err := invoicing.NewDirectPayment(tenantID, invoiceID, dec("100.10"), invoicing.PaymentMethodCard, day("2026-02-03"), "CB-1")
	require.NoError(t, err)
	second, err := invoicing.NewDirectPayment(tenantID, invoiceID, dec("0.20"), invoicing.PaymentMethodCash, day("2026-02-02"), "")
	require.NoError(t, err)
	require.NoError(t, payments.Create(ctx, first))
	require.NoError(t, payments.Create(ctx, second))

	lump, err := invoicing.NewLumpSumPayment(tenantID, uuid.New(), dec("300"), invoicing.PaymentMethodBankTransfer, day("2026-02-04"), "VIR-9",
		[]invoicing.AllocationInput{
			{InvoiceID: invoiceID, Amount: dec("0.10")},
			{InvoiceID: otherInvoiceID, Amount: dec("250")},
		})
	require.NoError(t, err)
	require.NoError(t, payments.Create(ctx, lump))
	require.NoError(t, allocations.CreateBatch(ctx, lump.Allocations))

	t.Run("direct sum excludes lump sums and rounds to cents", func(t *testing.T) {
		sum, err := payments.SumDirectForInvoice(ctx, tenantID, invoiceID)
		require.NoError(t, err)
		assert.Equal(t, "100.30", sum.StringFixed(2))

		zero, err := payments.SumDirectForInvoice(ctx, tenantID, otherInvoiceID)
		require.NoError(t, err)
		assert.True(t, zero.IsZero())
	})

	t.Run("direct list ordered by payment date", func(t *testing.T) {
		list, err := payments.ListDirectForInvoice(ctx, tenantID, invoiceID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)
		assert.Equal(t, invoicing.PaymentMethodCard, list[1].Method)
	})

	t.Run("allocation sums and listings", func(t *testing.T) {
		sum, err := allocations.SumForInvoice(ctx, tenantID, invoiceID)
		require.NoError(t, err)
		assert.Equal(t, "0.10", sum.StringFixed(2))

		byPayment, err := allocations.ListByPayment(ctx, tenantID, lump.ID)
		require.NoError(t, err)
		assert.Len(t, byPayment, 2)

		forInvoice, err := allocations.ListForInvoice(ctx, tenantID, otherInvoiceID)
		require.NoError(t, err)
		require.Len(t, forInvoice, 1)
		assert.True(t, forInvoice[0].Amount.Equal(dec("250")))
	})

	t.Run("find payment", func(t *testing.T) {
		found, err := payments.FindByID(ctx, tenantID, lump.ID)
		require.NoError(t, err)
		assert.True(t, found.IsLumpSum)
		assert.Nil(t, found.InvoiceID)
		assert.Equal(t, "VIR-9", found.Reference)

		_, err = payments.FindByID(ctx, tenantID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("delete payment and allocations", func(t *testing.T) {
		require.NoError(t, allocations.DeleteByPayment(ctx, tenantID, lump.ID))
		require.NoError(t, payments.Delete(ctx, tenantID, lump.ID))

		sum, err := allocations.SumForInvoice(ctx, tenantID, otherInvoiceID)
		require.NoError(t, err)
		assert.True(t, sum.IsZero())

		assert.ErrorIs(t, payments.Delete(ctx, tenantID, lump.ID), shared.ErrNotFound)
	})
}

func TestGormPartyRepository(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDatabase(t)
	repo := NewGormPartyRepository(db.DB)
	tenantID := uuid.New()

	_, err := repo.FindCompany(ctx, tenantID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	company, err := invoicing.NewParty(tenantID, invoicing.PartyRoleCompany, "Atelier Dupont SARL")
	require.NoError(t, err)
	company.LegalID = "123456789"
	company.VATNumber = "FR12123456789"
	company.CountryCode = "FR"
	require.NoError(t, repo.Save(ctx, company))

	for _, name := range []string{"Zeta SA", "Alpha SPRL"} {
		client, err := invoicing.NewParty(tenantID, invoicing.PartyRoleClient, name)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, client))
	}

	found, err := repo.FindCompany(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, company.ID, found.ID)
	assert.Equal(t, "FR12123456789", found.VATNumber)

	byID, err := repo.FindByID(ctx, tenantID, company.ID)
	require.NoError(t, err)
	assert.Equal(t, "123456789", byID.LegalID)

	clients, err := repo.ListClients(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "Alpha SPRL", clients[0].Name)
	assert.Equal(t, "Zeta SA", clients[1].Name)
}
