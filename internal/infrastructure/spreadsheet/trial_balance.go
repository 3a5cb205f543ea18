// Package spreadsheet renders ledger reports as XLSX workbooks.
package spreadsheet

import (
	"bytes"
	"fmt"

	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/xuri/excelize/v2"
)

// SheetTrialBalance is the name of the single sheet in a trial balance workbook
const SheetTrialBalance = "Trial balance"

const (
	titleRow  = 1
	headerRow = 3
	firstRow  = 4
)

var headers = []string{"Account", "Name", "Debit", "Credit", "Balance"}

// WorkbookRenderer writes trial balances with excelize
type WorkbookRenderer struct{}

// NewWorkbookRenderer creates a new WorkbookRenderer
func NewWorkbookRenderer() *WorkbookRenderer {
	return &WorkbookRenderer{}
}

// RenderTrialBalance lays out one row per account followed by a totals row
func (r *WorkbookRenderer) RenderTrialBalance(tb *ledger.TrialBalance, companyName string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetTrialBalance); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	sheet := SheetTrialBalance

	title := fmt.Sprintf("%s - trial balance at %s", companyName, tb.Cutoff.Format("2006-01-02"))
	if err := f.SetCellValue(sheet, cellName(1, titleRow), title); err != nil {
		return nil, err
	}
	for i, h := range headers {
		if err := f.SetCellValue(sheet, cellName(i+1, headerRow), h); err != nil {
			return nil, err
		}
	}

	row := firstRow
	for _, line := range tb.Accounts {
		values := []any{
			line.Code,
			line.Name,
			line.TotalDebit.InexactFloat64(),
			line.TotalCredit.InexactFloat64(),
			line.Balance.InexactFloat64(),
		}
		if err := f.SetSheetRow(sheet, cellName(1, row), &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
		row++
	}

	totals := []any{
		"Total",
		"",
		tb.TotalDebit.InexactFloat64(),
		tb.TotalCredit.InexactFloat64(),
		tb.Difference().InexactFloat64(),
	}
	if err := f.SetSheetRow(sheet, cellName(1, row), &totals); err != nil {
		return nil, fmt.Errorf("write totals: %w", err)
	}

	if err := applyStyles(f, sheet, row); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func applyStyles(f *excelize.File, sheet string, totalsRow int) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	amount := "#,##0.00"
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &amount})
	if err != nil {
		return err
	}
	boldMoney, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &amount})
	if err != nil {
		return err
	}

	last := len(headers)
	steps := []struct {
		from, to string
		style    int
	}{
		{cellName(1, titleRow), cellName(1, titleRow), bold},
		{cellName(1, headerRow), cellName(last, headerRow), bold},
		{cellName(3, firstRow), cellName(last, totalsRow), money},
		{cellName(1, totalsRow), cellName(2, totalsRow), bold},
		{cellName(3, totalsRow), cellName(last, totalsRow), boldMoney},
	}
	for _, s := range steps {
		if err := f.SetCellStyle(sheet, s.from, s.to, s.style); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "B", "B", 40); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "C", "E", 16)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

var _ appledger.WorkbookRenderer = (*WorkbookRenderer)(nil)
