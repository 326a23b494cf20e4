// Package export renders account statements as spreadsheets.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/bibbank/lenderledger/internal/domain/model"
	"github.com/bibbank/lenderledger/internal/domain/port"
)

const (
	sheetName   = "Statement"
	headerRow   = 5
	dateLayout  = "2006-01-02"
	// Built-in excelize number format 4 is "#,##0.00".
	moneyFormat = 4
)

var columns = []string{"Date", "Title", "Type", "Category", "Value", "Signed value", "Description", "Reference"}

// XLSXRenderer implements port.StatementRenderer with excelize.
type XLSXRenderer struct{}

// NewXLSXRenderer creates a spreadsheet statement renderer.
func NewXLSXRenderer() *XLSXRenderer { return &XLSXRenderer{} }

// ContentType is the MIME type of the rendered document.
func (XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileExtension is the extension of the rendered document.
func (XLSXRenderer) FileExtension() string { return "xlsx" }

// Render writes a summary block for the account followed by one row per
// transaction, in the order given.
func (XLSXRenderer) Render(account model.Account, txs []model.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: moneyFormat})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	summary := [][]any{
		{"Account", account.Name()},
		{"Balance", account.Balance().InexactFloat64()},
		{"Profit", account.Profit().InexactFloat64()},
	}
	for i, row := range summary {
		if err := setRow(f, i+1, row); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(sheetName, "B2", "B3", money); err != nil {
		return nil, fmt.Errorf("style summary: %w", err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := setRow(f, headerRow, header); err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), headerRow)
	if err := f.SetCellStyle(sheetName, "A5", last, bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, tx := range txs {
		row := headerRow + 1 + i
		if err := setRow(f, row, []any{
			tx.Date().Format(dateLayout),
			tx.Title(),
			tx.Type().String(),
			tx.Category().String(),
			tx.Value().InexactFloat64(),
			tx.SignedValue().InexactFloat64(),
			tx.Description(),
			tx.ExternalReference(),
		}); err != nil {
			return nil, err
		}
	}
	if len(txs) > 0 {
		from, _ := excelize.CoordinatesToCellName(5, headerRow+1)
		to, _ := excelize.CoordinatesToCellName(6, headerRow+len(txs))
		if err := f.SetCellStyle(sheetName, from, to, money); err != nil {
			return nil, fmt.Errorf("style values: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write statement: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

var _ port.StatementRenderer = XLSXRenderer{}
