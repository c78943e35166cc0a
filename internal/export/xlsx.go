// Package export writes structured extraction results to spreadsheet files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/slipsense/slipsense/internal/models"
)

const sheetName = "Transfers"

var headerRow = []string{
	"ID", "Date", "Amount", "Recipient", "Recipient (Latin)",
	"Sender Account", "Receiver Account", "Memo",
	"Parser", "Status", "Error", "Pattern Success Rate",
	"Source", "Processed At",
}

// XLSXWriter appends extraction results to a workbook on disk. The workbook
// is created with a header row on first use and reopened for each append, so
// concurrent writers must serialize externally.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter prepares a writer targeting the given workbook path. Parent
// directories are created as needed.
func NewXLSXWriter(path string) (*XLSXWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("export path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &XLSXWriter{path: path}, nil
}

// Path returns the workbook location.
func (w *XLSXWriter) Path() string { return w.path }

// Append writes one result as a new row at the bottom of the sheet.
func (w *XLSXWriter) Append(result *models.BankSlipData) error {
	if result == nil {
		return fmt.Errorf("nil result")
	}

	f, created, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	next := len(rows) + 1

	cell, err := excelize.CoordinatesToCellName(1, next)
	if err != nil {
		return fmt.Errorf("failed to compute row coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheetName, cell, &[]interface{}{
		result.ID,
		formatDate(result.TransactionDate),
		result.Amount,
		result.RecipientName,
		result.RecipientNameLatin,
		result.SenderAccount,
		result.ReceiverAccount,
		result.Memo,
		result.ParserName,
		string(result.Status),
		result.ErrorReason,
		result.PatternSuccessRate,
		result.SourcePath,
		result.ProcessedAt.Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}

	if created {
		return f.SaveAs(w.path)
	}
	return f.Save()
}

func (w *XLSXWriter) open() (f *excelize.File, created bool, err error) {
	if _, statErr := os.Stat(w.path); statErr == nil {
		f, err = excelize.OpenFile(w.path)
		if err != nil {
			return nil, false, fmt.Errorf("failed to open workbook: %w", err)
		}
		return f, false, nil
	}

	f = excelize.NewFile()
	if _, err := f.NewSheet(sheetName); err != nil {
		f.Close()
		return nil, false, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, false, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		f.Close()
		return nil, false, fmt.Errorf("failed to write header: %w", err)
	}
	return f, true, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
