package services

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	apperrors "budgeting/internal/errors"
	"budgeting/internal/models"
)

const exportSheet = "Transactions"

var exportHeaders = []string{"Date", "Direction", "Category", "Amount", "Currency", "Wallet", "Note"}

// exportService writes ledger exports.
type exportService struct {
	db *gorm.DB
}

// NewExportService creates a new ExportServicer.
func NewExportService(db *gorm.DB) ExportServicer {
	return &exportService{db: db}
}

// ExportTransactions writes the filtered ledger to w as an XLSX workbook, newest first.
func (s *exportService) ExportTransactions(userID uint, filter TransactionFilter, w io.Writer) error {
	q, err := filterTransactions(s.db, userID, filter)
	if err != nil {
		return err
	}

	var transactions []models.Transaction
	if err := q.Preload("Category").Preload("Wallet").
		Order("transactions.transaction_at DESC, transactions.id DESC").
		Find(&transactions).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	defaults, err := loadDefaultCategories(s.db)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range transactions {
		t := &transactions[i]
		view := newTransactionView(t, defaults)

		wallet := manualWalletName
		if t.Wallet != nil {
			wallet = t.Wallet.Name
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		row := []interface{}{
			t.TransactionAt.Format(dateLayout),
			string(t.Direction),
			view.CategoryName,
			view.Amount.InexactFloat64(),
			t.Currency,
			wallet,
			t.Note,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	widths := map[string]float64{"A": 12, "B": 10, "C": 20, "D": 12, "E": 10, "F": 20, "G": 40}
	for col, width := range widths {
		if err := f.SetColWidth(exportSheet, col, col, width); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// ExportFileName is the download name of an export taken on the given date.
func ExportFileName(date string) string {
	return fmt.Sprintf("transactions_%s.xlsx", date)
}
