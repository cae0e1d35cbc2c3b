package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"budgeting/internal/client"
	apperrors "budgeting/internal/errors"
	"budgeting/internal/logger"
	"budgeting/internal/models"
)

// manualWalletName is the display name of the manual pseudo-wallet.
const manualWalletName = "Manual Wallet"

// walletService handles linked wallets.
type walletService struct {
	db        *gorm.DB
	directory AccountDirectory
	now       func() time.Time
}

// NewWalletService creates a new WalletServicer.
func NewWalletService(db *gorm.DB, directory AccountDirectory) WalletServicer {
	return &walletService{db: db, directory: directory, now: time.Now}
}

// LinkWallet links the aggregator account plaidID to the user. Relinking an
// account reuses its wallet row: a soft-deleted wallet is restored with a
// fresh watermark instead of being duplicated.
func (s *walletService) LinkWallet(ctx context.Context, userID uint, plaidID string) (*models.Wallet, error) {
	plaidID = strings.TrimSpace(plaidID)
	if plaidID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "plaid_id is required")
	}

	account, err := s.directory.GetPlaidAccount(ctx, plaidID)
	if err != nil {
		if errors.Is(err, client.ErrAccountNotFound) {
			return nil, apperrors.ErrInvalidPlaidID
		}
		logger.Get().Errorw("failed to resolve plaid account", "plaid_id", plaidID, "error", err)
		return nil, apperrors.Wrap(apperrors.ErrProviderUnavailable, err)
	}

	today := startOfDay(s.now())

	var wallet models.Wallet
	err = s.db.Unscoped().Where("user_id = ? AND plaid_id = ?", userID, plaidID).First(&wallet).Error
	switch {
	case err == nil:
		if wallet.DeletedAt.Valid {
			if err := s.db.Unscoped().Model(&wallet).Updates(map[string]interface{}{
				"deleted_at":  nil,
				"last_import": today,
			}).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			wallet.DeletedAt = gorm.DeletedAt{}
			wallet.LastImport = today
		}
		return &wallet, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	wallet = models.Wallet{
		UserID:     userID,
		Name:       account.InstitutionName,
		SubName:    account.AccountSubtype,
		PlaidID:    &plaidID,
		LastImport: firstOfMonth.AddDate(0, -1, 0),
	}
	if err := s.db.Create(&wallet).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &wallet, nil
}

// ListWallets returns the manual pseudo-wallet followed by the user's
// linked wallets, newest first.
func (s *walletService) ListWallets(userID uint) ([]WalletView, error) {
	var wallets []models.Wallet
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&wallets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := make([]WalletView, 0, len(wallets)+1)
	views = append(views, WalletView{ID: 0, Name: manualWalletName, Type: WalletTypeManual})
	for i := range wallets {
		w := &wallets[i]
		lastImport := w.LastImport
		views = append(views, WalletView{
			ID:         w.ID,
			Name:       w.Name,
			SubName:    w.SubName,
			PlaidID:    w.PlaidID,
			Type:       WalletTypeLinked,
			LastImport: &lastImport,
			Error:      w.Error,
		})
	}
	return views, nil
}

// GetWallet retrieves one of the user's live wallets.
func (s *walletService) GetWallet(userID, walletID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.db.Where("id = ? AND user_id = ?", walletID, userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &wallet, nil
}

// DeleteWallet soft-deletes a wallet. Its transactions stay in place and
// reappear if the account is linked again.
func (s *walletService) DeleteWallet(userID, walletID uint) error {
	wallet, err := s.GetWallet(userID, walletID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(wallet).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ListImportableWallets returns up to limit linked wallets whose watermark is before today.
func (s *walletService) ListImportableWallets(today time.Time, limit int) ([]models.Wallet, error) {
	var wallets []models.Wallet
	q := s.db.Where("plaid_id IS NOT NULL AND last_import < ?", startOfDay(today)).Order("last_import, id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&wallets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return wallets, nil
}

// MarkImported advances the watermark and clears any recorded error.
func (s *walletService) MarkImported(walletID uint, today time.Time) error {
	err := s.db.Model(&models.Wallet{}).Where("id = ?", walletID).Updates(map[string]interface{}{
		"last_import":   startOfDay(today),
		"error":         nil,
		"error_details": nil,
		"error_at":      nil,
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// MarkFailed records an import failure and leaves the watermark untouched.
func (s *walletService) MarkFailed(walletID uint, cause error, at time.Time) error {
	summary := cause.Error()
	details := errorChain(cause)
	err := s.db.Model(&models.Wallet{}).Where("id = ?", walletID).Updates(map[string]interface{}{
		"error":         summary,
		"error_details": details,
		"error_at":      at.UTC(),
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// errorChain renders each error of an unwrap chain on its own line.
func errorChain(err error) string {
	var lines []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		lines = append(lines, e.Error())
	}
	return strings.Join(lines, "\n")
}
