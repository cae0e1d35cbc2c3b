package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"budgeting/internal/client"
	apperrors "budgeting/internal/errors"
	"budgeting/internal/logger"
	"budgeting/internal/models"
	"budgeting/internal/money"
)

type importOutcome int

const (
	outcomeCreated importOutcome = iota
	outcomeRecategorized
	outcomeUnchanged
)

// importService reconciles aggregator transactions into the ledger.
type importService struct {
	db        *gorm.DB
	directory AccountDirectory
	provider  TransactionProvider
}

// NewImportService creates a new ImportServicer.
func NewImportService(db *gorm.DB, directory AccountDirectory, provider TransactionProvider) ImportServicer {
	return &importService{db: db, directory: directory, provider: provider}
}

// ImportTransactions pulls the wallet's transactions for [from, to) and
// upserts them. A linked account that no longer exists removes the wallet
// and ends the import without an error. A record that fails to import is
// logged and skipped.
func (s *importService) ImportTransactions(ctx context.Context, wallet *models.Wallet, from, to time.Time) (*ImportResult, error) {
	if wallet.PlaidID == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "wallet is not linked")
	}
	log := logger.With("wallet_id", wallet.ID, "user_id", wallet.UserID)

	account, err := s.directory.GetPlaidAccount(ctx, *wallet.PlaidID)
	if err != nil {
		if errors.Is(err, client.ErrAccountNotFound) {
			if err := s.db.Delete(wallet).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			log.Infow("linked account is gone, wallet removed", "plaid_id", *wallet.PlaidID)
			return &ImportResult{WalletRemoved: true}, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrProviderUnavailable, fmt.Errorf("resolving plaid account: %w", err))
	}

	raws, err := s.provider.GetTransactions(ctx, account.AccessToken, from, to)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProviderUnavailable, fmt.Errorf("fetching transactions: %w", err))
	}

	resolver, err := LoadCategoryResolver(s.db)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Fetched: len(raws)}
	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome, err := s.importOne(wallet, resolver, raw)
		if err != nil {
			result.Skipped++
			log.Errorw("failed to import transaction", "error", err)
			continue
		}
		switch outcome {
		case outcomeCreated:
			result.Created++
		case outcomeRecategorized:
			result.Recategorized++
		default:
			result.Unchanged++
		}
	}
	return result, nil
}

func (s *importService) importOne(wallet *models.Wallet, resolver *CategoryResolver, raw client.RawTransaction) (importOutcome, error) {
	record, err := raw.Decode()
	if err != nil {
		return 0, err
	}
	postedAt, err := record.PostedAt()
	if err != nil {
		return 0, err
	}

	// The aggregator reports money leaving the account as positive.
	direction := models.DirectionExpense
	amount := record.Amount
	if amount.IsNegative() {
		direction = models.DirectionIncome
		amount = amount.Neg()
	}
	amount = money.Round(amount)

	category := resolver.Resolve(direction, record.Category)
	if category == nil {
		return 0, fmt.Errorf("no category for direction %s", direction)
	}

	var existing models.Transaction
	err = s.db.Where(
		"user_id = ? AND wallet_id = ? AND external_id = ? AND amount = ? AND currency = ? AND direction = ?",
		wallet.UserID, wallet.ID, record.TransactionID, amount, record.ISOCurrencyCode, direction,
	).First(&existing).Error
	switch {
	case err == nil:
		if existing.CategoryID != nil && *existing.CategoryID == category.ID {
			return outcomeUnchanged, nil
		}
		if err := s.db.Model(&existing).Update("category_id", category.ID).Error; err != nil {
			return 0, fmt.Errorf("recategorizing transaction %s: %w", record.TransactionID, err)
		}
		return outcomeRecategorized, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return 0, fmt.Errorf("looking up transaction %s: %w", record.TransactionID, err)
	}

	walletID := wallet.ID
	externalID := record.TransactionID
	transaction := &models.Transaction{
		UserID:        wallet.UserID,
		CategoryID:    &category.ID,
		CategoryText:  strings.Join(reversed(record.Category), ","),
		Direction:     direction,
		Amount:        amount,
		Currency:      record.ISOCurrencyCode,
		Note:          record.Name,
		WalletID:      &walletID,
		TransactionAt: postedAt,
		ExternalID:    &externalID,
		Detail:        string(raw),
	}
	if err := s.db.Create(transaction).Error; err != nil {
		return 0, fmt.Errorf("creating transaction %s: %w", record.TransactionID, err)
	}
	return outcomeCreated, nil
}

func reversed(tags []string) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[len(tags)-1-i] = t
	}
	return out
}
