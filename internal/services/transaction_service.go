package services

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "budgeting/internal/errors"
	"budgeting/internal/models"
	"budgeting/internal/money"
	"budgeting/internal/pagination"
)

const defaultCurrency = "USD"

// transactionService handles the transaction ledger.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// transactionDetail is the part of Transaction.Detail exposed in views.
type transactionDetail struct {
	Location     json.RawMessage `json:"location,omitempty"`
	LocationName *string         `json:"location_name,omitempty"`
}

// ListTransactions retrieves a filtered, paginated page of the user's ledger, newest first.
func (s *transactionService) ListTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[TransactionView], error) {
	page = page.Normalize()

	base, err := filterTransactions(s.db, userID, filter)
	if err != nil {
		return nil, err
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").
		Scopes(pagination.Scope(page)).
		Order("transactions.transaction_at DESC, transactions.id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views, err := s.views(transactions)
	if err != nil {
		return nil, err
	}

	return pagination.NewPageResponse(views, page, totalItems), nil
}

// filterTransactions builds the ledger query for a filter. Filtering by a
// default category also matches uncategorized rows of its direction.
func filterTransactions(db *gorm.DB, userID uint, f TransactionFilter) (*gorm.DB, error) {
	q := f.Scope.apply(ledger(db, userID))

	if f.CategoryID != nil {
		var cat models.Category
		err := visibleCategories(db, userID).Where("categories.id = ?", *f.CategoryID).First(&cat).Error
		switch {
		case err == nil && cat.IsDefault():
			q = q.Where("(transactions.category_id = ? OR transactions.category_id IS NULL) AND transactions.direction = ?", cat.ID, cat.Direction)
		case err == nil || errors.Is(err, gorm.ErrRecordNotFound):
			q = q.Where("transactions.category_id = ?", *f.CategoryID)
		default:
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if len(f.Directions) > 0 {
		q = q.Where("transactions.direction IN ?", f.Directions)
	}
	if f.Amount != nil {
		q = q.Where("transactions.amount = ?", *f.Amount)
	}
	if f.AmountGt != nil {
		q = q.Where("transactions.amount > ?", *f.AmountGt)
	}
	if f.AmountGte != nil {
		q = q.Where("transactions.amount >= ?", *f.AmountGte)
	}
	if f.AmountLt != nil {
		q = q.Where("transactions.amount < ?", *f.AmountLt)
	}
	if f.AmountLte != nil {
		q = q.Where("transactions.amount <= ?", *f.AmountLte)
	}
	if f.FromDate != nil {
		q = q.Where("transactions.transaction_at >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("transactions.transaction_at < ?", *f.ToDate)
	}
	return q.Session(&gorm.Session{}), nil
}

// GetTransaction retrieves one transaction of the user.
func (s *transactionService) GetTransaction(userID, transactionID uint) (*TransactionView, error) {
	transaction, err := s.find(userID, transactionID)
	if err != nil {
		return nil, err
	}
	return s.view(transaction)
}

// CreateTransaction records a manual transaction.
func (s *transactionService) CreateTransaction(userID uint, input TransactionInput) (*TransactionView, error) {
	if !input.Direction.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "direction must be income or expense")
	}
	if input.Amount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be negative")
	}

	category, err := s.categoryFor(userID, input.CategoryID, input.Direction)
	if err != nil {
		return nil, err
	}

	detail, err := json.Marshal(transactionDetail{Location: input.Location, LocationName: input.LocationName})
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "location is not valid JSON")
	}

	at := time.Now().UTC()
	if input.TransactionAt != nil {
		at = input.TransactionAt.UTC()
	}

	transaction := &models.Transaction{
		UserID:        userID,
		CategoryID:    &category.ID,
		Direction:     input.Direction,
		Amount:        money.Round(input.Amount),
		Currency:      normalizeCurrency(input.Currency),
		Note:          input.Note,
		TransactionAt: at,
		Detail:        string(detail),
	}
	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	transaction.Category = category
	return s.view(transaction)
}

// UpdateTransaction changes a transaction. Imported transactions only take a
// new category or note; their financial fields are left as they are.
func (s *transactionService) UpdateTransaction(userID, transactionID uint, input TransactionUpdate) (*TransactionView, error) {
	transaction, err := s.find(userID, transactionID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	direction := transaction.Direction

	if !transaction.IsLinked() {
		if input.Direction != nil {
			if !input.Direction.Valid() {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "direction must be income or expense")
			}
			direction = *input.Direction
			updates["direction"] = direction
		}
		if input.Amount != nil {
			if input.Amount.IsNegative() {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be negative")
			}
			updates["amount"] = money.Round(*input.Amount)
		}
		if input.Currency != nil {
			updates["currency"] = normalizeCurrency(*input.Currency)
		}
		if input.TransactionAt != nil {
			updates["transaction_at"] = input.TransactionAt.UTC()
		}
	}

	switch {
	case input.CategoryID != nil:
		category, err := s.categoryFor(userID, input.CategoryID, direction)
		if err != nil {
			return nil, err
		}
		updates["category_id"] = category.ID
	case direction != transaction.Direction:
		// The old category belongs to the other direction.
		category, err := s.categoryFor(userID, nil, direction)
		if err != nil {
			return nil, err
		}
		updates["category_id"] = category.ID
	}
	if input.Note != nil {
		updates["note"] = *input.Note
	}

	if len(updates) > 0 {
		if err := s.db.Model(transaction).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetTransaction(userID, transactionID)
}

// DeleteTransaction removes a manual transaction. Deleting an imported
// transaction is accepted and does nothing.
func (s *transactionService) DeleteTransaction(userID, transactionID uint) error {
	transaction, err := s.find(userID, transactionID)
	if err != nil {
		return err
	}
	if transaction.IsLinked() {
		return nil
	}
	if err := s.db.Delete(&models.Transaction{}, transaction.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *transactionService) find(userID, transactionID uint) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := ledger(s.db, userID).
		Preload("Category").
		Where("transactions.id = ?", transactionID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// categoryFor returns the requested category, or the direction's default
// when none is given. The category must be visible to the user and share the
// transaction's direction.
func (s *transactionService) categoryFor(userID uint, categoryID *uint, direction models.Direction) (*models.Category, error) {
	if categoryID == nil {
		return findDefaultCategory(s.db, direction)
	}

	var category models.Category
	if err := visibleCategories(s.db, userID).Where("categories.id = ?", *categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if category.Direction != direction {
		return nil, apperrors.ErrCategoryDirectionMismatch
	}
	return &category, nil
}

func (s *transactionService) view(t *models.Transaction) (*TransactionView, error) {
	views, err := s.views([]models.Transaction{*t})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *transactionService) views(transactions []models.Transaction) ([]TransactionView, error) {
	defaults, err := loadDefaultCategories(s.db)
	if err != nil {
		return nil, err
	}
	views := make([]TransactionView, 0, len(transactions))
	for i := range transactions {
		views = append(views, newTransactionView(&transactions[i], defaults))
	}
	return views, nil
}

func loadDefaultCategories(db *gorm.DB) (map[models.Direction]*models.Category, error) {
	defaults := make(map[models.Direction]*models.Category, len(models.Directions))
	for _, d := range models.Directions {
		cat, err := findDefaultCategory(db, d)
		if err != nil {
			return nil, err
		}
		defaults[d] = cat
	}
	return defaults, nil
}

// newTransactionView renders a ledger row. Uncategorized rows report the
// default category of their direction and manual rows report wallet 0.
func newTransactionView(t *models.Transaction, defaults map[models.Direction]*models.Category) TransactionView {
	v := TransactionView{
		ID:            t.ID,
		TransactionAt: t.TransactionAt,
		CategoryText:  t.CategoryText,
		Direction:     t.Direction,
		Amount:        money.Round(t.Amount),
		Currency:      t.Currency,
		Note:          t.Note,
	}
	if t.WalletID != nil {
		v.WalletID = *t.WalletID
	}

	cat := t.Category
	if cat == nil {
		cat = defaults[t.Direction]
	}
	if cat != nil {
		v.Category = cat.ID
		v.CategoryName = cat.Name
		v.CategoryCode = cat.Code
	}

	var detail transactionDetail
	if t.Detail != "" && json.Unmarshal([]byte(t.Detail), &detail) == nil {
		if len(detail.Location) > 0 && string(detail.Location) != "null" {
			v.Location = detail.Location
		}
		v.LocationName = detail.LocationName
	}
	return v
}

func normalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return defaultCurrency
	}
	return code
}
