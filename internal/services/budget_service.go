package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "budgeting/internal/errors"
	"budgeting/internal/models"
	"budgeting/internal/money"
)

// budgetService handles budgets and their evaluation.
type budgetService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db, now: time.Now}
}

// CreateBudget creates a budget for a category and wallet scope.
func (s *budgetService) CreateBudget(userID uint, input BudgetInput) (*BudgetDetail, error) {
	budget := &models.Budget{UserID: userID}
	if err := s.assign(budget, input); err != nil {
		return nil, err
	}
	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetBudget(userID, budget.ID)
}

// GetBudget retrieves and evaluates one budget of the user.
func (s *budgetService) GetBudget(userID, budgetID uint) (*BudgetDetail, error) {
	budget, err := s.find(userID, budgetID)
	if err != nil {
		return nil, err
	}
	detail, err := s.evaluate(budget, s.now())
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpdateBudget replaces the definition of a budget.
func (s *budgetService) UpdateBudget(userID, budgetID uint, input BudgetInput) (*BudgetDetail, error) {
	budget, err := s.find(userID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := s.assign(budget, input); err != nil {
		return nil, err
	}
	if err := s.db.Model(budget).Select("category_id", "wallet_id", "amount", "from_date", "to_date").Updates(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetBudget(userID, budgetID)
}

// DeleteBudget removes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID uint) error {
	budget, err := s.find(userID, budgetID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(&models.Budget{}, budget.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Evaluate returns the user's budgets with their current spend, newest
// first. The IsEnd and IsOver filters apply to the evaluated state.
func (s *budgetService) Evaluate(userID uint, filter BudgetFilter) ([]BudgetDetail, error) {
	q := s.db.Where("user_id = ?", userID)
	if filter.WalletID != nil {
		if *filter.WalletID == 0 {
			q = q.Where("wallet_id IS NULL")
		} else {
			q = q.Where("wallet_id = ?", *filter.WalletID)
		}
	}

	var budgets []models.Budget
	if err := q.Scopes(withBudgetRefs).Order("id DESC").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := s.now()
	details := make([]BudgetDetail, 0, len(budgets))
	for i := range budgets {
		detail, err := s.evaluate(&budgets[i], now)
		if err != nil {
			return nil, err
		}
		if filter.IsEnd != nil && detail.IsEnd != *filter.IsEnd {
			continue
		}
		if filter.IsOver != nil && detail.IsOver != *filter.IsOver {
			continue
		}
		details = append(details, detail)
	}
	return details, nil
}

// ListEndingBudgets returns every budget whose end date lies between the day
// of now-window and now.
func (s *budgetService) ListEndingBudgets(now time.Time, window time.Duration) ([]EndingBudget, error) {
	now = now.UTC()

	var budgets []models.Budget
	if err := s.db.Scopes(withBudgetRefs).
		Where("to_date >= ? AND to_date <= ?", startOfDay(now.Add(-window)), now).
		Order("id").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ending := make([]EndingBudget, 0, len(budgets))
	for i := range budgets {
		b := &budgets[i]
		walletID, walletName := budgetWallet(b)
		ending = append(ending, EndingBudget{
			UserID:       b.UserID,
			BudgetID:     b.ID,
			CategoryID:   b.CategoryID,
			CategoryName: b.Category.Name,
			WalletID:     walletID,
			WalletName:   walletName,
		})
	}
	return ending, nil
}

// evaluate sums the budget's category spend over [from_date, to_date+1day)
// in the budget's wallet scope.
func (s *budgetService) evaluate(b *models.Budget, now time.Time) (BudgetDetail, error) {
	scope := ManualOnly()
	if b.WalletID != nil {
		scope = SpecificWallet(*b.WalletID)
	}

	var spent decimal.NullDecimal
	err := scope.apply(ledger(s.db, b.UserID)).
		Select("SUM(transactions.amount)").
		Where("transactions.category_id = ?", b.CategoryID).
		Where("transactions.transaction_at >= ? AND transactions.transaction_at < ?", b.FromDate, b.ToDate.AddDate(0, 0, 1)).
		Row().Scan(&spent)
	if err != nil {
		return BudgetDetail{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	current := money.Round(money.OrZero(spent))

	walletID, walletName := budgetWallet(b)
	return BudgetDetail{
		ID:            b.ID,
		CategoryID:    b.CategoryID,
		CategoryName:  b.Category.Name,
		WalletID:      walletID,
		WalletName:    walletName,
		Amount:        money.Round(b.Amount),
		FromDate:      b.FromDate.Format(dateLayout),
		ToDate:        b.ToDate.Format(dateLayout),
		CurrentAmount: current,
		IsEnd:         !now.Before(b.ToDate.AddDate(0, 0, 1)),
		IsOver:        current.GreaterThan(b.Amount),
	}, nil
}

// assign validates input and copies it onto b.
func (s *budgetService) assign(b *models.Budget, input BudgetInput) error {
	if !input.Amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	from := startOfDay(input.FromDate)
	to := startOfDay(input.ToDate)
	if to.Before(from) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "to_date must not be before from_date")
	}

	var category models.Category
	if err := visibleCategories(s.db, b.UserID).Where("categories.id = ?", input.CategoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var walletID *uint
	if input.WalletID != 0 {
		var count int64
		if err := s.db.Model(&models.Wallet{}).Where("id = ? AND user_id = ?", input.WalletID, b.UserID).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return apperrors.ErrWalletNotFound
		}
		id := input.WalletID
		walletID = &id
	}

	b.CategoryID = category.ID
	b.WalletID = walletID
	b.Amount = money.Round(input.Amount)
	b.FromDate = from
	b.ToDate = to
	return nil
}

func (s *budgetService) find(userID, budgetID uint) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Scopes(withBudgetRefs).Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// withBudgetRefs preloads the category and wallet of a budget, including
// soft-deleted ones so their names still show.
func withBudgetRefs(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Wallet", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
}

func budgetWallet(b *models.Budget) (uint, string) {
	if b.WalletID == nil {
		return 0, manualWalletName
	}
	if b.Wallet == nil {
		return *b.WalletID, ""
	}
	return *b.WalletID, b.Wallet.Name
}
