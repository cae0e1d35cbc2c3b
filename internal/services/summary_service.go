package services

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "budgeting/internal/errors"
	"budgeting/internal/models"
	"budgeting/internal/money"
)

// Wallet balance row types besides linked wallets.
const (
	WalletTypeTotal = "total"
	totalWalletName = "Total"
)

// summaryService computes read-side rollups of the ledger.
type summaryService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSummaryService creates a new SummaryServicer.
func NewSummaryService(db *gorm.DB) SummaryServicer {
	return &summaryService{db: db, now: time.Now}
}

type splitRow struct {
	Bucket  string
	Income  decimal.NullDecimal
	Expense decimal.NullDecimal
}

// incomeExpense selects the income and expense sums of the current query.
func incomeExpense(prefix string) (string, []interface{}) {
	return prefix + "SUM(CASE WHEN transactions.direction = ? THEN transactions.amount ELSE 0 END) AS income, " +
			"SUM(CASE WHEN transactions.direction = ? THEN transactions.amount ELSE 0 END) AS expense",
		[]interface{}{models.DirectionIncome, models.DirectionExpense}
}

// ByDay returns income and expense per calendar day of a month. Days
// without transactions are omitted.
func (s *summaryService) ByDay(userID uint, month string, scope WalletScope) ([]DayTotal, error) {
	period, err := ParsePeriod(PeriodMonth, month)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	buckets := bucketsFor(s.db)
	sel, args := incomeExpense(buckets.day + " AS bucket, ")

	var rows []splitRow
	err = scope.apply(ledger(s.db, userID)).
		Select(sel, args...).
		Where("transactions.transaction_at >= ? AND transactions.transaction_at < ?", period.Start, period.End).
		Group("bucket").
		Order("bucket").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	days := make([]DayTotal, 0, len(rows))
	for _, r := range rows {
		days = append(days, DayTotal{
			TransactionAt: r.Bucket,
			IncomeAmount:  money.Round(money.OrZero(r.Income)),
			ExpenseAmount: money.Round(money.OrZero(r.Expense)),
		})
	}
	return days, nil
}

// PeriodSummary returns the income, expense and running balance of a period.
// PreviousBalance is the net of everything before the period starts.
func (s *summaryService) PeriodSummary(userID uint, period Period, scope WalletScope) (*PeriodSummary, error) {
	var row struct {
		Income   decimal.NullDecimal
		Expense  decimal.NullDecimal
		Previous decimal.NullDecimal
	}
	err := scope.apply(ledger(s.db, userID)).
		Select(
			"SUM(CASE WHEN transactions.transaction_at >= ? AND transactions.direction = ? THEN transactions.amount ELSE 0 END) AS income, "+
				"SUM(CASE WHEN transactions.transaction_at >= ? AND transactions.direction = ? THEN transactions.amount ELSE 0 END) AS expense, "+
				"SUM(CASE WHEN transactions.transaction_at < ? THEN "+
				"CASE WHEN transactions.direction = ? THEN transactions.amount ELSE -transactions.amount END "+
				"ELSE 0 END) AS previous",
			period.Start, models.DirectionIncome,
			period.Start, models.DirectionExpense,
			period.Start, models.DirectionIncome,
		).
		Where("transactions.transaction_at < ?", period.End).
		Scan(&row).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	income := money.Round(money.OrZero(row.Income))
	expense := money.Round(money.OrZero(row.Expense))
	previous := money.Round(money.OrZero(row.Previous))
	current := income.Sub(expense)

	return &PeriodSummary{
		Type:            period.Type,
		Range:           period.Range,
		Income:          income,
		Expense:         expense,
		CurrentBalance:  current,
		PreviousBalance: previous,
		Balance:         previous.Add(current),
	}, nil
}

// ByCategory returns the totals per category of one direction in a period,
// largest first. Uncategorized rows count towards the default category.
func (s *summaryService) ByCategory(userID uint, period Period, direction models.Direction, scope WalletScope) ([]CategoryTotal, error) {
	if !direction.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "direction must be income or expense")
	}
	def, err := findDefaultCategory(s.db, direction)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		CategoryID sql.NullInt64
		Amount     decimal.NullDecimal
	}
	err = scope.apply(ledger(s.db, userID)).
		Select("transactions.category_id AS category_id, SUM(transactions.amount) AS amount").
		Where("transactions.direction = ?", direction).
		Where("transactions.transaction_at >= ? AND transactions.transaction_at < ?", period.Start, period.End).
		Group("transactions.category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := make(map[uint]decimal.Decimal, len(rows))
	var order []uint
	for _, r := range rows {
		id := def.ID
		if r.CategoryID.Valid {
			id = uint(r.CategoryID.Int64)
		}
		if _, ok := totals[id]; !ok {
			order = append(order, id)
		}
		totals[id] = totals[id].Add(money.OrZero(r.Amount))
	}
	if len(order) == 0 {
		return []CategoryTotal{}, nil
	}

	var categories []models.Category
	if err := s.db.Unscoped().Where("id IN ?", order).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	byID := make(map[uint]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	result := make([]CategoryTotal, 0, len(order))
	for _, id := range order {
		c := byID[id]
		result = append(result, CategoryTotal{
			CategoryID:   id,
			CategoryCode: c.Code,
			CategoryName: c.Name,
			Amount:       money.Round(totals[id]),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		if cmp := result[i].Amount.Cmp(result[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return result[i].CategoryID < result[j].CategoryID
	})
	return result, nil
}

// maxTrendMonths bounds the series CategoryTrend returns.
const maxTrendMonths = 120

// CategoryTrend returns one row per month in [fromMonth, toMonth] for a
// category, with zero for months without activity. Missing bounds default to
// the category's first and last month, or the current month. An explicit
// range longer than maxTrendMonths is rejected; a derived one keeps its last
// maxTrendMonths months.
func (s *summaryService) CategoryTrend(userID, categoryID uint, fromMonth, toMonth string, scope WalletScope) ([]MonthTotal, error) {
	var category models.Category
	if err := visibleCategories(s.db, userID).Where("categories.id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	base, err := filterTransactions(s.db, userID, TransactionFilter{Scope: scope, CategoryID: &category.ID})
	if err != nil {
		return nil, err
	}
	buckets := bucketsFor(s.db)

	explicitFrom := fromMonth != ""
	if fromMonth == "" || toMonth == "" {
		var bounds struct {
			FirstMonth sql.NullString
			LastMonth  sql.NullString
		}
		err := base.Select(fmt.Sprintf("MIN(%s) AS first_month, MAX(%s) AS last_month", buckets.month, buckets.month)).
			Scan(&bounds).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		current := startOfDay(s.now()).Format(monthLayout)
		if fromMonth == "" {
			fromMonth = current
			if bounds.FirstMonth.Valid {
				fromMonth = bounds.FirstMonth.String
			}
		}
		if toMonth == "" {
			toMonth = current
			if bounds.LastMonth.Valid {
				toMonth = bounds.LastMonth.String
			}
		}
	}

	from, err := time.Parse(monthLayout, fromMonth)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "from_month must be YYYY-MM")
	}
	to, err := time.Parse(monthLayout, toMonth)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "to_month must be YYYY-MM")
	}
	if to.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "to_month must not be before from_month")
	}
	if monthsBetween(from, to) >= maxTrendMonths {
		if explicitFrom {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
				fmt.Sprintf("month range must not exceed %d months", maxTrendMonths))
		}
		from = to.AddDate(0, -(maxTrendMonths - 1), 0)
	}

	var rows []struct {
		Bucket string
		Amount decimal.NullDecimal
	}
	err = base.Select(buckets.month+" AS bucket, SUM(transactions.amount) AS amount").
		Where("transactions.transaction_at >= ? AND transactions.transaction_at < ?", from, to.AddDate(0, 1, 0)).
		Group("bucket").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	amounts := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		amounts[r.Bucket] = money.OrZero(r.Amount)
	}

	months := monthSeries(from, to)
	result := make([]MonthTotal, 0, len(months))
	for _, m := range months {
		result = append(result, MonthTotal{Month: m, Amount: money.Round(amounts[m])})
	}
	return result, nil
}

// WalletBalances returns the all-time balance of every live wallet, preceded
// by the total and manual pseudo-wallet rows.
func (s *summaryService) WalletBalances(userID uint) ([]WalletBalance, error) {
	sel, args := incomeExpense("transactions.wallet_id AS wallet_id, ")
	var rows []struct {
		WalletID sql.NullInt64
		Income   decimal.NullDecimal
		Expense  decimal.NullDecimal
	}
	if err := ledger(s.db, userID).
		Select(sel, args...).
		Group("transactions.wallet_id").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var wallets []models.Wallet
	if err := s.db.Where("user_id = ?", userID).Order("id").Find(&wallets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := WalletBalance{WalletID: 0, WalletName: totalWalletName, Type: WalletTypeTotal}
	manual := WalletBalance{WalletID: 0, WalletName: manualWalletName, Type: WalletTypeManual}
	linked := make(map[uint]*WalletBalance, len(wallets))
	result := make([]WalletBalance, 0, len(wallets)+2)
	for _, w := range wallets {
		linked[w.ID] = &WalletBalance{WalletID: w.ID, WalletName: w.Name, Type: WalletTypeLinked}
	}

	for _, r := range rows {
		income := money.OrZero(r.Income)
		expense := money.OrZero(r.Expense)
		total.Income = total.Income.Add(income)
		total.Expense = total.Expense.Add(expense)

		target := &manual
		if r.WalletID.Valid {
			w, ok := linked[uint(r.WalletID.Int64)]
			if !ok {
				continue
			}
			target = w
		}
		target.Income = target.Income.Add(income)
		target.Expense = target.Expense.Add(expense)
	}

	result = append(result, finishBalance(total), finishBalance(manual))
	for _, w := range wallets {
		result = append(result, finishBalance(*linked[w.ID]))
	}
	return result, nil
}

func finishBalance(b WalletBalance) WalletBalance {
	b.Income = money.Round(b.Income)
	b.Expense = money.Round(b.Expense)
	b.Balance = b.Income.Sub(b.Expense)
	return b
}
