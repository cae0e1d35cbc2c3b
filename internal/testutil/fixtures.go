package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"budgeting/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Dec parses a decimal literal, failing the test on bad input.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", s, err)
	}
	return d
}

// DefaultCategory loads the seeded "others" category of a direction.
func DefaultCategory(t *testing.T, db *gorm.DB, direction models.Direction) *models.Category {
	t.Helper()

	var cat models.Category
	if err := db.Where("code = ? AND direction = ? AND user_id IS NULL", models.CategoryCodeOthers, direction).
		First(&cat).Error; err != nil {
		t.Fatalf("failed to load default %s category: %v", direction, err)
	}
	return &cat
}

// CreateTestGroup creates a category group.
func CreateTestGroup(t *testing.T, db *gorm.DB, name string) *models.CategoryGroup {
	t.Helper()

	group := &models.CategoryGroup{Name: name, Order: int(nextID())}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// CreateTestSystemCategory creates a category shared by all users.
func CreateTestSystemCategory(t *testing.T, db *gorm.DB, direction models.Direction, name string) *models.Category {
	t.Helper()

	cat := &models.Category{
		Name:      name,
		Code:      fmt.Sprintf("system_%d", nextID()),
		Direction: direction,
	}
	if err := db.Create(cat).Error; err != nil {
		t.Fatalf("failed to create test system category: %v", err)
	}
	return cat
}

// CreateTestUserCategory creates a category owned by userID.
func CreateTestUserCategory(t *testing.T, db *gorm.DB, userID uint, direction models.Direction, name string) *models.Category {
	t.Helper()

	cat := &models.Category{
		Name:      name,
		Code:      models.CategoryCodeManual,
		Direction: direction,
		UserID:    &userID,
	}
	if err := db.Create(cat).Error; err != nil {
		t.Fatalf("failed to create test user category: %v", err)
	}
	return cat
}

// CreateTestMapping maps an aggregator label to a category.
func CreateTestMapping(t *testing.T, db *gorm.DB, label string, categoryID uint) *models.CategoryMapping {
	t.Helper()

	m := &models.CategoryMapping{Name: label, CategoryID: categoryID}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("failed to create test mapping: %v", err)
	}
	return m
}

// CreateTestWallet creates a linked wallet with a unique plaid id.
func CreateTestWallet(t *testing.T, db *gorm.DB, userID uint, lastImport time.Time) *models.Wallet {
	t.Helper()
	return CreateTestWalletWithPlaidID(t, db, userID, fmt.Sprintf("plaid-%d", nextID()), lastImport)
}

// CreateTestWalletWithPlaidID creates a linked wallet for the given plaid id.
func CreateTestWalletWithPlaidID(t *testing.T, db *gorm.DB, userID uint, plaidID string, lastImport time.Time) *models.Wallet {
	t.Helper()

	wallet := &models.Wallet{
		UserID:     userID,
		Name:       "Test Bank",
		SubName:    "checking",
		PlaidID:    &plaidID,
		LastImport: lastImport,
	}
	if err := db.Create(wallet).Error; err != nil {
		t.Fatalf("failed to create test wallet: %v", err)
	}
	return wallet
}

// TxFixture describes a transaction row to insert directly.
type TxFixture struct {
	UserID     uint
	WalletID   *uint
	CategoryID *uint
	Direction  models.Direction
	Amount     string
	Currency   string
	At         time.Time
	ExternalID *string
	Note       string
}

// CreateTestTransaction inserts a transaction row.
func CreateTestTransaction(t *testing.T, db *gorm.DB, f TxFixture) *models.Transaction {
	t.Helper()

	if f.Currency == "" {
		f.Currency = "USD"
	}
	tx := &models.Transaction{
		UserID:        f.UserID,
		CategoryID:    f.CategoryID,
		Direction:     f.Direction,
		Amount:        Dec(t, f.Amount),
		Currency:      f.Currency,
		Note:          f.Note,
		WalletID:      f.WalletID,
		TransactionAt: f.At,
		ExternalID:    f.ExternalID,
		Detail:        "{}",
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates a budget. A nil walletID scopes it to manual transactions.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, categoryID uint, walletID *uint, amount string, from, to time.Time) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		WalletID:   walletID,
		Amount:     Dec(t, amount),
		FromDate:   from,
		ToDate:     to,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// UintPtr returns a pointer to v.
func UintPtr(v uint) *uint { return &v }

// StrPtr returns a pointer to v.
func StrPtr(v string) *string { return &v }
