package testutil_test

import (
	"testing"

	"budgeting/internal/errors"
	"budgeting/internal/models"
	"budgeting/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	var count int64
	for _, table := range []string{"category_groups", "categories", "category_mappings", "wallets", "transactions", "budgets", "task_notes"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}

	for _, d := range models.Directions {
		cat := testutil.DefaultCategory(t, db, d)
		if !cat.IsDefault() || !cat.IsSystem() {
			t.Errorf("seeded %s category should be a system default, got code=%q user=%v", d, cat.Code, cat.UserID)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	a := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, a)
	b := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, b)

	testutil.CreateTestWallet(t, a, 1, testutil.Date(2024, 1, 1))

	var count int64
	b.Model(&models.Wallet{}).Count(&count)
	if count != 0 {
		t.Errorf("expected second database to be empty, got %d wallets", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	wallet := testutil.CreateTestWallet(t, db, 7, testutil.Date(2024, 3, 1))
	if wallet.ID == 0 || wallet.PlaidID == nil {
		t.Fatal("wallet should have an ID and a plaid id")
	}

	cat := testutil.CreateTestUserCategory(t, db, 7, models.DirectionExpense, "Coffee")
	if cat.IsSystem() {
		t.Error("user category should not be a system category")
	}

	tx := testutil.CreateTestTransaction(t, db, testutil.TxFixture{
		UserID:     7,
		WalletID:   &wallet.ID,
		CategoryID: &cat.ID,
		Direction:  models.DirectionExpense,
		Amount:     "12.50",
		At:         testutil.Date(2024, 3, 2),
	})
	if !tx.IsLinked() {
		t.Error("transaction with a wallet should be linked")
	}
	if tx.Amount.String() != "12.5" {
		t.Errorf("expected amount 12.5, got %s", tx.Amount)
	}
}

func TestAssertAppError(t *testing.T) {
	testutil.AssertAppError(t, errors.ErrWalletNotFound, "WALLET_NOT_FOUND")
	testutil.AssertAppError(t, errors.Wrap(errors.ErrInternalServer, nil), "INTERNAL_ERROR")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}

func TestAssertDecimal(t *testing.T) {
	testutil.AssertDecimal(t, "amount", testutil.Dec(t, "10.00"), "10")
}
