package services

import (
	"context"
	"errors"
	"testing"

	"budgeting/internal/models"
	"budgeting/internal/testutil"
)

func TestImportTransactions(t *testing.T) {
	from, to := testutil.Date(2024, 3, 1), testutil.Date(2024, 3, 15)

	t.Run("sign_inversion_and_default_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		wallet := testutil.CreateTestWalletWithPlaidID(t, db, 1, "p1", from)
		provider := newFakeProvider()
		provider.add("access-p1",
			plaidRecord("t1", -100.25, "2024-03-02", "Travel"),
			plaidRecord("t2", 45.5, "2024-03-03", "Travel"),
		)
		svc := NewImportService(db, newFakeDirectory("p1"), provider)

		res, err := svc.ImportTransactions(context.Background(), wallet, from, to)
		testutil.AssertNoError(t, err)
		if res.Created != 2 || res.Fetched != 2 {
			t.Fatalf("expected 2 created, got %+v", res)
		}

		var txs []models.Transaction
		db.Order("external_id").Find(&txs)
		if len(txs) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(txs))
		}

		income, expense := txs[0], txs[1]
		if income.Direction != models.DirectionIncome || income.Amount.String() != "100.25" {
			t.Errorf("negative provider amount should be income 100.25, got %s %s", income.Direction, income.Amount)
		}
		if expense.Direction != models.DirectionExpense || expense.Amount.String() != "45.5" {
			t.Errorf("positive provider amount should be expense 45.5, got %s %s", expense.Direction, expense.Amount)
		}
		for _, tx := range txs {
			def := testutil.DefaultCategory(t, db, tx.Direction)
			if tx.CategoryID == nil || *tx.CategoryID != def.ID {
				t.Errorf("%s: expected default %s category", *tx.ExternalID, tx.Direction)
			}
			if tx.WalletID == nil || *tx.WalletID != wallet.ID {
				t.Errorf("%s: expected wallet %d", *tx.ExternalID, wallet.ID)
			}
			if tx.CategoryText != "Travel" {
				t.Errorf("%s: expected category_text Travel, got %q", *tx.ExternalID, tx.CategoryText)
			}
		}
		if income.Note != "Merchant t1" {
			t.Errorf("expected note from provider name, got %q", income.Note)
		}
		if !income.TransactionAt.Equal(testutil.Date(2024, 3, 2)) {
			t.Errorf("expected transaction date 2024-03-02, got %s", income.TransactionAt)
		}
		if len(provider.calls) != 1 || !provider.calls[0].from.Equal(from) || !provider.calls[0].to.Equal(to) {
			t.Errorf("expected one provider call for the window, got %+v", provider.calls)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		wallet := testutil.CreateTestWalletWithPlaidID(t, db, 1, "p1", from)
		provider := newFakeProvider()
		provider.add("access-p1",
			plaidRecord("t1", 10, "2024-03-02", "Shops"),
			plaidRecord("t2", -20, "2024-03-03"),
		)
		svc := NewImportService(db, newFakeDirectory("p1"), provider)

		_, err := svc.ImportTransactions(context.Background(), wallet, from, to)
		testutil.AssertNoError(t, err)
		res, err := svc.ImportTransactions(context.Background(), wallet, from, to)
		testutil.AssertNoError(t, err)

		if res.Created != 0 || res.Unchanged != 2 {
			t.Errorf("second run should change nothing, got %+v", res)
		}
		var count int64
		db.Model(&models.Transaction{}).Count(&count)
		if count != 2 {
			t.Errorf("expected 2 rows after two runs, got %d", count)
		}
	})

	t.Run("recategorizes_when_mapping_appears", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		wallet := testutil.CreateTestWalletWithPlaidID(t, db, 1, "p1", from)
		provider := newFakeProvider()
		provider.add("access-p1", plaidRecord("t1", 10, "2024-03-02", "Shops", "Bookstores"))
		svc := NewImportService(db, newFakeDirectory("p1"), provider)

		_, err := svc.ImportTransactions(context.Background(), wallet, from, to)
		testutil.AssertNoError(t, err)

		books := testutil.CreateTestSystemCategory(t, db, models.DirectionExpense, "Books")
		testutil.CreateTestMapping(t, db, "Bookstores", books.ID)

		var before models.Transaction
		db.First(&before)
		db.Model(&before).Update("note", "my note")

		res, err := svc.ImportTransactions(context.Background(), wallet, from, to)
		testutil.AssertNoError(t, err)
		if res.Recategorized != 1 {
			t.Fatalf("expected 1 recategorized, got %+v", res)
		}

		var after models.Transaction
		db.First(&after, before.ID)
		if after.CategoryID == nil || *after.CategoryID != books.ID {
			t.Errorf("expected category %d, got %v", books.ID, after.CategoryID)
		}
		if after.Note != "my note" || !after.Amount.Equal(before.Amount) {
			t.Error("recategorization must not touch other fields")
		}
		if after.CategoryText != "Bookstores,Shops" {
			t.Errorf("expected most specific tag first, got %q", after.CategoryText)
		}
	})

	t.Run("bad_record_skipped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		wallet := testutil.CreateTestWalletWithPlaidID(t, db, 1, "p1", from)
		provider := newFakeProvider()
		provider.add("access-p1", plaidRecord("t1", 10, "2024-03-02"))
		provider.addRaw("access-p1", `{"transaction_id":"t2","amount":"oops"}`)
		provider.addRaw("access-p1", `{"transaction_id":"t3","amount":1,"iso_currency_code":"USD","date":"March 3"}`)
		provider.add("access-p1", plaidRecord("t4", 5, "2024-03-04"))
		svc := NewImportService(db, newFakeDirectory("p1"), provider)

		res, err := svc.ImportTransactions(context.Background(), wallet, from, to)
		testutil.AssertNoError(t, err)
		if res.Created != 2 || res.Skipped != 2 {
			t.Errorf("expected 2 created and 2 skipped, got %+v", res)
		}
	})

	t.Run("account_gone_removes_wallet", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		wallet := testutil.CreateTestWalletWithPlaidID(t, db, 1, "p1", from)
		provider := newFakeProvider()
		svc := NewImportService(db, newFakeDirectory(), provider)

		res, err := svc.ImportTransactions(context.Background(), wallet, from, to)
		testutil.AssertNoError(t, err)
		if !res.WalletRemoved {
			t.Error("expected wallet to be reported as removed")
		}
		if len(provider.calls) != 0 {
			t.Error("provider must not be called for a removed wallet")
		}
		var count int64
		db.Model(&models.Wallet{}).Count(&count)
		if count != 0 {
			t.Error("wallet should be soft-deleted")
		}
	})

	t.Run("provider_failure", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		wallet := testutil.CreateTestWalletWithPlaidID(t, db, 1, "p1", from)
		provider := newFakeProvider()
		provider.err = errors.New("ITEM_LOGIN_REQUIRED")
		svc := NewImportService(db, newFakeDirectory("p1"), provider)

		_, err := svc.ImportTransactions(context.Background(), wallet, from, to)
		testutil.AssertAppError(t, err, "PROVIDER_UNAVAILABLE")
	})

	t.Run("unofficial_currency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		wallet := testutil.CreateTestWalletWithPlaidID(t, db, 1, "p1", from)
		provider := newFakeProvider()
		provider.addRaw("access-p1", `{"transaction_id":"t1","amount":3,"iso_currency_code":null,"unofficial_currency_code":"BTC","date":"2024-03-02"}`)
		svc := NewImportService(db, newFakeDirectory("p1"), provider)

		res, err := svc.ImportTransactions(context.Background(), wallet, from, to)
		testutil.AssertNoError(t, err)
		if res.Created != 1 {
			t.Fatalf("expected 1 created, got %+v", res)
		}
	})
}
