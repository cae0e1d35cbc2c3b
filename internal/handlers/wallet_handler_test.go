package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgeting/internal/errors"
	"budgeting/internal/models"
	"budgeting/internal/services"
)

// --- mock wallet service ---

type mockWalletService struct {
	linkWalletFn   func(ctx context.Context, userID uint, plaidID string) (*models.Wallet, error)
	listWalletsFn  func(userID uint) ([]services.WalletView, error)
	deleteWalletFn func(userID, walletID uint) error
}

func (m *mockWalletService) LinkWallet(ctx context.Context, userID uint, plaidID string) (*models.Wallet, error) {
	if m.linkWalletFn != nil {
		return m.linkWalletFn(ctx, userID, plaidID)
	}
	return &models.Wallet{}, nil
}

func (m *mockWalletService) ListWallets(userID uint) ([]services.WalletView, error) {
	if m.listWalletsFn != nil {
		return m.listWalletsFn(userID)
	}
	return []services.WalletView{}, nil
}

func (m *mockWalletService) GetWallet(_, _ uint) (*models.Wallet, error) {
	return &models.Wallet{}, nil
}

func (m *mockWalletService) DeleteWallet(userID, walletID uint) error {
	if m.deleteWalletFn != nil {
		return m.deleteWalletFn(userID, walletID)
	}
	return nil
}

func (m *mockWalletService) ListImportableWallets(_ time.Time, _ int) ([]models.Wallet, error) {
	return nil, nil
}

func (m *mockWalletService) MarkImported(_ uint, _ time.Time) error { return nil }

func (m *mockWalletService) MarkFailed(_ uint, _ error, _ time.Time) error { return nil }

var _ services.WalletServicer = (*mockWalletService)(nil)

func setupWalletRouter(handler *WalletHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.GET("/wallets", handler.GetWallets)
	auth.POST("/wallets", handler.LinkWallet)
	auth.GET("/wallets/balance", handler.GetWalletBalances)
	auth.DELETE("/wallets/:id", handler.DeleteWallet)
	return r
}

func TestWalletHandler_GetWallets(t *testing.T) {
	svc := &mockWalletService{
		listWalletsFn: func(_ uint) ([]services.WalletView, error) {
			return []services.WalletView{
				{Name: "Manual Wallet", Type: services.WalletTypeManual},
				{ID: 3, Name: "Chase", Type: services.WalletTypeLinked},
			}, nil
		},
	}
	r := setupWalletRouter(NewWalletHandler(svc, &mockSummaryService{}))

	rec := doRequest(r, "GET", "/wallets", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	wallets := parseJSON(t, rec)["wallets"].([]interface{})
	if len(wallets) != 2 {
		t.Fatalf("expected 2 wallets, got %d", len(wallets))
	}
	if first := wallets[0].(map[string]interface{}); first["type"] != services.WalletTypeManual {
		t.Errorf("expected manual wallet first, got %v", first)
	}
}

func TestWalletHandler_LinkWallet(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockWalletService{
			linkWalletFn: func(_ context.Context, userID uint, plaidID string) (*models.Wallet, error) {
				return &models.Wallet{Base: models.Base{ID: 4}, UserID: userID, PlaidID: &plaidID, Name: "Chase"}, nil
			},
		}
		r := setupWalletRouter(NewWalletHandler(svc, &mockSummaryService{}))

		rec := doRequest(r, "POST", "/wallets", `{"plaid_id":"acc-1"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		wallet := parseJSON(t, rec)["wallet"].(map[string]interface{})
		if wallet["plaid_id"] != "acc-1" {
			t.Errorf("unexpected wallet %v", wallet)
		}
	})

	t.Run("returns 400 on missing plaid_id", func(t *testing.T) {
		r := setupWalletRouter(NewWalletHandler(&mockWalletService{}, &mockSummaryService{}))

		rec := doRequest(r, "POST", "/wallets", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on unknown account", func(t *testing.T) {
		svc := &mockWalletService{
			linkWalletFn: func(_ context.Context, _ uint, _ string) (*models.Wallet, error) {
				return nil, apperrors.ErrInvalidPlaidID
			},
		}
		r := setupWalletRouter(NewWalletHandler(svc, &mockSummaryService{}))

		rec := doRequest(r, "POST", "/wallets", `{"plaid_id":"nope"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_PLAID_ID")
	})

	t.Run("returns 502 when core is down", func(t *testing.T) {
		svc := &mockWalletService{
			linkWalletFn: func(_ context.Context, _ uint, _ string) (*models.Wallet, error) {
				return nil, apperrors.ErrProviderUnavailable
			},
		}
		r := setupWalletRouter(NewWalletHandler(svc, &mockSummaryService{}))

		rec := doRequest(r, "POST", "/wallets", `{"plaid_id":"acc-1"}`)

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
	})
}

func TestWalletHandler_DeleteWallet(t *testing.T) {
	t.Run("returns 204 on success", func(t *testing.T) {
		r := setupWalletRouter(NewWalletHandler(&mockWalletService{}, &mockSummaryService{}))

		if rec := doRequest(r, "DELETE", "/wallets/4", ""); rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockWalletService{
			deleteWalletFn: func(_, _ uint) error { return apperrors.ErrWalletNotFound },
		}
		r := setupWalletRouter(NewWalletHandler(svc, &mockSummaryService{}))

		rec := doRequest(r, "DELETE", "/wallets/4", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "WALLET_NOT_FOUND")
	})
}

func TestWalletHandler_GetWalletBalances(t *testing.T) {
	summary := &mockSummaryService{
		walletBalancesFn: func(_ uint) ([]services.WalletBalance, error) {
			return []services.WalletBalance{
				{WalletName: "Total", Type: "total", Income: decimal.NewFromInt(10), Expense: decimal.NewFromInt(4), Balance: decimal.NewFromInt(6)},
			}, nil
		},
	}
	r := setupWalletRouter(NewWalletHandler(&mockWalletService{}, summary))

	rec := doRequest(r, "GET", "/wallets/balance", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	balances := parseJSON(t, rec)["balances"].([]interface{})
	if b := balances[0].(map[string]interface{}); b["balance"] != "6" {
		t.Errorf("unexpected balance %v", b)
	}
}
