package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgeting/internal/errors"
	"budgeting/internal/services"
)

// --- mock budget service ---

type mockBudgetService struct {
	createBudgetFn func(userID uint, input services.BudgetInput) (*services.BudgetDetail, error)
	getBudgetFn    func(userID, budgetID uint) (*services.BudgetDetail, error)
	updateBudgetFn func(userID, budgetID uint, input services.BudgetInput) (*services.BudgetDetail, error)
	deleteBudgetFn func(userID, budgetID uint) error
	evaluateFn     func(userID uint, filter services.BudgetFilter) ([]services.BudgetDetail, error)
}

func (m *mockBudgetService) CreateBudget(userID uint, input services.BudgetInput) (*services.BudgetDetail, error) {
	if m.createBudgetFn != nil {
		return m.createBudgetFn(userID, input)
	}
	return &services.BudgetDetail{}, nil
}

func (m *mockBudgetService) GetBudget(userID, budgetID uint) (*services.BudgetDetail, error) {
	if m.getBudgetFn != nil {
		return m.getBudgetFn(userID, budgetID)
	}
	return &services.BudgetDetail{}, nil
}

func (m *mockBudgetService) UpdateBudget(userID, budgetID uint, input services.BudgetInput) (*services.BudgetDetail, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(userID, budgetID, input)
	}
	return &services.BudgetDetail{}, nil
}

func (m *mockBudgetService) DeleteBudget(userID, budgetID uint) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(userID, budgetID)
	}
	return nil
}

func (m *mockBudgetService) Evaluate(userID uint, filter services.BudgetFilter) ([]services.BudgetDetail, error) {
	if m.evaluateFn != nil {
		return m.evaluateFn(userID, filter)
	}
	return []services.BudgetDetail{}, nil
}

func (m *mockBudgetService) ListEndingBudgets(_ time.Time, _ time.Duration) ([]services.EndingBudget, error) {
	return nil, nil
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.POST("/budgets", handler.CreateBudget)
	auth.GET("/budgets", handler.GetBudgets)
	auth.GET("/budgets/:id", handler.GetBudget)
	auth.PUT("/budgets/:id", handler.UpdateBudget)
	auth.DELETE("/budgets/:id", handler.DeleteBudget)
	return r
}

func TestBudgetHandler_CreateBudget(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.BudgetInput
		svc := &mockBudgetService{
			createBudgetFn: func(_ uint, input services.BudgetInput) (*services.BudgetDetail, error) {
				got = input
				return &services.BudgetDetail{ID: 1, CategoryID: input.CategoryID, Amount: input.Amount, WalletName: "Manual Wallet"}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc))

		rec := doRequest(r, "POST", "/budgets",
			`{"category_id":3,"wallet_id":0,"amount":"50","from_date":"2024-03-01","to_date":"2024-03-31"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.WalletID != 0 || !got.Amount.Equal(decimal.NewFromInt(50)) {
			t.Errorf("unexpected input %+v", got)
		}
		if !got.FromDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) || !got.ToDate.Equal(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected dates %v %v", got.FromDate, got.ToDate)
		}
		budget := parseJSON(t, rec)["budget"].(map[string]interface{})
		if budget["amount"] != "50" {
			t.Errorf("unexpected amount %v", budget["amount"])
		}
	})

	t.Run("returns 400 on zero amount", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}))

		rec := doRequest(r, "POST", "/budgets",
			`{"category_id":3,"amount":0,"from_date":"2024-03-01","to_date":"2024-03-31"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on bad date", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}))

		rec := doRequest(r, "POST", "/budgets",
			`{"category_id":3,"amount":5,"from_date":"March","to_date":"2024-03-31"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 on foreign wallet", func(t *testing.T) {
		svc := &mockBudgetService{
			createBudgetFn: func(_ uint, _ services.BudgetInput) (*services.BudgetDetail, error) {
				return nil, apperrors.ErrWalletNotFound
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc))

		rec := doRequest(r, "POST", "/budgets",
			`{"category_id":3,"wallet_id":9,"amount":5,"from_date":"2024-03-01","to_date":"2024-03-31"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "WALLET_NOT_FOUND")
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		r := gin.New()
		r.POST("/budgets", NewBudgetHandler(&mockBudgetService{}).CreateBudget)

		rec := doRequest(r, "POST", "/budgets", `{}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_GetBudgets(t *testing.T) {
	t.Run("parses filters", func(t *testing.T) {
		var got services.BudgetFilter
		svc := &mockBudgetService{
			evaluateFn: func(_ uint, filter services.BudgetFilter) ([]services.BudgetDetail, error) {
				got = filter
				return []services.BudgetDetail{{ID: 2, IsOver: true}}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc))

		rec := doRequest(r, "GET", "/budgets?wallet_id=0&is_over=true&is_end=false", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.WalletID == nil || *got.WalletID != 0 {
			t.Errorf("expected manual wallet filter, got %v", got.WalletID)
		}
		if got.IsOver == nil || !*got.IsOver || got.IsEnd == nil || *got.IsEnd {
			t.Errorf("unexpected flags %+v", got)
		}
		if budgets := parseJSON(t, rec)["budgets"].([]interface{}); len(budgets) != 1 {
			t.Errorf("expected 1 budget, got %d", len(budgets))
		}
	})

	t.Run("no filters", func(t *testing.T) {
		var got services.BudgetFilter
		svc := &mockBudgetService{
			evaluateFn: func(_ uint, filter services.BudgetFilter) ([]services.BudgetDetail, error) {
				got = filter
				return nil, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc))

		doRequest(r, "GET", "/budgets", "")

		if got.WalletID != nil || got.IsEnd != nil || got.IsOver != nil {
			t.Errorf("expected empty filter, got %+v", got)
		}
	})

	t.Run("returns 400 on bad flag", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}))

		rec := doRequest(r, "GET", "/budgets?is_over=maybe", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_GetUpdateDelete(t *testing.T) {
	t.Run("get returns 404", func(t *testing.T) {
		svc := &mockBudgetService{
			getBudgetFn: func(_, _ uint) (*services.BudgetDetail, error) { return nil, apperrors.ErrBudgetNotFound },
		}
		r := setupBudgetRouter(NewBudgetHandler(svc))

		rec := doRequest(r, "GET", "/budgets/5", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
	})

	t.Run("update returns 200", func(t *testing.T) {
		svc := &mockBudgetService{
			updateBudgetFn: func(_, budgetID uint, input services.BudgetInput) (*services.BudgetDetail, error) {
				return &services.BudgetDetail{ID: budgetID, Amount: input.Amount}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc))

		rec := doRequest(r, "PUT", "/budgets/5",
			`{"category_id":3,"amount":75,"from_date":"2024-03-01","to_date":"2024-04-30"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("delete returns 204", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}))

		if rec := doRequest(r, "DELETE", "/budgets/5", ""); rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})
}
