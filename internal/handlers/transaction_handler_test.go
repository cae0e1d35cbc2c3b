package handlers

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgeting/internal/errors"
	"budgeting/internal/models"
	"budgeting/internal/pagination"
	"budgeting/internal/services"
)

// --- mock transaction service ---

type mockTransactionService struct {
	listTransactionsFn  func(userID uint, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[services.TransactionView], error)
	getTransactionFn    func(userID, transactionID uint) (*services.TransactionView, error)
	createTransactionFn func(userID uint, input services.TransactionInput) (*services.TransactionView, error)
	updateTransactionFn func(userID, transactionID uint, input services.TransactionUpdate) (*services.TransactionView, error)
	deleteTransactionFn func(userID, transactionID uint) error
}

func (m *mockTransactionService) ListTransactions(userID uint, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[services.TransactionView], error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(userID, page, filter)
	}
	return pagination.NewPageResponse([]services.TransactionView{}, pagination.PageRequest{Page: 1, PageSize: 20}, 0), nil
}

func (m *mockTransactionService) GetTransaction(userID, transactionID uint) (*services.TransactionView, error) {
	if m.getTransactionFn != nil {
		return m.getTransactionFn(userID, transactionID)
	}
	return &services.TransactionView{}, nil
}

func (m *mockTransactionService) CreateTransaction(userID uint, input services.TransactionInput) (*services.TransactionView, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(userID, input)
	}
	return &services.TransactionView{}, nil
}

func (m *mockTransactionService) UpdateTransaction(userID, transactionID uint, input services.TransactionUpdate) (*services.TransactionView, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(userID, transactionID, input)
	}
	return &services.TransactionView{}, nil
}

func (m *mockTransactionService) DeleteTransaction(userID, transactionID uint) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(userID, transactionID)
	}
	return nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

type mockExportService struct {
	exportFn func(userID uint, filter services.TransactionFilter, w io.Writer) error
}

func (m *mockExportService) ExportTransactions(userID uint, filter services.TransactionFilter, w io.Writer) error {
	if m.exportFn != nil {
		return m.exportFn(userID, filter, w)
	}
	return nil
}

var _ services.ExportServicer = (*mockExportService)(nil)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.GET("/transactions", handler.GetTransactions)
	auth.POST("/transactions", handler.CreateTransaction)
	auth.GET("/transactions/export", handler.ExportTransactions)
	auth.GET("/transactions/:id", handler.GetTransaction)
	auth.PUT("/transactions/:id", handler.UpdateTransaction)
	auth.DELETE("/transactions/:id", handler.DeleteTransaction)
	return r
}

func TestTransactionHandler_GetTransactions(t *testing.T) {
	t.Run("parses filters", func(t *testing.T) {
		var got services.TransactionFilter
		var gotPage pagination.PageRequest
		svc := &mockTransactionService{
			listTransactionsFn: func(_ uint, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[services.TransactionView], error) {
				got, gotPage = filter, page
				return pagination.NewPageResponse([]services.TransactionView{{ID: 1}}, pagination.PageRequest{Page: 2, PageSize: 10}, 11), nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockExportService{}))

		rec := doRequest(r, "GET",
			"/transactions?wallet_id=0&category_id=4&direction=expense&amount_gte=10&amount_lt=99.5&from_date=2024-03-01&to_date=2024-03-31&page=2&page_size=10", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Scope.String() != "manual" {
			t.Errorf("expected manual scope, got %s", got.Scope)
		}
		if got.CategoryID == nil || *got.CategoryID != 4 {
			t.Errorf("unexpected category %v", got.CategoryID)
		}
		if len(got.Directions) != 1 || got.Directions[0] != models.DirectionExpense {
			t.Errorf("unexpected directions %v", got.Directions)
		}
		if got.AmountGte == nil || !got.AmountGte.Equal(decimal.NewFromInt(10)) {
			t.Errorf("unexpected amount_gte %v", got.AmountGte)
		}
		if got.AmountLt == nil || !got.AmountLt.Equal(decimal.RequireFromString("99.5")) {
			t.Errorf("unexpected amount_lt %v", got.AmountLt)
		}
		if got.Amount != nil || got.AmountGt != nil || got.AmountLte != nil {
			t.Error("unset amount filters should stay nil")
		}
		if got.FromDate == nil || !got.FromDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected from_date %v", got.FromDate)
		}
		if got.ToDate == nil || !got.ToDate.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("to_date should include the whole day, got %v", got.ToDate)
		}
		if gotPage.Page != 2 || gotPage.PageSize != 10 {
			t.Errorf("unexpected page %+v", gotPage)
		}
		result := parseJSON(t, rec)
		if result["total_items"].(float64) != 11 {
			t.Errorf("expected 11 items, got %v", result["total_items"])
		}
	})

	t.Run("no wallet filter means all wallets", func(t *testing.T) {
		var scope services.WalletScope
		svc := &mockTransactionService{
			listTransactionsFn: func(_ uint, _ pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[services.TransactionView], error) {
				scope = filter.Scope
				return pagination.NewPageResponse([]services.TransactionView{}, pagination.PageRequest{Page: 1, PageSize: 20}, 0), nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockExportService{}))

		doRequest(r, "GET", "/transactions", "")

		if scope.String() != "all" {
			t.Errorf("expected all scope, got %s", scope)
		}
	})

	bad := []string{
		"/transactions?amount=ten",
		"/transactions?direction=transfer",
		"/transactions?from_date=yesterday",
		"/transactions?page_size=1000",
		"/transactions?category_id=x",
	}
	for _, path := range bad {
		t.Run("returns 400 for "+path, func(t *testing.T) {
			r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockExportService{}))

			rec := doRequest(r, "GET", path, "")

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.TransactionInput
		svc := &mockTransactionService{
			createTransactionFn: func(_ uint, input services.TransactionInput) (*services.TransactionView, error) {
				got = input
				return &services.TransactionView{ID: 5, Direction: input.Direction, Amount: input.Amount, Currency: "USD"}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockExportService{}))

		rec := doRequest(r, "POST", "/transactions",
			`{"direction":"expense","amount":"12.50","note":"lunch","location":{"lat":1,"lng":2},"location_name":"Cafe"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Amount.Equal(decimal.RequireFromString("12.5")) || got.Note != "lunch" {
			t.Errorf("unexpected input %+v", got)
		}
		if got.LocationName == nil || *got.LocationName != "Cafe" || len(got.Location) == 0 {
			t.Errorf("location not passed through: %+v", got)
		}
		tx := parseJSON(t, rec)["transaction"].(map[string]interface{})
		if tx["amount"] != "12.5" {
			t.Errorf("unexpected amount %v", tx["amount"])
		}
	})

	t.Run("returns 400 on negative amount", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockExportService{}))

		rec := doRequest(r, "POST", "/transactions", `{"direction":"expense","amount":-5}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on unknown currency", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockExportService{}))

		rec := doRequest(r, "POST", "/transactions", `{"direction":"income","amount":5,"currency":"XXX"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on direction mismatch", func(t *testing.T) {
		svc := &mockTransactionService{
			createTransactionFn: func(_ uint, _ services.TransactionInput) (*services.TransactionView, error) {
				return nil, apperrors.ErrCategoryDirectionMismatch
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockExportService{}))

		rec := doRequest(r, "POST", "/transactions", `{"direction":"income","amount":5,"category_id":3}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_DIRECTION_MISMATCH")
	})
}

func TestTransactionHandler_UpdateTransaction(t *testing.T) {
	var got services.TransactionUpdate
	svc := &mockTransactionService{
		updateTransactionFn: func(_, transactionID uint, input services.TransactionUpdate) (*services.TransactionView, error) {
			got = input
			return &services.TransactionView{ID: transactionID}, nil
		},
	}
	r := setupTransactionRouter(NewTransactionHandler(svc, &mockExportService{}))

	rec := doRequest(r, "PUT", "/transactions/8", `{"category_id":2,"note":"fixed"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.CategoryID == nil || *got.CategoryID != 2 || got.Note == nil || *got.Note != "fixed" {
		t.Errorf("unexpected update %+v", got)
	}
	if got.Amount != nil || got.Direction != nil || got.Currency != nil || got.TransactionAt != nil {
		t.Errorf("unset fields should stay nil: %+v", got)
	}
}

func TestTransactionHandler_GetAndDelete(t *testing.T) {
	t.Run("returns 404 for unknown transaction", func(t *testing.T) {
		svc := &mockTransactionService{
			getTransactionFn: func(_, _ uint) (*services.TransactionView, error) {
				return nil, apperrors.ErrTransactionNotFound
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockExportService{}))

		rec := doRequest(r, "GET", "/transactions/99", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
	})

	t.Run("delete returns 204", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockExportService{}))

		if rec := doRequest(r, "DELETE", "/transactions/3", ""); rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_ExportTransactions(t *testing.T) {
	t.Run("returns the workbook as an attachment", func(t *testing.T) {
		export := &mockExportService{
			exportFn: func(_ uint, filter services.TransactionFilter, w io.Writer) error {
				if filter.Scope.String() != "wallet:2" {
					t.Errorf("unexpected scope %s", filter.Scope)
				}
				_, err := w.Write([]byte("PK-workbook"))
				return err
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, export))

		rec := doRequest(r, "GET", "/transactions/export?wallet_id=2", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
			t.Errorf("unexpected content type %q", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "transactions_") {
			t.Errorf("unexpected content disposition %q", cd)
		}
		if rec.Body.String() != "PK-workbook" {
			t.Errorf("unexpected body %q", rec.Body.String())
		}
	})

	t.Run("returns JSON error on failure", func(t *testing.T) {
		export := &mockExportService{
			exportFn: func(_ uint, _ services.TransactionFilter, _ io.Writer) error {
				return apperrors.ErrInternalServer
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, export))

		rec := doRequest(r, "GET", "/transactions/export", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INTERNAL_ERROR")
	})
}
