package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgeting/internal/errors"
	"budgeting/internal/models"
	"budgeting/internal/pagination"
	"budgeting/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	exportService      services.ExportServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, exportService services.ExportServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, exportService: exportService}
}

// CreateTransactionRequest represents the request payload for creating a manual transaction
type CreateTransactionRequest struct {
	CategoryID    *uint            `json:"category_id"`
	Direction     models.Direction `json:"direction" binding:"required,direction"`
	Amount        decimal.Decimal  `json:"amount" binding:"gte=0"`
	Currency      string           `json:"currency" binding:"omitempty,iso4217"`
	Note          string           `json:"note" binding:"max=500"`
	TransactionAt *time.Time       `json:"transaction_at"`
	Location      json.RawMessage  `json:"location" swaggertype:"object"`
	LocationName  *string          `json:"location_name" binding:"omitempty,max=255"`
}

// UpdateTransactionRequest represents the request payload for updating a transaction.
// Linked transactions only accept category_id and note.
type UpdateTransactionRequest struct {
	CategoryID    *uint             `json:"category_id"`
	Note          *string           `json:"note" binding:"omitempty,max=500"`
	Direction     *models.Direction `json:"direction" binding:"omitempty,direction"`
	Amount        *decimal.Decimal  `json:"amount" binding:"omitempty,gte=0"`
	Currency      *string           `json:"currency" binding:"omitempty,iso4217"`
	TransactionAt *time.Time        `json:"transaction_at"`
}

// parseTransactionFilter reads the shared ledger filters from the query string.
func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var f services.TransactionFilter
	var err error

	if f.Scope, err = parseWalletScope(c); err != nil {
		return f, err
	}
	if f.CategoryID, err = parseOptionalUint(c, "category_id"); err != nil {
		return f, err
	}
	if f.Directions, err = parseDirections(c.Query("direction")); err != nil {
		return f, err
	}

	amounts := []struct {
		name string
		dst  **decimal.Decimal
	}{
		{"amount", &f.Amount},
		{"amount_gt", &f.AmountGt},
		{"amount_gte", &f.AmountGte},
		{"amount_lt", &f.AmountLt},
		{"amount_lte", &f.AmountLte},
	}
	for _, a := range amounts {
		v := c.Query(a.name)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, apperrors.WithMessage(apperrors.ErrInvalidInput, a.name+" must be a number")
		}
		*a.dst = &d
	}

	if v := c.Query("from_date"); v != "" {
		from, err := parseDate("from_date", v)
		if err != nil {
			return f, err
		}
		f.FromDate = &from
	}
	if v := c.Query("to_date"); v != "" {
		to, err := parseDate("to_date", v)
		if err != nil {
			return f, err
		}
		// A bare date includes the whole day.
		if len(v) == len(dateLayout) {
			to = to.AddDate(0, 0, 1)
		}
		f.ToDate = &to
	}
	return f, nil
}

// GetTransactions handles listing transactions.
// @Summary     Get transactions
// @Description Get a filtered, paginated list of the user's transactions, newest first
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       wallet_id   query int    false "Wallet ID (0 for manual transactions)"
// @Param       category_id query int    false "Category ID"
// @Param       direction   query string false "Comma-separated directions (income,expense)"
// @Param       amount      query string false "Exact amount"
// @Param       amount_gt   query string false "Amount greater than"
// @Param       amount_gte  query string false "Amount greater than or equal"
// @Param       amount_lt   query string false "Amount less than"
// @Param       amount_lte  query string false "Amount less than or equal"
// @Param       from_date   query string false "From date (YYYY-MM-DD)"
// @Param       to_date     query string false "To date inclusive (YYYY-MM-DD)"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[services.TransactionView] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.ListTransactions(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransaction handles the retrieval of a specific transaction.
// @Summary     Get transaction by ID
// @Description Get a specific transaction of the user
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} services.TransactionView "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransaction(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// CreateTransaction handles the creation of a manual transaction.
// @Summary     Create a transaction
// @Description Record a manual income or expense; an omitted category uses the direction's default
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} services.TransactionView "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	transaction, err := h.transactionService.CreateTransaction(userID, services.TransactionInput{
		CategoryID:    req.CategoryID,
		Direction:     req.Direction,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Note:          req.Note,
		TransactionAt: req.TransactionAt,
		Location:      req.Location,
		LocationName:  req.LocationName,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// UpdateTransaction handles updating a transaction.
// @Summary     Update transaction
// @Description Update a transaction; linked transactions only accept category and note changes
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Updated fields"
// @Success     200 {object} services.TransactionView "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, transactionID, services.TransactionUpdate{
		CategoryID:    req.CategoryID,
		Note:          req.Note,
		Direction:     req.Direction,
		Amount:        req.Amount,
		Currency:      req.Currency,
		TransactionAt: req.TransactionAt,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles deleting a transaction.
// @Summary     Delete transaction
// @Description Delete a manual transaction; linked transactions are left untouched
// @Tags        transactions
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     204 "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ExportTransactions handles downloading the filtered ledger as a spreadsheet.
// @Summary     Export transactions
// @Description Download the filtered transactions as an XLSX workbook
// @Tags        transactions
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       wallet_id   query int    false "Wallet ID (0 for manual transactions)"
// @Param       category_id query int    false "Category ID"
// @Param       direction   query string false "Comma-separated directions (income,expense)"
// @Param       from_date   query string false "From date (YYYY-MM-DD)"
// @Param       to_date     query string false "To date inclusive (YYYY-MM-DD)"
// @Success     200 {file} file "XLSX workbook"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/export [get]
func (h *TransactionHandler) ExportTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.exportService.ExportTransactions(userID, filter, &buf); err != nil {
		respondWithError(c, err)
		return
	}

	name := services.ExportFileName(time.Now().UTC().Format(dateLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
