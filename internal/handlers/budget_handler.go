package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"budgeting/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// BudgetRequest represents the request payload for creating or replacing a budget.
type BudgetRequest struct {
	CategoryID uint            `json:"category_id" binding:"required"`
	WalletID   uint            `json:"wallet_id"`
	Amount     decimal.Decimal `json:"amount" binding:"required,gt=0" swaggertype:"string"`
	FromDate   string          `json:"from_date" binding:"required" example:"2024-03-01"`
	ToDate     string          `json:"to_date" binding:"required" example:"2024-03-31"`
}

func (r BudgetRequest) input() (services.BudgetInput, error) {
	from, err := parseDate("from_date", r.FromDate)
	if err != nil {
		return services.BudgetInput{}, err
	}
	to, err := parseDate("to_date", r.ToDate)
	if err != nil {
		return services.BudgetInput{}, err
	}
	return services.BudgetInput{
		CategoryID: r.CategoryID,
		WalletID:   r.WalletID,
		Amount:     r.Amount,
		FromDate:   from,
		ToDate:     to,
	}, nil
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Cap spend in a category for one wallet (0 for manual) over an inclusive date range
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BudgetRequest true "Budget details"
// @Success     201 {object} services.BudgetDetail "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category or wallet not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	input, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.CreateBudget(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetBudgets handles listing evaluated budgets.
// @Summary     Get budgets
// @Description Get the user's budgets with their current spend, newest first
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       wallet_id query int  false "Wallet ID (0 for manual budgets)"
// @Param       is_end    query bool false "Filter by ended state"
// @Param       is_over   query bool false "Filter by over-budget state"
// @Success     200 {array} services.BudgetDetail "Budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var filter services.BudgetFilter
	if filter.WalletID, err = parseOptionalUint(c, "wallet_id"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.IsEnd, err = parseOptionalBool(c, "is_end"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.IsOver, err = parseOptionalBool(c, "is_over"); err != nil {
		respondWithError(c, err)
		return
	}

	budgets, err := h.budgetService.Evaluate(userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}

// GetBudget handles retrieving a single budget.
// @Summary     Get budget by ID
// @Description Get a budget with its current spend
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Budget ID"
// @Success     200 {object} services.BudgetDetail "Budget details"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudget(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles replacing a budget.
// @Summary     Update budget
// @Description Replace a budget's scope, amount and date range
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int           true "Budget ID"
// @Param       request body BudgetRequest true "Budget details"
// @Success     200 {object} services.BudgetDetail "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	input, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.UpdateBudget(userID, budgetID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles deleting a budget.
// @Summary     Delete budget
// @Description Delete a budget
// @Tags        budgets
// @Security    BearerAuth
// @Param       id path int true "Budget ID"
// @Success     204 "Budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
