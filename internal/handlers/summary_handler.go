package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "budgeting/internal/errors"
	"budgeting/internal/models"
	"budgeting/internal/services"
	"budgeting/internal/validator"
)

const monthLayout = "2006-01"

// SummaryHandler serves the ledger aggregations.
type SummaryHandler struct {
	summaryService services.SummaryServicer
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(summaryService services.SummaryServicer) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService}
}

// periodQuery is the range/type pair of the summary endpoints.
type periodQuery struct {
	Range string `form:"range" binding:"required,summary_range"`
	Type  string `form:"type" binding:"omitempty,summary_type"`
}

func (q periodQuery) period() (services.Period, error) {
	t := services.PeriodType(q.Type)
	if t == "" {
		t = services.PeriodMonth
	}
	p, err := services.ParsePeriod(t, q.Range)
	if err != nil {
		return services.Period{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return p, nil
}

func monthParam(c *gin.Context, name string) (string, error) {
	v := c.Query(name)
	if v == "" || validator.IsYearMonth(v) {
		return v, nil
	}
	return "", apperrors.WithMessage(apperrors.ErrInvalidInput, name+" must be YYYY-MM")
}

// GetByDay handles the per-day totals of one month.
// @Summary     Get daily totals
// @Description Income and expense per day of a month; days without transactions are omitted
// @Tags        summaries
// @Produce     json
// @Security    BearerAuth
// @Param       month     query string false "Month (YYYY-MM), defaults to the current month"
// @Param       wallet_id query int    false "Wallet ID (0 for manual transactions)"
// @Success     200 {array} services.DayTotal "Daily totals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/by-month [get]
func (h *SummaryHandler) GetByDay(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, err := monthParam(c, "month")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if month == "" {
		month = time.Now().UTC().Format(monthLayout)
	}
	scope, err := parseWalletScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	days, err := h.summaryService.ByDay(userID, month, scope)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": days})
}

// GetMonthSummary handles the running balance of one month.
// @Summary     Get month summary
// @Description Income, expense and running balance of one month
// @Tags        summaries
// @Produce     json
// @Security    BearerAuth
// @Param       month     query string false "Month (YYYY-MM), defaults to the current month"
// @Param       wallet_id query int    false "Wallet ID (0 for manual transactions)"
// @Success     200 {object} services.PeriodSummary "Month summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/month-summary [get]
func (h *SummaryHandler) GetMonthSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, err := monthParam(c, "month")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if month == "" {
		month = time.Now().UTC().Format(monthLayout)
	}
	scope, err := parseWalletScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := periodQuery{Range: month, Type: string(services.PeriodMonth)}.period()
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.summaryService.PeriodSummary(userID, period, scope)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetSummary handles the running balance of a month or year.
// @Summary     Get period summary
// @Description Income, expense and running balance of a month or year
// @Tags        summaries
// @Produce     json
// @Security    BearerAuth
// @Param       range     query string true  "YYYY-MM for months, YYYY (or YYYY-MM) for years"
// @Param       type      query string false "month (default) or year"
// @Param       wallet_id query int    false "Wallet ID (0 for manual transactions)"
// @Success     200 {object} services.PeriodSummary "Period summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/summary [get]
func (h *SummaryHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q periodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	period, err := q.period()
	if err != nil {
		respondWithError(c, err)
		return
	}
	scope, err := parseWalletScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.summaryService.PeriodSummary(userID, period, scope)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetSummaryByCategory handles the per-category totals of a period.
// @Summary     Get totals by category
// @Description Totals per category of one direction in a month or year, largest first
// @Tags        summaries
// @Produce     json
// @Security    BearerAuth
// @Param       range     query string true  "YYYY-MM for months, YYYY (or YYYY-MM) for years"
// @Param       type      query string false "month (default) or year"
// @Param       direction query string true  "Direction (income/expense)"
// @Param       wallet_id query int    false "Wallet ID (0 for manual transactions)"
// @Success     200 {array} services.CategoryTotal "Category totals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/summary-by-category [get]
func (h *SummaryHandler) GetSummaryByCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q periodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	period, err := q.period()
	if err != nil {
		respondWithError(c, err)
		return
	}
	direction := models.Direction(c.Query("direction"))
	if !direction.Valid() {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "direction must be 'income' or 'expense'"))
		return
	}
	scope, err := parseWalletScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.summaryService.ByCategory(userID, period, direction, scope)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": totals})
}

// GetCategoryTrend handles the month-by-month totals of one category.
// @Summary     Get category trend
// @Description Monthly totals of one category; missing bounds default to the first and last month with data
// @Tags        summaries
// @Produce     json
// @Security    BearerAuth
// @Param       category_id query int    true  "Category ID"
// @Param       from_month  query string false "First month (YYYY-MM)"
// @Param       to_month    query string false "Last month (YYYY-MM)"
// @Param       wallet_id   query int    false "Wallet ID (0 for manual transactions)"
// @Success     200 {array} services.MonthTotal "Monthly totals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/summary-category-by-month [get]
func (h *SummaryHandler) GetCategoryTrend(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parseOptionalUint(c, "category_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if categoryID == nil || *categoryID == 0 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "category_id is required"))
		return
	}
	from, err := monthParam(c, "from_month")
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := monthParam(c, "to_month")
	if err != nil {
		respondWithError(c, err)
		return
	}
	scope, err := parseWalletScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	months, err := h.summaryService.CategoryTrend(userID, *categoryID, from, to, scope)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"months": months})
}
