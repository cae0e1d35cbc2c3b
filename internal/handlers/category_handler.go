package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "budgeting/internal/errors"
	"budgeting/internal/models"
	"budgeting/internal/services"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CreateCategoryRequest represents the request payload for creating a category
type CreateCategoryRequest struct {
	Name        string           `json:"name" binding:"required,min=1,max=100"`
	Description string           `json:"description" binding:"max=255"`
	Direction   models.Direction `json:"direction" binding:"required,direction"`
	GroupID     uint             `json:"group_id" binding:"required"`
	Order       int              `json:"order"`
}

// UpdateCategoryRequest represents the request payload for updating a category
type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=255"`
	GroupID     *uint   `json:"group_id" binding:"omitempty,gt=0"`
	Order       *int    `json:"order"`
}

// GetCategories handles listing the categories visible to the user
// @Summary     Get categories
// @Description Get system and user-owned categories, optionally filtered by direction
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       direction query string false "Comma-separated directions (income,expense)"
// @Success     200 {array} models.Category "List of categories"
// @Failure     400 {object} ErrorResponse "Invalid direction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	directions, err := parseDirections(c.Query("direction"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	categories, err := h.categoryService.ListCategories(userID, directions)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategoryGroups handles listing category groups with their categories
// @Summary     Get category groups
// @Description Get category groups with their visible categories; empty groups are omitted
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       direction query string false "Comma-separated directions (income,expense)"
// @Success     200 {array} models.CategoryGroup "List of groups"
// @Failure     400 {object} ErrorResponse "Invalid direction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /category-groups [get]
func (h *CategoryHandler) GetCategoryGroups(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	directions, err := parseDirections(c.Query("direction"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	groups, err := h.categoryService.ListGroups(userID, directions)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// GetCategory handles the retrieval of a specific category
// @Summary     Get category by ID
// @Description Get a system category or one of the user's own categories
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Category ID"
// @Success     200 {object} models.Category "Category details"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategory(userID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a user-owned category in a group
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	category, err := h.categoryService.CreateCategory(userID, services.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Direction:   req.Direction,
		GroupID:     req.GroupID,
		Order:       req.Order,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// UpdateCategory handles updating a category
// @Summary     Update category
// @Description Update one of the user's own categories
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Category ID"
// @Param       request body UpdateCategoryRequest true "Updated category details"
// @Success     200 {object} models.Category "Updated category"
// @Failure     400 {object} ErrorResponse "Invalid input or category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "System category"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	category, err := h.categoryService.UpdateCategory(userID, categoryID, services.CategoryUpdate{
		Name:        req.Name,
		Description: req.Description,
		GroupID:     req.GroupID,
		Order:       req.Order,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles deleting a category
// @Summary     Delete category
// @Description Delete one of the user's own categories; its transactions move to the default category
// @Tags        categories
// @Security    BearerAuth
// @Param       id path int true "Category ID"
// @Success     204 "Category deleted or already gone"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "System category"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	// Deleting a category that is already gone is a no-op.
	if err := h.categoryService.DeleteUserCategory(userID, categoryID); err != nil && !errors.Is(err, apperrors.ErrCategoryNotFound) {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SuggestCategory handles finding the closest category for a provider label
// @Summary     Suggest a category
// @Description Match a free-text label against the known provider mappings
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       direction query string true "Direction (income/expense)"
// @Param       label     query string true "Provider category label"
// @Success     200 {object} services.CategorySuggestion "Suggested category"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/suggest [get]
func (h *CategoryHandler) SuggestCategory(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	direction := models.Direction(c.Query("direction"))
	if !direction.Valid() {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "direction must be 'income' or 'expense'"))
		return
	}
	label := c.Query("label")
	if label == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "label is required"))
		return
	}

	suggestion, err := h.categoryService.SuggestCategory(direction, label)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestion": suggestion})
}
