package services

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"gorm.io/gorm"

	apperrors "budgeting/internal/errors"
	"budgeting/internal/models"
)

// suggestionThreshold is the largest normalized edit distance accepted as a match.
const suggestionThreshold = 0.4

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// visibleCategories restricts a category query to system categories and the user's own.
func visibleCategories(db *gorm.DB, userID uint) *gorm.DB {
	return db.Where("(categories.user_id IS NULL OR categories.user_id = ?)", userID)
}

// ListCategories returns the categories visible to a user, optionally filtered by direction.
func (s *categoryService) ListCategories(userID uint, directions []models.Direction) ([]models.Category, error) {
	q := visibleCategories(s.db.Model(&models.Category{}), userID)
	if len(directions) > 0 {
		q = q.Where("categories.direction IN ?", directions)
	}

	var categories []models.Category
	if err := q.Order("categories.sort_order, categories.id").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// ListGroups returns the category groups with their visible categories.
// Groups with no category left after filtering are omitted.
func (s *categoryService) ListGroups(userID uint, directions []models.Direction) ([]models.CategoryGroup, error) {
	var groups []models.CategoryGroup
	err := s.db.
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			q := visibleCategories(db, userID)
			if len(directions) > 0 {
				q = q.Where("categories.direction IN ?", directions)
			}
			return q.Order("categories.sort_order, categories.id")
		}).
		Order("sort_order, id").
		Find(&groups).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := make([]models.CategoryGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.Categories) > 0 {
			result = append(result, g)
		}
	}
	return result, nil
}

// GetCategory retrieves a category visible to the user.
func (s *categoryService) GetCategory(userID, categoryID uint) (*models.Category, error) {
	var category models.Category
	if err := visibleCategories(s.db, userID).Where("categories.id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// CreateCategory creates a category owned by the user.
func (s *categoryService) CreateCategory(userID uint, input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if !input.Direction.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "direction must be income or expense")
	}
	if err := s.ensureGroup(input.GroupID); err != nil {
		return nil, err
	}

	groupID := input.GroupID
	category := &models.Category{
		Name:        name,
		Description: input.Description,
		Code:        models.CategoryCodeManual,
		Direction:   input.Direction,
		Order:       input.Order,
		GroupID:     &groupID,
		UserID:      &userID,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// UpdateCategory updates a category owned by the user.
func (s *categoryService) UpdateCategory(userID, categoryID uint, input CategoryUpdate) (*models.Category, error) {
	category, err := s.ownedCategory(s.db, userID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.GroupID != nil {
		if err := s.ensureGroup(*input.GroupID); err != nil {
			return nil, err
		}
		updates["group_id"] = *input.GroupID
	}
	if input.Order != nil {
		updates["sort_order"] = *input.Order
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	var refreshed models.Category
	if err := s.db.First(&refreshed, category.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &refreshed, nil
}

// DeleteUserCategory moves the user's transactions in the category to the
// direction's default category and then removes the category, atomically.
func (s *categoryService) DeleteUserCategory(userID, categoryID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		category, err := s.ownedCategory(tx, userID, categoryID)
		if err != nil {
			return err
		}

		def, err := findDefaultCategory(tx, category.Direction)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND direction = ? AND category_id = ?", userID, category.Direction, category.ID).
			Updates(map[string]interface{}{
				"category_id": def.ID,
				"updated_at":  time.Now().UTC(),
			}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Unscoped().Delete(&models.Category{}, category.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// DefaultCategory returns the fallback category of a direction.
func (s *categoryService) DefaultCategory(direction models.Direction) (*models.Category, error) {
	return findDefaultCategory(s.db, direction)
}

// SuggestCategory finds the mapping label closest to label and returns its
// category, or the default category when nothing is close enough.
func (s *categoryService) SuggestCategory(direction models.Direction, label string) (*CategorySuggestion, error) {
	def, err := findDefaultCategory(s.db, direction)
	if err != nil {
		return nil, err
	}
	suggestion := &CategorySuggestion{Label: label, Category: *def}

	needle := strings.ToUpper(strings.TrimSpace(label))
	if needle == "" {
		return suggestion, nil
	}

	var mappings []models.CategoryMapping
	if err := s.db.InnerJoins("Category", s.db.Where(&models.Category{Direction: direction})).
		Order("category_mappings.id").
		Find(&mappings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	best := -1.0
	for _, m := range mappings {
		sim := labelSimilarity(needle, strings.ToUpper(m.Name))
		if sim > best {
			best = sim
			if 1-sim < suggestionThreshold {
				suggestion.MatchedMapping = m.Name
				suggestion.Similarity = sim
				suggestion.Category = m.Category
			}
		}
	}
	return suggestion, nil
}

// labelSimilarity is 1 minus the edit distance normalized by the longer label.
func labelSimilarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// ownedCategory loads a category for modification. System categories and
// categories of other users are rejected.
func (s *categoryService) ownedCategory(db *gorm.DB, userID, categoryID uint) (*models.Category, error) {
	var category models.Category
	if err := db.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if category.UserID == nil {
		return nil, apperrors.ErrCategoryNotOwned
	}
	if *category.UserID != userID {
		return nil, apperrors.ErrCategoryNotFound
	}
	return &category, nil
}

func (s *categoryService) ensureGroup(groupID uint) error {
	if groupID == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "group_id is required")
	}
	var count int64
	if err := s.db.Model(&models.CategoryGroup{}).Where("id = ?", groupID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrCategoryGroupNotFound
	}
	return nil
}
