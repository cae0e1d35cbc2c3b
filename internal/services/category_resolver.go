package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "budgeting/internal/errors"
	"budgeting/internal/models"
)

// CategoryResolver picks an internal category for aggregator category tags.
// It is a snapshot of the mappings taken when it was loaded; load a new one
// for every import run.
type CategoryResolver struct {
	mappings map[models.Direction]map[string]*models.Category
	defaults map[models.Direction]*models.Category
}

// LoadCategoryResolver snapshots the mapping table and the default categories.
func LoadCategoryResolver(db *gorm.DB) (*CategoryResolver, error) {
	r := &CategoryResolver{
		mappings: make(map[models.Direction]map[string]*models.Category, len(models.Directions)),
		defaults: make(map[models.Direction]*models.Category, len(models.Directions)),
	}

	for _, d := range models.Directions {
		def, err := findDefaultCategory(db, d)
		if err != nil {
			return nil, err
		}
		r.defaults[d] = def
		r.mappings[d] = make(map[string]*models.Category)
	}

	var mappings []models.CategoryMapping
	if err := db.InnerJoins("Category").Order("category_mappings.id").Find(&mappings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range mappings {
		m := &mappings[i]
		byLabel, ok := r.mappings[m.Category.Direction]
		if !ok {
			continue
		}
		if _, seen := byLabel[m.Name]; !seen {
			cat := m.Category
			byLabel[m.Name] = &cat
		}
	}

	return r, nil
}

// Resolve returns the category of the most specific mapped tag. Tags arrive
// most general first, so they are tried in reverse. Without a match the
// direction's default category is returned.
func (r *CategoryResolver) Resolve(direction models.Direction, tags []string) *models.Category {
	byLabel := r.mappings[direction]
	for i := len(tags) - 1; i >= 0; i-- {
		if cat, ok := byLabel[tags[i]]; ok {
			return cat
		}
	}
	return r.defaults[direction]
}

// Default returns the fallback category for direction.
func (r *CategoryResolver) Default(direction models.Direction) *models.Category {
	return r.defaults[direction]
}

// findDefaultCategory loads the system "others" category of a direction.
func findDefaultCategory(db *gorm.DB, direction models.Direction) (*models.Category, error) {
	var cat models.Category
	err := db.Where("code = ? AND direction = ? AND user_id IS NULL", models.CategoryCodeOthers, direction).
		Order("id").
		First(&cat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrDefaultCategoryMissing, "no default category for "+string(direction))
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &cat, nil
}
