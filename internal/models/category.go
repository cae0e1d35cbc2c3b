package models

import "gorm.io/gorm"

const (
	// CategoryCodeOthers marks the per-direction fallback category.
	CategoryCodeOthers = "others"
	// CategoryCodeManual marks categories created by users.
	CategoryCodeManual = "manual"
)

// CategoryGroup groups categories for display.
type CategoryGroup struct {
	Base
	Name      string         `gorm:"not null" json:"name"`
	Order     int            `gorm:"column:sort_order;not null;default:0" json:"order"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Categories []Category `gorm:"foreignKey:GroupID" json:"categories"`
}

// Category is a system category (UserID nil) or one owned by a single user.
type Category struct {
	Base
	Name        string         `gorm:"not null" json:"name"`
	Description string         `gorm:"not null;default:''" json:"description"`
	Code        string         `gorm:"size:50;not null;index" json:"code"`
	Direction   Direction      `gorm:"size:50;not null;index" json:"direction"`
	Order       int            `gorm:"column:sort_order;not null;default:0" json:"order"`
	GroupID     *uint          `json:"group_id"`
	UserID      *uint          `gorm:"index" json:"user_id"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsSystem reports whether the category is shared by all users.
func (c *Category) IsSystem() bool {
	return c.UserID == nil
}

// IsDefault reports whether the category is a direction's fallback.
func (c *Category) IsDefault() bool {
	return c.Code == CategoryCodeOthers
}

// CategoryMapping maps an aggregator's free-text category label to a category.
type CategoryMapping struct {
	Base
	Name       string `gorm:"not null;index" json:"name"`
	CategoryID uint   `gorm:"not null;index" json:"category_id"`

	Category Category `gorm:"foreignKey:CategoryID" json:"-"`
}
