package models

import (
	"time"

	"gorm.io/gorm"
)

// Wallet is a bank account linked through the aggregator. Manual
// transactions have no wallet row.
type Wallet struct {
	Base
	UserID       uint           `gorm:"not null;uniqueIndex:idx_wallets_user_plaid" json:"user_id"`
	Name         string         `gorm:"not null" json:"name"`
	SubName      string         `gorm:"not null;default:''" json:"sub_name"`
	PlaidID      *string        `gorm:"uniqueIndex:idx_wallets_user_plaid" json:"plaid_id"`
	LastImport   time.Time      `gorm:"type:date;not null" json:"last_import"`
	Error        *string        `json:"error,omitempty"`
	ErrorDetails *string        `json:"error_details,omitempty"`
	ErrorAt      *time.Time     `json:"error_at,omitempty"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
