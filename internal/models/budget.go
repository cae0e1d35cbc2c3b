package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget caps spend in one category and wallet scope over [FromDate, ToDate].
// A nil WalletID scopes the budget to manual transactions.
type Budget struct {
	Base
	UserID     uint            `gorm:"not null;index" json:"user_id"`
	CategoryID uint            `gorm:"not null;index" json:"category_id"`
	WalletID   *uint           `json:"wallet_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	FromDate   time.Time       `gorm:"type:date;not null" json:"from_date"`
	ToDate     time.Time       `gorm:"type:date;not null;index" json:"to_date"`

	Category Category `gorm:"foreignKey:CategoryID" json:"-"`
	Wallet   *Wallet  `gorm:"foreignKey:WalletID" json:"-"`
}
