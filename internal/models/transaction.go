package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a ledger entry. Amount is never negative; Direction carries
// the sign. Rows with a WalletID came from an import and keep their
// financial fields fixed.
type Transaction struct {
	Base
	UserID        uint            `gorm:"not null;index:idx_transactions_user_at;uniqueIndex:idx_transactions_dedup" json:"user_id"`
	CategoryID    *uint           `gorm:"index" json:"category_id"`
	CategoryText  string          `gorm:"not null;default:''" json:"category_text"`
	Direction     Direction       `gorm:"size:50;not null;uniqueIndex:idx_transactions_dedup" json:"direction"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null;uniqueIndex:idx_transactions_dedup" json:"amount"`
	Currency      string          `gorm:"size:3;not null;default:'USD';uniqueIndex:idx_transactions_dedup" json:"currency"`
	Note          string          `gorm:"not null;default:''" json:"note"`
	WalletID      *uint           `gorm:"uniqueIndex:idx_transactions_dedup" json:"wallet_id"`
	TransactionAt time.Time       `gorm:"not null;index:idx_transactions_user_at" json:"transaction_at"`
	ExternalID    *string         `gorm:"uniqueIndex:idx_transactions_dedup" json:"external_id"`
	Detail        string          `gorm:"type:text;not null;default:'{}'" json:"-"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"-"`
	Wallet   *Wallet   `gorm:"foreignKey:WalletID" json:"-"`
}

// IsLinked reports whether the transaction belongs to a linked wallet.
func (t *Transaction) IsLinked() bool {
	return t.WalletID != nil
}
