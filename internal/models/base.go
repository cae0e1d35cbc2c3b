package models

import (
	"time"
)

// Base contains common columns for all tables
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Direction says whether money came in or went out.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// Directions lists every valid direction in a stable order.
var Directions = []Direction{DirectionIncome, DirectionExpense}

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionIncome || d == DirectionExpense
}
