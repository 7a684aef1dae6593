package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio groups a user's positions. Each user has exactly one.
type Portfolio struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

// Account is the cash side of a user as seen by settlement.
type Account struct {
	UserID  string
	Balance decimal.Decimal
}

// Quote is the subset of stock state that settlement prices trades against.
type Quote struct {
	StockID      string
	Symbol       string
	Name         string
	Sector       string
	CurrentPrice decimal.Decimal
	IsActive     bool
	IsFrozen     bool
}

// Tradable reports whether the stock accepts orders.
func (q *Quote) Tradable() bool {
	return q.IsActive && !q.IsFrozen
}
