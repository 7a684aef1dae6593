// Package entity defines the domain models for the trading feature.
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a user's holding of one stock within their portfolio.
// A position with zero quantity is never stored.
type Position struct {
	ID              string
	PortfolioID     string
	StockID         string
	Quantity        int64
	AverageBuyPrice decimal.Decimal // Weighted mean cost of the shares held
	CurrentValue    decimal.Decimal // Quantity * last known market price
	ProfitLoss      decimal.Decimal // CurrentValue - Quantity * AverageBuyPrice
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CostBasis returns Quantity * AverageBuyPrice.
func (p *Position) CostBasis() decimal.Decimal {
	return p.AverageBuyPrice.Mul(decimal.NewFromInt(p.Quantity))
}
