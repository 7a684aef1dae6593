// Package entity defines the domain models for the market feature.
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock is a synthetic instrument whose price is driven by the simulator.
// CurrentPrice is always positive and never above PriceCap when a cap is set.
type Stock struct {
	ID          string
	Symbol      string // Ticker symbol, upper case (e.g., "AAPL")
	Name        string
	Sector      string
	Description string

	CurrentPrice  decimal.Decimal
	PreviousClose decimal.Decimal
	OpenPrice     decimal.Decimal
	HighPrice     decimal.Decimal
	LowPrice      decimal.Decimal
	Volume        int64
	MarketCap     decimal.NullDecimal

	IsActive bool // Tradable at all
	IsFrozen bool // Temporarily halted

	// Simulation parameters
	Volatility        float64             // Per-tick relative half-width of the diffusive move
	JumpProbability   float64             // Chance of a discontinuous move per tick
	MaxJumpMultiplier float64             // Upper bound (exclusive) of the jump size multiplier
	PriceCap          decimal.NullDecimal // Hard ceiling, if any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tradable reports whether orders may be settled against this stock.
func (s *Stock) Tradable() bool {
	return s.IsActive && !s.IsFrozen
}

// ClampToCap returns price limited to the stock's cap, if one is configured.
func (s *Stock) ClampToCap(price decimal.Decimal) decimal.Decimal {
	if s.PriceCap.Valid && price.GreaterThan(s.PriceCap.Decimal) {
		return s.PriceCap.Decimal
	}
	return price
}
