package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceHistoryPoint is an immutable simulated price observation.
// Points are append-only and ordered by Timestamp per stock.
type PriceHistoryPoint struct {
	StockID        string
	Price          decimal.Decimal
	Volume         int64
	Timestamp      time.Time
	WasJump        bool
	JumpPercentage *float64 // Set only when WasJump is true
}

// PriceTick is the event emitted after a live simulator step is committed.
type PriceTick struct {
	StockID        string          `json:"stockId"`
	Symbol         string          `json:"symbol"`
	Price          decimal.Decimal `json:"price"`
	PreviousClose  decimal.Decimal `json:"previousClose"`
	Volume         int64           `json:"volume"`
	WasJump        bool            `json:"wasJump"`
	JumpPercentage *float64        `json:"jumpPercentage,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}
