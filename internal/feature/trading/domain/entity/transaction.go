package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeType is the side of a settled trade.
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// Valid reports whether t is a known trade side.
func (t TradeType) Valid() bool {
	return t == TradeBuy || t == TradeSell
}

// Transaction is an immutable ledger entry written once per settled trade.
// ProfitLoss is set only for sells and holds the realized P&L.
type Transaction struct {
	ID          string
	UserID      string
	StockID     string
	Type        TradeType
	Quantity    int64
	Price       decimal.Decimal
	TotalAmount decimal.Decimal
	ProfitLoss  decimal.NullDecimal
	Timestamp   time.Time
}
