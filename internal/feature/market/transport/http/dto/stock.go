// Package dto はmarketフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"stocksim_backend/internal/feature/market/domain/entity"
	"stocksim_backend/internal/feature/market/usecase"
)

// StockRes は銘柄のレスポンス表現です。
type StockRes struct {
	ID                string           `json:"id"`
	Symbol            string           `json:"symbol"`
	Name              string           `json:"name"`
	Sector            string           `json:"sector,omitempty"`
	Description       string           `json:"description,omitempty"`
	CurrentPrice      decimal.Decimal  `json:"currentPrice"`
	PreviousClose     decimal.Decimal  `json:"previousClose"`
	OpenPrice         decimal.Decimal  `json:"openPrice"`
	HighPrice         decimal.Decimal  `json:"highPrice"`
	LowPrice          decimal.Decimal  `json:"lowPrice"`
	Volume            int64            `json:"volume"`
	MarketCap         *decimal.Decimal `json:"marketCap,omitempty"`
	IsActive          bool             `json:"isActive"`
	IsFrozen          bool             `json:"isFrozen"`
	Volatility        float64          `json:"volatility"`
	JumpProbability   float64          `json:"jumpProbability"`
	MaxJumpMultiplier float64          `json:"maxJumpMultiplier"`
	PriceCap          *decimal.Decimal `json:"priceCap,omitempty"`
}

// CreateStockReq は POST /admin/stocks のリクエストボディです。
// isActive を省略した場合は true として扱います。
type CreateStockReq struct {
	Symbol            string           `json:"symbol" binding:"required"`
	Name              string           `json:"name" binding:"required"`
	Sector            string           `json:"sector"`
	Description       string           `json:"description"`
	CurrentPrice      decimal.Decimal  `json:"currentPrice"`
	MarketCap         *decimal.Decimal `json:"marketCap"`
	Volatility        float64          `json:"volatility"`
	JumpProbability   float64          `json:"jumpProbability"`
	MaxJumpMultiplier float64          `json:"maxJumpMultiplier"`
	PriceCap          *decimal.Decimal `json:"priceCap"`
	IsActive          *bool            `json:"isActive"`
}

// UpdateStockReq は PATCH /admin/stocks/:id のリクエストボディです。省略したフィールドは変更しません。
type UpdateStockReq struct {
	Name              *string          `json:"name"`
	Sector            *string          `json:"sector"`
	Description       *string          `json:"description"`
	CurrentPrice      *decimal.Decimal `json:"currentPrice"`
	MarketCap         *decimal.Decimal `json:"marketCap"`
	Volatility        *float64         `json:"volatility"`
	JumpProbability   *float64         `json:"jumpProbability"`
	MaxJumpMultiplier *float64         `json:"maxJumpMultiplier"`
	PriceCap          *decimal.Decimal `json:"priceCap"`
	IsActive          *bool            `json:"isActive"`
	IsFrozen          *bool            `json:"isFrozen"`
}

// BackfillReq は POST /admin/stocks/:id/backfill のリクエストボディです。
type BackfillReq struct {
	Days int `json:"days"`
}

// BackfillRes はバックフィル結果です。
type BackfillRes struct {
	Stock  StockRes `json:"stock"`
	Points int      `json:"points"`
}

// HistoryPointRes は価格履歴の1点です。
type HistoryPointRes struct {
	Price          decimal.Decimal `json:"price"`
	Volume         int64           `json:"volume"`
	Timestamp      string          `json:"timestamp"`
	WasJump        bool            `json:"wasJump"`
	JumpPercentage *float64        `json:"jumpPercentage,omitempty"`
}

// HistoryRes は GET /stocks/:id/history のレスポンスです。
type HistoryRes struct {
	Stock              StockRes          `json:"stock"`
	PriceChange        decimal.Decimal   `json:"priceChange"`
	PercentChange      decimal.Decimal   `json:"percentChange"`
	RealizedVolatility float64           `json:"realizedVolatility"`
	MeanReturn         float64           `json:"meanReturn"`
	History            []HistoryPointRes `json:"history"`
}

func NewStockRes(s *entity.Stock) StockRes {
	return StockRes{
		ID:                s.ID,
		Symbol:            s.Symbol,
		Name:              s.Name,
		Sector:            s.Sector,
		Description:       s.Description,
		CurrentPrice:      s.CurrentPrice,
		PreviousClose:     s.PreviousClose,
		OpenPrice:         s.OpenPrice,
		HighPrice:         s.HighPrice,
		LowPrice:          s.LowPrice,
		Volume:            s.Volume,
		MarketCap:         nullable(s.MarketCap),
		IsActive:          s.IsActive,
		IsFrozen:          s.IsFrozen,
		Volatility:        s.Volatility,
		JumpProbability:   s.JumpProbability,
		MaxJumpMultiplier: s.MaxJumpMultiplier,
		PriceCap:          nullable(s.PriceCap),
	}
}

func NewStocksRes(stocks []entity.Stock) []StockRes {
	out := make([]StockRes, 0, len(stocks))
	for i := range stocks {
		out = append(out, NewStockRes(&stocks[i]))
	}
	return out
}

func NewHistoryRes(v *usecase.HistoryView) HistoryRes {
	out := HistoryRes{
		Stock:              NewStockRes(v.Stock),
		PriceChange:        v.PriceChange,
		PercentChange:      v.PercentChange,
		RealizedVolatility: v.RealizedVolatility,
		MeanReturn:         v.MeanReturn,
		History:            make([]HistoryPointRes, 0, len(v.Points)),
	}
	for _, p := range v.Points {
		out.History = append(out.History, HistoryPointRes{
			Price:          p.Price,
			Volume:         p.Volume,
			Timestamp:      p.Timestamp.UTC().Format(time.RFC3339),
			WasJump:        p.WasJump,
			JumpPercentage: p.JumpPercentage,
		})
	}
	return out
}

// ToInput はリクエストをユースケースの入力に変換します。
func (r CreateStockReq) ToInput() usecase.CreateStockInput {
	in := usecase.CreateStockInput{
		Symbol:            r.Symbol,
		Name:              r.Name,
		Sector:            r.Sector,
		Description:       r.Description,
		CurrentPrice:      r.CurrentPrice,
		Volatility:        r.Volatility,
		JumpProbability:   r.JumpProbability,
		MaxJumpMultiplier: r.MaxJumpMultiplier,
		IsActive:          r.IsActive == nil || *r.IsActive,
	}
	if r.MarketCap != nil {
		in.MarketCap = decimal.NewNullDecimal(*r.MarketCap)
	}
	if r.PriceCap != nil {
		in.PriceCap = decimal.NewNullDecimal(*r.PriceCap)
	}
	return in
}

// ToInput はリクエストをユースケースの入力に変換します。
func (r UpdateStockReq) ToInput() usecase.UpdateStockInput {
	return usecase.UpdateStockInput{
		Name:              r.Name,
		Sector:            r.Sector,
		Description:       r.Description,
		CurrentPrice:      r.CurrentPrice,
		MarketCap:         r.MarketCap,
		Volatility:        r.Volatility,
		JumpProbability:   r.JumpProbability,
		MaxJumpMultiplier: r.MaxJumpMultiplier,
		PriceCap:          r.PriceCap,
		IsActive:          r.IsActive,
		IsFrozen:          r.IsFrozen,
	}
}

func nullable(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
