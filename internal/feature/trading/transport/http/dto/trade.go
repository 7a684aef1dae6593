// Package dto はtradingフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

import (
	"github.com/shopspring/decimal"

	"stocksim_backend/internal/feature/trading/domain/entity"
	"stocksim_backend/internal/feature/trading/usecase"
)

// TradeReq は /trades/buy, /trades/sell のリクエストボディです。
// 数量の検証は約定エンジン側で行い、InvalidInput として返します。
type TradeReq struct {
	StockID  string `json:"stockId" binding:"required"`
	Quantity int64  `json:"quantity"`
}

// PositionRes はポジションのレスポンス表現です。
type PositionRes struct {
	ID              string           `json:"id"`
	StockID         string           `json:"stockId"`
	Symbol          string           `json:"symbol,omitempty"`
	Name            string           `json:"name,omitempty"`
	Sector          string           `json:"sector,omitempty"`
	Quantity        int64            `json:"quantity"`
	AverageBuyPrice decimal.Decimal  `json:"averageBuyPrice"`
	CurrentPrice    *decimal.Decimal `json:"currentPrice,omitempty"`
	CurrentValue    decimal.Decimal  `json:"currentValue"`
	ProfitLoss      decimal.Decimal  `json:"profitLoss"`
}

// TradeRes は約定結果のレスポンスです。status は ok / rejected / failed のいずれかです。
type TradeRes struct {
	Status        string           `json:"status"`
	TransactionID string           `json:"transactionId,omitempty"`
	NewBalance    *decimal.Decimal `json:"newBalance,omitempty"`
	Position      *PositionRes     `json:"position,omitempty"`
	RealizedPnL   *decimal.Decimal `json:"realizedPnL,omitempty"`
	Reason        string           `json:"reason,omitempty"`
}

// NewTradeRes は約定結果をレスポンスに変換します。内部エラーは含めません。
func NewTradeRes(res usecase.Result) TradeRes {
	out := TradeRes{Status: string(res.Status)}
	if res.Status != usecase.StatusOK {
		out.Reason = string(res.Reason)
		return out
	}
	balance := res.NewBalance
	out.TransactionID = res.TransactionID
	out.NewBalance = &balance
	if res.RealizedPnL.Valid {
		pnl := res.RealizedPnL.Decimal
		out.RealizedPnL = &pnl
	}
	if res.NewPosition != nil {
		p := NewPositionRes(*res.NewPosition)
		out.Position = &p
	}
	return out
}

// NewPositionRes はエンティティからレスポンスを生成します。
func NewPositionRes(p entity.Position) PositionRes {
	return PositionRes{
		ID:              p.ID,
		StockID:         p.StockID,
		Quantity:        p.Quantity,
		AverageBuyPrice: p.AverageBuyPrice,
		CurrentValue:    p.CurrentValue,
		ProfitLoss:      p.ProfitLoss,
	}
}
