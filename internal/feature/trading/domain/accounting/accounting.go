// Package accounting holds the position arithmetic applied by settlement.
// Averages follow the weighted-average cost method: buys blend the trade
// price into the average, sells never change it.
package accounting

import (
	"errors"

	"github.com/shopspring/decimal"

	"stocksim_backend/internal/feature/trading/domain/entity"
)

// AveragePricePlaces is the scale kept for AverageBuyPrice.
const AveragePricePlaces = 8

var (
	ErrNonPositiveQuantity = errors.New("quantity must be positive")
	ErrInsufficientShares  = errors.New("insufficient shares")
)

// ApplyBuy returns the position after buying qty shares at tradePrice.
// existing may be nil when the user holds no shares. The position is valued
// at marketPrice. The input is not modified.
func ApplyBuy(existing *entity.Position, qty int64, tradePrice, marketPrice decimal.Decimal) (entity.Position, error) {
	if qty <= 0 {
		return entity.Position{}, ErrNonPositiveQuantity
	}

	var next entity.Position
	if existing == nil || existing.Quantity == 0 {
		next = entity.Position{Quantity: qty, AverageBuyPrice: tradePrice}
		if existing != nil {
			next.ID, next.PortfolioID, next.StockID = existing.ID, existing.PortfolioID, existing.StockID
			next.CreatedAt = existing.CreatedAt
		}
	} else {
		next = *existing
		oldQty := decimal.NewFromInt(existing.Quantity)
		addQty := decimal.NewFromInt(qty)
		totalQty := existing.Quantity + qty

		cost := existing.AverageBuyPrice.Mul(oldQty).Add(tradePrice.Mul(addQty))
		next.Quantity = totalQty
		next.AverageBuyPrice = cost.DivRound(decimal.NewFromInt(totalQty), AveragePricePlaces)
	}

	Revalue(&next, marketPrice)
	return next, nil
}

// ApplySell returns the position after selling qty shares at tradePrice and
// the realized P&L of the sale. The returned position is nil when the sale
// closes it. AverageBuyPrice is carried over unchanged.
func ApplySell(existing entity.Position, qty int64, tradePrice, marketPrice decimal.Decimal) (*entity.Position, decimal.Decimal, error) {
	if qty <= 0 {
		return nil, decimal.Zero, ErrNonPositiveQuantity
	}
	if existing.Quantity < qty {
		return nil, decimal.Zero, ErrInsufficientShares
	}

	realized := RealizedPnL(existing.AverageBuyPrice, tradePrice, qty)
	if existing.Quantity == qty {
		return nil, realized, nil
	}

	next := existing
	next.Quantity = existing.Quantity - qty
	Revalue(&next, marketPrice)
	return &next, realized, nil
}

// RealizedPnL is (tradePrice - averageBuyPrice) * qty.
func RealizedPnL(averageBuyPrice, tradePrice decimal.Decimal, qty int64) decimal.Decimal {
	return tradePrice.Sub(averageBuyPrice).Mul(decimal.NewFromInt(qty))
}

// Revalue sets CurrentValue and ProfitLoss of p at marketPrice.
func Revalue(p *entity.Position, marketPrice decimal.Decimal) {
	p.CurrentValue = marketPrice.Mul(decimal.NewFromInt(p.Quantity))
	p.ProfitLoss = p.CurrentValue.Sub(p.CostBasis())
}
