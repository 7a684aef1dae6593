package usecase

import (
	"context"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"stocksim_backend/internal/feature/market/domain/entity"
)

const (
	// DefaultHistoryDays は履歴取得のデフォルト件数です。
	DefaultHistoryDays = 30
	// MaxHistoryDays は履歴取得の最大件数です。
	MaxHistoryDays = 3650
)

// HistoryView は価格履歴と派生統計量をまとめたものです。
type HistoryView struct {
	Stock         *entity.Stock
	Points        []entity.PriceHistoryPoint
	PriceChange   decimal.Decimal // CurrentPrice - PreviousClose
	PercentChange decimal.Decimal // PriceChange / PreviousClose * 100

	// 期間内の騰落率から算出した統計量（点が3つ未満の場合は0）
	RealizedVolatility float64
	MeanReturn         float64
}

// historyUsecase は価格履歴の参照を実装します。
type historyUsecase struct {
	stocks  StockRepository
	history PriceHistoryRepository
}

// NewHistoryUsecase はhistoryUsecaseの新しいインスタンスを生成します。
func NewHistoryUsecase(stocks StockRepository, history PriceHistoryRepository) *historyUsecase {
	return &historyUsecase{stocks: stocks, history: history}
}

// GetHistory は銘柄（IDまたはシンボル）の直近 days 件の価格履歴を時系列順で返します。
func (u *historyUsecase) GetHistory(ctx context.Context, idOrSymbol string, days int) (*HistoryView, error) {
	if days <= 0 {
		days = DefaultHistoryDays
	}
	if days > MaxHistoryDays {
		days = MaxHistoryDays
	}

	s, err := findStock(ctx, u.stocks, idOrSymbol)
	if err != nil {
		return nil, err
	}

	points, err := u.history.Latest(ctx, s.ID, days)
	if err != nil {
		return nil, err
	}

	view := &HistoryView{
		Stock:         s,
		Points:        points,
		PriceChange:   s.CurrentPrice.Sub(s.PreviousClose),
		PercentChange: decimal.Zero,
	}
	if s.PreviousClose.IsPositive() {
		view.PercentChange = view.PriceChange.Div(s.PreviousClose).Mul(decimal.NewFromInt(100)).Round(pricePlaces)
	}

	view.MeanReturn, view.RealizedVolatility = returnStats(points)
	return view, nil
}

// returnStats は連続する価格の単純騰落率の平均と標準偏差を返します。
func returnStats(points []entity.PriceHistoryPoint) (mean, stdDev float64) {
	if len(points) < 3 {
		return 0, 0
	}
	returns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev := points[i-1].Price.InexactFloat64()
		if prev <= 0 {
			continue
		}
		returns = append(returns, points[i].Price.InexactFloat64()/prev-1)
	}
	if len(returns) < 2 {
		return 0, 0
	}
	return stat.MeanStdDev(returns, nil)
}
