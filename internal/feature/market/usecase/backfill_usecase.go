package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stocksim_backend/internal/feature/market/domain/entity"
)

const (
	// DefaultBackfillDays はシード時に生成する履歴の日数です。
	DefaultBackfillDays = 45

	// 日次出来高の範囲
	backfillVolumeMin = 100_000
	backfillVolumeMax = 30_000_000
)

// BackfillResult は履歴生成の結果です。
type BackfillResult struct {
	Stock  *entity.Stock
	Points int
}

// backfillUsecase はシード・デモ用の価格履歴を一括生成します。
type backfillUsecase struct {
	tx      TxManager
	stocks  StockRepository
	history PriceHistoryRepository
	sim     PriceSimulator
	now     func() time.Time
}

// NewBackfillUsecase はbackfillUsecaseの新しいインスタンスを生成します。
func NewBackfillUsecase(tx TxManager, stocks StockRepository, history PriceHistoryRepository, sim PriceSimulator) *backfillUsecase {
	return &backfillUsecase{
		tx:      tx,
		stocks:  stocks,
		history: history,
		sim:     sim,
		now:     time.Now,
	}
}

// Backfill は銘柄の現在値から days+1 個の日次価格を生成し、既存の履歴を置き換えます。
// 最後の点が現在値、その1つ前が前日終値になります。
func (u *backfillUsecase) Backfill(ctx context.Context, stockID string, days int) (*BackfillResult, error) {
	if days <= 0 {
		return nil, ErrInvalidBackfill
	}

	var result *BackfillResult
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		s, err := u.stocks.FindByIDForUpdate(ctx, stockID)
		if err != nil {
			return err
		}

		points := u.generate(s, days)
		if err := u.history.ReplaceAll(ctx, s.ID, points); err != nil {
			return fmt.Errorf("failed to replace history: %w", err)
		}

		last := points[len(points)-1]
		s.CurrentPrice = last.Price
		s.PreviousClose = points[len(points)-2].Price
		s.OpenPrice = points[0].Price
		s.HighPrice, s.LowPrice = last.Price, last.Price
		for _, p := range points {
			if p.Price.GreaterThan(s.HighPrice) {
				s.HighPrice = p.Price
			}
			if p.Price.LessThan(s.LowPrice) {
				s.LowPrice = p.Price
			}
		}
		s.Volume = last.Volume
		if err := u.stocks.Update(ctx, s); err != nil {
			return err
		}

		result = &BackfillResult{Stock: s, Points: len(points)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidateHistory(ctx, u.history, result.Stock.ID)

	slog.Info("price history backfilled",
		"stock_id", result.Stock.ID,
		"symbol", result.Stock.Symbol,
		"points", result.Points,
		"current_price", result.Stock.CurrentPrice.String(),
	)
	return result, nil
}

// generate は現在から days 日前を起点に1日間隔の価格履歴を生成します。
func (u *backfillUsecase) generate(s *entity.Stock, days int) []entity.PriceHistoryPoint {
	now := u.now().UTC()
	steps := u.sim.Path(s.CurrentPrice.InexactFloat64(), simulationParams(s), days+1)

	points := make([]entity.PriceHistoryPoint, 0, len(steps))
	for i, step := range steps {
		p := entity.PriceHistoryPoint{
			StockID:   s.ID,
			Price:     toPrice(s, step.Price),
			Volume:    u.sim.Intn(backfillVolumeMin, backfillVolumeMax),
			Timestamp: now.AddDate(0, 0, i-days),
			WasJump:   step.WasJump,
		}
		if step.WasJump {
			pct := step.JumpPercentage
			p.JumpPercentage = &pct
		}
		points = append(points, p)
	}
	return points
}
