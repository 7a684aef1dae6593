package usecase

import (
	"context"
	"log/slog"
	"time"

	"stocksim_backend/internal/feature/market/domain/entity"
)

const (
	// tickVolumeMin / tickVolumeMax は1ティックあたりの出来高の範囲です。
	tickVolumeMin = 1_000
	tickVolumeMax = 100_000
)

// TickReport は1回の価格更新の結果です。
type TickReport struct {
	Ticks  []entity.PriceTick
	Failed int
}

// tickUsecase はライブ価格更新（シミュレーターの1ステップ）を実装します。
type tickUsecase struct {
	tx        TxManager
	stocks    StockRepository
	history   PriceHistoryRepository
	revaluer  PositionRevaluer
	publisher TickPublisher
	sim       PriceSimulator
	now       func() time.Time
}

// NewTickUsecase はtickUsecaseの新しいインスタンスを生成します。
// publisher が nil の場合、ティックは配信されません。
func NewTickUsecase(
	tx TxManager,
	stocks StockRepository,
	history PriceHistoryRepository,
	revaluer PositionRevaluer,
	publisher TickPublisher,
	sim PriceSimulator,
) *tickUsecase {
	return &tickUsecase{
		tx:        tx,
		stocks:    stocks,
		history:   history,
		revaluer:  revaluer,
		publisher: publisher,
		sim:       sim,
		now:       time.Now,
	}
}

// Tick は有効かつ凍結されていないすべての銘柄の価格を1ステップ進めます。
// 銘柄ごとに独立したトランザクションで処理し、1銘柄の失敗は他の銘柄に影響しません。
// 配信はコミット後のベストエフォートです。
func (u *tickUsecase) Tick(ctx context.Context) (TickReport, error) {
	stocks, err := u.stocks.ListSimulated(ctx)
	if err != nil {
		return TickReport{}, err
	}

	var report TickReport
	now := u.now().UTC()
	for _, s := range stocks {
		tick, err := u.tickStock(ctx, s.ID, now)
		if err != nil {
			slog.Error("price tick failed", "stock_id", s.ID, "symbol", s.Symbol, "error", err)
			report.Failed++
			continue
		}
		if tick != nil {
			report.Ticks = append(report.Ticks, *tick)
		}
	}

	if len(report.Ticks) > 0 {
		ids := make([]string, 0, len(report.Ticks))
		for _, t := range report.Ticks {
			ids = append(ids, t.StockID)
		}
		invalidateHistory(ctx, u.history, ids...)
	}

	if u.publisher != nil && len(report.Ticks) > 0 {
		if err := u.publisher.PublishTicks(ctx, report.Ticks); err != nil {
			slog.Warn("failed to publish price ticks", "count", len(report.Ticks), "error", err)
		}
	}

	slog.Info("price tick completed", "ticked", len(report.Ticks), "failed", report.Failed)
	return report, nil
}

// tickStock は1銘柄の価格更新・履歴追記・ポジション再評価を1トランザクションで行います。
// 読み込み時点で取引不可になっていた銘柄は nil を返します。
func (u *tickUsecase) tickStock(ctx context.Context, stockID string, now time.Time) (*entity.PriceTick, error) {
	var tick *entity.PriceTick
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		s, err := u.stocks.FindByIDForUpdate(ctx, stockID)
		if err != nil {
			return err
		}
		if !s.Tradable() {
			return nil
		}

		step := u.sim.Next(s.CurrentPrice.InexactFloat64(), simulationParams(s))
		price := toPrice(s, step.Price)
		volume := u.sim.Intn(tickVolumeMin, tickVolumeMax)

		s.PreviousClose = s.CurrentPrice
		s.CurrentPrice = price
		if price.GreaterThan(s.HighPrice) {
			s.HighPrice = price
		}
		if s.LowPrice.IsZero() || price.LessThan(s.LowPrice) {
			s.LowPrice = price
		}
		s.Volume += volume
		if err := u.stocks.Update(ctx, s); err != nil {
			return err
		}

		point := entity.PriceHistoryPoint{
			StockID:   s.ID,
			Price:     price,
			Volume:    volume,
			Timestamp: now,
			WasJump:   step.WasJump,
		}
		if step.WasJump {
			pct := step.JumpPercentage
			point.JumpPercentage = &pct
		}
		if err := u.history.Append(ctx, point); err != nil {
			return err
		}

		if u.revaluer != nil {
			if _, err := u.revaluer.RevalueByStock(ctx, s.ID, price); err != nil {
				return err
			}
		}

		tick = &entity.PriceTick{
			StockID:        s.ID,
			Symbol:         s.Symbol,
			Price:          price,
			PreviousClose:  s.PreviousClose,
			Volume:         volume,
			WasJump:        step.WasJump,
			JumpPercentage: point.JumpPercentage,
			Timestamp:      now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tick, nil
}
