package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"stocksim_backend/internal/app/di"
	marketentity "stocksim_backend/internal/feature/market/domain/entity"
	"stocksim_backend/internal/feature/market/transport/handler"
	marketusecase "stocksim_backend/internal/feature/market/usecase"
)

type stockEnsurer interface {
	EnsureStock(ctx context.Context, in marketusecase.CreateStockInput) (*marketentity.Stock, bool, error)
}

// seed はカタログの銘柄を作成（既存ならシンボルで再利用）し、それぞれの履歴を生成します。
// 1銘柄でも失敗した場合は残りを処理したうえでエラーを返します。
func seed(ctx context.Context, app *di.App, inputs []marketusecase.CreateStockInput, days int, out io.Writer) error {
	return seedWith(ctx, app.Stocks, app.Backfill, inputs, days, out)
}

func seedWith(ctx context.Context, stocks stockEnsurer, backfill handler.BackfillUsecase, inputs []marketusecase.CreateStockInput, days int, out io.Writer) error {
	failed := 0
	for _, in := range inputs {
		s, created, err := stocks.EnsureStock(ctx, in)
		if err != nil {
			slog.Error("failed to ensure stock", "symbol", in.Symbol, "error", err)
			failed++
			continue
		}
		res, err := backfill.Backfill(ctx, s.ID, days)
		if err != nil {
			slog.Error("failed to backfill stock", "stock_id", s.ID, "symbol", s.Symbol, "error", err)
			failed++
			continue
		}
		state := "existing"
		if created {
			state = "created"
		}
		fmt.Fprintf(out, "%-8s %-8s %d points, price %s\n", s.Symbol, state, res.Points, res.Stock.CurrentPrice.StringFixed(4))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d stock(s) failed", failed, len(inputs))
	}
	return nil
}
