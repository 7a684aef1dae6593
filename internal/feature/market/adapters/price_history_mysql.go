package adapters

import (
	"context"

	"gorm.io/gorm"

	"stocksim_backend/internal/feature/market/domain/entity"
	"stocksim_backend/internal/feature/market/usecase"
	platformdb "stocksim_backend/internal/platform/db"
)

// historyBatchSize は一括挿入のバッチサイズです。
const historyBatchSize = 500

type priceHistoryMySQL struct {
	db *gorm.DB
}

var _ usecase.PriceHistoryRepository = (*priceHistoryMySQL)(nil)

// NewPriceHistoryRepository はpriceHistoryMySQLの新しいインスタンスを生成します。
func NewPriceHistoryRepository(db *gorm.DB) *priceHistoryMySQL {
	return &priceHistoryMySQL{db: db}
}

func (r *priceHistoryMySQL) Append(ctx context.Context, points ...entity.PriceHistoryPoint) error {
	if len(points) == 0 {
		return nil
	}
	ms := make([]PriceHistoryModel, 0, len(points))
	for _, p := range points {
		ms = append(ms, toHistoryModel(p))
	}
	return platformdb.Conn(ctx, r.db).CreateInBatches(&ms, historyBatchSize).Error
}

// Latest は新しい順に limit 件取得し、時系列昇順に並べ替えて返します。
func (r *priceHistoryMySQL) Latest(ctx context.Context, stockID string, limit int) ([]entity.PriceHistoryPoint, error) {
	var rows []PriceHistoryModel
	q := platformdb.Conn(ctx, r.db).
		Where("stock_id = ?", stockID).
		Order("recorded_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]entity.PriceHistoryPoint, len(rows))
	for i, m := range rows {
		out[len(rows)-1-i] = m.toEntity()
	}
	return out, nil
}

// ReplaceAll は既存の履歴を削除してから新しい履歴を挿入します。
// 呼び出し側のトランザクション内で実行されることを想定しています。
func (r *priceHistoryMySQL) ReplaceAll(ctx context.Context, stockID string, points []entity.PriceHistoryPoint) error {
	if err := platformdb.Conn(ctx, r.db).Where("stock_id = ?", stockID).Delete(&PriceHistoryModel{}).Error; err != nil {
		return err
	}
	return r.Append(ctx, points...)
}
