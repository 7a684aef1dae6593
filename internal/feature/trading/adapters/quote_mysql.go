package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"stocksim_backend/internal/feature/trading/domain/entity"
	"stocksim_backend/internal/feature/trading/usecase"
	platformdb "stocksim_backend/internal/platform/db"
)

// quoteMySQL は約定時に stocks テーブルから現在値を読み込みます。
// 価格更新との間にロックは取らず、読み込んだ時点の価格で約定します。
type quoteMySQL struct {
	db *gorm.DB
}

var _ usecase.StockQuoteReader = (*quoteMySQL)(nil)

// NewQuoteReader はquoteMySQLの新しいインスタンスを生成します。
func NewQuoteReader(db *gorm.DB) *quoteMySQL {
	return &quoteMySQL{db: db}
}

func (r *quoteMySQL) FindQuote(ctx context.Context, stockID string) (*entity.Quote, error) {
	var m quoteModel
	err := platformdb.Conn(ctx, r.db).
		Select("id", "symbol", "name", "sector", "current_price", "is_active", "is_frozen").
		Where("id = ?", stockID).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrStockNotFound
		}
		return nil, translateError(err)
	}
	return &entity.Quote{
		StockID:      m.ID,
		Symbol:       m.Symbol,
		Name:         m.Name,
		Sector:       m.Sector,
		CurrentPrice: m.CurrentPrice,
		IsActive:     m.IsActive,
		IsFrozen:     m.IsFrozen,
	}, nil
}
