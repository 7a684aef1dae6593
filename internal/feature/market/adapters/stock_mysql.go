package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stocksim_backend/internal/feature/market/domain/entity"
	"stocksim_backend/internal/feature/market/usecase"
	platformdb "stocksim_backend/internal/platform/db"
)

// stockMySQL はStockRepositoryのGORM実装です。
// コンテキストにトランザクションがあればそれを使用します。
type stockMySQL struct {
	db *gorm.DB
}

var _ usecase.StockRepository = (*stockMySQL)(nil)

// NewStockRepository はstockMySQLの新しいインスタンスを生成します。
func NewStockRepository(db *gorm.DB) *stockMySQL {
	return &stockMySQL{db: db}
}

func (r *stockMySQL) Create(ctx context.Context, s *entity.Stock) error {
	m := toStockModel(s)
	if err := platformdb.Conn(ctx, r.db).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return usecase.ErrSymbolExists
		}
		return err
	}
	s.CreatedAt, s.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *stockMySQL) Update(ctx context.Context, s *entity.Stock) error {
	m := toStockModel(s)
	res := platformdb.Conn(ctx, r.db).Model(&StockModel{}).Where("id = ?", s.ID).
		Select("*").Omit("id", "created_at").Updates(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrStockNotFound
	}
	s.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *stockMySQL) Delete(ctx context.Context, id string) error {
	conn := platformdb.Conn(ctx, r.db)
	if err := conn.Where("stock_id = ?", id).Delete(&PriceHistoryModel{}).Error; err != nil {
		return err
	}
	res := conn.Where("id = ?", id).Delete(&StockModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrStockNotFound
	}
	return nil
}

func (r *stockMySQL) FindByID(ctx context.Context, id string) (*entity.Stock, error) {
	return r.first(platformdb.Conn(ctx, r.db).Where("id = ?", id))
}

// FindByIDForUpdate は SELECT ... FOR UPDATE で行ロックを取得します。
// SQLiteではロック句は無視され、データベース全体の書き込みロックで直列化されます。
func (r *stockMySQL) FindByIDForUpdate(ctx context.Context, id string) (*entity.Stock, error) {
	return r.first(platformdb.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func (r *stockMySQL) FindBySymbol(ctx context.Context, symbol string) (*entity.Stock, error) {
	return r.first(platformdb.Conn(ctx, r.db).Where("symbol = ?", symbol))
}

func (r *stockMySQL) List(ctx context.Context) ([]entity.Stock, error) {
	return r.find(platformdb.Conn(ctx, r.db).Order("symbol ASC"))
}

func (r *stockMySQL) ListSimulated(ctx context.Context) ([]entity.Stock, error) {
	return r.find(platformdb.Conn(ctx, r.db).Where("is_active = ? AND is_frozen = ?", true, false).Order("symbol ASC"))
}

func (r *stockMySQL) first(q *gorm.DB) (*entity.Stock, error) {
	var m StockModel
	if err := q.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrStockNotFound
		}
		return nil, err
	}
	s := m.toEntity()
	return &s, nil
}

func (r *stockMySQL) find(q *gorm.DB) ([]entity.Stock, error) {
	var rows []StockModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Stock, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toEntity())
	}
	return out, nil
}
