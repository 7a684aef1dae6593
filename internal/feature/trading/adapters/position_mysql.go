package adapters

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stocksim_backend/internal/feature/trading/domain/accounting"
	"stocksim_backend/internal/feature/trading/domain/entity"
	"stocksim_backend/internal/feature/trading/usecase"
	platformdb "stocksim_backend/internal/platform/db"
)

// positionMySQL はPositionRepositoryのGORM実装です。
type positionMySQL struct {
	db *gorm.DB
}

var _ usecase.PositionRepository = (*positionMySQL)(nil)

// NewPositionRepository はpositionMySQLの新しいインスタンスを生成します。
func NewPositionRepository(db *gorm.DB) *positionMySQL {
	return &positionMySQL{db: db}
}

func (r *positionMySQL) Find(ctx context.Context, portfolioID, stockID string) (*entity.Position, error) {
	var m PositionModel
	err := platformdb.Conn(ctx, r.db).
		Where("portfolio_id = ? AND stock_id = ?", portfolioID, stockID).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrPositionNotFound
		}
		return nil, translateError(err)
	}
	p := m.toEntity()
	return &p, nil
}

// Create は新しいポジションを保存します。
// 同じ (portfolio, stock) のポジションが同時に作成された場合は ErrConflict を返します。
func (r *positionMySQL) Create(ctx context.Context, p *entity.Position) error {
	m := toPositionModel(p)
	if err := platformdb.Conn(ctx, r.db).Create(&m).Error; err != nil {
		return translateError(err)
	}
	p.CreatedAt, p.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *positionMySQL) Update(ctx context.Context, p *entity.Position) error {
	res := platformdb.Conn(ctx, r.db).Model(&PositionModel{}).Where("id = ?", p.ID).Updates(map[string]any{
		"quantity":          p.Quantity,
		"average_buy_price": p.AverageBuyPrice,
		"current_value":     p.CurrentValue,
		"profit_loss":       p.ProfitLoss,
	})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return usecase.ErrPositionNotFound
	}
	return nil
}

func (r *positionMySQL) Delete(ctx context.Context, id string) error {
	res := platformdb.Conn(ctx, r.db).Where("id = ?", id).Delete(&PositionModel{})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return usecase.ErrPositionNotFound
	}
	return nil
}

// positionViewRow はポジションと銘柄の結合結果です。
type positionViewRow struct {
	ID              string
	PortfolioID     string
	StockID         string
	Quantity        int64
	AverageBuyPrice decimal.Decimal
	CurrentValue    decimal.Decimal
	ProfitLoss      decimal.Decimal
	Symbol          string
	Name            string
	Sector          string
	CurrentPrice    decimal.Decimal
}

func (r *positionMySQL) ListViews(ctx context.Context, portfolioID string) ([]usecase.PositionView, error) {
	var rows []positionViewRow
	err := platformdb.Conn(ctx, r.db).
		Table("positions").
		Select("positions.id, positions.portfolio_id, positions.stock_id, positions.quantity, " +
			"positions.average_buy_price, positions.current_value, positions.profit_loss, " +
			"stocks.symbol, stocks.name, stocks.sector, stocks.current_price").
		Joins("JOIN stocks ON stocks.id = positions.stock_id").
		Where("positions.portfolio_id = ?", portfolioID).
		Order("stocks.symbol ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}

	out := make([]usecase.PositionView, 0, len(rows))
	for _, row := range rows {
		out = append(out, usecase.PositionView{
			Position: entity.Position{
				ID:              row.ID,
				PortfolioID:     row.PortfolioID,
				StockID:         row.StockID,
				Quantity:        row.Quantity,
				AverageBuyPrice: row.AverageBuyPrice,
				CurrentValue:    row.CurrentValue,
				ProfitLoss:      row.ProfitLoss,
			},
			Symbol:       row.Symbol,
			Name:         row.Name,
			Sector:       row.Sector,
			CurrentPrice: row.CurrentPrice,
		})
	}
	return out, nil
}

// RevalueByStock は価格更新後に、その銘柄の全ポジションの評価額と含み損益を更新します。
// 同時に決済が数量を変更しても上書きしないよう、対象行をロックしてから読みます。
// 更新した件数を返します。
func (r *positionMySQL) RevalueByStock(ctx context.Context, stockID string, price decimal.Decimal) (int64, error) {
	conn := platformdb.Conn(ctx, r.db)

	var rows []PositionModel
	err := conn.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("stock_id = ?", stockID).
		Find(&rows).Error
	if err != nil {
		return 0, translateError(err)
	}

	var n int64
	for _, m := range rows {
		p := m.toEntity()
		accounting.Revalue(&p, price)
		res := conn.Model(&PositionModel{}).Where("id = ?", p.ID).Updates(map[string]any{
			"current_value": p.CurrentValue,
			"profit_loss":   p.ProfitLoss,
		})
		if res.Error != nil {
			return n, translateError(res.Error)
		}
		n += res.RowsAffected
	}
	return n, nil
}
