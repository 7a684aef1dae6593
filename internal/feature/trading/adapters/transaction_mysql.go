package adapters

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stocksim_backend/internal/feature/trading/domain/entity"
	"stocksim_backend/internal/feature/trading/usecase"
	platformdb "stocksim_backend/internal/platform/db"
)

// transactionMySQL はTransactionRepositoryのGORM実装です。
type transactionMySQL struct {
	db *gorm.DB
}

var _ usecase.TransactionRepository = (*transactionMySQL)(nil)

// NewTransactionRepository はtransactionMySQLの新しいインスタンスを生成します。
func NewTransactionRepository(db *gorm.DB) *transactionMySQL {
	return &transactionMySQL{db: db}
}

func (r *transactionMySQL) Create(ctx context.Context, tx *entity.Transaction) error {
	m := toTransactionModel(tx)
	return translateError(platformdb.Conn(ctx, r.db).Create(&m).Error)
}

// transactionViewRow は取引と銘柄の結合結果です。
type transactionViewRow struct {
	TransactionModel
	Symbol string
	Name   string
}

func (r *transactionMySQL) ListViews(ctx context.Context, userID string, tradeType entity.TradeType, limit int) ([]usecase.TransactionView, error) {
	q := platformdb.Conn(ctx, r.db).
		Table("transactions").
		Select("transactions.*, stocks.symbol, stocks.name").
		Joins("LEFT JOIN stocks ON stocks.id = transactions.stock_id").
		Where("transactions.user_id = ?", userID)
	if tradeType != "" {
		q = q.Where("transactions.type = ?", string(tradeType))
	}
	q = q.Order("transactions.executed_at DESC").Order("transactions.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []transactionViewRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	out := make([]usecase.TransactionView, 0, len(rows))
	for _, row := range rows {
		out = append(out, usecase.TransactionView{
			Transaction: row.TransactionModel.toEntity(),
			Symbol:      row.Symbol,
			Name:        row.Name,
		})
	}
	return out, nil
}

// realizedRow は銘柄ごとの実現損益の集計結果です。
type realizedRow struct {
	StockID string
	Symbol  string
	Name    string
	Amount  decimal.NullDecimal
}

func (r *transactionMySQL) RealizedByStock(ctx context.Context, userID string) ([]usecase.RealizedPnL, error) {
	var rows []realizedRow
	err := platformdb.Conn(ctx, r.db).
		Table("transactions").
		Select("transactions.stock_id AS stock_id, stocks.symbol AS symbol, stocks.name AS name, SUM(transactions.profit_loss) AS amount").
		Joins("LEFT JOIN stocks ON stocks.id = transactions.stock_id").
		Where("transactions.user_id = ? AND transactions.type = ?", userID, string(entity.TradeSell)).
		Group("transactions.stock_id, stocks.symbol, stocks.name").
		Order("transactions.stock_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}

	out := make([]usecase.RealizedPnL, 0, len(rows))
	for _, row := range rows {
		amount := decimal.Zero
		if row.Amount.Valid {
			amount = row.Amount.Decimal
		}
		out = append(out, usecase.RealizedPnL{StockID: row.StockID, Symbol: row.Symbol, Name: row.Name, Amount: amount})
	}
	return out, nil
}

// ExistsForStock は銘柄を参照する取引が1件でもあるかを返します。
func (r *transactionMySQL) ExistsForStock(ctx context.Context, stockID string) (bool, error) {
	var ids []string
	err := platformdb.Conn(ctx, r.db).Model(&TransactionModel{}).
		Where("stock_id = ?", stockID).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}
