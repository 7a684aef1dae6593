// Package adapters はtradingフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"time"

	"github.com/shopspring/decimal"

	"stocksim_backend/internal/feature/trading/domain/entity"
)

// accountModel は users テーブルのうち約定に必要な列だけを扱う射影です。
// テーブル自体は authフィーチャーが所有します。
type accountModel struct {
	ID      string          `gorm:"primaryKey;size:36"`
	Balance decimal.Decimal `gorm:"type:decimal(20,4);not null"`
}

func (accountModel) TableName() string {
	return "users"
}

// quoteModel は stocks テーブルの読み取り専用射影です。
// テーブル自体は marketフィーチャーが所有します。
type quoteModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	Symbol       string
	Name         string
	Sector       string
	CurrentPrice decimal.Decimal `gorm:"type:decimal(20,4)"`
	IsActive     bool
	IsFrozen     bool
}

func (quoteModel) TableName() string {
	return "stocks"
}

// PortfolioModel は portfolios テーブルのGORMモデルです。
type PortfolioModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:36;not null;uniqueIndex"`
	CreatedAt time.Time
}

func (PortfolioModel) TableName() string {
	return "portfolios"
}

func (m PortfolioModel) toEntity() entity.Portfolio {
	return entity.Portfolio{ID: m.ID, UserID: m.UserID, CreatedAt: m.CreatedAt}
}

// PositionModel は positions テーブルのGORMモデルです。
// (portfolio_id, stock_id) に一意制約があります。
type PositionModel struct {
	ID              string          `gorm:"primaryKey;size:36"`
	PortfolioID     string          `gorm:"size:36;not null;uniqueIndex:idx_position_portfolio_stock,priority:1"`
	StockID         string          `gorm:"size:36;not null;uniqueIndex:idx_position_portfolio_stock,priority:2;index"`
	Quantity        int64           `gorm:"not null"`
	AverageBuyPrice decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	CurrentValue    decimal.Decimal `gorm:"type:decimal(24,4);not null"`
	ProfitLoss      decimal.Decimal `gorm:"type:decimal(24,4);not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (PositionModel) TableName() string {
	return "positions"
}

func toPositionModel(e *entity.Position) PositionModel {
	return PositionModel{
		ID:              e.ID,
		PortfolioID:     e.PortfolioID,
		StockID:         e.StockID,
		Quantity:        e.Quantity,
		AverageBuyPrice: e.AverageBuyPrice,
		CurrentValue:    e.CurrentValue,
		ProfitLoss:      e.ProfitLoss,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func (m PositionModel) toEntity() entity.Position {
	return entity.Position{
		ID:              m.ID,
		PortfolioID:     m.PortfolioID,
		StockID:         m.StockID,
		Quantity:        m.Quantity,
		AverageBuyPrice: m.AverageBuyPrice,
		CurrentValue:    m.CurrentValue,
		ProfitLoss:      m.ProfitLoss,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// TransactionModel は transactions テーブルのGORMモデルです。追記のみで更新・削除はしません。
type TransactionModel struct {
	ID          string              `gorm:"primaryKey;size:36"`
	UserID      string              `gorm:"size:36;not null;index:idx_tx_user_time,priority:1"`
	StockID     string              `gorm:"size:36;not null;index"`
	Type        string              `gorm:"size:4;not null"`
	Quantity    int64               `gorm:"not null"`
	Price       decimal.Decimal     `gorm:"type:decimal(20,4);not null"`
	TotalAmount decimal.Decimal     `gorm:"type:decimal(24,4);not null"`
	ProfitLoss  decimal.NullDecimal `gorm:"type:decimal(24,4)"`
	Timestamp   time.Time           `gorm:"column:executed_at;not null;index:idx_tx_user_time,priority:2"`
}

func (TransactionModel) TableName() string {
	return "transactions"
}

func toTransactionModel(e *entity.Transaction) TransactionModel {
	return TransactionModel{
		ID:          e.ID,
		UserID:      e.UserID,
		StockID:     e.StockID,
		Type:        string(e.Type),
		Quantity:    e.Quantity,
		Price:       e.Price,
		TotalAmount: e.TotalAmount,
		ProfitLoss:  e.ProfitLoss,
		Timestamp:   e.Timestamp,
	}
}

func (m TransactionModel) toEntity() entity.Transaction {
	return entity.Transaction{
		ID:          m.ID,
		UserID:      m.UserID,
		StockID:     m.StockID,
		Type:        entity.TradeType(m.Type),
		Quantity:    m.Quantity,
		Price:       m.Price,
		TotalAmount: m.TotalAmount,
		ProfitLoss:  m.ProfitLoss,
		Timestamp:   m.Timestamp,
	}
}

// Models はtradingフィーチャーが所有するテーブルのAutoMigrate対象を返します。
func Models() []any {
	return []any{&PortfolioModel{}, &PositionModel{}, &TransactionModel{}}
}
