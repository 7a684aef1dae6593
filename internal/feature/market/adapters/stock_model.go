// Package adapters はmarketフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"time"

	"github.com/shopspring/decimal"

	"stocksim_backend/internal/feature/market/domain/entity"
)

// StockModel は stocks テーブルのGORMモデルです。
type StockModel struct {
	ID          string `gorm:"primaryKey;size:36"`
	Symbol      string `gorm:"size:10;not null;uniqueIndex"`
	Name        string `gorm:"size:100;not null"`
	Sector      string `gorm:"size:64;index"`
	Description string `gorm:"type:text"`

	CurrentPrice  decimal.Decimal     `gorm:"type:decimal(20,4);not null"`
	PreviousClose decimal.Decimal     `gorm:"type:decimal(20,4);not null"`
	OpenPrice     decimal.Decimal     `gorm:"type:decimal(20,4);not null"`
	HighPrice     decimal.Decimal     `gorm:"type:decimal(20,4);not null"`
	LowPrice      decimal.Decimal     `gorm:"type:decimal(20,4);not null"`
	Volume        int64               `gorm:"not null;default:0"`
	MarketCap     decimal.NullDecimal `gorm:"type:decimal(24,2)"`

	IsActive bool `gorm:"not null;index"`
	IsFrozen bool `gorm:"not null"`

	Volatility        float64             `gorm:"not null"`
	JumpProbability   float64             `gorm:"not null"`
	MaxJumpMultiplier float64             `gorm:"not null"`
	PriceCap          decimal.NullDecimal `gorm:"type:decimal(20,4)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (StockModel) TableName() string {
	return "stocks"
}

func toStockModel(e *entity.Stock) StockModel {
	return StockModel{
		ID:                e.ID,
		Symbol:            e.Symbol,
		Name:              e.Name,
		Sector:            e.Sector,
		Description:       e.Description,
		CurrentPrice:      e.CurrentPrice,
		PreviousClose:     e.PreviousClose,
		OpenPrice:         e.OpenPrice,
		HighPrice:         e.HighPrice,
		LowPrice:          e.LowPrice,
		Volume:            e.Volume,
		MarketCap:         e.MarketCap,
		IsActive:          e.IsActive,
		IsFrozen:          e.IsFrozen,
		Volatility:        e.Volatility,
		JumpProbability:   e.JumpProbability,
		MaxJumpMultiplier: e.MaxJumpMultiplier,
		PriceCap:          e.PriceCap,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func (m StockModel) toEntity() entity.Stock {
	return entity.Stock{
		ID:                m.ID,
		Symbol:            m.Symbol,
		Name:              m.Name,
		Sector:            m.Sector,
		Description:       m.Description,
		CurrentPrice:      m.CurrentPrice,
		PreviousClose:     m.PreviousClose,
		OpenPrice:         m.OpenPrice,
		HighPrice:         m.HighPrice,
		LowPrice:          m.LowPrice,
		Volume:            m.Volume,
		MarketCap:         m.MarketCap,
		IsActive:          m.IsActive,
		IsFrozen:          m.IsFrozen,
		Volatility:        m.Volatility,
		JumpProbability:   m.JumpProbability,
		MaxJumpMultiplier: m.MaxJumpMultiplier,
		PriceCap:          m.PriceCap,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// PriceHistoryModel は price_history テーブルのGORMモデルです。
type PriceHistoryModel struct {
	ID             uint            `gorm:"primaryKey"`
	StockID        string          `gorm:"size:36;not null;index:idx_history_stock_time,priority:1"`
	Timestamp      time.Time       `gorm:"column:recorded_at;not null;index:idx_history_stock_time,priority:2"`
	Price          decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Volume         int64           `gorm:"not null;default:0"`
	WasJump        bool            `gorm:"not null;default:false"`
	JumpPercentage *float64
}

func (PriceHistoryModel) TableName() string {
	return "price_history"
}

func toHistoryModel(e entity.PriceHistoryPoint) PriceHistoryModel {
	return PriceHistoryModel{
		StockID:        e.StockID,
		Timestamp:      e.Timestamp,
		Price:          e.Price,
		Volume:         e.Volume,
		WasJump:        e.WasJump,
		JumpPercentage: e.JumpPercentage,
	}
}

func (m PriceHistoryModel) toEntity() entity.PriceHistoryPoint {
	return entity.PriceHistoryPoint{
		StockID:        m.StockID,
		Price:          m.Price,
		Volume:         m.Volume,
		Timestamp:      m.Timestamp,
		WasJump:        m.WasJump,
		JumpPercentage: m.JumpPercentage,
	}
}

// Models はAutoMigrate対象のモデル一覧を返します。
func Models() []any {
	return []any{&StockModel{}, &PriceHistoryModel{}}
}
