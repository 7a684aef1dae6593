package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"stocksim_backend/internal/feature/market/domain/entity"
	"stocksim_backend/internal/feature/market/domain/simulator"
)

// StockRepository は銘柄エンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type StockRepository interface {
	// Create は新しい銘柄を保存します。シンボルが重複する場合は ErrSymbolExists を返します。
	Create(ctx context.Context, stock *entity.Stock) error
	// Update は銘柄の全フィールドを上書きします。
	Update(ctx context.Context, stock *entity.Stock) error
	// Delete は銘柄を削除します。
	Delete(ctx context.Context, id string) error
	// FindByID はIDで銘柄を取得します。存在しない場合は ErrStockNotFound を返します。
	FindByID(ctx context.Context, id string) (*entity.Stock, error)
	// FindByIDForUpdate はトランザクション内で行ロックを取得して銘柄を読み込みます。
	FindByIDForUpdate(ctx context.Context, id string) (*entity.Stock, error)
	// FindBySymbol はシンボルで銘柄を取得します。
	FindBySymbol(ctx context.Context, symbol string) (*entity.Stock, error)
	// List はすべての銘柄をシンボル順に返します。
	List(ctx context.Context) ([]entity.Stock, error)
	// ListSimulated は価格シミュレーション対象（有効かつ凍結されていない）銘柄を返します。
	ListSimulated(ctx context.Context) ([]entity.Stock, error)
}

// PriceHistoryRepository は価格履歴の永続化層を抽象化します。
type PriceHistoryRepository interface {
	// Append は価格履歴を追記します。
	Append(ctx context.Context, points ...entity.PriceHistoryPoint) error
	// Latest は直近 limit 件を時系列昇順で返します。
	Latest(ctx context.Context, stockID string, limit int) ([]entity.PriceHistoryPoint, error)
	// ReplaceAll は銘柄の価格履歴をすべて置き換えます。
	ReplaceAll(ctx context.Context, stockID string, points []entity.PriceHistoryPoint) error
}

// HistoryCacheInvalidator はキャッシュを持つ PriceHistoryRepository が実装します。
// 書き込みトランザクションのコミット後に呼び出されます。
type HistoryCacheInvalidator interface {
	Invalidate(ctx context.Context, stockIDs ...string)
}

// invalidateHistory は history がキャッシュを持つ場合にその銘柄のキャッシュを破棄します。
func invalidateHistory(ctx context.Context, history PriceHistoryRepository, stockIDs ...string) {
	if inv, ok := history.(HistoryCacheInvalidator); ok && len(stockIDs) > 0 {
		inv.Invalidate(ctx, stockIDs...)
	}
}

// TradeLedger は取引台帳への参照を問い合わせます（tradingフィーチャーが実装）。
type TradeLedger interface {
	ExistsForStock(ctx context.Context, stockID string) (bool, error)
}

// PositionRevaluer は価格更新後に保有ポジションの評価額を更新します（tradingフィーチャーが実装）。
type PositionRevaluer interface {
	RevalueByStock(ctx context.Context, stockID string, price decimal.Decimal) (int64, error)
}

// TickPublisher はコミット済みの価格ティックを外部に配信します。
type TickPublisher interface {
	PublishTicks(ctx context.Context, ticks []entity.PriceTick) error
}

// TxManager は複数リポジトリ操作を1つのDBトランザクションにまとめます。
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PriceSimulator は価格シミュレーターを抽象化します。
type PriceSimulator interface {
	Next(current float64, p simulator.Params) simulator.Step
	Path(start float64, p simulator.Params, n int) []simulator.Step
	Intn(lo, hi int64) int64
}

// simulationParams は銘柄のシミュレーションパラメータを取り出します。
func simulationParams(s *entity.Stock) simulator.Params {
	p := simulator.Params{
		Volatility:        s.Volatility,
		JumpProbability:   s.JumpProbability,
		MaxJumpMultiplier: s.MaxJumpMultiplier,
	}
	if s.PriceCap.Valid {
		p.PriceCap = s.PriceCap.Decimal.InexactFloat64()
	}
	return p
}

// pricePlaces は保存する価格の小数桁数です。
const pricePlaces = 4

var minPrice = decimal.NewFromFloat(simulator.MinPrice)

// toPrice はシミュレーター出力を保存用の価格に変換し、下限と上限を再適用します。
func toPrice(s *entity.Stock, v float64) decimal.Decimal {
	price := decimal.NewFromFloat(v).Round(pricePlaces)
	if price.LessThan(minPrice) {
		price = minPrice
	}
	return s.ClampToCap(price)
}
