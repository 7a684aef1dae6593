package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"stocksim_backend/internal/feature/trading/domain/entity"
)

// AccountRepository は利用者の現金残高を読み書きします。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type AccountRepository interface {
	// FindForUpdate はトランザクション内で行ロックを取得して残高を読み込みます。
	// 存在しない場合は ErrUserNotFound を返します。
	FindForUpdate(ctx context.Context, userID string) (*entity.Account, error)
	// Find はロックなしで残高を読み込みます。
	Find(ctx context.Context, userID string) (*entity.Account, error)
	// UpdateBalance は残高を上書きします。
	UpdateBalance(ctx context.Context, userID string, balance decimal.Decimal) error
}

// StockQuoteReader は約定価格の基準となる銘柄情報を読み込みます。
// ロックは取得しません（価格更新との競合は楽観的に許容します）。
type StockQuoteReader interface {
	FindQuote(ctx context.Context, stockID string) (*entity.Quote, error)
}

// PortfolioRepository はポートフォリオを読み書きします。
type PortfolioRepository interface {
	// FindByUserID は利用者のポートフォリオを返します。存在しない場合は ErrPortfolioNotFound を返します。
	FindByUserID(ctx context.Context, userID string) (*entity.Portfolio, error)
	// CreateForUser は利用者のポートフォリオを作成します。
	CreateForUser(ctx context.Context, userID string) (*entity.Portfolio, error)
}

// PositionRepository は保有ポジションを読み書きします。
// (portfolioID, stockID) は一意です。
type PositionRepository interface {
	// Find は保有ポジションを返します。存在しない場合は ErrPositionNotFound を返します。
	Find(ctx context.Context, portfolioID, stockID string) (*entity.Position, error)
	// Create は新しいポジションを保存します。一意制約違反は ErrConflict を返します。
	Create(ctx context.Context, p *entity.Position) error
	// Update は数量・平均取得単価・評価額を上書きします。
	Update(ctx context.Context, p *entity.Position) error
	// Delete はポジションを削除します。
	Delete(ctx context.Context, id string) error
	// ListViews はポートフォリオの全ポジションを銘柄情報付きで返します。
	ListViews(ctx context.Context, portfolioID string) ([]PositionView, error)
}

// TransactionRepository は取引台帳に追記し、参照します。
type TransactionRepository interface {
	// Create は取引を追記します。
	Create(ctx context.Context, tx *entity.Transaction) error
	// ListViews は利用者の取引を新しい順に返します。tradeType が空の場合は全件、limit <= 0 は無制限です。
	ListViews(ctx context.Context, userID string, tradeType entity.TradeType, limit int) ([]TransactionView, error)
	// RealizedByStock は売却取引の実現損益を銘柄ごとに集計します。
	RealizedByStock(ctx context.Context, userID string) ([]RealizedPnL, error)
}

// TxManager は複数リポジトリ操作を1つのDBトランザクションにまとめます。
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// KeyLocker はキー単位の排他ロックを提供します。
type KeyLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// PositionView はポジションに銘柄情報を結合した読み取りモデルです。
type PositionView struct {
	entity.Position
	Symbol       string
	Name         string
	Sector       string
	CurrentPrice decimal.Decimal
}

// TransactionView は取引に銘柄情報を結合した読み取りモデルです。
type TransactionView struct {
	entity.Transaction
	Symbol string
	Name   string
}

// RealizedPnL は銘柄ごとの実現損益です。
type RealizedPnL struct {
	StockID string
	Symbol  string
	Name    string
	Amount  decimal.Decimal
}

// clock は現在時刻を返します（テストで差し替え可能）。
type clock func() time.Time
