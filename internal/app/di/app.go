package di

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authadapters "stocksim_backend/internal/feature/auth/adapters"
	authentity "stocksim_backend/internal/feature/auth/domain/entity"
	authhandler "stocksim_backend/internal/feature/auth/transport/handler"
	authusecase "stocksim_backend/internal/feature/auth/usecase"
	marketadapters "stocksim_backend/internal/feature/market/adapters"
	marketentity "stocksim_backend/internal/feature/market/domain/entity"
	markethandler "stocksim_backend/internal/feature/market/transport/handler"
	marketusecase "stocksim_backend/internal/feature/market/usecase"
	tradingadapters "stocksim_backend/internal/feature/trading/adapters"
	tradinghandler "stocksim_backend/internal/feature/trading/transport/handler"
	tradingusecase "stocksim_backend/internal/feature/trading/usecase"
	"stocksim_backend/internal/platform/config"
	platformdb "stocksim_backend/internal/platform/db"
	"stocksim_backend/internal/shared/keylock"
	"stocksim_backend/internal/shared/ratelimiter"
)

// StockService は銘柄の参照・管理とカタログ投入を提供します。
type StockService interface {
	markethandler.StockUsecase
	EnsureStock(ctx context.Context, in marketusecase.CreateStockInput) (*marketentity.Stock, bool, error)
}

// Ticker は全銘柄の価格を1ステップ進めます。
type Ticker interface {
	Tick(ctx context.Context) (marketusecase.TickReport, error)
}

// RoleAssigner は利用者のロールを変更します。
type RoleAssigner interface {
	SetRole(ctx context.Context, email string, role authentity.Role) error
}

// App はcmd/serverとcmd/stockctlが共有するユースケースとハンドラーの集合です。
type App struct {
	Stocks   StockService
	Backfill markethandler.BackfillUsecase
	Ticker   Ticker
	Roles    RoleAssigner

	AuthHandler      *authhandler.AuthHandler
	StockHandler     *markethandler.StockHandler
	TradeHandler     *tradinghandler.TradeHandler
	PortfolioHandler *tradinghandler.PortfolioHandler

	// AuthLimiter は /signup と /login の頻度制限です。nil なら制限しません。
	AuthLimiter *ratelimiter.RateLimiter

	closers []func() error
}

// NewApp wires repositories, usecases and handlers of every feature.
// rdb may be nil, in which case price history is read without cache.
func NewApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	tx := platformdb.NewTxManager(db)

	// Repository
	users := authadapters.NewUserMySQL(db)
	stocks := marketadapters.NewStockRepository(db)
	history := NewPriceHistoryRepository(db, rdb)
	accounts := tradingadapters.NewAccountRepository(db)
	quotes := tradingadapters.NewQuoteReader(db)
	portfolios := tradingadapters.NewPortfolioRepository(db)
	positions := tradingadapters.NewPositionRepository(db)
	transactions := tradingadapters.NewTransactionRepository(db)

	publisher, closePublisher := NewTickPublisher(cfg)
	sim := NewSimulator(cfg)

	// Usecase
	authUC := authusecase.NewAuthUsecase(tx, users, portfolios, NewJWTGenerator(), cfg.StartingBalance)
	stockUC := marketusecase.NewStockUsecase(tx, stocks, transactions)
	historyUC := marketusecase.NewHistoryUsecase(stocks, history)
	backfillUC := marketusecase.NewBackfillUsecase(tx, stocks, history, sim)
	tickUC := marketusecase.NewTickUsecase(tx, stocks, history, positions, publisher, sim)
	settlementUC := tradingusecase.NewSettlementUsecase(
		tx, keylock.New(), accounts, quotes, portfolios, positions, transactions,
		tradingusecase.SettlementConfig{
			Timeout:    cfg.SettlementTimeout,
			MaxRetries: cfg.SettlementMaxRetries,
		},
	)
	portfolioUC := tradingusecase.NewPortfolioUsecase(accounts, portfolios, positions, transactions)

	var authLimiter *ratelimiter.RateLimiter
	if cfg.AuthRateLimit > 0 {
		authLimiter = ratelimiter.NewRateLimiter(cfg.AuthRateLimit, time.Minute)
	}

	return &App{
		Stocks:   stockUC,
		Backfill: backfillUC,
		Ticker:   tickUC,
		Roles:    authUC,

		AuthHandler:      authhandler.NewAuthHandler(authUC),
		StockHandler:     markethandler.NewStockHandler(stockUC, historyUC, backfillUC),
		TradeHandler:     tradinghandler.NewTradeHandler(settlementUC),
		PortfolioHandler: tradinghandler.NewPortfolioHandler(portfolioUC),
		AuthLimiter:      authLimiter,

		closers: []func() error{closePublisher},
	}
}

// Close releases resources owned by the App, such as the Kafka writer.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Models returns every gorm model for AutoMigrate.
func Models() []any {
	var models []any
	models = append(models, authadapters.Models()...)
	models = append(models, marketadapters.Models()...)
	models = append(models, tradingadapters.Models()...)
	return models
}
