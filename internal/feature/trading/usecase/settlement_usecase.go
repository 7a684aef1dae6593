package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stocksim_backend/internal/feature/trading/domain/accounting"
	"stocksim_backend/internal/feature/trading/domain/entity"
)

const (
	// DefaultSettlementTimeout はロック取得からコミットまでの上限時間です。
	DefaultSettlementTimeout = 5 * time.Second
	// DefaultMaxRetries は ErrConflict 発生時の再試行回数です。
	DefaultMaxRetries = 2
)

// SettlementConfig は約定エンジンの設定です。
type SettlementConfig struct {
	Timeout    time.Duration
	MaxRetries int
}

// settlementUsecase は売買注文を1つの原子的な単位として約定させます。
//
// 注文は RECEIVED → VALIDATED → PRICED → APPLIED → COMMITTED の順に進み、
// 検証段階で失敗した場合は REJECTED、コミットできなかった場合は FAILED になります。
// 同一利用者の注文はプロセス内ロックとDBの行ロック（users行の SELECT ... FOR UPDATE）で直列化されます。
type settlementUsecase struct {
	tx           TxManager
	locks        KeyLocker
	accounts     AccountRepository
	quotes       StockQuoteReader
	portfolios   PortfolioRepository
	positions    PositionRepository
	transactions TransactionRepository
	cfg          SettlementConfig
	now          clock
}

// NewSettlementUsecase はsettlementUsecaseの新しいインスタンスを生成します。
func NewSettlementUsecase(
	tx TxManager,
	locks KeyLocker,
	accounts AccountRepository,
	quotes StockQuoteReader,
	portfolios PortfolioRepository,
	positions PositionRepository,
	transactions TransactionRepository,
	cfg SettlementConfig,
) *settlementUsecase {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSettlementTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &settlementUsecase{
		tx:           tx,
		locks:        locks,
		accounts:     accounts,
		quotes:       quotes,
		portfolios:   portfolios,
		positions:    positions,
		transactions: transactions,
		cfg:          cfg,
		now:          time.Now,
	}
}

// ExecuteBuy は現在値で買い注文を約定させます。
func (u *settlementUsecase) ExecuteBuy(ctx context.Context, req TradeRequest) Result {
	return u.execute(ctx, entity.TradeBuy, req)
}

// ExecuteSell は現在値で売り注文を約定させます。
func (u *settlementUsecase) ExecuteSell(ctx context.Context, req TradeRequest) Result {
	return u.execute(ctx, entity.TradeSell, req)
}

func (u *settlementUsecase) execute(ctx context.Context, side entity.TradeType, req TradeRequest) Result {
	logger := slog.With("side", string(side), "user_id", req.UserID, "stock_id", req.StockID, "quantity", req.Quantity)

	if err := req.validate(); err != nil {
		logger.Warn("order rejected", "reason", KindInvalidInput, "error", err)
		return rejected(err)
	}

	ctx, cancel := context.WithTimeout(ctx, u.cfg.Timeout)
	defer cancel()

	unlock, err := u.locks.Lock(ctx, req.UserID)
	if err != nil {
		logger.Error("order failed: could not acquire user lock", "error", err)
		return failed(fmt.Errorf("acquire lock: %w", err))
	}
	defer unlock()

	var res Result
	for attempt := 0; ; attempt++ {
		res, err = u.settle(ctx, side, req)
		if err == nil {
			break
		}
		if !retryable(err) || attempt >= u.cfg.MaxRetries || ctx.Err() != nil {
			break
		}
		logger.Warn("settlement conflict; retrying", "attempt", attempt+1, "error", err)
	}

	if err != nil {
		kind := KindOf(err)
		if kind == KindStorageFailure {
			logger.Error("order failed", "error", err)
			return failed(err)
		}
		logger.Warn("order rejected", "reason", kind, "error", err)
		return rejected(err)
	}

	logger.Info("order settled",
		"transaction_id", res.TransactionID,
		"new_balance", res.NewBalance.String(),
	)
	return res
}

// settle は検証・価格決定・適用を1つのDBトランザクション内で行います。
// エラーを返した場合、いずれの変更もコミットされません。
func (u *settlementUsecase) settle(ctx context.Context, side entity.TradeType, req TradeRequest) (Result, error) {
	var res Result
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		// VALIDATED
		account, err := u.accounts.FindForUpdate(ctx, req.UserID)
		if err != nil {
			return err
		}
		quote, err := u.quotes.FindQuote(ctx, req.StockID)
		if err != nil {
			return err
		}
		portfolio, err := u.portfolios.FindByUserID(ctx, req.UserID)
		if err != nil {
			return err
		}
		if !quote.Tradable() {
			return fmt.Errorf("%w: %s", ErrNotTradable, quote.Symbol)
		}

		existing, err := u.positions.Find(ctx, portfolio.ID, quote.StockID)
		if err != nil && !errors.Is(err, ErrPositionNotFound) {
			return err
		}

		// PRICED
		price := quote.CurrentPrice
		amount := price.Mul(decimal.NewFromInt(req.Quantity))

		// APPLIED
		tx := &entity.Transaction{
			ID:          uuid.NewString(),
			UserID:      req.UserID,
			StockID:     quote.StockID,
			Type:        side,
			Quantity:    req.Quantity,
			Price:       price,
			TotalAmount: amount,
			Timestamp:   u.now().UTC(),
		}

		var (
			balance  decimal.Decimal
			position *entity.Position
		)
		switch side {
		case entity.TradeBuy:
			if account.Balance.LessThan(amount) {
				return fmt.Errorf("%w: cost %s exceeds balance %s", ErrInsufficientFunds, amount, account.Balance)
			}
			position, err = u.applyBuy(ctx, portfolio.ID, quote.StockID, existing, req.Quantity, price)
			if err != nil {
				return err
			}
			balance = account.Balance.Sub(amount)

		case entity.TradeSell:
			if existing == nil {
				return fmt.Errorf("%w: no position held", ErrInsufficientShares)
			}
			var realized decimal.Decimal
			position, realized, err = u.applySell(ctx, *existing, req.Quantity, price)
			if err != nil {
				return err
			}
			tx.ProfitLoss = decimal.NewNullDecimal(realized)
			balance = account.Balance.Add(amount)
		}

		if err := u.accounts.UpdateBalance(ctx, req.UserID, balance); err != nil {
			return err
		}
		if err := u.transactions.Create(ctx, tx); err != nil {
			return err
		}

		res = okResult(tx, balance, position)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	// COMMITTED
	return res, nil
}

func (u *settlementUsecase) applyBuy(ctx context.Context, portfolioID, stockID string, existing *entity.Position, qty int64, price decimal.Decimal) (*entity.Position, error) {
	next, err := accounting.ApplyBuy(existing, qty, price, price)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if existing == nil {
		next.ID = uuid.NewString()
		next.PortfolioID = portfolioID
		next.StockID = stockID
		if err := u.positions.Create(ctx, &next); err != nil {
			return nil, err
		}
		return &next, nil
	}
	if err := u.positions.Update(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (u *settlementUsecase) applySell(ctx context.Context, existing entity.Position, qty int64, price decimal.Decimal) (*entity.Position, decimal.Decimal, error) {
	next, realized, err := accounting.ApplySell(existing, qty, price, price)
	if err != nil {
		if errors.Is(err, accounting.ErrInsufficientShares) {
			return nil, decimal.Zero, fmt.Errorf("%w: held %d, requested %d", ErrInsufficientShares, existing.Quantity, qty)
		}
		return nil, decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if next == nil {
		if err := u.positions.Delete(ctx, existing.ID); err != nil {
			return nil, decimal.Zero, err
		}
		return nil, realized, nil
	}
	if err := u.positions.Update(ctx, next); err != nil {
		return nil, decimal.Zero, err
	}
	return next, realized, nil
}
