package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stocksim_backend/internal/feature/market/domain/entity"
)

const (
	maxSymbolLength = 10
	maxNameLength   = 100
)

// CreateStockInput は銘柄作成の入力です。
type CreateStockInput struct {
	Symbol            string
	Name              string
	Sector            string
	Description       string
	CurrentPrice      decimal.Decimal
	MarketCap         decimal.NullDecimal
	Volatility        float64
	JumpProbability   float64
	MaxJumpMultiplier float64
	PriceCap          decimal.NullDecimal
	IsActive          bool
}

// UpdateStockInput は管理者による部分更新の入力です。nil のフィールドは変更しません。
type UpdateStockInput struct {
	Name              *string
	Sector            *string
	Description       *string
	CurrentPrice      *decimal.Decimal
	MarketCap         *decimal.Decimal
	Volatility        *float64
	JumpProbability   *float64
	MaxJumpMultiplier *float64
	PriceCap          *decimal.Decimal // ゼロ値はキャップの解除
	IsActive          *bool
	IsFrozen          *bool
}

// stockUsecase は銘柄の参照と管理操作を実装します。
type stockUsecase struct {
	tx     TxManager
	stocks StockRepository
	ledger TradeLedger
}

// NewStockUsecase はstockUsecaseの新しいインスタンスを生成します。
func NewStockUsecase(tx TxManager, stocks StockRepository, ledger TradeLedger) *stockUsecase {
	return &stockUsecase{tx: tx, stocks: stocks, ledger: ledger}
}

// ListStocks はすべての銘柄をシンボル順に返します。
func (u *stockUsecase) ListStocks(ctx context.Context) ([]entity.Stock, error) {
	return u.stocks.List(ctx)
}

// GetStock はIDで銘柄を取得します。
func (u *stockUsecase) GetStock(ctx context.Context, id string) (*entity.Stock, error) {
	return u.stocks.FindByID(ctx, id)
}

// CreateStock は入力を検証して新しい銘柄を登録します。
// 始値・高値・安値・前日終値は現在値で初期化されます。
func (u *stockUsecase) CreateStock(ctx context.Context, in CreateStockInput) (*entity.Stock, error) {
	s := &entity.Stock{
		ID:                uuid.NewString(),
		Symbol:            strings.ToUpper(strings.TrimSpace(in.Symbol)),
		Name:              strings.TrimSpace(in.Name),
		Sector:            strings.TrimSpace(in.Sector),
		Description:       in.Description,
		CurrentPrice:      in.CurrentPrice.Round(pricePlaces),
		MarketCap:         in.MarketCap,
		IsActive:          in.IsActive,
		Volatility:        in.Volatility,
		JumpProbability:   in.JumpProbability,
		MaxJumpMultiplier: in.MaxJumpMultiplier,
		PriceCap:          in.PriceCap,
	}
	if s.PriceCap.Valid {
		s.PriceCap.Decimal = s.PriceCap.Decimal.Round(pricePlaces)
	}
	s.PreviousClose = s.CurrentPrice
	s.OpenPrice = s.CurrentPrice
	s.HighPrice = s.CurrentPrice
	s.LowPrice = s.CurrentPrice

	if err := validateStock(s); err != nil {
		return nil, err
	}
	if err := u.stocks.Create(ctx, s); err != nil {
		return nil, err
	}

	slog.Info("stock created", "stock_id", s.ID, "symbol", s.Symbol)
	return s, nil
}

// EnsureStock はシンボルが既に存在すればその銘柄を返し、なければ作成します。
// 2番目の戻り値は新規作成したかどうかです。
func (u *stockUsecase) EnsureStock(ctx context.Context, in CreateStockInput) (*entity.Stock, bool, error) {
	existing, err := u.stocks.FindBySymbol(ctx, strings.ToUpper(strings.TrimSpace(in.Symbol)))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrStockNotFound) {
		return nil, false, err
	}
	s, err := u.CreateStock(ctx, in)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// UpdateStock は銘柄を部分更新します。更新後の銘柄全体に対して検証を行います。
// 読み込みから書き込みまで行ロックを保持し、価格ティックと直列化されます。
func (u *stockUsecase) UpdateStock(ctx context.Context, id string, in UpdateStockInput) (*entity.Stock, error) {
	var updated *entity.Stock
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		s, err := u.stocks.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		applyStockUpdate(s, in)
		if err := validateStock(s); err != nil {
			return err
		}
		if err := u.stocks.Update(ctx, s); err != nil {
			return err
		}
		updated = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("stock updated", "stock_id", updated.ID, "symbol", updated.Symbol)
	return updated, nil
}

// applyStockUpdate は nil でないフィールドを s に反映します。
func applyStockUpdate(s *entity.Stock, in UpdateStockInput) {
	if in.Name != nil {
		s.Name = strings.TrimSpace(*in.Name)
	}
	if in.Sector != nil {
		s.Sector = strings.TrimSpace(*in.Sector)
	}
	if in.Description != nil {
		s.Description = *in.Description
	}
	if in.CurrentPrice != nil {
		// 管理者による価格の上書き
		s.PreviousClose = s.CurrentPrice
		s.CurrentPrice = in.CurrentPrice.Round(pricePlaces)
		if s.CurrentPrice.GreaterThan(s.HighPrice) {
			s.HighPrice = s.CurrentPrice
		}
		if s.CurrentPrice.LessThan(s.LowPrice) {
			s.LowPrice = s.CurrentPrice
		}
	}
	if in.MarketCap != nil {
		s.MarketCap = decimal.NewNullDecimal(*in.MarketCap)
	}
	if in.Volatility != nil {
		s.Volatility = *in.Volatility
	}
	if in.JumpProbability != nil {
		s.JumpProbability = *in.JumpProbability
	}
	if in.MaxJumpMultiplier != nil {
		s.MaxJumpMultiplier = *in.MaxJumpMultiplier
	}
	if in.PriceCap != nil {
		if in.PriceCap.IsZero() {
			s.PriceCap = decimal.NullDecimal{}
		} else {
			s.PriceCap = decimal.NewNullDecimal(in.PriceCap.Round(pricePlaces))
		}
	}
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}
	if in.IsFrozen != nil {
		s.IsFrozen = *in.IsFrozen
	}
}

// DeleteStock は銘柄を削除します。取引台帳から参照されている場合は拒否します。
// 参照の確認と削除は同じトランザクション内で銘柄行をロックして行います。
func (u *stockUsecase) DeleteStock(ctx context.Context, id string) error {
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := u.stocks.FindByIDForUpdate(ctx, id); err != nil {
			return err
		}
		used, err := u.ledger.ExistsForStock(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check transactions: %w", err)
		}
		if used {
			return ErrStockHasTransactions
		}
		return u.stocks.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	slog.Info("stock deleted", "stock_id", id)
	return nil
}

// findStock はIDまたはシンボルで銘柄を検索します。
func findStock(ctx context.Context, stocks StockRepository, idOrSymbol string) (*entity.Stock, error) {
	s, err := stocks.FindByID(ctx, idOrSymbol)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrStockNotFound) {
		return nil, err
	}
	return stocks.FindBySymbol(ctx, strings.ToUpper(idOrSymbol))
}

// validateStock は銘柄のフィールドとシミュレーションパラメータを検証します。
func validateStock(s *entity.Stock) error {
	if n := utf8.RuneCountInString(s.Symbol); n < 1 || n > maxSymbolLength {
		return fmt.Errorf("%w: symbol must be 1-%d characters", ErrInvalidStock, maxSymbolLength)
	}
	if n := utf8.RuneCountInString(s.Name); n < 1 || n > maxNameLength {
		return fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidStock, maxNameLength)
	}
	if !s.CurrentPrice.IsPositive() {
		return fmt.Errorf("%w: current price must be positive", ErrInvalidStock)
	}
	if s.MarketCap.Valid && s.MarketCap.Decimal.IsNegative() {
		return fmt.Errorf("%w: market cap must not be negative", ErrInvalidStock)
	}
	if s.PriceCap.Valid {
		if !s.PriceCap.Decimal.IsPositive() {
			return fmt.Errorf("%w: price cap must be positive", ErrInvalidStock)
		}
		if s.CurrentPrice.GreaterThan(s.PriceCap.Decimal) {
			return fmt.Errorf("%w: current price exceeds price cap", ErrInvalidStock)
		}
	}
	if err := simulationParams(s).Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStock, err)
	}
	return nil
}
