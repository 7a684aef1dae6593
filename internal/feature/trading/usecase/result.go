package usecase

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stocksim_backend/internal/feature/trading/domain/entity"
)

// TradeRequest is the input of ExecuteBuy and ExecuteSell.
type TradeRequest struct {
	UserID   string
	StockID  string
	Quantity int64
}

func (r TradeRequest) validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.StockID) == "" {
		return fmt.Errorf("%w: stock id is required", ErrInvalidInput)
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidInput)
	}
	return nil
}

// Status is the outcome tag of a settlement.
type Status string

const (
	StatusOK       Status = "ok"
	StatusRejected Status = "rejected"
	StatusFailed   Status = "failed"
)

// Result is the tagged outcome of a settlement.
//
// StatusOK carries TransactionID, NewBalance and NewPosition (nil when a sell
// closed the position). StatusRejected carries Reason. StatusFailed guarantees
// that nothing was committed. Err holds the underlying error for logging and
// is never exposed to clients.
type Result struct {
	Status        Status
	TransactionID string
	NewBalance    decimal.Decimal
	NewPosition   *entity.Position
	RealizedPnL   decimal.NullDecimal // Set for sells
	Reason        ErrorKind
	Err           error
}

func okResult(tx *entity.Transaction, balance decimal.Decimal, pos *entity.Position) Result {
	return Result{
		Status:        StatusOK,
		TransactionID: tx.ID,
		NewBalance:    balance,
		NewPosition:   pos,
		RealizedPnL:   tx.ProfitLoss,
	}
}

func rejected(err error) Result {
	return Result{Status: StatusRejected, Reason: KindOf(err), Err: err}
}

func failed(err error) Result {
	return Result{Status: StatusFailed, Reason: KindStorageFailure, Err: err}
}
