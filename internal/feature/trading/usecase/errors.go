// Package usecase implements the business logic for the trading feature:
// order settlement and portfolio queries.
package usecase

import "errors"

var (
	// ErrInvalidInput is returned for a non-positive quantity or missing identifiers.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUserNotFound is returned when the trading account does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrStockNotFound is returned when the stock does not exist.
	ErrStockNotFound = errors.New("stock not found")

	// ErrPortfolioNotFound is returned when the user has no portfolio.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrPositionNotFound is returned by repositories when no position exists for a (portfolio, stock) pair.
	ErrPositionNotFound = errors.New("position not found")

	// ErrNotTradable is returned when the stock is inactive or frozen.
	ErrNotTradable = errors.New("stock is not tradable")

	// ErrInsufficientFunds is returned when the balance does not cover a buy.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientShares is returned when the position does not cover a sell.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrConflict is returned by adapters for lock conflicts and concurrent inserts.
	// Settlement retries the whole atomic unit on this error.
	ErrConflict = errors.New("storage conflict")
)

// ErrorKind classifies why a settlement did not succeed.
type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "InvalidInput"
	KindNotFound           ErrorKind = "NotFound"
	KindNotTradable        ErrorKind = "NotTradable"
	KindInsufficientFunds  ErrorKind = "InsufficientFunds"
	KindInsufficientShares ErrorKind = "InsufficientShares"
	KindStorageFailure     ErrorKind = "StorageFailure"
)

// KindOf maps an error to its ErrorKind. Unknown errors are storage failures.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrStockNotFound), errors.Is(err, ErrPortfolioNotFound):
		return KindNotFound
	case errors.Is(err, ErrNotTradable):
		return KindNotTradable
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrInsufficientShares), errors.Is(err, ErrPositionNotFound):
		return KindInsufficientShares
	default:
		return KindStorageFailure
	}
}

// retryable reports whether the atomic unit may be re-run after err.
func retryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
