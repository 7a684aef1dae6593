// Package usecase implements the business logic for the market feature.
package usecase

import "errors"

var (
	// ErrStockNotFound is returned when a stock cannot be found by ID or symbol.
	ErrStockNotFound = errors.New("stock not found")

	// ErrSymbolExists is returned when creating a stock whose symbol is already taken.
	ErrSymbolExists = errors.New("stock symbol already exists")

	// ErrInvalidStock is returned when stock fields or simulation parameters fail validation.
	ErrInvalidStock = errors.New("invalid stock")

	// ErrStockHasTransactions is returned when deleting a stock that the trade ledger references.
	ErrStockHasTransactions = errors.New("stock has transactions; set it inactive instead")

	// ErrInvalidBackfill is returned when a backfill request has a non-positive length.
	ErrInvalidBackfill = errors.New("backfill days must be positive")
)
