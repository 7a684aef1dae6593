package db

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// TxManager runs a function inside a single database transaction.
// Repositories pick the transaction up from the context via Conn.
type TxManager struct {
	db *gorm.DB
}

// NewTxManager creates a TxManager bound to db.
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx executes fn in a transaction. The transaction commits when fn returns nil
// and rolls back otherwise. Nested calls join the outer transaction.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Conn returns the transaction carried by ctx, or db when there is none.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
