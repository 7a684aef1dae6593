package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksim_backend/internal/feature/market/domain/entity"
)

func validCreateInput() CreateStockInput {
	return CreateStockInput{
		Symbol:            " aapl ",
		Name:              "Apple Inc.",
		Sector:            "Technology",
		CurrentPrice:      decimal.RequireFromString("175.25"),
		Volatility:        0.015,
		JumpProbability:   0.02,
		MaxJumpMultiplier: 1.08,
		IsActive:          true,
	}
}

func TestStockUsecase_CreateStock(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *CreateStockInput)
		wantErr error
	}{
		{name: "success: valid stock", mutate: func(in *CreateStockInput) {}},
		{
			name:   "success: price cap above price",
			mutate: func(in *CreateStockInput) { in.PriceCap = decimal.NewNullDecimal(decimal.NewFromInt(500)) },
		},
		{name: "error: empty symbol", mutate: func(in *CreateStockInput) { in.Symbol = "  " }, wantErr: ErrInvalidStock},
		{name: "error: symbol too long", mutate: func(in *CreateStockInput) { in.Symbol = "ABCDEFGHIJK" }, wantErr: ErrInvalidStock},
		{name: "error: empty name", mutate: func(in *CreateStockInput) { in.Name = "" }, wantErr: ErrInvalidStock},
		{name: "error: zero price", mutate: func(in *CreateStockInput) { in.CurrentPrice = decimal.Zero }, wantErr: ErrInvalidStock},
		{name: "error: volatility out of range", mutate: func(in *CreateStockInput) { in.Volatility = 1.5 }, wantErr: ErrInvalidStock},
		{name: "error: jump probability out of range", mutate: func(in *CreateStockInput) { in.JumpProbability = -0.1 }, wantErr: ErrInvalidStock},
		{name: "error: multiplier below one", mutate: func(in *CreateStockInput) { in.MaxJumpMultiplier = 0.5 }, wantErr: ErrInvalidStock},
		{
			name:    "error: price above cap",
			mutate:  func(in *CreateStockInput) { in.PriceCap = decimal.NewNullDecimal(decimal.NewFromInt(100)) },
			wantErr: ErrInvalidStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewStockUsecase(passthroughTx{}, newMemStockRepository(), &mockTradeLedger{})
			in := validCreateInput()
			tt.mutate(&in)

			s, err := uc.CreateStock(context.Background(), in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, s.ID)
			assert.Equal(t, "AAPL", s.Symbol)
			assert.True(t, s.PreviousClose.Equal(s.CurrentPrice))
			assert.True(t, s.HighPrice.Equal(s.CurrentPrice))
			assert.True(t, s.LowPrice.Equal(s.CurrentPrice))
		})
	}
}

func TestStockUsecase_CreateStock_DuplicateSymbol(t *testing.T) {
	uc := NewStockUsecase(passthroughTx{}, newMemStockRepository(testStock("s1", "AAPL", "10")), &mockTradeLedger{})

	_, err := uc.CreateStock(context.Background(), validCreateInput())
	assert.ErrorIs(t, err, ErrSymbolExists)
}

func TestStockUsecase_EnsureStock(t *testing.T) {
	repo := newMemStockRepository(testStock("s1", "AAPL", "10"))
	uc := NewStockUsecase(passthroughTx{}, repo, &mockTradeLedger{})

	s, created, err := uc.EnsureStock(context.Background(), validCreateInput())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "s1", s.ID)

	in := validCreateInput()
	in.Symbol = "msft"
	s, created, err = uc.EnsureStock(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "MSFT", s.Symbol)
}

func TestStockUsecase_UpdateStock(t *testing.T) {
	ctx := context.Background()

	t.Run("success: price override moves previous close", func(t *testing.T) {
		repo := newMemStockRepository(testStock("s1", "AAPL", "100"))
		uc := NewStockUsecase(passthroughTx{}, repo, &mockTradeLedger{})
		price := decimal.NewFromInt(120)
		frozen := true

		s, err := uc.UpdateStock(ctx, "s1", UpdateStockInput{CurrentPrice: &price, IsFrozen: &frozen})
		require.NoError(t, err)
		assert.True(t, s.CurrentPrice.Equal(price))
		assert.True(t, s.PreviousClose.Equal(decimal.NewFromInt(100)))
		assert.True(t, s.HighPrice.Equal(price))
		assert.True(t, s.IsFrozen)
		assert.False(t, s.Tradable())
	})

	t.Run("success: zero cap removes the cap", func(t *testing.T) {
		st := testStock("s1", "AAPL", "100")
		st.PriceCap = decimal.NewNullDecimal(decimal.NewFromInt(200))
		uc := NewStockUsecase(passthroughTx{}, newMemStockRepository(st), &mockTradeLedger{})
		zero := decimal.Zero

		s, err := uc.UpdateStock(ctx, "s1", UpdateStockInput{PriceCap: &zero})
		require.NoError(t, err)
		assert.False(t, s.PriceCap.Valid)
	})

	t.Run("error: merged result fails validation", func(t *testing.T) {
		repo := newMemStockRepository(testStock("s1", "AAPL", "100"))
		uc := NewStockUsecase(passthroughTx{}, repo, &mockTradeLedger{})
		vol := 2.0

		_, err := uc.UpdateStock(ctx, "s1", UpdateStockInput{Volatility: &vol})
		assert.ErrorIs(t, err, ErrInvalidStock)
		assert.InDelta(t, 0.02, repo.get("s1").Volatility, 1e-12)
	})

	t.Run("error: not found", func(t *testing.T) {
		uc := NewStockUsecase(passthroughTx{}, newMemStockRepository(), &mockTradeLedger{})
		_, err := uc.UpdateStock(ctx, "missing", UpdateStockInput{})
		assert.ErrorIs(t, err, ErrStockNotFound)
	})
}

func TestStockUsecase_DeleteStock(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		ledger  *mockTradeLedger
		id      string
		wantErr error
	}{
		{name: "success: unused stock", ledger: &mockTradeLedger{}, id: "s1"},
		{
			name: "error: referenced by transactions",
			ledger: &mockTradeLedger{ExistsForStockFunc: func(string) (bool, error) {
				return true, nil
			}},
			id:      "s1",
			wantErr: ErrStockHasTransactions,
		},
		{name: "error: not found", ledger: &mockTradeLedger{}, id: "missing", wantErr: ErrStockNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemStockRepository(testStock("s1", "AAPL", "100"))
			uc := NewStockUsecase(passthroughTx{}, repo, tt.ledger)

			err := uc.DeleteStock(ctx, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			_, err = repo.FindByID(ctx, "s1")
			assert.True(t, errors.Is(err, ErrStockNotFound))
		})
	}
}

func TestStockUsecase_UpdateStock_RunsUnderRowLock(t *testing.T) {
	ctx := context.Background()
	tx := &recordingTx{}
	repo := newMemStockRepository(testStock("s1", "AAPL", "100"))
	repo.UpdateFunc = func(s *entity.Stock) error {
		assert.True(t, tx.active, "update must run inside the transaction")
		return nil
	}
	uc := NewStockUsecase(tx, repo, &mockTradeLedger{})
	price := decimal.NewFromInt(90)

	_, err := uc.UpdateStock(ctx, "s1", UpdateStockInput{CurrentPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, repo.lockedReads)
	assert.Equal(t, 1, tx.commits)

	t.Run("error: validation failure rolls back", func(t *testing.T) {
		vol := -1.0
		_, err := uc.UpdateStock(ctx, "s1", UpdateStockInput{Volatility: &vol})
		assert.ErrorIs(t, err, ErrInvalidStock)
		assert.Equal(t, 1, tx.rollbacks)
	})
}

func TestStockUsecase_DeleteStock_ChecksLedgerUnderRowLock(t *testing.T) {
	ctx := context.Background()
	tx := &recordingTx{}
	repo := newMemStockRepository(testStock("s1", "AAPL", "100"))
	var deletedInTx bool
	repo.DeleteFunc = func(id string) error {
		deletedInTx = tx.active
		return nil
	}
	ledger := &mockTradeLedger{ExistsForStockFunc: func(stockID string) (bool, error) {
		assert.True(t, tx.active, "ledger check must share the transaction")
		assert.Equal(t, []string{"s1"}, repo.lockedReads, "row is locked before the ledger check")
		return false, nil
	}}
	uc := NewStockUsecase(tx, repo, ledger)

	require.NoError(t, uc.DeleteStock(ctx, "s1"))
	assert.True(t, deletedInTx)
	assert.Equal(t, 1, tx.commits)

	t.Run("error: ledger failure rolls back", func(t *testing.T) {
		repo := newMemStockRepository(testStock("s2", "MSFT", "100"))
		repo.DeleteFunc = func(string) error {
			t.Fatal("delete must not run when the ledger check fails")
			return nil
		}
		tx := &recordingTx{}
		uc := NewStockUsecase(tx, repo, &mockTradeLedger{ExistsForStockFunc: func(string) (bool, error) {
			return false, errors.New("db down")
		}})

		err := uc.DeleteStock(ctx, "s2")
		assert.Error(t, err)
		assert.Equal(t, 1, tx.rollbacks)
	})
}
