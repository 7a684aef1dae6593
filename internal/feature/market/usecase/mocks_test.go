package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"stocksim_backend/internal/feature/market/domain/entity"
)

// memStockRepository はテスト用のインメモリStockRepositoryです。
type memStockRepository struct {
	mu     sync.Mutex
	stocks map[string]entity.Stock

	// lockedReads は FindByIDForUpdate で読まれたIDの記録です。
	lockedReads []string

	UpdateFunc func(s *entity.Stock) error
	DeleteFunc func(id string) error
}

func newMemStockRepository(stocks ...*entity.Stock) *memStockRepository {
	r := &memStockRepository{stocks: map[string]entity.Stock{}}
	for _, s := range stocks {
		r.stocks[s.ID] = *s
	}
	return r
}

func (r *memStockRepository) Create(_ context.Context, s *entity.Stock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.stocks {
		if existing.Symbol == s.Symbol {
			return ErrSymbolExists
		}
	}
	r.stocks[s.ID] = *s
	return nil
}

func (r *memStockRepository) Update(_ context.Context, s *entity.Stock) error {
	if r.UpdateFunc != nil {
		if err := r.UpdateFunc(s); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stocks[s.ID]; !ok {
		return ErrStockNotFound
	}
	r.stocks[s.ID] = *s
	return nil
}

func (r *memStockRepository) Delete(_ context.Context, id string) error {
	if r.DeleteFunc != nil {
		if err := r.DeleteFunc(id); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stocks[id]; !ok {
		return ErrStockNotFound
	}
	delete(r.stocks, id)
	return nil
}

func (r *memStockRepository) FindByID(_ context.Context, id string) (*entity.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stocks[id]
	if !ok {
		return nil, ErrStockNotFound
	}
	return &s, nil
}

func (r *memStockRepository) FindByIDForUpdate(ctx context.Context, id string) (*entity.Stock, error) {
	r.mu.Lock()
	r.lockedReads = append(r.lockedReads, id)
	r.mu.Unlock()
	return r.FindByID(ctx, id)
}

func (r *memStockRepository) FindBySymbol(_ context.Context, symbol string) (*entity.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.stocks {
		if s.Symbol == symbol {
			return &s, nil
		}
	}
	return nil, ErrStockNotFound
}

func (r *memStockRepository) List(_ context.Context) ([]entity.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Stock, 0, len(r.stocks))
	for _, s := range r.stocks {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (r *memStockRepository) ListSimulated(ctx context.Context) ([]entity.Stock, error) {
	all, _ := r.List(ctx)
	out := all[:0]
	for _, s := range all {
		if s.Tradable() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memStockRepository) get(id string) entity.Stock {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stocks[id]
}

// memHistoryRepository はテスト用のインメモリPriceHistoryRepositoryです。
type memHistoryRepository struct {
	points      []entity.PriceHistoryPoint
	invalidated []string

	AppendFunc     func(points ...entity.PriceHistoryPoint) error
	InvalidateFunc func(stockIDs []string)
}

func (r *memHistoryRepository) Append(_ context.Context, points ...entity.PriceHistoryPoint) error {
	if r.AppendFunc != nil {
		if err := r.AppendFunc(points...); err != nil {
			return err
		}
	}
	r.points = append(r.points, points...)
	return nil
}

func (r *memHistoryRepository) Latest(_ context.Context, stockID string, limit int) ([]entity.PriceHistoryPoint, error) {
	var out []entity.PriceHistoryPoint
	for _, p := range r.points {
		if p.StockID == stockID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *memHistoryRepository) ReplaceAll(_ context.Context, stockID string, points []entity.PriceHistoryPoint) error {
	kept := r.points[:0]
	for _, p := range r.points {
		if p.StockID != stockID {
			kept = append(kept, p)
		}
	}
	r.points = append(kept, points...)
	return nil
}

// Invalidate はキャッシュ付きリポジトリと同じく、無効化された銘柄を記録します。
func (r *memHistoryRepository) Invalidate(_ context.Context, stockIDs ...string) {
	if r.InvalidateFunc != nil {
		r.InvalidateFunc(stockIDs)
	}
	r.invalidated = append(r.invalidated, stockIDs...)
}

// mockTradeLedger はTradeLedgerのモックです。
type mockTradeLedger struct {
	ExistsForStockFunc func(stockID string) (bool, error)
}

func (m *mockTradeLedger) ExistsForStock(_ context.Context, stockID string) (bool, error) {
	if m.ExistsForStockFunc != nil {
		return m.ExistsForStockFunc(stockID)
	}
	return false, nil
}

// mockRevaluer はPositionRevaluerのモックです。
type mockRevaluer struct {
	calls map[string]decimal.Decimal
}

func (m *mockRevaluer) RevalueByStock(_ context.Context, stockID string, price decimal.Decimal) (int64, error) {
	if m.calls == nil {
		m.calls = map[string]decimal.Decimal{}
	}
	m.calls[stockID] = price
	return 1, nil
}

// mockPublisher はTickPublisherのモックです。
type mockPublisher struct {
	PublishFunc func(ticks []entity.PriceTick) error
	published   []entity.PriceTick
}

func (m *mockPublisher) PublishTicks(_ context.Context, ticks []entity.PriceTick) error {
	m.published = append(m.published, ticks...)
	if m.PublishFunc != nil {
		return m.PublishFunc(ticks)
	}
	return nil
}

// passthroughTx はfnをそのまま実行するTxManagerです。
type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// recordingTx はfnの実行中かどうかとコミット・ロールバックの回数を記録するTxManagerです。
type recordingTx struct {
	active    bool
	commits   int
	rollbacks int
}

func (t *recordingTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.active = true
	err := fn(ctx)
	t.active = false
	if err != nil {
		t.rollbacks++
		return err
	}
	t.commits++
	return nil
}

// scriptedSource は決められた値を順に返す乱数源です。
type scriptedSource struct {
	values []float64
	i      int
}

func (s *scriptedSource) Float64() float64 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}

func testStock(id, symbol string, price string) *entity.Stock {
	p := decimal.RequireFromString(price)
	return &entity.Stock{
		ID:                id,
		Symbol:            symbol,
		Name:              symbol + " Corp",
		CurrentPrice:      p,
		PreviousClose:     p,
		OpenPrice:         p,
		HighPrice:         p,
		LowPrice:          p,
		IsActive:          true,
		Volatility:        0.02,
		JumpProbability:   0.01,
		MaxJumpMultiplier: 1.1,
	}
}
