package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"stocksim_backend/internal/feature/trading/domain/accounting"
	"stocksim_backend/internal/feature/trading/domain/entity"
)

const (
	recentTransactionsLimit = 5
	topPerformersLimit      = 5
	pnlByStockLimit         = 10
	uncategorizedSector     = "Uncategorized"
)

var hundred = decimal.NewFromInt(100)

// PortfolioSummary は残高と現在値で評価したポジションの一覧です。
type PortfolioSummary struct {
	PortfolioID     string
	Balance         decimal.Decimal
	Positions       []PositionView
	TotalValue      decimal.Decimal // 保有ポジションの評価額合計
	TotalProfitLoss decimal.Decimal // 含み損益の合計
}

// Dashboard はダッシュボード表示用の集計です。
type Dashboard struct {
	Balance            decimal.Decimal
	PortfolioValue     decimal.Decimal
	TotalProfit        decimal.Decimal // 売却による実現損益の合計
	GrowthRate         decimal.Decimal // TotalProfit / PortfolioValue * 100
	RecentTransactions []TransactionView
}

// SectorAllocation はセクター別の評価額です。
type SectorAllocation struct {
	Sector     string
	Value      decimal.Decimal
	Percentage decimal.Decimal
}

// Performer は保有銘柄の騰落率です。
type Performer struct {
	StockID       string
	Symbol        string
	Name          string
	ReturnPercent decimal.Decimal
	ProfitLoss    decimal.Decimal
}

// StockPnL は銘柄ごとの実現・含み損益です。
type StockPnL struct {
	StockID    string
	Symbol     string
	Name       string
	Realized   decimal.Decimal
	Unrealized decimal.Decimal
	Total      decimal.Decimal
}

// Analytics はポートフォリオ分析の結果です。
type Analytics struct {
	SectorAllocation []SectorAllocation
	TopPerformers    []Performer
	PnLByStock       []StockPnL
}

// portfolioUsecase はポートフォリオ・取引履歴・分析の参照系を実装します。
type portfolioUsecase struct {
	accounts     AccountRepository
	portfolios   PortfolioRepository
	positions    PositionRepository
	transactions TransactionRepository
}

// NewPortfolioUsecase はportfolioUsecaseの新しいインスタンスを生成します。
func NewPortfolioUsecase(accounts AccountRepository, portfolios PortfolioRepository, positions PositionRepository, transactions TransactionRepository) *portfolioUsecase {
	return &portfolioUsecase{
		accounts:     accounts,
		portfolios:   portfolios,
		positions:    positions,
		transactions: transactions,
	}
}

// GetPortfolio は利用者の残高と、現在値で評価したポジションを返します。
func (u *portfolioUsecase) GetPortfolio(ctx context.Context, userID string) (*PortfolioSummary, error) {
	account, err := u.accounts.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	portfolio, err := u.portfolios.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	views, err := u.positions.ListViews(ctx, portfolio.ID)
	if err != nil {
		return nil, err
	}

	summary := &PortfolioSummary{
		PortfolioID:     portfolio.ID,
		Balance:         account.Balance,
		Positions:       views,
		TotalValue:      decimal.Zero,
		TotalProfitLoss: decimal.Zero,
	}
	for i := range summary.Positions {
		v := &summary.Positions[i]
		// 保存済みの評価額ではなく最新の価格で評価する
		accounting.Revalue(&v.Position, v.CurrentPrice)
		summary.TotalValue = summary.TotalValue.Add(v.CurrentValue)
		summary.TotalProfitLoss = summary.TotalProfitLoss.Add(v.ProfitLoss)
	}
	return summary, nil
}

// ListTransactions は利用者の取引を新しい順に返します。
// tradeType は "", "all", "BUY", "SELL" のいずれかです。
func (u *portfolioUsecase) ListTransactions(ctx context.Context, userID, tradeType string) ([]TransactionView, error) {
	var filter entity.TradeType
	switch tradeType {
	case "", "all", "ALL":
	default:
		filter = entity.TradeType(tradeType)
		if !filter.Valid() {
			return nil, fmt.Errorf("%w: unknown transaction type %q", ErrInvalidInput, tradeType)
		}
	}
	return u.transactions.ListViews(ctx, userID, filter, 0)
}

// Dashboard は残高・評価額・実現損益・直近の取引をまとめて返します。
func (u *portfolioUsecase) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	summary, err := u.GetPortfolio(ctx, userID)
	if err != nil {
		return nil, err
	}
	realized, err := u.transactions.RealizedByStock(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := u.transactions.ListViews(ctx, userID, "", recentTransactionsLimit)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Balance:            summary.Balance,
		PortfolioValue:     summary.TotalValue,
		TotalProfit:        decimal.Zero,
		GrowthRate:         decimal.Zero,
		RecentTransactions: recent,
	}
	for _, r := range realized {
		d.TotalProfit = d.TotalProfit.Add(r.Amount)
	}
	if d.PortfolioValue.IsPositive() {
		d.GrowthRate = d.TotalProfit.Div(d.PortfolioValue).Mul(hundred).Round(2)
	}
	return d, nil
}

// Analytics はセクター配分・騰落率上位・銘柄別損益を算出します。
func (u *portfolioUsecase) Analytics(ctx context.Context, userID string) (*Analytics, error) {
	summary, err := u.GetPortfolio(ctx, userID)
	if err != nil {
		return nil, err
	}
	realized, err := u.transactions.RealizedByStock(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Analytics{
		SectorAllocation: sectorAllocation(summary),
		TopPerformers:    topPerformers(summary.Positions, topPerformersLimit),
		PnLByStock:       pnlByStock(summary.Positions, realized, pnlByStockLimit),
	}, nil
}

func sectorAllocation(summary *PortfolioSummary) []SectorAllocation {
	values := map[string]decimal.Decimal{}
	for _, p := range summary.Positions {
		sector := p.Sector
		if sector == "" {
			sector = uncategorizedSector
		}
		values[sector] = values[sector].Add(p.CurrentValue)
	}

	out := make([]SectorAllocation, 0, len(values))
	for sector, v := range values {
		a := SectorAllocation{Sector: sector, Value: v, Percentage: decimal.Zero}
		if summary.TotalValue.IsPositive() {
			a.Percentage = v.Div(summary.TotalValue).Mul(hundred).Round(2)
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Value.Equal(out[j].Value) {
			return out[i].Value.GreaterThan(out[j].Value)
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}

func topPerformers(positions []PositionView, limit int) []Performer {
	out := make([]Performer, 0, len(positions))
	for _, p := range positions {
		ret := decimal.Zero
		if p.AverageBuyPrice.IsPositive() {
			ret = p.CurrentPrice.Sub(p.AverageBuyPrice).Div(p.AverageBuyPrice).Mul(hundred).Round(2)
		}
		out = append(out, Performer{
			StockID:       p.StockID,
			Symbol:        p.Symbol,
			Name:          p.Name,
			ReturnPercent: ret,
			ProfitLoss:    p.ProfitLoss,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReturnPercent.GreaterThan(out[j].ReturnPercent)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func pnlByStock(positions []PositionView, realized []RealizedPnL, limit int) []StockPnL {
	byStock := map[string]*StockPnL{}
	var order []string
	get := func(id, symbol, name string) *StockPnL {
		if s, ok := byStock[id]; ok {
			return s
		}
		s := &StockPnL{StockID: id, Symbol: symbol, Name: name, Realized: decimal.Zero, Unrealized: decimal.Zero}
		byStock[id] = s
		order = append(order, id)
		return s
	}

	for _, r := range realized {
		s := get(r.StockID, r.Symbol, r.Name)
		s.Realized = s.Realized.Add(r.Amount)
	}
	for _, p := range positions {
		s := get(p.StockID, p.Symbol, p.Name)
		s.Unrealized = s.Unrealized.Add(p.ProfitLoss)
	}

	out := make([]StockPnL, 0, len(order))
	for _, id := range order {
		s := byStock[id]
		s.Total = s.Realized.Add(s.Unrealized)
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.Abs().GreaterThan(out[j].Total.Abs())
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
