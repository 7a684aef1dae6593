package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"stocksim_backend/internal/feature/trading/usecase"
)

// PortfolioRes は GET /portfolio のレスポンスです。
type PortfolioRes struct {
	PortfolioID     string          `json:"portfolioId"`
	Balance         decimal.Decimal `json:"balance"`
	TotalValue      decimal.Decimal `json:"totalValue"`
	TotalProfitLoss decimal.Decimal `json:"totalProfitLoss"`
	Positions       []PositionRes   `json:"positions"`
}

// TransactionRes は取引台帳の1件です。
type TransactionRes struct {
	ID          string           `json:"id"`
	StockID     string           `json:"stockId"`
	Symbol      string           `json:"symbol"`
	Name        string           `json:"name"`
	Type        string           `json:"type"`
	Quantity    int64            `json:"quantity"`
	Price       decimal.Decimal  `json:"price"`
	TotalAmount decimal.Decimal  `json:"totalAmount"`
	ProfitLoss  *decimal.Decimal `json:"profitLoss,omitempty"`
	Timestamp   string           `json:"timestamp"`
}

// DashboardRes は GET /dashboard のレスポンスです。
type DashboardRes struct {
	Balance            decimal.Decimal  `json:"balance"`
	PortfolioValue     decimal.Decimal  `json:"portfolioValue"`
	TotalProfit        decimal.Decimal  `json:"totalProfit"`
	GrowthRate         decimal.Decimal  `json:"growthRate"`
	RecentTransactions []TransactionRes `json:"recentTransactions"`
}

// SectorAllocationRes はセクター別の評価額と構成比です。
type SectorAllocationRes struct {
	Sector     string          `json:"sector"`
	Value      decimal.Decimal `json:"value"`
	Percentage decimal.Decimal `json:"percentage"`
}

// PerformerRes は騰落率上位の銘柄です。
type PerformerRes struct {
	StockID       string          `json:"stockId"`
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	ReturnPercent decimal.Decimal `json:"returnPercent"`
	ProfitLoss    decimal.Decimal `json:"profitLoss"`
}

// StockPnLRes は銘柄別の実現・含み損益です。
type StockPnLRes struct {
	StockID    string          `json:"stockId"`
	Symbol     string          `json:"symbol"`
	Name       string          `json:"name"`
	Realized   decimal.Decimal `json:"realized"`
	Unrealized decimal.Decimal `json:"unrealized"`
	Total      decimal.Decimal `json:"total"`
}

// AnalyticsRes は GET /analytics のレスポンスです。
type AnalyticsRes struct {
	SectorAllocation []SectorAllocationRes `json:"sectorAllocation"`
	TopPerformers    []PerformerRes        `json:"topPerformers"`
	PnLByStock       []StockPnLRes         `json:"pnlByStock"`
}

func NewPortfolioRes(s *usecase.PortfolioSummary) PortfolioRes {
	out := PortfolioRes{
		PortfolioID:     s.PortfolioID,
		Balance:         s.Balance,
		TotalValue:      s.TotalValue,
		TotalProfitLoss: s.TotalProfitLoss,
		Positions:       make([]PositionRes, 0, len(s.Positions)),
	}
	for _, v := range s.Positions {
		p := NewPositionRes(v.Position)
		price := v.CurrentPrice
		p.Symbol, p.Name, p.Sector, p.CurrentPrice = v.Symbol, v.Name, v.Sector, &price
		out.Positions = append(out.Positions, p)
	}
	return out
}

func NewTransactionsRes(views []usecase.TransactionView) []TransactionRes {
	out := make([]TransactionRes, 0, len(views))
	for _, v := range views {
		t := TransactionRes{
			ID:          v.ID,
			StockID:     v.StockID,
			Symbol:      v.Symbol,
			Name:        v.Name,
			Type:        string(v.Type),
			Quantity:    v.Quantity,
			Price:       v.Price,
			TotalAmount: v.TotalAmount,
			Timestamp:   v.Timestamp.UTC().Format(time.RFC3339),
		}
		if v.ProfitLoss.Valid {
			pnl := v.ProfitLoss.Decimal
			t.ProfitLoss = &pnl
		}
		out = append(out, t)
	}
	return out
}

func NewDashboardRes(d *usecase.Dashboard) DashboardRes {
	return DashboardRes{
		Balance:            d.Balance,
		PortfolioValue:     d.PortfolioValue,
		TotalProfit:        d.TotalProfit,
		GrowthRate:         d.GrowthRate,
		RecentTransactions: NewTransactionsRes(d.RecentTransactions),
	}
}

func NewAnalyticsRes(a *usecase.Analytics) AnalyticsRes {
	out := AnalyticsRes{
		SectorAllocation: make([]SectorAllocationRes, 0, len(a.SectorAllocation)),
		TopPerformers:    make([]PerformerRes, 0, len(a.TopPerformers)),
		PnLByStock:       make([]StockPnLRes, 0, len(a.PnLByStock)),
	}
	for _, s := range a.SectorAllocation {
		out.SectorAllocation = append(out.SectorAllocation, SectorAllocationRes(s))
	}
	for _, p := range a.TopPerformers {
		out.TopPerformers = append(out.TopPerformers, PerformerRes(p))
	}
	for _, p := range a.PnLByStock {
		out.PnLByStock = append(out.PnLByStock, StockPnLRes(p))
	}
	return out
}
