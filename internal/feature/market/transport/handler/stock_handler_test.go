package handler_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksim_backend/internal/feature/market/domain/entity"
	"stocksim_backend/internal/feature/market/transport/handler"
	"stocksim_backend/internal/feature/market/usecase"
)

// mockStockUsecase はStockUsecaseインターフェースのモック実装です。
type mockStockUsecase struct {
	ListStocksFunc  func(ctx context.Context) ([]entity.Stock, error)
	GetStockFunc    func(ctx context.Context, id string) (*entity.Stock, error)
	CreateStockFunc func(ctx context.Context, in usecase.CreateStockInput) (*entity.Stock, error)
	UpdateStockFunc func(ctx context.Context, id string, in usecase.UpdateStockInput) (*entity.Stock, error)
	DeleteStockFunc func(ctx context.Context, id string) error
}

func (m *mockStockUsecase) ListStocks(ctx context.Context) ([]entity.Stock, error) {
	return m.ListStocksFunc(ctx)
}

func (m *mockStockUsecase) GetStock(ctx context.Context, id string) (*entity.Stock, error) {
	return m.GetStockFunc(ctx, id)
}

func (m *mockStockUsecase) CreateStock(ctx context.Context, in usecase.CreateStockInput) (*entity.Stock, error) {
	return m.CreateStockFunc(ctx, in)
}

func (m *mockStockUsecase) UpdateStock(ctx context.Context, id string, in usecase.UpdateStockInput) (*entity.Stock, error) {
	return m.UpdateStockFunc(ctx, id, in)
}

func (m *mockStockUsecase) DeleteStock(ctx context.Context, id string) error {
	return m.DeleteStockFunc(ctx, id)
}

type mockHistoryUsecase struct {
	GetHistoryFunc func(ctx context.Context, idOrSymbol string, days int) (*usecase.HistoryView, error)
}

func (m *mockHistoryUsecase) GetHistory(ctx context.Context, idOrSymbol string, days int) (*usecase.HistoryView, error) {
	return m.GetHistoryFunc(ctx, idOrSymbol, days)
}

type mockBackfillUsecase struct {
	BackfillFunc func(ctx context.Context, stockID string, days int) (*usecase.BackfillResult, error)
}

func (m *mockBackfillUsecase) Backfill(ctx context.Context, stockID string, days int) (*usecase.BackfillResult, error) {
	return m.BackfillFunc(ctx, stockID, days)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func acme() *entity.Stock {
	return &entity.Stock{
		ID: "s1", Symbol: "ACME", Name: "Acme Corp", Sector: "Industrials",
		CurrentPrice: d("104"), PreviousClose: d("100"), OpenPrice: d("100"), HighPrice: d("105"), LowPrice: d("99"),
		Volume: 1200, IsActive: true, Volatility: 0.02, JumpProbability: 0.01, MaxJumpMultiplier: 1.1,
	}
}

const acmeJSON = `{"id":"s1","symbol":"ACME","name":"Acme Corp","sector":"Industrials",
	"currentPrice":"104","previousClose":"100","openPrice":"100","highPrice":"105","lowPrice":"99",
	"volume":1200,"isActive":true,"isFrozen":false,"volatility":0.02,"jumpProbability":0.01,"maxJumpMultiplier":1.1}`

func setupRouter(stocks *mockStockUsecase, history *mockHistoryUsecase, backfill *mockBackfillUsecase) *gin.Engine {
	h := handler.NewStockHandler(stocks, history, backfill)
	r := gin.New()
	r.GET("/stocks", h.ListStocks)
	r.GET("/stocks/:id", h.GetStock)
	r.GET("/stocks/:id/history", h.GetHistory)
	r.POST("/admin/stocks", h.CreateStock)
	r.PATCH("/admin/stocks/:id", h.UpdateStock)
	r.DELETE("/admin/stocks/:id", h.DeleteStock)
	r.POST("/admin/stocks/:id/backfill", h.Backfill)
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStockHandler_ReadEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)

	stocks := &mockStockUsecase{
		ListStocksFunc: func(ctx context.Context) ([]entity.Stock, error) {
			return []entity.Stock{*acme()}, nil
		},
		GetStockFunc: func(ctx context.Context, id string) (*entity.Stock, error) {
			if id != "s1" {
				return nil, usecase.ErrStockNotFound
			}
			return acme(), nil
		},
	}
	r := setupRouter(stocks, nil, nil)

	tests := []struct {
		name           string
		url            string
		expectedStatus int
		expectedBody   string
	}{
		{"success: list stocks", "/stocks", http.StatusOK, "[" + acmeJSON + "]"},
		{"success: get stock", "/stocks/s1", http.StatusOK, acmeJSON},
		{"error: unknown stock", "/stocks/nope", http.StatusNotFound, `{"error":"stock not found"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, http.MethodGet, tt.url, "")
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestStockHandler_GetHistory(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	jump := 4.0

	tests := []struct {
		name           string
		url            string
		wantDays       int
		err            error
		expectedStatus int
	}{
		{"success: explicit days", "/stocks/ACME/history?days=7", 7, nil, http.StatusOK},
		{"success: default days", "/stocks/ACME/history", usecase.DefaultHistoryDays, nil, http.StatusOK},
		{"edge case: invalid days falls through as zero", "/stocks/ACME/history?days=abc", 0, nil, http.StatusOK},
		{"error: unknown symbol", "/stocks/NOPE/history", usecase.DefaultHistoryDays, usecase.ErrStockNotFound, http.StatusNotFound},
		{"error: storage failure", "/stocks/ACME/history", usecase.DefaultHistoryDays, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := &mockHistoryUsecase{
				GetHistoryFunc: func(ctx context.Context, idOrSymbol string, days int) (*usecase.HistoryView, error) {
					assert.Equal(t, tt.wantDays, days)
					if tt.err != nil {
						return nil, tt.err
					}
					assert.Equal(t, "ACME", idOrSymbol)
					return &usecase.HistoryView{
						Stock:         acme(),
						PriceChange:   d("4"),
						PercentChange: d("4"),
						Points: []entity.PriceHistoryPoint{
							{StockID: "s1", Price: d("100"), Volume: 10, Timestamp: ts},
							{StockID: "s1", Price: d("104"), Volume: 20, Timestamp: ts.Add(24 * time.Hour), WasJump: true, JumpPercentage: &jump},
						},
					}, nil
				},
			}
			w := serve(setupRouter(&mockStockUsecase{}, history, nil), http.MethodGet, tt.url, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.JSONEq(t, `{"stock":`+acmeJSON+`,"priceChange":"4","percentChange":"4",
					"realizedVolatility":0,"meanReturn":0,"history":[
					{"price":"100","volume":10,"timestamp":"2024-03-01T00:00:00Z","wasJump":false},
					{"price":"104","volume":20,"timestamp":"2024-03-02T00:00:00Z","wasJump":true,"jumpPercentage":4}]}`, w.Body.String())
			}
		})
	}
}

func TestStockHandler_CreateStock(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		body           string
		mock           func(ctx context.Context, in usecase.CreateStockInput) (*entity.Stock, error)
		expectedStatus int
	}{
		{
			name: "success: defaults to active",
			body: `{"symbol":"acme","name":"Acme Corp","currentPrice":"104","volatility":0.02,"priceCap":150}`,
			mock: func(ctx context.Context, in usecase.CreateStockInput) (*entity.Stock, error) {
				assert.Equal(t, "acme", in.Symbol)
				assert.True(t, in.IsActive)
				assert.True(t, in.CurrentPrice.Equal(d("104")))
				assert.True(t, in.PriceCap.Valid)
				assert.True(t, in.PriceCap.Decimal.Equal(d("150")))
				assert.False(t, in.MarketCap.Valid)
				return acme(), nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "success: explicitly inactive",
			body: `{"symbol":"ACME","name":"Acme Corp","currentPrice":104,"isActive":false}`,
			mock: func(ctx context.Context, in usecase.CreateStockInput) (*entity.Stock, error) {
				assert.False(t, in.IsActive)
				return acme(), nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "error: missing symbol",
			body:           `{"name":"Acme Corp","currentPrice":104}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "error: validation failure",
			body: `{"symbol":"ACME","name":"Acme Corp","currentPrice":-1}`,
			mock: func(ctx context.Context, in usecase.CreateStockInput) (*entity.Stock, error) {
				return nil, fmt.Errorf("%w: current price must be positive", usecase.ErrInvalidStock)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "error: duplicate symbol",
			body: `{"symbol":"ACME","name":"Acme Corp","currentPrice":104}`,
			mock: func(ctx context.Context, in usecase.CreateStockInput) (*entity.Stock, error) {
				return nil, usecase.ErrSymbolExists
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stocks := &mockStockUsecase{
				CreateStockFunc: func(ctx context.Context, in usecase.CreateStockInput) (*entity.Stock, error) {
					require.NotNil(t, tt.mock, "CreateStock should not be called")
					return tt.mock(ctx, in)
				},
			}
			w := serve(setupRouter(stocks, nil, nil), http.MethodPost, "/admin/stocks", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestStockHandler_UpdateAndDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)

	stocks := &mockStockUsecase{
		UpdateStockFunc: func(ctx context.Context, id string, in usecase.UpdateStockInput) (*entity.Stock, error) {
			assert.Equal(t, "s1", id)
			require.NotNil(t, in.IsFrozen)
			assert.True(t, *in.IsFrozen)
			assert.Nil(t, in.Name)
			s := acme()
			s.IsFrozen = true
			return s, nil
		},
		DeleteStockFunc: func(ctx context.Context, id string) error {
			if id == "traded" {
				return usecase.ErrStockHasTransactions
			}
			return nil
		},
	}
	r := setupRouter(stocks, nil, nil)

	w := serve(r, http.MethodPatch, "/admin/stocks/s1", `{"isFrozen":true}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isFrozen":true`)

	w = serve(r, http.MethodDelete, "/admin/stocks/s1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(r, http.MethodDelete, "/admin/stocks/traded", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"stock has transactions; set it inactive instead"}`, w.Body.String())
}

func TestStockHandler_Backfill(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		body           string
		wantDays       int
		err            error
		expectedStatus int
	}{
		{"success: default days", "", usecase.DefaultBackfillDays, nil, http.StatusOK},
		{"success: explicit days", `{"days":10}`, 10, nil, http.StatusOK},
		{"error: non-positive days", `{"days":-1}`, -1, usecase.ErrInvalidBackfill, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backfill := &mockBackfillUsecase{
				BackfillFunc: func(ctx context.Context, stockID string, days int) (*usecase.BackfillResult, error) {
					assert.Equal(t, "s1", stockID)
					assert.Equal(t, tt.wantDays, days)
					if tt.err != nil {
						return nil, tt.err
					}
					return &usecase.BackfillResult{Stock: acme(), Points: days + 1}, nil
				},
			}
			w := serve(setupRouter(&mockStockUsecase{}, nil, backfill), http.MethodPost, "/admin/stocks/s1/backfill", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.err == nil {
				assert.Contains(t, w.Body.String(), fmt.Sprintf(`"points":%d`, tt.wantDays+1))
			}
		})
	}
}
