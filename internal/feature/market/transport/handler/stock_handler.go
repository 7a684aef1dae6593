// Package handler はmarketフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stocksim_backend/internal/feature/market/domain/entity"
	"stocksim_backend/internal/feature/market/transport/http/dto"
	"stocksim_backend/internal/feature/market/usecase"
	"stocksim_backend/internal/platform/http/response"
)

// StockUsecase は銘柄の参照・管理のユースケースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type StockUsecase interface {
	ListStocks(ctx context.Context) ([]entity.Stock, error)
	GetStock(ctx context.Context, id string) (*entity.Stock, error)
	CreateStock(ctx context.Context, in usecase.CreateStockInput) (*entity.Stock, error)
	UpdateStock(ctx context.Context, id string, in usecase.UpdateStockInput) (*entity.Stock, error)
	DeleteStock(ctx context.Context, id string) error
}

// HistoryUsecase は価格履歴の参照を定義します。
type HistoryUsecase interface {
	GetHistory(ctx context.Context, idOrSymbol string, days int) (*usecase.HistoryView, error)
}

// BackfillUsecase は価格履歴の生成を定義します。
type BackfillUsecase interface {
	Backfill(ctx context.Context, stockID string, days int) (*usecase.BackfillResult, error)
}

// StockHandler は銘柄と価格履歴のHTTPリクエストを処理します。
type StockHandler struct {
	stocks   StockUsecase
	history  HistoryUsecase
	backfill BackfillUsecase
}

// NewStockHandler はStockHandlerの新しいインスタンスを生成します。
func NewStockHandler(stocks StockUsecase, history HistoryUsecase, backfill BackfillUsecase) *StockHandler {
	return &StockHandler{stocks: stocks, history: history, backfill: backfill}
}

// ListStocks は GET /stocks を処理します。
func (h *StockHandler) ListStocks(c *gin.Context) {
	stocks, err := h.stocks.ListStocks(c.Request.Context())
	if err != nil {
		fail(c, "list stocks failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewStocksRes(stocks))
}

// GetStock は GET /stocks/:id を処理します。
func (h *StockHandler) GetStock(c *gin.Context) {
	s, err := h.stocks.GetStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, "get stock failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewStockRes(s))
}

// GetHistory は銘柄IDまたはシンボルを受け取り、直近の価格履歴を返します。
//
// エンドポイント例:
// GET /stocks/AAPL/history?days=30
func (h *StockHandler) GetHistory(c *gin.Context) {
	// 数値でない場合は0となり、usecase側でデフォルト値が使われる
	days, _ := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(usecase.DefaultHistoryDays)))

	view, err := h.history.GetHistory(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		fail(c, "get history failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewHistoryRes(view))
}

// CreateStock は POST /admin/stocks を処理します。
func (h *StockHandler) CreateStock(c *gin.Context) {
	var req dto.CreateStockReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("create stock validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "invalid request"})
		return
	}
	s, err := h.stocks.CreateStock(c.Request.Context(), req.ToInput())
	if err != nil {
		fail(c, "create stock failed", err)
		return
	}
	slog.Info("stock created by admin", "stock_id", s.ID, "symbol", s.Symbol, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, dto.NewStockRes(s))
}

// UpdateStock は PATCH /admin/stocks/:id を処理します。
func (h *StockHandler) UpdateStock(c *gin.Context) {
	var req dto.UpdateStockReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("update stock validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "invalid request"})
		return
	}
	s, err := h.stocks.UpdateStock(c.Request.Context(), c.Param("id"), req.ToInput())
	if err != nil {
		fail(c, "update stock failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewStockRes(s))
}

// DeleteStock は DELETE /admin/stocks/:id を処理します。取引のある銘柄は削除できません。
func (h *StockHandler) DeleteStock(c *gin.Context) {
	if err := h.stocks.DeleteStock(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, "delete stock failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Backfill は POST /admin/stocks/:id/backfill を処理します。ボディを省略した場合は既定の日数で生成します。
func (h *StockHandler) Backfill(c *gin.Context) {
	req := dto.BackfillReq{Days: usecase.DefaultBackfillDays}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "invalid request"})
			return
		}
	}
	res, err := h.backfill.Backfill(c.Request.Context(), c.Param("id"), req.Days)
	if err != nil {
		fail(c, "backfill failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.BackfillRes{Stock: dto.NewStockRes(res.Stock), Points: res.Points})
}

// fail はユースケースのエラーをHTTPステータスに対応付けます。
func fail(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrStockNotFound):
		status = http.StatusNotFound
	case errors.Is(err, usecase.ErrInvalidStock), errors.Is(err, usecase.ErrInvalidBackfill):
		status = http.StatusBadRequest
	case errors.Is(err, usecase.ErrSymbolExists), errors.Is(err, usecase.ErrStockHasTransactions):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		slog.Error(msg, "error", err, "remote_addr", c.ClientIP())
		c.JSON(status, response.ErrorResponse{Error: "internal server error"})
		return
	}
	slog.Warn(msg, "error", err, "remote_addr", c.ClientIP())
	c.JSON(status, response.ErrorResponse{Error: err.Error()})
}
