package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"stocksim_backend/internal/feature/trading/transport/http/dto"
	"stocksim_backend/internal/feature/trading/usecase"
	"stocksim_backend/internal/platform/http/response"
	jwtmw "stocksim_backend/internal/platform/jwt"
)

// PortfolioUsecase はポートフォリオ参照系のユースケースを定義します。
type PortfolioUsecase interface {
	GetPortfolio(ctx context.Context, userID string) (*usecase.PortfolioSummary, error)
	ListTransactions(ctx context.Context, userID, tradeType string) ([]usecase.TransactionView, error)
	Dashboard(ctx context.Context, userID string) (*usecase.Dashboard, error)
	Analytics(ctx context.Context, userID string) (*usecase.Analytics, error)
}

// PortfolioHandler はポートフォリオ・取引履歴・ダッシュボード・分析のHTTPリクエストを処理します。
type PortfolioHandler struct {
	uc PortfolioUsecase
}

// NewPortfolioHandler はPortfolioHandlerの新しいインスタンスを生成します。
func NewPortfolioHandler(uc PortfolioUsecase) *PortfolioHandler {
	return &PortfolioHandler{uc: uc}
}

// GetPortfolio は GET /portfolio を処理します。
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	userID, ok := authorize(c)
	if !ok {
		return
	}
	summary, err := h.uc.GetPortfolio(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "get portfolio failed", userID, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPortfolioRes(summary))
}

// ListTransactions は GET /transactions?type=all|BUY|SELL を処理します。
func (h *PortfolioHandler) ListTransactions(c *gin.Context) {
	userID, ok := authorize(c)
	if !ok {
		return
	}
	views, err := h.uc.ListTransactions(c.Request.Context(), userID, c.DefaultQuery("type", "all"))
	if err != nil {
		h.fail(c, "list transactions failed", userID, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTransactionsRes(views))
}

// Dashboard は GET /dashboard を処理します。
func (h *PortfolioHandler) Dashboard(c *gin.Context) {
	userID, ok := authorize(c)
	if !ok {
		return
	}
	d, err := h.uc.Dashboard(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "dashboard failed", userID, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDashboardRes(d))
}

// Analytics は GET /analytics を処理します。
func (h *PortfolioHandler) Analytics(c *gin.Context) {
	userID, ok := authorize(c)
	if !ok {
		return
	}
	a, err := h.uc.Analytics(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "analytics failed", userID, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAnalyticsRes(a))
}

func (h *PortfolioHandler) fail(c *gin.Context, msg, userID string, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		slog.Warn(msg, "user_id", userID, "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrUserNotFound), errors.Is(err, usecase.ErrPortfolioNotFound):
		slog.Warn(msg, "user_id", userID, "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusNotFound, response.ErrorResponse{Error: "portfolio not found"})
	default:
		slog.Error(msg, "user_id", userID, "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: "internal server error"})
	}
}

func authorize(c *gin.Context) (string, bool) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{Error: "unauthorized"})
	}
	return userID, ok
}
