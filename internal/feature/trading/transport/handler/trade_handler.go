// Package handler はtradingフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"stocksim_backend/internal/feature/trading/transport/http/dto"
	"stocksim_backend/internal/feature/trading/usecase"
)

// SettlementUsecase は約定処理のユースケースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type SettlementUsecase interface {
	ExecuteBuy(ctx context.Context, req usecase.TradeRequest) usecase.Result
	ExecuteSell(ctx context.Context, req usecase.TradeRequest) usecase.Result
}

// TradeHandler は売買注文のHTTPリクエストを処理します。
type TradeHandler struct {
	uc SettlementUsecase
}

// NewTradeHandler はTradeHandlerの新しいインスタンスを生成します。
func NewTradeHandler(uc SettlementUsecase) *TradeHandler {
	return &TradeHandler{uc: uc}
}

// Buy は買い注文を約定します。
//
// エンドポイント例:
// POST /trades/buy {"stockId":"...","quantity":10}
func (h *TradeHandler) Buy(c *gin.Context) {
	h.trade(c, h.uc.ExecuteBuy)
}

// Sell は売り注文を約定します。
//
// エンドポイント例:
// POST /trades/sell {"stockId":"...","quantity":10}
func (h *TradeHandler) Sell(c *gin.Context) {
	h.trade(c, h.uc.ExecuteSell)
}

func (h *TradeHandler) trade(c *gin.Context, execute func(context.Context, usecase.TradeRequest) usecase.Result) {
	userID, ok := authorize(c)
	if !ok {
		return
	}

	var req dto.TradeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("trade validation failed", "error", err, "remote_addr", c.ClientIP())
		res := usecase.Result{Status: usecase.StatusRejected, Reason: usecase.KindInvalidInput, Err: err}
		c.JSON(tradeStatus(res), dto.NewTradeRes(res))
		return
	}

	res := execute(c.Request.Context(), usecase.TradeRequest{
		UserID:   userID,
		StockID:  req.StockID,
		Quantity: req.Quantity,
	})
	c.JSON(tradeStatus(res), dto.NewTradeRes(res))
}

// tradeStatus は約定結果をHTTPステータスに対応付けます。
//   - ok: 200
//   - rejected: 400 (InvalidInput), 404 (NotFound), それ以外は 422
//   - failed: 503
func tradeStatus(res usecase.Result) int {
	switch res.Status {
	case usecase.StatusOK:
		return http.StatusOK
	case usecase.StatusRejected:
		switch res.Reason {
		case usecase.KindInvalidInput:
			return http.StatusBadRequest
		case usecase.KindNotFound:
			return http.StatusNotFound
		default:
			return http.StatusUnprocessableEntity
		}
	default:
		return http.StatusServiceUnavailable
	}
}
