package router

import (
	"github.com/gin-gonic/gin"

	"stocksim_backend/internal/app/di"
	platformhandler "stocksim_backend/internal/platform/http/handler"
	jwtmw "stocksim_backend/internal/platform/jwt"
)

func NewRouter(app *di.App, db platformhandler.Pinger) *gin.Engine {
	r := gin.Default()

	// 認証不要
	// 導通確認用
	r.GET("/healthz", platformhandler.Health)
	r.GET("/readyz", platformhandler.Ready(db))
	// 新規ユーザー登録（ポートフォリオも同時に作成）とログイン（JWT 発行）
	public := r.Group("/")
	if app.AuthLimiter != nil {
		public.Use(app.AuthLimiter.Middleware())
	}
	{
		public.POST("/signup", app.AuthHandler.Signup)
		public.POST("/login", app.AuthHandler.Login)
	}

	// 銘柄と価格履歴は公開
	r.GET("/stocks", app.StockHandler.ListStocks)
	r.GET("/stocks/:id", app.StockHandler.GetStock)
	r.GET("/stocks/:id/history", app.StockHandler.GetHistory)

	// 認証必須のルート
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired())
	{
		auth.GET("/me", app.AuthHandler.Me)

		auth.POST("/trades/buy", app.TradeHandler.Buy)
		auth.POST("/trades/sell", app.TradeHandler.Sell)

		auth.GET("/portfolio", app.PortfolioHandler.GetPortfolio)
		auth.GET("/transactions", app.PortfolioHandler.ListTransactions)
		auth.GET("/dashboard", app.PortfolioHandler.Dashboard)
		auth.GET("/analytics", app.PortfolioHandler.Analytics)
	}

	// 管理者のみ
	admin := r.Group("/admin")
	admin.Use(jwtmw.AuthRequired(), jwtmw.AdminRequired())
	{
		admin.POST("/stocks", app.StockHandler.CreateStock)
		admin.PATCH("/stocks/:id", app.StockHandler.UpdateStock)
		admin.DELETE("/stocks/:id", app.StockHandler.DeleteStock)
		admin.POST("/stocks/:id/backfill", app.StockHandler.Backfill)
	}

	return r
}
