package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/polkiloo/pointledger/internal/server/http/handlers"
	"github.com/polkiloo/pointledger/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.LedgerFacade, limiter *middleware.UserRateLimiter, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest(middleware.DefaultMaxBody))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	balanceHandler := handlers.NewBalanceHandler(facade)
	withdrawalHandler := handlers.NewWithdrawalHandler(facade)
	adminHandler := handlers.NewAdminHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	api := engine.Group("/api")
	api.GET("/health", healthHandler.Check)

	user := api.Group("/user")
	user.Use(middleware.AuthRequired(facade))
	user.GET("/balance", balanceHandler.Summary)
	user.GET("/transactions", balanceHandler.Transactions)
	user.GET("/withdrawals", withdrawalHandler.List)
	user.POST("/withdrawals", limiter.Middleware(), withdrawalHandler.Submit)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(facade), middleware.AdminRequired())
	admin.GET("/withdrawals", adminHandler.Queue)
	admin.POST("/withdrawals/:id/approve", adminHandler.Approve)
	admin.POST("/withdrawals/:id/complete", adminHandler.Complete)
	admin.POST("/withdrawals/:id/reject", adminHandler.Reject)
	admin.POST("/withdrawals/:id/refund", adminHandler.Refund)
	admin.POST("/users/:id/open", adminHandler.Open)
	admin.POST("/users/:id/earn", adminHandler.Earn)
	admin.POST("/users/:id/adjust", adminHandler.Adjust)
	admin.GET("/users/:id/reconcile", adminHandler.Reconcile)

	return engine
}
