package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/adapter/api/handler"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/adapter/api/middleware"
)

// SetupRoutes configures all the routes for the API
func SetupRoutes(
	router *gin.Engine,
	transactionHandler *handler.TransactionHandler,
	webhookHandler *handler.WebhookHandler,
	walletHandler *handler.WalletHandler,
) {
	// Transaction routes
	transactionRoutes := router.Group("/transactions")
	{
		// POST /transactions
		transactionRoutes.POST("", transactionHandler.Create)

		// GET /transactions/:reference
		transactionRoutes.GET("/:reference", transactionHandler.GetByReference)

		// POST /transactions/:reference/refund
		transactionRoutes.POST("/:reference/refund", transactionHandler.Refund)
	}

	// Provider callbacks
	router.POST("/webhooks/:provider", webhookHandler.HandleCallback)

	// Wallet routes
	walletRoutes := router.Group("/wallets")
	{
		// GET /wallets/:partyId/balance
		walletRoutes.GET("/:partyId/balance", walletHandler.GetBalance)

		// GET /wallets/:partyId/statement
		walletRoutes.GET("/:partyId/statement", walletHandler.GetStatement)
	}

	// Operational endpoints
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger) {
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger))
}
