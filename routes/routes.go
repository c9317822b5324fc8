package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/lottoline/bingo-relay/controllers"
	"github.com/lottoline/bingo-relay/finance"
	"github.com/lottoline/bingo-relay/relay"
)

func SetupRoutes(r *gin.Engine, hub *relay.Hub, payments finance.PaymentGateway, withdrawals finance.WithdrawalGateway) {
	games := &controllers.GamesController{Hub: hub}
	fin := &controllers.FinanceController{Payments: payments, Withdrawals: withdrawals}

	// Health check endpoint
	r.GET("/health", games.Health)

	// WebSocket relay endpoint
	r.GET("/ws", relay.HandleWebSocket(hub))

	api := r.Group("/api")

	// ----------------------
	// Game routes
	// ----------------------
	api.GET("/games", games.ListGames)
	api.POST("/games", games.CreateGame)
	api.GET("/games/:id", games.GetGame)

	// ----------------------
	// Finance routes (mocked)
	// ----------------------
	api.POST("/payments/verify", fin.VerifyPayment)
	api.POST("/withdrawals", fin.Withdraw)
}
