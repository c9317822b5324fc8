package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/lottoline/bingo-relay/config"
	"github.com/lottoline/bingo-relay/finance"
	"github.com/lottoline/bingo-relay/relay"
	"github.com/lottoline/bingo-relay/routes"
	"github.com/lottoline/bingo-relay/utils/logger"
)

// setupRouter initializes Gin routes and middleware
func setupRouter(cfg config.Config, hub *relay.Hub) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	payments := finance.MockPayments{SuccessRate: cfg.PaymentSuccessRate, Delay: cfg.FinanceDelay}
	withdrawals := finance.MockWithdrawals{SuccessRate: cfg.WithdrawalSuccessRate, Delay: cfg.FinanceDelay}

	routes.SetupRoutes(r, hub, payments, withdrawals)

	return r
}

func main() {
	defer logger.Sync()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := relay.NewHub(cfg)
	go hub.Run(ctx)

	router := setupRouter(cfg, hub)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Bingo relay listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown error: %v", err)
	}
}
