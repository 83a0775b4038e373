package server

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jinseokoh/socrates/config"
	"github.com/jinseokoh/socrates/internal/gateway"
	"github.com/jinseokoh/socrates/internal/handlers"
	"github.com/jinseokoh/socrates/internal/middleware"
	"github.com/jinseokoh/socrates/internal/notify"
	"github.com/jinseokoh/socrates/internal/repository"
	"github.com/jinseokoh/socrates/internal/settlement"
	"github.com/jinseokoh/socrates/internal/shipping"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	gwCfg, err := config.LoadGatewayConfig()
	if err != nil {
		return fmt.Errorf("failed to load gateway config: %v", err)
	}
	gwClient := gateway.NewClient(gwCfg.BaseURL, gwCfg.APIKey, gwCfg.APISecret, logger)

	shippingCfg, err := config.LoadShippingConfig()
	if err != nil {
		return fmt.Errorf("failed to load shipping config: %v", err)
	}
	calc := shipping.NewCalculator(shippingCfg)

	engine := settlement.NewEngine(
		repository.NewRunner(db),
		gwClient,
		calc,
		notify.NewLogNotifier(logger),
		logger,
	)

	r := gin.Default()

	setupRoutes(r, db, engine)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, db *gorm.DB, engine *settlement.Engine) {
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.SettlementMiddleware(engine))

	public := r.Group("/v1")
	{
		paymentPublic := public.Group("/payments")
		{
			paymentPublic.POST("/complete", handlers.CompletePayment)
			paymentPublic.POST("/webhook", handlers.PaymentWebhook)
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		auctionProtected := protected.Group("/auctions")
		{
			auctionProtected.POST("/:auctionId/orders", handlers.CreateOrderFromAuction)
			auctionProtected.POST("/:auctionId/buy-now", handlers.BuyItNow)
		}

		paymentProtected := protected.Group("/payments")
		{
			paymentProtected.POST("", handlers.CreatePayment)
			paymentProtected.GET("/:id", handlers.GetPayment)
		}

		orderProtected := protected.Group("/orders")
		{
			orderProtected.DELETE("/:id", handlers.WithdrawOrder)
		}
	}
}
