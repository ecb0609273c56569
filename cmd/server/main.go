package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mehuljv/shopstack-backend/config"
	"github.com/mehuljv/shopstack-backend/internal/app/controller"
	"github.com/mehuljv/shopstack-backend/internal/app/repository"
	"github.com/mehuljv/shopstack-backend/internal/app/service"
	"github.com/mehuljv/shopstack-backend/internal/db"
	"github.com/mehuljv/shopstack-backend/internal/middleware"
	"github.com/mehuljv/shopstack-backend/internal/router"
	"github.com/mehuljv/shopstack-backend/internal/scheduler"
	"github.com/mehuljv/shopstack-backend/internal/storage"
	"github.com/mehuljv/shopstack-backend/pkg/logger"
	"github.com/mehuljv/shopstack-backend/pkg/payment/stripe"
	"github.com/mehuljv/shopstack-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting SHOPSTACK Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs the token blacklist; auth still works without it,
	// logout revocation does not.
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, token revocation disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close redis connection", err)
			}
		}()
	}

	// Stripe client is optional; without it checkout still works but
	// payment intents, verification and refunds are unavailable.
	var stripeClient *stripe.Client
	if cfg.Stripe.SecretKey != "" {
		stripeClient, err = stripe.NewClient(stripe.Config{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			BaseURL:       cfg.Stripe.BaseURL,
			Currency:      cfg.Stripe.Currency,
		})
		if err != nil {
			logger.Fatal("Failed to initialize Stripe client", err)
		}
	} else {
		logger.Warn("Stripe secret key not set, payments disabled", nil)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	categoryRepo := repository.NewCategoryRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())
	wishlistRepo := repository.NewWishlistRepository(db.GetDB())
	bannerRepo := repository.NewBannerRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.JWT)
	categoryService := service.NewCategoryService(categoryRepo)
	productService := service.NewProductService(productRepo, categoryRepo)
	cartService := service.NewCartService(cartRepo, productRepo)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo)
	bannerService := service.NewBannerService(bannerRepo)
	reportService := service.NewReportService(orderRepo)

	var orderGateway service.PaymentGateway
	var stripeGateway service.StripeGateway
	if stripeClient != nil {
		orderGateway = stripeClient
		stripeGateway = stripeClient
	}
	orderService := service.NewOrderService(orderRepo, orderGateway, cfg.Checkout, db.GetDB())
	paymentService := service.NewPaymentService(orderRepo, stripeGateway)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	categoryController := controller.NewCategoryController(categoryService)
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(cartService)
	orderController := controller.NewOrderController(orderService)
	wishlistController := controller.NewWishlistController(wishlistService)
	bannerController := controller.NewBannerController(bannerService)
	paymentController := controller.NewPaymentController(paymentService)
	reportController := controller.NewReportController(reportService)

	var uploadController *controller.UploadController
	if cfg.S3.Bucket != "" {
		s3Storage := storage.NewS3Storage(
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.BaseURL,
		)
		uploadController = controller.NewUploadController(s3Storage)
	} else {
		logger.Warn("S3 bucket not set, image uploads disabled", nil)
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Setup router
	r := router.NewRouter(
		authController,
		categoryController,
		productController,
		cartController,
		orderController,
		wishlistController,
		bannerController,
		paymentController,
		reportController,
		uploadController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start the expiry job that reclaims stock from abandoned orders
	expiryScheduler := scheduler.NewOrderExpiryScheduler(orderService, cfg.Checkout.PendingOrderTTL)
	if err := expiryScheduler.Start(); err != nil {
		logger.Fatal("Failed to start order expiry scheduler", err)
	}
	defer expiryScheduler.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
