package router

import (
	"github.com/gin-gonic/gin"

	"github.com/mehuljv/shopstack-backend/config"
	"github.com/mehuljv/shopstack-backend/internal/app/controller"
	"github.com/mehuljv/shopstack-backend/internal/middleware"
)

type Router struct {
	authController     *controller.AuthController
	categoryController *controller.CategoryController
	productController  *controller.ProductController
	cartController     *controller.CartController
	orderController    *controller.OrderController
	wishlistController *controller.WishlistController
	bannerController   *controller.BannerController
	paymentController  *controller.PaymentController
	reportController   *controller.ReportController
	uploadController   *controller.UploadController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	categoryController *controller.CategoryController,
	productController *controller.ProductController,
	cartController *controller.CartController,
	orderController *controller.OrderController,
	wishlistController *controller.WishlistController,
	bannerController *controller.BannerController,
	paymentController *controller.PaymentController,
	reportController *controller.ReportController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:     authController,
		categoryController: categoryController,
		productController:  productController,
		cartController:     cartController,
		orderController:    orderController,
		wishlistController: wishlistController,
		bannerController:   bannerController,
		paymentController:  paymentController,
		reportController:   reportController,
		uploadController:   uploadController,
		authMiddleware:     authMiddleware,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "SHOPSTACK API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.Refresh)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.Me)
			auth.PUT("/me", r.authMiddleware.Authenticate(), r.authController.UpdateMe)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", r.categoryController.ListCategories)
			categories.GET("/:id", r.categoryController.GetCategory)
		}

		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/:id", r.productController.GetProduct)
		}

		banners := v1.Group("/banners")
		{
			banners.GET("", r.bannerController.ListBanners)
		}

		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.Authenticate())
		{
			cart.GET("", r.cartController.GetCart)
			cart.POST("/items", r.cartController.AddToCart)
			cart.PUT("/items/:product_id", r.cartController.UpdateCartItem)
			cart.DELETE("/items/:product_id", r.cartController.RemoveFromCart)
			cart.DELETE("", r.cartController.ClearCart)
		}

		orders := v1.Group("/orders")
		orders.Use(r.authMiddleware.Authenticate())
		{
			orders.POST("", r.orderController.CreateOrder)
			orders.GET("", r.orderController.GetMyOrders)
			orders.GET("/:id", r.orderController.GetOrder)
			orders.POST("/:id/cancel", r.orderController.CancelOrder)
		}

		wishlist := v1.Group("/wishlist")
		wishlist.Use(r.authMiddleware.Authenticate())
		{
			wishlist.GET("", r.wishlistController.GetWishlist)
			wishlist.POST("", r.wishlistController.AddToWishlist)
			wishlist.DELETE("/:product_id", r.wishlistController.RemoveFromWishlist)
		}

		payments := v1.Group("/payments")
		{
			// Webhook is authenticated by signature, not by bearer token.
			payments.POST("/webhook", r.paymentController.Webhook)
			payments.POST("/intent",
				r.authMiddleware.Authenticate(),
				r.paymentController.CreateIntent,
			)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate())
		admin.Use(r.authMiddleware.RequireRole("admin"))
		{
			admin.GET("/categories", r.categoryController.ListCategories)
			admin.POST("/categories", r.categoryController.CreateCategory)
			admin.PUT("/categories/:id", r.categoryController.UpdateCategory)
			admin.DELETE("/categories/:id", r.categoryController.DeleteCategory)

			admin.GET("/products", r.productController.ListProducts)
			admin.POST("/products", r.productController.CreateProduct)
			admin.PUT("/products/:id", r.productController.UpdateProduct)
			admin.DELETE("/products/:id", r.productController.DeleteProduct)

			admin.GET("/banners", r.bannerController.ListAllBanners)
			admin.POST("/banners", r.bannerController.CreateBanner)
			admin.PUT("/banners/:id", r.bannerController.UpdateBanner)
			admin.DELETE("/banners/:id", r.bannerController.DeleteBanner)

			admin.GET("/orders", r.orderController.ListOrders)
			admin.GET("/orders/export", r.reportController.ExportOrders)
			admin.PUT("/orders/:id/status", r.orderController.UpdateOrderStatus)
			admin.PUT("/orders/:id/payment-status", r.orderController.UpdatePaymentStatus)
			admin.POST("/orders/:id/refund", r.paymentController.Refund)

			if r.uploadController != nil {
				admin.POST("/uploads/presign", r.uploadController.PresignUpload)
			}
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
