package routes

import (
	"time"

	"savora_back_end/internal/handlers"
	"savora_back_end/internal/handlers/payement"
	"savora_back_end/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature", "X-Razorpay-Signature"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// ✅ Webhooks passerelles — PAS d'authentification, signature HMAC seulement
	api.POST("/payments/webhook", payement.StripeWebhook)
	api.POST("/payments/webhook/razorpay", payement.RazorpayWebhook)

	// Routes utilisateur (JWT requis)
	auth := api.Group("")
	auth.Use(middleware.AuthRequired())
	{
		// Commandes
		auth.POST("/orders", handlers.CreateOrder)
		auth.GET("/orders", handlers.GetMyOrders)
		auth.GET("/orders/:id", handlers.GetOrderByID)
		auth.DELETE("/orders/:id", handlers.CancelOrder)

		// Paiement
		auth.POST("/payments/create", payement.CreatePaymentIntent)
		auth.POST("/payments/confirm", payement.ConfirmPayment)

		// Coupons
		auth.POST("/coupons/validate", payement.ValidateCoupon)
		auth.POST("/coupons/apply/:orderId", payement.ApplyCoupon)

		// Retours
		auth.POST("/returns", handlers.CreateReturn)
		auth.GET("/returns", handlers.GetMyReturns)
	}

	// Routes admin (JWT + rôle admin)
	adminOnly := []gin.HandlerFunc{middleware.AuthRequired(), middleware.RequireAdmin}

	api.PUT("/orders/:id", append(adminOnly, handlers.UpdateOrderStatus)...)
	api.PUT("/returns/:id", append(adminOnly, handlers.UpdateReturnStatus)...)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.RequireAdmin)
	{
		admin.GET("/orders", handlers.GetAllOrders)
		admin.GET("/returns", handlers.GetAllReturns)

		admin.POST("/coupons", payement.CreateCoupon)
		admin.GET("/coupons", payement.GetAllCoupons)
		admin.PUT("/coupons/:code", payement.UpdateCoupon)
		admin.DELETE("/coupons/:code", payement.DeleteCoupon)
	}
}
