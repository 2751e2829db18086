package routes

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/danatour/booking/clients"
	"github.com/danatour/booking/config"
	"github.com/danatour/booking/config/db"
	"github.com/danatour/booking/config/redis"
	"github.com/danatour/booking/controllers/payment_controller"
	"github.com/danatour/booking/middlewares"
	"github.com/danatour/booking/middlewares/auth"
	"github.com/danatour/booking/store/pending_booking_store"
)

func RegisterPaymentRoutes(router *gin.Engine) {
	rdb, err := redis.GetRedisClient(context.Background())
	if err != nil {
		panic(fmt.Errorf("failed to initialize redis for payment routes: %w", err))
	}

	gateway := clients.NewPaymentGatewayClient(
		config.GetEnv("PAYMENT_GATEWAY_URL", ""),
		config.GetEnv("PAYMENT_GATEWAY_KEY", ""),
		config.GetEnv("PAYMENT_GATEWAY_SECRET", ""),
		config.GetEnv("PAYMENT_WEBHOOK_SECRET", ""),
	)
	paymentController := payment_controller.NewPaymentController(db.DB, rdb, gateway, pending_booking_store.NewStore(rdb))

	// Gateway redirects land here; authenticated by signature, not by token.
	router.POST("/payments/callback", paymentController.HandleCallback)

	// Protected routes
	protected := router.Group("/")
	protected.Use(auth.AuthMiddleware())
	{
		protected.POST("/bookings/:booking_id/payments",
			middlewares.NewRateLimiter("10-1m", "create_payment"), paymentController.CreateBookingPayment)
		protected.DELETE("/bookings/:booking_id/payments", paymentController.CancelInFlight)
	}
}
