package routes

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/danatour/booking/config/db"
	"github.com/danatour/booking/config/redis"
	"github.com/danatour/booking/controllers/cancel_book_controller"
	"github.com/danatour/booking/middlewares/auth"
	"github.com/danatour/booking/store/pending_booking_store"
)

func RegisterCancelBookRoutes(router *gin.Engine) {
	rdb, err := redis.GetRedisClient(context.Background())
	if err != nil {
		panic(fmt.Errorf("failed to initialize redis for cancellation routes: %w", err))
	}
	controller := cancel_book_controller.NewCancelBookController(db.DB, pending_booking_store.NewStore(rdb))

	// Protected routes
	protected := router.Group("/")
	protected.Use(auth.AuthMiddleware())
	{
		protected.GET("/bookings/:booking_id/cancellation-preview", controller.PreviewCancellation)
		protected.POST("/bookings/:booking_id/cancel", controller.CancelBooking)
	}
}
