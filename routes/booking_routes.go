package routes

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/danatour/booking/config/db"
	"github.com/danatour/booking/config/redis"
	"github.com/danatour/booking/controllers/booking_controller"
	"github.com/danatour/booking/middlewares/auth"
	"github.com/danatour/booking/store/pending_booking_store"
)

func RegisterBookingRoutes(router *gin.Engine) {
	rdb, err := redis.GetRedisClient(context.Background())
	if err != nil {
		panic(fmt.Errorf("failed to initialize redis for booking routes: %w", err))
	}
	bookingController := booking_controller.NewBookingController(db.DB, pending_booking_store.NewStore(rdb))

	// Protected routes
	protected := router.Group("/")
	protected.Use(auth.AuthMiddleware())
	{
		protected.POST("/bookings", bookingController.CreateBooking)
		protected.GET("/bookings", bookingController.ListBookings)
		protected.GET("/bookings/pending", bookingController.RecoverPending)
		protected.GET("/bookings/:booking_id", bookingController.GetBooking)
		protected.PATCH("/bookings/:booking_id", bookingController.UpdateBooking)
		protected.POST("/bookings/:booking_id/confirm-completion", bookingController.ConfirmCompletion)
	}
}
