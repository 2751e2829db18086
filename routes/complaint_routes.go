package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/danatour/booking/config/db"
	"github.com/danatour/booking/controllers/complaint_controller"
	"github.com/danatour/booking/middlewares/auth"
)

func RegisterComplaintRoutes(router *gin.Engine) {
	complaintController := complaint_controller.NewComplaintController(db.DB)

	// Protected routes
	protected := router.Group("/")
	protected.Use(auth.AuthMiddleware())
	{
		protected.POST("/bookings/:booking_id/complaints", complaintController.FileComplaint)
	}
}
