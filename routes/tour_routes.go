package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/danatour/booking/config/db"
	"github.com/danatour/booking/controllers/tour_controller"
)

func RegisterTourRoutes(router *gin.Engine) {
	tourController := tour_controller.NewTourController(db.DB)

	// Public routes
	router.GET("/tours/:tour_id", tourController.GetTour)
}
