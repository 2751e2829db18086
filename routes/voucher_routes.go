package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/danatour/booking/config/db"
	"github.com/danatour/booking/controllers/voucher_controller"
)

func RegisterVoucherRoutes(router *gin.Engine) {
	voucherController := voucher_controller.NewVoucherController(db.DB)

	// Public routes: previews never mutate voucher inventory
	router.POST("/vouchers/preview", voucherController.PreviewApply)
	router.POST("/vouchers/preview-all", voucherController.PreviewAllAvailable)
}
