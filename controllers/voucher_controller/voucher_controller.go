package voucher_controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/danatour/booking/logger"
	"github.com/danatour/booking/models/voucher_models"
	"github.com/danatour/booking/pricing"
)

// VoucherController computes authoritative voucher previews. The figures it
// returns always win over any locally recomputed breakdown.
type VoucherController struct {
	DB *pgxpool.Pool
}

// NewVoucherController creates a new instance of VoucherController.
func NewVoucherController(db *pgxpool.Pool) *VoucherController {
	return &VoucherController{DB: db}
}

type previewRequest struct {
	BaseTotal      int64  `json:"base_total" binding:"required,gt=0"`
	TourDepositPct int    `json:"tour_deposit_percentage"`
	VoucherCode    string `json:"voucher_code"`
}

// PreviewApply computes the discount/deposit breakdown for one voucher code
// against a base total. An inapplicable voucher is reported as such, never
// as a hard failure.
func (vc *VoucherController) PreviewApply(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.VoucherCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "voucher_code is required"})
		return
	}

	voucher, err := voucher_models.GetVoucherByCode(c.Request.Context(), vc.DB, req.VoucherCode)
	if err != nil {
		if errors.Is(err, voucher_models.ErrVoucherNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "voucher not found"})
			return
		}
		logger.ErrorLogger.Errorf("Failed to fetch voucher %s: %v", req.VoucherCode, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch voucher"})
		return
	}

	preview := buildPreview(req.BaseTotal, voucher, req.TourDepositPct)
	c.JSON(http.StatusOK, gin.H{"preview": preview})
}

// PreviewAllAvailable lists every voucher with remaining uses, each
// annotated with its breakdown for the given base total and an
// applicability flag.
func (vc *VoucherController) PreviewAllAvailable(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	vouchers, err := voucher_models.ListAvailableVouchers(c.Request.Context(), vc.DB)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to list vouchers: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list vouchers"})
		return
	}

	previews := make([]voucher_models.VoucherPreview, 0, len(vouchers))
	for i := range vouchers {
		previews = append(previews, buildPreview(req.BaseTotal, &vouchers[i], req.TourDepositPct))
	}
	c.JSON(http.StatusOK, gin.H{"previews": previews})
}

func buildPreview(baseTotal int64, voucher *voucher_models.Voucher, tourDepositPct int) voucher_models.VoucherPreview {
	app, err := pricing.ApplyVoucher(baseTotal, voucher, tourDepositPct)
	if err != nil {
		reason := "voucher not applicable"
		if errors.Is(err, pricing.ErrVoucherExhausted) {
			reason = "voucher has no remaining uses"
		} else if errors.Is(err, pricing.ErrVoucherNotApplicable) {
			reason = "order total below the voucher minimum"
		}
		return voucher_models.VoucherPreview{Code: voucher.Code, Applicable: false, Reason: reason}
	}
	return app.Preview(voucher.Code)
}
