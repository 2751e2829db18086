package complaint_controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/danatour/booking/logger"
	"github.com/danatour/booking/middlewares/auth"
	"github.com/danatour/booking/models/booking_models"
	"github.com/danatour/booking/models/shared_models"
	"github.com/danatour/booking/store/pending_booking_store"
	"github.com/danatour/booking/utils"
)

// ComplaintController handles post-trip complaint filing. A complaint is
// only possible in the window between trip completion and the customer's
// completion confirmation; once the customer confirms, the window closes
// permanently.
type ComplaintController struct {
	DB *pgxpool.Pool
}

// NewComplaintController creates a new instance of ComplaintController.
func NewComplaintController(db *pgxpool.Pool) *ComplaintController {
	return &ComplaintController{DB: db}
}

// FileComplaintRequest is the complaint submission payload.
type FileComplaintRequest struct {
	Subject string `json:"subject" binding:"required"`
	Detail  string `json:"detail" binding:"required"`
}

// FileComplaint records a complaint and moves the booking under complaint.
func (cc *ComplaintController) FileComplaint(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	var req FileComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	booking, err := booking_models.GetBookingByID(ctx, cc.DB, bookingID)
	if err != nil {
		if errors.Is(err, booking_models.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch booking"})
		return
	}

	email, ok := auth.UserEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": utils.ErrUserIDNotFound.Error()})
		return
	}
	if pending_booking_store.NormalizeEmail(booking.Contact.Email) != email {
		logger.WarnLogger.Warnf("User %s attempted to file a complaint on booking %s: %v", email, booking.ID, utils.ErrNotOwner)
		c.JSON(http.StatusForbidden, gin.H{"error": utils.ErrNotOwner.Error()})
		return
	}

	if booking.Status != shared_models.StatusSuccessWaitConfirmed || booking.UserConfirmedCompletion {
		c.JSON(http.StatusConflict, gin.H{"error": "booking is not open for complaints", "status": booking.Status})
		return
	}

	complaintID, err := uuid.NewV7()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error filing complaint"})
		return
	}

	if _, err := cc.DB.Exec(ctx, `
		INSERT INTO complaints (id, booking_id, subject, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		complaintID, booking.ID, req.Subject, req.Detail, time.Now(),
	); err != nil {
		logger.ErrorLogger.Errorf("Failed to insert complaint for booking %s: %v", booking.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to file complaint"})
		return
	}

	if err := booking_models.UpdateBookingStatus(ctx, cc.DB, booking.ID, shared_models.StatusUnderComplaint); err != nil {
		if errors.Is(err, booking_models.ErrStateConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "booking changed state while filing complaint"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update booking status"})
		return
	}

	logger.InfoLogger.Infof("Complaint %s filed against booking %s", complaintID, booking.ID)
	c.JSON(http.StatusCreated, gin.H{
		"complaint_id":    complaintID,
		"booking_id":      booking.ID,
		"status":          shared_models.StatusUnderComplaint,
		"allowed_actions": shared_models.AllowedActions(shared_models.StatusUnderComplaint, booking.UserConfirmedCompletion),
	})
}
