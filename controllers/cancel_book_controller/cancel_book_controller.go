package cancel_book_controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/danatour/booking/logger"
	"github.com/danatour/booking/metrics"
	"github.com/danatour/booking/middlewares/auth"
	"github.com/danatour/booking/models/booking_models"
	"github.com/danatour/booking/models/cancel_booking_models"
	"github.com/danatour/booking/models/payment_transaction_models"
	"github.com/danatour/booking/models/shared_models"
	"github.com/danatour/booking/store/pending_booking_store"
	"github.com/danatour/booking/utils"
	"github.com/danatour/booking/utils/mail"
)

// CancelBookController computes refund previews and applies confirmed
// cancellations. Preview and confirm share one computation path so a confirm
// on unchanged state always matches the preview the customer saw.
type CancelBookController struct {
	DB      *pgxpool.Pool
	Pending *pending_booking_store.Store
}

// NewCancelBookController creates a new instance of CancelBookController.
func NewCancelBookController(db *pgxpool.Pool, pending *pending_booking_store.Store) *CancelBookController {
	return &CancelBookController{DB: db, Pending: pending}
}

// PreviewCancellation returns the refund breakdown the customer would
// receive if they cancelled now.
func (cb *CancelBookController) PreviewCancellation(c *gin.Context) {
	booking, ok := cb.fetchCancellable(c)
	if !ok {
		return
	}

	preview, err := cb.buildPreview(c.Request.Context(), booking, time.Now())
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to compute cancellation preview for booking %s: %v", booking.ID, err)
		c.JSON(http.StatusInternalServerError, cancel_booking_models.CancelBookingResponse{
			Success: false, Message: "failed to compute refund preview",
		})
		return
	}

	c.JSON(http.StatusOK, cancel_booking_models.CancelBookingResponse{
		Success: true, Message: "cancellation preview", Data: &preview,
	})
}

// CancelBooking applies a confirmed cancellation: the booking moves to its
// terminal cancelled status and the refund recorded equals the preview for
// the same instant.
func (cb *CancelBookController) CancelBooking(c *gin.Context) {
	booking, ok := cb.fetchCancellable(c)
	if !ok {
		return
	}

	var req cancel_booking_models.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, cancel_booking_models.CancelBookingResponse{
			Success: false, Message: "invalid request body",
		})
		return
	}
	if req.BookingID != booking.ID {
		c.JSON(http.StatusBadRequest, cancel_booking_models.CancelBookingResponse{
			Success: false, Message: "booking id mismatch",
		})
		return
	}

	ctx := c.Request.Context()
	now := time.Now()
	preview, err := cb.buildPreview(ctx, booking, now)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to compute refund for booking %s: %v", booking.ID, err)
		c.JSON(http.StatusInternalServerError, cancel_booking_models.CancelBookingResponse{
			Success: false, Message: "failed to compute refund",
		})
		return
	}

	if err := booking_models.UpdateBookingStatus(ctx, cb.DB, booking.ID, shared_models.StatusCancelled); err != nil {
		if errors.Is(err, booking_models.ErrStateConflict) {
			c.JSON(http.StatusConflict, cancel_booking_models.CancelBookingResponse{
				Success: false, Message: "booking changed state, re-fetch and retry",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, cancel_booking_models.CancelBookingResponse{
			Success: false, Message: "failed to cancel booking",
		})
		return
	}

	if _, err := cb.DB.Exec(ctx, `
		UPDATE bookings
		SET cancelled_at = $1, cancellation_reason = $2, refund_amount = $3, refund_percentage = $4
		WHERE id = $5`,
		now, req.Reason, preview.RefundAmount, preview.RefundPercentage, booking.ID,
	); err != nil {
		logger.ErrorLogger.Errorf("Failed to record cancellation details for booking %s: %v", booking.ID, err)
	}

	cb.Pending.PurgeUser(ctx, booking.Contact.Email)
	metrics.Default.Cancellations.Inc()
	mail.SendCancellationNoticeAsync(booking.Contact.Email, booking.Contact.Name, booking.ID.String(), preview.RefundAmount, preview.RefundPercentage)
	logger.InfoLogger.Infof("Booking %s cancelled, refund %d (%d%%)", booking.ID, preview.RefundAmount, preview.RefundPercentage)

	c.JSON(http.StatusOK, cancel_booking_models.CancelBookingResponse{
		Success: true, Message: "booking cancelled", Data: &preview,
	})
}

// buildPreview assembles the refund preview from captured payments and the
// booking's departure date.
func (cb *CancelBookController) buildPreview(ctx context.Context, booking *booking_models.Booking, at time.Time) (cancel_booking_models.CancellationPreview, error) {
	payed, err := payment_transaction_models.SumPaidAmount(ctx, cb.DB, booking.ID)
	if err != nil {
		return cancel_booking_models.CancellationPreview{}, err
	}
	return cancel_booking_models.ComputePreview(payed, booking.DepositAmount, booking.FinalTotal(), at, booking.DepartureDate)
}

// fetchCancellable loads the booking, enforces ownership and checks that
// the cancel transition is legal from its current status.
func (cb *CancelBookController) fetchCancellable(c *gin.Context) (*booking_models.Booking, bool) {
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return nil, false
	}

	booking, err := booking_models.GetBookingByID(c.Request.Context(), cb.DB, bookingID)
	if err != nil {
		if errors.Is(err, booking_models.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch booking"})
		return nil, false
	}

	email, ok := auth.UserEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": utils.ErrUserIDNotFound.Error()})
		return nil, false
	}
	if pending_booking_store.NormalizeEmail(booking.Contact.Email) != email {
		logger.WarnLogger.Warnf("User %s attempted to cancel booking %s: %v", email, booking.ID, utils.ErrNotOwner)
		c.JSON(http.StatusForbidden, gin.H{"error": utils.ErrNotOwner.Error()})
		return nil, false
	}

	if !booking.Status.CanTransitionTo(shared_models.StatusCancelled) {
		logger.WarnLogger.Warnf("Cancellation refused for booking %s in status %s: %v", booking.ID, booking.Status, ErrNotCancellable)
		c.JSON(http.StatusConflict, gin.H{"error": ErrNotCancellable.Error(), "status": booking.Status})
		return nil, false
	}
	return booking, true
}
