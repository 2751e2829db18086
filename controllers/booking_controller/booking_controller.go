package booking_controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/danatour/booking/logger"
	"github.com/danatour/booking/metrics"
	"github.com/danatour/booking/middlewares/auth"
	"github.com/danatour/booking/models/booking_models"
	"github.com/danatour/booking/models/guest_models"
	"github.com/danatour/booking/models/shared_models"
	"github.com/danatour/booking/models/tour_models"
	"github.com/danatour/booking/models/voucher_models"
	"github.com/danatour/booking/pricing"
	"github.com/danatour/booking/store/pending_booking_store"
)

// BookingController orchestrates booking submission and the read/patch
// operations around it. The stored booking row is the single source of
// truth: every mutating call re-reads status before acting and clients are
// expected to re-fetch after every mutation.
type BookingController struct {
	DB      *pgxpool.Pool
	Pending *pending_booking_store.Store
}

// NewBookingController creates a new instance of BookingController.
func NewBookingController(db *pgxpool.Pool, pending *pending_booking_store.Store) *BookingController {
	return &BookingController{DB: db, Pending: pending}
}

// CreateBookingRequest is the submission payload. ClientQuote optionally
// echoes the price breakdown the customer was shown, so a drift between the
// displayed and the charged figures is caught at submission time.
type CreateBookingRequest struct {
	TourID        uuid.UUID                     `json:"tour_id" binding:"required"`
	Contact       booking_models.Contact        `json:"contact" binding:"required"`
	PickupPoint   string                        `json:"pickup_point"`
	Note          string                        `json:"note"`
	DepartureDate string                        `json:"departure_date"`
	Guests        guest_models.GuestComposition `json:"guests"`
	VoucherCode   string                        `json:"voucher_code"`
	ClientQuote   *pricing.Application          `json:"client_quote,omitempty"`
}

// CreateBooking validates, prices and persists a new booking. All local
// validation happens before any write: a composition without an adult never
// reaches the database. Voucher failures degrade to booking without a
// discount rather than blocking checkout.
func (bc *BookingController) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	now := time.Now()

	// Local validation runs before any I/O: an invalid composition or
	// contact block never reaches the database.
	fieldErrs := ValidateContact(req.Contact, req.PickupPoint, req.DepartureDate)
	if result := guest_models.ValidateComposition(&req.Guests, now); !result.Valid() {
		fieldErrs = append(fieldErrs, result.Errors...)
	}
	if len(fieldErrs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": fieldErrs})
		return
	}

	tour, err := tour_models.GetTourByID(ctx, bc.DB, req.TourID)
	if err != nil {
		if errors.Is(err, tour_models.ErrTourNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tour not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch tour"})
		return
	}

	departure, err := ParseDepartureDate(req.DepartureDate, tour, now)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": []guest_models.FieldError{
			{GuestIndex: -1, Field: "departure_date", Message: err.Error()},
		}})
		return
	}

	baseTotal := pricing.ComputeBaseTotal(tour, &req.Guests)

	// Voucher is optional and best-effort: a missing, exhausted or
	// inapplicable voucher books without a discount.
	var voucher *voucher_models.Voucher
	if req.VoucherCode != "" {
		voucher, err = voucher_models.GetVoucherByCode(ctx, bc.DB, req.VoucherCode)
		if err != nil {
			logger.WarnLogger.Warnf("Voucher %s unavailable for new booking, continuing without it: %v", req.VoucherCode, err)
			voucher = nil
		}
	}
	app, err := pricing.ApplyVoucher(baseTotal, voucher, tour.DepositPercentage)
	if err != nil {
		logger.WarnLogger.Warnf("Voucher %s rejected (%v), continuing without it", req.VoucherCode, err)
		voucher = nil
		app, _ = pricing.ApplyVoucher(baseTotal, nil, tour.DepositPercentage)
	}

	// The recomputed breakdown is authoritative over whatever the client
	// displayed; reconciling logs the divergence, if any.
	if req.ClientQuote != nil {
		authoritative := app.Preview(req.VoucherCode)
		app = pricing.ReconcilePreview(*req.ClientQuote, &authoritative)
	}

	booking, err := booking_models.NewBooking(tour.ID, req.Contact, req.PickupPoint, req.Note, departure, &req.Guests)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error creating booking"})
		return
	}
	booking.TotalAmount = baseTotal
	booking.TotalDiscountAmount = app.DiscountAmount
	booking.DepositAmount = app.DepositAmount
	booking.DepositPercentage = app.DepositPercentage
	if voucher != nil {
		booking.VoucherCode = &voucher.Code
	}
	if app.DepositPercentage > 0 && app.DepositPercentage < 100 {
		booking.Status = shared_models.StatusPendingDepositPayment
	} else {
		booking.Status = shared_models.StatusPendingPayment
	}

	created, err := booking_models.CreateBooking(ctx, bc.DB, booking)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create booking"})
		return
	}

	bc.Pending.Put(ctx, bc.callerEmail(c, created), created.TourID, created.ID)
	metrics.Default.BookingsCreated.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"booking":         created,
		"base_total":      baseTotal,
		"final_total":     created.FinalTotal(),
		"allowed_actions": shared_models.AllowedActions(created.Status, created.UserConfirmedCompletion),
	})
}

// GetBooking returns a booking together with its currently allowed actions,
// re-derived from the stored status on every call.
func (bc *BookingController) GetBooking(c *gin.Context) {
	booking, ok := bc.fetchOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"booking":         booking,
		"allowed_actions": shared_models.AllowedActions(booking.Status, booking.UserConfirmedCompletion),
	})
}

// UpdateBookingRequest carries the editable fields for a resubmission.
type UpdateBookingRequest struct {
	Contact     booking_models.Contact         `json:"contact" binding:"required"`
	PickupPoint string                         `json:"pickup_point"`
	Note        string                         `json:"note"`
	Guests      *guest_models.GuestComposition `json:"guests"`
}

// UpdateBooking patches contact/guest info and resubmits the booking for
// approval. Only legal from WAITING_FOR_UPDATE.
func (bc *BookingController) UpdateBooking(c *gin.Context) {
	booking, ok := bc.fetchOwned(c)
	if !ok {
		return
	}

	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	fieldErrs := ValidateContact(req.Contact, booking.PickupPoint, booking.DepartureDate.Format("2006-01-02"))
	if req.Guests != nil {
		if result := guest_models.ValidateComposition(req.Guests, time.Now()); !result.Valid() {
			fieldErrs = append(fieldErrs, result.Errors...)
		}
	}
	if len(fieldErrs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": fieldErrs})
		return
	}

	booking.Contact.Name = req.Contact.Name
	booking.Contact.Phone = req.Contact.Phone
	booking.Contact.Address = req.Contact.Address
	if req.PickupPoint != "" {
		booking.PickupPoint = req.PickupPoint
	}
	booking.Note = req.Note
	booking.Guests = req.Guests

	if err := booking_models.UpdateBookingDetails(c.Request.Context(), bc.DB, booking); err != nil {
		if errors.Is(err, booking_models.ErrStateConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "booking cannot be updated in its current status"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update booking"})
		return
	}

	updated, err := booking_models.GetBookingByID(c.Request.Context(), bc.DB, booking.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to re-fetch booking"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"booking":         updated,
		"allowed_actions": shared_models.AllowedActions(updated.Status, updated.UserConfirmedCompletion),
	})
}

// ConfirmCompletion records the one-shot completion confirmation. After it,
// neither confirm nor complaint is offered again.
func (bc *BookingController) ConfirmCompletion(c *gin.Context) {
	booking, ok := bc.fetchOwned(c)
	if !ok {
		return
	}

	if err := booking_models.ConfirmCompletion(c.Request.Context(), bc.DB, booking.ID); err != nil {
		if errors.Is(err, booking_models.ErrStateConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "booking is not awaiting completion confirmation"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to confirm completion"})
		return
	}

	updated, err := booking_models.GetBookingByID(c.Request.Context(), bc.DB, booking.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to re-fetch booking"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"booking":         updated,
		"allowed_actions": shared_models.AllowedActions(updated.Status, updated.UserConfirmedCompletion),
	})
}

// ListBookings returns the caller's bookings, newest first, with an
// optional status filter.
func (bc *BookingController) ListBookings(c *gin.Context) {
	email, ok := auth.UserEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	bookings, total, err := booking_models.GetBookingsByEmail(c.Request.Context(), bc.DB, email, c.Query("status"), page, limit)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to list bookings for %s: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bookings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "total": total, "page": page, "limit": limit})
}

// RecoverPending resolves the caller's in-progress booking: the tour-scoped
// cache key first, then the newest cached key for the user, then the newest
// unpaid booking by email. Cache trouble is never an error here, only a
// reason to fall through.
func (bc *BookingController) RecoverPending(c *gin.Context) {
	email, ok := auth.UserEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	ctx := c.Request.Context()

	if tourIDStr := c.Query("tour_id"); tourIDStr != "" {
		if tourID, err := uuid.Parse(tourIDStr); err == nil {
			if rec := bc.Pending.Get(ctx, email, tourID); rec != nil {
				c.JSON(http.StatusOK, gin.H{"booking_id": rec.BookingID, "tour_id": rec.TourID, "source": "cache"})
				return
			}
		}
	}

	if rec := bc.Pending.ScanLatestUnpaid(ctx, email); rec != nil {
		c.JSON(http.StatusOK, gin.H{"booking_id": rec.BookingID, "tour_id": rec.TourID, "source": "cache-scan"})
		return
	}

	booking, err := booking_models.GetLatestUnpaidByEmail(ctx, bc.DB, email)
	if err != nil {
		if errors.Is(err, booking_models.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no pending booking"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up pending booking"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": booking.ID, "tour_id": booking.TourID, "source": "bookings"})
}

// fetchOwned loads the booking from the path parameter and enforces that it
// belongs to the authenticated caller.
func (bc *BookingController) fetchOwned(c *gin.Context) (*booking_models.Booking, bool) {
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return nil, false
	}

	booking, err := booking_models.GetBookingByID(c.Request.Context(), bc.DB, bookingID)
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
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return nil, false
	}
	if pending_booking_store.NormalizeEmail(booking.Contact.Email) != email {
		logger.WarnLogger.Warnf("User %s attempted to access booking %s: %v", email, booking.ID, ErrBookingNotOwnedByUser)
		c.JSON(http.StatusForbidden, gin.H{"error": "booking does not belong to this user"})
		return nil, false
	}
	return booking, true
}

func (bc *BookingController) callerEmail(c *gin.Context, booking *booking_models.Booking) string {
	if email, ok := auth.UserEmail(c); ok {
		return email
	}
	return booking.Contact.Email
}
