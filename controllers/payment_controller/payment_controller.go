package payment_controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/danatour/booking/clients"
	"github.com/danatour/booking/config"
	"github.com/danatour/booking/logger"
	"github.com/danatour/booking/metrics"
	"github.com/danatour/booking/models/booking_models"
	"github.com/danatour/booking/models/payment_transaction_models"
	"github.com/danatour/booking/models/shared_models"
	"github.com/danatour/booking/models/voucher_models"
	"github.com/danatour/booking/store/pending_booking_store"
	"github.com/danatour/booking/utils/mail"
)

const (
	paymentInflightPrefix = "payment_inflight:"
	paymentInflightTTL    = 15 * time.Minute
)

// PaymentController owns the payment session lifecycle: routing a booking to
// the right stage, opening gateway sessions, and processing the redirect
// callbacks the gateway issues afterwards.
type PaymentController struct {
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Gateway clients.PaymentGatewayWrapper
	Pending *pending_booking_store.Store
}

// NewPaymentController creates a new instance of PaymentController.
func NewPaymentController(db *pgxpool.Pool, rdb *redis.Client, gateway clients.PaymentGatewayWrapper, pending *pending_booking_store.Store) *PaymentController {
	return &PaymentController{DB: db, Redis: rdb, Gateway: gateway, Pending: pending}
}

func inflightKey(bookingID uuid.UUID) string {
	return paymentInflightPrefix + bookingID.String()
}

// acquireInflight takes the per-booking payment guard. A booking can have at
// most one open payment session; a second attempt while one is in flight is
// rejected rather than queued.
func (pc *PaymentController) acquireInflight(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	ok, err := pc.Redis.SetNX(ctx, inflightKey(bookingID), time.Now().UnixMilli(), paymentInflightTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire payment guard: %w", err)
	}
	return ok, nil
}

func (pc *PaymentController) releaseInflight(ctx context.Context, bookingID uuid.UUID) {
	if err := pc.Redis.Del(ctx, inflightKey(bookingID)).Err(); err != nil {
		logger.WarnLogger.Warnf("Failed to release payment guard for booking %s: %v", bookingID, err)
	}
}

// CreateBookingPayment routes the booking to its payment stage and opens a
// gateway session for the computed amount. The guard key is released on any
// failure so the user can retry immediately.
func (pc *PaymentController) CreateBookingPayment(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}
	ctx := c.Request.Context()

	booking, err := booking_models.GetBookingByID(ctx, pc.DB, bookingID)
	if err != nil {
		if errors.Is(err, booking_models.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch booking"})
		return
	}

	if !payable(booking.Status) {
		c.JSON(http.StatusConflict, gin.H{"error": "booking is not awaiting payment", "status": booking.Status})
		return
	}

	acquired, err := pc.acquireInflight(ctx, booking.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment service unavailable"})
		return
	}
	if !acquired {
		c.JSON(http.StatusConflict, gin.H{"error": "a payment for this booking is already in progress"})
		return
	}

	sumPaid, err := payment_transaction_models.SumPaidAmount(ctx, pc.DB, booking.ID)
	if err != nil {
		pc.releaseInflight(ctx, booking.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute paid amount"})
		return
	}

	route := RoutePayment(booking, sumPaid)
	if route.Amount <= 0 {
		pc.releaseInflight(ctx, booking.ID)
		c.JSON(http.StatusConflict, gin.H{"error": "nothing left to pay on this booking"})
		return
	}

	session, err := pc.Gateway.CreatePaymentSession(ctx, &clients.PaymentSessionRequest{
		OrderID:       booking.ID.String(),
		Amount:        route.Amount,
		Currency:      config.GetEnv("PAYMENT_CURRENCY", "VND"),
		CustomerEmail: booking.Contact.Email,
		CustomerPhone: booking.Contact.Phone,
		Description:   fmt.Sprintf("%s payment for booking %s", route.Stage, booking.ID),
		ReturnURL:     config.GetEnv("PAYMENT_RETURN_URL", ""),
	})
	if err != nil {
		pc.releaseInflight(ctx, booking.ID)
		logger.ErrorLogger.Errorf("Gateway session creation failed for booking %s: %v", booking.ID, err)
		metrics.Default.ErrorsCount.WithLabelValues("create_payment_session").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to initialize payment"})
		return
	}

	tx, err := payment_transaction_models.NewPaymentTransaction(
		booking.ID, session.GatewayOrderID, session.PaymentSessionID,
		route.Amount, config.GetEnv("PAYMENT_CURRENCY", "VND"), route.Stage,
	)
	if err == nil {
		_, err = payment_transaction_models.CreatePaymentTransaction(ctx, pc.DB, tx)
	}
	if err != nil {
		pc.releaseInflight(ctx, booking.ID)
		pc.cancelGatewayOrderAsync(session.GatewayOrderID)
		logger.ErrorLogger.Errorf("Failed to record payment transaction for booking %s: %v", booking.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record payment"})
		return
	}

	metrics.Default.PaymentsRouted.WithLabelValues(route.Stage).Inc()
	logger.InfoLogger.Infof("Opened %s payment session %s for booking %s (amount %d)", route.Stage, session.GatewayOrderID, booking.ID, route.Amount)

	c.JSON(http.StatusOK, gin.H{
		"stage":       route.Stage,
		"amount":      route.Amount,
		"payment_url": session.PaymentURL,
		"order_id":    session.GatewayOrderID,
	})
}

// callbackRequest carries the gateway redirect URL captured by the client,
// plus the signature header the gateway attached when it delivered the
// redirect server-side.
type callbackRequest struct {
	URL       string `json:"url" binding:"required"`
	Signature string `json:"signature"`
}

// HandleCallback interprets a gateway redirect URL and applies the payment
// outcome. Unrecognized URLs are acknowledged without effect. Processing is
// idempotent on the transaction status: a replayed success callback reports
// success again without re-applying transitions, redemptions or emails.
func (pc *PaymentController) HandleCallback(c *gin.Context) {
	var req callbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.Signature != "" && !pc.Gateway.VerifyCallbackSignature(req.Signature, req.URL) {
		logger.WarnLogger.Warnf("Callback signature verification failed for %s", req.URL)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid callback signature"})
		return
	}

	event := clients.ParseCallbackURL(req.URL)
	switch event.Outcome {
	case clients.CallbackUnrecognized:
		metrics.Default.CallbacksProcessed.WithLabelValues("unrecognized").Inc()
		c.JSON(http.StatusOK, gin.H{"outcome": "unrecognized"})
	case clients.CallbackFailed:
		pc.handleFailedCallback(c, event)
	case clients.CallbackResult:
		pc.handleResultCallback(c, event)
	}
}

func (pc *PaymentController) handleResultCallback(c *gin.Context, event clients.CallbackEvent) {
	ctx := c.Request.Context()

	tx, err := payment_transaction_models.GetPaymentTransactionByGatewayOrderID(ctx, pc.DB, event.OrderID)
	if err != nil {
		if errors.Is(err, payment_transaction_models.ErrTransactionNotFound) {
			metrics.Default.CallbacksProcessed.WithLabelValues("unknown_order").Inc()
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown payment order"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up payment"})
		return
	}

	if tx.Status == payment_transaction_models.StatusPaid {
		c.JSON(http.StatusOK, gin.H{"outcome": "result", "status": "already_processed", "booking_id": tx.BookingID})
		return
	}
	if tx.Status != payment_transaction_models.StatusActive {
		c.JSON(http.StatusConflict, gin.H{"error": "payment is no longer active", "status": tx.Status})
		return
	}

	booking, err := booking_models.GetBookingByID(ctx, pc.DB, tx.BookingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch booking"})
		return
	}

	now := time.Now()
	tx.Status = payment_transaction_models.StatusPaid
	tx.PaymentMethod = event.PaymentMethod
	tx.CapturedAt = &now
	if err := payment_transaction_models.UpdatePaymentTransaction(ctx, pc.DB, tx); err != nil {
		logger.ErrorLogger.Errorf("Failed to mark transaction %s paid: %v", tx.GatewayOrderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record payment result"})
		return
	}

	target, ok := statusAfterPayment(tx.Stage)
	if ok {
		if err := booking_models.UpdateBookingStatus(ctx, pc.DB, booking.ID, target); err != nil {
			// The payment is already captured; the transition failure is an
			// operational problem, not a customer-facing one.
			logger.ErrorLogger.Errorf("Paid transaction %s could not advance booking %s to %s: %v", tx.GatewayOrderID, booking.ID, target, err)
			metrics.Default.ErrorsCount.WithLabelValues("post_payment_transition").Inc()
		}
	}

	pc.releaseInflight(ctx, booking.ID)
	pc.afterFirstCapture(ctx, booking, tx)

	metrics.Default.CallbacksProcessed.WithLabelValues("result").Inc()
	mail.SendPaymentConfirmationAsync(booking.Contact.Email, booking.Contact.Name, booking.ID.String(), tx.Stage, tx.Amount)
	logger.InfoLogger.Infof("Payment %s captured for booking %s (stage %s)", tx.GatewayOrderID, booking.ID, tx.Stage)

	c.JSON(http.StatusOK, gin.H{"outcome": "result", "status": "paid", "booking_id": booking.ID, "stage": tx.Stage})
}

// afterFirstCapture runs the side effects tied to the first successful
// charge on a booking: redeem the voucher exactly once and drop the
// pending-booking recovery pointers. Both are best-effort.
func (pc *PaymentController) afterFirstCapture(ctx context.Context, booking *booking_models.Booking, tx *payment_transaction_models.PaymentTransaction) {
	if tx.Stage == payment_transaction_models.StageBalance {
		return
	}
	if booking.VoucherCode != nil {
		if err := voucher_models.RedeemVoucher(ctx, pc.DB, *booking.VoucherCode); err != nil {
			logger.WarnLogger.Warnf("Failed to redeem voucher %s for booking %s: %v", *booking.VoucherCode, booking.ID, err)
		}
	}
	pc.Pending.PurgeUser(ctx, booking.Contact.Email)
}

func (pc *PaymentController) handleFailedCallback(c *gin.Context, event clients.CallbackEvent) {
	ctx := c.Request.Context()
	metrics.Default.CallbacksProcessed.WithLabelValues("failed").Inc()

	if event.OrderID == "" {
		c.JSON(http.StatusOK, gin.H{"outcome": "failed"})
		return
	}

	tx, err := payment_transaction_models.GetPaymentTransactionByGatewayOrderID(ctx, pc.DB, event.OrderID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"outcome": "failed"})
		return
	}
	if tx.Status != payment_transaction_models.StatusActive {
		c.JSON(http.StatusOK, gin.H{"outcome": "failed", "status": "already_processed", "booking_id": tx.BookingID})
		return
	}

	desc := "payment declined by gateway"
	tx.Status = payment_transaction_models.StatusFailed
	tx.ErrorDescription = &desc
	if err := payment_transaction_models.UpdatePaymentTransaction(ctx, pc.DB, tx); err != nil {
		logger.ErrorLogger.Errorf("Failed to mark transaction %s failed: %v", tx.GatewayOrderID, err)
	}

	// The booking stays in its pending status so the user can retry.
	pc.releaseInflight(ctx, tx.BookingID)
	logger.InfoLogger.Infof("Payment %s failed for booking %s, booking left payable", tx.GatewayOrderID, tx.BookingID)

	c.JSON(http.StatusOK, gin.H{"outcome": "failed", "booking_id": tx.BookingID})
}

// CancelInFlight abandons the booking's open payment session. The local
// guard and transaction are settled first; voiding the order at the gateway
// is advisory and runs detached.
func (pc *PaymentController) CancelInFlight(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}
	ctx := c.Request.Context()

	orderID := c.Query("order_id")
	if orderID != "" {
		tx, err := payment_transaction_models.GetPaymentTransactionByGatewayOrderID(ctx, pc.DB, orderID)
		if err == nil && tx.BookingID == bookingID && tx.Status == payment_transaction_models.StatusActive {
			tx.Status = payment_transaction_models.StatusCancelled
			if err := payment_transaction_models.UpdatePaymentTransaction(ctx, pc.DB, tx); err != nil {
				logger.ErrorLogger.Errorf("Failed to mark transaction %s cancelled: %v", orderID, err)
			}
			pc.cancelGatewayOrderAsync(orderID)

			// The booking side of the abandon is advisory too: a failure
			// leaves the booking payable and is logged, never surfaced.
			if err := booking_models.UpdateBookingStatus(ctx, pc.DB, bookingID, shared_models.StatusCancelled); err != nil {
				logger.WarnLogger.Warnf("Booking %s not cancelled after payment abandon: %v", bookingID, err)
			}
		}
	}

	pc.releaseInflight(ctx, bookingID)
	c.JSON(http.StatusOK, gin.H{"status": "cancelled", "booking_id": bookingID})
}

// cancelGatewayOrderAsync voids an order at the gateway without holding the
// request open. Uses a fresh context so the void outlives the request.
func (pc *PaymentController) cancelGatewayOrderAsync(gatewayOrderID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pc.Gateway.CancelTransaction(ctx, gatewayOrderID); err != nil {
			logger.WarnLogger.Warnf("Gateway void failed for order %s: %v", gatewayOrderID, err)
		}
	}()
}

func payable(s shared_models.BookingStatus) bool {
	return s == shared_models.StatusPendingPayment ||
		s == shared_models.StatusPendingDepositPayment ||
		s == shared_models.StatusPendingBalancePayment
}
