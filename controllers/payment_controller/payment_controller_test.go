package payment_controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danatour/booking/clients"
	"github.com/danatour/booking/models/shared_models"
)

type fakeGateway struct {
	signatureOK bool
	cancelled   []string
}

func (f *fakeGateway) CreatePaymentSession(ctx context.Context, req *clients.PaymentSessionRequest) (*clients.PaymentSessionResponse, error) {
	return &clients.PaymentSessionResponse{
		GatewayOrderID:   "ord_test",
		PaymentSessionID: "sess_test",
		PaymentURL:       "https://pay.example.com/sess_test",
	}, nil
}

func (f *fakeGateway) CancelTransaction(ctx context.Context, gatewayOrderID string) error {
	f.cancelled = append(f.cancelled, gatewayOrderID)
	return nil
}

func (f *fakeGateway) VerifyCallbackSignature(signature, payload string) bool {
	return f.signatureOK
}

func callbackRouter(gateway clients.PaymentGatewayWrapper) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controller := NewPaymentController(nil, nil, gateway, nil)
	r := gin.New()
	r.POST("/payments/callback", controller.HandleCallback)
	return r
}

func postCallback(t *testing.T, r *gin.Engine, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, "/payments/callback", bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleCallback(t *testing.T) {
	t.Run("MissingURLRejected", func(t *testing.T) {
		r := callbackRouter(&fakeGateway{})
		w := postCallback(t, r, map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UnrecognizedURLAcknowledgedWithoutEffect", func(t *testing.T) {
		r := callbackRouter(&fakeGateway{})
		w := postCallback(t, r, map[string]interface{}{
			"url": "https://www.example.com/tours/hoi-an",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "unrecognized", resp["outcome"])
	})

	t.Run("BadSignatureRejected", func(t *testing.T) {
		r := callbackRouter(&fakeGateway{signatureOK: false})
		w := postCallback(t, r, map[string]interface{}{
			"url":       "https://pay.example.com/payment/result?orderId=ord_1",
			"signature": "deadbeef",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("UnsignedUnrecognizedURLStillAcknowledged", func(t *testing.T) {
		// Signature verification only runs when a signature is present.
		r := callbackRouter(&fakeGateway{signatureOK: false})
		w := postCallback(t, r, map[string]interface{}{
			"url": "https://www.example.com/about",
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestCancelInFlight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	controller := NewPaymentController(nil, rdb, &fakeGateway{}, nil)
	r := gin.New()
	r.DELETE("/bookings/:booking_id/payments", controller.CancelInFlight)

	t.Run("InvalidBookingIDRejected", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, "/bookings/not-a-uuid/payments", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ReleasesPaymentGuard", func(t *testing.T) {
		bookingID := uuid.New()
		require.NoError(t, mr.Set(inflightKey(bookingID), "1"))

		req, _ := http.NewRequest(http.MethodDelete, "/bookings/"+bookingID.String()+"/payments", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.False(t, mr.Exists(inflightKey(bookingID)))
	})
}

// A user abandoning an open payment session moves the booking to its
// terminal cancelled status; that transition must be legal from every status
// a payment session can be opened in.
func TestUserCancelTransitionLegalFromPayableStatuses(t *testing.T) {
	payableStatuses := []shared_models.BookingStatus{
		shared_models.StatusPendingPayment,
		shared_models.StatusPendingDepositPayment,
		shared_models.StatusPendingBalancePayment,
	}
	for _, s := range payableStatuses {
		assert.True(t, payable(s), s)
		assert.True(t, s.CanTransitionTo(shared_models.StatusCancelled), s)
	}
}
