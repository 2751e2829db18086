package booking_controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The controller is built with a nil pool on purpose: these requests must be
// rejected by local validation before any database access happens.
func createBookingRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	controller := NewBookingController(nil, nil)
	r := gin.New()
	r.POST("/bookings", controller.CreateBooking)
	return r
}

func postBooking(t *testing.T, r *gin.Engine, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, "/bookings", bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateBookingRejectsBeforeIO(t *testing.T) {
	r := createBookingRouter()

	t.Run("ZeroAdultsRejected", func(t *testing.T) {
		w := postBooking(t, r, map[string]interface{}{
			"tour_id": uuid.New().String(),
			"contact": map[string]string{
				"name":    "Tran Thi B",
				"phone":   "0912345678",
				"email":   "tran.b@example.com",
				"address": "12 Le Loi, Da Nang",
			},
			"pickup_point":   "Hotel lobby",
			"departure_date": "2026-06-01",
			"guests":         map[string]interface{}{"adults": []interface{}{}},
		})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

		var resp struct {
			Fields []struct {
				GuestIndex int    `json:"guest_index"`
				Field      string `json:"field"`
			} `json:"fields"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Fields)
		assert.Equal(t, "adults", resp.Fields[0].Field)
		assert.Equal(t, -1, resp.Fields[0].GuestIndex)
	})

	t.Run("InvalidContactRejected", func(t *testing.T) {
		w := postBooking(t, r, map[string]interface{}{
			"tour_id": uuid.New().String(),
			"contact": map[string]string{
				"name":    "Tran Thi B",
				"phone":   "123",
				"email":   "not-an-email",
				"address": "12 Le Loi, Da Nang",
			},
			"pickup_point":   "Hotel lobby",
			"departure_date": "2026-06-01",
			"guests":         map[string]interface{}{"adults": []interface{}{}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("MalformedBodyRejected", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString("{"))
		require.NoError(t, err)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
