package tour_controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/danatour/booking/logger"
	"github.com/danatour/booking/models/tour_models"
)

// TourController serves tour snapshots to the booking flow.
type TourController struct {
	DB *pgxpool.Pool
}

// NewTourController creates a new instance of TourController.
func NewTourController(db *pgxpool.Pool) *TourController {
	return &TourController{DB: db}
}

// GetTour returns a tour snapshot plus its current departure window, so the
// client can gate date pickers without re-deriving the bounds.
func (tc *TourController) GetTour(c *gin.Context) {
	tourID, err := uuid.Parse(c.Param("tour_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tour id"})
		return
	}

	tour, err := tour_models.GetTourByID(c.Request.Context(), tc.DB, tourID)
	if err != nil {
		if errors.Is(err, tour_models.ErrTourNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tour not found"})
			return
		}
		logger.ErrorLogger.Errorf("Failed to fetch tour %s: %v", tourID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch tour"})
		return
	}

	earliest, latest := tour.DepartureWindow(time.Now())
	c.JSON(http.StatusOK, gin.H{
		"tour":               tour,
		"earliest_departure": earliest.Format("2006-01-02"),
		"latest_departure":   latest.Format("2006-01-02"),
	})
}
