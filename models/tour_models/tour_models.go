package tour_models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/danatour/booking/logger"
)

var ErrTourNotFound = errors.New("tour not found")

// Tour is an immutable snapshot of a tour offer: the per-guest price table,
// the deposit percentage, and the constraints on legal departure dates.
// A deposit percentage of 0 or 100 means full payment with no deposit split.
type Tour struct {
	ID                  uuid.UUID `json:"id"`
	Title               string    `json:"title"`
	AdultPrice          int64     `json:"adult_price"`
	ChildrenPrice       int64     `json:"children_price"`
	BabyPrice           int64     `json:"baby_price"`
	DepositPercentage   int       `json:"deposit_percentage"`
	BookingDeadlineDays int       `json:"booking_deadline_days"`
	MinAdvanceDays      int       `json:"min_advance_days"`
	ExpirationDate      time.Time `json:"expiration_date"`
	PickupPoints        []string  `json:"pickup_points"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Midnight normalizes a time to midnight in its own location. Departure
// window comparisons ignore time of day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DepartureWindow returns the inclusive [earliest, latest] range of legal
// departure dates as of now: earliest is today plus the larger of
// deadline+1, the minimum advance days, and 1; latest is the tour's
// expiration date.
func (t *Tour) DepartureWindow(now time.Time) (time.Time, time.Time) {
	lead := t.BookingDeadlineDays + 1
	if t.MinAdvanceDays > lead {
		lead = t.MinAdvanceDays
	}
	if lead < 1 {
		lead = 1
	}
	earliest := Midnight(now).AddDate(0, 0, lead)
	latest := Midnight(t.ExpirationDate)
	return earliest, latest
}

// DepartureDateValid reports whether the given departure date falls inside
// the tour's window as of now.
func (t *Tour) DepartureDateValid(departure, now time.Time) bool {
	earliest, latest := t.DepartureWindow(now)
	d := Midnight(departure)
	return !d.Before(earliest) && !d.After(latest)
}

// GetTourByID fetches a tour snapshot by its ID.
func GetTourByID(ctx context.Context, db *pgxpool.Pool, tourID uuid.UUID) (*Tour, error) {
	t := &Tour{}
	query := `
		SELECT id, title, adult_price, children_price, baby_price, deposit_percentage,
		       booking_deadline_days, min_advance_days, expiration_date, pickup_points,
		       created_at, updated_at
		FROM tours
		WHERE id = $1`

	err := db.QueryRow(ctx, query, tourID).Scan(
		&t.ID, &t.Title, &t.AdultPrice, &t.ChildrenPrice, &t.BabyPrice,
		&t.DepositPercentage, &t.BookingDeadlineDays, &t.MinAdvanceDays,
		&t.ExpirationDate, &t.PickupPoints, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.WarnLogger.Warnf("Tour %s not found", tourID)
			return nil, ErrTourNotFound
		}
		logger.ErrorLogger.Errorf("Failed to fetch tour %s: %v", tourID, err)
		return nil, fmt.Errorf("database error fetching tour: %w", err)
	}
	return t, nil
}
