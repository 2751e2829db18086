package booking_models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/danatour/booking/logger"
	"github.com/danatour/booking/models/guest_models"
	"github.com/danatour/booking/models/shared_models"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	// ErrStateConflict means the stored status does not allow the requested
	// transition. Callers re-fetch and re-derive rather than retrying.
	ErrStateConflict = errors.New("booking status conflict")
)

// Contact is the booking-level contact block, validated once per booking
// independent of per-guest checks.
type Contact struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// Booking is a tour reservation. Amount fields are authoritative,
// voucher-adjusted figures written at creation time; DepositAmount is the
// discounted deposit leg and TotalDiscountAmount the voucher discount on the
// whole order.
type Booking struct {
	ID                      uuid.UUID                      `json:"id"`
	TourID                  uuid.UUID                      `json:"tour_id"`
	Contact                 Contact                        `json:"contact"`
	PickupPoint             string                         `json:"pickup_point"`
	Note                    string                         `json:"note"`
	DepartureDate           time.Time                      `json:"departure_date"`
	Guests                  *guest_models.GuestComposition `json:"guests"`
	Status                  shared_models.BookingStatus    `json:"status"`
	TotalAmount             int64                          `json:"total_amount"`
	TotalDiscountAmount     int64                          `json:"total_discount_amount"`
	DepositAmount           int64                          `json:"deposit_amount"`
	DepositPercentage       int                            `json:"deposit_percentage"`
	VoucherCode             *string                        `json:"voucher_code,omitempty"`
	UserConfirmedCompletion bool                           `json:"user_confirmed_completion"`
	CreatedAt               time.Time                      `json:"created_at"`
	UpdatedAt               time.Time                      `json:"updated_at"`
}

// FinalTotal is the voucher-adjusted amount owed for the whole booking.
func (b *Booking) FinalTotal() int64 {
	return b.TotalAmount - b.TotalDiscountAmount
}

// NewBooking creates a new Booking struct in its initial status: deposit
// split bookings start at PENDING_DEPOSIT_PAYMENT, full-payment bookings at
// PENDING_PAYMENT.
func NewBooking(tourID uuid.UUID, contact Contact, pickupPoint, note string, departure time.Time, guests *guest_models.GuestComposition) (*Booking, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID for booking: %w", err)
	}
	now := time.Now()
	return &Booking{
		ID:            id,
		TourID:        tourID,
		Contact:       contact,
		PickupPoint:   pickupPoint,
		Note:          note,
		DepartureDate: departure,
		Guests:        guests,
		Status:        shared_models.StatusPendingPayment,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CreateBooking inserts the booking and its guest rows in one transaction.
func CreateBooking(ctx context.Context, db *pgxpool.Pool, booking *Booking) (*Booking, error) {
	logger.InfoLogger.Infof("Attempting to create booking for tour %s", booking.TourID)

	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO bookings (
			id, tour_id, contact_name, contact_phone, contact_email, contact_address,
			pickup_point, note, departure_date, status,
			total_amount, total_discount_amount, deposit_amount, deposit_percentage,
			voucher_code, user_confirmed_completion, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		) RETURNING id`

	var insertedID uuid.UUID
	err = tx.QueryRow(ctx, query,
		booking.ID, booking.TourID,
		booking.Contact.Name, booking.Contact.Phone, strings.ToLower(strings.TrimSpace(booking.Contact.Email)), booking.Contact.Address,
		booking.PickupPoint, booking.Note, booking.DepartureDate, booking.Status,
		booking.TotalAmount, booking.TotalDiscountAmount, booking.DepositAmount, booking.DepositPercentage,
		booking.VoucherCode, booking.UserConfirmedCompletion, booking.CreatedAt, booking.UpdatedAt,
	).Scan(&insertedID)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to insert booking for tour %s: %v", booking.TourID, err)
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if err := replaceGuests(ctx, tx, insertedID, booking.Guests); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = insertedID
	logger.InfoLogger.Infof("Booking %s created with status %s", booking.ID, booking.Status)
	return booking, nil
}

func replaceGuests(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, comp *guest_models.GuestComposition) error {
	if _, err := tx.Exec(ctx, `DELETE FROM booking_guests WHERE booking_id = $1`, bookingID); err != nil {
		return fmt.Errorf("failed to clear guest rows: %w", err)
	}

	insert := `
		INSERT INTO booking_guests (
			booking_id, position, guest_type, full_name, birth_date, gender, nationality, id_number
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for pos, g := range comp.All() {
		if _, err := tx.Exec(ctx, insert,
			bookingID, pos, g.GuestType, g.FullName, g.BirthDate, g.Gender, g.Nationality, g.IDNumber,
		); err != nil {
			return fmt.Errorf("failed to insert guest row %d: %w", pos, err)
		}
	}
	return nil
}

// GetBookingByID fetches a booking and its guest rows.
func GetBookingByID(ctx context.Context, db *pgxpool.Pool, bookingID uuid.UUID) (*Booking, error) {
	b := &Booking{}
	query := `
		SELECT id, tour_id, contact_name, contact_phone, contact_email, contact_address,
		       pickup_point, note, departure_date, status,
		       total_amount, total_discount_amount, deposit_amount, deposit_percentage,
		       voucher_code, user_confirmed_completion, created_at, updated_at
		FROM bookings
		WHERE id = $1`

	err := db.QueryRow(ctx, query, bookingID).Scan(
		&b.ID, &b.TourID,
		&b.Contact.Name, &b.Contact.Phone, &b.Contact.Email, &b.Contact.Address,
		&b.PickupPoint, &b.Note, &b.DepartureDate, &b.Status,
		&b.TotalAmount, &b.TotalDiscountAmount, &b.DepositAmount, &b.DepositPercentage,
		&b.VoucherCode, &b.UserConfirmedCompletion, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.WarnLogger.Warnf("Booking %s not found", bookingID)
			return nil, ErrBookingNotFound
		}
		logger.ErrorLogger.Errorf("Failed to fetch booking %s: %v", bookingID, err)
		return nil, fmt.Errorf("database error fetching booking: %w", err)
	}

	guests, err := getGuests(ctx, db, bookingID)
	if err != nil {
		return nil, err
	}
	b.Guests = guests
	return b, nil
}

func getGuests(ctx context.Context, db *pgxpool.Pool, bookingID uuid.UUID) (*guest_models.GuestComposition, error) {
	rows, err := db.Query(ctx, `
		SELECT guest_type, full_name, birth_date, gender, nationality, id_number
		FROM booking_guests
		WHERE booking_id = $1
		ORDER BY position`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guest rows: %w", err)
	}
	defer rows.Close()

	comp := &guest_models.GuestComposition{}
	for rows.Next() {
		var g guest_models.Guest
		if err := rows.Scan(&g.GuestType, &g.FullName, &g.BirthDate, &g.Gender, &g.Nationality, &g.IDNumber); err != nil {
			return nil, fmt.Errorf("failed to scan guest row: %w", err)
		}
		switch g.GuestType {
		case guest_models.GuestTypeChild:
			comp.Children = append(comp.Children, g)
		case guest_models.GuestTypeBaby:
			comp.Babies = append(comp.Babies, g)
		default:
			comp.Adults = append(comp.Adults, g)
		}
	}
	return comp, rows.Err()
}

// UpdateBookingStatus transitions a booking to a new status, enforcing the
// state machine against the currently stored status. Returns
// ErrStateConflict when the stored status does not allow the transition.
func UpdateBookingStatus(ctx context.Context, db *pgxpool.Pool, bookingID uuid.UUID, target shared_models.BookingStatus) error {
	logger.InfoLogger.Infof("Updating status for booking %s to %s", bookingID, target)

	var current shared_models.BookingStatus
	err := db.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1`, bookingID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("failed to read booking status: %w", err)
	}
	if !current.CanTransitionTo(target) {
		logger.WarnLogger.Warnf("Illegal transition %s -> %s for booking %s", current, target, bookingID)
		return fmt.Errorf("%w: %s -> %s", ErrStateConflict, current, target)
	}

	// Guard against a concurrent transition between read and write.
	cmdTag, err := db.Exec(ctx, `
		UPDATE bookings SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`, bookingID, target, current)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to update booking %s status: %v", bookingID, err)
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: status changed concurrently", ErrStateConflict)
	}

	logger.InfoLogger.Infof("Booking %s status updated to %s", bookingID, target)
	return nil
}

// UpdateBookingDetails patches the editable fields of a booking (contact,
// pickup point, note, guests) and resubmits it for approval. Only legal from
// WAITING_FOR_UPDATE.
func UpdateBookingDetails(ctx context.Context, db *pgxpool.Pool, booking *Booking) error {
	var current shared_models.BookingStatus
	err := db.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1`, booking.ID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("failed to read booking status: %w", err)
	}
	if current != shared_models.StatusWaitingForUpdate {
		return fmt.Errorf("%w: booking is %s, not %s", ErrStateConflict, current, shared_models.StatusWaitingForUpdate)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cmdTag, err := tx.Exec(ctx, `
		UPDATE bookings SET
			contact_name = $2, contact_phone = $3, contact_address = $4,
			pickup_point = $5, note = $6, status = $7, updated_at = NOW()
		WHERE id = $1 AND status = $8`,
		booking.ID, booking.Contact.Name, booking.Contact.Phone, booking.Contact.Address,
		booking.PickupPoint, booking.Note, shared_models.StatusWaitingForApproved,
		shared_models.StatusWaitingForUpdate,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking details: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: status changed concurrently", ErrStateConflict)
	}

	if booking.Guests != nil {
		if err := replaceGuests(ctx, tx, booking.ID, booking.Guests); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit booking update: %w", err)
	}

	logger.InfoLogger.Infof("Booking %s updated and resubmitted for approval", booking.ID)
	return nil
}

// ConfirmCompletion records the one-shot customer confirmation and moves the
// booking to its terminal success status.
func ConfirmCompletion(ctx context.Context, db *pgxpool.Pool, bookingID uuid.UUID) error {
	cmdTag, err := db.Exec(ctx, `
		UPDATE bookings
		SET user_confirmed_completion = TRUE, status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3 AND user_confirmed_completion = FALSE`,
		bookingID, shared_models.StatusSuccess, shared_models.StatusSuccessWaitConfirmed,
	)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to confirm completion for booking %s: %v", bookingID, err)
		return fmt.Errorf("failed to confirm completion: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: completion not confirmable", ErrStateConflict)
	}

	logger.InfoLogger.Infof("Booking %s confirmed complete by customer", bookingID)
	return nil
}

// GetBookingsByEmail retrieves bookings for a contact email with pagination
// and an optional status filter, newest first.
func GetBookingsByEmail(ctx context.Context, db *pgxpool.Pool, email string, status string, page, limit int) ([]Booking, int, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	where := `WHERE contact_email = $1`
	args := []any{email}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}

	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, tour_id, contact_name, contact_phone, contact_email, contact_address,
		       pickup_point, note, departure_date, status,
		       total_amount, total_discount_amount, deposit_amount, deposit_percentage,
		       voucher_code, user_confirmed_completion, created_at, updated_at
		FROM bookings %s
		ORDER BY created_at DESC
		LIMIT %d OFFSET %d`, where, limit, (page-1)*limit)

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(
			&b.ID, &b.TourID,
			&b.Contact.Name, &b.Contact.Phone, &b.Contact.Email, &b.Contact.Address,
			&b.PickupPoint, &b.Note, &b.DepartureDate, &b.Status,
			&b.TotalAmount, &b.TotalDiscountAmount, &b.DepositAmount, &b.DepositPercentage,
			&b.VoucherCode, &b.UserConfirmedCompletion, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan booking row: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, total, rows.Err()
}

// GetLatestUnpaidByEmail returns the most recent booking for an email whose
// status still has an outstanding payment leg. Backs the pending-booking
// recovery fallback when no cache key resolves.
func GetLatestUnpaidByEmail(ctx context.Context, db *pgxpool.Pool, email string) (*Booking, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	b := &Booking{}
	query := `
		SELECT id, tour_id, contact_name, contact_phone, contact_email, contact_address,
		       pickup_point, note, departure_date, status,
		       total_amount, total_discount_amount, deposit_amount, deposit_percentage,
		       voucher_code, user_confirmed_completion, created_at, updated_at
		FROM bookings
		WHERE contact_email = $1
		  AND status IN ($2, $3, $4)
		ORDER BY created_at DESC
		LIMIT 1`

	err := db.QueryRow(ctx, query, email,
		shared_models.StatusPendingPayment,
		shared_models.StatusPendingDepositPayment,
		shared_models.StatusPendingBalancePayment,
	).Scan(
		&b.ID, &b.TourID,
		&b.Contact.Name, &b.Contact.Phone, &b.Contact.Email, &b.Contact.Address,
		&b.PickupPoint, &b.Note, &b.DepartureDate, &b.Status,
		&b.TotalAmount, &b.TotalDiscountAmount, &b.DepositAmount, &b.DepositPercentage,
		&b.VoucherCode, &b.UserConfirmedCompletion, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("database error fetching latest unpaid booking: %w", err)
	}
	return b, nil
}
