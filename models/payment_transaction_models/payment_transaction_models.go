package payment_transaction_models

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

// Payment stages: which leg of the booking a transaction covers.
const (
	StageDeposit = "DEPOSIT"
	StageBalance = "BALANCE"
	StageFull    = "FULL"
)

// Transaction statuses.
const (
	StatusActive    = "ACTIVE"
	StatusPaid      = "PAID"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

var ErrTransactionNotFound = errors.New("payment transaction not found")

// PaymentTransaction records one payment-session attempt against the
// external gateway.
type PaymentTransaction struct {
	ID               uuid.UUID  `json:"id"`
	BookingID        uuid.UUID  `json:"booking_id"`
	GatewayOrderID   string     `json:"gateway_order_id"`
	PaymentSessionID string     `json:"payment_session_id"`
	Amount           int64      `json:"amount"`
	Currency         string     `json:"currency"`
	Stage            string     `json:"stage"`
	Status           string     `json:"status"`
	PaymentMethod    string     `json:"payment_method"`
	ErrorDescription *string    `json:"error_description"`
	CapturedAt       *time.Time `json:"captured_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewPaymentTransaction creates a new PaymentTransaction struct in its
// initial ACTIVE status.
func NewPaymentTransaction(bookingID uuid.UUID, gatewayOrderID, paymentSessionID string, amount int64, currency, stage string) (*PaymentTransaction, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID for payment transaction: %w", err)
	}
	now := time.Now()
	return &PaymentTransaction{
		ID:               id,
		BookingID:        bookingID,
		GatewayOrderID:   gatewayOrderID,
		PaymentSessionID: paymentSessionID,
		Amount:           amount,
		Currency:         currency,
		Stage:            stage,
		Status:           StatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// CreatePaymentTransaction inserts a new payment transaction record.
func CreatePaymentTransaction(ctx context.Context, db *pgxpool.Pool, tx *PaymentTransaction) (*PaymentTransaction, error) {
	logger.InfoLogger.Infof("Creating %s payment transaction for booking %s", tx.Stage, tx.BookingID)

	query := `
		INSERT INTO payment_transactions (
			id, booking_id, gateway_order_id, payment_session_id,
			amount, currency, stage, status, payment_method, error_description,
			captured_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		) RETURNING id`

	var insertedID uuid.UUID
	err := db.QueryRow(ctx, query,
		tx.ID, tx.BookingID, tx.GatewayOrderID, tx.PaymentSessionID,
		tx.Amount, tx.Currency, tx.Stage, tx.Status, tx.PaymentMethod, tx.ErrorDescription,
		tx.CapturedAt, tx.CreatedAt, tx.UpdatedAt,
	).Scan(&insertedID)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to insert payment transaction for booking %s: %v", tx.BookingID, err)
		return nil, fmt.Errorf("failed to create payment transaction: %w", err)
	}

	tx.ID = insertedID
	return tx, nil
}

// UpdatePaymentTransaction updates an existing payment transaction record.
func UpdatePaymentTransaction(ctx context.Context, db *pgxpool.Pool, tx *PaymentTransaction) error {
	tx.UpdatedAt = time.Now()

	query := `
		UPDATE payment_transactions
		SET status = $2, payment_method = $3, error_description = $4,
		    captured_at = $5, updated_at = $6
		WHERE id = $1`

	cmdTag, err := db.Exec(ctx, query,
		tx.ID, tx.Status, tx.PaymentMethod, tx.ErrorDescription, tx.CapturedAt, tx.UpdatedAt,
	)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to update payment transaction %s: %v", tx.ID, err)
		return fmt.Errorf("failed to update payment transaction: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}

	logger.InfoLogger.Infof("Payment transaction %s updated to status %s", tx.ID, tx.Status)
	return nil
}

// GetPaymentTransactionByGatewayOrderID fetches a transaction by the
// gateway's order id, the key the callback hands back.
func GetPaymentTransactionByGatewayOrderID(ctx context.Context, db *pgxpool.Pool, gatewayOrderID string) (*PaymentTransaction, error) {
	tx := &PaymentTransaction{}
	query := `
		SELECT id, booking_id, gateway_order_id, payment_session_id,
		       amount, currency, stage, status, payment_method, error_description,
		       captured_at, created_at, updated_at
		FROM payment_transactions
		WHERE gateway_order_id = $1`

	err := db.QueryRow(ctx, query, gatewayOrderID).Scan(
		&tx.ID, &tx.BookingID, &tx.GatewayOrderID, &tx.PaymentSessionID,
		&tx.Amount, &tx.Currency, &tx.Stage, &tx.Status, &tx.PaymentMethod, &tx.ErrorDescription,
		&tx.CapturedAt, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.WarnLogger.Warnf("Payment transaction for gateway order %s not found", gatewayOrderID)
			return nil, ErrTransactionNotFound
		}
		logger.ErrorLogger.Errorf("Failed to fetch payment transaction by gateway order %s: %v", gatewayOrderID, err)
		return nil, fmt.Errorf("database error fetching payment transaction: %w", err)
	}
	return tx, nil
}

// SumPaidAmount returns the total captured amount for a booking across all
// PAID transactions. Feeds balance routing and refund previews.
func SumPaidAmount(ctx context.Context, db *pgxpool.Pool, bookingID uuid.UUID) (int64, error) {
	var sum int64
	err := db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM payment_transactions
		WHERE booking_id = $1 AND status = $2`, bookingID, StatusPaid).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum paid amount: %w", err)
	}
	return sum, nil
}
