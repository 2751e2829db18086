package voucher_models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/danatour/booking/logger"
)

// Discount types.
const (
	DiscountTypePercent = "PERCENT"
	DiscountTypeFixed   = "FIXED"
)

var ErrVoucherNotFound = errors.New("voucher not found")

// Voucher represents a discount voucher as stored, including the optional
// deposit-percentage override that takes precedence over the tour default.
type Voucher struct {
	Code              string    `json:"code"`
	DiscountType      string    `json:"discount_type"`
	DiscountValue     int64     `json:"discount_value"`
	MinOrderValue     int64     `json:"min_order_value"`
	RemainingQuantity int       `json:"remaining_quantity"`
	DepositPercentage *int      `json:"deposit_percentage,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// VoucherPreview is the authoritative discount/deposit breakdown computed by
// the engine for a given base total. When a preview is present its figures
// always win over locally recomputed values.
type VoucherPreview struct {
	Code                 string `json:"code,omitempty"`
	DiscountAmount       int64  `json:"discount_amount"`
	FinalTotal           int64  `json:"final_total"`
	FinalDepositAmount   int64  `json:"final_deposit_amount"`
	FinalRemainingAmount int64  `json:"final_remaining_amount"`
	DepositPercentage    int    `json:"deposit_percentage"`
	Applicable           bool   `json:"applicable"`
	Reason               string `json:"reason,omitempty"`
}

// GetVoucherByCode fetches a voucher by its code.
func GetVoucherByCode(ctx context.Context, db *pgxpool.Pool, code string) (*Voucher, error) {
	v := &Voucher{}
	query := `
		SELECT code, discount_type, discount_value, min_order_value, remaining_quantity,
		       deposit_percentage, created_at, updated_at
		FROM vouchers
		WHERE code = $1`

	err := db.QueryRow(ctx, query, code).Scan(
		&v.Code, &v.DiscountType, &v.DiscountValue, &v.MinOrderValue,
		&v.RemainingQuantity, &v.DepositPercentage, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.WarnLogger.Warnf("Voucher %s not found", code)
			return nil, ErrVoucherNotFound
		}
		logger.ErrorLogger.Errorf("Failed to fetch voucher %s: %v", code, err)
		return nil, fmt.Errorf("database error fetching voucher: %w", err)
	}
	return v, nil
}

// ListAvailableVouchers returns all vouchers that still have remaining uses.
func ListAvailableVouchers(ctx context.Context, db *pgxpool.Pool) ([]Voucher, error) {
	query := `
		SELECT code, discount_type, discount_value, min_order_value, remaining_quantity,
		       deposit_percentage, created_at, updated_at
		FROM vouchers
		WHERE remaining_quantity > 0
		ORDER BY created_at DESC`

	rows, err := db.Query(ctx, query)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to list vouchers: %v", err)
		return nil, fmt.Errorf("database error listing vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []Voucher
	for rows.Next() {
		var v Voucher
		if err := rows.Scan(
			&v.Code, &v.DiscountType, &v.DiscountValue, &v.MinOrderValue,
			&v.RemainingQuantity, &v.DepositPercentage, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan voucher row: %w", err)
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, rows.Err()
}

// RedeemVoucher decrements the remaining quantity of a voucher, guarding
// against going below zero. Returns ErrVoucherNotFound when the voucher is
// missing or already exhausted.
func RedeemVoucher(ctx context.Context, db *pgxpool.Pool, code string) error {
	query := `
		UPDATE vouchers
		SET remaining_quantity = remaining_quantity - 1, updated_at = NOW()
		WHERE code = $1 AND remaining_quantity > 0`

	cmdTag, err := db.Exec(ctx, query, code)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to redeem voucher %s: %v", code, err)
		return fmt.Errorf("failed to redeem voucher: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrVoucherNotFound
	}

	logger.InfoLogger.Infof("Voucher %s redeemed", code)
	return nil
}
