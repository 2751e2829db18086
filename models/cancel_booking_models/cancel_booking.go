package cancel_booking_models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danatour/booking/models/tour_models"
)

// Refund tiers by whole days between cancellation and departure. The mobile
// client treats the percentage as opaque policy; the tiers live here so a
// policy change is a one-line edit.
var refundTiers = []struct {
	minDays int
	percent int
}{
	{15, 100},
	{7, 70},
	{3, 30},
	{0, 0},
}

// CancellationPreview is the refund breakdown shown before a cancellation is
// confirmed. A confirmed cancellation on unchanged state must return the
// identical preview.
type CancellationPreview struct {
	RefundAmount     int64 `json:"refund_amount"`
	RefundPercentage int   `json:"refund_percentage"`
	PayedAmount      int64 `json:"payed_amount"`
	DepositAmount    int64 `json:"deposit_amount"`
	TotalAmount      int64 `json:"total_amount"`
}

// RefundPercentFor returns the policy refund percentage for a cancellation
// happening at cancelAt against the given departure date.
func RefundPercentFor(cancelAt, departure time.Time) int {
	days := int(tour_models.Midnight(departure).Sub(tour_models.Midnight(cancelAt)).Hours() / 24)
	if days < 0 {
		days = 0
	}
	for _, tier := range refundTiers {
		if days >= tier.minDays {
			return tier.percent
		}
	}
	return 0
}

// ComputePreview derives the refund preview from the amounts already paid
// and the policy percentage. The refund can never exceed the paid amount.
func ComputePreview(payedAmount, depositAmount, totalAmount int64, cancelAt, departure time.Time) (CancellationPreview, error) {
	if payedAmount < 0 {
		return CancellationPreview{}, fmt.Errorf("invalid paid amount %d", payedAmount)
	}
	pct := RefundPercentFor(cancelAt, departure)
	refund := payedAmount * int64(pct) / 100

	preview := CancellationPreview{
		RefundAmount:     refund,
		RefundPercentage: pct,
		PayedAmount:      payedAmount,
		DepositAmount:    depositAmount,
		TotalAmount:      totalAmount,
	}
	if err := preview.Check(); err != nil {
		return CancellationPreview{}, err
	}
	return preview, nil
}

// Check enforces the refund invariant. A violation is a data error to
// surface, never to accept silently.
func (p CancellationPreview) Check() error {
	if p.RefundAmount > p.PayedAmount {
		return fmt.Errorf("refund amount %d exceeds paid amount %d", p.RefundAmount, p.PayedAmount)
	}
	if p.RefundAmount < 0 {
		return fmt.Errorf("negative refund amount %d", p.RefundAmount)
	}
	return nil
}

// CancelBookingRequest is the wire request for a confirmed cancellation.
type CancelBookingRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
	Reason    string    `json:"reason"`
}

// CancelBookingResponse is the wire response for preview and confirm alike.
type CancelBookingResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Data    *CancellationPreview `json:"data,omitempty"`
}
