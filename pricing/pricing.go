// Package pricing holds the monetary core of the booking flow: the base
// total from a guest composition and a tour's price table, and the voucher
// discount plus deposit/remaining split layered on top. All amounts are
// integer minor units; nothing here touches the network or the database.
package pricing

import (
	"errors"

	"github.com/danatour/booking/logger"
	"github.com/danatour/booking/models/guest_models"
	"github.com/danatour/booking/models/tour_models"
	"github.com/danatour/booking/models/voucher_models"
)

var (
	// ErrVoucherNotApplicable means the order does not meet the voucher's
	// minimum order value. The booking proceeds without a discount.
	ErrVoucherNotApplicable = errors.New("voucher not applicable to this order")
	// ErrVoucherExhausted means the voucher has no remaining uses.
	ErrVoucherExhausted = errors.New("voucher has no remaining quantity")
)

// Application is the result of applying a voucher (possibly none) to a base
// total: the discount, the post-discount total, and its deposit/remaining
// split under the effective deposit percentage.
type Application struct {
	DiscountAmount    int64 `json:"discount_amount"`
	FinalTotal        int64 `json:"final_total"`
	DepositAmount     int64 `json:"deposit_amount"`
	RemainingAmount   int64 `json:"remaining_amount"`
	DepositPercentage int   `json:"deposit_percentage"`
}

// ComputeBaseTotal prices a guest composition against a tour's price table:
// adults*adultPrice + children*childrenPrice + babies*babyPrice.
func ComputeBaseTotal(tour *tour_models.Tour, comp *guest_models.GuestComposition) int64 {
	return int64(comp.AdultCount())*tour.AdultPrice +
		int64(comp.ChildCount())*tour.ChildrenPrice +
		int64(comp.BabyCount())*tour.BabyPrice
}

// EffectiveDepositPercent resolves the deposit percentage for a booking: a
// voucher's override, when present, wins over the tour default. The result
// is clamped to [0, 100].
func EffectiveDepositPercent(voucher *voucher_models.Voucher, tourDepositPct int) int {
	pct := tourDepositPct
	if voucher != nil && voucher.DepositPercentage != nil {
		pct = *voucher.DepositPercentage
	}
	return clampPercent(pct)
}

// ApplyVoucher overlays a voucher on a base total. A nil voucher yields a
// zero discount. PERCENT discounts floor; the deposit leg rounds half up so
// deposit + remaining always equals the final total exactly.
func ApplyVoucher(baseTotal int64, voucher *voucher_models.Voucher, tourDepositPct int) (Application, error) {
	if voucher != nil {
		if voucher.RemainingQuantity <= 0 {
			return Application{}, ErrVoucherExhausted
		}
		if baseTotal < voucher.MinOrderValue {
			return Application{}, ErrVoucherNotApplicable
		}
	}

	var discount int64
	if voucher != nil {
		switch voucher.DiscountType {
		case voucher_models.DiscountTypePercent:
			discount = baseTotal * voucher.DiscountValue / 100
		case voucher_models.DiscountTypeFixed:
			discount = voucher.DiscountValue
		}
	}
	if discount < 0 {
		discount = 0
	}
	if discount > baseTotal {
		discount = baseTotal
	}

	finalTotal := baseTotal - discount
	pct := EffectiveDepositPercent(voucher, tourDepositPct)
	deposit, remaining := SplitDeposit(finalTotal, pct)

	return Application{
		DiscountAmount:    discount,
		FinalTotal:        finalTotal,
		DepositAmount:     deposit,
		RemainingAmount:   remaining,
		DepositPercentage: pct,
	}, nil
}

// SplitDeposit splits a final total into the deposit due now and the balance
// due later. A percentage of 0 or 100 means a single full payment.
func SplitDeposit(finalTotal int64, pct int) (deposit, remaining int64) {
	pct = clampPercent(pct)
	if pct <= 0 || pct >= 100 {
		return finalTotal, 0
	}
	deposit = (finalTotal*int64(pct) + 50) / 100
	return deposit, finalTotal - deposit
}

// Preview converts an application into the wire-shaped voucher preview.
func (a Application) Preview(code string) voucher_models.VoucherPreview {
	return voucher_models.VoucherPreview{
		Code:                 code,
		DiscountAmount:       a.DiscountAmount,
		FinalTotal:           a.FinalTotal,
		FinalDepositAmount:   a.DepositAmount,
		FinalRemainingAmount: a.RemainingAmount,
		DepositPercentage:    a.DepositPercentage,
		Applicable:           true,
	}
}

// ReconcilePreview prefers an authoritative preview over a locally computed
// application. A divergence is logged, never silently adopted the local way.
func ReconcilePreview(local Application, preview *voucher_models.VoucherPreview) Application {
	if preview == nil {
		return local
	}
	fromPreview := Application{
		DiscountAmount:    preview.DiscountAmount,
		FinalTotal:        preview.FinalTotal,
		DepositAmount:     preview.FinalDepositAmount,
		RemainingAmount:   preview.FinalRemainingAmount,
		DepositPercentage: preview.DepositPercentage,
	}
	if fromPreview != local {
		logger.WarnLogger.Warnf(
			"Voucher preview disagrees with local figures (preview final=%d deposit=%d, local final=%d deposit=%d); preview wins",
			fromPreview.FinalTotal, fromPreview.DepositAmount, local.FinalTotal, local.DepositAmount,
		)
	}
	return fromPreview
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
