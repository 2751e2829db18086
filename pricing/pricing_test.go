package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danatour/booking/models/guest_models"
	"github.com/danatour/booking/models/tour_models"
	"github.com/danatour/booking/models/voucher_models"
)

func testTour() *tour_models.Tour {
	return &tour_models.Tour{
		AdultPrice:        1_000_000,
		ChildrenPrice:     600_000,
		BabyPrice:         0,
		DepositPercentage: 30,
	}
}

func TestComputeBaseTotal(t *testing.T) {
	tour := testTour()

	t.Run("DefaultCompositionIsOneAdult", func(t *testing.T) {
		comp := guest_models.NewGuestComposition()
		assert.Equal(t, int64(1_000_000), ComputeBaseTotal(tour, comp))
	})

	t.Run("Additivity", func(t *testing.T) {
		comp := guest_models.NewGuestComposition()
		comp.SetAdultCount(2)
		comp.SetChildCount(1)
		comp.SetBabyCount(1)
		assert.Equal(t, int64(2_600_000), ComputeBaseTotal(tour, comp))
	})

	t.Run("PerGuestChangeMovesTotalByUnitPrice", func(t *testing.T) {
		comp := guest_models.NewGuestComposition()
		before := ComputeBaseTotal(tour, comp)
		comp.SetChildCount(1)
		assert.Equal(t, before+tour.ChildrenPrice, ComputeBaseTotal(tour, comp))
	})
}

func TestApplyVoucher(t *testing.T) {
	t.Run("NilVoucherMeansNoDiscount", func(t *testing.T) {
		app, err := ApplyVoucher(2_000_000, nil, 30)
		require.NoError(t, err)
		assert.Equal(t, int64(0), app.DiscountAmount)
		assert.Equal(t, int64(2_000_000), app.FinalTotal)
		assert.Equal(t, 30, app.DepositPercentage)
	})

	t.Run("PercentDiscountFloors", func(t *testing.T) {
		v := &voucher_models.Voucher{
			Code: "TEN", DiscountType: voucher_models.DiscountTypePercent,
			DiscountValue: 10, RemainingQuantity: 5,
		}
		app, err := ApplyVoucher(2_000_000, v, 30)
		require.NoError(t, err)
		assert.Equal(t, int64(200_000), app.DiscountAmount)
		assert.Equal(t, int64(1_800_000), app.FinalTotal)
		assert.Equal(t, int64(540_000), app.DepositAmount)
		assert.Equal(t, int64(1_260_000), app.RemainingAmount)
	})

	t.Run("FixedDiscountClampsToBase", func(t *testing.T) {
		v := &voucher_models.Voucher{
			Code: "BIG", DiscountType: voucher_models.DiscountTypeFixed,
			DiscountValue: 5_000_000, RemainingQuantity: 1,
		}
		app, err := ApplyVoucher(300_000, v, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(300_000), app.DiscountAmount)
		assert.Equal(t, int64(0), app.FinalTotal)
	})

	t.Run("ExhaustedVoucherRejected", func(t *testing.T) {
		v := &voucher_models.Voucher{
			Code: "GONE", DiscountType: voucher_models.DiscountTypeFixed,
			DiscountValue: 100, RemainingQuantity: 0,
		}
		_, err := ApplyVoucher(1_000_000, v, 30)
		assert.ErrorIs(t, err, ErrVoucherExhausted)
	})

	t.Run("MinOrderValueEnforced", func(t *testing.T) {
		v := &voucher_models.Voucher{
			Code: "MIN", DiscountType: voucher_models.DiscountTypeFixed,
			DiscountValue: 100_000, MinOrderValue: 1_000_000, RemainingQuantity: 3,
		}
		_, err := ApplyVoucher(900_000, v, 30)
		assert.ErrorIs(t, err, ErrVoucherNotApplicable)

		app, err := ApplyVoucher(1_000_000, v, 30)
		require.NoError(t, err)
		assert.Equal(t, int64(100_000), app.DiscountAmount)
	})

	t.Run("VoucherDepositOverrideWins", func(t *testing.T) {
		pct := 50
		v := &voucher_models.Voucher{
			Code: "HALF", DiscountType: voucher_models.DiscountTypePercent,
			DiscountValue: 0, RemainingQuantity: 1, DepositPercentage: &pct,
		}
		app, err := ApplyVoucher(1_000_000, v, 30)
		require.NoError(t, err)
		assert.Equal(t, 50, app.DepositPercentage)
		assert.Equal(t, int64(500_000), app.DepositAmount)
	})
}

func TestSplitDeposit(t *testing.T) {
	t.Run("DepositPlusRemainingEqualsTotal", func(t *testing.T) {
		totals := []int64{0, 1, 99, 333_333, 1_800_000, 7_777_777}
		for _, total := range totals {
			for pct := 0; pct <= 100; pct += 7 {
				deposit, remaining := SplitDeposit(total, pct)
				assert.Equal(t, total, deposit+remaining, "total %d pct %d", total, pct)
				assert.GreaterOrEqual(t, deposit, int64(0))
				assert.GreaterOrEqual(t, remaining, int64(0))
			}
		}
	})

	t.Run("ZeroAndHundredPercentChargeFull", func(t *testing.T) {
		deposit, remaining := SplitDeposit(1_000_000, 0)
		assert.Equal(t, int64(1_000_000), deposit)
		assert.Equal(t, int64(0), remaining)

		deposit, remaining = SplitDeposit(1_000_000, 100)
		assert.Equal(t, int64(1_000_000), deposit)
		assert.Equal(t, int64(0), remaining)
	})

	t.Run("RoundsHalfUp", func(t *testing.T) {
		deposit, remaining := SplitDeposit(1001, 50)
		assert.Equal(t, int64(501), deposit)
		assert.Equal(t, int64(500), remaining)
	})
}

func TestEffectiveDepositPercent(t *testing.T) {
	assert.Equal(t, 30, EffectiveDepositPercent(nil, 30))

	pct := 60
	v := &voucher_models.Voucher{DepositPercentage: &pct}
	assert.Equal(t, 60, EffectiveDepositPercent(v, 30))

	out := 130
	v = &voucher_models.Voucher{DepositPercentage: &out}
	assert.Equal(t, 100, EffectiveDepositPercent(v, 30))
}

func TestReconcilePreview(t *testing.T) {
	local, err := ApplyVoucher(2_000_000, nil, 30)
	require.NoError(t, err)

	t.Run("NilPreviewKeepsLocal", func(t *testing.T) {
		got := ReconcilePreview(local, nil)
		assert.Equal(t, local, got)
	})

	t.Run("PreviewRoundTripIsLossless", func(t *testing.T) {
		// When the echoed quote already matches, reconciling against the
		// recomputed preview must return the recomputed figures unchanged.
		preview := local.Preview("TEN")
		assert.Equal(t, local, ReconcilePreview(local, &preview))
	})

	t.Run("ServerPreviewWins", func(t *testing.T) {
		preview := &voucher_models.VoucherPreview{
			Applicable:           true,
			DiscountAmount:       150_000,
			FinalTotal:           1_850_000,
			FinalDepositAmount:   555_000,
			FinalRemainingAmount: 1_295_000,
			DepositPercentage:    30,
		}
		got := ReconcilePreview(local, preview)
		assert.Equal(t, int64(150_000), got.DiscountAmount)
		assert.Equal(t, int64(1_850_000), got.FinalTotal)
	})
}
