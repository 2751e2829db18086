package payment_controller

import (
	"github.com/danatour/booking/models/booking_models"
	"github.com/danatour/booking/models/payment_transaction_models"
	"github.com/danatour/booking/models/shared_models"
)

// PaymentRoute is the selected payment stage and the exact amount to charge.
type PaymentRoute struct {
	Stage  string `json:"stage"`
	Amount int64  `json:"amount"`
}

// RoutePayment selects the payment stage for a booking from its status and
// deposit configuration. sumPaid is the total of already captured
// transactions; the balance charge is the final total minus that sum, never
// negative.
//
// Checked in order: a booking awaiting its balance pays BALANCE regardless
// of the deposit configuration; otherwise an effective deposit percentage
// strictly between 0 and 100 pays DEPOSIT; otherwise FULL.
func RoutePayment(booking *booking_models.Booking, sumPaid int64) PaymentRoute {
	if booking.Status == shared_models.StatusPendingBalancePayment {
		amount := booking.FinalTotal() - sumPaid
		if amount < 0 {
			amount = 0
		}
		return PaymentRoute{Stage: payment_transaction_models.StageBalance, Amount: amount}
	}
	if booking.DepositPercentage > 0 && booking.DepositPercentage < 100 {
		return PaymentRoute{Stage: payment_transaction_models.StageDeposit, Amount: booking.DepositAmount}
	}
	return PaymentRoute{Stage: payment_transaction_models.StageFull, Amount: booking.FinalTotal()}
}

// statusAfterPayment maps a captured payment stage to the booking status it
// advances to.
func statusAfterPayment(stage string) (shared_models.BookingStatus, bool) {
	switch stage {
	case payment_transaction_models.StageDeposit:
		return shared_models.StatusWaitingForApproved, true
	case payment_transaction_models.StageFull:
		return shared_models.StatusSuccessPending, true
	case payment_transaction_models.StageBalance:
		return shared_models.StatusBalanceSuccess, true
	}
	return "", false
}
