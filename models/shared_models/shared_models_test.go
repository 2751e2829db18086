package shared_models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allStatuses() []BookingStatus {
	return []BookingStatus{
		StatusPendingPayment, StatusPendingDepositPayment, StatusPendingBalancePayment,
		StatusWaitingForUpdate, StatusWaitingForApproved, StatusSuccessWaitConfirmed,
		StatusBalanceSuccess, StatusSuccessPending, StatusSuccess,
		StatusUnderComplaint, StatusCancelled, StatusRejected, StatusFailed,
	}
}

func TestBookingStatusValidity(t *testing.T) {
	for _, s := range allStatuses() {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, BookingStatus("SOMETHING_ELSE").IsValid())
	assert.False(t, BookingStatus("").IsValid())
}

func TestTransitions(t *testing.T) {
	t.Run("DepositPaymentLeadsToApproval", func(t *testing.T) {
		assert.True(t, StatusPendingDepositPayment.CanTransitionTo(StatusWaitingForApproved))
	})

	t.Run("FullPaymentLeadsToSuccessPending", func(t *testing.T) {
		assert.True(t, StatusPendingPayment.CanTransitionTo(StatusSuccessPending))
		assert.False(t, StatusPendingPayment.CanTransitionTo(StatusWaitingForApproved))
	})

	t.Run("UpdateLoop", func(t *testing.T) {
		assert.True(t, StatusWaitingForApproved.CanTransitionTo(StatusWaitingForUpdate))
		assert.True(t, StatusWaitingForUpdate.CanTransitionTo(StatusWaitingForApproved))
	})

	t.Run("TerminalStatusesAllowNothing", func(t *testing.T) {
		for _, s := range []BookingStatus{StatusSuccess, StatusCancelled, StatusRejected, StatusFailed} {
			assert.True(t, s.IsTerminal(), s)
			for _, target := range allStatuses() {
				assert.False(t, s.CanTransitionTo(target), "%s -> %s", s, target)
			}
		}
	})

	t.Run("NoStatusTransitionsToItself", func(t *testing.T) {
		for _, s := range allStatuses() {
			assert.False(t, s.CanTransitionTo(s), s)
		}
	})

	t.Run("ComplaintResolution", func(t *testing.T) {
		assert.True(t, StatusSuccessWaitConfirmed.CanTransitionTo(StatusUnderComplaint))
		assert.True(t, StatusUnderComplaint.CanTransitionTo(StatusSuccess))
		assert.True(t, StatusUnderComplaint.CanTransitionTo(StatusCancelled))
	})

	t.Run("UnknownStatusIsTerminalAndImmobile", func(t *testing.T) {
		s := BookingStatus("BOGUS")
		assert.True(t, s.IsTerminal())
		assert.False(t, s.CanTransitionTo(StatusSuccess))
	})
}

func TestIsUnpaid(t *testing.T) {
	unpaid := map[BookingStatus]bool{
		StatusPendingPayment:        true,
		StatusPendingDepositPayment: true,
		StatusPendingBalancePayment: true,
	}
	for _, s := range allStatuses() {
		assert.Equal(t, unpaid[s], s.IsUnpaid(), s)
	}
}

func TestAllowedActions(t *testing.T) {
	cases := []struct {
		status    BookingStatus
		confirmed bool
		want      []BookingAction
	}{
		{StatusPendingPayment, false, []BookingAction{ActionPayNow}},
		{StatusPendingDepositPayment, false, []BookingAction{ActionPayNow}},
		{StatusPendingBalancePayment, false, []BookingAction{ActionPayBalance}},
		{StatusWaitingForUpdate, false, []BookingAction{ActionUpdateAndResubmit, ActionCancel}},
		{StatusWaitingForApproved, false, []BookingAction{ActionCancel}},
		{StatusBalanceSuccess, false, []BookingAction{ActionCancel}},
		{StatusSuccessWaitConfirmed, false, []BookingAction{ActionConfirmCompletion, ActionFileComplaint}},
		{StatusSuccessWaitConfirmed, true, nil},
		{StatusSuccessPending, false, nil},
		{StatusSuccess, false, nil},
		{StatusUnderComplaint, false, nil},
		{StatusCancelled, false, nil},
		{StatusRejected, false, nil},
		{StatusFailed, false, nil},
	}

	for _, tc := range cases {
		got := AllowedActions(tc.status, tc.confirmed)
		assert.Equal(t, tc.want, got, "%s confirmed=%v", tc.status, tc.confirmed)
	}
}

func TestParseBookingStatus(t *testing.T) {
	s, err := ParseBookingStatus("BOOKING_SUCCESS_WAIT_FOR_CONFIRMED")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccessWaitConfirmed, s)

	_, err = ParseBookingStatus("nope")
	assert.Error(t, err)
}
