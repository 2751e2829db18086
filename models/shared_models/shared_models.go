package shared_models

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPendingPayment        BookingStatus = "PENDING_PAYMENT"
	StatusPendingDepositPayment BookingStatus = "PENDING_DEPOSIT_PAYMENT"
	StatusPendingBalancePayment BookingStatus = "PENDING_BALANCE_PAYMENT"
	StatusWaitingForUpdate      BookingStatus = "WAITING_FOR_UPDATE"
	StatusWaitingForApproved    BookingStatus = "WAITING_FOR_APPROVED"
	StatusSuccessWaitConfirmed  BookingStatus = "BOOKING_SUCCESS_WAIT_FOR_CONFIRMED"
	StatusBalanceSuccess        BookingStatus = "BOOKING_BALANCE_SUCCESS"
	StatusSuccessPending        BookingStatus = "BOOKING_SUCCESS_PENDING"
	StatusSuccess               BookingStatus = "BOOKING_SUCCESS"
	StatusUnderComplaint        BookingStatus = "BOOKING_UNDER_COMPLAINT"
	StatusCancelled             BookingStatus = "BOOKING_CANCELLED"
	StatusRejected              BookingStatus = "BOOKING_REJECTED"
	StatusFailed                BookingStatus = "BOOKING_FAILED"
)

// BookingAction is an operation a customer may perform on a booking.
type BookingAction string

const (
	ActionPayNow            BookingAction = "PAY_NOW"
	ActionPayBalance        BookingAction = "PAY_BALANCE"
	ActionUpdateAndResubmit BookingAction = "UPDATE_AND_RESUBMIT"
	ActionCancel            BookingAction = "CANCEL"
	ActionConfirmCompletion BookingAction = "CONFIRM_COMPLETION"
	ActionFileComplaint     BookingAction = "FILE_COMPLAINT"
)

// validTransitions defines the server-side state machine. Statuses mapping
// to an empty slice are terminal.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPendingPayment:        {StatusSuccessPending, StatusFailed, StatusCancelled},
	StatusPendingDepositPayment: {StatusWaitingForApproved, StatusFailed, StatusCancelled},
	StatusWaitingForApproved:    {StatusWaitingForUpdate, StatusPendingBalancePayment, StatusRejected, StatusCancelled},
	StatusWaitingForUpdate:      {StatusWaitingForApproved, StatusCancelled},
	StatusPendingBalancePayment: {StatusBalanceSuccess, StatusFailed, StatusCancelled},
	StatusBalanceSuccess:        {StatusSuccessWaitConfirmed, StatusCancelled},
	StatusSuccessPending:        {StatusSuccessWaitConfirmed, StatusCancelled},
	StatusSuccessWaitConfirmed:  {StatusSuccess, StatusUnderComplaint},
	StatusUnderComplaint:        {StatusSuccess, StatusCancelled},
	StatusSuccess:               {},
	StatusCancelled:             {},
	StatusRejected:              {},
	StatusFailed:                {},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// IsUnpaid reports whether the booking still has an outstanding payment leg.
// Used by the pending-booking recovery scan.
func (s BookingStatus) IsUnpaid() bool {
	switch s {
	case StatusPendingPayment, StatusPendingDepositPayment, StatusPendingBalancePayment:
		return true
	}
	return false
}

// AllowedActions returns the action set a customer may be offered at this
// status. Once the customer has confirmed completion, neither the confirm
// nor the complaint action is offered again.
func AllowedActions(s BookingStatus, userConfirmedCompletion bool) []BookingAction {
	switch s {
	case StatusPendingPayment, StatusPendingDepositPayment:
		return []BookingAction{ActionPayNow}
	case StatusPendingBalancePayment:
		return []BookingAction{ActionPayBalance}
	case StatusWaitingForUpdate:
		return []BookingAction{ActionUpdateAndResubmit, ActionCancel}
	case StatusWaitingForApproved:
		return []BookingAction{ActionCancel}
	case StatusBalanceSuccess:
		return []BookingAction{ActionCancel}
	case StatusSuccessWaitConfirmed:
		if userConfirmedCompletion {
			return nil
		}
		return []BookingAction{ActionConfirmCompletion, ActionFileComplaint}
	}
	return nil
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}
