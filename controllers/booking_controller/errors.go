package booking_controller

import "errors"

var (
	ErrBookingNotOwnedByUser = errors.New("booking does not belong to this user")
	ErrInvalidDepartureDate  = errors.New("departure date outside the tour's booking window")
)
