package booking_controller

import (
	"regexp"
	"strings"
	"time"

	"github.com/danatour/booking/models/booking_models"
	"github.com/danatour/booking/models/guest_models"
	"github.com/danatour/booking/models/tour_models"
)

var (
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	nonDigitPattern = regexp.MustCompile(`\D`)
)

// ValidateContact checks the booking-level contact block. Failures use the
// same FieldError shape as guest validation, with index -1.
func ValidateContact(contact booking_models.Contact, pickupPoint, departureDate string) []guest_models.FieldError {
	var errs []guest_models.FieldError
	fail := func(field, msg string) {
		errs = append(errs, guest_models.FieldError{GuestIndex: -1, Field: field, Message: msg})
	}

	if strings.TrimSpace(contact.Name) == "" {
		fail("contact.name", "contact name is required")
	}
	if digits := nonDigitPattern.ReplaceAllString(contact.Phone, ""); len(digits) != 10 {
		fail("contact.phone", "phone number must contain exactly 10 digits")
	}
	if !emailPattern.MatchString(strings.TrimSpace(contact.Email)) {
		fail("contact.email", "a valid email address is required")
	}
	if strings.TrimSpace(contact.Address) == "" {
		fail("contact.address", "contact address is required")
	}
	if strings.TrimSpace(pickupPoint) == "" {
		fail("pickup_point", "pickup point is required")
	}
	if strings.TrimSpace(departureDate) == "" {
		fail("departure_date", "departure date is required")
	}
	return errs
}

// ParseDepartureDate accepts the same two layouts as birth dates and checks
// the date against the tour's booking window as of now.
func ParseDepartureDate(raw string, tour *tour_models.Tour, now time.Time) (time.Time, error) {
	departure, err := guest_models.ParseBirthDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	if !tour.DepartureDateValid(departure, now) {
		return time.Time{}, ErrInvalidDepartureDate
	}
	return tour_models.Midnight(departure), nil
}
