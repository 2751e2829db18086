package guest_models

import (
	"fmt"
	"strings"
	"time"
)

// GuestType classifies a traveller for pricing and age validation.
type GuestType string

const (
	GuestTypeAdult GuestType = "ADULT"
	GuestTypeChild GuestType = "CHILD"
	GuestTypeBaby  GuestType = "BABY"
)

// Accepted birth date layouts.
const (
	dateLayoutSlash = "02/01/2006"
	dateLayoutISO   = "2006-01-02"
)

// Age bands per guest type: ADULT >= 18, CHILD 2-17 inclusive, BABY < 2.
const (
	adultMinAge = 18
	childMinAge = 2
)

// Guest is one traveller on a booking.
type Guest struct {
	FullName    string    `json:"full_name"`
	BirthDate   string    `json:"birth_date"`
	Gender      string    `json:"gender"`
	Nationality string    `json:"nationality"`
	IDNumber    string    `json:"id_number"`
	GuestType   GuestType `json:"guest_type"`
}

// GuestComposition holds the ordered guest lists per type. Guests are
// created lazily as counts grow and truncated as counts shrink; an index is
// positional, never an identity carried across shifts.
type GuestComposition struct {
	Adults   []Guest `json:"adults"`
	Children []Guest `json:"children"`
	Babies   []Guest `json:"babies"`
}

// NewGuestComposition returns a composition seeded with a single adult, the
// hard floor for any booking.
func NewGuestComposition() *GuestComposition {
	c := &GuestComposition{}
	c.SetAdultCount(1)
	return c
}

// AdultCount returns the number of adults.
func (c *GuestComposition) AdultCount() int { return len(c.Adults) }

// ChildCount returns the number of children.
func (c *GuestComposition) ChildCount() int { return len(c.Children) }

// BabyCount returns the number of babies.
func (c *GuestComposition) BabyCount() int { return len(c.Babies) }

// SetAdultCount resizes the adult list. The count is clamped to at least 1.
func (c *GuestComposition) SetAdultCount(n int) {
	if n < 1 {
		n = 1
	}
	c.Adults = resize(c.Adults, n, GuestTypeAdult)
}

// SetChildCount resizes the child list. Negative counts clamp to zero.
func (c *GuestComposition) SetChildCount(n int) {
	if n < 0 {
		n = 0
	}
	c.Children = resize(c.Children, n, GuestTypeChild)
}

// SetBabyCount resizes the baby list. Negative counts clamp to zero.
func (c *GuestComposition) SetBabyCount(n int) {
	if n < 0 {
		n = 0
	}
	c.Babies = resize(c.Babies, n, GuestTypeBaby)
}

func resize(guests []Guest, n int, t GuestType) []Guest {
	if n <= len(guests) {
		return guests[:n]
	}
	for len(guests) < n {
		guests = append(guests, Guest{GuestType: t})
	}
	return guests
}

// All returns every guest in composition order: adults, children, babies.
func (c *GuestComposition) All() []Guest {
	out := make([]Guest, 0, len(c.Adults)+len(c.Children)+len(c.Babies))
	out = append(out, c.Adults...)
	out = append(out, c.Children...)
	out = append(out, c.Babies...)
	return out
}

// FieldError names a single validation failure. GuestIndex is positional
// within the guest-type list, or -1 for composition-level failures.
type FieldError struct {
	GuestIndex int       `json:"guest_index"`
	GuestType  GuestType `json:"guest_type,omitempty"`
	Field      string    `json:"field"`
	Message    string    `json:"message"`
}

// ValidationResult aggregates validation failures across all guests.
type ValidationResult struct {
	Errors []FieldError `json:"errors"`
}

// Valid reports whether the validated input passed every rule.
func (r ValidationResult) Valid() bool { return len(r.Errors) == 0 }

func (r ValidationResult) Error() string {
	if len(r.Errors) == 0 {
		return "valid"
	}
	return fmt.Sprintf("%d guest validation failure(s), first: %s %s", len(r.Errors), r.Errors[0].Field, r.Errors[0].Message)
}

// ParseBirthDate parses a birth date under either accepted layout
// (DD/MM/YYYY or YYYY-MM-DD).
func ParseBirthDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayoutSlash, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(dateLayoutISO, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized birth date %q", s)
}

// AgeAt returns the whole-year age of someone born at birth, as of ref.
func AgeAt(birth, ref time.Time) int {
	age := ref.Year() - birth.Year()
	// Birthday not reached yet this year.
	if ref.Month() < birth.Month() ||
		(ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		age--
	}
	return age
}

// ageBandOK checks the whole-year age against the band for the guest type.
func ageBandOK(t GuestType, age int) bool {
	switch t {
	case GuestTypeAdult:
		return age >= adultMinAge
	case GuestTypeChild:
		return age >= childMinAge && age < adultMinAge
	case GuestTypeBaby:
		return age >= 0 && age < childMinAge
	}
	return false
}

// ValidateGuest checks one guest record. Failures carry the guest's
// positional index and type.
func ValidateGuest(g Guest, idx int, now time.Time) []FieldError {
	var errs []FieldError
	fail := func(field, msg string) {
		errs = append(errs, FieldError{GuestIndex: idx, GuestType: g.GuestType, Field: field, Message: msg})
	}

	if len(strings.TrimSpace(g.FullName)) < 2 {
		fail("full_name", "name must be at least 2 characters")
	}
	if strings.TrimSpace(g.Gender) == "" {
		fail("gender", "gender is required")
	}
	if len(strings.TrimSpace(g.Nationality)) < 2 {
		fail("nationality", "nationality must be at least 2 characters")
	}

	birth, err := ParseBirthDate(g.BirthDate)
	if err != nil {
		fail("birth_date", "birth date must be DD/MM/YYYY or YYYY-MM-DD")
		return errs
	}
	if !ageBandOK(g.GuestType, AgeAt(birth, now)) {
		fail("birth_date", fmt.Sprintf("age does not match guest type %s", g.GuestType))
	}
	return errs
}

// ValidateComposition checks the whole composition. Adult, child and baby
// error categories are independent; failures aggregate rather than stopping
// at the first.
func ValidateComposition(c *GuestComposition, now time.Time) ValidationResult {
	var res ValidationResult

	if len(c.Adults) < 1 {
		res.Errors = append(res.Errors, FieldError{
			GuestIndex: -1, Field: "adults", Message: "at least one adult is required",
		})
	}

	for i, g := range c.Adults {
		g.GuestType = GuestTypeAdult
		res.Errors = append(res.Errors, ValidateGuest(g, i, now)...)
	}
	for i, g := range c.Children {
		g.GuestType = GuestTypeChild
		res.Errors = append(res.Errors, ValidateGuest(g, i, now)...)
	}
	for i, g := range c.Babies {
		g.GuestType = GuestTypeBaby
		res.Errors = append(res.Errors, ValidateGuest(g, i, now)...)
	}
	return res
}
