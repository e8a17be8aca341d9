package types

import (
	"strings"
	"time"

	ierr "github.com/flexprice/curbside/internal/errors"
)

// Address is a service address as entered by the customer
type Address struct {
	Line1      string `json:"line1" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code" validate:"required"`
}

// NormalizedCity is the city as compared against service-area rules
func (a Address) NormalizedCity() string {
	return strings.ToLower(strings.TrimSpace(a.City))
}

// NormalizedZip is the postal code trimmed and cut to its 5-digit prefix
func (a Address) NormalizedZip() string {
	zip := strings.TrimSpace(a.PostalCode)
	if len(zip) > 5 {
		zip = zip[:5]
	}
	return zip
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts a full English weekday name in any case
func ParseWeekday(value string) (time.Weekday, error) {
	day, ok := weekdays[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return time.Sunday, ierr.NewErrorf("unknown weekday %q", value).
			WithHint("Pickup days must be full weekday names such as monday").
			Mark(ierr.ErrValidation)
	}
	return day, nil
}
