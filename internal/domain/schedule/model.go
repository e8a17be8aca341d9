package schedule

import (
	"slices"
	"time"

	"github.com/flexprice/curbside/internal/types"
)

// Window is one address's seasonal activation interval, half-open [Start, End)
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether the window is usable. Windows with a non-positive
// start or an end that does not follow the start are dropped by every caller.
func (w Window) Valid() bool {
	return w.Start.Unix() > 0 && w.End.After(w.Start)
}

// Contains reports whether the window is active for all of [start, end)
func (w Window) Contains(start, end time.Time) bool {
	return !w.Start.After(start) && !w.End.Before(end)
}

// Overlaps reports whether the window is active for any part of [start, end)
func (w Window) Overlaps(start, end time.Time) bool {
	return w.Start.Before(end) && w.End.After(start)
}

// Slice is a maximal interval over which the number of active windows is constant
type Slice struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	ActiveCount int       `json:"active_count"`
}

// PriceRefs names the two catalog prices every phase is built from
type PriceRefs struct {
	Base     string `json:"base"`
	Seasonal string `json:"seasonal"`
}

// LineItem is a single priced quantity within a phase
type LineItem struct {
	PriceID  string `json:"price_id"`
	Quantity int64  `json:"quantity"`
}

// Phase is a contiguous billable interval.
// End is nil only for the open-ended trailing phase. Months is set when the
// interval is a whole number of calendar months so the provider can bill it as
// a duration instead of an explicit end date.
type Phase struct {
	Start             time.Time               `json:"start"`
	End               *time.Time              `json:"end,omitempty"`
	Months            int                     `json:"months,omitempty"`
	Items             []LineItem              `json:"items"`
	ProrationBehavior types.ProrationBehavior `json:"proration_behavior"`
}

// IsOpenEnded returns true if the phase has neither an end date nor a duration
func (p Phase) IsOpenEnded() bool {
	return p.End == nil && p.Months == 0
}

// Quantity returns the quantity billed for priceID in this phase, zero when absent
func (p Phase) Quantity(priceID string) int64 {
	for _, item := range p.Items {
		if item.PriceID == priceID {
			return item.Quantity
		}
	}
	return 0
}

// SameItems reports whether both phases bill exactly the same line items
func (p Phase) SameItems(other Phase) bool {
	return slices.Equal(p.Items, other.Items)
}

// Plan is the outcome of phase emission
type Plan struct {
	// Anchor is the first month start at or after the reference time
	Anchor time.Time `json:"anchor"`
	Phases []Phase   `json:"phases"`
	// Truncated is set when phases past the configured ceiling were folded
	// into the open-ended tail
	Truncated bool `json:"truncated"`
}
