package schedule

import (
	"time"

	ierr "github.com/flexprice/curbside/internal/errors"
	"github.com/flexprice/curbside/internal/types"
)

// EmitRequest carries everything phase emission needs. Windows are the raw
// seasonal windows, used only to price the stub ahead of the anchor. Timeline
// is the (usually consolidated) slice list derived from the same windows.
type EmitRequest struct {
	Windows           []Window
	Timeline          []Slice
	BaseQuantity      int64
	Reference         time.Time
	Prices            PriceRefs
	ProrationBehavior types.ProrationBehavior

	// Horizon bounds how far past the anchor a slice may start. Zero means unbounded.
	Horizon time.Duration

	// MaxPhases caps the number of phases emitted, tail included. Zero means
	// unbounded; one leaves room for the base-only tail alone.
	MaxPhases int
}

func (r EmitRequest) Validate() error {
	if r.Prices.Base == "" {
		return ierr.NewError("base price is required").
			WithHint("A base price must be configured").
			Mark(ierr.ErrValidation)
	}
	if r.BaseQuantity < 0 {
		return ierr.NewErrorf("base quantity %d is negative", r.BaseQuantity).
			WithHint("Base quantity cannot be negative").
			Mark(ierr.ErrValidation)
	}
	if r.Reference.IsZero() {
		return ierr.NewError("reference time is required").
			WithHint("A reference time is required").
			Mark(ierr.ErrValidation)
	}
	if r.MaxPhases < 0 {
		return ierr.NewErrorf("max phases %d is negative", r.MaxPhases).
			WithHint("Max phases cannot be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// EmitPhases turns a timeline into a gapless phase list that starts at the
// reference time and always ends with an open-ended base-only phase.
func EmitPhases(req EmitRequest) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	windows := ValidWindows(req.Windows)
	ref := req.Reference.UTC()
	anchor := types.MonthStartOnOrAfter(ref)

	phases := make([]Phase, 0, len(req.Timeline)+2)

	// sub-month stub ahead of the anchor
	if anchor.After(ref) {
		phases = append(phases, req.bounded(ref, anchor, countOverlapping(windows, ref, anchor)))
	}

	cursor := anchor
	for _, s := range TrimBefore(req.Timeline, anchor) {
		if s.Start.Before(cursor) {
			continue
		}
		if req.Horizon > 0 && !s.Start.Before(anchor.Add(req.Horizon)) {
			break
		}
		if s.Start.After(cursor) {
			phases = append(phases, req.bounded(cursor, s.Start, 0))
		}
		phases = append(phases, req.bounded(s.Start, s.End, s.ActiveCount))
		cursor = s.End
	}

	phases = append(phases, req.openEnded(cursor))
	phases = ensureOpenEnded(phases, req)
	phases = foldIntoTail(phases)

	plan := &Plan{Anchor: anchor, Phases: phases}
	if req.MaxPhases > 0 && len(plan.Phases) > req.MaxPhases {
		plan.Phases = truncate(plan.Phases, req)
		plan.Truncated = true
	}

	if len(plan.Phases[0].Items) == 0 {
		return nil, ierr.NewError("first phase has no line items").
			WithHint("At least one service address is required").
			WithReportableDetails(map[string]any{
				"base_quantity": req.BaseQuantity,
			}).
			Mark(ierr.ErrNoBillableItems)
	}

	return plan, nil
}

func (r EmitRequest) items(activeCount int) []LineItem {
	items := make([]LineItem, 0, 2)
	if r.BaseQuantity > 0 {
		items = append(items, LineItem{PriceID: r.Prices.Base, Quantity: r.BaseQuantity})
	}
	if activeCount > 0 && r.Prices.Seasonal != "" {
		items = append(items, LineItem{PriceID: r.Prices.Seasonal, Quantity: int64(activeCount)})
	}
	return items
}

func (r EmitRequest) bounded(start, end time.Time, activeCount int) Phase {
	p := Phase{
		Start:             start,
		Items:             r.items(activeCount),
		ProrationBehavior: r.ProrationBehavior,
	}
	setEnd(&p, end)
	return p
}

func (r EmitRequest) openEnded(start time.Time) Phase {
	return Phase{
		Start:             start,
		Items:             r.items(0),
		ProrationBehavior: r.ProrationBehavior,
	}
}

func setEnd(p *Phase, end time.Time) {
	e := end
	p.End = &e
	p.Months = 0
	if months, ok := types.WholeMonths(p.Start, end); ok {
		p.Months = months
	}
}

// ensureOpenEnded is a safety net; the emission loop always appends the tail
func ensureOpenEnded(phases []Phase, req EmitRequest) []Phase {
	last := phases[len(phases)-1]
	if last.IsOpenEnded() {
		return phases
	}
	return append(phases, req.openEnded(*last.End))
}

// foldIntoTail absorbs the bounded phases right before the open-ended tail
// that bill the same items, so base-only runs collapse into one phase. Earlier
// phases keep their boundaries even when neighbours bill the same items.
func foldIntoTail(phases []Phase) []Phase {
	tail := phases[len(phases)-1]
	i := len(phases) - 1
	for i > 0 && phases[i-1].SameItems(tail) {
		i--
	}
	tail.Start = phases[i].Start
	return append(phases[:i:i], tail)
}

// truncate keeps the first MaxPhases-1 phases and replaces the rest with an
// open-ended base-only phase
func truncate(phases []Phase, req EmitRequest) []Phase {
	kept := append([]Phase(nil), phases[:req.MaxPhases-1]...)
	tailStart := phases[0].Start
	if len(kept) > 0 {
		last := kept[len(kept)-1]
		tailStart = last.Start
		if last.End != nil {
			tailStart = *last.End
		}
	}
	kept = append(kept, req.openEnded(tailStart))
	return foldIntoTail(kept)
}
