package schedule

import (
	"slices"
	"time"

	"github.com/flexprice/curbside/internal/types"
	"github.com/samber/lo"
)

// ValidWindows drops windows that cannot bill anything
func ValidWindows(windows []Window) []Window {
	return lo.Filter(windows, func(w Window, _ int) bool {
		return w.Valid()
	})
}

// BuildTimeline cuts [min start, max end) on every window edge and every month
// start inside it, and counts the windows active over each resulting slice.
// Invalid windows are ignored. No windows means no slices.
func BuildTimeline(windows []Window) []Slice {
	windows = ValidWindows(windows)
	if len(windows) == 0 {
		return nil
	}

	minStart := windows[0].Start
	maxEnd := windows[0].End
	boundaries := make([]time.Time, 0, len(windows)*2)
	for _, w := range windows {
		if w.Start.Before(minStart) {
			minStart = w.Start
		}
		if w.End.After(maxEnd) {
			maxEnd = w.End
		}
		boundaries = append(boundaries, w.Start.UTC(), w.End.UTC())
	}
	boundaries = append(boundaries, types.MonthStartsBetween(minStart, maxEnd)...)

	slices.SortFunc(boundaries, func(a, b time.Time) int {
		return a.Compare(b)
	})
	boundaries = slices.CompactFunc(boundaries, func(a, b time.Time) bool {
		return a.Equal(b)
	})

	timeline := make([]Slice, 0, len(boundaries))
	for i := 0; i+1 < len(boundaries); i++ {
		start, end := boundaries[i], boundaries[i+1]
		if !start.Before(end) {
			continue
		}
		timeline = append(timeline, Slice{
			Start:       start,
			End:         end,
			ActiveCount: countContaining(windows, start, end),
		})
	}
	return timeline
}

// Consolidate merges contiguous neighbours that carry the same active count
func Consolidate(timeline []Slice) []Slice {
	if len(timeline) == 0 {
		return nil
	}

	merged := make([]Slice, 0, len(timeline))
	merged = append(merged, timeline[0])
	for _, s := range timeline[1:] {
		last := &merged[len(merged)-1]
		if last.ActiveCount == s.ActiveCount && last.End.Equal(s.Start) {
			last.End = s.End
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// TrimBefore drops slices that end at or before anchor and clips a slice that
// straddles it so the timeline starts no earlier than anchor
func TrimBefore(timeline []Slice, anchor time.Time) []Slice {
	trimmed := make([]Slice, 0, len(timeline))
	for _, s := range timeline {
		if !s.End.After(anchor) {
			continue
		}
		if s.Start.Before(anchor) {
			s.Start = anchor
		}
		trimmed = append(trimmed, s)
	}
	return trimmed
}

func countContaining(windows []Window, start, end time.Time) int {
	return lo.CountBy(windows, func(w Window) bool {
		return w.Contains(start, end)
	})
}

func countOverlapping(windows []Window, start, end time.Time) int {
	return lo.CountBy(windows, func(w Window) bool {
		return w.Overlaps(start, end)
	})
}
