package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildTimeline_Empty(t *testing.T) {
	assert.Empty(t, BuildTimeline(nil))
	assert.Empty(t, BuildTimeline([]Window{
		{Start: day(2026, 5, 1), End: day(2026, 5, 1)},
		{Start: day(2026, 6, 1), End: day(2026, 5, 1)},
		{End: day(2026, 5, 1)},
	}))
}

func TestBuildTimeline_TilesAndCounts(t *testing.T) {
	tests := []struct {
		name    string
		windows []Window
	}{
		{
			name:    "single window inside one month",
			windows: []Window{{Start: day(2026, 5, 10), End: day(2026, 5, 20)}},
		},
		{
			name: "overlapping windows with mid-month edges",
			windows: []Window{
				{Start: day(2026, 4, 15), End: day(2026, 9, 30)},
				{Start: day(2026, 6, 1), End: day(2026, 7, 12)},
				{Start: day(2026, 6, 1), End: day(2026, 11, 1)},
			},
		},
		{
			name: "disjoint windows across a year boundary",
			windows: []Window{
				{Start: day(2026, 11, 20), End: day(2027, 1, 10)},
				{Start: day(2027, 3, 1), End: day(2027, 5, 1)},
			},
		},
		{
			name: "duplicate windows",
			windows: []Window{
				{Start: day(2026, 5, 1), End: day(2026, 10, 1)},
				{Start: day(2026, 5, 1), End: day(2026, 10, 1)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeline := BuildTimeline(tt.windows)
			require.NotEmpty(t, timeline)

			minStart, maxEnd := tt.windows[0].Start, tt.windows[0].End
			for _, w := range tt.windows {
				if w.Start.Before(minStart) {
					minStart = w.Start
				}
				if w.End.After(maxEnd) {
					maxEnd = w.End
				}
			}

			assert.True(t, timeline[0].Start.Equal(minStart))
			assert.True(t, timeline[len(timeline)-1].End.Equal(maxEnd))

			for i, s := range timeline {
				assert.True(t, s.Start.Before(s.End), "slice %d is empty", i)
				if i > 0 {
					assert.True(t, timeline[i-1].End.Equal(s.Start), "gap or overlap before slice %d", i)
				}

				want := 0
				for _, w := range tt.windows {
					if !w.Start.After(s.Start) && !w.End.Before(s.End) {
						want++
					}
				}
				assert.Equal(t, want, s.ActiveCount, "slice %d", i)
			}
		})
	}
}

func TestBuildTimeline_CutsOnMonthStarts(t *testing.T) {
	timeline := BuildTimeline([]Window{{Start: day(2026, 4, 15), End: day(2026, 7, 1)}})

	require.Len(t, timeline, 3)
	assert.Equal(t, day(2026, 4, 15), timeline[0].Start)
	assert.Equal(t, day(2026, 5, 1), timeline[0].End)
	assert.Equal(t, day(2026, 6, 1), timeline[1].End)
	assert.Equal(t, day(2026, 7, 1), timeline[2].End)
	for _, s := range timeline {
		assert.Equal(t, 1, s.ActiveCount)
	}
}

func TestConsolidate(t *testing.T) {
	timeline := BuildTimeline([]Window{
		{Start: day(2026, 5, 1), End: day(2026, 7, 1)},
		{Start: day(2026, 6, 1), End: day(2026, 9, 1)},
	})
	require.Len(t, timeline, 4)

	merged := Consolidate(timeline)
	require.Len(t, merged, 3)
	assert.Equal(t, Slice{Start: day(2026, 5, 1), End: day(2026, 6, 1), ActiveCount: 1}, merged[0])
	assert.Equal(t, Slice{Start: day(2026, 6, 1), End: day(2026, 7, 1), ActiveCount: 2}, merged[1])
	assert.Equal(t, Slice{Start: day(2026, 7, 1), End: day(2026, 9, 1), ActiveCount: 1}, merged[2])

	assert.Empty(t, Consolidate(nil))
}

func TestTrimBefore(t *testing.T) {
	timeline := []Slice{
		{Start: day(2026, 4, 15), End: day(2026, 5, 1), ActiveCount: 1},
		{Start: day(2026, 5, 1), End: day(2026, 7, 1), ActiveCount: 2},
		{Start: day(2026, 7, 1), End: day(2026, 8, 1), ActiveCount: 1},
	}

	trimmed := TrimBefore(timeline, day(2026, 6, 1))
	require.Len(t, trimmed, 2)
	assert.Equal(t, day(2026, 6, 1), trimmed[0].Start)
	assert.Equal(t, 2, trimmed[0].ActiveCount)
	assert.Equal(t, day(2026, 7, 1), trimmed[1].Start)

	assert.Empty(t, TrimBefore(timeline, day(2026, 8, 1)))
	assert.Len(t, TrimBefore(timeline, day(2026, 1, 1)), 3)
}
