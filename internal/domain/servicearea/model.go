package servicearea

import (
	"time"

	"github.com/flexprice/curbside/internal/domain/schedule"
)

// Strategy records which part of the address matched a rule
type Strategy string

const (
	StrategyCity      Strategy = "city"
	StrategyZipPrefix Strategy = "zip_prefix"
)

// Season is a half-open [Start, End) window. Annual seasons repeat on the
// same month and day every year.
type Season struct {
	Start  time.Time
	End    time.Time
	Annual bool
}

// AreaRule matches either by city name or by postal code prefix
type AreaRule struct {
	City         string
	ZipPrefix    string
	BaseDay      time.Weekday
	SecondaryDay *time.Weekday
	Season       *Season
}

// ResolvedRule is the pickup rule an address resolved to
type ResolvedRule struct {
	BaseDay      time.Weekday     `json:"base_day"`
	SecondaryDay *time.Weekday    `json:"secondary_day,omitempty"`
	Season       *schedule.Window `json:"season,omitempty"`
	Strategy     Strategy         `json:"strategy"`

	// City and Zip are the normalized address fields the rule matched against
	City string `json:"city"`
	Zip  string `json:"zip"`
}

// SeasonWindow returns the resolved season when the caller opted into it
func (r *ResolvedRule) SeasonWindow(optedIn bool) (schedule.Window, bool) {
	if r == nil || !optedIn || r.Season == nil || !r.Season.Valid() {
		return schedule.Window{}, false
	}
	return *r.Season, true
}
