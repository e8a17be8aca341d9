package compactrule

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/flexprice/curbside/internal/domain/schedule"
	"github.com/flexprice/curbside/internal/domain/servicearea"
)

// Absent marks an optional field that carries no value
const Absent = -1

// Rule is the minimal per-address fact set needed to rebuild the timeline
// later. Keys are abbreviated because provider metadata values are size capped.
type Rule struct {
	City         string `json:"c"`
	Zip          string `json:"z"`
	BaseDay      int    `json:"b"`
	SecondaryDay int    `json:"s"`
	SeasonStart  int64  `json:"ss"`
	SeasonEnd    int64  `json:"se"`
}

// FromResolved projects a resolved rule. Season fields are only written when
// the address opted into the seasonal add-on.
func FromResolved(rule *servicearea.ResolvedRule, optedIn bool) Rule {
	r := Rule{
		City:         rule.City,
		Zip:          rule.Zip,
		BaseDay:      int(rule.BaseDay),
		SecondaryDay: Absent,
		SeasonStart:  Absent,
		SeasonEnd:    Absent,
	}
	if rule.SecondaryDay != nil {
		r.SecondaryDay = int(*rule.SecondaryDay)
	}
	if w, ok := rule.SeasonWindow(optedIn); ok {
		r.SeasonStart = w.Start.Unix()
		r.SeasonEnd = w.End.Unix()
	}
	return r
}

// OptedIn reports whether the rule carries a usable seasonal window
func (r Rule) OptedIn() bool {
	return r.SeasonStart > 0 && r.SeasonEnd > r.SeasonStart
}

// Window returns the stored seasonal window
func (r Rule) Window() (schedule.Window, bool) {
	if !r.OptedIn() {
		return schedule.Window{}, false
	}
	return schedule.Window{
		Start: time.Unix(r.SeasonStart, 0).UTC(),
		End:   time.Unix(r.SeasonEnd, 0).UTC(),
	}, true
}

// UnmarshalJSON accepts numeric fields encoded either as numbers or as strings
func (r *Rule) UnmarshalJSON(data []byte) error {
	raw := struct {
		City         string  `json:"c"`
		Zip          string  `json:"z"`
		BaseDay      flexInt `json:"b"`
		SecondaryDay flexInt `json:"s"`
		SeasonStart  flexInt `json:"ss"`
		SeasonEnd    flexInt `json:"se"`
	}{
		SecondaryDay: Absent,
		SeasonStart:  Absent,
		SeasonEnd:    Absent,
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Rule{
		City:         raw.City,
		Zip:          raw.Zip,
		BaseDay:      int(raw.BaseDay),
		SecondaryDay: int(raw.SecondaryDay),
		SeasonStart:  int64(raw.SeasonStart),
		SeasonEnd:    int64(raw.SeasonEnd),
	}
	return nil
}

type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		*f = Absent
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = flexInt(n)
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}
