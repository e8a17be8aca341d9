package servicearea

import (
	"strings"

	"github.com/flexprice/curbside/internal/clock"
	"github.com/flexprice/curbside/internal/config"
	"github.com/flexprice/curbside/internal/domain/schedule"
	ierr "github.com/flexprice/curbside/internal/errors"
	"github.com/flexprice/curbside/internal/types"
	"github.com/samber/lo"
)

// Resolver maps addresses onto a static, read-only rule table
type Resolver struct {
	rules []AreaRule
	clock clock.Clock
}

func NewResolver(rules []AreaRule, c clock.Clock) *Resolver {
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Resolver{
		rules: append([]AreaRule(nil), rules...),
		clock: c,
	}
}

// NewResolverFromConfig builds the rule table from the service_area config section
func NewResolverFromConfig(cfg *config.Configuration, c clock.Clock) (*Resolver, error) {
	rules, err := RulesFromConfig(cfg.ServiceArea.Rules)
	if err != nil {
		return nil, err
	}
	return NewResolver(rules, c), nil
}

// Resolve returns the rule for addr. A city match always wins; otherwise the
// longest matching postal code prefix wins. ok is false outside the service area.
func (r *Resolver) Resolve(addr types.Address) (*ResolvedRule, bool) {
	city := addr.NormalizedCity()
	zip := addr.NormalizedZip()

	var match *AreaRule
	strategy := StrategyCity
	if city != "" {
		for i := range r.rules {
			if r.rules[i].City != "" && strings.EqualFold(strings.TrimSpace(r.rules[i].City), city) {
				match = &r.rules[i]
				break
			}
		}
	}

	if match == nil && zip != "" {
		strategy = StrategyZipPrefix
		for i := range r.rules {
			prefix := strings.TrimSpace(r.rules[i].ZipPrefix)
			if prefix == "" || !strings.HasPrefix(zip, prefix) {
				continue
			}
			if match == nil || len(prefix) > len(strings.TrimSpace(match.ZipPrefix)) {
				match = &r.rules[i]
			}
		}
	}

	if match == nil {
		return nil, false
	}

	return &ResolvedRule{
		BaseDay:      match.BaseDay,
		SecondaryDay: match.SecondaryDay,
		Season:       r.seasonWindow(match.Season),
		Strategy:     strategy,
		City:         city,
		Zip:          zip,
	}, true
}

// ResolveAll resolves a batch. Any miss fails the whole batch with an
// UnresolvedAddress error listing every failing input index.
func (r *Resolver) ResolveAll(addrs []types.Address) ([]*ResolvedRule, error) {
	resolved := make([]*ResolvedRule, len(addrs))
	var failed []int
	for i, addr := range addrs {
		rule, ok := r.Resolve(addr)
		if !ok {
			failed = append(failed, i)
			continue
		}
		resolved[i] = rule
	}

	if len(failed) > 0 {
		return nil, ierr.NewErrorf("%d of %d addresses are outside the service area", len(failed), len(addrs)).
			WithHint("One or more addresses are outside our service area").
			WithReportableDetails(map[string]any{
				"indexes": failed,
			}).
			Mark(ierr.ErrUnresolvedAddress)
	}
	return resolved, nil
}

// seasonWindow projects an annual season onto the first occurrence that has not ended yet
func (r *Resolver) seasonWindow(season *Season) *schedule.Window {
	if season == nil {
		return nil
	}

	w := schedule.Window{Start: season.Start, End: season.End}
	if !w.Valid() {
		return nil
	}

	if season.Annual {
		now := r.clock.Now()
		for years := 1; !w.End.After(now); years++ {
			w = schedule.Window{
				Start: season.Start.AddDate(years, 0, 0),
				End:   season.End.AddDate(years, 0, 0),
			}
		}
	}
	return &w
}

// RulesFromConfig parses the configured rule table. Season end dates are
// inclusive in config and become exclusive instants here.
func RulesFromConfig(cfgRules []config.AreaRuleConfig) ([]AreaRule, error) {
	rules := make([]AreaRule, 0, len(cfgRules))
	for i, c := range cfgRules {
		baseDay, err := types.ParseWeekday(c.BaseDay)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHintf("Service area rule %d has an invalid base day", i).
				Mark(ierr.ErrValidation)
		}

		rule := AreaRule{
			City:      strings.ToLower(strings.TrimSpace(c.City)),
			ZipPrefix: strings.TrimSpace(c.ZipPrefix),
			BaseDay:   baseDay,
		}

		if c.SecondaryDay != "" {
			secondary, err := types.ParseWeekday(c.SecondaryDay)
			if err != nil {
				return nil, ierr.WithError(err).
					WithHintf("Service area rule %d has an invalid secondary day", i).
					Mark(ierr.ErrValidation)
			}
			rule.SecondaryDay = lo.ToPtr(secondary)
		}

		if c.Season != nil {
			season, err := seasonFromConfig(c.Season)
			if err != nil {
				return nil, ierr.WithError(err).
					WithHintf("Service area rule %d has an invalid season", i).
					Mark(ierr.ErrValidation)
			}
			rule.Season = season
		}

		rules = append(rules, rule)
	}
	return rules, nil
}

func seasonFromConfig(c *config.SeasonConfig) (*Season, error) {
	start, err := types.ParseDate(c.Start)
	if err != nil {
		return nil, err
	}
	lastDay, err := types.ParseDate(c.End)
	if err != nil {
		return nil, err
	}
	end := lastDay.AddDate(0, 0, 1)
	if !end.After(start) {
		return nil, ierr.NewErrorf("season end %s precedes start %s", c.End, c.Start).
			Mark(ierr.ErrValidation)
	}
	return &Season{Start: start, End: end, Annual: c.Annual}, nil
}
