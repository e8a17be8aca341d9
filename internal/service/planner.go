package service

import (
	"time"

	"github.com/flexprice/curbside/internal/api/dto"
	"github.com/flexprice/curbside/internal/config"
	"github.com/flexprice/curbside/internal/domain/compactrule"
	"github.com/flexprice/curbside/internal/domain/schedule"
	"github.com/flexprice/curbside/internal/domain/servicearea"
	"github.com/samber/lo"
)

// phasePlanner is the one timeline pipeline shared by signup and reconciliation.
// Callers differ only in where their windows come from.
type phasePlanner struct {
	cfg config.BillingConfig
}

func newPhasePlanner(cfg config.BillingConfig) phasePlanner {
	return phasePlanner{cfg: cfg}
}

func (p phasePlanner) prices() schedule.PriceRefs {
	return schedule.PriceRefs{
		Base:     p.cfg.BasePriceID,
		Seasonal: p.cfg.SeasonalPriceID,
	}
}

func (p phasePlanner) plan(windows []schedule.Window, baseQuantity int64, ref time.Time, horizon time.Duration, maxPhases int) (*schedule.Plan, error) {
	return schedule.EmitPhases(schedule.EmitRequest{
		Windows:           windows,
		Timeline:          schedule.Consolidate(schedule.BuildTimeline(windows)),
		BaseQuantity:      baseQuantity,
		Reference:         ref,
		Prices:            p.prices(),
		ProrationBehavior: p.cfg.ProrationBehavior,
		Horizon:           horizon,
		MaxPhases:         maxPhases,
	})
}

// windowsFromSelections takes the live season of every address whose add-on was selected
func windowsFromSelections(rules []*servicearea.ResolvedRule, selections []dto.AddressSelection) []schedule.Window {
	var windows []schedule.Window
	for i, rule := range rules {
		if w, ok := rule.SeasonWindow(selections[i].Seasonal); ok {
			windows = append(windows, w)
		}
	}
	return windows
}

// windowsFromCompactRules uses the stored epochs so later rule table edits do not leak in
func windowsFromCompactRules(rules []compactrule.Rule) []schedule.Window {
	return lo.FilterMap(rules, func(r compactrule.Rule, _ int) (schedule.Window, bool) {
		return r.Window()
	})
}
