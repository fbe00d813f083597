package strategy

import "SignalSentinel/internal/model"

// ShouldAlert applies the all-selected-must-agree rule: an item alerts only when
// at least one indicator is enabled and every enabled indicator fired.
// triggered lists the enabled indicators that fired.
func ShouldAlert(cfg model.IndicatorConfig, signals model.Signals) (alert bool, triggered []model.Indicator) {
	enabled := cfg.Enabled()
	if len(enabled) == 0 {
		return false, nil
	}
	alert = true
	for _, ind := range enabled {
		if signals.Fired(ind) {
			triggered = append(triggered, ind)
		} else {
			alert = false
		}
	}
	return alert, triggered
}
