// Package alert evaluates price threshold rules against a quote.
package alert

import (
	"kabuka-watcher/internal/models"
)

// Triggered reports whether rule fires for quote. An "up" rule fires above
// its amount; every other direction is compared as "down". Equality never
// fires.
func Triggered(quote int64, rule models.AlertRule) bool {
	switch rule.Direction {
	case models.DirectionUp:
		return quote > rule.Amount
	default:
		return quote < rule.Amount
	}
}

// Evaluate returns the rules that fire for quote, in input order, tagged
// with the instrument name and the quote.
func Evaluate(quote int64, name string, rules []models.AlertRule) []models.TriggeredAlert {
	triggered := make([]models.TriggeredAlert, 0, len(rules))
	for _, rule := range rules {
		if !Triggered(quote, rule) {
			continue
		}
		triggered = append(triggered, models.TriggeredAlert{
			AlertID:        rule.ID,
			InstrumentCode: rule.InstrumentCode,
			Name:           name,
			Direction:      rule.Direction,
			AlertAmount:    rule.Amount,
			CurrentAmount:  quote,
		})
	}
	return triggered
}
