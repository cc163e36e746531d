package models

import (
	"strings"
	"time"
)

// Direction is the side of the threshold an alert watches.
type Direction string

const (
	// DirectionUp triggers when the quote rises above the amount.
	DirectionUp Direction = "up"
	// DirectionDown triggers when the quote falls below the amount.
	DirectionDown Direction = "down"
)

// ParseDirection normalizes s and reports whether it names a known direction.
func ParseDirection(s string) (Direction, bool) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case DirectionUp, DirectionDown:
		return d, true
	default:
		return Direction(s), false
	}
}

// AlertRule is a price threshold registered against an instrument code.
type AlertRule struct {
	ID             int64     `json:"id"`
	InstrumentCode int64     `json:"code"`
	Direction      Direction `json:"mode"`
	Amount         int64     `json:"amount"`
	CreatedAt      time.Time `json:"created_at"`
}

// TriggeredAlert is a rule whose condition held for a fetched quote.
type TriggeredAlert struct {
	AlertID        int64     `json:"alert_id"`
	InstrumentCode int64     `json:"code"`
	Name           string    `json:"name"`
	Direction      Direction `json:"mode"`
	AlertAmount    int64     `json:"alert_amount"`
	CurrentAmount  int64     `json:"current_amount"`
}
