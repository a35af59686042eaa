package entities

import "time"

const (
	// MaxAlertsPerChat caps the active subscriptions of a single chat.
	MaxAlertsPerChat = 3

	// DefaultAlertCooldown is how long a fired alert stays paused.
	DefaultAlertCooldown = 24 * time.Hour
)

// Alert is a chat's subscription to a station crossing a threshold.
// A chat has at most one alert per station.
type Alert struct {
	StationName string
	ChatID      int64
	Threshold   float64
	CreatedAt   int64 // seconds since epoch

	// Active is false while the alert is paused after firing
	Active         bool
	TriggeredAt    int64   // milliseconds since epoch, 0 when never fired
	TriggeredValue float64 // reading that fired the alert
}

// Reached reports whether the station reading meets the alert threshold
func (a Alert) Reached(st Station) bool {
	return st.HasValue() && st.Value >= a.Threshold
}
