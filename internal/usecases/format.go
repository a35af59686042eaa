package usecases

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"

	"github.com/abelzeko/erfiume-bot/internal/entities"
)

const lastUpdateLayout = "02-01-2006 15:04"

var romeLocation = mustLoadLocation("Europe/Rome")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load location %s: %v", name, err))
	}
	return loc
}

// formatValue prints v in its shortest decimal form, e.g. 2.2 rather than 2.2000000000000002
func formatValue(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// FormatStationInfo renders a station for a chat reply
func FormatStationInfo(st entities.Station) string {
	var result strings.Builder

	result.WriteString(fmt.Sprintf("Stazione: %s\n", st.Name))

	if st.HasValue() {
		value := formatValue(st.Value)
		if emoji := st.Alarm().Emoji(); emoji != "" {
			value += " " + emoji
		}
		result.WriteString(fmt.Sprintf("Valore: %s\n", value))
	} else {
		result.WriteString("Valore: non disponibile\n")
	}

	// Only include thresholds that are known
	if st.ThresholdYellow != entities.UnknownValue {
		result.WriteString(fmt.Sprintf("Soglia Gialla: %s\n", formatValue(st.ThresholdYellow)))
	}
	if st.ThresholdOrange != entities.UnknownValue {
		result.WriteString(fmt.Sprintf("Soglia Arancione: %s\n", formatValue(st.ThresholdOrange)))
	}
	if st.ThresholdRed != entities.UnknownValue {
		result.WriteString(fmt.Sprintf("Soglia Rossa: %s\n", formatValue(st.ThresholdRed)))
	}

	result.WriteString(fmt.Sprintf("Ultimo rilevamento: %s", st.LastUpdate().In(romeLocation).Format(lastUpdateLayout)))

	return result.String()
}

// FormatAlertNotification is the message sent when a station reaches an alert threshold
func FormatAlertNotification(alert entities.Alert, st entities.Station) string {
	return fmt.Sprintf("Avviso soglia: %s ha raggiunto %s (soglia %s).",
		st.Name, formatValue(st.Value), formatValue(alert.Threshold))
}

// FormatAlertList renders a chat's alerts numbered from 1, the numbering
// /rimuovi_avviso accepts.
func FormatAlertList(alerts []entities.Alert, now time.Time, cooldown time.Duration) string {
	if len(alerts) == 0 {
		return "Non hai avvisi attivi."
	}

	lines := make([]string, 0, len(alerts)+1)
	lines = append(lines, "I tuoi avvisi:")
	for i, a := range alerts {
		lines = append(lines, fmt.Sprintf("%d. %s - %s (%s)",
			i+1, a.StationName, formatValue(a.Threshold), FormatAlertStatus(a, now, cooldown)))
	}
	return strings.Join(lines, "\n")
}

// FormatAlertStatus describes whether an alert is armed or how long it stays paused
func FormatAlertStatus(alert entities.Alert, now time.Time, cooldown time.Duration) string {
	if alert.Active {
		return "attivo"
	}

	status := fmt.Sprintf("in pausa (soglia superata: %s)", formatValue(alert.TriggeredValue))
	if alert.TriggeredAt == 0 {
		return status + ", ripristino in attesa"
	}

	remaining := time.UnixMilli(alert.TriggeredAt).Add(cooldown).Sub(now)
	if remaining <= 0 {
		return status + ", ripristino imminente"
	}
	return status + ", ripristino tra " + formatRemaining(remaining)
}

// formatRemaining rounds up to the second and keeps the two largest units
func formatRemaining(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	hours, minutes, seconds := secs/3600, (secs%3600)/60, secs%60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
