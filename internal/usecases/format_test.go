package usecases

import (
	"testing"
	"time"

	"github.com/abelzeko/erfiume-bot/internal/entities"
)

func testStation(value float64) entities.Station {
	return entities.Station{
		Name:            "Cesena",
		ID:              "/id/",
		Ordering:        1,
		Lon:             "lon",
		Lat:             "lat",
		ThresholdYellow: 1.0,
		ThresholdOrange: 2.0,
		ThresholdRed:    3.0,
		Value:           value,
		Timestamp:       1729454542656,
	}
}

func TestFormatStationInfo(t *testing.T) {
	got := FormatStationInfo(testStation(2.2))
	want := "Stazione: Cesena\nValore: 2.2 🟠\nSoglia Gialla: 1\nSoglia Arancione: 2\nSoglia Rossa: 3\nUltimo rilevamento: 20-10-2024 22:02"
	if got != want {
		t.Errorf("Unexpected message:\n got: %q\nwant: %q", got, want)
	}
}

func TestFormatStationInfoUnknownValue(t *testing.T) {
	got := FormatStationInfo(testStation(entities.UnknownValue))
	want := "Stazione: Cesena\nValore: non disponibile\nSoglia Gialla: 1\nSoglia Arancione: 2\nSoglia Rossa: 3\nUltimo rilevamento: 20-10-2024 22:02"
	if got != want {
		t.Errorf("Unexpected message:\n got: %q\nwant: %q", got, want)
	}
}

func TestFormatStationInfoUnknownThreshold(t *testing.T) {
	st := testStation(5)
	st.ThresholdOrange = entities.UnknownValue

	got := FormatStationInfo(st)
	want := "Stazione: Cesena\nValore: 5\nSoglia Gialla: 1\nSoglia Rossa: 3\nUltimo rilevamento: 20-10-2024 22:02"
	if got != want {
		t.Errorf("Unexpected message:\n got: %q\nwant: %q", got, want)
	}
}

func TestFormatStationInfoAlarmColours(t *testing.T) {
	tests := []struct {
		value float64
		emoji string
	}{
		{0.5, "🟢"},
		{1.0, "🟢"},
		{1.5, "🟡"},
		{2.0, "🟡"},
		{3.0, "🟠"},
		{3.1, "🔴"},
	}
	for _, tt := range tests {
		st := testStation(tt.value)
		if got := st.Alarm().Emoji(); got != tt.emoji {
			t.Errorf("Value %v: expected %s, got %s", tt.value, tt.emoji, got)
		}
	}
}

func TestFormatAlertNotification(t *testing.T) {
	got := FormatAlertNotification(entities.Alert{Threshold: 2.5}, testStation(3.2))
	want := "Avviso soglia: Cesena ha raggiunto 3.2 (soglia 2.5)."
	if got != want {
		t.Errorf("Unexpected message:\n got: %q\nwant: %q", got, want)
	}
}

func TestFormatAlertStatus(t *testing.T) {
	day := 24 * time.Hour
	now := time.UnixMilli(day.Milliseconds() + 1)

	tests := []struct {
		name  string
		alert entities.Alert
		want  string
	}{
		{"active", entities.Alert{Active: true}, "attivo"},
		{"imminent", entities.Alert{TriggeredAt: 1, TriggeredValue: 2.5}, "in pausa (soglia superata: 2.5), ripristino imminente"},
		{"hours", entities.Alert{TriggeredAt: now.Add(-time.Hour).UnixMilli(), TriggeredValue: 3}, "in pausa (soglia superata: 3), ripristino tra 23h 0m"},
		{"minutes", entities.Alert{TriggeredAt: now.Add(-day + 90*time.Second).UnixMilli(), TriggeredValue: 3}, "in pausa (soglia superata: 3), ripristino tra 1m"},
		{"seconds", entities.Alert{TriggeredAt: now.Add(-day + 500*time.Millisecond).UnixMilli(), TriggeredValue: 3}, "in pausa (soglia superata: 3), ripristino tra 1s"},
		{"never fired", entities.Alert{TriggeredValue: 3}, "in pausa (soglia superata: 3), ripristino in attesa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAlertStatus(tt.alert, now, day); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatAlertList(t *testing.T) {
	now := time.UnixMilli(0)
	if got := FormatAlertList(nil, now, time.Hour); got != "Non hai avvisi attivi." {
		t.Errorf("Unexpected empty list %q", got)
	}

	got := FormatAlertList([]entities.Alert{
		{StationName: "Cesena", Threshold: 2.5, Active: true},
		{StationName: "S. Carlo", Threshold: 1, TriggeredAt: 1, TriggeredValue: 1.2},
	}, now, time.Hour)
	want := "I tuoi avvisi:\n1. Cesena - 2.5 (attivo)\n2. S. Carlo - 1 (in pausa (soglia superata: 1.2), ripristino tra 1h 0m)"
	if got != want {
		t.Errorf("Unexpected list:\n got: %q\nwant: %q", got, want)
	}
}
