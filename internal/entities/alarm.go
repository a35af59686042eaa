package entities

// AlarmLevel classifies a reading against the station thresholds
type AlarmLevel int

const (
	AlarmNone AlarmLevel = iota
	AlarmGreen
	AlarmYellow
	AlarmOrange
	AlarmRed
)

// Alarm partitions the reading into half-open intervals:
// (-inf, yellow] green, (yellow, orange] yellow, (orange, red] orange,
// (red, +inf) red. Unknown readings or thresholds yield AlarmNone.
func (s Station) Alarm() AlarmLevel {
	if !s.HasValue() || !s.HasThresholds() {
		return AlarmNone
	}
	switch v := s.Value; {
	case v <= s.ThresholdYellow:
		return AlarmGreen
	case v <= s.ThresholdOrange:
		return AlarmYellow
	case v <= s.ThresholdRed:
		return AlarmOrange
	default:
		return AlarmRed
	}
}

// Emoji returns the marker shown next to a value
func (a AlarmLevel) Emoji() string {
	switch a {
	case AlarmGreen:
		return "🟢"
	case AlarmYellow:
		return "🟡"
	case AlarmOrange:
		return "🟠"
	case AlarmRed:
		return "🔴"
	default:
		return ""
	}
}
