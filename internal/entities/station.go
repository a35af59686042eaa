// Package entities contains the core domain objects for the erfiume bot
package entities

import (
	"errors"
	"strings"
	"time"
)

// UnknownValue marks a reading or threshold the upstream did not provide.
const UnknownValue = -9999.0

// ErrMissingStationName is returned when a station is built without a name.
var ErrMissingStationName = errors.New("station name is required")

// Station is the latest known state of a hydrometric station
type Station struct {
	Name            string  // Station name, unique and used as the primary key
	ID              string  // Upstream station identifier (idstazione)
	Ordering        int     // Display ordering index
	Lon             string  // Longitude as published upstream
	Lat             string  // Latitude as published upstream
	ThresholdYellow float64 // soglia1
	ThresholdOrange float64 // soglia2
	ThresholdRed    float64 // soglia3
	Value           float64 // Last reading, UnknownValue when not available
	Timestamp       int64   // Last reading time in milliseconds since epoch
}

// RawStation carries loosely-typed station fields as they arrive from
// upstream. Nil pointers mean the field was missing or malformed.
type RawStation struct {
	Name            string
	ID              string
	Ordering        *int
	Lon             string
	Lat             string
	ThresholdYellow *float64
	ThresholdOrange *float64
	ThresholdRed    *float64
	Value           *float64
}

// NewStation normalizes a RawStation into a Station observed at timestamp.
// Missing numeric fields become UnknownValue (ordering becomes 0).
func NewStation(raw RawStation, timestamp int64) (Station, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return Station{}, ErrMissingStationName
	}

	st := Station{
		Name:            name,
		ID:              strings.TrimSpace(raw.ID),
		Lon:             raw.Lon,
		Lat:             raw.Lat,
		ThresholdYellow: orUnknown(raw.ThresholdYellow),
		ThresholdOrange: orUnknown(raw.ThresholdOrange),
		ThresholdRed:    orUnknown(raw.ThresholdRed),
		Value:           orUnknown(raw.Value),
		Timestamp:       timestamp,
	}
	if raw.Ordering != nil {
		st.Ordering = *raw.Ordering
	}
	return st, nil
}

func orUnknown(v *float64) float64 {
	if v == nil {
		return UnknownValue
	}
	return *v
}

// HasValue reports whether the station carries a real reading
func (s Station) HasValue() bool {
	return s.Value != UnknownValue
}

// HasThresholds reports whether all three alarm thresholds are known
func (s Station) HasThresholds() bool {
	return s.ThresholdYellow != UnknownValue &&
		s.ThresholdOrange != UnknownValue &&
		s.ThresholdRed != UnknownValue
}

// LastUpdate returns the reading timestamp as a time.Time
func (s Station) LastUpdate() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// WithReading returns a copy of s carrying the given reading
func (s Station) WithReading(r Reading) Station {
	s.Value = r.Value
	s.Timestamp = r.Timestamp
	return s
}

// Reading is a single (timestamp, value) point of a station time series
type Reading struct {
	Timestamp int64   // Milliseconds since epoch
	Value     float64 // UnknownValue when the point carried no value
}
