package integration

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// flexNumber accepts a JSON number, a numeric string or null. Anything it
// cannot read is kept as "not valid" instead of failing the whole payload.
type flexNumber struct {
	value decimal.Decimal
	valid bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	n.value = d
	n.valid = true
	return nil
}

func (n flexNumber) floatPtr() *float64 {
	if !n.valid {
		return nil
	}
	f := n.value.InexactFloat64()
	return &f
}

func (n flexNumber) intPtr() *int {
	if !n.valid || !n.value.IsInteger() {
		return nil
	}
	i := int(n.value.IntPart())
	return &i
}

func (n flexNumber) int64() (int64, bool) {
	if !n.valid || !n.value.IsInteger() {
		return 0, false
	}
	return n.value.IntPart(), true
}

// flexString accepts a JSON string or a bare number and keeps its text.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	*s = flexString(b)
	return nil
}

// stationEntry is one element of the sensor values array that describes a station
type stationEntry struct {
	IDStazione  flexString `json:"idstazione"`
	Ordinamento flexNumber `json:"ordinamento"`
	NomeStaz    flexString `json:"nomestaz"`
	Lon         flexString `json:"lon"`
	Lat         flexString `json:"lat"`
	Soglia1     flexNumber `json:"soglia1"`
	Soglia2     flexNumber `json:"soglia2"`
	Soglia3     flexNumber `json:"soglia3"`
	Value       flexNumber `json:"value"`
}

// seriesEntry is one point of the time series endpoint
type seriesEntry struct {
	T flexNumber `json:"t"`
	V flexNumber `json:"v"`
}

// splitEntries decodes a JSON array of objects, separating the watermark
// marker entries (those carrying a "time" key) from the station entries.
func splitEntries(body []byte) (markers []flexNumber, stations []json.RawMessage, err error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, nil, err
	}

	for _, raw := range entries {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(raw, &probe); err != nil {
			// Not an object, nothing usable in it.
			continue
		}
		if t, ok := probe["time"]; ok {
			var marker flexNumber
			_ = marker.UnmarshalJSON(t)
			markers = append(markers, marker)
			continue
		}
		stations = append(stations, raw)
	}
	return markers, stations, nil
}
