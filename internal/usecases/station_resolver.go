package usecases

import (
	"strings"
	"unicode"

	"github.com/xrash/smetrics"
)

// FuzzScoreCutoff is the minimum similarity score (0-100) accepted as a match
const FuzzScoreCutoff = 80

// Match is the outcome of a successful resolution
type Match struct {
	Name  string
	Score int
}

// StationResolver maps free text onto one of a fixed set of station names
type StationResolver struct {
	names      []string
	normalized []string
}

// NewStationResolver builds a resolver over names. The order of names
// decides ties, so callers pass a sorted list.
func NewStationResolver(names []string) *StationResolver {
	normalized := make([]string, len(names))
	for i, n := range names {
		normalized[i] = normalizeStationText(n)
	}
	return &StationResolver{
		names:      names,
		normalized: normalized,
	}
}

// normalizeStationText lower-cases s and drops slashes and whitespace
func normalizeStationText(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

// similarity scores a against b on a 0-100 scale
func similarity(a, b string) int {
	if a == b {
		return 100
	}
	return int(smetrics.JaroWinkler(a, b, 0.7, 4) * 100)
}

// Resolve returns the best scoring station name when it reaches FuzzScoreCutoff.
// Only a strictly greater score replaces the current best, so ties go to the
// earliest name.
func (r *StationResolver) Resolve(text string) (Match, bool) {
	query := normalizeStationText(text)
	if query == "" {
		return Match{}, false
	}

	best := Match{Score: -1}
	for i, candidate := range r.normalized {
		score := similarity(query, candidate)
		if score > best.Score {
			best = Match{Name: r.names[i], Score: score}
		}
	}

	if best.Score < FuzzScoreCutoff {
		return Match{}, false
	}
	return best, true
}
