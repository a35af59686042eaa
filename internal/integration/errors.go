package integration

import (
	"errors"
	"fmt"
)

var (
	errUnexpectedStatus = errors.New("unexpected status code")
	errNoTimeEntry      = errors.New("no time entry in response")
	errInvalidTime      = errors.New("time entry is not an integer")
)

// UpstreamError reports a transport, status or payload failure of the
// telemetry API. It is never retried within a single ingestion pass.
type UpstreamError struct {
	Op         string // latest time, stations or series
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s (%s): status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s (%s): %v", e.Op, e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
