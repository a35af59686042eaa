package entities

import "time"

// ThrottleRecord is the per-identity counter used by the throttle gate
type ThrottleRecord struct {
	ID        int64
	Count     int
	ExpiresAt time.Time
}
