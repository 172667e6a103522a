// Package quota implements measurement-API quota-error tracking and
// request gating. The API enforces a daily request quota; once it starts
// answering 429, continuing to fire requests only burns more quota, so a
// guard blocks the batch until the error window has drained.
package quota

import (
	"time"
)

// Redis key for shared quota state (counter with window expiry).
const RedisKeyErrorCount = "deckgen:quota:error_count"

// Thresholds for quota decisions.
const (
	// BlockThreshold blocks all requests when this many quota errors
	// were recorded within the window.
	BlockThreshold = 5

	// DefaultWindow is the sliding window over which quota errors count.
	DefaultWindow = time.Minute
)

// State represents the current quota-error state. When Redis backs the
// guard this state is shared across all processes using the same instance.
type State struct {
	// QuotaErrors is the number of 429 responses recorded in the window.
	QuotaErrors int `json:"quota_errors"`

	// WindowEnds is when the current error window expires.
	WindowEnds time.Time `json:"window_ends"`

	// IsHealthy is true while QuotaErrors is below BlockThreshold.
	IsHealthy bool `json:"is_healthy"`
}

// UpdateHealth recomputes IsHealthy from the error count.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.QuotaErrors < BlockThreshold
}

// NeedsBlock reports whether requests should be blocked.
func (s *State) NeedsBlock() bool {
	return s.QuotaErrors >= BlockThreshold
}

// TimeUntilReset returns how long until the error window drains.
// Returns 0 when the window has already passed.
func (s *State) TimeUntilReset() time.Duration {
	d := time.Until(s.WindowEnds)
	if d < 0 {
		return 0
	}
	return d
}
