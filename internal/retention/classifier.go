package retention

import (
	"fmt"
	"time"
)

// State is the lifecycle state of a recording relative to its expiry.
type State string

const (
	StateNever   State = "never"
	StateExpired State = "expired"
	StateActive  State = "active"
)

// Expiry is the classification of a recording's expiry instant at a given
// point in time.
type Expiry struct {
	State State `json:"state"`
	// DaysRemaining is the ceiling of the time left until expiry, in days.
	// Only meaningful when State is StateActive.
	DaysRemaining int `json:"days_remaining,omitempty"`
}

// Classify derives the expiry bucket for a recording from its resolved
// expiry instant and the caller-supplied current time.
func Classify(expiresAt *time.Time, now time.Time) Expiry {
	if expiresAt == nil {
		return Expiry{State: StateNever}
	}
	if !expiresAt.After(now) {
		return Expiry{State: StateExpired}
	}
	remaining := expiresAt.Sub(now)
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return Expiry{State: StateActive, DaysRemaining: days}
}

// Bucket renders the human-facing expiry bucket shown by the dashboard.
func (e Expiry) Bucket() string {
	switch e.State {
	case StateNever:
		return "never"
	case StateExpired:
		return "expired"
	default:
		if e.DaysRemaining == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", e.DaysRemaining)
	}
}
