package scheduler

import (
	"fmt"
	"time"

	"cs2-telemetry/internal/domain"
)

// State is the scheduler's position in its polling cycle.
type State int

const (
	// StateIdle means no cycle has run for the active configuration.
	StateIdle State = iota
	// StateFetching means at least one cycle is in flight.
	StateFetching
	// StateSettled means the last applied cycle succeeded.
	StateSettled
	// StateFailed means the last applied cycle failed. Previous data is kept.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{StateIdle, StateFetching, StateSettled, StateFailed} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown scheduler state %q", text)
}

// Status is the health of the scheduler as seen by presenters.
type Status struct {
	State      State         `json:"state"`
	Loading    bool          `json:"loading"`    // no cycle has settled since the last (re)configuration
	Refreshing bool          `json:"refreshing"` // manual refresh indicator
	Error      *string       `json:"error"`      // nil after a successful cycle
	LastUpdate *time.Time    `json:"last_update"`
	Source     domain.Source `json:"source"`
	Filter     domain.Filter `json:"filter"`
	Generation uint64        `json:"generation"`
}
