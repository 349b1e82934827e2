package enums

import "fmt"

// SessionStatus tracks a punchout session through its lifecycle.
type SessionStatus string

const (
	SessionStatusNew       SessionStatus = "new"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusError     SessionStatus = "error"
)

var validSessionStatuses = []SessionStatus{
	SessionStatusNew,
	SessionStatusActive,
	SessionStatusCompleted,
	SessionStatusError,
}

// String implements fmt.Stringer.
func (s SessionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SessionStatus.
func (s SessionStatus) IsValid() bool {
	for _, candidate := range validSessionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
// Sessions only ever move forward: new -> active -> completed, with error
// reachable from any non-terminal state.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionStatusNew:
		return next == SessionStatusActive || next == SessionStatusError
	case SessionStatusActive:
		return next == SessionStatusCompleted || next == SessionStatusError
	default:
		return false
	}
}

// ParseSessionStatus converts raw input into a SessionStatus.
func ParseSessionStatus(value string) (SessionStatus, error) {
	for _, candidate := range validSessionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid session status %q", value)
}
