package enums

import "fmt"

// TrackingAction names the operation recorded in the history log.
type TrackingAction string

const (
	TrackingActionArrive   TrackingAction = "arrive"
	TrackingActionStart    TrackingAction = "start"
	TrackingActionComplete TrackingAction = "complete"
	TrackingActionAssign   TrackingAction = "assign"
)

var validTrackingActions = []TrackingAction{
	TrackingActionArrive,
	TrackingActionStart,
	TrackingActionComplete,
	TrackingActionAssign,
}

// String implements fmt.Stringer.
func (a TrackingAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known TrackingAction.
func (a TrackingAction) IsValid() bool {
	for _, candidate := range validTrackingActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseTrackingAction converts raw input into a TrackingAction.
func ParseTrackingAction(value string) (TrackingAction, error) {
	for _, candidate := range validTrackingActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tracking action %q", value)
}
