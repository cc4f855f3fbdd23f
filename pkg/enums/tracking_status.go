package enums

import "fmt"

// TrackingStatus is the live location status of a patient on an exam day.
type TrackingStatus string

const (
	TrackingStatusWaiting   TrackingStatus = "waiting"
	TrackingStatusInExam    TrackingStatus = "in_exam"
	TrackingStatusMoving    TrackingStatus = "moving"
	TrackingStatusCompleted TrackingStatus = "completed"
)

var validTrackingStatuses = []TrackingStatus{
	TrackingStatusWaiting,
	TrackingStatusInExam,
	TrackingStatusMoving,
	TrackingStatusCompleted,
}

// String implements fmt.Stringer.
func (s TrackingStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TrackingStatus.
func (s TrackingStatus) IsValid() bool {
	for _, candidate := range validTrackingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are legal.
func (s TrackingStatus) IsTerminal() bool {
	return s == TrackingStatusCompleted
}

// ParseTrackingStatus converts raw input into a TrackingStatus.
func ParseTrackingStatus(value string) (TrackingStatus, error) {
	for _, candidate := range validTrackingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tracking status %q", value)
}
