package tracking

import "github.com/oakhill-health/checkup-backend/pkg/enums"

// transitions is the legal state machine for report actions. Assignment does
// not change status and is handled separately; completion may land on
// completed instead of moving when the exam package is covered.
var transitions = map[enums.TrackingStatus]map[enums.TrackingAction]enums.TrackingStatus{
	enums.TrackingStatusWaiting: {
		enums.TrackingActionStart: enums.TrackingStatusInExam,
	},
	enums.TrackingStatusInExam: {
		enums.TrackingActionComplete: enums.TrackingStatusMoving,
	},
	enums.TrackingStatusMoving: {
		enums.TrackingActionArrive: enums.TrackingStatusWaiting,
	},
}

// NextStatus resolves the target status for an action from the current
// status. ok is false when the transition is not legal.
func NextStatus(status enums.TrackingStatus, action enums.TrackingAction) (enums.TrackingStatus, bool) {
	byAction, ok := transitions[status]
	if !ok {
		return "", false
	}
	next, ok := byAction[action]
	return next, ok
}
