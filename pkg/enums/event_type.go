package enums

// EventType labels engine transition events surfaced to the notification edge.
type EventType string

const (
	EventEscortAssigned     EventType = "escort.assigned"
	EventStationAssigned    EventType = "station.assigned"
	EventPatientArrived     EventType = "patient.arrived"
	EventExamStarted        EventType = "exam.started"
	EventExamCompleted      EventType = "exam.completed"
	EventCheckupCompleted   EventType = "checkup.completed"
	EventEquipmentBrokenHit EventType = "equipment.broken_conflict"
	EventEquipmentReported  EventType = "equipment.reported"
)

// String implements fmt.Stringer.
func (t EventType) String() string {
	return string(t)
}
