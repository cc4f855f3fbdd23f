package patients

import (
	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
)

// RosterEntry pairs a booked patient with their live tracking view for the
// day. Patients with no tracking row have not arrived yet.
type RosterEntry struct {
	Patient     models.Patient        `json:"patient"`
	Arrived     bool                  `json:"arrived"`
	Status      *enums.TrackingStatus `json:"status,omitempty"`
	StationCode *string               `json:"station_code,omitempty"`
	NextStation *string               `json:"next_station,omitempty"`
}
