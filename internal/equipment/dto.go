package equipment

import (
	"github.com/google/uuid"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
)

// ReportInput carries one health report from the floor.
type ReportInput struct {
	EquipmentID uuid.UUID
	Health      enums.EquipmentHealth
	Note        *string
	ActorID     string
}

// LogPage is one cursor page of a unit's report trail, newest first.
type LogPage struct {
	Logs       []models.EquipmentLog `json:"logs"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// ReportedEvent is the payload emitted after a committed health change.
type ReportedEvent struct {
	EquipmentID uuid.UUID             `json:"equipment_id"`
	StationCode string                `json:"station_code"`
	OldHealth   enums.EquipmentHealth `json:"old_health"`
	NewHealth   enums.EquipmentHealth `json:"new_health"`
}
