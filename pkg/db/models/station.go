package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/oakhill-health/checkup-backend/pkg/db/types"
)

// Station is an examination point with finite concurrent capacity. DependsOn
// lists station codes that should be completed first; the graph is advisory
// and never hard-blocks an assignment.
type Station struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Code             string           `gorm:"type:text;not null;uniqueIndex"`
	Name             string           `gorm:"type:text;not null"`
	DurationMin      int              `gorm:"not null;default:15"`
	Capacity         int              `gorm:"not null;default:1"`
	Active           bool             `gorm:"not null;default:true"`
	FastingPreferred bool             `gorm:"not null;default:false"`
	ScheduleLast     bool             `gorm:"not null;default:false"`
	DependsOn        dbtypes.CodeList `gorm:"type:text"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
