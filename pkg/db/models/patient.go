package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/oakhill-health/checkup-backend/pkg/db/types"
)

// Patient is the facility's view of a person booked for a checkup day. The
// record system owns patients; the engine only references them and reads the
// exam package to decide when the checkup is complete.
type Patient struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey"`
	ChartNo     string           `gorm:"type:text;not null;uniqueIndex"`
	FullName    string           `gorm:"type:text;not null"`
	ExamDate    string           `gorm:"not null;index"`
	ExamPackage dbtypes.CodeList `gorm:"type:text;not null"`
	Active      bool             `gorm:"not null;default:true"`
	Completed   bool             `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
