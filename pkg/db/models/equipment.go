package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oakhill-health/checkup-backend/pkg/enums"
)

// EquipmentUnit is a piece of equipment installed at a station. Health is
// mutated by the equipment feed; the engine only reads it.
type EquipmentUnit struct {
	ID          uuid.UUID             `gorm:"type:uuid;primaryKey"`
	Name        string                `gorm:"type:text;not null"`
	StationCode string                `gorm:"type:text;not null;index"`
	Type        *string               `gorm:"type:text"`
	Health      enums.EquipmentHealth `gorm:"type:text;not null;default:'normal'"`
	Active      bool                  `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EquipmentLog is an append-only record of equipment health changes.
type EquipmentLog struct {
	ID          uuid.UUID             `gorm:"type:uuid;primaryKey"`
	EquipmentID uuid.UUID             `gorm:"type:uuid;not null;index"`
	Action      string                `gorm:"type:text;not null"`
	OldHealth   enums.EquipmentHealth `gorm:"type:text"`
	NewHealth   enums.EquipmentHealth `gorm:"type:text"`
	Note        *string               `gorm:"type:text"`
	ActorID     string                `gorm:"type:text;not null"`
	CreatedAt   time.Time
}
