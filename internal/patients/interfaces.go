package patients

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
)

// Repository defines persistence operations for patient records. The record
// system of record lives elsewhere; this table is the engine's local copy.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Patient, error)
	FindByChartNo(ctx context.Context, chartNo string) (*models.Patient, error)
	ListByExamDate(ctx context.Context, examDate string) ([]models.Patient, error)
	Create(ctx context.Context, patient *models.Patient) (*models.Patient, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
}

// Service exposes patient reads for the API surface.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Patient, error)
	GetByChartNo(ctx context.Context, chartNo string) (*models.Patient, error)
	Roster(ctx context.Context, examDate string) ([]RosterEntry, error)
}
