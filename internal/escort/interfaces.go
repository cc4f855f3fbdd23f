package escort

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
)

// Repository defines persistence operations for escort assignments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveByPatient(ctx context.Context, patientID uuid.UUID, examDate string) (*models.EscortAssignment, error)
	FindActiveByStaff(ctx context.Context, staffID, examDate string) (*models.EscortAssignment, error)
	DeactivateByPatient(ctx context.Context, patientID uuid.UUID, examDate string) error
	DeactivateByStaff(ctx context.Context, staffID, examDate string) error
	Create(ctx context.Context, assignment *models.EscortAssignment) error
	ListByDate(ctx context.Context, examDate string) ([]models.EscortAssignment, error)
}

// Service coordinates who walks which patient between stations.
type Service interface {
	Assign(ctx context.Context, input AssignInput) (*models.EscortAssignment, error)
	ActiveForPatient(ctx context.Context, patientID uuid.UUID, examDate string) (*models.EscortAssignment, error)
	ActiveForStaff(ctx context.Context, staffID, examDate string) (*models.EscortAssignment, error)
	ListByDate(ctx context.Context, examDate string) ([]models.EscortAssignment, error)
}
