package escort

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an escort repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveByPatient(ctx context.Context, patientID uuid.UUID, examDate string) (*models.EscortAssignment, error) {
	var assignment models.EscortAssignment
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND exam_date = ? AND active = ?", patientID, examDate, true).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) FindActiveByStaff(ctx context.Context, staffID, examDate string) (*models.EscortAssignment, error) {
	var assignment models.EscortAssignment
	err := r.db.WithContext(ctx).
		Where("staff_id = ? AND exam_date = ? AND active = ?", staffID, examDate, true).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) DeactivateByPatient(ctx context.Context, patientID uuid.UUID, examDate string) error {
	return r.db.WithContext(ctx).
		Model(&models.EscortAssignment{}).
		Where("patient_id = ? AND exam_date = ? AND active = ?", patientID, examDate, true).
		Update("active", false).Error
}

func (r *repository) DeactivateByStaff(ctx context.Context, staffID, examDate string) error {
	return r.db.WithContext(ctx).
		Model(&models.EscortAssignment{}).
		Where("staff_id = ? AND exam_date = ? AND active = ?", staffID, examDate, true).
		Update("active", false).Error
}

func (r *repository) Create(ctx context.Context, assignment *models.EscortAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repository) ListByDate(ctx context.Context, examDate string) ([]models.EscortAssignment, error) {
	var assignments []models.EscortAssignment
	err := r.db.WithContext(ctx).
		Where("exam_date = ? AND active = ?", examDate, true).
		Order("assigned_at ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}
