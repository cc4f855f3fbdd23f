package patients

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a patient repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&patient).Error
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *repository) FindByChartNo(ctx context.Context, chartNo string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.WithContext(ctx).
		Where("chart_no = ?", chartNo).
		First(&patient).Error
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *repository) ListByExamDate(ctx context.Context, examDate string) ([]models.Patient, error) {
	var patients []models.Patient
	err := r.db.WithContext(ctx).
		Where("exam_date = ? AND active = ?", examDate, true).
		Order("chart_no ASC").
		Find(&patients).Error
	if err != nil {
		return nil, err
	}
	return patients, nil
}

func (r *repository) Create(ctx context.Context, patient *models.Patient) (*models.Patient, error) {
	if err := r.db.WithContext(ctx).Create(patient).Error; err != nil {
		return nil, err
	}
	return patient, nil
}

func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Patient{}).
		Where("id = ?", id).
		Update("completed", true).Error
}
