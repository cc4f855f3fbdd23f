package stats

import (
	"context"

	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
)

// Repository reads the append-only history log.
type Repository interface {
	ListByDate(ctx context.Context, examDate string) ([]models.HistoryEntry, error)
	ListRange(ctx context.Context, fromDate, toDate string) ([]models.HistoryEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a stats repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListByDate(ctx context.Context, examDate string) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := r.db.WithContext(ctx).
		Where("exam_date = ?", examDate).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListRange(ctx context.Context, fromDate, toDate string) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := r.db.WithContext(ctx).
		Where("exam_date >= ? AND exam_date <= ?", fromDate, toDate).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
