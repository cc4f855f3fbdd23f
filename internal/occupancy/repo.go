package occupancy

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
)

// Repository aggregates tracking rows into per-station counts.
type Repository interface {
	CountsByStation(ctx context.Context, examDate string) (map[string]Counts, error)
	WaitingAhead(ctx context.Context, examDate, stationCode string, before time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an occupancy repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type stationCount struct {
	Code  string
	Total int64
}

func (r *repository) CountsByStation(ctx context.Context, examDate string) (map[string]Counts, error) {
	out := make(map[string]Counts)

	grouped := func(column string, statuses []enums.TrackingStatus, apply func(c *Counts, total int64)) error {
		var rows []stationCount
		err := r.db.WithContext(ctx).
			Model(&models.TrackingState{}).
			Select(column+" AS code, COUNT(*) AS total").
			Where("exam_date = ? AND status IN ? AND "+column+" IS NOT NULL", examDate, statuses).
			Group(column).
			Scan(&rows).Error
		if err != nil {
			return err
		}
		for _, row := range rows {
			counts := out[row.Code]
			apply(&counts, row.Total)
			out[row.Code] = counts
		}
		return nil
	}

	waiting := []enums.TrackingStatus{enums.TrackingStatusWaiting}
	inExam := []enums.TrackingStatus{enums.TrackingStatusInExam}
	// A patient mid-exam with a next stop already dispatched is incoming
	// there, same as one walking over.
	incoming := []enums.TrackingStatus{enums.TrackingStatusInExam, enums.TrackingStatusMoving}

	if err := grouped("station_code", waiting, func(c *Counts, total int64) { c.Waiting = total }); err != nil {
		return nil, err
	}
	if err := grouped("station_code", inExam, func(c *Counts, total int64) { c.InExam = total }); err != nil {
		return nil, err
	}
	if err := grouped("next_station_code", incoming, func(c *Counts, total int64) { c.Incoming = total }); err != nil {
		return nil, err
	}
	return out, nil
}

// WaitingAhead counts waiting patients at the station whose state changed
// before the given instant; ties go to the earlier arrival.
func (r *repository) WaitingAhead(ctx context.Context, examDate, stationCode string, before time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TrackingState{}).
		Where("exam_date = ? AND station_code = ? AND status = ? AND updated_at < ?",
			examDate, stationCode, enums.TrackingStatusWaiting, before).
		Count(&count).Error
	return count, err
}
