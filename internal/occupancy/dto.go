package occupancy

import (
	"time"

	"github.com/oakhill-health/checkup-backend/pkg/enums"
)

// Counts is the live load of one station for one exam day.
type Counts struct {
	Waiting  int64 `json:"waiting"`
	InExam   int64 `json:"in_exam"`
	Incoming int64 `json:"incoming"`
}

// StationLoad is the dashboard view of one station.
type StationLoad struct {
	Code             string               `json:"code"`
	Name             string               `json:"name"`
	Capacity         int                  `json:"capacity"`
	Waiting          int64                `json:"waiting"`
	InExam           int64                `json:"in_exam"`
	Incoming         int64                `json:"incoming"`
	Utilization      float64              `json:"utilization"`
	Level            enums.OccupancyLevel `json:"level"`
	EstimatedWaitMin int                  `json:"estimated_wait_min"`
}

// Snapshot is the whole floor at a point in time. It is advisory: the commit
// path recounts under the transaction and never trusts this cache.
type Snapshot struct {
	ExamDate    string        `json:"exam_date"`
	GeneratedAt time.Time     `json:"generated_at"`
	Stations    []StationLoad `json:"stations"`
}

// QueuePosition locates one waiting patient inside their station's queue.
type QueuePosition struct {
	StationCode      string `json:"station_code"`
	Position         int64  `json:"position"`
	EstimatedWaitMin int    `json:"estimated_wait_min"`
}
