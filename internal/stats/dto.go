package stats

// DailyStats is the day's headline numbers, derived from the history log
// only. The live tracking table never feeds statistics.
type DailyStats struct {
	ExamDate          string         `json:"exam_date"`
	Arrivals          int            `json:"arrivals"`
	ExamsStarted      int            `json:"exams_started"`
	ExamsCompleted    int            `json:"exams_completed"`
	CheckupsCompleted int            `json:"checkups_completed"`
	Hourly            []HourlyBucket `json:"hourly"`
}

// HourlyBucket counts actions inside one clinic hour.
type HourlyBucket struct {
	Hour      int `json:"hour"`
	Arrivals  int `json:"arrivals"`
	Starts    int `json:"starts"`
	Completes int `json:"completes"`
}

// StationPerformance summarizes one station's throughput for a day.
type StationPerformance struct {
	StationCode    string  `json:"station_code"`
	ExamsCompleted int     `json:"exams_completed"`
	AvgDurationMin float64 `json:"avg_duration_min"`
}
