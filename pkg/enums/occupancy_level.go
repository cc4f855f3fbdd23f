package enums

// OccupancyLevel is the informational utilization band shown on dashboards.
// It never enforces anything; capacity enforcement lives in the transition
// and conflict paths.
type OccupancyLevel string

const (
	OccupancyLevelOK      OccupancyLevel = "ok"
	OccupancyLevelWarning OccupancyLevel = "warning"
	OccupancyLevelFull    OccupancyLevel = "full"
)

// String implements fmt.Stringer.
func (l OccupancyLevel) String() string {
	return string(l)
}

// LevelForUtilization maps an in_exam/capacity ratio onto a band.
func LevelForUtilization(utilization, warnThreshold float64) OccupancyLevel {
	switch {
	case utilization >= 1.0:
		return OccupancyLevelFull
	case utilization >= warnThreshold:
		return OccupancyLevelWarning
	default:
		return OccupancyLevelOK
	}
}
