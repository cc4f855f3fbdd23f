package recommend

import (
	"sort"
	"time"

	"github.com/oakhill-health/checkup-backend/pkg/config"
	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
)

const baseScore = 100

// candidate is one scorable station with the load and health facts the rules
// read.
type candidate struct {
	station     models.Station
	waiting     int64
	health      enums.EquipmentHealth
	missingDeps int
}

// scoreCandidate runs the rule pipeline for one station. Rules only add and
// subtract; ordering between equal scores is resolved by the caller's sort.
func scoreCandidate(c candidate, now time.Time, cfg config.EngineConfig) (int, []string) {
	score := baseScore
	var reasons []string

	// Queue pressure: empty and short queues get a nudge, long queues a
	// penalty on top of the per-patient weight.
	score -= int(c.waiting) * cfg.WaitingWeight
	switch {
	case c.waiting == 0:
		score += 30
		reasons = append(reasons, "no queue")
	case c.waiting <= 2:
		score += 15
		reasons = append(reasons, "short queue")
	case c.waiting >= 5:
		score -= 20
		reasons = append(reasons, "long queue")
	}

	switch c.health {
	case enums.EquipmentHealthBroken:
		score -= cfg.BrokenPenalty
		reasons = append(reasons, "equipment broken")
	case enums.EquipmentHealthWarning:
		score -= cfg.WarningPenalty
		reasons = append(reasons, "equipment warning")
	}

	if c.missingDeps > 0 {
		score -= cfg.DependencyPenalty * c.missingDeps
		reasons = append(reasons, "prerequisites pending")
	}

	if c.station.FastingPreferred {
		if now.Hour() < cfg.FastingCutoffHour {
			score += cfg.FastingBonus
			reasons = append(reasons, "fasting window open")
		} else {
			score -= cfg.FastingBonus
			reasons = append(reasons, "fasting window passed")
		}
	}

	if c.station.ScheduleLast {
		score -= cfg.ConsultLastPenalty
		reasons = append(reasons, "scheduled last")
	}

	return score, reasons
}

// rank sorts scored stations by score descending, code ascending on ties, so
// identical inputs always produce identical output.
func rank(scored []ScoredStation) {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].StationCode < scored[j].StationCode
	})
}
