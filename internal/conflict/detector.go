package conflict

import (
	"fmt"

	"github.com/oakhill-health/checkup-backend/pkg/config"
	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
)

// CheckInput is everything a single assignment check needs. Callers gather
// the counts and equipment health; the detector itself stays pure so the
// rules are trivially testable.
type CheckInput struct {
	Station models.Station

	// InExam is the count occupying a capacity slot right now. Waiting and
	// Incoming (patients dispatched toward the station but not yet in a
	// slot) feed the near-capacity warning and its message context.
	InExam   int64
	Waiting  int64
	Incoming int64

	// EquipmentWorst is the worst health across the station's active units.
	// Empty means the station has no tracked equipment.
	EquipmentWorst enums.EquipmentHealth

	// Completed holds the station codes the patient has already finished.
	Completed []string
}

// Detector evaluates assignment conflicts in a fixed rule order: capacity,
// equipment, then dependencies.
type Detector struct {
	cfg config.EngineConfig
}

// NewDetector builds a detector with the provided engine tuning.
func NewDetector(cfg config.EngineConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Check runs every rule and returns all findings. Dependency findings are
// advisory only and never block.
func (d *Detector) Check(input CheckInput) []Finding {
	var findings []Finding
	findings = append(findings, d.checkCapacity(input)...)
	findings = append(findings, d.checkEquipment(input)...)
	findings = append(findings, d.checkDependencies(input)...)
	return findings
}

func (d *Detector) checkCapacity(input CheckInput) []Finding {
	capacity := input.Station.Capacity
	if capacity <= 0 {
		capacity = 1
	}

	// Only patients in a slot block; queued and dispatched patients raise
	// the near-capacity warning.
	switch {
	case input.InExam >= int64(capacity):
		return []Finding{{
			Kind:        enums.ConflictKindCapacity,
			Severity:    enums.FindingSeverityBlock,
			StationCode: input.Station.Code,
			Message:     fmt.Sprintf("station %s is full (%d/%d in exam)", input.Station.Code, input.InExam, capacity),
		}}
	case float64(input.Waiting+input.InExam) >= d.cfg.NearCapacityFract*float64(capacity):
		return []Finding{{
			Kind:        enums.ConflictKindCapacity,
			Severity:    enums.FindingSeverityWarn,
			StationCode: input.Station.Code,
			Message: fmt.Sprintf("station %s is near capacity (%d waiting, %d in exam, %d incoming / %d)",
				input.Station.Code, input.Waiting, input.InExam, input.Incoming, capacity),
		}}
	}
	return nil
}

func (d *Detector) checkEquipment(input CheckInput) []Finding {
	switch input.EquipmentWorst {
	case enums.EquipmentHealthBroken:
		return []Finding{{
			Kind:        enums.ConflictKindEquipment,
			Severity:    enums.FindingSeverityBlock,
			StationCode: input.Station.Code,
			Message:     fmt.Sprintf("station %s has broken equipment", input.Station.Code),
		}}
	case enums.EquipmentHealthWarning:
		return []Finding{{
			Kind:        enums.ConflictKindEquipment,
			Severity:    enums.FindingSeverityWarn,
			StationCode: input.Station.Code,
			Message:     fmt.Sprintf("station %s has equipment in warning state", input.Station.Code),
		}}
	}
	return nil
}

func (d *Detector) checkDependencies(input CheckInput) []Finding {
	if len(input.Station.DependsOn) == 0 {
		return nil
	}

	done := make(map[string]struct{}, len(input.Completed))
	for _, code := range input.Completed {
		done[code] = struct{}{}
	}

	var findings []Finding
	for _, dep := range input.Station.DependsOn {
		if _, ok := done[dep]; !ok {
			findings = append(findings, Finding{
				Kind:        enums.ConflictKindDependency,
				Severity:    enums.FindingSeverityWarn,
				StationCode: input.Station.Code,
				Message:     fmt.Sprintf("station %s usually follows %s", input.Station.Code, dep),
			})
		}
	}
	return findings
}
