package conflict

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oakhill-health/checkup-backend/pkg/config"
	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	dbtypes "github.com/oakhill-health/checkup-backend/pkg/db/types"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
)

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{NearCapacityFract: 0.80}
}

func TestCapacityBlocksOnInExamOnly(t *testing.T) {
	d := NewDetector(testEngineConfig())

	// Dispatched patients have not taken a slot yet and must not block.
	findings := d.Check(CheckInput{
		Station:  models.Station{Code: "XRAY", Capacity: 2},
		InExam:   0,
		Incoming: 2,
	})
	require.False(t, HasBlock(findings))

	findings = d.Check(CheckInput{
		Station: models.Station{Code: "XRAY", Capacity: 2},
		InExam:  2,
	})
	require.True(t, HasBlock(findings))
	require.Equal(t, enums.ConflictKindCapacity, findings[0].Kind)
	require.Equal(t, enums.FindingSeverityBlock, findings[0].Severity)
}

func TestCapacityWarnCountsQueue(t *testing.T) {
	d := NewDetector(testEngineConfig())

	findings := d.Check(CheckInput{
		Station: models.Station{Code: "US", Capacity: 5},
		Waiting: 3,
		InExam:  1,
	})

	require.False(t, HasBlock(findings))
	require.Len(t, findings, 1)
	require.Equal(t, enums.ConflictKindCapacity, findings[0].Kind)
	require.Equal(t, enums.FindingSeverityWarn, findings[0].Severity)
}

func TestCapacityNearWarns(t *testing.T) {
	d := NewDetector(testEngineConfig())

	findings := d.Check(CheckInput{
		Station: models.Station{Code: "BLOOD", Capacity: 5},
		InExam:  4,
	})

	require.False(t, HasBlock(findings))
	require.Len(t, findings, 1)
	require.Equal(t, enums.FindingSeverityWarn, findings[0].Severity)
	require.Equal(t, enums.ConflictKindCapacity, findings[0].Kind)
}

func TestBrokenEquipmentBlocks(t *testing.T) {
	d := NewDetector(testEngineConfig())

	findings := d.Check(CheckInput{
		Station:        models.Station{Code: "MRI", Capacity: 1},
		EquipmentWorst: enums.EquipmentHealthBroken,
	})

	require.True(t, HasBlock(findings))
	require.Equal(t, enums.ConflictKindEquipment, findings[0].Kind)
}

func TestEquipmentWarningOnlyWarns(t *testing.T) {
	d := NewDetector(testEngineConfig())

	findings := d.Check(CheckInput{
		Station:        models.Station{Code: "US", Capacity: 3},
		EquipmentWorst: enums.EquipmentHealthWarning,
	})

	require.False(t, HasBlock(findings))
	require.Len(t, findings, 1)
	require.Equal(t, enums.ConflictKindEquipment, findings[0].Kind)
}

func TestDependenciesNeverBlock(t *testing.T) {
	d := NewDetector(testEngineConfig())

	station := models.Station{
		Code:      "ENDO",
		Capacity:  2,
		DependsOn: dbtypes.CodeList{"BLOOD"},
	}

	findings := d.Check(CheckInput{Station: station})
	require.False(t, HasBlock(findings))
	require.Len(t, findings, 1)
	require.Equal(t, enums.ConflictKindDependency, findings[0].Kind)
	require.Equal(t, enums.FindingSeverityWarn, findings[0].Severity)

	findings = d.Check(CheckInput{Station: station, Completed: []string{"BLOOD"}})
	require.Empty(t, findings)
}

func TestRuleOrderCapacityFirst(t *testing.T) {
	d := NewDetector(testEngineConfig())

	findings := d.Check(CheckInput{
		Station:        models.Station{Code: "CT", Capacity: 1, DependsOn: dbtypes.CodeList{"BLOOD", "US"}},
		InExam:         1,
		EquipmentWorst: enums.EquipmentHealthBroken,
	})

	require.Len(t, findings, 4)
	require.Equal(t, enums.ConflictKindCapacity, findings[0].Kind)
	require.Equal(t, enums.ConflictKindEquipment, findings[1].Kind)
	require.Equal(t, enums.ConflictKindDependency, findings[2].Kind)
}
