package enums

// FindingSeverity ranks conflict findings. Block findings fail the assignment;
// warn and info findings are advisory only.
type FindingSeverity string

const (
	FindingSeverityBlock FindingSeverity = "block"
	FindingSeverityWarn  FindingSeverity = "warn"
	FindingSeverityInfo  FindingSeverity = "info"
)

// String implements fmt.Stringer.
func (s FindingSeverity) String() string {
	return string(s)
}

// ConflictKind names the rule a finding came from.
type ConflictKind string

const (
	ConflictKindCapacity   ConflictKind = "capacity"
	ConflictKindEquipment  ConflictKind = "equipment"
	ConflictKindDependency ConflictKind = "dependency"
)

// String implements fmt.Stringer.
func (k ConflictKind) String() string {
	return string(k)
}
