package enums

import "fmt"

// EquipmentHealth is the reported condition of a station's equipment.
type EquipmentHealth string

const (
	EquipmentHealthNormal  EquipmentHealth = "normal"
	EquipmentHealthWarning EquipmentHealth = "warning"
	EquipmentHealthBroken  EquipmentHealth = "broken"
)

var validEquipmentHealths = []EquipmentHealth{
	EquipmentHealthNormal,
	EquipmentHealthWarning,
	EquipmentHealthBroken,
}

// String implements fmt.Stringer.
func (h EquipmentHealth) String() string {
	return string(h)
}

// IsValid reports whether the value is a known EquipmentHealth.
func (h EquipmentHealth) IsValid() bool {
	for _, candidate := range validEquipmentHealths {
		if candidate == h {
			return true
		}
	}
	return false
}

// ParseEquipmentHealth converts raw input into an EquipmentHealth.
func ParseEquipmentHealth(value string) (EquipmentHealth, error) {
	for _, candidate := range validEquipmentHealths {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid equipment health %q", value)
}
