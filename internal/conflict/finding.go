package conflict

import "github.com/oakhill-health/checkup-backend/pkg/enums"

// Finding is one detected problem with a proposed assignment. Block findings
// fail the assignment; warn findings ride along in the response.
type Finding struct {
	Kind        enums.ConflictKind    `json:"kind"`
	Severity    enums.FindingSeverity `json:"severity"`
	StationCode string                `json:"station_code"`
	Message     string                `json:"message"`
}

// HasBlock reports whether any finding is blocking.
func HasBlock(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == enums.FindingSeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the non-blocking findings.
func Warnings(findings []Finding) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Severity != enums.FindingSeverityBlock {
			out = append(out, f)
		}
	}
	return out
}
