package recommend

import "github.com/google/uuid"

// SuggestInput asks for the next station for one patient.
type SuggestInput struct {
	PatientID uuid.UUID
	ExamDate  string
}

// ScoredStation is one ranked candidate with the rule outcomes that shaped
// its score.
type ScoredStation struct {
	StationCode string   `json:"station_code"`
	Score       int      `json:"score"`
	Reasons     []string `json:"reasons,omitempty"`
}

// Suggestion is the full ranked answer. Best is nil when the patient has no
// remaining stations, in which case the caller keeps the patient waiting.
type Suggestion struct {
	Best      *ScoredStation  `json:"best,omitempty"`
	Ranked    []ScoredStation `json:"ranked"`
	Remaining int             `json:"remaining"`
}
