package validators

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
)

const examDateLayout = "2006-01-02"

// ExamDate reads the exam_date query parameter, defaulting to today. Every
// read endpoint is scoped to one exam day.
func ExamDate(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("exam_date"))
	if raw == "" {
		return time.Now().Format(examDateLayout), nil
	}
	if _, err := time.Parse(examDateLayout, raw); err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "exam_date must be formatted YYYY-MM-DD").
			WithDetails(map[string]any{"field": "exam_date"})
	}
	return raw, nil
}

// ParseQueryInt reads a bounded integer query parameter.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").
			WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// RequiredQueryDate reads a named date parameter without a default.
func RequiredQueryDate(r *http.Request, key string) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "query parameter required").
			WithDetails(map[string]any{"field": key})
	}
	if _, err := time.Parse(examDateLayout, raw); err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "date must be formatted YYYY-MM-DD").
			WithDetails(map[string]any{"field": key})
	}
	return raw, nil
}
