package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// CodeList stores an ordered list of station codes in a single text column
// ("REG,BLOOD,CT"). Used for patient exam packages and station dependency
// lists.
type CodeList []string

func (l *CodeList) Scan(src any) error {
	if src == nil {
		*l = CodeList{}
		return nil
	}

	switch v := src.(type) {
	case string:
		l.parseFromString(v)
		return nil
	case []byte:
		l.parseFromString(string(v))
		return nil
	default:
		return fmt.Errorf("CodeList: unsupported Scan type %T", src)
	}
}

func (l CodeList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(l))
	for _, code := range l {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		parts = append(parts, code)
	}
	return strings.Join(parts, ","), nil
}

// Contains reports whether code is present in the list.
func (l CodeList) Contains(code string) bool {
	for _, candidate := range l {
		if candidate == code {
			return true
		}
	}
	return false
}

func (l *CodeList) parseFromString(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		*l = CodeList{}
		return
	}
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	*l = CodeList(out)
}
