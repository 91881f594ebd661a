package pickem

import (
	"math"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04", // datetime-local form input
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime normalizes the date shapes found in stored documents: time.Time,
// strings in common layouts, {"seconds": n} timestamp maps and unix seconds.
// The second return value is false when v is missing or unparseable.
func ParseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), true
			}
		}
		return time.Time{}, false
	case map[string]any:
		if secs, ok := t["seconds"]; ok {
			return ParseTime(secs)
		}
		return time.Time{}, false
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
			return time.Time{}, false
		}
		return time.Unix(int64(t), 0).UTC(), true
	case int64:
		if t <= 0 {
			return time.Time{}, false
		}
		return time.Unix(t, 0).UTC(), true
	case int:
		return ParseTime(int64(t))
	default:
		return time.Time{}, false
	}
}

// ParseTimePtr is ParseTime returning nil for missing values.
func ParseTimePtr(v any) *time.Time {
	t, ok := ParseTime(v)
	if !ok {
		return nil
	}
	return &t
}
