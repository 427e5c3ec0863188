// internal/core/values.go
package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date layouts accepted when coercing values into dates. Order matters:
// the first matching layout wins.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
}

// ToNumber coerces a value into a float64. Accepts native numeric types and
// numeric strings (trimmed). Returns false for anything else.
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// ToBool coerces a value into a bool. Accepts native bools, the strings
// true/false/1/0 (case-insensitive), and the numbers 0 and 1.
func ToBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case float64:
		if b == 0 || b == 1 {
			return b == 1, true
		}
	case int:
		if b == 0 || b == 1 {
			return b == 1, true
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
	}
	return false, false
}

// ParseDate coerces a value into a time.Time. Accepts time.Time and strings
// matching any of the supported layouts.
func ParseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ToStringList coerces a value into a list of strings. A single string becomes
// a one-element list; []any is accepted when every element is a string.
func ToStringList(v any) ([]string, bool) {
	switch l := v.(type) {
	case string:
		return []string{l}, true
	case []string:
		return l, true
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// IsEmpty reports whether a value counts as "missing" for required-field
// checks: nil, empty string, or empty list.
func IsEmpty(v any) bool {
	switch e := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(e) == ""
	case []any:
		return len(e) == 0
	case []string:
		return len(e) == 0
	}
	return false
}

// Stringify renders a value as its plain string form (nil becomes "").
func Stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case []string:
		return strings.Join(s, ",")
	case []any:
		parts := make([]string, 0, len(s))
		for _, item := range s {
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", v)
	}
}
