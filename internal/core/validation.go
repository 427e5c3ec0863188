// internal/core/validation.go
package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/tablero-hq/tablero-backend/internal/domain"
)

// Field error reasons surfaced to callers verbatim.
const (
	ReasonMissingRequired = "MISSING_REQUIRED"
	ReasonInvalidType     = "INVALID_TYPE"
	ReasonUnknownField    = "UNKNOWN_FIELD"
)

// FieldError is a single validation violation on a record payload.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func (e FieldError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Field, e.Reason, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidateRecord checks a candidate payload against a table schema and returns
// every violation found (not fail-fast), so callers can report all problems at
// once. It has no side effects.
//
// Type acceptance is lenient per field type: number/currency take numbers or
// numeric strings, boolean takes bools or true/false/1/0, date takes anything
// parseable as a date-time, file takes a URI string or a list of them, and
// select accepts any string (options are advisory, matching the upstream
// behavior where only the UI constrains entry).
func ValidateRecord(table *domain.Table, data map[string]any) []FieldError {
	var errs []FieldError

	for _, field := range table.Fields {
		value, present := data[field.Name]

		if field.Required && (!present || IsEmpty(value)) {
			errs = append(errs, FieldError{Field: field.Name, Reason: ReasonMissingRequired})
			continue
		}
		if !present || IsEmpty(value) {
			continue
		}
		if !valueMatchesType(field.Type, value) {
			errs = append(errs, FieldError{
				Field:  field.Name,
				Reason: ReasonInvalidType,
				Detail: fmt.Sprintf("expected %s, got %T", field.Type, value),
			})
		}
	}

	// Keys that do not correspond to any declared field. Sorted so the error
	// list is deterministic.
	var unknown []string
	for key := range data {
		if _, ok := table.FieldByName(key); !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errs = append(errs, FieldError{Field: key, Reason: ReasonUnknownField})
	}

	return errs
}

func valueMatchesType(fieldType domain.FieldType, value any) bool {
	switch fieldType {
	case domain.FieldNumber, domain.FieldCurrency:
		_, ok := ToNumber(value)
		return ok
	case domain.FieldBoolean:
		_, ok := ToBool(value)
		return ok
	case domain.FieldDate:
		_, ok := ParseDate(value)
		return ok
	case domain.FieldFile:
		_, ok := ToStringList(value)
		return ok
	case domain.FieldText, domain.FieldEmail, domain.FieldSelect:
		_, ok := value.(string)
		return ok
	}
	return false
}

// CoerceRecord normalizes an already-validated payload into canonical value
// forms for persistence: numbers as float64, booleans as bool, dates as
// RFC 3339 strings, file values as string lists. Absent optional fields with a
// declared default are filled in. Unknown keys are dropped; untyped data never
// travels past this boundary.
func CoerceRecord(table *domain.Table, data map[string]any) map[string]any {
	out := make(map[string]any, len(table.Fields))

	for _, field := range table.Fields {
		value, present := data[field.Name]
		if !present || IsEmpty(value) {
			if field.DefaultValue != nil && !field.Required {
				out[field.Name] = field.DefaultValue
			}
			continue
		}
		out[field.Name] = coerceValue(field.Type, value)
	}
	return out
}

func coerceValue(fieldType domain.FieldType, value any) any {
	switch fieldType {
	case domain.FieldNumber, domain.FieldCurrency:
		if n, ok := ToNumber(value); ok {
			return n
		}
	case domain.FieldBoolean:
		if b, ok := ToBool(value); ok {
			return b
		}
	case domain.FieldDate:
		if d, ok := ParseDate(value); ok {
			return d.Format(time.RFC3339)
		}
	case domain.FieldFile:
		if l, ok := ToStringList(value); ok {
			return l
		}
	}
	return value
}
