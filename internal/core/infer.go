// internal/core/infer.go
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tablero-hq/tablero-backend/internal/domain"
)

// stripDiacritics decomposes accented characters and removes the combining
// marks, so "Teléfono" normalizes to "Telefono".
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify turns an arbitrary label into a machine-safe identifier: lower-case,
// diacritics stripped, runs of non-alphanumeric characters collapsed into a
// single underscore, leading/trailing underscores trimmed.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if normalized, _, err := transform.String(stripDiacritics, s); err == nil {
		s = normalized
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// NormalizeHeaders derives unique machine names from a raw header row.
// Empty headers become campo_{1-based index}; collisions get _1, _2, …
// suffixes until unique, which guarantees field name uniqueness.
func NormalizeHeaders(headers []string) []string {
	names := make([]string, len(headers))
	seen := make(map[string]bool, len(headers))

	for i, header := range headers {
		name := Slugify(header)
		if name == "" {
			name = fmt.Sprintf("campo_%d", i+1)
		}
		if seen[name] {
			base := name
			for n := 1; ; n++ {
				name = fmt.Sprintf("%s_%d", base, n)
				if !seen[name] {
					break
				}
			}
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

// InferFields derives a field list from a raw header row plus data rows.
//
// Type detection runs per column over non-empty cells only. Numeric wins over
// date and boolean so numeric strings are never misclassified; a column with
// zero non-empty values defaults to text. Column order is preserved and the
// label keeps the original header text.
func InferFields(headers []string, rows [][]string) []domain.Field {
	names := NormalizeHeaders(headers)
	fields := make([]domain.Field, len(headers))

	for i, header := range headers {
		label := strings.TrimSpace(header)
		if label == "" {
			label = fmt.Sprintf("Campo %d", i+1)
		}
		fields[i] = domain.Field{
			Name:  names[i],
			Label: label,
			Type:  inferColumnType(i, rows),
			Order: i,
		}
	}
	return fields
}

func inferColumnType(col int, rows [][]string) domain.FieldType {
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return domain.FieldText
	}

	if allMatch(values, isNumericCell) {
		return domain.FieldNumber
	}
	if allMatch(values, isDateCell) {
		return domain.FieldDate
	}
	if allMatch(values, isBoolCell) {
		return domain.FieldBoolean
	}
	return domain.FieldText
}

func allMatch(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}

func isNumericCell(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isDateCell(s string) bool {
	_, ok := ParseDate(s)
	return ok
}

func isBoolCell(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "1", "0":
		return true
	}
	return false
}
