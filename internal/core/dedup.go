// internal/core/dedup.go
package core

import (
	"strings"

	"github.com/tablero-hq/tablero-backend/internal/domain"
)

// keySeparator joins composite key parts; it is not expected to appear in
// normalized cell values often enough to cause collisions.
const keySeparator = "|"

// DedupRecords removes structurally identical rows, keeping the first
// occurrence of each composite key and reporting how many rows were dropped.
//
// The composite key concatenates the lower-cased, trimmed string form of each
// key field's value (missing values become ""). keyFields selects which fields
// participate; empty means every declared field. Rows whose key is entirely
// blank never match each other, so a run of blank rows is not collapsed into
// one. Output order equals input order restricted to kept rows, and the
// operation is idempotent.
func DedupRecords(rows []map[string]any, fields []domain.Field, keyFields []string) ([]map[string]any, int) {
	names := keyFieldNames(fields, keyFields)

	unique := make([]map[string]any, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	removed := 0

	for _, row := range rows {
		key, blank := compositeKey(row, names)
		if blank {
			unique = append(unique, row)
			continue
		}
		if seen[key] {
			removed++
			continue
		}
		seen[key] = true
		unique = append(unique, row)
	}
	return unique, removed
}

func keyFieldNames(fields []domain.Field, keyFields []string) []string {
	if len(keyFields) == 0 {
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = f.Name
		}
		return names
	}
	return keyFields
}

func compositeKey(row map[string]any, names []string) (key string, blank bool) {
	parts := make([]string, len(names))
	blank = true
	for i, name := range names {
		part := strings.ToLower(strings.TrimSpace(Stringify(row[name])))
		if part != "" {
			blank = false
		}
		parts[i] = part
	}
	return strings.Join(parts, keySeparator), blank
}
