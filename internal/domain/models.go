// internal/domain/models.go
package domain

import "time"

// FieldType enumerates the value types a table column can declare.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldBoolean  FieldType = "boolean"
	FieldSelect   FieldType = "select"
	FieldCurrency FieldType = "currency"
	FieldFile     FieldType = "file"
)

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldEmail, FieldNumber, FieldDate, FieldBoolean, FieldSelect, FieldCurrency, FieldFile:
		return true
	}
	return false
}

// Field is a single column definition within a Table.
// Name is the machine key (derived from Label when absent); Label is the display name.
type Field struct {
	Name         string    `json:"name"`
	Label        string    `json:"label"`
	Type         FieldType `json:"type"`
	Required     bool      `json:"required"`
	Options      []string  `json:"options,omitempty"` // only meaningful for select fields
	Order        int       `json:"order"`
	Width        int       `json:"width,omitempty"` // display hint
	DefaultValue any       `json:"default_value,omitempty"`
}

// Table is an operator-defined schema: a named, ordered list of typed fields.
// Slug is unique per company and immutable once records exist.
type Table struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon,omitempty"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	Fields      []Field   `json:"fields"`
	CreatedAt   time.Time `json:"created_at"`
}

// FieldByName returns the declared field with the given machine name, if any.
func (t *Table) FieldByName(name string) (*Field, bool) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i], true
		}
	}
	return nil, false
}

// Record is one data row owned by exactly one table via TableSlug.
// Every key in Data corresponds to a declared field on the owning table.
type Record struct {
	ID        string         `json:"id"`
	TableSlug string         `json:"table_slug"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ImportRowError describes one failed row in a bulk import. Row is 1-based
// relative to the first data row (the header row is not counted).
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportReport summarizes a bulk import. Partial success is expected:
// failing rows are collected here while successful rows still commit.
type ImportReport struct {
	Total             int              `json:"total"`
	Successful        int              `json:"successful"`
	Failed            int              `json:"failed"`
	DuplicatesRemoved int              `json:"duplicates_removed"`
	Errors            []ImportRowError `json:"errors,omitempty"`
}
