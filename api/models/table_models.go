// api/models/table_models.go
package models

// --- Table/Schema Request Structs ---

// FieldDefinition represents a single field in a table schema request.
// Name is optional; it is derived from Label when absent.
type FieldDefinition struct {
	Name         string   `json:"name"`
	Label        string   `json:"label" binding:"required"`
	Type         string   `json:"type" binding:"required"` // e.g. "text", "number", "date"
	Required     bool     `json:"required"`
	Options      []string `json:"options"`
	Width        int      `json:"width"`
	DefaultValue any      `json:"default_value"`
}

// CreateTableRequest defines the structure for creating a table definition.
type CreateTableRequest struct {
	Slug        string            `json:"slug"`
	Name        string            `json:"name" binding:"required"`
	Icon        string            `json:"icon"`
	Description string            `json:"description"`
	Fields      []FieldDefinition `json:"fields" binding:"required,min=1,dive"`
}

// UpdateTableRequest defines the structure for updating a table definition.
// Nil pointers mean "leave unchanged"; a nil Fields slice keeps the current fields.
type UpdateTableRequest struct {
	Slug        *string           `json:"slug"`
	Name        *string           `json:"name"`
	Icon        *string           `json:"icon"`
	Description *string           `json:"description"`
	IsActive    *bool             `json:"is_active"`
	Fields      []FieldDefinition `json:"fields"`
}

// --- Import Request Structs ---

// ImportRequest carries pre-parsed tabular data for a bulk import.
// The transport layer (or client) has already split the spreadsheet into a
// header row and data rows.
type ImportRequest struct {
	TableName string     `json:"table_name"`
	Headers   []string   `json:"headers" binding:"required,min=1"`
	Rows      [][]string `json:"rows" binding:"required"`
	KeyFields []string   `json:"key_fields"` // dedup key subset; empty = all fields
}
