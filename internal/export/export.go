// internal/export/export.go
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tablero-hq/tablero-backend/internal/core"
	"github.com/tablero-hq/tablero-backend/internal/domain"
)

// Format selects the export serialization.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatExcel Format = "excel"
)

// ErrUnsupportedFormat is returned for formats Serialize does not know.
var ErrUnsupportedFormat = errors.New("unsupported export format")

const (
	createdAtLabel   = "Fecha de Creación"
	exportDateLayout = "02/01/2006 15:04"
)

// Serialize renders a table plus record set into the requested format and
// returns the payload with its content type.
func Serialize(table *domain.Table, records []domain.Record, format Format) ([]byte, string, error) {
	switch format {
	case FormatCSV:
		data, err := serializeCSV(table, records)
		return data, "text/csv; charset=utf-8", err
	case FormatJSON:
		data, err := serializeJSON(table, records)
		return data, "application/json", err
	case FormatExcel:
		data, err := serializeExcel(table, records)
		return data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", err
	}
	return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// FileName builds a download file name for the given table and format.
func FileName(table *domain.Table, format Format) string {
	ext := string(format)
	if format == FormatExcel {
		ext = "xlsx"
	}
	return fmt.Sprintf("%s_%s.%s", table.Slug, time.Now().Format("2006-01-02"), ext)
}

// serializeCSV writes a header row of field labels plus a trailing creation
// date column. encoding/csv applies RFC 4180 quoting.
func serializeCSV(table *domain.Table, records []domain.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, 0, len(table.Fields)+1)
	for _, field := range table.Fields {
		header = append(header, field.Label)
	}
	header = append(header, createdAtLabel)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed writing CSV header: %w", err)
	}

	for _, rec := range records {
		row := make([]string, 0, len(table.Fields)+1)
		for _, field := range table.Fields {
			row = append(row, FormatCell(field, rec.Data[field.Name]))
		}
		row = append(row, rec.CreatedAt.Format(exportDateLayout))
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed writing CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed flushing CSV: %w", err)
	}
	return buf.Bytes(), nil
}

type jsonExport struct {
	Table        jsonExportTable `json:"table"`
	Records      []domain.Record `json:"records"`
	ExportDate   time.Time       `json:"export_date"`
	TotalRecords int             `json:"total_records"`
}

type jsonExportTable struct {
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description string         `json:"description,omitempty"`
	Fields      []domain.Field `json:"fields"`
}

func serializeJSON(table *domain.Table, records []domain.Record) ([]byte, error) {
	payload := jsonExport{
		Table: jsonExportTable{
			Name:        table.Name,
			Slug:        table.Slug,
			Description: table.Description,
			Fields:      table.Fields,
		},
		Records:      records,
		ExportDate:   time.Now().UTC(),
		TotalRecords: len(records),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed marshaling JSON export: %w", err)
	}
	return data, nil
}

// serializeExcel writes one sheet named after the table, using native cell
// types where the field type has one (numbers, booleans).
func serializeExcel(table *domain.Table, records []domain.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(table.Name)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed naming sheet: %w", err)
	}

	for col, field := range table.Fields {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, field.Label); err != nil {
			return nil, fmt.Errorf("failed writing header cell: %w", err)
		}
	}
	createdCell, _ := excelize.CoordinatesToCellName(len(table.Fields)+1, 1)
	if err := f.SetCellValue(sheet, createdCell, createdAtLabel); err != nil {
		return nil, fmt.Errorf("failed writing header cell: %w", err)
	}

	for rowIdx, rec := range records {
		for col, field := range table.Fields {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, excelCellValue(field, rec.Data[field.Name])); err != nil {
				return nil, fmt.Errorf("failed writing cell: %w", err)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(len(table.Fields)+1, rowIdx+2)
		if err := f.SetCellValue(sheet, cell, rec.CreatedAt.Format(exportDateLayout)); err != nil {
			return nil, fmt.Errorf("failed writing cell: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// excelCellValue keeps native types where the workbook has one: numbers stay
// numeric, booleans stay boolean, everything else uses the shared formatting.
func excelCellValue(field domain.Field, value any) any {
	if value == nil {
		return ""
	}
	switch field.Type {
	case domain.FieldNumber, domain.FieldCurrency:
		if n, ok := core.ToNumber(value); ok {
			return n
		}
	case domain.FieldBoolean:
		if b, ok := core.ToBool(value); ok {
			return b
		}
	}
	return FormatCell(field, value)
}

// FormatCell renders a single value for human-scannable output, applying the
// same per-type rules across formats: dates as localized date-times, booleans
// as Sí/No, currency with a symbol, numbers without thousands separators, and
// file lists as a count summary instead of raw URIs.
func FormatCell(field domain.Field, value any) string {
	if value == nil {
		return ""
	}
	switch field.Type {
	case domain.FieldDate:
		if d, ok := core.ParseDate(value); ok {
			return d.Format(exportDateLayout)
		}
	case domain.FieldBoolean:
		if b, ok := core.ToBool(value); ok {
			if b {
				return "Sí"
			}
			return "No"
		}
	case domain.FieldCurrency:
		if n, ok := core.ToNumber(value); ok {
			return fmt.Sprintf("$%.2f", n)
		}
	case domain.FieldNumber:
		if n, ok := core.ToNumber(value); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
	case domain.FieldFile:
		if files, ok := core.ToStringList(value); ok {
			return fmt.Sprintf("%d archivo(s)", len(files))
		}
	}
	return core.Stringify(value)
}

// sheetName trims a table name to Excel's 31-character sheet name limit.
func sheetName(name string) string {
	if name == "" {
		return "Datos"
	}
	runes := []rune(name)
	if len(runes) > 31 {
		return string(runes[:31])
	}
	return name
}
