// internal/core/infer_test.go
package core

import (
	"testing"

	"github.com/tablero-hq/tablero-backend/internal/domain"
)

func TestSlugify(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Nombre", "nombre"},
		{"diacritics stripped", "Teléfono Móvil", "telefono_movil"},
		{"symbol runs collapse", "Precio ($ USD)", "precio_usd"},
		{"leading and trailing trimmed", "  __Email__  ", "email"},
		{"numbers kept", "Campo 2", "campo_2"},
		{"only symbols", "!!!", ""},
		{"enye", "Año", "ano"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Slugify(tc.input); got != tc.want {
				t.Errorf("Slugify(%q) = %q; want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeHeaders(t *testing.T) {
	testCases := []struct {
		name    string
		headers []string
		want    []string
	}{
		{
			"plain headers",
			[]string{"Nombre", "Edad"},
			[]string{"nombre", "edad"},
		},
		{
			"empty header synthesized",
			[]string{"Nombre", "", "Edad"},
			[]string{"nombre", "campo_2", "edad"},
		},
		{
			"collisions get numeric suffixes",
			[]string{"Email", "email", "EMAIL"},
			[]string{"email", "email_1", "email_2"},
		},
		{
			"suffix collision keeps probing",
			[]string{"a", "a_1", "a"},
			[]string{"a", "a_1", "a_2"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeHeaders(tc.headers)
			if len(got) != len(tc.want) {
				t.Fatalf("NormalizeHeaders(%v) = %v; want %v", tc.headers, got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("name[%d] = %q; want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestInferFields(t *testing.T) {
	headers := []string{"Nombre", "Edad", "Activo"}
	rows := [][]string{
		{"Ana", "30", "true"},
		{"Luis", "25", "false"},
	}

	fields := InferFields(headers, rows)
	if len(fields) != 3 {
		t.Fatalf("InferFields() returned %d fields; want 3", len(fields))
	}

	wantTypes := []domain.FieldType{domain.FieldText, domain.FieldNumber, domain.FieldBoolean}
	wantNames := []string{"nombre", "edad", "activo"}
	for i, field := range fields {
		if field.Type != wantTypes[i] {
			t.Errorf("field %q type = %s; want %s", field.Name, field.Type, wantTypes[i])
		}
		if field.Name != wantNames[i] {
			t.Errorf("field name = %q; want %q", field.Name, wantNames[i])
		}
		if field.Label != headers[i] {
			t.Errorf("field label = %q; want original header %q", field.Label, headers[i])
		}
		if field.Order != i {
			t.Errorf("field %q order = %d; want %d", field.Name, field.Order, i)
		}
	}
}

func TestInferFieldsNumericPrecedence(t *testing.T) {
	// 1/0 are valid boolean tokens but all-numeric columns must stay numeric.
	fields := InferFields([]string{"Flag"}, [][]string{{"1"}, {"0"}, {"1"}})
	if fields[0].Type != domain.FieldNumber {
		t.Errorf("all-numeric column inferred as %s; want number", fields[0].Type)
	}
}

func TestInferFieldsDateColumn(t *testing.T) {
	fields := InferFields([]string{"Alta"}, [][]string{{"2024-01-15"}, {"2024-02-20"}})
	if fields[0].Type != domain.FieldDate {
		t.Errorf("date column inferred as %s; want date", fields[0].Type)
	}
}

func TestInferFieldsEmptyAndMixedColumns(t *testing.T) {
	headers := []string{"Vacio", "Mixto", ""}
	rows := [][]string{
		{"", "12", ""},
		{"", "doce", ""},
	}
	fields := InferFields(headers, rows)

	if fields[0].Type != domain.FieldText {
		t.Errorf("all-empty column inferred as %s; want text default", fields[0].Type)
	}
	if fields[1].Type != domain.FieldText {
		t.Errorf("mixed column inferred as %s; want text", fields[1].Type)
	}
	if fields[2].Name != "campo_3" || fields[2].Label != "Campo 3" {
		t.Errorf("blank header produced name=%q label=%q; want campo_3 / Campo 3", fields[2].Name, fields[2].Label)
	}
	// Type detection only looks at non-empty cells.
	if fields[2].Type != domain.FieldText {
		t.Errorf("blank column inferred as %s; want text", fields[2].Type)
	}
}
