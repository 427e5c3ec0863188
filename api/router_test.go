// api/router_test.go
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablero-hq/tablero-backend/api/middleware"
	"github.com/tablero-hq/tablero-backend/config"
	"github.com/tablero-hq/tablero-backend/internal/importer"
	"github.com/tablero-hq/tablero-backend/internal/storage"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.Connect(t.TempDir(), "api_test.db")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		ServerPort:     "0",
		ImportJobTTL:   time.Minute,
		AllowedOrigins: []string{"*"},
	}
	importSvc := importer.NewService(store, cfg.ImportJobTTL)
	return SetupRouter(store, importSvc, cfg)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.CompanyHeader, "acme")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func createContactsTable(t *testing.T, router *gin.Engine) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/tables", gin.H{
		"name": "Contactos",
		"fields": []gin.H{
			{"label": "Email", "type": "email", "required": true},
			{"label": "Nombre", "type": "text"},
			{"label": "Edad", "type": "number"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
}

func TestCompanyHeaderRequired(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tables", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTableEndpoints(t *testing.T) {
	router := testRouter(t)
	createContactsTable(t, router)

	// Duplicate slug conflicts.
	w := doJSON(t, router, http.MethodPost, "/api/v1/tables", gin.H{
		"name":   "Contactos",
		"fields": []gin.H{{"label": "Email", "type": "email"}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Unsupported field type is rejected up front.
	w = doJSON(t, router, http.MethodPost, "/api/v1/tables", gin.H{
		"name":   "Rotos",
		"fields": []gin.H{{"label": "X", "type": "geolocation"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/tables", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	tables := body["tables"].([]any)
	require.Len(t, tables, 1)
	first := tables[0].(map[string]any)
	assert.Equal(t, "contactos", first["slug"])
	assert.Equal(t, float64(0), first["record_count"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/tables/contactos", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/tables/no_such", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPut, "/api/v1/tables/contactos", gin.H{"name": "Contactos CRM"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Contactos CRM", decodeBody(t, w)["name"])

	w = doJSON(t, router, http.MethodDelete, "/api/v1/tables/contactos", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRecordEndpoints(t *testing.T) {
	router := testRouter(t)
	createContactsTable(t, router)

	// Validation failures report every violation.
	w := doJSON(t, router, http.MethodPost, "/api/v1/tables/contactos/records", gin.H{
		"edad": "treinta",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	require.Len(t, body["errors"].([]any), 2)

	w = doJSON(t, router, http.MethodPost, "/api/v1/tables/contactos/records", gin.H{
		"email":  "ana@example.com",
		"nombre": "Ana García",
		"edad":   "30",
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	created := decodeBody(t, w)
	recordID := created["id"].(string)
	require.NotEmpty(t, recordID)
	data := created["data"].(map[string]any)
	assert.Equal(t, float64(30), data["edad"], "values arrive coerced")

	w = doJSON(t, router, http.MethodPost, "/api/v1/tables/contactos/records", gin.H{
		"email":  "luis@example.com",
		"nombre": "Luis Pérez",
		"edad":   25,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/tables/contactos/records?search=garcía", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, float64(1), body["total_pages"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/tables/contactos/records?edad_gte=28", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["total"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/tables/contactos/records?page=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Partial update merges into the stored record.
	w = doJSON(t, router, http.MethodPut, "/api/v1/tables/contactos/records/"+recordID, gin.H{"edad": 31})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(31), updated["edad"])
	assert.Equal(t, "Ana García", updated["nombre"])

	w = doJSON(t, router, http.MethodDelete, "/api/v1/tables/contactos/records/"+recordID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/tables/contactos/records/"+recordID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportEndpoints(t *testing.T) {
	router := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/tables/empleados/import", gin.H{
		"table_name": "Empleados",
		"headers":    []string{"Nombre", "Edad"},
		"rows": [][]string{
			{"Ana", "30"},
			{"ana", "30"},
			{"Luis", "25"},
		},
	})
	require.Equal(t, http.StatusAccepted, w.Code, "body: %s", w.Body.String())
	jobID := decodeBody(t, w)["job_id"].(string)
	require.NotEmpty(t, jobID)

	var report map[string]any
	require.Eventually(t, func() bool {
		resp := doJSON(t, router, http.MethodGet, "/api/v1/imports/"+jobID, nil)
		if resp.Code != http.StatusOK {
			return false
		}
		body := decodeBody(t, resp)
		if body["status"] != "completed" {
			return false
		}
		report = body["report"].(map[string]any)
		return true
	}, 2*time.Second, 10*time.Millisecond, "import job did not complete")

	assert.Equal(t, float64(3), report["total"])
	assert.Equal(t, float64(2), report["successful"])
	assert.Equal(t, float64(1), report["duplicates_removed"])

	// The import created the table with an inferred schema.
	w = doJSON(t, router, http.MethodGet, "/api/v1/tables/empleados", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Jobs are invisible to other companies.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/imports/"+jobID, nil)
	req.Header.Set(middleware.CompanyHeader, "globex")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestExportEndpoint(t *testing.T) {
	router := testRouter(t)
	createContactsTable(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/v1/tables/contactos/records", gin.H{
		"email":  "ana@example.com",
		"nombre": "Ana",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/tables/contactos/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "contactos_")
	assert.Contains(t, w.Body.String(), "ana@example.com")

	w = doJSON(t, router, http.MethodGet, "/api/v1/tables/contactos/export?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
