// api/handlers/record_handler.go
package handlers

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tablero-hq/tablero-backend/config"
	"github.com/tablero-hq/tablero-backend/internal/core"
	"github.com/tablero-hq/tablero-backend/internal/storage"
)

// RecordHandler holds dependencies for record CRUD handlers.
type RecordHandler struct {
	Store storage.Store
	Cfg   *config.Config
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(store storage.Store, cfg *config.Config) *RecordHandler {
	return &RecordHandler{
		Store: store,
		Cfg:   cfg,
	}
}

// CreateRecord handles inserting a new record after validation against the
// owning table's schema.
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	company := companyID(c)
	slug := c.Param("slug")

	table, err := h.Store.GetTable(c.Request.Context(), company, slug)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON request body: " + err.Error()})
		return
	}
	if len(data) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body cannot be empty."})
		return
	}

	if fieldErrs := core.ValidateRecord(table, data); len(fieldErrs) > 0 {
		customLog.Warnf("Handler: Create record validation failed for table '%s': %d error(s)", slug, len(fieldErrs))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  "Record validation failed.",
			"errors": fieldErrs,
		})
		return
	}

	rec, err := h.Store.InsertRecord(c.Request.Context(), company, slug, core.CoerceRecord(table, data))
	if err != nil {
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Inserted record %s into table '%s'", rec.ID, slug)
	c.JSON(http.StatusCreated, rec)
}

// ListRecords handles listing with text search, structured filters, sorting
// and pagination. Any non-reserved query parameter acts as a field filter;
// the _gte/_lte suffixes form inclusive ranges.
func (h *RecordHandler) ListRecords(c *gin.Context) {
	opts, err := core.ParseQueryOptions(c.Request.URL.Query())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, total, err := h.Store.QueryRecords(c.Request.Context(), companyID(c), c.Param("slug"), *opts)
	if err != nil {
		_ = c.Error(err)
		return
	}

	totalPages := 0
	if opts.PageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(opts.PageSize)))
	}
	c.JSON(http.StatusOK, gin.H{
		"records":     records,
		"total":       total,
		"page":        opts.Page,
		"page_size":   opts.PageSize,
		"total_pages": totalPages,
	})
}

// GetRecord handles retrieving a single record by ID.
func (h *RecordHandler) GetRecord(c *gin.Context) {
	rec, err := h.Store.GetRecord(c.Request.Context(), companyID(c), c.Param("slug"), c.Param("record_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// UpdateRecord handles partial updates: the patch merges into the stored data
// map and the merged result is re-validated before persisting.
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	company := companyID(c)
	slug := c.Param("slug")
	recordID := c.Param("record_id")

	table, err := h.Store.GetTable(c.Request.Context(), company, slug)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON request body: " + err.Error()})
		return
	}
	if len(patch) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body cannot be empty for update."})
		return
	}

	existing, err := h.Store.GetRecord(c.Request.Context(), company, slug, recordID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	merged := make(map[string]any, len(existing.Data)+len(patch))
	for k, v := range existing.Data {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}

	if fieldErrs := core.ValidateRecord(table, merged); len(fieldErrs) > 0 {
		customLog.Warnf("Handler: Update record validation failed for record %s: %d error(s)", recordID, len(fieldErrs))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  "Record validation failed.",
			"errors": fieldErrs,
		})
		return
	}

	rec, err := h.Store.UpdateRecord(c.Request.Context(), company, slug, recordID, core.CoerceRecord(table, merged))
	if err != nil {
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Updated record %s in table '%s'", recordID, slug)
	c.JSON(http.StatusOK, rec)
}

// DeleteRecord handles deleting a specific record by ID.
func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	recordID := c.Param("record_id")
	if err := h.Store.DeleteRecord(c.Request.Context(), companyID(c), c.Param("slug"), recordID); err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Record not found for deletion."})
			return
		}
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Deleted record %s", recordID)
	c.Status(http.StatusNoContent)
}
