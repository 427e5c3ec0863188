// api/handlers/export_handler.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tablero-hq/tablero-backend/config"
	"github.com/tablero-hq/tablero-backend/internal/core"
	"github.com/tablero-hq/tablero-backend/internal/export"
	"github.com/tablero-hq/tablero-backend/internal/storage"
)

// ExportHandler holds dependencies for table export handlers.
type ExportHandler struct {
	Store storage.Store
	Cfg   *config.Config
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(store storage.Store, cfg *config.Config) *ExportHandler {
	return &ExportHandler{
		Store: store,
		Cfg:   cfg,
	}
}

// ExportTable serializes a table and its records into csv, json or excel.
// Filters and search from the query string apply, pagination does not: an
// export always covers the full filtered set.
func (h *ExportHandler) ExportTable(c *gin.Context) {
	company := companyID(c)
	slug := c.Param("slug")
	format := export.Format(c.DefaultQuery("format", string(export.FormatCSV)))

	table, err := h.Store.GetTable(c.Request.Context(), company, slug)
	if err != nil {
		_ = c.Error(err)
		return
	}

	opts, err := core.ParseQueryOptions(c.Request.URL.Query())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	delete(opts.Filters, "format") // the format selector is not a field filter
	opts.PageSize = 0

	records, total, err := h.Store.QueryRecords(c.Request.Context(), company, slug, *opts)
	if err != nil {
		_ = c.Error(err)
		return
	}

	payload, contentType, err := export.Serialize(table, records, format)
	if err != nil {
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Exported %d record(s) from table '%s' as %s", total, slug, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(table, format)))
	c.Data(http.StatusOK, contentType, payload)
}
