// api/handlers/table_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tablero-hq/tablero-backend/api/middleware"
	"github.com/tablero-hq/tablero-backend/api/models"
	"github.com/tablero-hq/tablero-backend/config"
	"github.com/tablero-hq/tablero-backend/internal/core"
	"github.com/tablero-hq/tablero-backend/internal/domain"
	"github.com/tablero-hq/tablero-backend/internal/logger"
	"github.com/tablero-hq/tablero-backend/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

// companyID reads the tenant identifier the middleware resolved.
func companyID(c *gin.Context) string {
	return c.MustGet(middleware.CompanyKey).(string)
}

// TableHandler holds dependencies for table management handlers.
type TableHandler struct {
	Store storage.Store
	Cfg   *config.Config
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(store storage.Store, cfg *config.Config) *TableHandler {
	return &TableHandler{
		Store: store,
		Cfg:   cfg,
	}
}

// buildFields converts field definitions from a request into domain fields,
// deriving machine names from labels where absent and guaranteeing name
// uniqueness within the table.
func buildFields(defs []models.FieldDefinition) ([]domain.Field, error) {
	fields := make([]domain.Field, 0, len(defs))
	seen := make(map[string]bool, len(defs))

	for i, def := range defs {
		fieldType := domain.FieldType(def.Type)
		if !fieldType.Valid() {
			return nil, fmt.Errorf("field '%s' has unsupported type '%s'", def.Label, def.Type)
		}
		if fieldType == domain.FieldSelect && len(def.Options) == 0 {
			return nil, fmt.Errorf("select field '%s' requires a non-empty options list", def.Label)
		}

		name := def.Name
		if name == "" {
			name = core.Slugify(def.Label)
		} else {
			name = core.Slugify(name)
		}
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

		fields = append(fields, domain.Field{
			Name:         name,
			Label:        def.Label,
			Type:         fieldType,
			Required:     def.Required,
			Options:      def.Options,
			Order:        i,
			Width:        def.Width,
			DefaultValue: def.DefaultValue,
		})
	}
	return fields, nil
}

// CreateTable handles requests to define a new table.
func (h *TableHandler) CreateTable(c *gin.Context) {
	var req models.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = req.Name
	}
	slug = core.Slugify(slug)
	if slug == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Table name must contain at least one alphanumeric character."})
		return
	}

	fields, err := buildFields(req.Fields)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	table := &domain.Table{
		CompanyID:   companyID(c),
		Slug:        slug,
		Name:        req.Name,
		Icon:        req.Icon,
		Description: req.Description,
		IsActive:    true,
		Fields:      fields,
	}
	if err := h.Store.CreateTable(c.Request.Context(), table); err != nil {
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Created table '%s' with %d field(s)", table.Slug, len(table.Fields))
	c.JSON(http.StatusCreated, table)
}

// ListTables handles requests to list all tables for the company, including
// per-table record counts.
func (h *TableHandler) ListTables(c *gin.Context) {
	company := companyID(c)

	tables, err := h.Store.ListTables(c.Request.Context(), company)
	if err != nil {
		_ = c.Error(err)
		return
	}

	type tableSummary struct {
		domain.Table
		RecordCount int `json:"record_count"`
	}
	summaries := make([]tableSummary, 0, len(tables))
	for _, table := range tables {
		count, err := h.Store.CountRecords(c.Request.Context(), company, table.Slug)
		if err != nil {
			_ = c.Error(err)
			return
		}
		summaries = append(summaries, tableSummary{Table: table, RecordCount: count})
	}

	customLog.Printf("Handler: Retrieved %d table(s) for company %s", len(summaries), company)
	c.JSON(http.StatusOK, gin.H{"tables": summaries})
}

// GetTable handles requests for a single table definition.
func (h *TableHandler) GetTable(c *gin.Context) {
	table, err := h.Store.GetTable(c.Request.Context(), companyID(c), c.Param("slug"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, table)
}

// UpdateTable handles requests to change table metadata or fields. The slug
// of a table that already holds records cannot change.
func (h *TableHandler) UpdateTable(c *gin.Context) {
	var req models.UpdateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	table, err := h.Store.GetTable(c.Request.Context(), companyID(c), c.Param("slug"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	if req.Slug != nil {
		newSlug := core.Slugify(*req.Slug)
		if newSlug == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Slug must contain at least one alphanumeric character."})
			return
		}
		table.Slug = newSlug
	}
	if req.Name != nil {
		table.Name = *req.Name
	}
	if req.Icon != nil {
		table.Icon = *req.Icon
	}
	if req.Description != nil {
		table.Description = *req.Description
	}
	if req.IsActive != nil {
		table.IsActive = *req.IsActive
	}
	if req.Fields != nil {
		fields, err := buildFields(req.Fields)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		table.Fields = fields
	}

	if err := h.Store.UpdateTable(c.Request.Context(), table); err != nil {
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Updated table '%s'", table.Slug)
	c.JSON(http.StatusOK, table)
}

// DeleteTable handles requests to remove a table and all of its records.
func (h *TableHandler) DeleteTable(c *gin.Context) {
	slug := c.Param("slug")
	if err := h.Store.DeleteTable(c.Request.Context(), companyID(c), slug); err != nil {
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Deleted table '%s'", slug)
	c.Status(http.StatusNoContent)
}

// TableStats reports the record count and how many records arrived recently.
func (h *TableHandler) TableStats(c *gin.Context) {
	company := companyID(c)
	slug := c.Param("slug")

	if _, err := h.Store.GetTable(c.Request.Context(), company, slug); err != nil {
		_ = c.Error(err)
		return
	}

	sinceDays := 7
	if sinceStr := c.Query("since_days"); sinceStr != "" {
		parsed, err := strconv.Atoi(sinceStr)
		if err != nil || parsed < 1 {
			_ = c.Error(errors.New("invalid 'since_days' parameter"))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'since_days' parameter: must be a positive integer."})
			return
		}
		sinceDays = parsed
	}

	total, err := h.Store.CountRecords(c.Request.Context(), company, slug)
	if err != nil {
		_ = c.Error(err)
		return
	}
	recent, err := h.Store.RecentRecordCount(c.Request.Context(), company, slug, sinceDays)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_records":  total,
		"recent_records": recent,
		"since_days":     sinceDays,
	})
}
