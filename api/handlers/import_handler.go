// api/handlers/import_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tablero-hq/tablero-backend/api/models"
	"github.com/tablero-hq/tablero-backend/config"
	"github.com/tablero-hq/tablero-backend/internal/importer"
)

// ImportHandler holds dependencies for bulk import handlers.
type ImportHandler struct {
	Importer *importer.Service
	Cfg      *config.Config
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(svc *importer.Service, cfg *config.Config) *ImportHandler {
	return &ImportHandler{
		Importer: svc,
		Cfg:      cfg,
	}
}

// StartImport accepts pre-parsed tabular data and kicks off the background
// import pipeline. Responds 202 with a job ID the caller polls for the report.
func (h *ImportHandler) StartImport(c *gin.Context) {
	var req models.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	job, err := h.Importer.StartImport(companyID(c), c.Param("slug"), req.Headers, req.Rows, importer.Options{
		TableName: req.TableName,
		KeyFields: req.KeyFields,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customLog.Printf("Handler: Import job %s accepted for table '%s'", job.ID, job.TableSlug)
	c.JSON(http.StatusAccepted, gin.H{
		"job_id": job.ID,
		"status": job.Status,
	})
}

// GetImportJob returns the current state of an import job, including the
// final report once the pipeline finishes.
func (h *ImportHandler) GetImportJob(c *gin.Context) {
	job, ok := h.Importer.Job(c.Param("job_id"))
	if !ok || job.CompanyID != companyID(c) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Import job not found."})
		return
	}
	c.JSON(http.StatusOK, job)
}
