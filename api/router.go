// api/router.go
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tablero-hq/tablero-backend/api/handlers"
	"github.com/tablero-hq/tablero-backend/api/middleware"
	"github.com/tablero-hq/tablero-backend/config"
	"github.com/tablero-hq/tablero-backend/internal/importer"
	"github.com/tablero-hq/tablero-backend/internal/storage"
)

// SetupRouter initializes the Gin router and sets up all routes.
func SetupRouter(store storage.Store, importSvc *importer.Service, cfg *config.Config) *gin.Engine {
	router := gin.Default() // Includes Logger and Recovery

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, middleware.CompanyHeader)
	router.Use(cors.New(corsConfig))
	router.Use(middleware.ErrorHandler())

	// Initialize Handlers
	tableHandler := handlers.NewTableHandler(store, cfg)
	recordHandler := handlers.NewRecordHandler(store, cfg)
	importHandler := handlers.NewImportHandler(importSvc, cfg)
	exportHandler := handlers.NewExportHandler(store, cfg)

	router.GET("/ping", func(c *gin.Context) { c.String(200, "pong") })

	// Every API route is scoped to the company the upstream auth layer resolved.
	apiRoutes := router.Group("/api/v1")
	apiRoutes.Use(middleware.CompanyMiddleware())
	{
		apiRoutes.POST("/tables", tableHandler.CreateTable)
		apiRoutes.GET("/tables", tableHandler.ListTables)
		apiRoutes.GET("/tables/:slug", tableHandler.GetTable)
		apiRoutes.PUT("/tables/:slug", tableHandler.UpdateTable)
		apiRoutes.DELETE("/tables/:slug", tableHandler.DeleteTable)
		apiRoutes.GET("/tables/:slug/stats", tableHandler.TableStats)

		apiRoutes.POST("/tables/:slug/records", recordHandler.CreateRecord)
		apiRoutes.GET("/tables/:slug/records", recordHandler.ListRecords)
		apiRoutes.GET("/tables/:slug/records/:record_id", recordHandler.GetRecord)
		apiRoutes.PUT("/tables/:slug/records/:record_id", recordHandler.UpdateRecord)
		apiRoutes.DELETE("/tables/:slug/records/:record_id", recordHandler.DeleteRecord)

		// Bulk imports are the one long-running operation; rate-limit them.
		importLimiter := middleware.NewRateLimiter(10, time.Minute)
		apiRoutes.POST("/tables/:slug/import", middleware.RateLimitMiddleware(importLimiter), importHandler.StartImport)
		apiRoutes.GET("/imports/:job_id", importHandler.GetImportJob)

		apiRoutes.GET("/tables/:slug/export", exportHandler.ExportTable)
	}

	return router
}
