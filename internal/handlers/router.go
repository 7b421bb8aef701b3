package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salyq-kz/declaration-service/internal/middleware"
)

// NewRouter assembles the HTTP surface. Everything under /api/v1 requires a
// bearer token; catalog writes additionally require an admin or inspector
// role. Taxpayer isolation is enforced inside the handlers because it needs
// the owning taxpayer of the addressed resource.
func NewRouter(
	parser middleware.TokenParser,
	taxpayers *TaxpayerHandler,
	ingestion *IngestionHandler,
	declarations *DeclarationHandler,
	catalog *CatalogHandler,
) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1", middleware.Auth(parser))

	api.POST("/taxpayers", taxpayers.Create)
	api.GET("/taxpayers", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleInspector), taxpayers.List)
	api.GET("/taxpayers/:id", taxpayers.Get)
	api.GET("/taxpayers/:id/sources", taxpayers.Sources)
	api.GET("/taxpayers/:id/events", taxpayers.Events)
	api.GET("/taxpayers/:id/declarations", taxpayers.Declarations)

	api.POST("/source-records", ingestion.Ingest)
	api.POST("/source-records/:id/parse", ingestion.Parse)
	api.POST("/source-records/:id/reparse", ingestion.Reparse)
	api.DELETE("/source-records/:id", ingestion.Deactivate)

	api.POST("/engine/run", declarations.RunEngine)

	api.POST("/declarations/generate", declarations.Generate)
	api.GET("/declarations/:id", declarations.Get)
	api.POST("/declarations/:id/validate", declarations.Validate)
	api.POST("/declarations/:id/transition", declarations.Transition)
	api.PATCH("/declarations/:id/header", declarations.UpdateHeader)
	api.PUT("/declarations/:id/items", declarations.UpsertItem)
	api.GET("/declarations/:id/report", declarations.Report)
	api.POST("/declarations/:id/xml", declarations.ProjectXML)
	api.GET("/declarations/:id/exports", declarations.Exports)
	api.GET("/declarations/:id/exports/latest", declarations.LatestExport)

	api.GET("/catalog/event-types", catalog.ListEventTypes)
	api.GET("/catalog/logical-fields", catalog.ListLogicalFields)
	api.GET("/catalog/rules", catalog.ListRules)
	api.GET("/catalog/field-maps", catalog.ListFieldMaps)

	admin := api.Group("", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleInspector))
	admin.POST("/catalog/event-types", catalog.CreateEventType)
	admin.POST("/catalog/logical-fields", catalog.CreateLogicalField)
	admin.POST("/catalog/rules", catalog.CreateRule)
	admin.PUT("/catalog/rules/:id", catalog.UpdateRule)
	admin.POST("/catalog/field-maps", catalog.CreateFieldMap)

	return r
}
