package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
	"github.com/salyq-kz/declaration-service/internal/services"
)

// CatalogHandler serves the reference data: event types, logical fields,
// rules and XML field maps. Reads are open to every authenticated role,
// writes are restricted at the router.
type CatalogHandler struct {
	catalog *services.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// CreateEventType handles POST /api/v1/catalog/event-types
func (h *CatalogHandler) CreateEventType(c *gin.Context) {
	var req models.CreateEventTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.Unprocessable("invalid request body: %v", err))
		return
	}
	et, err := h.catalog.CreateEventType(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, et)
}

// ListEventTypes handles GET /api/v1/catalog/event-types
func (h *CatalogHandler) ListEventTypes(c *gin.Context) {
	types, err := h.catalog.ListEventTypes(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

// CreateLogicalField handles POST /api/v1/catalog/logical-fields
func (h *CatalogHandler) CreateLogicalField(c *gin.Context) {
	var req models.CreateLogicalFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.Unprocessable("invalid request body: %v", err))
		return
	}
	lf, err := h.catalog.CreateLogicalField(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, lf)
}

// ListLogicalFields handles GET /api/v1/catalog/logical-fields
func (h *CatalogHandler) ListLogicalFields(c *gin.Context) {
	fields, err := h.catalog.ListLogicalFields(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, fields)
}

// CreateRule handles POST /api/v1/catalog/rules
func (h *CatalogHandler) CreateRule(c *gin.Context) {
	var req models.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.Unprocessable("invalid request body: %v", err))
		return
	}
	rule, err := h.catalog.CreateRule(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// UpdateRule handles PUT /api/v1/catalog/rules/:id
func (h *CatalogHandler) UpdateRule(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	var req models.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.Unprocessable("invalid request body: %v", err))
		return
	}
	rule, err := h.catalog.UpdateRule(c.Request.Context(), id, &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// ListRules handles GET /api/v1/catalog/rules?year=YYYY. Without a year it
// returns the full catalog, with one only the rules active for that year.
func (h *CatalogHandler) ListRules(c *gin.Context) {
	var year *int
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			respondErr(c, apperr.Unprocessable("year must be an integer"))
			return
		}
		year = &y
	}
	rules, err := h.catalog.Rules(c.Request.Context(), year)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// CreateFieldMap handles POST /api/v1/catalog/field-maps
func (h *CatalogHandler) CreateFieldMap(c *gin.Context) {
	var req models.CreateFieldMapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.Unprocessable("invalid request body: %v", err))
		return
	}
	fm, err := h.catalog.CreateFieldMap(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, fm)
}

// ListFieldMaps handles GET /api/v1/catalog/field-maps
func (h *CatalogHandler) ListFieldMaps(c *gin.Context) {
	maps, err := h.catalog.FieldMaps(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, maps)
}
