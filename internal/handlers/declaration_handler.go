package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
	"github.com/salyq-kz/declaration-service/internal/services"
)

// DeclarationHandler serves the declaration lifecycle: engine runs,
// generation, workflow transitions, manual edits and XML projection.
type DeclarationHandler struct {
	declarations *services.DeclarationService
	exports      *services.ExportService
}

// NewDeclarationHandler creates a new declaration handler
func NewDeclarationHandler(
	declarations *services.DeclarationService,
	exports *services.ExportService,
) *DeclarationHandler {
	return &DeclarationHandler{declarations: declarations, exports: exports}
}

// RunEngine handles POST /api/v1/engine/run. The run is a dry one: nothing
// is persisted, the caller gets the would-be field values back.
func (h *DeclarationHandler) RunEngine(c *gin.Context) {
	var req models.RunEngineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.Unprocessable("invalid request body: %v", err))
		return
	}
	if err := checkScope(c, req.TaxpayerID); err != nil {
		respondErr(c, err)
		return
	}
	result, err := h.declarations.RunEngine(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Generate handles POST /api/v1/declarations/generate
func (h *DeclarationHandler) Generate(c *gin.Context) {
	var req models.GenerateDeclarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.Unprocessable("invalid request body: %v", err))
		return
	}
	if err := checkScope(c, req.TaxpayerID); err != nil {
		respondErr(c, err)
		return
	}
	decl, result, err := h.declarations.Generate(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"declaration": decl, "run": result})
}

// Get handles GET /api/v1/declarations/:id
func (h *DeclarationHandler) Get(c *gin.Context) {
	decl, err := h.scopedDeclaration(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, decl)
}

// Validate handles POST /api/v1/declarations/:id/validate. A failed business
// gate answers 422 with the report attached so the caller sees what to fix.
func (h *DeclarationHandler) Validate(c *gin.Context) {
	decl, err := h.scopedDeclaration(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	decl, gate, err := h.declarations.Validate(c.Request.Context(), decl.ID)
	if err != nil {
		if gate != nil {
			c.JSON(statusOf(err), gin.H{"error": err.Error(), "report": gate})
			return
		}
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"declaration": decl, "report": gate})
}

// Transition handles POST /api/v1/declarations/:id/transition
func (h *DeclarationHandler) Transition(c *gin.Context) {
	decl, err := h.scopedDeclaration(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	var req models.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.Unprocessable("invalid request body: %v", err))
		return
	}
	decl, err = h.declarations.Transition(c.Request.Context(), decl.ID, req.Target)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, decl)
}

// UpdateHeader handles PATCH /api/v1/declarations/:id/header
func (h *DeclarationHandler) UpdateHeader(c *gin.Context) {
	decl, err := h.scopedDeclaration(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	var req models.UpdateHeaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.Unprocessable("invalid request body: %v", err))
		return
	}
	decl, err = h.declarations.UpdateHeader(c.Request.Context(), decl.ID, &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, decl)
}

// UpsertItem handles PUT /api/v1/declarations/:id/items
func (h *DeclarationHandler) UpsertItem(c *gin.Context) {
	decl, err := h.scopedDeclaration(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	var req models.UpsertItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.Unprocessable("invalid request body: %v", err))
		return
	}
	decl, err = h.declarations.UpsertItem(c.Request.Context(), decl.ID, &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, decl)
}

// Report handles GET /api/v1/declarations/:id/report
func (h *DeclarationHandler) Report(c *gin.Context) {
	decl, err := h.scopedDeclaration(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	report, err := h.declarations.LatestReport(c.Request.Context(), decl.ID, models.ReportKindBusiness)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ProjectXML handles POST /api/v1/declarations/:id/xml
func (h *DeclarationHandler) ProjectXML(c *gin.Context) {
	decl, err := h.scopedDeclaration(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	export, err := h.exports.ProjectXML(c.Request.Context(), decl.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, export)
}

// Exports handles GET /api/v1/declarations/:id/exports
func (h *DeclarationHandler) Exports(c *gin.Context) {
	decl, err := h.scopedDeclaration(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	exports, err := h.exports.Exports(c.Request.Context(), decl.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, exports)
}

// LatestExport handles GET /api/v1/declarations/:id/exports/latest. The raw
// payload comes back as XML, not wrapped in JSON, so it can be piped
// straight into the portal upload.
func (h *DeclarationHandler) LatestExport(c *gin.Context) {
	decl, err := h.scopedDeclaration(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	export, err := h.exports.Latest(c.Request.Context(), decl.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Header("X-Content-Hash", export.ContentHash)
	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(export.Payload))
}

// scopedDeclaration resolves :id and checks the caller may touch the
// declaration's taxpayer
func (h *DeclarationHandler) scopedDeclaration(c *gin.Context) (*models.Declaration, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}
	decl, err := h.declarations.Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := checkScope(c, decl.TaxpayerID); err != nil {
		return nil, err
	}
	return decl, nil
}
