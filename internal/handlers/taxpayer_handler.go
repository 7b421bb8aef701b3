package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
	"github.com/salyq-kz/declaration-service/internal/services"
)

// TaxpayerHandler serves taxpayer registration and the per-taxpayer reads
// (source records, normalized events, declarations).
type TaxpayerHandler struct {
	taxpayers    *services.TaxpayerService
	ingestion    *services.IngestionService
	declarations *services.DeclarationService
}

// NewTaxpayerHandler creates a new taxpayer handler
func NewTaxpayerHandler(
	taxpayers *services.TaxpayerService,
	ingestion *services.IngestionService,
	declarations *services.DeclarationService,
) *TaxpayerHandler {
	return &TaxpayerHandler{
		taxpayers:    taxpayers,
		ingestion:    ingestion,
		declarations: declarations,
	}
}

// Create handles POST /api/v1/taxpayers
func (h *TaxpayerHandler) Create(c *gin.Context) {
	var req models.CreateTaxpayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.Unprocessable("invalid request body: %v", err))
		return
	}
	tp, err := h.taxpayers.Create(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, tp)
}

// Get handles GET /api/v1/taxpayers/:id
func (h *TaxpayerHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := checkScope(c, id); err != nil {
		respondErr(c, err)
		return
	}
	tp, err := h.taxpayers.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, tp)
}

// List handles GET /api/v1/taxpayers; ?iin= narrows to one taxpayer
func (h *TaxpayerHandler) List(c *gin.Context) {
	if iin := c.Query("iin"); iin != "" {
		tp, err := h.taxpayers.GetByIIN(c.Request.Context(), iin)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, []models.Taxpayer{*tp})
		return
	}
	tps, err := h.taxpayers.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, tps)
}

// Sources handles GET /api/v1/taxpayers/:id/sources
func (h *TaxpayerHandler) Sources(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := checkScope(c, id); err != nil {
		respondErr(c, err)
		return
	}
	sources, err := h.ingestion.Sources(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sources)
}

// Events handles GET /api/v1/taxpayers/:id/events?year=YYYY
func (h *TaxpayerHandler) Events(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := checkScope(c, id); err != nil {
		respondErr(c, err)
		return
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		respondErr(c, apperr.Unprocessable("year query parameter is required"))
		return
	}
	events, err := h.ingestion.Events(c.Request.Context(), id, year)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// Declarations handles GET /api/v1/taxpayers/:id/declarations
func (h *TaxpayerHandler) Declarations(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := checkScope(c, id); err != nil {
		respondErr(c, err)
		return
	}
	decls, err := h.declarations.List(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, decls)
}
