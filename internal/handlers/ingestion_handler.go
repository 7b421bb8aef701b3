package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
	"github.com/salyq-kz/declaration-service/internal/services"
)

// IngestionHandler serves source-record intake and parsing
type IngestionHandler struct {
	ingestion *services.IngestionService
}

// NewIngestionHandler creates a new ingestion handler
func NewIngestionHandler(ingestion *services.IngestionService) *IngestionHandler {
	return &IngestionHandler{ingestion: ingestion}
}

// Ingest handles POST /api/v1/source-records
func (h *IngestionHandler) Ingest(c *gin.Context) {
	var req models.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.Unprocessable("invalid request body: %v", err))
		return
	}
	if err := checkScope(c, req.TaxpayerID); err != nil {
		respondErr(c, err)
		return
	}
	resp, err := h.ingestion.Ingest(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

// Parse handles POST /api/v1/source-records/:id/parse
func (h *IngestionHandler) Parse(c *gin.Context) {
	id, err := h.scopedSource(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	resp, err := h.ingestion.Parse(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reparse handles POST /api/v1/source-records/:id/reparse
func (h *IngestionHandler) Reparse(c *gin.Context) {
	id, err := h.scopedSource(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	resp, err := h.ingestion.Reparse(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deactivate handles DELETE /api/v1/source-records/:id
func (h *IngestionHandler) Deactivate(c *gin.Context) {
	id, err := h.scopedSource(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := h.ingestion.Deactivate(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// scopedSource resolves :id and checks the caller may touch the record's
// taxpayer
func (h *IngestionHandler) scopedSource(c *gin.Context) (uuid.UUID, error) {
	id, err := pathID(c)
	if err != nil {
		return uuid.Nil, err
	}
	rec, err := h.ingestion.Source(c.Request.Context(), id)
	if err != nil {
		return uuid.Nil, err
	}
	if err := checkScope(c, rec.TaxpayerID); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
