package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/middleware"
)

// statusOf maps an error kind to its HTTP status
func statusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnprocessable:
		return http.StatusUnprocessableEntity
	case apperr.KindParse:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondErr writes the error envelope; unexpected failures are logged here
// so the handlers stay quiet about the error paths they merely forward
func respondErr(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).WithError(err).Error("Request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// pathID parses the :id path parameter as a UUID
func pathID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Unprocessable("id must be a UUID")
	}
	return id, nil
}

// checkScope enforces taxpayer isolation: inspectors and admins see
// everything, a taxpayer token only its own records
func checkScope(c *gin.Context, taxpayerID uuid.UUID) error {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		return apperr.Forbidden("missing token claims")
	}
	switch claims.Role {
	case middleware.RoleAdmin, middleware.RoleInspector:
		return nil
	case middleware.RoleTaxpayer:
		if claims.TaxpayerID == taxpayerID.String() {
			return nil
		}
		return apperr.Forbidden("token is scoped to another taxpayer")
	default:
		return apperr.Forbidden("unknown role %q", claims.Role)
	}
}
