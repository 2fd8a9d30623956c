package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func errorResponse(code, message, field string) models.ErrorResponse {
	return models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: message,
			Field:   field,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func badRequest(c *gin.Context, code, message, field string) {
	c.JSON(http.StatusBadRequest, errorResponse(code, message, field))
}

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, models.SuccessResponse{Success: true, Data: data})
}

// respondError maps service errors onto HTTP statuses. Anything unexpected
// is logged and answered with a generic 500.
func respondError(c *gin.Context, logger *logrus.Entry, err error) {
	if svcErr, ok := services.AsServiceError(err); ok {
		status := http.StatusBadRequest
		switch svcErr.Code {
		case services.CodeNotFound:
			status = http.StatusNotFound
		case services.CodeConflict, services.CodeInvalidState:
			status = http.StatusConflict
		}
		c.JSON(status, errorResponse(svcErr.Code, svcErr.Message, svcErr.Field))
		return
	}

	switch {
	case errors.Is(err, services.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, errorResponse(services.CodeNotFound, "Category not found", ""))
		return
	case errors.Is(err, services.ErrAttributeNotFound):
		c.JSON(http.StatusNotFound, errorResponse(services.CodeNotFound, "Attribute not found", ""))
		return
	case errors.Is(err, services.ErrImportJobNotFound):
		c.JSON(http.StatusNotFound, errorResponse(services.CodeNotFound, "Import job not found", ""))
		return
	case errors.Is(err, services.ErrExportJobNotFound):
		c.JSON(http.StatusNotFound, errorResponse(services.CodeNotFound, "Export job not found", ""))
		return
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"path":      c.FullPath(),
		"tenant_id": c.GetString("tenant_id"),
	}).Error("Request failed")
	c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "An unexpected error occurred", ""))
}

// getTenantID extracts tenant ID from context - fails if not present
func getTenantID(c *gin.Context) (string, bool) {
	tenantID := c.GetString("tenant_id")
	if tenantID == "" {
		c.JSON(http.StatusUnauthorized, errorResponse("TENANT_REQUIRED", "Tenant context is required for this operation", ""))
		return "", false
	}
	return tenantID, true
}

func getSellerScope(c *gin.Context) (string, string, bool) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return "", "", false
	}
	sellerID := c.GetString("seller_id")
	if sellerID == "" {
		c.JSON(http.StatusUnauthorized, errorResponse("SELLER_REQUIRED", "Seller context is required for this operation", ""))
		return "", "", false
	}
	return tenantID, sellerID, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "INVALID_ID", "Invalid "+name, name)
		return uuid.Nil, false
	}
	return id, true
}

func queryBool(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}

// queryLimit reads ?limit, defaulting to and never exceeding max
func queryLimit(c *gin.Context, max int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 || (max > 0 && limit > max) {
		return max
	}
	return limit
}
