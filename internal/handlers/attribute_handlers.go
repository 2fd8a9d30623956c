package handlers

import (
	"net/http"

	"catalog-service/internal/models"
	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AttributeHandler struct {
	service *services.AttributeService
	logger  *logrus.Entry
}

func NewAttributeHandler(service *services.AttributeService, logger *logrus.Logger) *AttributeHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &AttributeHandler{
		service: service,
		logger:  logger.WithField("handler", "attributes"),
	}
}

// GetForCategory lists the attributes linked to a category
// @Summary Category attributes
// @Tags attributes
// @Produce json
// @Param id path string true "Category ID"
// @Param includeDeprecated query bool false "Include deprecated attributes"
// @Success 200 {object} models.SuccessResponse
// @Router /categories/{id}/attributes [get]
func (h *AttributeHandler) GetForCategory(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	categoryID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	defs, err := h.service.GetForCategory(c.Request.Context(), tenantID, categoryID, queryBool(c, "includeDeprecated"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	success(c, http.StatusOK, defs)
}

func (h *AttributeHandler) GetLinkable(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	categoryID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	defs, err := h.service.GetLinkable(c.Request.Context(), tenantID, categoryID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	success(c, http.StatusOK, defs)
}

// GetForCategories answers attribute lookups for many categories at once.
// The response is keyed by category id.
func (h *AttributeHandler) GetForCategories(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	var req models.BatchAttributesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, services.CodeValidation, err.Error(), "categoryIds")
		return
	}
	byCategory, err := h.service.GetForCategories(c.Request.Context(), tenantID, req.CategoryIDs, req.IncludeDeprecated)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	data := make(map[string][]models.AttributeDefinition, len(byCategory))
	for id, defs := range byCategory {
		data[id.String()] = defs
	}
	success(c, http.StatusOK, data)
}

// AddOrLink adds an attribute to a category, reusing an identical definition
// @Summary Add attribute to category
// @Tags attributes
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param attribute body models.AttributeInput true "Attribute"
// @Success 201 {object} models.SuccessResponse
// @Router /categories/{id}/attributes [post]
func (h *AttributeHandler) AddOrLink(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	categoryID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req models.AttributeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, services.CodeValidation, err.Error(), "")
		return
	}
	def, err := h.service.AddOrLink(c.Request.Context(), tenantID, categoryID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	success(c, http.StatusCreated, def)
}

func (h *AttributeHandler) LinkExisting(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	categoryID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	definitionID, ok := parseUUIDParam(c, "definitionId")
	if !ok {
		return
	}
	if err := h.service.LinkExisting(c.Request.Context(), tenantID, definitionID, categoryID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AttributeHandler) Unlink(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	categoryID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	definitionID, ok := parseUUIDParam(c, "definitionId")
	if !ok {
		return
	}
	if err := h.service.Unlink(c.Request.Context(), tenantID, definitionID, categoryID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AttributeHandler) UpdateDefinition(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req models.AttributeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, services.CodeValidation, err.Error(), "")
		return
	}
	def, err := h.service.UpdateDefinition(c.Request.Context(), tenantID, id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	success(c, http.StatusOK, def)
}

func (h *AttributeHandler) SetDeprecated(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req models.SetDeprecatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, services.CodeValidation, err.Error(), "isDeprecated")
		return
	}
	if err := h.service.SetDeprecated(c.Request.Context(), tenantID, id, req.IsDeprecated); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
