package handlers

import (
	"net/http"

	"catalog-service/internal/models"
	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type CategoryHandler struct {
	service *services.CategoryService
	logger  *logrus.Entry
}

func NewCategoryHandler(service *services.CategoryService, logger *logrus.Logger) *CategoryHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &CategoryHandler{
		service: service,
		logger:  logger.WithField("handler", "categories"),
	}
}

// GetTree returns the category forest
// @Summary Get category tree
// @Tags categories
// @Produce json
// @Param includeInactive query bool false "Include inactive categories"
// @Success 200 {object} models.SuccessResponse
// @Router /categories/tree [get]
func (h *CategoryHandler) GetTree(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	tree, err := h.service.GetTree(c.Request.Context(), tenantID, queryBool(c, "includeInactive"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	success(c, http.StatusOK, tree)
}

// ListCategories returns categories ordered by full path
// @Summary List categories
// @Tags categories
// @Produce json
// @Param includeInactive query bool false "Include inactive categories"
// @Success 200 {object} models.SuccessResponse
// @Router /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	list, err := h.service.List(c.Request.Context(), tenantID, queryBool(c, "includeInactive"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	success(c, http.StatusOK, list)
}

// GetCategory returns one category
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	category, err := h.service.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	success(c, http.StatusOK, category)
}

// CreateCategory creates a category
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Param category body models.CreateCategoryRequest true "Category"
// @Success 201 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}

	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, services.CodeValidation, err.Error(), "")
		return
	}

	category, err := h.service.Create(c.Request.Context(), tenantID, services.CreateCategoryInput{
		Name:        req.Name,
		ParentID:    req.ParentID,
		Description: req.Description,
		Slug:        req.Slug,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	success(c, http.StatusCreated, category)
}

// UpdateCategory renames and optionally moves a category. parentId moves
// it under another category, moveToRoot makes it a root, and omitting both
// keeps the current parent.
// @Summary Rename or move category
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param category body models.UpdateCategoryRequest true "Category"
// @Success 200 {object} models.SuccessResponse
// @Router /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, services.CodeValidation, err.Error(), "")
		return
	}

	category, err := h.service.Rename(c.Request.Context(), tenantID, id, services.RenameCategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		ParentID:    req.ParentID,
		MoveToRoot:  req.MoveToRoot,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	success(c, http.StatusOK, category)
}

func (h *CategoryHandler) UpdateSortOrder(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateSortOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, services.CodeValidation, err.Error(), "sortOrder")
		return
	}
	if err := h.service.UpdateSortOrder(c.Request.Context(), tenantID, id, req.SortOrder); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CategoryHandler) SetActive(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, services.CodeValidation, err.Error(), "isActive")
		return
	}
	if err := h.service.SetActive(c.Request.Context(), tenantID, id, req.IsActive); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteCategory deletes a leaf category, moving its products to reassignTo
// @Summary Delete category
// @Tags categories
// @Param id path string true "Category ID"
// @Param reassignTo query string false "Category receiving the products"
// @Success 200 {object} models.SuccessResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var reassignTo *uuid.UUID
	if raw := c.Query("reassignTo"); raw != "" {
		target, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, services.CodeValidation, "Invalid reassignTo", "reassignTo")
			return
		}
		reassignTo = &target
	}

	if err := h.service.Delete(c.Request.Context(), tenantID, id, reassignTo); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Category deleted successfully"})
}
