package handlers

import (
	"io"
	"net/http"
	"strings"

	"catalog-service/internal/models"
	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ImportHandler struct {
	service   *services.ImportService
	listLimit int
	logger    *logrus.Entry
}

func NewImportHandler(service *services.ImportService, listLimit int, logger *logrus.Logger) *ImportHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &ImportHandler{
		service:   service,
		listLimit: listLimit,
		logger:    logger.WithField("handler", "import"),
	}
}

// GetImportTemplate returns the import template definition or file
// GET /api/v1/products/import/template
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": models.ProductImportTemplate(),
		})
		return
	}

	data, contentType, fileName, err := h.service.Template(format)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, contentType, data)
}

// readUpload reads the multipart "file" field, stopping one byte past the
// size limit so the service can reject oversized files
func (h *ImportHandler) readUpload(c *gin.Context) (services.UploadInput, bool) {
	tenantID, sellerID, ok := getSellerScope(c)
	if !ok {
		return services.UploadInput{}, false
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, "FILE_REQUIRED", "Please upload a CSV or Excel file", "file")
		return services.UploadInput{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, int64(h.service.MaxFileBytes())+1))
	if err != nil {
		badRequest(c, "UPLOAD_FAILED", "Could not read the uploaded file", "file")
		return services.UploadInput{}, false
	}

	return services.UploadInput{
		TenantID:    tenantID,
		SellerID:    sellerID,
		UserID:      c.GetString("user_id"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, true
}

// PreviewImport validates a file without recording a job
// @Summary Preview product import
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV, XLS or XLSX file"
// @Success 200 {object} models.ImportPreviewResponse
// @Router /products/import/preview [post]
func (h *ImportHandler) PreviewImport(c *gin.Context) {
	input, ok := h.readUpload(c)
	if !ok {
		return
	}
	preview, err := h.service.Preview(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.ImportPreviewResponse{Success: !preview.HasJobErrors(), Preview: preview})
}

// UploadImport validates a file and, when it is usable, records a job that
// waits for confirmation. A file with file-level errors gets 422 and no job.
// @Summary Upload product import
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV, XLS or XLSX file"
// @Success 201 {object} models.ImportPreviewResponse
// @Failure 422 {object} models.ImportPreviewResponse
// @Router /products/import [post]
func (h *ImportHandler) UploadImport(c *gin.Context) {
	input, ok := h.readUpload(c)
	if !ok {
		return
	}
	preview, job, err := h.service.Upload(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if job == nil {
		c.JSON(http.StatusUnprocessableEntity, models.ImportPreviewResponse{Success: false, Preview: preview})
		return
	}
	c.JSON(http.StatusCreated, models.ImportPreviewResponse{Success: true, Preview: preview, Job: job})
}

// ConfirmImport queues a pending import job
// @Summary Confirm product import
// @Tags import
// @Produce json
// @Param id path string true "Import job ID"
// @Success 202 {object} models.SuccessResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /products/import/jobs/{id}/confirm [post]
func (h *ImportHandler) ConfirmImport(c *gin.Context) {
	tenantID, sellerID, ok := getSellerScope(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	job, err := h.service.Confirm(c.Request.Context(), tenantID, sellerID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	success(c, http.StatusAccepted, job)
}

func (h *ImportHandler) ListImportJobs(c *gin.Context) {
	tenantID, sellerID, ok := getSellerScope(c)
	if !ok {
		return
	}
	jobs, err := h.service.ListJobs(c.Request.Context(), tenantID, sellerID, queryLimit(c, h.listLimit))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	success(c, http.StatusOK, jobs)
}

func (h *ImportHandler) GetImportJob(c *gin.Context) {
	tenantID, sellerID, ok := getSellerScope(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	job, err := h.service.GetJob(c.Request.Context(), tenantID, sellerID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	success(c, http.StatusOK, job)
}
