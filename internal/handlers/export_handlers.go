package handlers

import (
	"net/http"

	"catalog-service/internal/models"
	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ExportHandler struct {
	service   *services.ExportService
	listLimit int
	logger    *logrus.Entry
}

func NewExportHandler(service *services.ExportService, listLimit int, logger *logrus.Logger) *ExportHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &ExportHandler{
		service:   service,
		listLimit: listLimit,
		logger:    logger.WithField("handler", "export"),
	}
}

// QueueExport starts an asynchronous catalog export
// @Summary Queue product export
// @Tags export
// @Accept json
// @Produce json
// @Param request body models.ExportRequest false "Export options"
// @Success 202 {object} models.SuccessResponse
// @Router /products/export [post]
func (h *ExportHandler) QueueExport(c *gin.Context) {
	tenantID, sellerID, ok := getSellerScope(c)
	if !ok {
		return
	}

	var req models.ExportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, services.CodeValidation, err.Error(), "")
			return
		}
	}

	job, err := h.service.Queue(c.Request.Context(), services.QueueExportInput{
		TenantID: tenantID,
		SellerID: sellerID,
		UserID:   c.GetString("user_id"),
		Request:  req,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	success(c, http.StatusAccepted, job)
}

func (h *ExportHandler) ListExportJobs(c *gin.Context) {
	tenantID, sellerID, ok := getSellerScope(c)
	if !ok {
		return
	}
	jobs, err := h.service.List(c.Request.Context(), tenantID, sellerID, queryLimit(c, h.listLimit))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	success(c, http.StatusOK, jobs)
}

func (h *ExportHandler) GetExportJob(c *gin.Context) {
	tenantID, sellerID, ok := getSellerScope(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	job, err := h.service.Get(c.Request.Context(), tenantID, sellerID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	success(c, http.StatusOK, job)
}

// DownloadExport streams a completed export file
// @Summary Download product export
// @Tags export
// @Produce octet-stream
// @Param id path string true "Export job ID"
// @Success 200 {file} file
// @Failure 409 {object} models.ErrorResponse
// @Router /products/export/jobs/{id}/download [get]
func (h *ExportHandler) DownloadExport(c *gin.Context) {
	tenantID, sellerID, ok := getSellerScope(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	job, err := h.service.Download(c.Request.Context(), tenantID, sellerID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+job.FileName)
	c.Data(http.StatusOK, job.ContentType, job.FileBytes)
}
