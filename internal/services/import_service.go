package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-service/internal/events"
	"catalog-service/internal/metrics"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/tabular"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultMaxImportFileBytes caps the size of an uploaded import file
const DefaultMaxImportFileBytes = 10 * 1024 * 1024

const finalWriteTimeout = 30 * time.Second

// DefaultJobHeartbeat is how often a running job refreshes its updated_at.
// It must stay well below the recovery sweeper's staleness threshold.
const DefaultJobHeartbeat = time.Minute

var ErrImportJobNotFound = errors.New("import job not found")

var errProductArchived = errors.New("product was archived after validation")

// JobQueue hands job ids to background workers
type JobQueue interface {
	Enqueue(id uuid.UUID) error
}

// UploadInput describes an uploaded import file
type UploadInput struct {
	TenantID    string
	SellerID    string
	UserID      string
	FileName    string
	ContentType string
	Data        []byte
}

// ImportService runs the two-phase import: a synchronous preview that
// records a pending job, and an asynchronous commit that re-validates
// against the live catalog before applying rows
type ImportService struct {
	jobs         repository.ImportJobRepositoryInterface
	products     repository.ProductRepositoryInterface
	validator    *ImportValidator
	queue        JobQueue
	publisher    *events.Publisher
	logger       *logrus.Entry
	maxFileBytes int
	heartbeat    time.Duration
}

// NewImportService creates a new ImportService
func NewImportService(
	jobs repository.ImportJobRepositoryInterface,
	products repository.ProductRepositoryInterface,
	validator *ImportValidator,
	queue JobQueue,
	publisher *events.Publisher,
	logger *logrus.Logger,
	maxFileBytes int,
) *ImportService {
	if logger == nil {
		logger = logrus.New()
	}
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultMaxImportFileBytes
	}
	return &ImportService{
		jobs:         jobs,
		products:     products,
		validator:    validator,
		queue:        queue,
		publisher:    publisher,
		logger:       logger.WithField("component", "import_service"),
		maxFileBytes: maxFileBytes,
		heartbeat:    DefaultJobHeartbeat,
	}
}

// MaxFileBytes is the largest accepted upload
func (s *ImportService) MaxFileBytes() int {
	return s.maxFileBytes
}

func (s *ImportService) checkSize(data []byte) error {
	if len(data) > s.maxFileBytes {
		return validationError("file", "File is larger than the %d MB limit", s.maxFileBytes/(1024*1024))
	}
	return nil
}

// Preview validates an upload without recording anything
func (s *ImportService) Preview(ctx context.Context, input UploadInput) (*models.ImportPreview, error) {
	if err := s.checkSize(input.Data); err != nil {
		return nil, err
	}
	return s.validator.Preview(ctx, input.TenantID, input.SellerID, input.FileName, input.Data)
}

// Upload previews the file and, when it has no file-level errors, records
// a job awaiting the seller's confirmation
func (s *ImportService) Upload(ctx context.Context, input UploadInput) (*models.ImportPreview, *models.ImportJob, error) {
	preview, err := s.Preview(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	if preview.HasJobErrors() {
		return preview, nil, nil
	}

	job := &models.ImportJob{
		ID:                 uuid.New(),
		TenantID:           input.TenantID,
		SellerID:           input.SellerID,
		CreatedBy:          input.UserID,
		FileName:           input.FileName,
		FileContentType:    input.ContentType,
		FileBytes:          input.Data,
		Status:             models.ImportStatusPendingConfirmation,
		TotalRows:          preview.TotalRows,
		PlannedCreateCount: preview.CreateCount,
		PlannedUpdateCount: preview.UpdateCount,
		FailedCount:        preview.FailedRows,
		Summary: fmt.Sprintf("Ready to import %d rows: %d to create, %d to update, %d with errors.",
			preview.TotalRows-preview.BlankRows, preview.CreateCount, preview.UpdateCount, preview.FailedRows),
	}
	if len(preview.RowErrors) > 0 {
		report := buildErrorReport(nil, preview.RowErrors)
		job.ErrorReport = &report
		job.RowErrors = encodeRowErrors(preview.RowErrors)
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, nil, fmt.Errorf("failed to create import job: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"job_id":    job.ID,
		"tenant_id": job.TenantID,
		"seller_id": job.SellerID,
		"rows":      job.TotalRows,
	}).Info("Import job awaiting confirmation")
	return preview, job, nil
}

// Confirm queues a pending job for processing
func (s *ImportService) Confirm(ctx context.Context, tenantID, sellerID string, id uuid.UUID) (*models.ImportJob, error) {
	job, err := s.GetJob(ctx, tenantID, sellerID, id)
	if err != nil {
		return nil, err
	}
	if job.Status != models.ImportStatusPendingConfirmation {
		return nil, invalidStateError("Import job is %s and cannot be confirmed", job.Status)
	}

	moved, err := s.jobs.TransitionStatus(ctx, id, models.ImportStatusPendingConfirmation, models.ImportStatusQueued)
	if err != nil {
		return nil, fmt.Errorf("failed to queue import job: %w", err)
	}
	if !moved {
		return nil, invalidStateError("Import job has already been confirmed")
	}
	job.Status = models.ImportStatusQueued

	if err := s.queue.Enqueue(id); err != nil {
		// the recovery sweeper re-enqueues queued jobs
		s.logger.WithError(err).WithField("job_id", id).Warn("Failed to enqueue import job")
	} else {
		metrics.JobsEnqueued.WithLabelValues(metrics.KindImport).Inc()
	}

	_ = s.publisher.PublishImportJobEvent(ctx, events.ImportJobQueued, job)
	return job, nil
}

// GetJob returns one of the seller's import jobs
func (s *ImportService) GetJob(ctx context.Context, tenantID, sellerID string, id uuid.UUID) (*models.ImportJob, error) {
	job, err := s.jobs.GetForSeller(ctx, tenantID, sellerID, id)
	if errors.Is(err, repository.ErrJobNotFound) {
		return nil, ErrImportJobNotFound
	}
	return job, err
}

// ListJobs returns the seller's import jobs, newest first
func (s *ImportService) ListJobs(ctx context.Context, tenantID, sellerID string, limit int) ([]models.ImportJob, error) {
	return s.jobs.ListBySeller(ctx, tenantID, sellerID, limit)
}

// Template renders the import template in csv or xlsx form
func (s *ImportService) Template(format string) ([]byte, string, string, error) {
	template := models.ProductImportTemplate()
	if strings.EqualFold(format, "xlsx") {
		data, err := tabular.WriteTemplateXLSX(template)
		return data, tabular.ContentTypeXLSX, "products_import_template.xlsx", err
	}
	data, err := tabular.WriteTemplateCSV(template)
	return data, tabular.ContentTypeCSV, "products_import_template.csv", err
}

// Process commits a queued job. It is only called by the worker pool.
func (s *ImportService) Process(ctx context.Context, id uuid.UUID) error {
	started := time.Now()
	log := s.logger.WithField("job_id", id)

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load import job: %w", err)
	}
	log = log.WithField("tenant_id", job.TenantID)

	moved, err := s.jobs.TransitionStatus(ctx, id, models.ImportStatusQueued, models.ImportStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to start import job: %w", err)
	}
	if !moved {
		log.WithField("status", job.Status).Info("Import job is not queued, skipping")
		return nil
	}
	job.Status = models.ImportStatusProcessing
	defer func() {
		metrics.JobDuration.WithLabelValues(metrics.KindImport).Observe(time.Since(started).Seconds())
	}()

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Import job panicked")
			s.failJob(job, fmt.Sprintf("unexpected error: %v", r))
		}
	}()

	preview, err := s.validator.Preview(ctx, job.TenantID, job.SellerID, job.FileName, job.FileBytes)
	if err != nil {
		if ctx.Err() != nil {
			s.requeue(job, log)
			return ctx.Err()
		}
		log.WithError(err).Error("Import re-validation failed")
		s.failJob(job, err.Error())
		return nil
	}

	created, updated := 0, 0
	var applyErrors []models.ImportRowError
	lastBeat := started
	for i, row := range preview.ValidRows {
		if ctx.Err() != nil {
			log.WithField("applied_rows", i).Warn("Import cancelled, returning job to the queue")
			s.requeue(job, log)
			return ctx.Err()
		}
		if time.Since(lastBeat) >= s.heartbeat {
			if !s.touch(ctx, id, log) {
				log.WithField("applied_rows", i).Warn("Import job was reclaimed by the recovery sweeper, abandoning this run")
				return nil
			}
			lastBeat = time.Now()
		}

		wasCreated, err := s.applyRow(ctx, job, row)
		if err != nil {
			log.WithError(err).WithField("row", row.Row).Warn("Failed to apply import row")
			applyErrors = append(applyErrors, models.ImportRowError{
				Row:     row.Row,
				Column:  models.ColumnSKU,
				Code:    RowErrorApplyFailed,
				Message: fmt.Sprintf("Could not save SKU %q: %s", row.SKU, applyErrorMessage(err)),
			})
			metrics.ImportRows.WithLabelValues("failed").Inc()
			continue
		}
		if wasCreated {
			created++
			metrics.ImportRows.WithLabelValues("created").Inc()
		} else {
			updated++
			metrics.ImportRows.WithLabelValues("updated").Inc()
		}
	}

	rowErrors := append(append([]models.ImportRowError{}, preview.RowErrors...), applyErrors...)
	sortRowErrors(rowErrors)

	job.TotalRows = preview.TotalRows
	job.CreatedCount = created
	job.UpdatedCount = updated
	job.FailedCount = preview.FailedRows + len(applyErrors)
	job.Summary = fmt.Sprintf("Processed %d rows: %d created, %d updated, %d failed.",
		preview.TotalRows-preview.BlankRows, created, updated, job.FailedCount)

	hasErrors := len(rowErrors) > 0 || preview.HasJobErrors()
	if created+updated > 0 || !hasErrors {
		job.Status = models.ImportStatusCompleted
	} else {
		job.Status = models.ImportStatusFailed
	}
	if hasErrors {
		report := buildErrorReport(preview.JobErrors, rowErrors)
		job.ErrorReport = &report
		job.RowErrors = encodeRowErrors(rowErrors)
	} else {
		job.ErrorReport = nil
		job.RowErrors = nil
	}

	s.finish(job)
	log.WithFields(logrus.Fields{
		"status":  job.Status,
		"created": created,
		"updated": updated,
		"failed":  job.FailedCount,
	}).Info("Import job finished")
	return nil
}

// applyRow writes one validated row. The seller's product is looked up
// again so that changes since validation are respected.
func (s *ImportService) applyRow(ctx context.Context, job *models.ImportJob, row models.ImportRow) (created bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()

	categoryID := row.CategoryID
	existing, err := s.products.GetBySellerSKU(ctx, job.TenantID, job.SellerID, row.SKU)
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		product := &models.Product{
			ID:            uuid.New(),
			TenantID:      job.TenantID,
			SellerID:      job.SellerID,
			SKU:           row.SKU,
			WorkflowState: models.WorkflowDraft,
		}
		applyImportRow(product, row, &categoryID)
		if err := s.products.Create(ctx, product); err != nil {
			return false, err
		}
		return true, nil
	case err != nil:
		return false, err
	}

	if existing.WorkflowState == models.WorkflowArchived {
		return false, errProductArchived
	}
	applyImportRow(existing, row, &categoryID)
	if err := s.products.Update(ctx, existing); err != nil {
		return false, err
	}
	return false, nil
}

func applyImportRow(product *models.Product, row models.ImportRow, categoryID *uuid.UUID) {
	product.Title = row.Title
	product.Description = row.Description
	product.Price = row.Price
	product.Stock = row.Stock
	product.CategoryID = categoryID
	product.Category = row.CategoryPath
	product.ShippingMethods = row.ShippingMethods
	product.MainImageURL = row.MainImageURL
	product.GalleryImageURLs = row.GalleryImageURLs
	product.WeightKg = row.WeightKg
	product.LengthCm = row.LengthCm
	product.WidthCm = row.WidthCm
	product.HeightCm = row.HeightCm
}

// applyErrorMessage is what the seller sees in the error report; storage
// details stay in the logs
func applyErrorMessage(err error) string {
	switch {
	case errors.Is(err, repository.ErrDuplicateSKU):
		return "the SKU was created by another import at the same time, run the import again to update it"
	case errors.Is(err, errProductArchived):
		return "the product was archived after the file was checked"
	default:
		return "the product could not be saved, please try again"
	}
}

// touch refreshes the job heartbeat. It reports false when the job is no
// longer PROCESSING, i.e. another worker owns it now.
func (s *ImportService) touch(ctx context.Context, id uuid.UUID, log *logrus.Entry) bool {
	alive, err := s.jobs.Touch(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to refresh import job heartbeat")
		return true
	}
	return alive
}

// failJob records a job-level failure
func (s *ImportService) failJob(job *models.ImportJob, message string) {
	report := message
	job.Status = models.ImportStatusFailed
	job.ErrorReport = &report
	job.Summary = "Import failed: " + message
	s.finish(job)
}

// finish persists the terminal state; it must succeed even when the
// worker's context is already done
func (s *ImportService) finish(job *models.ImportJob) {
	ctx, cancel := context.WithTimeout(context.Background(), finalWriteTimeout)
	defer cancel()

	now := time.Now()
	job.CompletedAt = &now
	saved, err := s.jobs.SaveResult(ctx, job)
	if err != nil {
		s.logger.WithError(err).WithField("job_id", job.ID).Error("Failed to save import job result")
		return
	}
	if !saved {
		s.logger.WithField("job_id", job.ID).Warn("Import job is no longer processing, result discarded")
		return
	}
	metrics.JobsFinished.WithLabelValues(metrics.KindImport, string(job.Status)).Inc()
	_ = s.publisher.PublishImportJobEvent(ctx, events.ImportJobFinished, job)
}

// requeue returns an interrupted job to QUEUED so it is picked up again
func (s *ImportService) requeue(job *models.ImportJob, log *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), finalWriteTimeout)
	defer cancel()
	if _, err := s.jobs.TransitionStatus(ctx, job.ID, models.ImportStatusProcessing, models.ImportStatusQueued); err != nil {
		log.WithError(err).Error("Failed to return import job to the queue")
	}
}

// buildErrorReport joins job-level messages and row errors sorted by row
func buildErrorReport(jobErrors []string, rowErrors []models.ImportRowError) string {
	lines := make([]string, 0, len(jobErrors)+len(rowErrors))
	lines = append(lines, jobErrors...)
	sorted := append([]models.ImportRowError{}, rowErrors...)
	sortRowErrors(sorted)
	for _, e := range sorted {
		lines = append(lines, fmt.Sprintf("Row %d: %s", e.Row, e.Message))
	}
	return strings.Join(lines, "\n")
}

func encodeRowErrors(rowErrors []models.ImportRowError) []byte {
	data, err := json.Marshal(rowErrors)
	if err != nil {
		return nil
	}
	return data
}
