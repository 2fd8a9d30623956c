package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"catalog-service/internal/events"
	"catalog-service/internal/metrics"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/tabular"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const exportSheetName = "Products"

var ErrExportJobNotFound = errors.New("export job not found")

// QueueExportInput describes a requested export
type QueueExportInput struct {
	TenantID string
	SellerID string
	UserID   string
	Request  models.ExportRequest
}

// ExportService queues catalog exports and renders them on the worker pool
type ExportService struct {
	jobs      repository.ExportJobRepositoryInterface
	products  repository.ProductRepositoryInterface
	queue     JobQueue
	publisher *events.Publisher
	logger    *logrus.Entry
	now       func() time.Time
}

// NewExportService creates a new ExportService
func NewExportService(
	jobs repository.ExportJobRepositoryInterface,
	products repository.ProductRepositoryInterface,
	queue JobQueue,
	publisher *events.Publisher,
	logger *logrus.Logger,
) *ExportService {
	if logger == nil {
		logger = logrus.New()
	}
	return &ExportService{
		jobs:      jobs,
		products:  products,
		queue:     queue,
		publisher: publisher,
		logger:    logger.WithField("component", "export_service"),
		now:       time.Now,
	}
}

// Queue records an export job and hands it to the workers
func (s *ExportService) Queue(ctx context.Context, input QueueExportInput) (*models.ExportJob, error) {
	job := &models.ExportJob{
		ID:         uuid.New(),
		TenantID:   input.TenantID,
		SellerID:   input.SellerID,
		CreatedBy:  input.UserID,
		Format:     models.ParseExportFormat(input.Request.Format),
		UseFilters: input.Request.UseFilters,
		Status:     models.ExportStatusQueued,
	}

	if job.UseFilters {
		if input.Request.Search != nil {
			if search := strings.TrimSpace(*input.Request.Search); search != "" {
				job.Search = &search
			}
		}
		if input.Request.WorkflowState != nil {
			if state, ok := models.ParseWorkflowState(*input.Request.WorkflowState); ok {
				job.WorkflowState = &state
			}
		}
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create export job: %w", err)
	}

	if err := s.queue.Enqueue(job.ID); err != nil {
		s.logger.WithError(err).WithField("job_id", job.ID).Warn("Failed to enqueue export job")
	} else {
		metrics.JobsEnqueued.WithLabelValues(metrics.KindExport).Inc()
	}

	_ = s.publisher.PublishExportJobEvent(ctx, events.ExportJobQueued, job)
	return job, nil
}

// Get returns one of the seller's export jobs
func (s *ExportService) Get(ctx context.Context, tenantID, sellerID string, id uuid.UUID) (*models.ExportJob, error) {
	job, err := s.jobs.GetForSeller(ctx, tenantID, sellerID, id)
	if errors.Is(err, repository.ErrJobNotFound) {
		return nil, ErrExportJobNotFound
	}
	return job, err
}

// List returns the seller's export jobs, newest first
func (s *ExportService) List(ctx context.Context, tenantID, sellerID string, limit int) ([]models.ExportJob, error) {
	return s.jobs.ListBySeller(ctx, tenantID, sellerID, limit)
}

// Download returns a completed export's file
func (s *ExportService) Download(ctx context.Context, tenantID, sellerID string, id uuid.UUID) (*models.ExportJob, error) {
	job, err := s.Get(ctx, tenantID, sellerID, id)
	if err != nil {
		return nil, err
	}
	if job.Status != models.ExportStatusCompleted || len(job.FileBytes) == 0 {
		return nil, invalidStateError("Export is %s and has no file to download", job.Status)
	}
	return job, nil
}

// Process renders a queued export. It is only called by the worker pool.
func (s *ExportService) Process(ctx context.Context, id uuid.UUID) error {
	started := time.Now()
	log := s.logger.WithField("job_id", id)

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load export job: %w", err)
	}
	log = log.WithField("tenant_id", job.TenantID)

	moved, err := s.jobs.TransitionStatus(ctx, id, models.ExportStatusQueued, models.ExportStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to start export job: %w", err)
	}
	if !moved {
		log.WithField("status", job.Status).Info("Export job is not queued, skipping")
		return nil
	}
	job.Status = models.ExportStatusProcessing
	defer func() {
		metrics.JobDuration.WithLabelValues(metrics.KindExport).Observe(time.Since(started).Seconds())
	}()

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Export job panicked")
			s.fail(job, fmt.Sprintf("unexpected error: %v", r))
		}
	}()

	if renderErr := s.render(ctx, job); renderErr != nil {
		if ctx.Err() != nil {
			log.Warn("Export cancelled, returning job to the queue")
			s.requeue(job, log)
			return ctx.Err()
		}
		log.WithError(renderErr).Error("Export job failed")
		s.fail(job, renderErr.Error())
		return nil
	}

	s.finish(job)
	log.WithFields(logrus.Fields{
		"products": job.TotalProducts,
		"format":   job.Format,
	}).Info("Export job completed")
	return nil
}

func (s *ExportService) render(ctx context.Context, job *models.ExportJob) error {
	filter := models.ProductFilter{}
	if job.UseFilters {
		if job.Search != nil {
			filter.Search = *job.Search
		}
		filter.WorkflowState = job.WorkflowState
	}

	products, err := s.products.ListFiltered(ctx, job.TenantID, job.SellerID, filter)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].SKU != products[j].SKU {
			return products[i].SKU < products[j].SKU
		}
		return products[i].ID.String() < products[j].ID.String()
	})

	rows := make([][]string, 0, len(products))
	for i := range products {
		rows = append(rows, ExportRow(&products[i]))
	}

	var data []byte
	switch job.Format {
	case models.ExportFormatXLSX:
		data, err = tabular.WriteXLSX(exportSheetName, models.CatalogColumns, rows)
		job.ContentType = tabular.ContentTypeXLSX
	case models.ExportFormatXLS:
		data, err = tabular.WriteCSV(models.CatalogColumns, rows)
		job.ContentType = tabular.ContentTypeXLS
	default:
		data, err = tabular.WriteCSV(models.CatalogColumns, rows)
		job.ContentType = tabular.ContentTypeCSV
	}
	if err != nil {
		return fmt.Errorf("failed to render export: %w", err)
	}

	scope := "full catalog"
	if job.UseFilters && (job.Search != nil || job.WorkflowState != nil) {
		scope = "filtered"
	}

	job.FileBytes = data
	job.TotalProducts = len(products)
	job.FileName = fmt.Sprintf("products-export-%s.%s", s.now().UTC().Format("20060102150405"), job.Format)
	job.Summary = fmt.Sprintf("Exported %d products (%s).", len(products), scope)
	job.Status = models.ExportStatusCompleted
	job.Error = nil
	return nil
}

// ExportRow renders a product in catalog column order
func ExportRow(p *models.Product) []string {
	return []string{
		p.SKU,
		p.Title,
		stringValue(p.Description),
		p.Price.StringFixed(2),
		strconv.Itoa(p.Stock),
		p.Category,
		stringValue(p.ShippingMethods),
		stringValue(p.MainImageURL),
		stringValue(p.GalleryImageURLs),
		nullDecimalValue(p.WeightKg),
		nullDecimalValue(p.LengthCm),
		nullDecimalValue(p.WidthCm),
		nullDecimalValue(p.HeightCm),
	}
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullDecimalValue(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func (s *ExportService) fail(job *models.ExportJob, message string) {
	job.Status = models.ExportStatusFailed
	job.Error = &message
	job.FileBytes = nil
	job.ContentType = ""
	job.Summary = "Export failed"
	s.finish(job)
}

func (s *ExportService) requeue(job *models.ExportJob, log *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), finalWriteTimeout)
	defer cancel()
	if _, err := s.jobs.TransitionStatus(ctx, job.ID, models.ExportStatusProcessing, models.ExportStatusQueued); err != nil {
		log.WithError(err).Error("Failed to return export job to the queue")
	}
}

func (s *ExportService) finish(job *models.ExportJob) {
	ctx, cancel := context.WithTimeout(context.Background(), finalWriteTimeout)
	defer cancel()

	now := s.now()
	job.CompletedAt = &now
	saved, err := s.jobs.SaveResult(ctx, job)
	if err != nil {
		s.logger.WithError(err).WithField("job_id", job.ID).Error("Failed to save export job result")
		return
	}
	if !saved {
		s.logger.WithField("job_id", job.ID).Warn("Export job is no longer processing, result discarded")
		return
	}
	metrics.JobsFinished.WithLabelValues(metrics.KindExport, string(job.Status)).Inc()
	_ = s.publisher.PublishExportJobEvent(ctx, events.ExportJobFinished, job)
}
