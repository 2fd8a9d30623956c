package repository

import (
	"context"
	"errors"
	"time"

	"catalog-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrJobNotFound = errors.New("job not found")

// ImportJobRepository handles database operations for import jobs
type ImportJobRepository struct {
	db *gorm.DB
}

// NewImportJobRepository creates a new import job repository
func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

func (r *ImportJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// GetByID loads a job without seller scoping, for background workers
func (r *ImportJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ImportJob, error) {
	var job models.ImportJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *ImportJobRepository) GetForSeller(ctx context.Context, tenantID, sellerID string, id uuid.UUID) (*models.ImportJob, error) {
	var job models.ImportJob
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ? AND seller_id = ?", id, tenantID, sellerID).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// ListBySeller returns a seller's jobs newest first, without file payloads
func (r *ImportJobRepository) ListBySeller(ctx context.Context, tenantID, sellerID string, limit int) ([]models.ImportJob, error) {
	var jobs []models.ImportJob
	query := r.db.WithContext(ctx).
		Omit("file_bytes").
		Where("tenant_id = ? AND seller_id = ?", tenantID, sellerID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&jobs).Error
	return jobs, err
}

// TransitionStatus moves a job from one status to another only if it is
// still in the expected status; it reports whether the move happened
func (r *ImportJobRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.ImportStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	return result.RowsAffected == 1, result.Error
}

func (r *ImportJobRepository) Save(ctx context.Context, job *models.ImportJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// Touch bumps updated_at of a job that is still PROCESSING so the recovery
// sweeper does not treat it as lost. It reports false once the job has been
// moved out of PROCESSING by someone else.
func (r *ImportJobRepository) Touch(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ? AND status = ?", id, models.ImportStatusProcessing).
		Update("updated_at", time.Now())
	return result.RowsAffected == 1, result.Error
}

// SaveResult writes a worker's final job state only while the stored job is
// still PROCESSING
func (r *ImportJobRepository) SaveResult(ctx context.Context, job *models.ImportJob) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(job).
		Where("status = ?", models.ImportStatusProcessing).
		Select("*").
		Omit("id", "created_at").
		Updates(job)
	return result.RowsAffected == 1, result.Error
}

// ListIDsByStatus returns ids of jobs in status, optionally only those not
// touched since updatedBefore
func (r *ImportJobRepository) ListIDsByStatus(ctx context.Context, status models.ImportStatus, updatedBefore *time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("status = ?", status)
	if updatedBefore != nil {
		query = query.Where("updated_at < ?", *updatedBefore)
	}
	err := query.Order("created_at ASC").Pluck("id", &ids).Error
	return ids, err
}

// ExportJobRepository handles database operations for export jobs
type ExportJobRepository struct {
	db *gorm.DB
}

// NewExportJobRepository creates a new export job repository
func NewExportJobRepository(db *gorm.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *ExportJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ExportJob, error) {
	var job models.ExportJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *ExportJobRepository) GetForSeller(ctx context.Context, tenantID, sellerID string, id uuid.UUID) (*models.ExportJob, error) {
	var job models.ExportJob
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ? AND seller_id = ?", id, tenantID, sellerID).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *ExportJobRepository) ListBySeller(ctx context.Context, tenantID, sellerID string, limit int) ([]models.ExportJob, error) {
	var jobs []models.ExportJob
	query := r.db.WithContext(ctx).
		Omit("file_bytes").
		Where("tenant_id = ? AND seller_id = ?", tenantID, sellerID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&jobs).Error
	return jobs, err
}

func (r *ExportJobRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.ExportStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ExportJob{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	return result.RowsAffected == 1, result.Error
}

func (r *ExportJobRepository) Save(ctx context.Context, job *models.ExportJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

func (r *ExportJobRepository) Touch(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ExportJob{}).
		Where("id = ? AND status = ?", id, models.ExportStatusProcessing).
		Update("updated_at", time.Now())
	return result.RowsAffected == 1, result.Error
}

func (r *ExportJobRepository) SaveResult(ctx context.Context, job *models.ExportJob) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(job).
		Where("status = ?", models.ExportStatusProcessing).
		Select("*").
		Omit("id", "created_at").
		Updates(job)
	return result.RowsAffected == 1, result.Error
}

func (r *ExportJobRepository) ListIDsByStatus(ctx context.Context, status models.ExportStatus, updatedBefore *time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).
		Model(&models.ExportJob{}).
		Where("status = ?", status)
	if updatedBefore != nil {
		query = query.Where("updated_at < ?", *updatedBefore)
	}
	err := query.Order("created_at ASC").Pluck("id", &ids).Error
	return ids, err
}
