package repository

import (
	"context"
	"time"

	"catalog-service/internal/models"

	"github.com/google/uuid"
)

// CategoryRepositoryInterface is the category store plus the product label
// writes that must share a transaction with structural category edits
type CategoryRepositoryInterface interface {
	ListAll(ctx context.Context, tenantID string) ([]models.Category, error)
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Save(ctx context.Context, category *models.Category) error
	UpdateFields(ctx context.Context, tenantID string, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error

	CountProductsByCategory(ctx context.Context, tenantID string) (map[uuid.UUID]int64, error)
	RelabelProducts(ctx context.Context, tenantID string, categoryID uuid.UUID, label string) error
	ReassignProducts(ctx context.Context, tenantID string, fromID, toID uuid.UUID, label string) (int64, error)

	WithTransaction(ctx context.Context, tenantID string, fn func(txRepo CategoryRepositoryInterface) error) error
}

// AttributeRepositoryInterface stores attribute definitions and their
// category links
type AttributeRepositoryInterface interface {
	ListDefinitions(ctx context.Context, tenantID string) ([]models.AttributeDefinition, error)
	GetDefinition(ctx context.Context, tenantID string, id uuid.UUID) (*models.AttributeDefinition, error)
	CreateDefinition(ctx context.Context, def *models.AttributeDefinition) error
	SaveDefinition(ctx context.Context, def *models.AttributeDefinition) error

	LinkExists(ctx context.Context, tenantID string, categoryID, definitionID uuid.UUID) (bool, error)
	CreateLink(ctx context.Context, usage *models.AttributeUsage) error
	DeleteLink(ctx context.Context, tenantID string, categoryID, definitionID uuid.UUID) error
	ListLinks(ctx context.Context, tenantID string, categoryIDs []uuid.UUID) ([]models.AttributeUsage, error)
}

// ProductRepositoryInterface is the slice of product persistence the
// import and export pipelines depend on
type ProductRepositoryInterface interface {
	GetBySellerSKUs(ctx context.Context, tenantID, sellerID string, skus []string) (map[string]*models.Product, error)
	GetBySellerSKU(ctx context.Context, tenantID, sellerID, sku string) (*models.Product, error)
	GetByIDs(ctx context.Context, tenantID string, ids []uuid.UUID) ([]models.Product, error)
	ListFiltered(ctx context.Context, tenantID, sellerID string, filter models.ProductFilter) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
}

// ImportJobRepositoryInterface persists import jobs
type ImportJobRepositoryInterface interface {
	Create(ctx context.Context, job *models.ImportJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ImportJob, error)
	GetForSeller(ctx context.Context, tenantID, sellerID string, id uuid.UUID) (*models.ImportJob, error)
	ListBySeller(ctx context.Context, tenantID, sellerID string, limit int) ([]models.ImportJob, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.ImportStatus) (bool, error)
	Save(ctx context.Context, job *models.ImportJob) error
	Touch(ctx context.Context, id uuid.UUID) (bool, error)
	SaveResult(ctx context.Context, job *models.ImportJob) (bool, error)
	ListIDsByStatus(ctx context.Context, status models.ImportStatus, updatedBefore *time.Time) ([]uuid.UUID, error)
}

// ExportJobRepositoryInterface persists export jobs
type ExportJobRepositoryInterface interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ExportJob, error)
	GetForSeller(ctx context.Context, tenantID, sellerID string, id uuid.UUID) (*models.ExportJob, error)
	ListBySeller(ctx context.Context, tenantID, sellerID string, limit int) ([]models.ExportJob, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.ExportStatus) (bool, error)
	Save(ctx context.Context, job *models.ExportJob) error
	Touch(ctx context.Context, id uuid.UUID) (bool, error)
	SaveResult(ctx context.Context, job *models.ExportJob) (bool, error)
	ListIDsByStatus(ctx context.Context, status models.ExportStatus, updatedBefore *time.Time) ([]uuid.UUID, error)
}
