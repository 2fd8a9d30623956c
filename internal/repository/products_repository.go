package repository

import (
	"context"
	"errors"
	"strings"

	"catalog-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateSKU    = errors.New("a product with this SKU already exists for the seller")
)

type ProductsRepository struct {
	db *gorm.DB
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{db: db}
}

// GetBySellerSKUs returns the seller's products keyed by SKU, archived included
func (r *ProductsRepository) GetBySellerSKUs(ctx context.Context, tenantID, sellerID string, skus []string) (map[string]*models.Product, error) {
	found := make(map[string]*models.Product)
	if len(skus) == 0 {
		return found, nil
	}

	const chunk = 500
	for start := 0; start < len(skus); start += chunk {
		end := start + chunk
		if end > len(skus) {
			end = len(skus)
		}
		var products []models.Product
		err := r.db.WithContext(ctx).
			Where("tenant_id = ? AND seller_id = ? AND sku IN ?", tenantID, sellerID, skus[start:end]).
			Find(&products).Error
		if err != nil {
			return nil, err
		}
		for i := range products {
			found[products[i].SKU] = &products[i]
		}
	}
	return found, nil
}

func (r *ProductsRepository) GetBySellerSKU(ctx context.Context, tenantID, sellerID, sku string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND seller_id = ? AND sku = ?", tenantID, sellerID, sku).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *ProductsRepository) GetByIDs(ctx context.Context, tenantID string, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("sku ASC, id ASC").
		Find(&products).Error
	return products, err
}

// ListFiltered returns a seller's products ordered by SKU. Archived products
// are only listed when explicitly filtered for.
func (r *ProductsRepository) ListFiltered(ctx context.Context, tenantID, sellerID string, filter models.ProductFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("tenant_id = ? AND seller_id = ?", tenantID, sellerID)

	if filter.WorkflowState != nil {
		query = query.Where("workflow_state = ?", *filter.WorkflowState)
	} else {
		query = query.Where("workflow_state <> ?", models.WorkflowArchived)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(sku) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?", pattern, pattern, pattern)
	}

	var products []models.Product
	err := query.Order("sku ASC, id ASC").Find(&products).Error
	return products, err
}

func (r *ProductsRepository) Create(ctx context.Context, product *models.Product) error {
	err := r.db.WithContext(ctx).Create(product).Error
	if isUniqueViolation(err) {
		return ErrDuplicateSKU
	}
	return err
}

func (r *ProductsRepository) Update(ctx context.Context, product *models.Product) error {
	err := r.db.WithContext(ctx).Save(product).Error
	if isUniqueViolation(err) {
		return ErrDuplicateSKU
	}
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "duplicate key value")
}
