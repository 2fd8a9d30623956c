package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog-service/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CategoryListCacheTTL bounds how long a tenant's category list is cached
const CategoryListCacheTTL = 15 * time.Minute

var ErrCategoryNotFound = errors.New("category not found")

type CategoryRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewCategoryRepository(db *gorm.DB, redis *redis.Client) *CategoryRepository {
	return &CategoryRepository{
		db:    db,
		redis: redis,
	}
}

func categoryListKey(tenantID string) string {
	return fmt.Sprintf("catalog:categories:list:%s", tenantID)
}

// invalidateCategoryCaches drops the cached category list for a tenant
func (r *CategoryRepository) invalidateCategoryCaches(ctx context.Context, tenantID string) {
	if r.redis == nil {
		return
	}
	r.redis.Del(ctx, categoryListKey(tenantID))
}

// ListAll returns every category of a tenant, cached in redis when available
func (r *CategoryRepository) ListAll(ctx context.Context, tenantID string) ([]models.Category, error) {
	cacheKey := categoryListKey(tenantID)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var categories []models.Category
			if err := json.Unmarshal([]byte(val), &categories); err == nil {
				return categories, nil
			}
		}
	}

	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(categories); err == nil {
			r.redis.Set(ctx, cacheKey, data, CategoryListCacheTTL)
		}
	}

	return categories, nil
}

// GetByID retrieves a category by ID with tenant isolation
func (r *CategoryRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return err
	}
	r.invalidateCategoryCaches(ctx, category.TenantID)
	return nil
}

func (r *CategoryRepository) Save(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return err
	}
	r.invalidateCategoryCaches(ctx, category.TenantID)
	return nil
}

// UpdateFields writes a partial update guarded only by existence
func (r *CategoryRepository) UpdateFields(ctx context.Context, tenantID string, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	r.invalidateCategoryCaches(ctx, tenantID)
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&models.Category{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	r.invalidateCategoryCaches(ctx, tenantID)
	return nil
}

// CountProductsByCategory aggregates product counts per category id
func (r *CategoryRepository) CountProductsByCategory(ctx context.Context, tenantID string) (map[uuid.UUID]int64, error) {
	var rows []struct {
		CategoryID uuid.UUID
		Count      int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("category_id, COUNT(*) AS count").
		Where("tenant_id = ? AND category_id IS NOT NULL", tenantID).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Count
	}
	return counts, nil
}

// RelabelProducts rewrites the denormalized category label of every product
// assigned to categoryID
func (r *CategoryRepository) RelabelProducts(ctx context.Context, tenantID string, categoryID uuid.UUID, label string) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("tenant_id = ? AND category_id = ?", tenantID, categoryID).
		Updates(map[string]interface{}{
			"category":   label,
			"updated_at": time.Now(),
		}).Error
}

// ReassignProducts moves every product from one category to another
func (r *CategoryRepository) ReassignProducts(ctx context.Context, tenantID string, fromID, toID uuid.UUID, label string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("tenant_id = ? AND category_id = ?", tenantID, fromID).
		Updates(map[string]interface{}{
			"category_id": toID,
			"category":    label,
			"updated_at":  time.Now(),
		})
	return result.RowsAffected, result.Error
}

// WithTransaction runs fn against a transaction-scoped repository and
// invalidates the tenant's cache once the transaction commits
func (r *CategoryRepository) WithTransaction(ctx context.Context, tenantID string, fn func(txRepo CategoryRepositoryInterface) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&CategoryRepository{db: tx})
	})
	if err != nil {
		return err
	}
	r.invalidateCategoryCaches(ctx, tenantID)
	return nil
}
