package repository

import (
	"context"
	"errors"

	"catalog-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrAttributeNotFound = errors.New("attribute definition not found")

// AttributeRepository handles database operations for attribute definitions
type AttributeRepository struct {
	db *gorm.DB
}

// NewAttributeRepository creates a new AttributeRepository
func NewAttributeRepository(db *gorm.DB) *AttributeRepository {
	return &AttributeRepository{db: db}
}

func (r *AttributeRepository) ListDefinitions(ctx context.Context, tenantID string) ([]models.AttributeDefinition, error) {
	var defs []models.AttributeDefinition
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC, id ASC").
		Find(&defs).Error
	return defs, err
}

func (r *AttributeRepository) GetDefinition(ctx context.Context, tenantID string, id uuid.UUID) (*models.AttributeDefinition, error) {
	var def models.AttributeDefinition
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&def).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttributeNotFound
		}
		return nil, err
	}
	return &def, nil
}

func (r *AttributeRepository) CreateDefinition(ctx context.Context, def *models.AttributeDefinition) error {
	return r.db.WithContext(ctx).Create(def).Error
}

func (r *AttributeRepository) SaveDefinition(ctx context.Context, def *models.AttributeDefinition) error {
	return r.db.WithContext(ctx).Save(def).Error
}

func (r *AttributeRepository) LinkExists(ctx context.Context, tenantID string, categoryID, definitionID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AttributeUsage{}).
		Where("tenant_id = ? AND category_id = ? AND definition_id = ?", tenantID, categoryID, definitionID).
		Count(&count).Error
	return count > 0, err
}

// CreateLink inserts a usage row; an existing pair is left untouched
func (r *AttributeRepository) CreateLink(ctx context.Context, usage *models.AttributeUsage) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(usage).Error
}

func (r *AttributeRepository) DeleteLink(ctx context.Context, tenantID string, categoryID, definitionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND category_id = ? AND definition_id = ?", tenantID, categoryID, definitionID).
		Delete(&models.AttributeUsage{}).Error
}

// ListLinks returns usage rows for the given categories
func (r *AttributeRepository) ListLinks(ctx context.Context, tenantID string, categoryIDs []uuid.UUID) ([]models.AttributeUsage, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	var usages []models.AttributeUsage
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND category_id IN ?", tenantID, categoryIDs).
		Order("created_at ASC").
		Find(&usages).Error
	return usages, err
}
