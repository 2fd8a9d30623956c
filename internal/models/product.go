package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WorkflowState is the publication state of a product
type WorkflowState string

const (
	WorkflowDraft    WorkflowState = "DRAFT"
	WorkflowPending  WorkflowState = "PENDING"
	WorkflowActive   WorkflowState = "ACTIVE"
	WorkflowInactive WorkflowState = "INACTIVE"
	WorkflowArchived WorkflowState = "ARCHIVED"
)

// ParseWorkflowState returns the known state for s, ignoring case
func ParseWorkflowState(s string) (WorkflowState, bool) {
	switch WorkflowState(strings.ToUpper(strings.TrimSpace(s))) {
	case WorkflowDraft:
		return WorkflowDraft, true
	case WorkflowPending:
		return WorkflowPending, true
	case WorkflowActive:
		return WorkflowActive, true
	case WorkflowInactive:
		return WorkflowInactive, true
	case WorkflowArchived:
		return WorkflowArchived, true
	}
	return "", false
}

// Product is the subset of a seller's listing that the catalog engine
// reads and writes. (tenant, seller, sku) is unique.
type Product struct {
	ID               uuid.UUID           `json:"id" gorm:"type:uuid;primary_key"`
	TenantID         string              `json:"tenantId" gorm:"not null;uniqueIndex:idx_product_seller_sku"`
	SellerID         string              `json:"sellerId" gorm:"not null;uniqueIndex:idx_product_seller_sku"`
	SKU              string              `json:"sku" gorm:"column:sku;not null;uniqueIndex:idx_product_seller_sku"`
	Title            string              `json:"title" gorm:"not null"`
	Description      *string             `json:"description,omitempty"`
	Price            decimal.Decimal     `json:"price" gorm:"type:decimal(12,2);not null"`
	Stock            int                 `json:"stock" gorm:"not null;default:0"`
	CategoryID       *uuid.UUID          `json:"categoryId,omitempty" gorm:"type:uuid;index"`
	Category         string              `json:"category"`
	WorkflowState    WorkflowState       `json:"workflowState" gorm:"not null;default:'DRAFT';index"`
	ShippingMethods  *string             `json:"shippingMethods,omitempty"`
	MainImageURL     *string             `json:"mainImageUrl,omitempty"`
	GalleryImageURLs *string             `json:"galleryImageUrls,omitempty"`
	WeightKg         decimal.NullDecimal `json:"weightKg" gorm:"type:decimal(10,3)"`
	LengthCm         decimal.NullDecimal `json:"lengthCm" gorm:"type:decimal(10,2)"`
	WidthCm          decimal.NullDecimal `json:"widthCm" gorm:"type:decimal(10,2)"`
	HeightCm         decimal.NullDecimal `json:"heightCm" gorm:"type:decimal(10,2)"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// ProductFilter narrows a seller's product listing
type ProductFilter struct {
	Search        string
	WorkflowState *WorkflowState
}
