package models

import (
	"time"

	"github.com/google/uuid"
)

// AttributeType is the value kind of a category attribute
type AttributeType string

const (
	AttributeTypeText   AttributeType = "text"
	AttributeTypeNumber AttributeType = "number"
	AttributeTypeList   AttributeType = "list"
)

// AttributeDefinition is shared across categories and deduplicated by
// its normalized (name, type, options) identity
type AttributeDefinition struct {
	ID           uuid.UUID     `json:"id" gorm:"type:uuid;primary_key"`
	TenantID     string        `json:"tenantId" gorm:"not null;index"`
	Name         string        `json:"name" gorm:"not null"`
	Type         AttributeType `json:"type" gorm:"not null;default:'text'"`
	IsRequired   bool          `json:"isRequired" gorm:"not null;default:false"`
	IsDeprecated bool          `json:"isDeprecated" gorm:"not null;default:false"`
	Options      *string       `json:"options,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// AttributeUsage links a definition to a category
type AttributeUsage struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	TenantID     string    `json:"tenantId" gorm:"not null;index"`
	CategoryID   uuid.UUID `json:"categoryId" gorm:"type:uuid;not null;uniqueIndex:idx_attribute_usage_pair"`
	DefinitionID uuid.UUID `json:"definitionId" gorm:"type:uuid;not null;uniqueIndex:idx_attribute_usage_pair"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AttributeInput is the payload for adding or updating a definition
type AttributeInput struct {
	Name       string  `json:"name" binding:"required"`
	Type       string  `json:"type"`
	IsRequired bool    `json:"isRequired"`
	Options    *string `json:"options,omitempty"`
}

// SetDeprecatedRequest toggles the soft deprecation flag
type SetDeprecatedRequest struct {
	IsDeprecated bool `json:"isDeprecated"`
}

// BatchAttributesRequest asks for definitions of several categories at once
type BatchAttributesRequest struct {
	CategoryIDs       []uuid.UUID `json:"categoryIds" binding:"required"`
	IncludeDeprecated bool        `json:"includeDeprecated"`
}
