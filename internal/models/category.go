package models

import (
	"time"

	"github.com/google/uuid"
)

// PathSeparator joins ancestor names into a category's full path
const PathSeparator = " / "

// DefaultCategoryName is seeded when a tenant has no categories yet
const DefaultCategoryName = "General"

// Category represents a node in the product category tree
type Category struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	TenantID    string     `json:"tenantId" gorm:"not null;index"`
	Name        string     `json:"name" gorm:"not null"`
	Slug        string     `json:"slug" gorm:"not null"`
	FullPath    string     `json:"fullPath" gorm:"not null"`
	ParentID    *uuid.UUID `json:"parentId,omitempty" gorm:"type:uuid;index"`
	SortOrder   int        `json:"sortOrder" gorm:"not null;default:0"`
	IsActive    bool       `json:"isActive" gorm:"not null;default:true"`
	Description *string    `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CategoryNode is a category annotated for tree rendering
type CategoryNode struct {
	Category
	Depth        int             `json:"depth"`
	ProductCount int64           `json:"productCount"`
	Children     []*CategoryNode `json:"children"`
}

// CreateCategoryRequest is the payload for creating a category
type CreateCategoryRequest struct {
	Name        string     `json:"name" binding:"required"`
	ParentID    *uuid.UUID `json:"parentId,omitempty"`
	Description *string    `json:"description,omitempty"`
	Slug        *string    `json:"slug,omitempty"`
}

// UpdateCategoryRequest renames and optionally moves a category. Without
// parentId or moveToRoot the category keeps its parent.
type UpdateCategoryRequest struct {
	Name        string     `json:"name" binding:"required"`
	Slug        *string    `json:"slug,omitempty"`
	ParentID    *uuid.UUID `json:"parentId,omitempty"`
	MoveToRoot  bool       `json:"moveToRoot,omitempty"`
	Description *string    `json:"description,omitempty"`
}

// UpdateSortOrderRequest sets a category's position among its siblings
type UpdateSortOrderRequest struct {
	SortOrder int `json:"sortOrder"`
}

// SetActiveRequest toggles a category's visibility
type SetActiveRequest struct {
	IsActive bool `json:"isActive"`
}
