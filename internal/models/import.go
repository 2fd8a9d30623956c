package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ImportStatus represents the status of an import job
type ImportStatus string

const (
	ImportStatusPendingConfirmation ImportStatus = "PENDING_CONFIRMATION"
	ImportStatusQueued              ImportStatus = "QUEUED"
	ImportStatusProcessing          ImportStatus = "PROCESSING"
	ImportStatusCompleted           ImportStatus = "COMPLETED"
	ImportStatusFailed              ImportStatus = "FAILED"
)

// Import column names, as normalized by the tabular parser
const (
	ColumnSKU              = "sku"
	ColumnTitle            = "title"
	ColumnDescription      = "description"
	ColumnPrice            = "price"
	ColumnStock            = "stock"
	ColumnCategory         = "category"
	ColumnShippingMethods  = "shippingmethods"
	ColumnMainImageURL     = "mainimageurl"
	ColumnGalleryImageURLs = "galleryimageurls"
	ColumnWeightKg         = "weightkg"
	ColumnLengthCm         = "lengthcm"
	ColumnWidthCm          = "widthcm"
	ColumnHeightCm         = "heightcm"
)

// CatalogColumns is the fixed column set and order shared by import and export
var CatalogColumns = []string{
	ColumnSKU, ColumnTitle, ColumnDescription, ColumnPrice, ColumnStock, ColumnCategory,
	ColumnShippingMethods, ColumnMainImageURL, ColumnGalleryImageURLs,
	ColumnWeightKg, ColumnLengthCm, ColumnWidthCm, ColumnHeightCm,
}

// RequiredImportColumns must all be present in an import header row
var RequiredImportColumns = []string{ColumnSKU, ColumnTitle, ColumnPrice, ColumnStock, ColumnCategory}

// ImportJob tracks a bulk import from upload through commit
type ImportJob struct {
	ID                 uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	TenantID           string         `json:"tenantId" gorm:"not null;index:idx_import_jobs_seller"`
	SellerID           string         `json:"sellerId" gorm:"not null;index:idx_import_jobs_seller"`
	CreatedBy          string         `json:"createdBy,omitempty"`
	FileName           string         `json:"fileName" gorm:"not null"`
	FileContentType    string         `json:"fileContentType"`
	FileBytes          []byte         `json:"-" gorm:"type:bytea"`
	Status             ImportStatus   `json:"status" gorm:"not null;index"`
	TotalRows          int            `json:"totalRows"`
	PlannedCreateCount int            `json:"plannedCreateCount"`
	PlannedUpdateCount int            `json:"plannedUpdateCount"`
	CreatedCount       int            `json:"createdCount"`
	UpdatedCount       int            `json:"updatedCount"`
	FailedCount        int            `json:"failedCount"`
	Summary            string         `json:"summary"`
	ErrorReport        *string        `json:"errorReport,omitempty"`
	RowErrors          datatypes.JSON `json:"rowErrors,omitempty" gorm:"type:jsonb"`
	CreatedAt          time.Time      `json:"createdAt" gorm:"index"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	CompletedAt        *time.Time     `json:"completedAt,omitempty"`
}

// IsTerminal reports whether the job can no longer change state
func (j *ImportJob) IsTerminal() bool {
	return j.Status == ImportStatusCompleted || j.Status == ImportStatusFailed
}

// ImportRowError represents an error for a specific row
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportRow is a validated row ready to be applied
type ImportRow struct {
	Row              int                 `json:"row"`
	SKU              string              `json:"sku"`
	Title            string              `json:"title"`
	Description      *string             `json:"description,omitempty"`
	Price            decimal.Decimal     `json:"price"`
	Stock            int                 `json:"stock"`
	CategoryID       uuid.UUID           `json:"categoryId"`
	CategoryPath     string              `json:"category"`
	ShippingMethods  *string             `json:"shippingMethods,omitempty"`
	MainImageURL     *string             `json:"mainImageUrl,omitempty"`
	GalleryImageURLs *string             `json:"galleryImageUrls,omitempty"`
	WeightKg         decimal.NullDecimal `json:"weightKg"`
	LengthCm         decimal.NullDecimal `json:"lengthCm"`
	WidthCm          decimal.NullDecimal `json:"widthCm"`
	HeightCm         decimal.NullDecimal `json:"heightCm"`
	IsUpdate         bool                `json:"isUpdate"`
}

// ImportPreview is the outcome of validating an import file against the
// current catalog. Validation problems are reported here, not as errors.
type ImportPreview struct {
	TotalRows   int              `json:"totalRows"`
	BlankRows   int              `json:"blankRows"`
	CreateCount int              `json:"createCount"`
	UpdateCount int              `json:"updateCount"`
	FailedRows  int              `json:"failedRows"`
	JobErrors   []string         `json:"jobErrors"`
	RowErrors   []ImportRowError `json:"rowErrors"`
	ValidRows   []ImportRow      `json:"validRows"`
}

// HasJobErrors reports whether the file as a whole was rejected
func (p *ImportPreview) HasJobErrors() bool {
	return len(p.JobErrors) > 0
}

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// ProductImportTemplate returns the column definitions sellers fill in
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "1.0",
		Columns: []ImportTemplateColumn{
			{Name: ColumnSKU, Description: "Seller SKU, unique per seller", Required: true, Type: "string", Example: "TSHIRT-RED-M"},
			{Name: ColumnTitle, Description: "Product title", Required: true, Type: "string", Example: "Red T-Shirt"},
			{Name: ColumnDescription, Description: "Long description", Required: false, Type: "string", Example: "100% cotton"},
			{Name: ColumnPrice, Description: "Unit price, greater than zero", Required: true, Type: "number", Example: "19.99"},
			{Name: ColumnStock, Description: "Units in stock", Required: true, Type: "number", Example: "25"},
			{Name: ColumnCategory, Description: "Full category path", Required: true, Type: "string", Example: "Clothing / T-Shirts"},
			{Name: ColumnShippingMethods, Description: "Shipping method codes", Required: false, Type: "string", Example: "standard,express"},
			{Name: ColumnMainImageURL, Description: "Main image URL", Required: false, Type: "string", Example: "https://cdn.example.com/p/1.jpg"},
			{Name: ColumnGalleryImageURLs, Description: "Gallery image URLs", Required: false, Type: "string", Example: "https://cdn.example.com/p/2.jpg"},
			{Name: ColumnWeightKg, Description: "Weight in kilograms", Required: false, Type: "number", Example: "0.3"},
			{Name: ColumnLengthCm, Description: "Length in centimeters", Required: false, Type: "number", Example: "30"},
			{Name: ColumnWidthCm, Description: "Width in centimeters", Required: false, Type: "number", Example: "20"},
			{Name: ColumnHeightCm, Description: "Height in centimeters", Required: false, Type: "number", Example: "2"},
		},
	}
}
