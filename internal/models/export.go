package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExportStatus represents the status of an export job
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusCompleted  ExportStatus = "COMPLETED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportFormat is the requested output format
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLS  ExportFormat = "xls"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// ParseExportFormat normalizes a requested format; unknown values become csv
func ParseExportFormat(s string) ExportFormat {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case ExportFormatXLS:
		return ExportFormatXLS
	case ExportFormatXLSX:
		return ExportFormatXLSX
	default:
		return ExportFormatCSV
	}
}

// ExportJob tracks an asynchronous catalog export
type ExportJob struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	TenantID      string         `json:"tenantId" gorm:"not null;index:idx_export_jobs_seller"`
	SellerID      string         `json:"sellerId" gorm:"not null;index:idx_export_jobs_seller"`
	CreatedBy     string         `json:"createdBy,omitempty"`
	Format        ExportFormat   `json:"format" gorm:"not null"`
	UseFilters    bool           `json:"useFilters"`
	Search        *string        `json:"search,omitempty"`
	WorkflowState *WorkflowState `json:"workflowState,omitempty"`
	Status        ExportStatus   `json:"status" gorm:"not null;index"`
	TotalProducts int            `json:"totalProducts"`
	FileName      string         `json:"fileName"`
	ContentType   string         `json:"contentType"`
	FileBytes     []byte         `json:"-" gorm:"type:bytea"`
	Summary       string         `json:"summary"`
	Error         *string        `json:"error,omitempty"`
	CreatedAt     time.Time      `json:"createdAt" gorm:"index"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	CompletedAt   *time.Time     `json:"completedAt,omitempty"`
}

// ExportRequest is the payload for queueing an export
type ExportRequest struct {
	Format        string  `json:"format"`
	UseFilters    bool    `json:"useFilters"`
	Search        *string `json:"search,omitempty"`
	WorkflowState *string `json:"workflowState,omitempty"`
}
