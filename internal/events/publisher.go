package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"catalog-service/internal/models"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Catalog event subjects
const (
	CategoryCreated     = "catalog.category.created"
	CategoryUpdated     = "catalog.category.updated"
	CategoryDeleted     = "catalog.category.deleted"
	ImportJobQueued     = "catalog.import.queued"
	ImportJobFinished   = "catalog.import.finished"
	ExportJobQueued     = "catalog.export.queued"
	ExportJobFinished   = "catalog.export.finished"
	AttributeLinked     = "catalog.attribute.linked"
	AttributeDeprecated = "catalog.attribute.deprecated"
)

// CategoryEvent represents a structural change to the category tree
type CategoryEvent struct {
	EventType    string    `json:"eventType"`
	TenantID     string    `json:"tenantId"`
	CategoryID   string    `json:"categoryId"`
	CategoryName string    `json:"categoryName"`
	FullPath     string    `json:"fullPath"`
	ParentID     string    `json:"parentId,omitempty"`
	Slug         string    `json:"slug,omitempty"`
	IsActive     bool      `json:"isActive"`
	Timestamp    time.Time `json:"timestamp"`
}

// JobEvent represents an import or export job lifecycle change
type JobEvent struct {
	EventType string    `json:"eventType"`
	TenantID  string    `json:"tenantId"`
	SellerID  string    `json:"sellerId"`
	JobID     string    `json:"jobId"`
	Status    string    `json:"status"`
	Summary   string    `json:"summary,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AttributeEvent represents a change to an attribute definition
type AttributeEvent struct {
	EventType    string    `json:"eventType"`
	TenantID     string    `json:"tenantId"`
	DefinitionID string    `json:"definitionId"`
	Name         string    `json:"name"`
	CategoryID   string    `json:"categoryId,omitempty"`
	Deprecated   bool      `json:"deprecated"`
	Timestamp    time.Time `json:"timestamp"`
}

// Publisher publishes catalog events to NATS. A nil Publisher is valid and
// drops every event.
type Publisher struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// NewPublisher connects to NATS
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("catalog-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Publisher{
		conn:   conn,
		logger: logger.WithField("component", "events.publisher"),
	}, nil
}

func (p *Publisher) publish(subject string, event interface{}) error {
	if p == nil || p.conn == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.WithError(err).WithField("subject", subject).Warn("Failed to publish event")
		return err
	}
	return nil
}

// PublishCategoryEvent publishes a category change
func (p *Publisher) PublishCategoryEvent(ctx context.Context, eventType string, category *models.Category) error {
	if p == nil {
		return nil
	}
	event := &CategoryEvent{
		EventType:    eventType,
		TenantID:     category.TenantID,
		CategoryID:   category.ID.String(),
		CategoryName: category.Name,
		FullPath:     category.FullPath,
		Slug:         category.Slug,
		IsActive:     category.IsActive,
		Timestamp:    time.Now().UTC(),
	}
	if category.ParentID != nil {
		event.ParentID = category.ParentID.String()
	}
	return p.publish(eventType, event)
}

// PublishImportJobEvent publishes an import job status change
func (p *Publisher) PublishImportJobEvent(ctx context.Context, eventType string, job *models.ImportJob) error {
	if p == nil {
		return nil
	}
	return p.publish(eventType, &JobEvent{
		EventType: eventType,
		TenantID:  job.TenantID,
		SellerID:  job.SellerID,
		JobID:     job.ID.String(),
		Status:    string(job.Status),
		Summary:   job.Summary,
		Timestamp: time.Now().UTC(),
	})
}

// PublishExportJobEvent publishes an export job status change
func (p *Publisher) PublishExportJobEvent(ctx context.Context, eventType string, job *models.ExportJob) error {
	if p == nil {
		return nil
	}
	return p.publish(eventType, &JobEvent{
		EventType: eventType,
		TenantID:  job.TenantID,
		SellerID:  job.SellerID,
		JobID:     job.ID.String(),
		Status:    string(job.Status),
		Summary:   job.Summary,
		Timestamp: time.Now().UTC(),
	})
}

// PublishAttributeEvent publishes an attribute definition change
func (p *Publisher) PublishAttributeEvent(ctx context.Context, eventType string, def *models.AttributeDefinition, categoryID string) error {
	if p == nil {
		return nil
	}
	return p.publish(eventType, &AttributeEvent{
		EventType:    eventType,
		TenantID:     def.TenantID,
		DefinitionID: def.ID.String(),
		Name:         def.Name,
		CategoryID:   categoryID,
		Deprecated:   def.IsDeprecated,
		Timestamp:    time.Now().UTC(),
	})
}

// Close drains pending messages and closes the connection
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
