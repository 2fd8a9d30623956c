package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"catalog-service/internal/events"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrAttributeNotFound = errors.New("attribute definition not found")

// AttributeService manages shared attribute definitions and their links to
// categories
type AttributeService struct {
	repo       repository.AttributeRepositoryInterface
	categories repository.CategoryRepositoryInterface
	publisher  *events.Publisher
	logger     *logrus.Entry
}

// NewAttributeService creates a new AttributeService
func NewAttributeService(repo repository.AttributeRepositoryInterface, categories repository.CategoryRepositoryInterface, publisher *events.Publisher, logger *logrus.Logger) *AttributeService {
	if logger == nil {
		logger = logrus.New()
	}
	return &AttributeService{
		repo:       repo,
		categories: categories,
		publisher:  publisher,
		logger:     logger.WithField("component", "attribute_service"),
	}
}

// NormalizeAttributeType maps free text onto a known type, defaulting to text
func NormalizeAttributeType(t string) models.AttributeType {
	switch models.AttributeType(strings.ToLower(strings.TrimSpace(t))) {
	case models.AttributeTypeNumber:
		return models.AttributeTypeNumber
	case models.AttributeTypeList:
		return models.AttributeTypeList
	default:
		return models.AttributeTypeText
	}
}

// NormalizeAttributeOptions trims and de-duplicates list options, ignoring
// case. Options of non-list types are discarded.
func NormalizeAttributeOptions(t models.AttributeType, options *string) *string {
	if t != models.AttributeTypeList || options == nil {
		return nil
	}
	seen := make(map[string]bool)
	var tokens []string
	for _, raw := range strings.Split(*options, ",") {
		token := strings.TrimSpace(raw)
		if token == "" || seen[strings.ToLower(token)] {
			continue
		}
		seen[strings.ToLower(token)] = true
		tokens = append(tokens, token)
	}
	if len(tokens) == 0 {
		return nil
	}
	joined := strings.Join(tokens, ",")
	return &joined
}

// attributeIdentity is the value a definition is deduplicated on
func attributeIdentity(name string, t models.AttributeType, options *string) string {
	var tokens []string
	if options != nil {
		for _, token := range strings.Split(*options, ",") {
			tokens = append(tokens, strings.ToLower(strings.TrimSpace(token)))
		}
		sort.Strings(tokens)
	}
	return strings.ToLower(strings.TrimSpace(name)) + "|" + string(t) + "|" + strings.Join(tokens, ",")
}

func normalizeAttributeInput(input models.AttributeInput) (string, models.AttributeType, *string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", "", nil, validationError("name", "Attribute name is required")
	}
	t := NormalizeAttributeType(input.Type)
	return name, t, NormalizeAttributeOptions(t, input.Options), nil
}

func (s *AttributeService) requireCategory(ctx context.Context, tenantID string, categoryID uuid.UUID) error {
	if _, err := s.categories.GetByID(ctx, tenantID, categoryID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

func (s *AttributeService) getDefinition(ctx context.Context, tenantID string, id uuid.UUID) (*models.AttributeDefinition, error) {
	def, err := s.repo.GetDefinition(ctx, tenantID, id)
	if errors.Is(err, repository.ErrAttributeNotFound) {
		return nil, ErrAttributeNotFound
	}
	return def, err
}

func (s *AttributeService) link(ctx context.Context, tenantID string, categoryID uuid.UUID, def *models.AttributeDefinition) error {
	linked, err := s.repo.LinkExists(ctx, tenantID, categoryID, def.ID)
	if err != nil {
		return err
	}
	if linked {
		return nil
	}
	if err := s.repo.CreateLink(ctx, &models.AttributeUsage{
		ID:           uuid.New(),
		TenantID:     tenantID,
		CategoryID:   categoryID,
		DefinitionID: def.ID,
	}); err != nil {
		return fmt.Errorf("failed to link attribute: %w", err)
	}
	_ = s.publisher.PublishAttributeEvent(ctx, events.AttributeLinked, def, categoryID.String())
	return nil
}

// AddOrLink reuses a definition with the same identity, or creates one, and
// links it to the category
func (s *AttributeService) AddOrLink(ctx context.Context, tenantID string, categoryID uuid.UUID, input models.AttributeInput) (*models.AttributeDefinition, error) {
	name, t, options, err := normalizeAttributeInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, tenantID, categoryID); err != nil {
		return nil, err
	}

	defs, err := s.repo.ListDefinitions(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attribute definitions: %w", err)
	}

	identity := attributeIdentity(name, t, options)
	var def *models.AttributeDefinition
	for i := range defs {
		if attributeIdentity(defs[i].Name, defs[i].Type, defs[i].Options) == identity {
			def = &defs[i]
			break
		}
	}

	if def != nil {
		def.IsDeprecated = false
		def.IsRequired = input.IsRequired
		if err := s.repo.SaveDefinition(ctx, def); err != nil {
			return nil, fmt.Errorf("failed to update attribute definition: %w", err)
		}
	} else {
		def = &models.AttributeDefinition{
			ID:         uuid.New(),
			TenantID:   tenantID,
			Name:       name,
			Type:       t,
			IsRequired: input.IsRequired,
			Options:    options,
		}
		if err := s.repo.CreateDefinition(ctx, def); err != nil {
			return nil, fmt.Errorf("failed to create attribute definition: %w", err)
		}
		s.logger.WithFields(logrus.Fields{
			"tenant_id":     tenantID,
			"definition_id": def.ID,
			"type":          def.Type,
		}).Info("Attribute definition created")
	}

	if err := s.link(ctx, tenantID, categoryID, def); err != nil {
		return nil, err
	}
	return def, nil
}

// UpdateDefinition edits a definition unless the new identity collides with
// another definition
func (s *AttributeService) UpdateDefinition(ctx context.Context, tenantID string, id uuid.UUID, input models.AttributeInput) (*models.AttributeDefinition, error) {
	name, t, options, err := normalizeAttributeInput(input)
	if err != nil {
		return nil, err
	}
	def, err := s.getDefinition(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	defs, err := s.repo.ListDefinitions(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attribute definitions: %w", err)
	}
	identity := attributeIdentity(name, t, options)
	for _, other := range defs {
		if other.ID != id && attributeIdentity(other.Name, other.Type, other.Options) == identity {
			return nil, conflictError("name", "An attribute %q of type %s with the same options already exists", name, t)
		}
	}

	def.Name = name
	def.Type = t
	def.IsRequired = input.IsRequired
	def.Options = options
	if err := s.repo.SaveDefinition(ctx, def); err != nil {
		return nil, fmt.Errorf("failed to update attribute definition: %w", err)
	}
	return def, nil
}

// LinkExisting links a definition to a category; linking twice is a no-op
func (s *AttributeService) LinkExisting(ctx context.Context, tenantID string, definitionID, categoryID uuid.UUID) error {
	def, err := s.getDefinition(ctx, tenantID, definitionID)
	if err != nil {
		return err
	}
	if err := s.requireCategory(ctx, tenantID, categoryID); err != nil {
		return err
	}
	return s.link(ctx, tenantID, categoryID, def)
}

// Unlink removes a definition from a category, keeping the definition
func (s *AttributeService) Unlink(ctx context.Context, tenantID string, definitionID, categoryID uuid.UUID) error {
	return s.repo.DeleteLink(ctx, tenantID, categoryID, definitionID)
}

// SetDeprecated toggles the soft deprecation flag
func (s *AttributeService) SetDeprecated(ctx context.Context, tenantID string, id uuid.UUID, deprecated bool) error {
	def, err := s.getDefinition(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if def.IsDeprecated == deprecated {
		return nil
	}
	def.IsDeprecated = deprecated
	if err := s.repo.SaveDefinition(ctx, def); err != nil {
		return fmt.Errorf("failed to update attribute definition: %w", err)
	}
	_ = s.publisher.PublishAttributeEvent(ctx, events.AttributeDeprecated, def, "")
	return nil
}

// GetForCategory lists the definitions linked to a category
func (s *AttributeService) GetForCategory(ctx context.Context, tenantID string, categoryID uuid.UUID, includeDeprecated bool) ([]models.AttributeDefinition, error) {
	byCategory, err := s.GetForCategories(ctx, tenantID, []uuid.UUID{categoryID}, includeDeprecated)
	if err != nil {
		return nil, err
	}
	return byCategory[categoryID], nil
}

// GetForCategories lists linked definitions for several categories with one
// round of queries; every requested id has an entry
func (s *AttributeService) GetForCategories(ctx context.Context, tenantID string, categoryIDs []uuid.UUID, includeDeprecated bool) (map[uuid.UUID][]models.AttributeDefinition, error) {
	result := make(map[uuid.UUID][]models.AttributeDefinition, len(categoryIDs))
	for _, id := range categoryIDs {
		result[id] = []models.AttributeDefinition{}
	}
	if len(categoryIDs) == 0 {
		return result, nil
	}

	links, err := s.repo.ListLinks(ctx, tenantID, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load attribute links: %w", err)
	}
	defs, err := s.repo.ListDefinitions(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attribute definitions: %w", err)
	}
	byID := make(map[uuid.UUID]models.AttributeDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	for _, link := range links {
		def, ok := byID[link.DefinitionID]
		if !ok || (def.IsDeprecated && !includeDeprecated) {
			continue
		}
		result[link.CategoryID] = append(result[link.CategoryID], def)
	}
	for id := range result {
		sortDefinitions(result[id])
	}
	return result, nil
}

// GetLinkable lists active definitions not yet linked to the category
func (s *AttributeService) GetLinkable(ctx context.Context, tenantID string, categoryID uuid.UUID) ([]models.AttributeDefinition, error) {
	links, err := s.repo.ListLinks(ctx, tenantID, []uuid.UUID{categoryID})
	if err != nil {
		return nil, fmt.Errorf("failed to load attribute links: %w", err)
	}
	linked := make(map[uuid.UUID]bool, len(links))
	for _, link := range links {
		linked[link.DefinitionID] = true
	}

	defs, err := s.repo.ListDefinitions(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attribute definitions: %w", err)
	}
	linkable := make([]models.AttributeDefinition, 0, len(defs))
	for _, d := range defs {
		if !linked[d.ID] && !d.IsDeprecated {
			linkable = append(linkable, d)
		}
	}
	sortDefinitions(linkable)
	return linkable, nil
}

func sortDefinitions(defs []models.AttributeDefinition) {
	sort.SliceStable(defs, func(i, j int) bool {
		return strings.ToLower(defs[i].Name) < strings.ToLower(defs[j].Name)
	})
}
