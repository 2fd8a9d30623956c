package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"catalog-service/internal/events"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrCategoryNotFound = errors.New("category not found")

// CreateCategoryInput carries the fields of a new category
type CreateCategoryInput struct {
	Name        string
	ParentID    *uuid.UUID
	Description *string
	Slug        *string
}

// RenameCategoryInput renames a category and optionally moves it. A nil
// ParentID keeps the current parent unless MoveToRoot is set.
type RenameCategoryInput struct {
	Name        string
	Slug        *string
	ParentID    *uuid.UUID
	MoveToRoot  bool
	Description *string
}

// CategoryService maintains the category tree and cascades path changes
// onto products
type CategoryService struct {
	repo      repository.CategoryRepositoryInterface
	publisher *events.Publisher
	logger    *logrus.Entry

	seedMu sync.Mutex
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(repo repository.CategoryRepositoryInterface, publisher *events.Publisher, logger *logrus.Logger) *CategoryService {
	if logger == nil {
		logger = logrus.New()
	}
	return &CategoryService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithField("component", "category_service"),
	}
}

// categoryIndex is an arena view of a tenant's categories
type categoryIndex struct {
	byID     map[uuid.UUID]*models.Category
	children map[uuid.UUID][]*models.Category
	roots    []*models.Category
}

func buildIndex(categories []models.Category) *categoryIndex {
	idx := &categoryIndex{
		byID:     make(map[uuid.UUID]*models.Category, len(categories)),
		children: make(map[uuid.UUID][]*models.Category),
	}
	for i := range categories {
		idx.byID[categories[i].ID] = &categories[i]
	}
	for i := range categories {
		c := &categories[i]
		if c.ParentID != nil {
			if _, ok := idx.byID[*c.ParentID]; ok {
				idx.children[*c.ParentID] = append(idx.children[*c.ParentID], c)
				continue
			}
		}
		idx.roots = append(idx.roots, c)
	}
	sortCategories(idx.roots)
	for _, kids := range idx.children {
		sortCategories(kids)
	}
	return idx
}

func sortCategories(list []*models.Category) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].SortOrder != list[j].SortOrder {
			return list[i].SortOrder < list[j].SortOrder
		}
		return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
	})
}

// siblings returns the categories sharing parentID
func (idx *categoryIndex) siblings(parentID *uuid.UUID) []*models.Category {
	if parentID == nil {
		return idx.roots
	}
	return idx.children[*parentID]
}

// subtree collects id and all its descendants depth first
func (idx *categoryIndex) subtree(id uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	stack := []uuid.UUID{id}
	seen := make(map[uuid.UUID]bool)
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[current] {
			continue
		}
		seen[current] = true
		ids = append(ids, current)
		kids := idx.children[current]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i].ID)
		}
	}
	return ids
}

// isAncestorOrSelf walks parent pointers upward from start and reports
// whether id is met on the way
func (idx *categoryIndex) isAncestorOrSelf(id, start uuid.UUID) bool {
	seen := make(map[uuid.UUID]bool)
	current := &start
	for current != nil {
		if *current == id {
			return true
		}
		if seen[*current] {
			return false
		}
		seen[*current] = true
		node, ok := idx.byID[*current]
		if !ok {
			return false
		}
		current = node.ParentID
	}
	return false
}

func nextSortOrder(siblings []*models.Category, excludeID uuid.UUID) int {
	highest := 0
	for _, s := range siblings {
		if s.ID != excludeID && s.SortOrder > highest {
			highest = s.SortOrder
		}
	}
	return highest + 1
}

func joinPath(parent *models.Category, name string) string {
	if parent == nil {
		return name
	}
	return parent.FullPath + models.PathSeparator + name
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validationError("name", "Category name is required")
	}
	if strings.Contains(name, strings.TrimSpace(models.PathSeparator)) {
		return "", validationError("name", "Category name cannot contain %q", strings.TrimSpace(models.PathSeparator))
	}
	return name, nil
}

func resolveSlug(requested *string, fallback string) (string, error) {
	source := fallback
	if requested != nil && strings.TrimSpace(*requested) != "" {
		source = *requested
	}
	slug := NormalizeSlug(source)
	if slug == "" {
		return "", validationError("slug", "Slug must contain at least one letter or digit")
	}
	return slug, nil
}

func checkSiblingConflicts(siblings []*models.Category, selfID uuid.UUID, name, slug string) error {
	for _, s := range siblings {
		if s.ID == selfID {
			continue
		}
		if strings.EqualFold(s.Name, name) {
			return conflictError("name", "A category named %q already exists at this level", name)
		}
		if strings.EqualFold(s.Slug, slug) {
			return conflictError("slug", "A category with slug %q already exists at this level", slug)
		}
	}
	return nil
}

// loadIndex loads all categories, seeding the default root when the tenant
// has none
func (s *CategoryService) loadIndex(ctx context.Context, tenantID string) (*categoryIndex, error) {
	categories, err := s.repo.ListAll(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if len(categories) > 0 {
		return buildIndex(categories), nil
	}

	s.seedMu.Lock()
	defer s.seedMu.Unlock()

	categories, err = s.repo.ListAll(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if len(categories) == 0 {
		seed := models.Category{
			ID:        uuid.New(),
			TenantID:  tenantID,
			Name:      models.DefaultCategoryName,
			Slug:      NormalizeSlug(models.DefaultCategoryName),
			FullPath:  models.DefaultCategoryName,
			SortOrder: 1,
			IsActive:  true,
		}
		if err := s.repo.Create(ctx, &seed); err != nil {
			return nil, fmt.Errorf("failed to seed default category: %w", err)
		}
		s.logger.WithField("tenant_id", tenantID).Info("Seeded default category")
		categories = []models.Category{seed}
	}
	return buildIndex(categories), nil
}

// GetTree returns the ordered category forest with depth and product counts
func (s *CategoryService) GetTree(ctx context.Context, tenantID string, includeInactive bool) ([]*models.CategoryNode, error) {
	idx, err := s.loadIndex(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountProductsByCategory(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var build func(list []*models.Category, depth int) []*models.CategoryNode
	build = func(list []*models.Category, depth int) []*models.CategoryNode {
		nodes := make([]*models.CategoryNode, 0, len(list))
		for _, c := range list {
			if !includeInactive && !c.IsActive {
				continue
			}
			nodes = append(nodes, &models.CategoryNode{
				Category:     *c,
				Depth:        depth,
				ProductCount: counts[c.ID],
				Children:     build(idx.children[c.ID], depth+1),
			})
		}
		return nodes
	}
	return build(idx.roots, 0), nil
}

// List returns categories ordered by full path
func (s *CategoryService) List(ctx context.Context, tenantID string, includeInactive bool) ([]models.Category, error) {
	idx, err := s.loadIndex(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	list := make([]models.Category, 0, len(idx.byID))
	for _, c := range idx.byID {
		if includeInactive || c.IsActive {
			list = append(list, *c)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return strings.ToLower(list[i].FullPath) < strings.ToLower(list[j].FullPath)
	})
	return list, nil
}

// Get returns a single category
func (s *CategoryService) Get(ctx context.Context, tenantID string, id uuid.UUID) (*models.Category, error) {
	category, err := s.repo.GetByID(ctx, tenantID, id)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return nil, ErrCategoryNotFound
	}
	return category, err
}

// ActivePathIndex maps the lower-cased full path of every active category
// to the category
func (s *CategoryService) ActivePathIndex(ctx context.Context, tenantID string) (map[string]models.Category, error) {
	idx, err := s.loadIndex(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	paths := make(map[string]models.Category, len(idx.byID))
	for _, c := range idx.byID {
		if c.IsActive {
			paths[strings.ToLower(c.FullPath)] = *c
		}
	}
	return paths, nil
}

// Create adds a category under parentID, or at the root
func (s *CategoryService) Create(ctx context.Context, tenantID string, input CreateCategoryInput) (*models.Category, error) {
	name, err := validateCategoryName(input.Name)
	if err != nil {
		return nil, err
	}
	slug, err := resolveSlug(input.Slug, name)
	if err != nil {
		return nil, err
	}

	idx, err := s.loadIndex(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var parent *models.Category
	if input.ParentID != nil {
		p, ok := idx.byID[*input.ParentID]
		if !ok {
			return nil, notFoundError("Parent category not found")
		}
		parent = p
	}

	siblings := idx.siblings(input.ParentID)
	if err := checkSiblingConflicts(siblings, uuid.Nil, name, slug); err != nil {
		return nil, err
	}

	category := &models.Category{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        name,
		Slug:        slug,
		FullPath:    joinPath(parent, name),
		ParentID:    input.ParentID,
		SortOrder:   nextSortOrder(siblings, uuid.Nil),
		IsActive:    true,
		Description: input.Description,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	_ = s.publisher.PublishCategoryEvent(ctx, events.CategoryCreated, category)
	return category, nil
}

// Rename renames and optionally moves a category, then rewrites the full
// path of the whole branch and the labels of every product inside it
func (s *CategoryService) Rename(ctx context.Context, tenantID string, id uuid.UUID, input RenameCategoryInput) (*models.Category, error) {
	name, err := validateCategoryName(input.Name)
	if err != nil {
		return nil, err
	}

	idx, err := s.loadIndex(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	category, ok := idx.byID[id]
	if !ok {
		return nil, ErrCategoryNotFound
	}

	slug := category.Slug
	if input.Slug != nil && strings.TrimSpace(*input.Slug) != "" {
		if slug, err = resolveSlug(input.Slug, name); err != nil {
			return nil, err
		}
	}

	if input.ParentID != nil && input.MoveToRoot {
		return nil, validationError("parentId", "Give either parentId or moveToRoot, not both")
	}
	parentID := input.ParentID
	if parentID == nil && !input.MoveToRoot {
		parentID = category.ParentID
	}

	var parent *models.Category
	if parentID != nil {
		if idx.isAncestorOrSelf(id, *parentID) {
			return nil, validationError("parentId", "Cannot move a category under itself or its own descendant")
		}
		p, ok := idx.byID[*parentID]
		if !ok {
			return nil, notFoundError("Parent category not found")
		}
		parent = p
	}

	siblings := idx.siblings(parentID)
	if err := checkSiblingConflicts(siblings, id, name, slug); err != nil {
		return nil, err
	}

	if !sameParent(category.ParentID, parentID) {
		category.SortOrder = nextSortOrder(siblings, id)
	}
	category.Name = name
	category.Slug = slug
	category.ParentID = parentID
	if input.Description != nil {
		category.Description = input.Description
	}
	category.FullPath = joinPath(parent, name)
	category.UpdatedAt = time.Now()

	// relink the moved node so the descendant walk sees the new shape
	idx = buildIndex(flatten(idx))
	branch := idx.subtree(id)
	changed := recomputePaths(idx, id)

	err = s.repo.WithTransaction(ctx, tenantID, func(txRepo repository.CategoryRepositoryInterface) error {
		if err := txRepo.Save(ctx, idx.byID[id]); err != nil {
			return err
		}
		for _, c := range changed {
			if c.ID == id {
				continue
			}
			if err := txRepo.Save(ctx, c); err != nil {
				return err
			}
		}
		for _, branchID := range branch {
			if err := txRepo.RelabelProducts(ctx, tenantID, branchID, idx.byID[branchID].FullPath); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id":   tenantID,
		"category_id": id,
		"branch_size": len(branch),
	}).Info("Category renamed")

	updated := *idx.byID[id]
	_ = s.publisher.PublishCategoryEvent(ctx, events.CategoryUpdated, &updated)
	return &updated, nil
}

func flatten(idx *categoryIndex) []models.Category {
	list := make([]models.Category, 0, len(idx.byID))
	for _, c := range idx.byID {
		list = append(list, *c)
	}
	return list
}

// recomputePaths rebuilds fullPath for every descendant of id and returns
// the categories whose path changed
func recomputePaths(idx *categoryIndex, id uuid.UUID) []*models.Category {
	var changed []*models.Category
	visited := map[uuid.UUID]bool{id: true}
	var walk func(parent *models.Category)
	walk = func(parent *models.Category) {
		for _, child := range idx.children[parent.ID] {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			path := joinPath(parent, child.Name)
			if child.FullPath != path {
				child.FullPath = path
				child.UpdatedAt = time.Now()
				changed = append(changed, child)
			}
			walk(child)
		}
	}
	walk(idx.byID[id])
	return changed
}

// UpdateSortOrder sets a category's position among its siblings
func (s *CategoryService) UpdateSortOrder(ctx context.Context, tenantID string, id uuid.UUID, sortOrder int) error {
	err := s.repo.UpdateFields(ctx, tenantID, id, map[string]interface{}{"sort_order": sortOrder})
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return ErrCategoryNotFound
	}
	return err
}

// SetActive shows or hides a category
func (s *CategoryService) SetActive(ctx context.Context, tenantID string, id uuid.UUID, active bool) error {
	err := s.repo.UpdateFields(ctx, tenantID, id, map[string]interface{}{"is_active": active})
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return ErrCategoryNotFound
	}
	if err != nil {
		return err
	}
	if category, err := s.repo.GetByID(ctx, tenantID, id); err == nil {
		_ = s.publisher.PublishCategoryEvent(ctx, events.CategoryUpdated, category)
	}
	return nil
}

// Delete removes a leaf category. Assigned products must be moved to
// reassignTo in the same transaction.
func (s *CategoryService) Delete(ctx context.Context, tenantID string, id uuid.UUID, reassignTo *uuid.UUID) error {
	idx, err := s.loadIndex(ctx, tenantID)
	if err != nil {
		return err
	}
	category, ok := idx.byID[id]
	if !ok {
		return ErrCategoryNotFound
	}

	if branch := idx.subtree(id); len(branch) > 1 {
		return conflictError("", "Category %q has subcategories; remove or move them first", category.Name)
	}

	var target *models.Category
	if reassignTo != nil {
		if *reassignTo == id {
			return validationError("reassignTo", "Products cannot be reassigned to the category being deleted")
		}
		t, ok := idx.byID[*reassignTo]
		if !ok {
			return notFoundError("Reassignment target category not found")
		}
		target = t
	}

	counts, err := s.repo.CountProductsByCategory(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	assigned := counts[id]
	if assigned > 0 && target == nil {
		return conflictError("reassignTo", "Category %q has %d products; choose a category to reassign them to", category.Name, assigned)
	}

	var moved int64
	err = s.repo.WithTransaction(ctx, tenantID, func(txRepo repository.CategoryRepositoryInterface) error {
		if target != nil {
			n, err := txRepo.ReassignProducts(ctx, tenantID, id, target.ID, target.FullPath)
			if err != nil {
				return err
			}
			moved = n
		}
		return txRepo.Delete(ctx, tenantID, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id":      tenantID,
		"category_id":    id,
		"products_moved": moved,
	}).Info("Category deleted")

	_ = s.publisher.PublishCategoryEvent(ctx, events.CategoryDeleted, category)
	return nil
}
