// Package repositorytest provides in-memory implementations of the
// repository interfaces for tests.
package repositorytest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"

	"github.com/google/uuid"
)

// Store holds every catalog table in memory. Its repositories share one
// lock, so a category transaction is atomic with respect to product writes.
type Store struct {
	mu          sync.Mutex
	categories  map[uuid.UUID]models.Category
	products    map[uuid.UUID]models.Product
	definitions map[uuid.UUID]models.AttributeDefinition
	links       map[uuid.UUID]models.AttributeUsage
	importJobs  map[uuid.UUID]models.ImportJob
	exportJobs  map[uuid.UUID]models.ExportJob

	// FailProductWrites makes Create/Update fail for the listed SKUs
	FailProductWrites map[string]error
	// BeforeProductWrite runs before each product write, outside the lock
	BeforeProductWrite func(sku string)
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		categories:        make(map[uuid.UUID]models.Category),
		products:          make(map[uuid.UUID]models.Product),
		definitions:       make(map[uuid.UUID]models.AttributeDefinition),
		links:             make(map[uuid.UUID]models.AttributeUsage),
		importJobs:        make(map[uuid.UUID]models.ImportJob),
		exportJobs:        make(map[uuid.UUID]models.ExportJob),
		FailProductWrites: make(map[string]error),
	}
}

// Categories returns the category repository view of the store
func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{store: s} }

// Attributes returns the attribute repository view of the store
func (s *Store) Attributes() *AttributeRepository { return &AttributeRepository{store: s} }

// Products returns the product repository view of the store
func (s *Store) Products() *ProductRepository { return &ProductRepository{store: s} }

// ImportJobs returns the import job repository view of the store
func (s *Store) ImportJobs() *ImportJobRepository { return &ImportJobRepository{store: s} }

// ExportJobs returns the export job repository view of the store
func (s *Store) ExportJobs() *ExportJobRepository { return &ExportJobRepository{store: s} }

// AllProducts returns a snapshot of every product, ordered by sku
func (s *Store) AllProducts() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

// PutProduct stores a product as-is
func (s *Store) PutProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.products[p.ID] = p
}

// PutCategory stores a category as-is
func (s *Store) PutCategory(c models.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

// CategoryRepository implements repository.CategoryRepositoryInterface
type CategoryRepository struct {
	store *Store
	inTx  bool
}

var _ repository.CategoryRepositoryInterface = (*CategoryRepository)(nil)

func (r *CategoryRepository) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *CategoryRepository) ListAll(ctx context.Context, tenantID string) ([]models.Category, error) {
	defer r.lock()()
	var out []models.Category
	for _, c := range r.store.categories {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Category, error) {
	defer r.lock()()
	c, ok := r.store.categories[id]
	if !ok || c.TenantID != tenantID {
		return nil, repository.ErrCategoryNotFound
	}
	return &c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	defer r.lock()()
	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now
	r.store.categories[category.ID] = *category
	return nil
}

func (r *CategoryRepository) Save(ctx context.Context, category *models.Category) error {
	defer r.lock()()
	category.UpdatedAt = time.Now()
	r.store.categories[category.ID] = *category
	return nil
}

func (r *CategoryRepository) UpdateFields(ctx context.Context, tenantID string, id uuid.UUID, fields map[string]interface{}) error {
	defer r.lock()()
	c, ok := r.store.categories[id]
	if !ok || c.TenantID != tenantID {
		return repository.ErrCategoryNotFound
	}
	if v, ok := fields["sort_order"].(int); ok {
		c.SortOrder = v
	}
	if v, ok := fields["is_active"].(bool); ok {
		c.IsActive = v
	}
	c.UpdatedAt = time.Now()
	r.store.categories[id] = c
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	defer r.lock()()
	c, ok := r.store.categories[id]
	if !ok || c.TenantID != tenantID {
		return repository.ErrCategoryNotFound
	}
	delete(r.store.categories, id)
	return nil
}

func (r *CategoryRepository) CountProductsByCategory(ctx context.Context, tenantID string) (map[uuid.UUID]int64, error) {
	defer r.lock()()
	counts := make(map[uuid.UUID]int64)
	for _, p := range r.store.products {
		if p.TenantID == tenantID && p.CategoryID != nil {
			counts[*p.CategoryID]++
		}
	}
	return counts, nil
}

func (r *CategoryRepository) RelabelProducts(ctx context.Context, tenantID string, categoryID uuid.UUID, label string) error {
	defer r.lock()()
	for id, p := range r.store.products {
		if p.TenantID == tenantID && p.CategoryID != nil && *p.CategoryID == categoryID {
			p.Category = label
			r.store.products[id] = p
		}
	}
	return nil
}

func (r *CategoryRepository) ReassignProducts(ctx context.Context, tenantID string, fromID, toID uuid.UUID, label string) (int64, error) {
	defer r.lock()()
	var moved int64
	for id, p := range r.store.products {
		if p.TenantID == tenantID && p.CategoryID != nil && *p.CategoryID == fromID {
			target := toID
			p.CategoryID = &target
			p.Category = label
			r.store.products[id] = p
			moved++
		}
	}
	return moved, nil
}

// WithTransaction holds the store lock for fn and restores the category
// and product tables when fn fails
func (r *CategoryRepository) WithTransaction(ctx context.Context, tenantID string, fn func(txRepo repository.CategoryRepositoryInterface) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	categories := make(map[uuid.UUID]models.Category, len(r.store.categories))
	for k, v := range r.store.categories {
		categories[k] = v
	}
	products := make(map[uuid.UUID]models.Product, len(r.store.products))
	for k, v := range r.store.products {
		products[k] = v
	}

	if err := fn(&CategoryRepository{store: r.store, inTx: true}); err != nil {
		r.store.categories = categories
		r.store.products = products
		return err
	}
	return nil
}

// AttributeRepository implements repository.AttributeRepositoryInterface
type AttributeRepository struct {
	store *Store
}

var _ repository.AttributeRepositoryInterface = (*AttributeRepository)(nil)

func (r *AttributeRepository) ListDefinitions(ctx context.Context, tenantID string) ([]models.AttributeDefinition, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.AttributeDefinition
	for _, d := range r.store.definitions {
		if d.TenantID == tenantID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *AttributeRepository) GetDefinition(ctx context.Context, tenantID string, id uuid.UUID) (*models.AttributeDefinition, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	d, ok := r.store.definitions[id]
	if !ok || d.TenantID != tenantID {
		return nil, repository.ErrAttributeNotFound
	}
	return &d, nil
}

func (r *AttributeRepository) CreateDefinition(ctx context.Context, def *models.AttributeDefinition) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	def.CreatedAt = time.Now()
	def.UpdatedAt = def.CreatedAt
	r.store.definitions[def.ID] = *def
	return nil
}

func (r *AttributeRepository) SaveDefinition(ctx context.Context, def *models.AttributeDefinition) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	def.UpdatedAt = time.Now()
	r.store.definitions[def.ID] = *def
	return nil
}

func (r *AttributeRepository) LinkExists(ctx context.Context, tenantID string, categoryID, definitionID uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, l := range r.store.links {
		if l.TenantID == tenantID && l.CategoryID == categoryID && l.DefinitionID == definitionID {
			return true, nil
		}
	}
	return false, nil
}

func (r *AttributeRepository) CreateLink(ctx context.Context, usage *models.AttributeUsage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, l := range r.store.links {
		if l.CategoryID == usage.CategoryID && l.DefinitionID == usage.DefinitionID {
			return nil
		}
	}
	usage.CreatedAt = time.Now()
	r.store.links[usage.ID] = *usage
	return nil
}

func (r *AttributeRepository) DeleteLink(ctx context.Context, tenantID string, categoryID, definitionID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, l := range r.store.links {
		if l.TenantID == tenantID && l.CategoryID == categoryID && l.DefinitionID == definitionID {
			delete(r.store.links, id)
		}
	}
	return nil
}

func (r *AttributeRepository) ListLinks(ctx context.Context, tenantID string, categoryIDs []uuid.UUID) ([]models.AttributeUsage, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		wanted[id] = true
	}
	var out []models.AttributeUsage
	for _, l := range r.store.links {
		if l.TenantID == tenantID && wanted[l.CategoryID] {
			out = append(out, l)
		}
	}
	return out, nil
}

// ProductRepository implements repository.ProductRepositoryInterface
type ProductRepository struct {
	store *Store
}

var _ repository.ProductRepositoryInterface = (*ProductRepository)(nil)

func (r *ProductRepository) GetBySellerSKUs(ctx context.Context, tenantID, sellerID string, skus []string) (map[string]*models.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	wanted := make(map[string]bool, len(skus))
	for _, sku := range skus {
		wanted[sku] = true
	}
	out := make(map[string]*models.Product)
	for _, p := range r.store.products {
		if p.TenantID == tenantID && p.SellerID == sellerID && wanted[p.SKU] {
			product := p
			out[p.SKU] = &product
		}
	}
	return out, nil
}

func (r *ProductRepository) GetBySellerSKU(ctx context.Context, tenantID, sellerID, sku string) (*models.Product, error) {
	found, err := r.GetBySellerSKUs(ctx, tenantID, sellerID, []string{sku})
	if err != nil {
		return nil, err
	}
	p, ok := found[sku]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (r *ProductRepository) GetByIDs(ctx context.Context, tenantID string, ids []uuid.UUID) ([]models.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.Product
	for _, id := range ids {
		if p, ok := r.store.products[id]; ok && p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ProductRepository) ListFiltered(ctx context.Context, tenantID, sellerID string, filter models.ProductFilter) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	search := strings.ToLower(filter.Search)
	var out []models.Product
	for _, p := range r.store.products {
		if p.TenantID != tenantID || p.SellerID != sellerID {
			continue
		}
		if filter.WorkflowState != nil {
			if p.WorkflowState != *filter.WorkflowState {
				continue
			}
		} else if p.WorkflowState == models.WorkflowArchived {
			continue
		}
		if search != "" {
			description := ""
			if p.Description != nil {
				description = *p.Description
			}
			haystack := strings.ToLower(p.Title + "\x00" + p.SKU + "\x00" + description)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		out = append(out, p)
	}
	// map order is random; callers must not depend on it
	return out, nil
}

func (r *ProductRepository) write(product *models.Product, create bool) error {
	if r.store.BeforeProductWrite != nil {
		r.store.BeforeProductWrite(product.SKU)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err, ok := r.store.FailProductWrites[product.SKU]; ok {
		return err
	}
	for id, p := range r.store.products {
		if id != product.ID && p.TenantID == product.TenantID && p.SellerID == product.SellerID && p.SKU == product.SKU {
			return repository.ErrDuplicateSKU
		}
	}
	now := time.Now()
	if create {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	r.store.products[product.ID] = *product
	return nil
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.write(product, true)
}

func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	return r.write(product, false)
}

// ImportJobRepository implements repository.ImportJobRepositoryInterface
type ImportJobRepository struct {
	store *Store
}

var _ repository.ImportJobRepositoryInterface = (*ImportJobRepository)(nil)

func (r *ImportJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	r.store.importJobs[job.ID] = *job
	return nil
}

func (r *ImportJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ImportJob, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	job, ok := r.store.importJobs[id]
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	return &job, nil
}

func (r *ImportJobRepository) GetForSeller(ctx context.Context, tenantID, sellerID string, id uuid.UUID) (*models.ImportJob, error) {
	job, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.TenantID != tenantID || job.SellerID != sellerID {
		return nil, repository.ErrJobNotFound
	}
	return job, nil
}

func (r *ImportJobRepository) ListBySeller(ctx context.Context, tenantID, sellerID string, limit int) ([]models.ImportJob, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.ImportJob
	for _, job := range r.store.importJobs {
		if job.TenantID == tenantID && job.SellerID == sellerID {
			job.FileBytes = nil
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ImportJobRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.ImportStatus) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	job, ok := r.store.importJobs[id]
	if !ok || job.Status != from {
		return false, nil
	}
	job.Status = to
	job.UpdatedAt = time.Now()
	r.store.importJobs[id] = job
	return true, nil
}

func (r *ImportJobRepository) Save(ctx context.Context, job *models.ImportJob) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	job.UpdatedAt = time.Now()
	r.store.importJobs[job.ID] = *job
	return nil
}

func (r *ImportJobRepository) Touch(ctx context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	job, ok := r.store.importJobs[id]
	if !ok || job.Status != models.ImportStatusProcessing {
		return false, nil
	}
	job.UpdatedAt = time.Now()
	r.store.importJobs[id] = job
	return true, nil
}

func (r *ImportJobRepository) SaveResult(ctx context.Context, job *models.ImportJob) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.importJobs[job.ID]
	if !ok || stored.Status != models.ImportStatusProcessing {
		return false, nil
	}
	job.CreatedAt = stored.CreatedAt
	job.UpdatedAt = time.Now()
	r.store.importJobs[job.ID] = *job
	return true, nil
}

func (r *ImportJobRepository) ListIDsByStatus(ctx context.Context, status models.ImportStatus, updatedBefore *time.Time) ([]uuid.UUID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var ids []uuid.UUID
	for id, job := range r.store.importJobs {
		if job.Status == status && (updatedBefore == nil || job.UpdatedAt.Before(*updatedBefore)) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ExportJobRepository implements repository.ExportJobRepositoryInterface
type ExportJobRepository struct {
	store *Store
}

var _ repository.ExportJobRepositoryInterface = (*ExportJobRepository)(nil)

func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	r.store.exportJobs[job.ID] = *job
	return nil
}

func (r *ExportJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ExportJob, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	job, ok := r.store.exportJobs[id]
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	return &job, nil
}

func (r *ExportJobRepository) GetForSeller(ctx context.Context, tenantID, sellerID string, id uuid.UUID) (*models.ExportJob, error) {
	job, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.TenantID != tenantID || job.SellerID != sellerID {
		return nil, repository.ErrJobNotFound
	}
	return job, nil
}

func (r *ExportJobRepository) ListBySeller(ctx context.Context, tenantID, sellerID string, limit int) ([]models.ExportJob, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.ExportJob
	for _, job := range r.store.exportJobs {
		if job.TenantID == tenantID && job.SellerID == sellerID {
			job.FileBytes = nil
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ExportJobRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.ExportStatus) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	job, ok := r.store.exportJobs[id]
	if !ok || job.Status != from {
		return false, nil
	}
	job.Status = to
	job.UpdatedAt = time.Now()
	r.store.exportJobs[id] = job
	return true, nil
}

func (r *ExportJobRepository) Save(ctx context.Context, job *models.ExportJob) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	job.UpdatedAt = time.Now()
	r.store.exportJobs[job.ID] = *job
	return nil
}

func (r *ExportJobRepository) Touch(ctx context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	job, ok := r.store.exportJobs[id]
	if !ok || job.Status != models.ExportStatusProcessing {
		return false, nil
	}
	job.UpdatedAt = time.Now()
	r.store.exportJobs[id] = job
	return true, nil
}

func (r *ExportJobRepository) SaveResult(ctx context.Context, job *models.ExportJob) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.exportJobs[job.ID]
	if !ok || stored.Status != models.ExportStatusProcessing {
		return false, nil
	}
	job.CreatedAt = stored.CreatedAt
	job.UpdatedAt = time.Now()
	r.store.exportJobs[job.ID] = *job
	return true, nil
}

func (r *ExportJobRepository) ListIDsByStatus(ctx context.Context, status models.ExportStatus, updatedBefore *time.Time) ([]uuid.UUID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var ids []uuid.UUID
	for id, job := range r.store.exportJobs {
		if job.Status == status && (updatedBefore == nil || job.UpdatedAt.Before(*updatedBefore)) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
