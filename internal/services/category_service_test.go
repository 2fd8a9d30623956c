package services

import (
	"context"
	"errors"
	"testing"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/repository/repositorytest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testTenant = "tenant-1"

func newCategoryFixture(t *testing.T) (*CategoryService, *repositorytest.Store) {
	t.Helper()
	store := repositorytest.NewStore()
	return NewCategoryService(store.Categories(), nil, nil), store
}

func mustCreate(t *testing.T, svc *CategoryService, name string, parent *models.Category) *models.Category {
	t.Helper()
	input := CreateCategoryInput{Name: name}
	if parent != nil {
		input.ParentID = &parent.ID
	}
	c, err := svc.Create(context.Background(), testTenant, input)
	require.NoError(t, err)
	return c
}

func assertServiceError(t *testing.T, err error, code string) {
	t.Helper()
	svcErr, ok := AsServiceError(err)
	require.True(t, ok, "expected a service error, got %v", err)
	assert.Equal(t, code, svcErr.Code)
}

// pathsConsistent checks every category's full path against its parent chain
func pathsConsistent(t *testing.T, svc *CategoryService) {
	t.Helper()
	list, err := svc.List(context.Background(), testTenant, true)
	require.NoError(t, err)
	byID := make(map[uuid.UUID]models.Category, len(list))
	for _, c := range list {
		byID[c.ID] = c
	}
	for _, c := range list {
		want := c.Name
		if c.ParentID != nil {
			want = byID[*c.ParentID].FullPath + models.PathSeparator + c.Name
		}
		assert.Equal(t, want, c.FullPath, "category %s", c.Name)
	}
}

func TestCategoryService_SeedsDefaultCategory(t *testing.T) {
	svc, _ := newCategoryFixture(t)

	tree, err := svc.GetTree(context.Background(), testTenant, false)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, models.DefaultCategoryName, tree[0].Name)
	assert.Equal(t, "general", tree[0].Slug)

	// seeding happens once
	tree, err = svc.GetTree(context.Background(), testTenant, false)
	require.NoError(t, err)
	assert.Len(t, tree, 1)
}

func TestCategoryService_Create(t *testing.T) {
	svc, _ := newCategoryFixture(t)
	ctx := context.Background()

	clothing := mustCreate(t, svc, "Clothing", nil)
	shirts := mustCreate(t, svc, "T-Shirts", clothing)
	hats := mustCreate(t, svc, "Hats", clothing)

	assert.Equal(t, "Clothing / T-Shirts", shirts.FullPath)
	assert.Equal(t, "t-shirts", shirts.Slug)
	assert.Equal(t, 1, shirts.SortOrder)
	assert.Equal(t, 2, hats.SortOrder)
	assert.True(t, shirts.IsActive)

	t.Run("sibling name conflict ignores case", func(t *testing.T) {
		_, err := svc.Create(ctx, testTenant, CreateCategoryInput{Name: "hats", ParentID: &clothing.ID})
		assertServiceError(t, err, CodeConflict)
	})

	t.Run("same name under another parent is fine", func(t *testing.T) {
		_, err := svc.Create(ctx, testTenant, CreateCategoryInput{Name: "Hats"})
		assert.NoError(t, err)
	})

	t.Run("sibling slug conflict", func(t *testing.T) {
		slug := "HATS!"
		_, err := svc.Create(ctx, testTenant, CreateCategoryInput{Name: "Caps", ParentID: &clothing.ID, Slug: &slug})
		assertServiceError(t, err, CodeConflict)
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := svc.Create(ctx, testTenant, CreateCategoryInput{Name: "   "})
		assertServiceError(t, err, CodeValidation)
	})

	t.Run("name with path separator", func(t *testing.T) {
		_, err := svc.Create(ctx, testTenant, CreateCategoryInput{Name: "Men/Women"})
		assertServiceError(t, err, CodeValidation)
	})

	t.Run("missing parent", func(t *testing.T) {
		missing := uuid.New()
		_, err := svc.Create(ctx, testTenant, CreateCategoryInput{Name: "Orphan", ParentID: &missing})
		assertServiceError(t, err, CodeNotFound)
	})

	pathsConsistent(t, svc)
}

func TestNormalizeSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Men's Shoes", "men-s-shoes"},
		{"  --Hello,  World--  ", "hello-world"},
		{"T-Shirts & Tops", "t-shirts-tops"},
		{"already-a-slug", "already-a-slug"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeSlug(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeSlug(got))
		})
	}
}

func TestCategoryService_RenameCascadesToBranchAndProducts(t *testing.T) {
	svc, store := newCategoryFixture(t)
	ctx := context.Background()

	clothing := mustCreate(t, svc, "Clothing", nil)
	men := mustCreate(t, svc, "Men", clothing)
	shirts := mustCreate(t, svc, "Shirts", men)

	store.PutProduct(models.Product{TenantID: testTenant, SellerID: "s1", SKU: "SH-1", CategoryID: &shirts.ID, Category: shirts.FullPath})
	store.PutProduct(models.Product{TenantID: testTenant, SellerID: "s1", SKU: "MEN-1", CategoryID: &men.ID, Category: men.FullPath})

	renamed, err := svc.Rename(ctx, testTenant, clothing.ID, RenameCategoryInput{Name: "Apparel"})
	require.NoError(t, err)
	assert.Equal(t, "Apparel", renamed.FullPath)
	assert.Equal(t, "clothing", renamed.Slug, "slug is kept unless one is given")

	got, err := svc.Get(ctx, testTenant, shirts.ID)
	require.NoError(t, err)
	assert.Equal(t, "Apparel / Men / Shirts", got.FullPath)

	labels := map[string]string{}
	for _, p := range store.AllProducts() {
		labels[p.SKU] = p.Category
	}
	assert.Equal(t, "Apparel / Men / Shirts", labels["SH-1"])
	assert.Equal(t, "Apparel / Men", labels["MEN-1"])

	pathsConsistent(t, svc)
}

func TestCategoryService_RenameMovesBranch(t *testing.T) {
	svc, _ := newCategoryFixture(t)
	ctx := context.Background()

	clothing := mustCreate(t, svc, "Clothing", nil)
	shoes := mustCreate(t, svc, "Shoes", nil)
	men := mustCreate(t, svc, "Men", clothing)
	mustCreate(t, svc, "Boots", men)
	existing := mustCreate(t, svc, "Sneakers", shoes)

	moved, err := svc.Rename(ctx, testTenant, men.ID, RenameCategoryInput{Name: "Men", ParentID: &shoes.ID})
	require.NoError(t, err)
	assert.Equal(t, "Shoes / Men", moved.FullPath)
	assert.Greater(t, moved.SortOrder, existing.SortOrder, "moved category goes to the end of its new siblings")

	t.Run("omitted parent keeps placement", func(t *testing.T) {
		renamed, err := svc.Rename(ctx, testTenant, men.ID, RenameCategoryInput{Name: "Mens"})
		require.NoError(t, err)
		require.NotNil(t, renamed.ParentID)
		assert.Equal(t, shoes.ID, *renamed.ParentID)
		assert.Equal(t, "Shoes / Mens", renamed.FullPath)
	})

	t.Run("parent and root together are rejected", func(t *testing.T) {
		_, err := svc.Rename(ctx, testTenant, men.ID, RenameCategoryInput{Name: "Men", ParentID: &clothing.ID, MoveToRoot: true})
		assertServiceError(t, err, CodeValidation)
	})

	t.Run("move to root", func(t *testing.T) {
		root, err := svc.Rename(ctx, testTenant, men.ID, RenameCategoryInput{Name: "Men", MoveToRoot: true})
		require.NoError(t, err)
		assert.Nil(t, root.ParentID)
		assert.Equal(t, "Men", root.FullPath)
	})

	pathsConsistent(t, svc)
}

func TestCategoryService_RenameRejectsCycles(t *testing.T) {
	svc, _ := newCategoryFixture(t)
	ctx := context.Background()

	a := mustCreate(t, svc, "A", nil)
	b := mustCreate(t, svc, "B", a)
	c := mustCreate(t, svc, "C", b)

	_, err := svc.Rename(ctx, testTenant, a.ID, RenameCategoryInput{Name: "A", ParentID: &c.ID})
	assertServiceError(t, err, CodeValidation)

	_, err = svc.Rename(ctx, testTenant, a.ID, RenameCategoryInput{Name: "A", ParentID: &a.ID})
	assertServiceError(t, err, CodeValidation)

	got, err := svc.Get(ctx, testTenant, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)
	pathsConsistent(t, svc)
}

func TestCategoryService_RenameConflictsAndMissing(t *testing.T) {
	svc, _ := newCategoryFixture(t)
	ctx := context.Background()

	mustCreate(t, svc, "Books", nil)
	music := mustCreate(t, svc, "Music", nil)

	_, err := svc.Rename(ctx, testTenant, music.ID, RenameCategoryInput{Name: "BOOKS"})
	assertServiceError(t, err, CodeConflict)

	_, err = svc.Rename(ctx, testTenant, uuid.New(), RenameCategoryInput{Name: "X"})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	slug := "new-music"
	renamed, err := svc.Rename(ctx, testTenant, music.ID, RenameCategoryInput{Name: "Music", Slug: &slug})
	require.NoError(t, err)
	assert.Equal(t, "new-music", renamed.Slug)
}

func TestCategoryService_GetTreeOrderingAndInactive(t *testing.T) {
	svc, store := newCategoryFixture(t)
	ctx := context.Background()

	b := mustCreate(t, svc, "Beta", nil)
	a := mustCreate(t, svc, "Alpha", nil)
	child := mustCreate(t, svc, "Child", a)
	store.PutProduct(models.Product{TenantID: testTenant, SellerID: "s1", SKU: "X", CategoryID: &child.ID})

	require.NoError(t, svc.UpdateSortOrder(ctx, testTenant, a.ID, 0))
	require.NoError(t, svc.SetActive(ctx, testTenant, b.ID, false))

	tree, err := svc.GetTree(ctx, testTenant, false)
	require.NoError(t, err)
	names := []string{}
	for _, n := range tree {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"Alpha", models.DefaultCategoryName}, names)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, 1, tree[0].Children[0].Depth)
	assert.Equal(t, int64(1), tree[0].Children[0].ProductCount)

	all, err := svc.GetTree(ctx, testTenant, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	paths, err := svc.ActivePathIndex(ctx, testTenant)
	require.NoError(t, err)
	assert.Contains(t, paths, "alpha / child")
	assert.NotContains(t, paths, "beta")

	assert.ErrorIs(t, svc.SetActive(ctx, testTenant, uuid.New(), true), ErrCategoryNotFound)
	assert.ErrorIs(t, svc.UpdateSortOrder(ctx, testTenant, uuid.New(), 3), ErrCategoryNotFound)
}

func TestCategoryService_Delete(t *testing.T) {
	svc, store := newCategoryFixture(t)
	ctx := context.Background()

	parent := mustCreate(t, svc, "Parent", nil)
	leaf := mustCreate(t, svc, "Leaf", parent)
	target := mustCreate(t, svc, "Target", nil)
	empty := mustCreate(t, svc, "Empty", nil)
	store.PutProduct(models.Product{TenantID: testTenant, SellerID: "s1", SKU: "P-1", CategoryID: &leaf.ID, Category: leaf.FullPath})

	t.Run("category with children", func(t *testing.T) {
		assertServiceError(t, svc.Delete(ctx, testTenant, parent.ID, &target.ID), CodeConflict)
	})

	t.Run("products without reassignment", func(t *testing.T) {
		assertServiceError(t, svc.Delete(ctx, testTenant, leaf.ID, nil), CodeConflict)
	})

	t.Run("reassign to itself", func(t *testing.T) {
		assertServiceError(t, svc.Delete(ctx, testTenant, leaf.ID, &leaf.ID), CodeValidation)
	})

	t.Run("reassign to missing category", func(t *testing.T) {
		missing := uuid.New()
		assertServiceError(t, svc.Delete(ctx, testTenant, leaf.ID, &missing), CodeNotFound)
	})

	t.Run("empty leaf", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, testTenant, empty.ID, nil))
		_, err := svc.Get(ctx, testTenant, empty.ID)
		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})

	t.Run("reassigns products", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, testTenant, leaf.ID, &target.ID))
		products := store.AllProducts()
		require.Len(t, products, 1)
		assert.Equal(t, target.ID, *products[0].CategoryID)
		assert.Equal(t, "Target", products[0].Category)
	})

	t.Run("missing category", func(t *testing.T) {
		assert.ErrorIs(t, svc.Delete(ctx, testTenant, uuid.New(), nil), ErrCategoryNotFound)
	})
}

func TestCategoryService_TenantIsolation(t *testing.T) {
	svc, _ := newCategoryFixture(t)
	ctx := context.Background()

	c := mustCreate(t, svc, "Private", nil)
	_, err := svc.Get(ctx, "other-tenant", c.ID)
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	list, err := svc.List(ctx, "other-tenant", true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.DefaultCategoryName, list[0].Name)
}

// MockCategoryRepository is a mock implementation of CategoryRepositoryInterface
type MockCategoryRepository struct {
	mock.Mock
}

var _ repository.CategoryRepositoryInterface = (*MockCategoryRepository)(nil)

func (m *MockCategoryRepository) ListAll(ctx context.Context, tenantID string) ([]models.Category, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Category, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *models.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockCategoryRepository) UpdateFields(ctx context.Context, tenantID string, id uuid.UUID, fields map[string]interface{}) error {
	return m.Called(ctx, tenantID, id, fields).Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockCategoryRepository) CountProductsByCategory(ctx context.Context, tenantID string) (map[uuid.UUID]int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(map[uuid.UUID]int64), args.Error(1)
}

func (m *MockCategoryRepository) RelabelProducts(ctx context.Context, tenantID string, categoryID uuid.UUID, label string) error {
	return m.Called(ctx, tenantID, categoryID, label).Error(0)
}

func (m *MockCategoryRepository) ReassignProducts(ctx context.Context, tenantID string, fromID, toID uuid.UUID, label string) (int64, error) {
	args := m.Called(ctx, tenantID, fromID, toID, label)
	return args.Get(0).(int64), args.Error(1)
}

// WithTransaction runs fn against the mock itself
func (m *MockCategoryRepository) WithTransaction(ctx context.Context, tenantID string, fn func(txRepo repository.CategoryRepositoryInterface) error) error {
	return fn(m)
}

func TestCategoryService_RenameSurfacesStorageFailure(t *testing.T) {
	repo := new(MockCategoryRepository)
	svc := NewCategoryService(repo, nil, nil)
	ctx := context.Background()

	root := models.Category{ID: uuid.New(), TenantID: testTenant, Name: "Root", Slug: "root", FullPath: "Root", SortOrder: 1, IsActive: true}
	repo.On("ListAll", ctx, testTenant).Return([]models.Category{root}, nil)
	repo.On("Save", ctx, mock.AnythingOfType("*models.Category")).Return(nil)
	repo.On("RelabelProducts", ctx, testTenant, root.ID, "Renamed").Return(errors.New("connection reset"))

	_, err := svc.Rename(ctx, testTenant, root.ID, RenameCategoryInput{Name: "Renamed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	_, isServiceErr := AsServiceError(err)
	assert.False(t, isServiceErr)
	repo.AssertExpectations(t)
}

func TestCategoryService_DeleteRollsBackOnFailure(t *testing.T) {
	store := repositorytest.NewStore()
	svc := NewCategoryService(store.Categories(), nil, nil)
	ctx := context.Background()

	from := mustCreate(t, svc, "From", nil)
	to := mustCreate(t, svc, "To", nil)
	store.PutProduct(models.Product{TenantID: testTenant, SellerID: "s1", SKU: "P-1", CategoryID: &from.ID, Category: "From"})

	// the category delete fails after products were already reassigned
	failing := &failingDeleteRepo{CategoryRepositoryInterface: store.Categories()}
	svc = NewCategoryService(failing, nil, nil)

	err := svc.Delete(ctx, testTenant, from.ID, &to.ID)
	require.Error(t, err)

	products := store.AllProducts()
	require.Len(t, products, 1)
	assert.Equal(t, from.ID, *products[0].CategoryID, "reassignment is rolled back with the failed delete")
}

type failingDeleteRepo struct {
	repository.CategoryRepositoryInterface
}

func (r *failingDeleteRepo) WithTransaction(ctx context.Context, tenantID string, fn func(txRepo repository.CategoryRepositoryInterface) error) error {
	return r.CategoryRepositoryInterface.WithTransaction(ctx, tenantID, func(txRepo repository.CategoryRepositoryInterface) error {
		return fn(&failingDeleteRepo{CategoryRepositoryInterface: txRepo})
	})
}

func (r *failingDeleteRepo) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	return errors.New("delete failed")
}
