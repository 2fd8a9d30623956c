package services

import (
	"context"
	"testing"

	"catalog-service/internal/models"
	"catalog-service/internal/repository/repositorytest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type attributeFixture struct {
	svc        *AttributeService
	categories *CategoryService
	store      *repositorytest.Store
}

func newAttributeFixture(t *testing.T) *attributeFixture {
	t.Helper()
	store := repositorytest.NewStore()
	return &attributeFixture{
		svc:        NewAttributeService(store.Attributes(), store.Categories(), nil, nil),
		categories: NewCategoryService(store.Categories(), nil, nil),
		store:      store,
	}
}

func strPtr(s string) *string { return &s }

func TestNormalizeAttributeType(t *testing.T) {
	assert.Equal(t, models.AttributeTypeNumber, NormalizeAttributeType(" Number "))
	assert.Equal(t, models.AttributeTypeList, NormalizeAttributeType("LIST"))
	assert.Equal(t, models.AttributeTypeText, NormalizeAttributeType("colour"))
	assert.Equal(t, models.AttributeTypeText, NormalizeAttributeType(""))
}

func TestNormalizeAttributeOptions(t *testing.T) {
	got := NormalizeAttributeOptions(models.AttributeTypeList, strPtr(" S, m ,,M, L ,s"))
	require.NotNil(t, got)
	assert.Equal(t, "S,m,L", *got)

	assert.Nil(t, NormalizeAttributeOptions(models.AttributeTypeList, strPtr(" , ,")))
	assert.Nil(t, NormalizeAttributeOptions(models.AttributeTypeText, strPtr("a,b")))
	assert.Nil(t, NormalizeAttributeOptions(models.AttributeTypeList, nil))
}

func TestAttributeService_AddOrLinkReusesIdentity(t *testing.T) {
	f := newAttributeFixture(t)
	ctx := context.Background()

	shirts := mustCreate(t, f.categories, "Shirts", nil)
	pants := mustCreate(t, f.categories, "Pants", nil)

	first, err := f.svc.AddOrLink(ctx, testTenant, shirts.ID, models.AttributeInput{Name: "Size", Type: "list", Options: strPtr("S,M,L")})
	require.NoError(t, err)
	assert.Equal(t, "S,M,L", *first.Options)

	second, err := f.svc.AddOrLink(ctx, testTenant, pants.ID, models.AttributeInput{Name: " size ", Type: "LIST", Options: strPtr("l, m, s, S")})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same normalized identity reuses the definition")

	other, err := f.svc.AddOrLink(ctx, testTenant, pants.ID, models.AttributeInput{Name: "Size", Type: "number"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
	assert.Nil(t, other.Options)

	byCategory, err := f.svc.GetForCategories(ctx, testTenant, []uuid.UUID{shirts.ID, pants.ID}, false)
	require.NoError(t, err)
	assert.Len(t, byCategory[shirts.ID], 1)
	assert.Len(t, byCategory[pants.ID], 2)
}

func TestAttributeService_AddOrLinkValidation(t *testing.T) {
	f := newAttributeFixture(t)
	ctx := context.Background()
	c := mustCreate(t, f.categories, "Shoes", nil)

	_, err := f.svc.AddOrLink(ctx, testTenant, c.ID, models.AttributeInput{Name: "  "})
	assertServiceError(t, err, CodeValidation)

	_, err = f.svc.AddOrLink(ctx, testTenant, uuid.New(), models.AttributeInput{Name: "Color"})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestAttributeService_AddOrLinkRevivesDeprecated(t *testing.T) {
	f := newAttributeFixture(t)
	ctx := context.Background()
	a := mustCreate(t, f.categories, "A", nil)
	b := mustCreate(t, f.categories, "B", nil)

	def, err := f.svc.AddOrLink(ctx, testTenant, a.ID, models.AttributeInput{Name: "Material"})
	require.NoError(t, err)
	require.NoError(t, f.svc.SetDeprecated(ctx, testTenant, def.ID, true))

	revived, err := f.svc.AddOrLink(ctx, testTenant, b.ID, models.AttributeInput{Name: "material", IsRequired: true})
	require.NoError(t, err)
	assert.Equal(t, def.ID, revived.ID)
	assert.False(t, revived.IsDeprecated)
	assert.True(t, revived.IsRequired)
}

func TestAttributeService_LinkExistingIsIdempotent(t *testing.T) {
	f := newAttributeFixture(t)
	ctx := context.Background()
	a := mustCreate(t, f.categories, "A", nil)
	b := mustCreate(t, f.categories, "B", nil)

	def, err := f.svc.AddOrLink(ctx, testTenant, a.ID, models.AttributeInput{Name: "Weight", Type: "number"})
	require.NoError(t, err)

	require.NoError(t, f.svc.LinkExisting(ctx, testTenant, def.ID, b.ID))
	require.NoError(t, f.svc.LinkExisting(ctx, testTenant, def.ID, b.ID))

	defs, err := f.svc.GetForCategory(ctx, testTenant, b.ID, false)
	require.NoError(t, err)
	assert.Len(t, defs, 1)

	assert.ErrorIs(t, f.svc.LinkExisting(ctx, testTenant, uuid.New(), b.ID), ErrAttributeNotFound)
	assert.ErrorIs(t, f.svc.LinkExisting(ctx, testTenant, def.ID, uuid.New()), ErrCategoryNotFound)

	require.NoError(t, f.svc.Unlink(ctx, testTenant, def.ID, b.ID))
	defs, err = f.svc.GetForCategory(ctx, testTenant, b.ID, false)
	require.NoError(t, err)
	assert.Empty(t, defs)

	// the definition survives the unlink
	defs, err = f.svc.GetForCategory(ctx, testTenant, a.ID, false)
	require.NoError(t, err)
	assert.Len(t, defs, 1)
}

func TestAttributeService_DeprecatedFiltering(t *testing.T) {
	f := newAttributeFixture(t)
	ctx := context.Background()
	c := mustCreate(t, f.categories, "Bags", nil)

	color, err := f.svc.AddOrLink(ctx, testTenant, c.ID, models.AttributeInput{Name: "Color"})
	require.NoError(t, err)
	_, err = f.svc.AddOrLink(ctx, testTenant, c.ID, models.AttributeInput{Name: "Brand"})
	require.NoError(t, err)
	require.NoError(t, f.svc.SetDeprecated(ctx, testTenant, color.ID, true))

	active, err := f.svc.GetForCategory(ctx, testTenant, c.ID, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Brand", active[0].Name)

	all, err := f.svc.GetForCategory(ctx, testTenant, c.ID, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Brand", all[0].Name, "definitions are ordered by name")

	assert.ErrorIs(t, f.svc.SetDeprecated(ctx, testTenant, uuid.New(), true), ErrAttributeNotFound)
}

func TestAttributeService_GetForCategoriesHasEntryPerID(t *testing.T) {
	f := newAttributeFixture(t)
	ctx := context.Background()

	unknown := uuid.New()
	c := mustCreate(t, f.categories, "Toys", nil)

	result, err := f.svc.GetForCategories(ctx, testTenant, []uuid.UUID{c.ID, unknown}, false)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.NotNil(t, result[unknown])
	assert.Empty(t, result[unknown])

	empty, err := f.svc.GetForCategories(ctx, testTenant, nil, false)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAttributeService_UpdateDefinition(t *testing.T) {
	f := newAttributeFixture(t)
	ctx := context.Background()
	c := mustCreate(t, f.categories, "Phones", nil)

	storage, err := f.svc.AddOrLink(ctx, testTenant, c.ID, models.AttributeInput{Name: "Storage", Type: "list", Options: strPtr("64GB,128GB")})
	require.NoError(t, err)
	_, err = f.svc.AddOrLink(ctx, testTenant, c.ID, models.AttributeInput{Name: "Color"})
	require.NoError(t, err)

	t.Run("identity collision", func(t *testing.T) {
		_, err := f.svc.UpdateDefinition(ctx, testTenant, storage.ID, models.AttributeInput{Name: "COLOR", Type: "text"})
		assertServiceError(t, err, CodeConflict)
	})

	t.Run("edits fields", func(t *testing.T) {
		updated, err := f.svc.UpdateDefinition(ctx, testTenant, storage.ID, models.AttributeInput{Name: "Storage", Type: "list", Options: strPtr("64GB, 256GB ,64gb"), IsRequired: true})
		require.NoError(t, err)
		assert.Equal(t, "64GB,256GB", *updated.Options)
		assert.True(t, updated.IsRequired)
	})

	t.Run("unknown definition", func(t *testing.T) {
		_, err := f.svc.UpdateDefinition(ctx, testTenant, uuid.New(), models.AttributeInput{Name: "X"})
		assert.ErrorIs(t, err, ErrAttributeNotFound)
	})
}

func TestAttributeService_GetLinkable(t *testing.T) {
	f := newAttributeFixture(t)
	ctx := context.Background()
	a := mustCreate(t, f.categories, "A", nil)
	b := mustCreate(t, f.categories, "B", nil)

	linked, err := f.svc.AddOrLink(ctx, testTenant, a.ID, models.AttributeInput{Name: "Linked"})
	require.NoError(t, err)
	require.NoError(t, f.svc.LinkExisting(ctx, testTenant, linked.ID, b.ID))
	free, err := f.svc.AddOrLink(ctx, testTenant, a.ID, models.AttributeInput{Name: "Free"})
	require.NoError(t, err)
	old, err := f.svc.AddOrLink(ctx, testTenant, a.ID, models.AttributeInput{Name: "Old"})
	require.NoError(t, err)
	require.NoError(t, f.svc.SetDeprecated(ctx, testTenant, old.ID, true))

	linkable, err := f.svc.GetLinkable(ctx, testTenant, b.ID)
	require.NoError(t, err)
	require.Len(t, linkable, 1)
	assert.Equal(t, free.ID, linkable[0].ID)
}
