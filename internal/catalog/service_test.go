package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(setupCatalogTestDB(t)))
	require.NoError(t, err)
	return svc
}

func validCreateInput() CreateProductInput {
	return CreateProductInput{
		Title:          " Kaftan ",
		Price:          decimal.RequireFromString("12.500"),
		Weight:         decimal.RequireFromString("0.8"),
		AvailableSizes: []int{1, 2, 3},
	}
}

func TestServiceCreateProductValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	cases := map[string]func(*CreateProductInput){
		"zero price":      func(in *CreateProductInput) { in.Price = decimal.Zero },
		"negative weight": func(in *CreateProductInput) { in.Weight = decimal.NewFromInt(-1) },
		"no sizes":        func(in *CreateProductInput) { in.AvailableSizes = nil },
		"bad size":        func(in *CreateProductInput) { in.AvailableSizes = []int{2, 0} },
		"missing title":   func(in *CreateProductInput) { in.Title = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validCreateInput()
			mutate(&in)
			_, err := svc.CreateProduct(ctx, in)
			require.Error(t, err)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
		})
	}
}

func TestServiceProductLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	created, err := svc.CreateProduct(ctx, validCreateInput())
	require.NoError(t, err)
	assert.Equal(t, "Kaftan", created.Title)
	assert.Equal(t, []int{1, 2, 3}, created.AvailableSizes)
	assert.True(t, created.IsActive)

	newPrice := decimal.RequireFromString("9.750")
	updated, err := svc.UpdateProduct(ctx, created.ID, UpdateProductInput{Price: &newPrice})
	require.NoError(t, err)
	assert.True(t, newPrice.Equal(updated.Price))

	list, err := svc.ListProducts(ctx, ProductFilter{}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))

	_, err = svc.GetProduct(ctx, created.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	err = svc.DeleteProduct(ctx, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestServiceTypes(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	root, err := svc.CreateType(ctx, CreateTypeInput{Name: "Shoes"})
	require.NoError(t, err)
	_, err = svc.CreateType(ctx, CreateTypeInput{Name: "Sandals", ParentID: &root.ID})
	require.NoError(t, err)

	missing := uuid.New()
	_, err = svc.CreateType(ctx, CreateTypeInput{Name: "Orphan", ParentID: &missing})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	children, err := svc.ListChildTypes(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "Sandals", children[0].Name)

	roots, err := svc.ListRootTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, roots, 1)
}

func TestServiceListProductsRejectsBadCursor(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.ListProducts(context.Background(), ProductFilter{}, pagination.Params{Cursor: "not-a-cursor"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}
