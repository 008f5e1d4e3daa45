package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

// Service exposes catalog reads and admin product management.
type Service interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, filter ProductFilter, params pagination.Params) (*ProductList, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListRootTypes(ctx context.Context) ([]ProductTypeDTO, error)
	ListChildTypes(ctx context.Context, parentID uuid.UUID) ([]ProductTypeDTO, error)
	CreateType(ctx context.Context, input CreateTypeInput) (*ProductTypeDTO, error)
}

// CreateProductInput is a new product as accepted from staff.
type CreateProductInput struct {
	Title          string
	Description    string
	ProductTypeID  *uuid.UUID
	Price          decimal.Decimal
	Weight         decimal.Decimal
	AvailableSizes []int
	Attributes     types.AttributeOptions
	Images         []string
	IsActive       *bool
}

// UpdateProductInput carries a partial product update; nil fields are left alone.
type UpdateProductInput struct {
	Title          *string
	Description    *string
	ProductTypeID  *uuid.UUID
	Price          *decimal.Decimal
	Weight         *decimal.Decimal
	AvailableSizes *[]int
	Attributes     *types.AttributeOptions
	Images         *[]string
	IsActive       *bool
}

// CreateTypeInput names a new product type under an optional parent.
type CreateTypeInput struct {
	Name     string
	ParentID *uuid.UUID
}

type service struct {
	repo *Repository
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, mapFindError(err, "product not found", "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	dto := toProductDTO(*product)
	return &dto, nil
}

func (s *service) ListProducts(ctx context.Context, filter ProductFilter, params pagination.Params) (*ProductList, error) {
	rows, err := s.repo.ListProducts(ctx, filter, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	page := pagination.Trim(rows, params.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	out := ProductList{Items: make([]ProductDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, p := range page.Items {
		out.Items = append(out.Items, toProductDTO(p))
	}
	return &out, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	product := &models.Product{
		Title:          strings.TrimSpace(input.Title),
		Description:    strings.TrimSpace(input.Description),
		ProductTypeID:  input.ProductTypeID,
		Price:          input.Price,
		Weight:         input.Weight,
		AvailableSizes: toInt64Array(input.AvailableSizes),
		Attributes:     input.Attributes,
		Images:         pq.StringArray(input.Images),
		IsActive:       true,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.ensureType(ctx, product.ProductTypeID); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	dto := toProductDTO(*created)
	return &dto, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, mapFindError(err, "product not found", "load product")
	}

	if input.Title != nil {
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.ProductTypeID != nil {
		product.ProductTypeID = input.ProductTypeID
		if err := s.ensureType(ctx, product.ProductTypeID); err != nil {
			return nil, err
		}
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Weight != nil {
		product.Weight = *input.Weight
	}
	if input.AvailableSizes != nil {
		product.AvailableSizes = toInt64Array(*input.AvailableSizes)
	}
	if input.Attributes != nil {
		product.Attributes = *input.Attributes
	}
	if input.Images != nil {
		product.Images = pq.StringArray(*input.Images)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	saved, err := s.repo.SaveProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	dto := toProductDTO(*saved)
	return &dto, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.DeactivateProduct(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) ListRootTypes(ctx context.Context) ([]ProductTypeDTO, error) {
	rows, err := s.repo.ListTypes(ctx, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list product types")
	}
	return toProductTypeDTOs(rows), nil
}

func (s *service) ListChildTypes(ctx context.Context, parentID uuid.UUID) ([]ProductTypeDTO, error) {
	if err := s.ensureType(ctx, &parentID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListTypes(ctx, &parentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list product types")
	}
	return toProductTypeDTOs(rows), nil
}

func (s *service) CreateType(ctx context.Context, input CreateTypeInput) (*ProductTypeDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := s.ensureType(ctx, input.ParentID); err != nil {
		return nil, err
	}
	pt, err := s.repo.CreateType(ctx, &models.ProductType{Name: name, ParentID: input.ParentID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product type")
	}
	return &ProductTypeDTO{ID: pt.ID, Name: pt.Name, ParentID: pt.ParentID}, nil
}

func (s *service) ensureType(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.repo.FindType(ctx, *id); err != nil {
		return mapFindError(err, "product type not found", "load product type")
	}
	return nil
}

func validateProduct(p *models.Product) error {
	if p.Title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !p.Price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}
	if p.Weight.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "weight cannot be negative")
	}
	if len(p.AvailableSizes) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "availableSizes must be a non-empty array")
	}
	for _, size := range p.AvailableSizes {
		if size <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "availableSizes must contain positive numbers")
		}
	}
	for name, values := range p.Attributes {
		if strings.TrimSpace(name) == "" || len(values) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "attributes need a name and at least one value").
				WithDetails(map[string]any{"attribute": name})
		}
	}
	return nil
}

func toInt64Array(sizes []int) pq.Int64Array {
	out := make(pq.Int64Array, 0, len(sizes))
	for _, s := range sizes {
		out = append(out, int64(s))
	}
	return out
}

func mapFindError(err error, notFoundMsg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
