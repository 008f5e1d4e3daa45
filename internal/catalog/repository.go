package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	ProductTypeID   *uuid.UUID
	Search          string
	IncludeInactive bool
}

// Repository persists products and product types.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindProduct loads a product regardless of its active flag.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProducts loads the products with the given ids. Missing ids are skipped.
func (r *Repository) FindProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

// ListProducts returns one cursor page of products, newest first.
func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter, params pagination.Params) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filter.ProductTypeID != nil {
		query = query.Where("product_type_id = ?", *filter.ProductTypeID)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}

	page, err := pagination.Keyset(params)
	if err != nil {
		return nil, err
	}

	var rows []models.Product
	err = query.Scopes(page).Find(&rows).Error
	return rows, err
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// SaveProduct persists every column of an existing product.
func (r *Repository) SaveProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeactivateProduct hides the product from the storefront. Orders keep their
// snapshots so the row is never removed.
func (r *Repository) DeactivateProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("is_active", false)
	return res.RowsAffected > 0, res.Error
}

// FindType loads a product type.
func (r *Repository) FindType(ctx context.Context, id uuid.UUID) (*models.ProductType, error) {
	var pt models.ProductType
	if err := r.db.WithContext(ctx).First(&pt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pt, nil
}

// ListTypes returns the children of parentID, or the root types when nil.
func (r *Repository) ListTypes(ctx context.Context, parentID *uuid.UUID) ([]models.ProductType, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductType{})
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	var rows []models.ProductType
	err := query.Order("name ASC").Find(&rows).Error
	return rows, err
}

// CreateType inserts a product type.
func (r *Repository) CreateType(ctx context.Context, pt *models.ProductType) (*models.ProductType, error) {
	if pt.ID == uuid.Nil {
		pt.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(pt).Error; err != nil {
		return nil, err
	}
	return pt, nil
}
