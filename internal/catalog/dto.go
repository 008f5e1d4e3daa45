package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

// ProductDTO is the API representation of a product.
type ProductDTO struct {
	ID             uuid.UUID              `json:"id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	ProductTypeID  *uuid.UUID             `json:"productTypeId,omitempty"`
	Price          decimal.Decimal        `json:"price"`
	Weight         decimal.Decimal        `json:"weight"`
	AvailableSizes []int                  `json:"availableSizes"`
	Attributes     types.AttributeOptions `json:"attributes,omitempty"`
	Images         []string               `json:"images"`
	IsActive       bool                   `json:"isActive"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// ProductTypeDTO is the API representation of a product type.
type ProductTypeDTO struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parentId,omitempty"`
}

// ProductList is a page of products.
type ProductList = pagination.Page[ProductDTO]

func toProductDTO(p models.Product) ProductDTO {
	sizes := make([]int, 0, len(p.AvailableSizes))
	for _, s := range p.AvailableSizes {
		sizes = append(sizes, int(s))
	}
	images := []string(p.Images)
	if images == nil {
		images = []string{}
	}
	return ProductDTO{
		ID:             p.ID,
		Title:          p.Title,
		Description:    p.Description,
		ProductTypeID:  p.ProductTypeID,
		Price:          p.Price,
		Weight:         p.Weight,
		AvailableSizes: sizes,
		Attributes:     p.Attributes,
		Images:         images,
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toProductTypeDTOs(rows []models.ProductType) []ProductTypeDTO {
	out := make([]ProductTypeDTO, 0, len(rows))
	for _, pt := range rows {
		out = append(out, ProductTypeDTO{ID: pt.ID, Name: pt.Name, ParentID: pt.ParentID})
	}
	return out
}
