package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/api/validators"
	"github.com/angelmondragon/souq-backend/internal/catalog"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

// ListProducts pages active products, optionally filtered by type and search.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "catalog", svc != nil, func(r *http.Request) (responses.Reply, error) {
		params, err := validators.ParsePage(r)
		if err != nil {
			return responses.Reply{}, err
		}
		typeID, err := validators.ParseOptionalUUIDQuery(r, "productTypeId")
		if err != nil {
			return responses.Reply{}, err
		}
		list, err := svc.ListProducts(r.Context(), catalog.ProductFilter{
			ProductTypeID: typeID,
			Search:        validators.SearchQuery(r),
		}, params)
		return responses.OK(list), err
	})
}

func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "catalog", svc != nil, func(r *http.Request) (responses.Reply, error) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			return responses.Reply{}, err
		}
		product, err := svc.GetProduct(r.Context(), id)
		return responses.OK(product), err
	})
}

func ListProductTypes(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "catalog", svc != nil, func(r *http.Request) (responses.Reply, error) {
		roots, err := svc.ListRootTypes(r.Context())
		return responses.OK(roots), err
	})
}

func ListChildProductTypes(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "catalog", svc != nil, func(r *http.Request) (responses.Reply, error) {
		parentID, err := validators.ParseUUIDParam(r, "parentId")
		if err != nil {
			return responses.Reply{}, err
		}
		children, err := svc.ListChildTypes(r.Context(), parentID)
		return responses.OK(children), err
	})
}

type productBody struct {
	Title          string                 `json:"title" validate:"required"`
	Description    string                 `json:"description"`
	ProductTypeID  *uuid.UUID             `json:"productTypeId"`
	Price          decimal.Decimal        `json:"price"`
	Weight         decimal.Decimal        `json:"weight"`
	AvailableSizes []int                  `json:"availableSizes" validate:"required,min=1"`
	Attributes     types.AttributeOptions `json:"attributes"`
	Images         []string               `json:"images"`
	IsActive       *bool                  `json:"isActive"`
}

// productPatch only touches the fields present in the body.
type productPatch struct {
	Title          *string                 `json:"title"`
	Description    *string                 `json:"description"`
	ProductTypeID  *uuid.UUID              `json:"productTypeId"`
	Price          *decimal.Decimal        `json:"price"`
	Weight         *decimal.Decimal        `json:"weight"`
	AvailableSizes *[]int                  `json:"availableSizes"`
	Attributes     *types.AttributeOptions `json:"attributes"`
	Images         *[]string               `json:"images"`
	IsActive       *bool                   `json:"isActive"`
}

func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "catalog", svc != nil, func(r *http.Request) (responses.Reply, error) {
		body, err := validators.Decode[productBody](r)
		if err != nil {
			return responses.Reply{}, err
		}
		product, err := svc.CreateProduct(r.Context(), catalog.CreateProductInput(body))
		return responses.Created(product), err
	})
}

func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "catalog", svc != nil, func(r *http.Request) (responses.Reply, error) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			return responses.Reply{}, err
		}
		patch, err := validators.Decode[productPatch](r)
		if err != nil {
			return responses.Reply{}, err
		}
		product, err := svc.UpdateProduct(r.Context(), id, catalog.UpdateProductInput(patch))
		return responses.OK(product), err
	})
}

// AdminDeleteProduct deactivates a product; order snapshots keep referencing it.
func AdminDeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "catalog", svc != nil, func(r *http.Request) (responses.Reply, error) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			return responses.Reply{}, err
		}
		return responses.NoContent, svc.DeleteProduct(r.Context(), id)
	})
}

type productTypeBody struct {
	Name     string     `json:"name" validate:"required"`
	ParentID *uuid.UUID `json:"parentId"`
}

func AdminCreateProductType(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "catalog", svc != nil, func(r *http.Request) (responses.Reply, error) {
		body, err := validators.Decode[productTypeBody](r)
		if err != nil {
			return responses.Reply{}, err
		}
		pt, err := svc.CreateType(r.Context(), catalog.CreateTypeInput{Name: body.Name, ParentID: body.ParentID})
		return responses.Created(pt), err
	})
}
