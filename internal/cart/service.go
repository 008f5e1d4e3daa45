package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/db"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

// Service manages a customer's cart. Staff acting for a customer call the
// same methods with that customer's id.
type Service interface {
	Get(ctx context.Context, customerID uuid.UUID) (*View, error)
	Add(ctx context.Context, customerID uuid.UUID, input AddInput) (*View, error)
	AddOffer(ctx context.Context, customerID, offerID uuid.UUID, items []AddInput) (*View, error)
	ChangeQuantity(ctx context.Context, customerID, itemID uuid.UUID, delta int) (*View, error)
	Remove(ctx context.Context, customerID, itemID uuid.UUID) error
	Clear(ctx context.Context, customerID uuid.UUID) error
	ClearTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) error
	RemoveOrderedTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, lines []types.OrderLine) error
	Lines(ctx context.Context, customerID uuid.UUID) ([]types.OrderLine, error)
}

// AddInput is one product selection.
type AddInput struct {
	ProductID          uuid.UUID
	Size               int
	Quantity           int
	SelectedAttributes types.Attributes
	Notes              string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLookup interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type offerResolver interface {
	Resolve(ctx context.Context, id uuid.UUID) (*models.Offer, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	products productLookup
	offers   offerResolver
}

// NewService builds the cart service with the required dependencies.
func NewService(repo Repository, tx txRunner, products productLookup, offers offerResolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if offers == nil {
		return nil, fmt.Errorf("offer resolver required")
	}
	return &service{repo: repo, tx: tx, products: products, offers: offers}, nil
}

func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*View, error) {
	items, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	products, err := s.productIndex(ctx, items)
	if err != nil {
		return nil, err
	}
	return buildView(items, products), nil
}

func (s *service) Add(ctx context.Context, customerID uuid.UUID, input AddInput) (*View, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	product, err := s.loadProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if err := ValidateSelection(product, input.Size, input.Quantity, input.SelectedAttributes); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.merge(ctx, s.repo.WithTx(tx), customerID, input, product.Price, nil)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, customerID)
}

func (s *service) AddOffer(ctx context.Context, customerID, offerID uuid.UUID, items []AddInput) (*View, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	offer, err := s.offers.Resolve(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if len(items) != offer.RequiredProductCount {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("offer requires exactly %d products", offer.RequiredProductCount))
	}

	prices := make([]decimal.Decimal, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for i, item := range items {
		if _, dup := seen[item.ProductID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer products must be distinct")
		}
		seen[item.ProductID] = struct{}{}

		offerItem, ok := offer.Item(item.ProductID)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not part of this offer").
				WithDetails(map[string]any{"productId": item.ProductID})
		}
		product, err := s.loadProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if err := ValidateSelection(product, item.Size, item.Quantity, item.SelectedAttributes); err != nil {
			return nil, err
		}
		prices[i] = offerItem.NewPrice
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for i, item := range items {
			if err := s.merge(ctx, repo, customerID, item, prices[i], &offer.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, customerID)
}

func (s *service) ChangeQuantity(ctx context.Context, customerID, itemID uuid.UUID, delta int) (*View, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must not be zero")
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItem(ctx, customerID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		if delta > 0 && item.OfferID == nil {
			product, err := s.loadProduct(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if !product.Price.Equal(item.UnitPriceSnapshot) {
				return pkgerrors.New(pkgerrors.CodeConflict, "product price changed; remove the item and add it again").
					WithDetails(map[string]any{
						"snapshotPrice": item.UnitPriceSnapshot,
						"currentPrice":  product.Price,
					})
			}
		}

		next := item.Quantity + delta
		if next < 1 {
			_, err := repo.Delete(ctx, customerID, itemID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
			}
			return nil
		}
		if err := repo.UpdateQuantity(ctx, itemID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, customerID)
}

func (s *service) Remove(ctx context.Context, customerID, itemID uuid.UUID) error {
	found, err := s.repo.Delete(ctx, customerID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, customerID uuid.UUID) error {
	return s.ClearTx(ctx, nil, customerID)
}

// ClearTx empties the cart inside tx when one is given.
func (s *service) ClearTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) error {
	if err := s.repo.WithTx(tx).Clear(ctx, customerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// RemoveOrderedTx deletes the cart lines an order was placed from. Lines the
// customer added after checkout, or that came from a temp order, stay.
func (s *service) RemoveOrderedTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, lines []types.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(lines))
	for _, l := range lines {
		keys = append(keys, LineKey(l.ProductID, l.Size, l.SelectedAttributes, l.Notes, l.OfferID))
	}
	if err := s.repo.WithTx(tx).DeleteByLineKeys(ctx, customerID, keys); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove ordered cart lines")
	}
	return nil
}

// Lines snapshots the cart for checkout: prices come from the cart while
// titles and weights come fresh from the catalog.
func (s *service) Lines(ctx context.Context, customerID uuid.UUID) ([]types.OrderLine, error) {
	items, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	products, err := s.productIndex(ctx, items)
	if err != nil {
		return nil, err
	}

	lines := make([]types.OrderLine, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok || !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a product in the cart is no longer available").
				WithDetails(map[string]any{"productId": item.ProductID})
		}
		lines = append(lines, types.OrderLine{
			ProductID:          item.ProductID,
			Title:              product.Title,
			Size:               item.Size,
			SelectedAttributes: item.SelectedAttributes,
			UnitPrice:          item.UnitPriceSnapshot,
			Quantity:           item.Quantity,
			Weight:             product.Weight,
			Notes:              item.Notes,
			OfferID:            item.OfferID,
		})
	}
	return lines, nil
}

func (s *service) merge(ctx context.Context, repo Repository, customerID uuid.UUID, input AddInput, price decimal.Decimal, offerID *uuid.UUID) error {
	attrs := NormalizeAttributes(input.SelectedAttributes)
	notes := strings.TrimSpace(input.Notes)
	key := LineKey(input.ProductID, input.Size, attrs, notes, offerID)

	existing, err := repo.FindByLineKey(ctx, customerID, key)
	switch {
	case err == nil:
		if err := repo.UpdateQuantity(ctx, existing.ID, existing.Quantity+input.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	_, err = repo.Create(ctx, &models.CartItem{
		CustomerID:         customerID,
		ProductID:          input.ProductID,
		Size:               input.Size,
		SelectedAttributes: attrs,
		UnitPriceSnapshot:  price,
		Quantity:           input.Quantity,
		Notes:              notes,
		OfferID:            offerID,
		LineKey:            key,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart changed concurrently; retry")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
	}
	return nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) productIndex(ctx context.Context, items []models.CartItem) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	rows, err := s.products.FindProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}
	index := make(map[uuid.UUID]models.Product, len(rows))
	for _, p := range rows {
		index[p.ID] = p
	}
	return index, nil
}

// ValidateSelection checks a product selection against the catalog entry.
func ValidateSelection(product *models.Product, size, quantity int, attrs types.Attributes) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if !product.HasSize(size) {
		return pkgerrors.New(pkgerrors.CodeValidation, "size is not available for this product").
			WithDetails(map[string]any{"productId": product.ID, "size": size})
	}
	if name, ok := product.Attributes.Allows(NormalizeAttributes(attrs)); !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid attribute selection").
			WithDetails(map[string]any{"productId": product.ID, "attribute": name})
	}
	return nil
}
