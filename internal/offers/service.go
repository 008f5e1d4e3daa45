package offers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

// Service manages bundle offers.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Offer, error)
	List(ctx context.Context) ([]models.Offer, error)
	ListActive(ctx context.Context) ([]models.Offer, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Resolve(ctx context.Context, id uuid.UUID) (*models.Offer, error)
}

// CreateInput is the admin payload for a new offer.
type CreateInput struct {
	Title                string
	ExpirationDate       time.Time
	RequiredProductCount int
	Items                []types.OfferItem
}

type productLookup interface {
	FindProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type service struct {
	repo     *Repository
	products productLookup
	now      func() time.Time
}

func NewService(repo *Repository, products productLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("offer repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{repo: repo, products: products, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Offer, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.ExpirationDate.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expirationDate must be in the future")
	}
	if input.RequiredProductCount < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requiredProductCount must be at least 1")
	}
	if len(input.Items) < input.RequiredProductCount {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer needs at least requiredProductCount items")
	}

	ids := make([]uuid.UUID, 0, len(input.Items))
	seen := make(map[uuid.UUID]struct{}, len(input.Items))
	for _, item := range input.Items {
		if _, dup := seen[item.ProductID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer items must be distinct products")
		}
		if !item.NewPrice.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer item price must be greater than zero")
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	rows, err := s.products.FindProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer products")
	}
	if len(rows) != len(ids) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer contains unknown products")
	}

	offer, err := s.repo.Create(ctx, &models.Offer{
		Title:                title,
		ExpirationDate:       input.ExpirationDate.UTC(),
		RequiredProductCount: input.RequiredProductCount,
		Items:                input.Items,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
	}
	return offer, nil
}

func (s *service) List(ctx context.Context) ([]models.Offer, error) {
	rows, err := s.repo.List(ctx, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	return rows, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.Offer, error) {
	now := s.now().UTC()
	rows, err := s.repo.List(ctx, &now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	return rows, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete offer")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
	}
	return nil
}

// Resolve returns the offer when it has not expired.
func (s *service) Resolve(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	if !offer.ExpirationDate.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer expired")
	}
	return offer, nil
}
