package coupons

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/db"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/souq-backend/pkg/db/types"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Service manages coupons and resolves codes at checkout.
type Service interface {
	Create(ctx context.Context, staffID uuid.UUID, input CreateInput) (*CouponDTO, error)
	List(ctx context.Context) ([]CouponDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Resolve(ctx context.Context, code string) (*models.Coupon, error)
}

// CreateInput is the admin payload for a new coupon.
type CreateInput struct {
	Code             string
	Discount         decimal.Decimal
	DiscountType     enums.DiscountType
	MaxDiscount      *decimal.Decimal
	MinOrderAmount   decimal.Decimal
	ExpirationDate   time.Time
	UsageLimit       *int
	ValidForProducts []uuid.UUID
}

// CouponDTO adds the derived status to a coupon.
type CouponDTO struct {
	ID               uuid.UUID          `json:"id"`
	Code             string             `json:"code"`
	Discount         decimal.Decimal    `json:"discount"`
	DiscountType     enums.DiscountType `json:"discountType"`
	MaxDiscount      *decimal.Decimal   `json:"maxDiscount,omitempty"`
	MinOrderAmount   decimal.Decimal    `json:"minOrderAmount"`
	ExpirationDate   time.Time          `json:"expirationDate"`
	UsageLimit       *int               `json:"usageLimit,omitempty"`
	UsedCount        int                `json:"usedCount"`
	ValidForProducts []uuid.UUID        `json:"validForProducts"`
	Status           enums.CouponStatus `json:"status"`
	CreatedAt        time.Time          `json:"createdAt"`
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
		return nil, fmt.Errorf("coupon repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{repo: repo, products: products, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, staffID uuid.UUID, input CreateInput) (*CouponDTO, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if !input.DiscountType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discountType must be percentage or flat")
	}
	if !input.Discount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must be greater than zero")
	}
	if input.DiscountType == enums.DiscountTypePercentage && input.Discount.GreaterThan(hundred) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if input.MaxDiscount != nil && !input.MaxDiscount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "maxDiscount must be greater than zero")
	}
	if input.MinOrderAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minOrderAmount cannot be negative")
	}
	if input.UsageLimit != nil && *input.UsageLimit < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usageLimit must be at least 1")
	}
	if !input.ExpirationDate.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expirationDate must be in the future")
	}
	productIDs := dedupe(input.ValidForProducts)
	if err := s.ensureProductsExist(ctx, productIDs); err != nil {
		return nil, err
	}

	var createdBy *uuid.UUID
	if staffID != uuid.Nil {
		createdBy = &staffID
	}
	coupon, err := s.repo.Create(ctx, &models.Coupon{
		Code:             code,
		Discount:         input.Discount,
		DiscountType:     input.DiscountType,
		MaxDiscount:      input.MaxDiscount,
		MinOrderAmount:   input.MinOrderAmount,
		ExpirationDate:   input.ExpirationDate.UTC(),
		UsageLimit:       input.UsageLimit,
		ValidForProducts: dbtypes.UUIDArray(productIDs),
		CreatedBy:        createdBy,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	dto := s.toDTO(*coupon)
	return &dto, nil
}

func (s *service) List(ctx context.Context) ([]CouponDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	out := make([]CouponDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, s.toDTO(c))
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	return nil
}

// Resolve returns the coupon for code when it can still be redeemed.
func (s *service) Resolve(ctx context.Context, code string) (*models.Coupon, error) {
	if NormalizeCode(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon")
	}
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	switch coupon.Status(s.now()) {
	case enums.CouponStatusExpired:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon expired")
	case enums.CouponStatusExhausted:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon usage limit reached")
	}
	return coupon, nil
}

func (s *service) ensureProductsExist(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := s.products.FindProducts(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon products")
	}
	if len(rows) != len(ids) {
		return pkgerrors.New(pkgerrors.CodeValidation, "validForProducts contains unknown products")
	}
	return nil
}

func (s *service) toDTO(c models.Coupon) CouponDTO {
	ids := []uuid.UUID(c.ValidForProducts)
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return CouponDTO{
		ID:               c.ID,
		Code:             c.Code,
		Discount:         c.Discount,
		DiscountType:     c.DiscountType,
		MaxDiscount:      c.MaxDiscount,
		MinOrderAmount:   c.MinOrderAmount,
		ExpirationDate:   c.ExpirationDate,
		UsageLimit:       c.UsageLimit,
		UsedCount:        c.UsedCount,
		ValidForProducts: ids,
		Status:           c.Status(s.now()),
		CreatedAt:        c.CreatedAt,
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
