package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/api/middleware"
	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/api/validators"
	"github.com/angelmondragon/souq-backend/internal/coupons"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
)

type couponBody struct {
	Code             string           `json:"code" validate:"required"`
	Discount         decimal.Decimal  `json:"discount"`
	DiscountType     string           `json:"discountType"`
	MaxDiscount      *decimal.Decimal `json:"maxDiscount"`
	MinOrderAmount   decimal.Decimal  `json:"minOrderAmount"`
	ExpirationDate   time.Time        `json:"expirationDate" validate:"required"`
	UsageLimit       *int             `json:"usageLimit"`
	ValidForProducts []uuid.UUID      `json:"validForProducts"`
}

// input defaults an omitted discount type to percentage.
func (b couponBody) input() (coupons.CreateInput, error) {
	kind := enums.DiscountTypePercentage
	if b.DiscountType != "" {
		var err error
		if kind, err = enums.ParseDiscountType(b.DiscountType); err != nil {
			return coupons.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
		}
	}
	return coupons.CreateInput{
		Code:             b.Code,
		Discount:         b.Discount,
		DiscountType:     kind,
		MaxDiscount:      b.MaxDiscount,
		MinOrderAmount:   b.MinOrderAmount,
		ExpirationDate:   b.ExpirationDate,
		UsageLimit:       b.UsageLimit,
		ValidForProducts: b.ValidForProducts,
	}, nil
}

// AdminCreateCoupon records the calling staff member as the coupon's creator.
func AdminCreateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "coupon", svc != nil, func(r *http.Request) (responses.Reply, error) {
		staffID, err := middleware.ActorID(r.Context())
		if err != nil {
			return responses.Reply{}, err
		}
		body, err := validators.Decode[couponBody](r)
		if err != nil {
			return responses.Reply{}, err
		}
		in, err := body.input()
		if err != nil {
			return responses.Reply{}, err
		}
		coupon, err := svc.Create(r.Context(), staffID, in)
		return responses.Created(coupon), err
	})
}

func AdminListCoupons(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "coupon", svc != nil, func(r *http.Request) (responses.Reply, error) {
		list, err := svc.List(r.Context())
		return responses.OK(list), err
	})
}

func AdminDeleteCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "coupon", svc != nil, func(r *http.Request) (responses.Reply, error) {
		id, err := validators.ParseUUIDParam(r, "couponId")
		if err != nil {
			return responses.Reply{}, err
		}
		return responses.NoContent, svc.Delete(r.Context(), id)
	})
}
