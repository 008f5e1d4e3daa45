package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Attributes holds the customer's chosen value per product attribute.
type Attributes map[string]string

// AttributeOptions lists the allowed values per product attribute.
type AttributeOptions map[string][]string

// Allows reports whether every selected attribute is a known option.
func (o AttributeOptions) Allows(selected Attributes) (string, bool) {
	for name, value := range selected {
		allowed, ok := o[name]
		if !ok {
			return name, false
		}
		found := false
		for _, candidate := range allowed {
			if candidate == value {
				found = true
				break
			}
		}
		if !found {
			return name, false
		}
	}
	return "", true
}

// OrderLine is a priced line item snapshot. Orders and temp orders copy
// these values so later catalog edits never change a placed order.
type OrderLine struct {
	ProductID          uuid.UUID       `json:"productId"`
	Title              string          `json:"title"`
	Size               int             `json:"size"`
	SelectedAttributes Attributes      `json:"selectedAttributes,omitempty"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
	Quantity           int             `json:"quantity"`
	Weight             decimal.Decimal `json:"weight"`
	Notes              string          `json:"notes,omitempty"`
	OfferID            *uuid.UUID      `json:"offerId,omitempty"`
}

// LineTotal is UnitPrice × Quantity.
func (l OrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CouponApplication records the coupon applied to an order.
type CouponApplication struct {
	CouponID     uuid.UUID       `json:"couponId"`
	Code         string          `json:"code"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountType string          `json:"discountType"`
}

// OfferItem is one product of a bundle offer at its offer price.
type OfferItem struct {
	ProductID uuid.UUID       `json:"productId"`
	NewPrice  decimal.Decimal `json:"newPrice"`
}
