// Package pricing computes checkout totals. It performs no I/O so the same
// code backs both the preview endpoint and order placement.
package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
)

// AmountPlaces is the precision of KWD amounts (fils).
const AmountPlaces = 3

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Line is a priced cart line. Weight comes fresh from the catalog while
// UnitPrice is the cart snapshot.
type Line struct {
	ProductID uuid.UUID
	UnitPrice decimal.Decimal
	Quantity  int
	Weight    decimal.Decimal
}

// Total is UnitPrice × Quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// DeliveryRates are the per-state delivery charges.
type DeliveryRates struct {
	FirstKilo decimal.Decimal
	PerKilo   decimal.Decimal
}

// RatesFromState reads the delivery rates off a state row.
func RatesFromState(state models.State) DeliveryRates {
	return DeliveryRates{FirstKilo: state.FirstKiloDeliveryCost, PerKilo: state.DeliveryCostPerKilo}
}

// CouponTerms is the subset of a coupon the engine needs.
type CouponTerms struct {
	DiscountType   enums.DiscountType
	Value          decimal.Decimal
	MaxDiscount    *decimal.Decimal
	MinOrderAmount decimal.Decimal
	ProductIDs     []uuid.UUID
}

// TermsFromCoupon converts a stored coupon. A nil coupon yields nil terms.
func TermsFromCoupon(c *models.Coupon) *CouponTerms {
	if c == nil {
		return nil
	}
	return &CouponTerms{
		DiscountType:   c.DiscountType,
		Value:          c.Discount,
		MaxDiscount:    c.MaxDiscount,
		MinOrderAmount: c.MinOrderAmount,
		ProductIDs:     []uuid.UUID(c.ValidForProducts),
	}
}

func (t *CouponTerms) covers(productID uuid.UUID) bool {
	if len(t.ProductIDs) == 0 {
		return true
	}
	for _, id := range t.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// Quote is the full price breakdown of a checkout.
type Quote struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	TotalWeight  decimal.Decimal `json:"totalWeight"`
	DeliveryCost decimal.Decimal `json:"deliveryCost"`
	Discount     decimal.Decimal `json:"discount"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
}

// DeliveryCost charges firstKilo for the first kilogram and perKilo for every
// started kilogram above it.
func DeliveryCost(weight, firstKilo, perKilo decimal.Decimal) decimal.Decimal {
	excess := weight.Sub(one)
	if !excess.IsPositive() {
		return firstKilo
	}
	return firstKilo.Add(excess.Ceil().Mul(perKilo))
}

// Discount computes the coupon discount. subtotal gates the minimum order
// amount; eligible is the part of the subtotal the coupon covers.
func Discount(subtotal, eligible decimal.Decimal, terms *CouponTerms) (decimal.Decimal, error) {
	if terms == nil {
		return decimal.Zero, nil
	}
	if subtotal.LessThan(terms.MinOrderAmount) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "order total is below the coupon minimum").
			WithDetails(map[string]any{"minOrderAmount": terms.MinOrderAmount.StringFixed(AmountPlaces)})
	}

	var raw decimal.Decimal
	switch terms.DiscountType {
	case enums.DiscountTypePercentage:
		raw = eligible.Mul(terms.Value).Div(hundred)
	case enums.DiscountTypeFlat:
		raw = decimal.Min(terms.Value, eligible)
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon")
	}

	if terms.MaxDiscount != nil && raw.GreaterThan(*terms.MaxDiscount) {
		raw = *terms.MaxDiscount
	}
	if raw.IsNegative() {
		return decimal.Zero, nil
	}
	return raw, nil
}

// Price builds the quote for lines delivered at rates with an optional coupon.
func Price(lines []Line, rates DeliveryRates, terms *CouponTerms) (Quote, error) {
	subtotal := decimal.Zero
	eligible := decimal.Zero
	weight := decimal.Zero
	for _, l := range lines {
		lineTotal := l.Total()
		subtotal = subtotal.Add(lineTotal)
		weight = weight.Add(l.Weight.Mul(decimal.NewFromInt(int64(l.Quantity))))
		if terms != nil && terms.covers(l.ProductID) {
			eligible = eligible.Add(lineTotal)
		}
	}

	discount, err := Discount(subtotal, eligible, terms)
	if err != nil {
		return Quote{}, err
	}

	delivery := DeliveryCost(weight, rates.FirstKilo, rates.PerKilo)
	total := subtotal.Sub(discount).Add(delivery).Round(AmountPlaces)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Quote{
		Subtotal:     subtotal,
		TotalWeight:  weight,
		DeliveryCost: delivery,
		Discount:     discount.Round(AmountPlaces),
		TotalAmount:  total,
	}, nil
}
