package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestDeliveryCost(t *testing.T) {
	first, per := d("2"), d("1")

	cases := []struct {
		weight string
		want   string
	}{
		{"0", "2"},
		{"0.4", "2"},
		{"1", "2"},
		{"1.001", "3"},
		{"2.3", "4"},
		{"3", "4"},
	}
	for _, tc := range cases {
		got := DeliveryCost(d(tc.weight), first, per)
		assert.True(t, d(tc.want).Equal(got), "weight %s: got %s want %s", tc.weight, got, tc.want)
	}
}

func TestDeliveryCostMonotonic(t *testing.T) {
	first, per := d("1.5"), d("0.75")
	prev := DeliveryCost(decimal.Zero, first, per)
	for w := 1; w <= 100; w++ {
		cur := DeliveryCost(decimal.New(int64(w), -1), first, per)
		assert.False(t, cur.LessThan(prev), "cost decreased at weight %d/10", w)
		prev = cur
	}
}

func TestDiscountPercentageCapped(t *testing.T) {
	max := d("5")
	terms := &CouponTerms{DiscountType: enums.DiscountTypePercentage, Value: d("20"), MaxDiscount: &max}

	got, err := Discount(d("10"), d("10"), terms)
	require.NoError(t, err)
	assert.True(t, d("2").Equal(got))

	got, err = Discount(d("100"), d("100"), terms)
	require.NoError(t, err)
	assert.True(t, d("5").Equal(got))
}

func TestDiscountFlatNeverExceedsEligible(t *testing.T) {
	terms := &CouponTerms{DiscountType: enums.DiscountTypeFlat, Value: d("8")}

	got, err := Discount(d("20"), d("6"), terms)
	require.NoError(t, err)
	assert.True(t, d("6").Equal(got))
}

func TestDiscountMinimumOrder(t *testing.T) {
	for _, typ := range []enums.DiscountType{enums.DiscountTypeFlat, enums.DiscountTypePercentage} {
		terms := &CouponTerms{DiscountType: typ, Value: d("3"), MinOrderAmount: d("25")}
		_, err := Discount(d("20"), d("20"), terms)
		require.Error(t, err)
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	}
}

func TestPriceWorkedExamples(t *testing.T) {
	lines := []Line{{ProductID: uuid.New(), UnitPrice: d("10"), Quantity: 2, Weight: d("1.5")}}
	rates := DeliveryRates{FirstKilo: d("2"), PerKilo: d("1")}

	t.Run("flat coupon", func(t *testing.T) {
		quote, err := Price(lines, rates, &CouponTerms{DiscountType: enums.DiscountTypeFlat, Value: d("3"), MinOrderAmount: d("5")})
		require.NoError(t, err)
		assert.True(t, d("20").Equal(quote.Subtotal))
		assert.True(t, d("3").Equal(quote.TotalWeight))
		assert.True(t, d("4").Equal(quote.DeliveryCost))
		assert.True(t, d("3").Equal(quote.Discount))
		assert.Equal(t, "21.000", quote.TotalAmount.StringFixed(AmountPlaces))
	})

	t.Run("no coupon", func(t *testing.T) {
		quote, err := Price(lines, rates, nil)
		require.NoError(t, err)
		assert.Equal(t, "24.000", quote.TotalAmount.StringFixed(AmountPlaces))
	})

	t.Run("below minimum", func(t *testing.T) {
		_, err := Price(lines, rates, &CouponTerms{DiscountType: enums.DiscountTypeFlat, Value: d("3"), MinOrderAmount: d("25")})
		require.Error(t, err)
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	})
}

func TestPriceScopesCouponToProducts(t *testing.T) {
	covered, other := uuid.New(), uuid.New()
	lines := []Line{
		{ProductID: covered, UnitPrice: d("10"), Quantity: 1, Weight: d("0.5")},
		{ProductID: other, UnitPrice: d("30"), Quantity: 1, Weight: d("0.5")},
	}
	terms := &CouponTerms{DiscountType: enums.DiscountTypePercentage, Value: d("50"), ProductIDs: []uuid.UUID{covered}}

	quote, err := Price(lines, DeliveryRates{FirstKilo: d("1"), PerKilo: d("1")}, terms)
	require.NoError(t, err)
	assert.True(t, d("5").Equal(quote.Discount))
	assert.Equal(t, "36.000", quote.TotalAmount.StringFixed(AmountPlaces))
}

func TestPriceRoundsToFils(t *testing.T) {
	lines := []Line{{ProductID: uuid.New(), UnitPrice: d("3.333"), Quantity: 1, Weight: d("0")}}
	terms := &CouponTerms{DiscountType: enums.DiscountTypePercentage, Value: d("15")}

	quote, err := Price(lines, DeliveryRates{FirstKilo: d("1"), PerKilo: d("0")}, terms)
	require.NoError(t, err)
	assert.Equal(t, "3.833", quote.TotalAmount.StringFixed(AmountPlaces))
}
