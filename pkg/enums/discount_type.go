package enums

import "slices"

// DiscountType selects how a coupon's discount value is interpreted.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFlat       DiscountType = "flat"
)

var validDiscountTypes = []DiscountType{
	DiscountTypePercentage,
	DiscountTypeFlat,
}

func (d DiscountType) String() string {
	return string(d)
}

func (d DiscountType) IsValid() bool {
	return slices.Contains(validDiscountTypes, d)
}

func ParseDiscountType(value string) (DiscountType, error) {
	return parse("discount type", value, validDiscountTypes)
}
