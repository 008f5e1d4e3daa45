package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/angelmondragon/souq-backend/pkg/db/types"
	"github.com/angelmondragon/souq-backend/pkg/enums"
)

// Coupon is a discount rule. UsedCount never exceeds UsageLimit when set.
type Coupon struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code             string             `gorm:"column:code;not null;uniqueIndex"`
	Discount         decimal.Decimal    `gorm:"column:discount;type:numeric(12,3);not null"`
	DiscountType     enums.DiscountType `gorm:"column:discount_type;not null"`
	MaxDiscount      *decimal.Decimal   `gorm:"column:max_discount;type:numeric(12,3)"`
	MinOrderAmount   decimal.Decimal    `gorm:"column:min_order_amount;type:numeric(12,3);not null;default:0"`
	ExpirationDate   time.Time          `gorm:"column:expiration_date;not null"`
	UsageLimit       *int               `gorm:"column:usage_limit"`
	UsedCount        int                `gorm:"column:used_count;not null;default:0"`
	ValidForProducts dbtypes.UUIDArray  `gorm:"column:valid_for_products;type:uuid[];not null;default:'{}'"`
	CreatedBy        *uuid.UUID         `gorm:"column:created_by;type:uuid"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// Status derives the coupon's state at the given instant.
func (c Coupon) Status(now time.Time) enums.CouponStatus {
	if !c.ExpirationDate.After(now) {
		return enums.CouponStatusExpired
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return enums.CouponStatusExhausted
	}
	return enums.CouponStatusActive
}

// AppliesTo reports whether the coupon covers productID.
func (c Coupon) AppliesTo(productID uuid.UUID) bool {
	return len(c.ValidForProducts) == 0 || c.ValidForProducts.Contains(productID)
}
