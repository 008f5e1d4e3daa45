package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/pkg/types"
)

// Product is a catalog listing. Price is in KWD, weight in kilograms.
type Product struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title          string                 `gorm:"column:title;not null"`
	Description    string                 `gorm:"column:description;not null;default:''"`
	ProductTypeID  *uuid.UUID             `gorm:"column:product_type_id;type:uuid"`
	Price          decimal.Decimal        `gorm:"column:price;type:numeric(12,3);not null"`
	Weight         decimal.Decimal        `gorm:"column:weight;type:numeric(10,3);not null;default:0"`
	AvailableSizes pq.Int64Array          `gorm:"column:available_sizes;type:integer[];not null"`
	Attributes     types.AttributeOptions `gorm:"column:attributes;type:jsonb;serializer:json"`
	Images         pq.StringArray         `gorm:"column:images;type:text[]"`
	IsActive       bool                   `gorm:"column:is_active;not null"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// HasSize reports whether size is one of the product's available sizes.
func (p Product) HasSize(size int) bool {
	for _, s := range p.AvailableSizes {
		if int(s) == size {
			return true
		}
	}
	return false
}
