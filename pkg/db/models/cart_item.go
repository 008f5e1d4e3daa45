package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/pkg/types"
)

// CartItem is one line of a customer's cart. LineKey is the canonical merge
// key and is unique per customer.
type CartItem struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID         uuid.UUID        `gorm:"column:customer_id;type:uuid;not null"`
	ProductID          uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	Size               int              `gorm:"column:size;not null"`
	SelectedAttributes types.Attributes `gorm:"column:selected_attributes;type:jsonb;serializer:json"`
	UnitPriceSnapshot  decimal.Decimal  `gorm:"column:unit_price_snapshot;type:numeric(12,3);not null"`
	Quantity           int              `gorm:"column:quantity;not null"`
	Notes              string           `gorm:"column:notes;not null;default:''"`
	OfferID            *uuid.UUID       `gorm:"column:offer_id;type:uuid"`
	LineKey            string           `gorm:"column:line_key;not null"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
