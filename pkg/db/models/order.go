package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

// Order is the durable record of a checkout that reached persistence. Line
// items, address and coupon are copied values.
type Order struct {
	ID                uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID        uuid.UUID                `gorm:"column:customer_id;type:uuid;not null"`
	Products          []types.OrderLine        `gorm:"column:products;type:jsonb;serializer:json;not null"`
	Subtotal          decimal.Decimal          `gorm:"column:subtotal;type:numeric(12,3);not null"`
	Discount          decimal.Decimal          `gorm:"column:discount;type:numeric(12,3);not null;default:0"`
	DeliveryCost      decimal.Decimal          `gorm:"column:delivery_cost;type:numeric(12,3);not null"`
	TotalAmount       decimal.Decimal          `gorm:"column:total_amount;type:numeric(12,3);not null"`
	TotalWeight       decimal.Decimal          `gorm:"column:total_weight;type:numeric(10,3);not null"`
	DeliveryAddress   types.DeliveryAddress    `gorm:"column:delivery_address;type:jsonb;serializer:json;not null"`
	Coupon            *types.CouponApplication `gorm:"column:coupon;type:jsonb;serializer:json"`
	IsUrgent          bool                     `gorm:"column:is_urgent;not null;default:false"`
	IsPaid            bool                     `gorm:"column:is_paid;not null;default:false"`
	Status            enums.OrderStatus        `gorm:"column:status;not null;default:'pending'"`
	InvoiceID         string                   `gorm:"column:invoice_id;not null;uniqueIndex"`
	PaymentURL        string                   `gorm:"column:payment_url;not null"`
	PaymentDetails    json.RawMessage          `gorm:"column:payment_details;type:jsonb;serializer:json"`
	Notes             string                   `gorm:"column:notes;not null;default:''"`
	AdminNotes        string                   `gorm:"column:admin_notes;not null;default:''"`
	TrackingNumber    *string                  `gorm:"column:tracking_number"`
	EstimatedDelivery *time.Time               `gorm:"column:estimated_delivery"`
	CreatedByStaffID  *uuid.UUID               `gorm:"column:created_by_staff_id;type:uuid"`
	PaidAt            *time.Time               `gorm:"column:paid_at"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
