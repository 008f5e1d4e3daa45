package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/souq-backend/pkg/types"
)

// TempOrder is a staff-assembled cart snapshot awaiting the named customer.
type TempOrder struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerPhone    string            `gorm:"column:customer_phone;not null"`
	Products         []types.OrderLine `gorm:"column:products;type:jsonb;serializer:json;not null"`
	AdminNotes       string            `gorm:"column:admin_notes;not null;default:''"`
	IsUrgent         bool              `gorm:"column:is_urgent;not null;default:false"`
	CreatedBy        uuid.UUID         `gorm:"column:created_by;type:uuid;not null"`
	ConvertedOrderID *uuid.UUID        `gorm:"column:converted_order_id;type:uuid"`
	ConvertedAt      *time.Time        `gorm:"column:converted_at"`
	ConvertingAt     *time.Time        `gorm:"column:converting_at"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
