package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// State is the top of the delivery hierarchy and carries delivery pricing.
type State struct {
	ID                    uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                  string          `gorm:"column:name;not null;uniqueIndex" json:"name"`
	FirstKiloDeliveryCost decimal.Decimal `gorm:"column:first_kilo_delivery_cost;type:numeric(12,3);not null" json:"firstKiloDeliveryCost"`
	DeliveryCostPerKilo   decimal.Decimal `gorm:"column:delivery_cost_per_kilo;type:numeric(12,3);not null" json:"deliveryCostPerKilo"`
	CreatedAt             time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt             time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

type Governorate struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StateID   uuid.UUID `gorm:"column:state_id;type:uuid;not null" json:"stateId"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

type City struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	GovernorateID uuid.UUID `gorm:"column:governorate_id;type:uuid;not null" json:"governorateId"`
	Name          string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (City) TableName() string { return "cities" }
