package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/souq-backend/pkg/types"
)

// Offer is a bundle: pick RequiredProductCount distinct products from Items
// and each is billed at its NewPrice.
type Offer struct {
	ID                   uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title                string            `gorm:"column:title;not null" json:"title"`
	ExpirationDate       time.Time         `gorm:"column:expiration_date;not null" json:"expirationDate"`
	RequiredProductCount int               `gorm:"column:required_product_count;not null" json:"requiredProductCount"`
	Items                []types.OfferItem `gorm:"column:items;type:jsonb;serializer:json;not null" json:"items"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// Item returns the offer entry for productID.
func (o Offer) Item(productID uuid.UUID) (types.OfferItem, bool) {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return types.OfferItem{}, false
}
