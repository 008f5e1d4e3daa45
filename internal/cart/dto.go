package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

// ItemView is a cart line with the live product title.
type ItemView struct {
	ID                 uuid.UUID        `json:"id"`
	ProductID          uuid.UUID        `json:"productId"`
	Title              string           `json:"title"`
	Size               int              `json:"size"`
	SelectedAttributes types.Attributes `json:"selectedAttributes,omitempty"`
	UnitPrice          decimal.Decimal  `json:"unitPrice"`
	Quantity           int              `json:"quantity"`
	LineTotal          decimal.Decimal  `json:"lineTotal"`
	Notes              string           `json:"notes,omitempty"`
	OfferID            *uuid.UUID       `json:"offerId,omitempty"`
	Available          bool             `json:"available"`
	PriceChanged       bool             `json:"priceChanged"`
}

// View is a customer's cart.
type View struct {
	Items    []ItemView      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func buildView(items []models.CartItem, products map[uuid.UUID]models.Product) *View {
	view := &View{Items: make([]ItemView, 0, len(items)), Subtotal: decimal.Zero}
	for _, item := range items {
		lineTotal := item.UnitPriceSnapshot.Mul(decimal.NewFromInt(int64(item.Quantity)))
		product, ok := products[item.ProductID]
		iv := ItemView{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			Size:               item.Size,
			SelectedAttributes: item.SelectedAttributes,
			UnitPrice:          item.UnitPriceSnapshot,
			Quantity:           item.Quantity,
			LineTotal:          lineTotal,
			Notes:              item.Notes,
			OfferID:            item.OfferID,
			Available:          ok && product.IsActive,
		}
		if ok {
			iv.Title = product.Title
			iv.PriceChanged = item.OfferID == nil && !product.Price.Equal(item.UnitPriceSnapshot)
		}
		view.Items = append(view.Items, iv)
		view.Subtotal = view.Subtotal.Add(lineTotal)
	}
	return view
}
