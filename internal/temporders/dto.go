package temporders

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

// TempOrderDTO is the API view of a temp order. Staff-only fields are left
// empty for the customer view.
type TempOrderDTO struct {
	ID               uuid.UUID         `json:"id"`
	CustomerPhone    string            `json:"customerPhone"`
	CustomerURL      string            `json:"customerUrl"`
	Products         []types.OrderLine `json:"products"`
	TotalPrice       decimal.Decimal   `json:"totalPrice"`
	ItemCount        int               `json:"itemCount"`
	IsUrgent         bool              `json:"isUrgent"`
	AdminNotes       string            `json:"adminNotes,omitempty"`
	CreatedBy        *uuid.UUID        `json:"createdBy,omitempty"`
	ConvertedOrderID *uuid.UUID        `json:"convertedOrderId,omitempty"`
	ConvertedAt      *time.Time        `json:"convertedAt,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// TempOrderList is a cursor page of temp orders.
type TempOrderList struct {
	Items      []TempOrderDTO `json:"items"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

// CustomerURL builds the link a customer follows to complete the order.
func CustomerURL(frontendURL string, id uuid.UUID) string {
	return strings.TrimRight(frontendURL, "/") + "/checkout?" + url.Values{"tempOrderId": {id.String()}}.Encode()
}

func ToDTO(m models.TempOrder, frontendURL string, staffView bool) TempOrderDTO {
	total := decimal.Zero
	for _, l := range m.Products {
		total = total.Add(l.LineTotal())
	}
	dto := TempOrderDTO{
		ID:               m.ID,
		CustomerPhone:    m.CustomerPhone,
		CustomerURL:      CustomerURL(frontendURL, m.ID),
		Products:         m.Products,
		TotalPrice:       total,
		ItemCount:        len(m.Products),
		IsUrgent:         m.IsUrgent,
		ConvertedOrderID: m.ConvertedOrderID,
		ConvertedAt:      m.ConvertedAt,
		CreatedAt:        m.CreatedAt,
	}
	if staffView {
		dto.AdminNotes = m.AdminNotes
		createdBy := m.CreatedBy
		dto.CreatedBy = &createdBy
	}
	return dto
}
