package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

// OrderDTO is the API representation of an order.
type OrderDTO struct {
	ID                uuid.UUID                `json:"id"`
	CustomerID        uuid.UUID                `json:"customerId"`
	Products          []types.OrderLine        `json:"products"`
	Subtotal          decimal.Decimal          `json:"subtotal"`
	Discount          decimal.Decimal          `json:"discount"`
	DeliveryCost      decimal.Decimal          `json:"deliveryCost"`
	TotalAmount       decimal.Decimal          `json:"totalAmount"`
	TotalWeight       decimal.Decimal          `json:"totalWeight"`
	DeliveryAddress   types.DeliveryAddress    `json:"deliveryAddress"`
	Coupon            *types.CouponApplication `json:"coupon,omitempty"`
	IsUrgent          bool                     `json:"isUrgent"`
	IsPaid            bool                     `json:"isPaid"`
	Status            enums.OrderStatus        `json:"status"`
	InvoiceID         string                   `json:"invoiceId"`
	PaymentURL        string                   `json:"paymentUrl,omitempty"`
	PaymentDetails    json.RawMessage          `json:"paymentDetails,omitempty"`
	Notes             string                   `json:"notes,omitempty"`
	AdminNotes        string                   `json:"adminNotes,omitempty"`
	TrackingNumber    *string                  `json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time               `json:"estimatedDelivery,omitempty"`
	CreatedByStaffID  *uuid.UUID               `json:"createdByStaffId,omitempty"`
	PaidAt            *time.Time               `json:"paidAt,omitempty"`
	CreatedAt         time.Time                `json:"createdAt"`
	UpdatedAt         time.Time                `json:"updatedAt"`
}

// OrderList is a page of orders.
type OrderList = pagination.Page[OrderDTO]

// ToDTO converts an order row. Staff-only fields are dropped for customers.
func ToDTO(o models.Order, staffView bool) OrderDTO {
	dto := OrderDTO{
		ID:                o.ID,
		CustomerID:        o.CustomerID,
		Products:          o.Products,
		Subtotal:          o.Subtotal,
		Discount:          o.Discount,
		DeliveryCost:      o.DeliveryCost,
		TotalAmount:       o.TotalAmount,
		TotalWeight:       o.TotalWeight,
		DeliveryAddress:   o.DeliveryAddress,
		Coupon:            o.Coupon,
		IsUrgent:          o.IsUrgent,
		IsPaid:            o.IsPaid,
		Status:            o.Status,
		InvoiceID:         o.InvoiceID,
		Notes:             o.Notes,
		TrackingNumber:    o.TrackingNumber,
		EstimatedDelivery: o.EstimatedDelivery,
		PaidAt:            o.PaidAt,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	if !o.IsPaid && o.Status == enums.OrderStatusPending && o.PaymentURL != PlaceholderPaymentURL {
		dto.PaymentURL = o.PaymentURL
	}
	if staffView {
		dto.PaymentDetails = o.PaymentDetails
		dto.AdminNotes = o.AdminNotes
		dto.CreatedByStaffID = o.CreatedByStaffID
	}
	return dto
}
