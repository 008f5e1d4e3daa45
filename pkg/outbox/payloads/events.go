package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when a pending order is persisted.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"orderId"`
	CustomerID  uuid.UUID       `json:"customerId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CouponCode  string          `json:"couponCode,omitempty"`
	IsUrgent    bool            `json:"isUrgent"`
	StaffID     *uuid.UUID      `json:"staffId,omitempty"`
}

// OrderPaidEvent is emitted once when the gateway confirms payment.
type OrderPaidEvent struct {
	OrderID     uuid.UUID       `json:"orderId"`
	CustomerID  uuid.UUID       `json:"customerId"`
	InvoiceID   string          `json:"invoiceId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	PaidAt      time.Time       `json:"paidAt"`
}

// OrderFailedEvent is emitted when the gateway reports a failed payment.
type OrderFailedEvent struct {
	OrderID    uuid.UUID `json:"orderId"`
	CustomerID uuid.UUID `json:"customerId"`
	InvoiceID  string    `json:"invoiceId"`
	Error      string    `json:"error,omitempty"`
	ErrorCode  string    `json:"errorCode,omitempty"`
}

// OrderStatusChangedEvent is emitted when staff move an order forward.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"orderId"`
	CustomerID     uuid.UUID         `json:"customerId"`
	From           enums.OrderStatus `json:"from"`
	To             enums.OrderStatus `json:"to"`
	TrackingNumber *string           `json:"trackingNumber,omitempty"`
}

// OrderCancelledEvent is emitted when staff cancel an order.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID         `json:"orderId"`
	CustomerID  uuid.UUID         `json:"customerId"`
	From        enums.OrderStatus `json:"from"`
	WasPaid     bool              `json:"wasPaid"`
	CancelledAt time.Time         `json:"cancelledAt"`
}

// OrderExpiredEvent is emitted by the sweep when a pending order times out.
type OrderExpiredEvent struct {
	OrderID    uuid.UUID `json:"orderId"`
	CustomerID uuid.UUID `json:"customerId"`
	InvoiceID  string    `json:"invoiceId"`
	ExpiredAt  time.Time `json:"expiredAt"`
	TTLMinutes int       `json:"ttlMinutes"`
}
