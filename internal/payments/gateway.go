package payments

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/pkg/types"
)

// KeyType selects which identifier a status lookup uses.
type KeyType string

const (
	KeyPaymentID KeyType = "PaymentId"
	KeyInvoiceID KeyType = "InvoiceId"
)

// Status is the normalized payment state reported by the gateway.
type Status string

const (
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

// Customer identifies the payer on the hosted invoice.
type Customer struct {
	Name   string
	Email  string
	Mobile string
}

// Address is the delivery address printed on the invoice.
type Address struct {
	Street          string
	HouseBuildingNo string
	Summary         string
	Instructions    string
}

// AddressFromDelivery flattens an order address snapshot for the invoice.
func AddressFromDelivery(a types.DeliveryAddress) Address {
	return Address{
		Street:          strings.TrimSpace(a.Street),
		HouseBuildingNo: strings.TrimSpace(a.Building.Number),
		Summary:         a.Summary(),
		Instructions:    strings.TrimSpace(a.Notes),
	}
}

// InvoiceRequest is everything needed to open a hosted payment page.
type InvoiceRequest struct {
	PaymentMethodID string
	Amount          decimal.Decimal
	Currency        string
	Customer        Customer
	CallbackURL     string
	ErrorURL        string
	Reference       string
	Address         Address
}

// Invoice is the gateway's handle on a created payment page.
type Invoice struct {
	InvoiceID  string
	PaymentURL string
}

// PaymentStatus is the result of a status lookup. Raw holds the full
// gateway response so it can be stored on the order.
type PaymentStatus struct {
	InvoiceID string
	Status    Status
	Error     string
	ErrorCode string
	Raw       json.RawMessage
}

// Gateway opens invoices and reports payment outcomes. Implementations make a
// single bounded attempt and report failures as gateway errors.
type Gateway interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (Invoice, error)
	GetPaymentStatus(ctx context.Context, key string, keyType KeyType) (PaymentStatus, error)
}
