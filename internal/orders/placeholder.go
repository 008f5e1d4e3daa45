package orders

import (
	"strings"

	"github.com/google/uuid"
)

// PlaceholderPaymentURL marks an order whose invoice has not been created yet.
const PlaceholderPaymentURL = "pending"

const placeholderInvoicePrefix = "temp-"

// PlaceholderInvoiceID is the unique invoice reference a pending order holds
// until the gateway returns the real one.
func PlaceholderInvoiceID(orderID uuid.UUID) string {
	return placeholderInvoicePrefix + orderID.String()
}

// IsPlaceholderInvoice reports whether invoiceID was never replaced by a
// gateway invoice.
func IsPlaceholderInvoice(invoiceID string) bool {
	return strings.HasPrefix(invoiceID, placeholderInvoicePrefix)
}
