package orders

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
)

func TestPlaceholderInvoice(t *testing.T) {
	id := uuid.New()
	invoice := PlaceholderInvoiceID(id)
	assert.Equal(t, "temp-"+id.String(), invoice)
	assert.True(t, IsPlaceholderInvoice(invoice))
	assert.False(t, IsPlaceholderInvoice("4512"))
}

func TestToDTOHidesPlaceholderPaymentURL(t *testing.T) {
	order := models.Order{
		ID:         uuid.New(),
		Status:     enums.OrderStatusPending,
		PaymentURL: PlaceholderPaymentURL,
		AdminNotes: "call first",
	}
	dto := ToDTO(order, false)
	assert.Empty(t, dto.PaymentURL)
	assert.Empty(t, dto.AdminNotes)

	order.PaymentURL = "https://pay.test/1"
	assert.Equal(t, "https://pay.test/1", ToDTO(order, false).PaymentURL)
	assert.Equal(t, "call first", ToDTO(order, true).AdminNotes)

	order.IsPaid = true
	order.Status = enums.OrderStatusProcessing
	assert.Empty(t, ToDTO(order, false).PaymentURL)
}
