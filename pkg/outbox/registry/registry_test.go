package registry

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/souq-backend/pkg/config"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/outbox"
	"github.com/angelmondragon/souq-backend/pkg/outbox/payloads"
)

func ordersRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders-topic"})
	require.NoError(t, err)
	return reg
}

func orderRow(t *testing.T, eventType enums.OutboxEventType, data string) models.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(data),
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
	}
}

func TestResolveDecodesTypedPayload(t *testing.T) {
	orderID := uuid.New()
	data, err := json.Marshal(payloads.OrderPaidEvent{
		OrderID:     orderID,
		CustomerID:  uuid.New(),
		InvoiceID:   "inv-1001",
		TotalAmount: decimal.RequireFromString("21.000"),
		PaidAt:      time.Now().UTC(),
	})
	require.NoError(t, err)

	resolved, err := ordersRegistry(t).Resolve(orderRow(t, enums.EventOrderPaid, string(data)))
	require.NoError(t, err)

	assert.Equal(t, "orders-topic", resolved.Descriptor.Topic)
	assert.NotEmpty(t, resolved.Envelope.EventID)
	paid, ok := resolved.Payload.(*payloads.OrderPaidEvent)
	require.True(t, ok, "payload %T", resolved.Payload)
	assert.Equal(t, orderID, paid.OrderID)
	assert.Equal(t, "inv-1001", paid.InvoiceID)
	assert.True(t, paid.TotalAmount.Equal(decimal.NewFromInt(21)))
}

func TestResolveRoutesEveryOrderEvent(t *testing.T) {
	reg := ordersRegistry(t)
	for _, et := range []enums.OutboxEventType{
		enums.EventOrderCreated,
		enums.EventOrderPaid,
		enums.EventOrderFailed,
		enums.EventOrderStatusChanged,
		enums.EventOrderCancelled,
		enums.EventOrderExpired,
	} {
		_, err := reg.Resolve(orderRow(t, et, `{"orderId":"00000000-0000-0000-0000-000000000001"}`))
		assert.NoError(t, err, et)
	}
}

func TestResolveRejectsPermanently(t *testing.T) {
	cases := map[string]func(*models.OutboxEvent){
		"unknown event":     func(e *models.OutboxEvent) { e.EventType = "order_refunded" },
		"wrong aggregate":   func(e *models.OutboxEvent) { e.AggregateType = "customer" },
		"missing aggregate": func(e *models.OutboxEvent) { e.AggregateID = uuid.Nil },
		"broken envelope":   func(e *models.OutboxEvent) { e.Payload = json.RawMessage(`{"data":`) },
		"null data":         func(e *models.OutboxEvent) { e.Payload = json.RawMessage(`{"version":1,"data":null}`) },
		"mistyped payload":  func(e *models.OutboxEvent) { e.Payload = json.RawMessage(`{"version":1,"data":{"orderId":42}}`) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			row := orderRow(t, enums.EventOrderCreated, `{"orderId":"00000000-0000-0000-0000-000000000001"}`)
			mutate(&row)
			_, err := ordersRegistry(t).Resolve(row)
			require.Error(t, err)
			assert.True(t, IsNonRetryable(err))
		})
	}
}

func TestIsNonRetryableUnwraps(t *testing.T) {
	assert.True(t, IsNonRetryable(fmt.Errorf("publish: %w", NewNonRetryableError(fmt.Errorf("no topic")))))
	assert.False(t, IsNonRetryable(fmt.Errorf("transient")))
	assert.Equal(t, "non-retryable error", NonRetryableError{}.Error())
}

func TestNewEventRegistryRequiresTopic(t *testing.T) {
	_, err := NewEventRegistry(config.PubSubConfig{})
	assert.Error(t, err)
}
