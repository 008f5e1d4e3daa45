package pubsub

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestResourceNames(t *testing.T) {
	assert.Equal(t, "projects/souq/topics/orders", topicResourceName("souq", "orders"))
	assert.Equal(t, "projects/other/topics/orders", topicResourceName("souq", "projects/other/topics/orders"))
	assert.Equal(t, "projects/souq/subscriptions/orders-sub", subscriptionResourceName("souq", " orders-sub "))
	assert.Empty(t, topicResourceName("", "orders"))
	assert.Empty(t, topicResourceName("souq", ""))
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("orders"))
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))
}

func TestLookupError(t *testing.T) {
	assert.NoError(t, lookupError("topic", "orders", nil))
	assert.EqualError(t, lookupError("topic", "orders", status.Error(codes.NotFound, "gone")), `topic "orders" does not exist`)

	err := lookupError("subscription", "orders-sub", status.Error(codes.PermissionDenied, "nope"))
	assert.Contains(t, err.Error(), `checking subscription "orders-sub"`)
	assert.Equal(t, codes.PermissionDenied, status.Code(errors.Unwrap(err)))
}
