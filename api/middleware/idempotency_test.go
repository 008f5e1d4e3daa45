package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
)

type memoryIdempotencyStore struct {
	values map[string]string
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{values: map[string]string{}}
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

func routedRequest(method, pattern, path string, body io.Reader, key string) *http.Request {
	req := httptest.NewRequest(method, path, body)
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func placeOrderRequest(body, key string) *http.Request {
	return routedRequest(http.MethodPost, "/api/v1/order", "/api/v1/order", strings.NewReader(body), key)
}

func countingHandler(calls *int, status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func TestReplayWindow(t *testing.T) {
	cases := []struct {
		method  string
		pattern string
		ttl     time.Duration
		tracked bool
	}{
		{http.MethodPost, "/api/v1/order", orderReplayTTL, true},
		{http.MethodPost, "/api/v1/admin/orders", orderReplayTTL, true},
		{http.MethodPost, "/api/v1/temp-orders/{id}/convert", orderReplayTTL, true},
		{http.MethodPost, "/api/v1/admin/temp-orders", replayTTL, true},
		{http.MethodPost, "/api/v1/auth/register", replayTTL, true},
		{http.MethodPost, "/api/v1/checkout", 0, false},
		{http.MethodPut, "/api/v1/admin/order/{orderId}", 0, false},
		{http.MethodGet, "/api/v1/order", 0, false},
	}
	for _, tc := range cases {
		ttl, tracked := replayWindow(routedRequest(tc.method, tc.pattern, "/x", nil, ""))
		assert.Equal(t, tc.tracked, tracked, tc.method+" "+tc.pattern)
		assert.Equal(t, tc.ttl, ttl, tc.method+" "+tc.pattern)
	}
}

func TestIdempotencyWithoutKeyRunsEveryTime(t *testing.T) {
	store := newMemoryIdempotencyStore()
	var calls int
	h := Idempotency(store, nil)(countingHandler(&calls, http.StatusCreated, `{}`))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, placeOrderRequest(`{"paymentMethodId":"2"}`, ""))
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.Equal(t, 2, calls)
	assert.Empty(t, store.values)
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	store := newMemoryIdempotencyStore()
	var calls int
	h := Idempotency(store, nil)(countingHandler(&calls, http.StatusCreated, `{"paymentUrl":"https://pay"}`))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, placeOrderRequest(`{"paymentMethodId":"2"}`, "k1"))
	require.Equal(t, http.StatusCreated, first.Code)

	replay := httptest.NewRecorder()
	h.ServeHTTP(replay, placeOrderRequest(`{"paymentMethodId":"2"}`, "k1"))

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "application/json", replay.Header().Get("Content-Type"))
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, `{"paymentUrl":"https://pay"}`, replay.Body.String())
}

func TestIdempotencyRejectsDifferentBody(t *testing.T) {
	store := newMemoryIdempotencyStore()
	var calls int
	h := Idempotency(store, nil)(countingHandler(&calls, http.StatusCreated, `{}`))

	h.ServeHTTP(httptest.NewRecorder(), placeOrderRequest(`{"paymentMethodId":"2"}`, "k2"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, placeOrderRequest(`{"paymentMethodId":"6"}`, "k2"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeIdempotency), errorCode(t, rec))
	assert.Equal(t, 1, calls)
}

func TestIdempotencyInFlightDuplicateConflicts(t *testing.T) {
	store := newMemoryIdempotencyStore()
	var calls int
	var h http.Handler
	h = Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		dup := httptest.NewRecorder()
		if calls == 1 {
			h.ServeHTTP(dup, placeOrderRequest(`{}`, "k3"))
			assert.Equal(t, http.StatusConflict, dup.Code)
		}
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, placeOrderRequest(`{}`, "k3"))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyServerErrorReleasesKey(t *testing.T) {
	store := newMemoryIdempotencyStore()
	var calls int
	h := Idempotency(store, nil)(countingHandler(&calls, http.StatusBadGateway, `{}`))

	h.ServeHTTP(httptest.NewRecorder(), placeOrderRequest(`{}`, "k4"))
	h.ServeHTTP(httptest.NewRecorder(), placeOrderRequest(`{}`, "k4"))

	assert.Equal(t, 2, calls)
	assert.Empty(t, store.values)
}

func TestIdempotencyScopedPerUser(t *testing.T) {
	store := newMemoryIdempotencyStore()
	var calls int
	h := Idempotency(store, nil)(countingHandler(&calls, http.StatusCreated, `{}`))

	for range 2 {
		req := placeOrderRequest(`{}`, "shared")
		h.ServeHTTP(httptest.NewRecorder(), req.WithContext(WithActor(req.Context(), Actor{ID: uuid.New(), Role: enums.RoleCustomer})))
	}
	assert.Equal(t, 2, calls)
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}
