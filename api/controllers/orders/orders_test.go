package orders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalorders "github.com/angelmondragon/souq-backend/internal/orders"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
)

type stubOrders struct {
	actor  internalorders.Actor
	filter internalorders.ListFilter
	params pagination.Params
	update internalorders.UpdateStatusInput
}

func (s *stubOrders) Get(ctx context.Context, actor internalorders.Actor, id uuid.UUID) (*internalorders.OrderDTO, error) {
	s.actor = actor
	return &internalorders.OrderDTO{ID: id}, nil
}

func (s *stubOrders) List(ctx context.Context, actor internalorders.Actor, filter internalorders.ListFilter, params pagination.Params) (*internalorders.OrderList, error) {
	s.actor, s.filter, s.params = actor, filter, params
	return &internalorders.OrderList{Items: []internalorders.OrderDTO{}}, nil
}

func (s *stubOrders) UpdateStatus(ctx context.Context, actor internalorders.Actor, input internalorders.UpdateStatusInput) (*internalorders.OrderDTO, error) {
	s.actor, s.update = actor, input
	return &internalorders.OrderDTO{ID: input.OrderID, Status: input.Status}, nil
}

func withOrderID(req *http.Request, id string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestListParsesFilters(t *testing.T) {
	svc := &stubOrders{}
	customerID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?status=processing&isPaid=true&isUrgent=false&limit=10&customerId="+customerID.String(), nil)
	req = withActor(req, uuid.New(), enums.RoleAdmin)
	resp := httptest.NewRecorder()

	List(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.NotNil(t, svc.filter.Status)
	assert.Equal(t, enums.OrderStatusProcessing, *svc.filter.Status)
	require.NotNil(t, svc.filter.IsPaid)
	assert.True(t, *svc.filter.IsPaid)
	require.NotNil(t, svc.filter.IsUrgent)
	assert.False(t, *svc.filter.IsUrgent)
	require.NotNil(t, svc.filter.CustomerID)
	assert.Equal(t, customerID, *svc.filter.CustomerID)
	assert.Equal(t, 10, svc.params.Limit)
	assert.Equal(t, enums.RoleAdmin, svc.actor.Role)
}

func TestListRejectsBadFilter(t *testing.T) {
	svc := &stubOrders{}
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=lost", nil), uuid.New(), enums.RoleCustomer)
	resp := httptest.NewRecorder()

	List(svc, nil).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateStatusParsesBody(t *testing.T) {
	svc := &stubOrders{}
	orderID := uuid.New()
	body := `{"status":"shipped","trackingNumber":"TRK-9","estimatedDelivery":"2026-10-20T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/operator/order/"+orderID.String(), strings.NewReader(body))
	req = withOrderID(withActor(req, uuid.New(), enums.RoleOperator), orderID.String())
	resp := httptest.NewRecorder()

	UpdateStatus(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, orderID, svc.update.OrderID)
	assert.Equal(t, enums.OrderStatusShipped, svc.update.Status)
	require.NotNil(t, svc.update.TrackingNumber)
	assert.Equal(t, "TRK-9", *svc.update.TrackingNumber)
	require.NotNil(t, svc.update.EstimatedDelivery)
	assert.Equal(t, enums.RoleOperator, svc.actor.Role)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrders{}
	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"teleported"}`))
	req = withOrderID(withActor(req, uuid.New(), enums.RoleAdmin), orderID.String())
	resp := httptest.NewRecorder()

	UpdateStatus(svc, nil).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, uuid.Nil, svc.update.OrderID)
}

func TestDetailRejectsMalformedID(t *testing.T) {
	svc := &stubOrders{}
	req := withOrderID(withActor(httptest.NewRequest(http.MethodGet, "/", nil), uuid.New(), enums.RoleCustomer), "nope")
	resp := httptest.NewRecorder()

	Detail(svc, nil).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
