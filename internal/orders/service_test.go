package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/db"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/outbox"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
)

type recordingEmitter struct {
	events []outbox.DomainEvent
}

func (r *recordingEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEmitter) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return r.Emit(ctx, tx, event)
}

func newTestService(t *testing.T) (Service, Repository, *recordingEmitter) {
	t.Helper()
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	emitter := &recordingEmitter{}
	svc, err := NewService(repo, db.FromConn(conn), emitter)
	require.NoError(t, err)
	return svc, repo, emitter
}

var (
	admin    = Actor{UserID: uuid.New(), Role: enums.RoleAdmin}
	operator = Actor{UserID: uuid.New(), Role: enums.RoleOperator}
)

func TestGetScopesCustomers(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	owner := uuid.New()
	order := seedOrder(t, repo, owner, enums.OrderStatusPending, time.Now().UTC())

	dto, err := svc.Get(ctx, Actor{UserID: owner, Role: enums.RoleCustomer}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentURL, dto.PaymentURL)
	assert.Empty(t, dto.AdminNotes)

	_, err = svc.Get(ctx, Actor{UserID: uuid.New(), Role: enums.RoleCustomer}, order.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = svc.Get(ctx, operator, order.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, Actor{}, order.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestListScopesCustomers(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	owner := uuid.New()
	seedOrder(t, repo, owner, enums.OrderStatusPending, time.Now().UTC())
	seedOrder(t, repo, uuid.New(), enums.OrderStatusPending, time.Now().UTC())

	mine, err := svc.List(ctx, Actor{UserID: owner, Role: enums.RoleCustomer}, ListFilter{}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 1)

	all, err := svc.List(ctx, admin, ListFilter{}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
}

func TestUpdateStatusTransitions(t *testing.T) {
	ctx := context.Background()
	svc, repo, emitter := newTestService(t)
	order := seedOrder(t, repo, uuid.New(), enums.OrderStatusProcessing, time.Now().UTC())
	tracking := " TRK-9 "

	dto, err := svc.UpdateStatus(ctx, operator, UpdateStatusInput{OrderID: order.ID, Status: enums.OrderStatusShipped, TrackingNumber: &tracking})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, dto.Status)
	require.NotNil(t, dto.TrackingNumber)
	assert.Equal(t, "TRK-9", *dto.TrackingNumber)
	require.Len(t, emitter.events, 1)
	assert.Equal(t, enums.EventOrderStatusChanged, emitter.events[0].EventType)

	_, err = svc.UpdateStatus(ctx, operator, UpdateStatusInput{OrderID: order.ID, Status: enums.OrderStatusFailed})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	_, err = svc.UpdateStatus(ctx, admin, UpdateStatusInput{OrderID: order.ID, Status: enums.OrderStatusCancelled})
	require.NoError(t, err)
	require.Len(t, emitter.events, 2)
	assert.Equal(t, enums.EventOrderCancelled, emitter.events[1].EventType)

	_, err = svc.UpdateStatus(ctx, admin, UpdateStatusInput{OrderID: order.ID, Status: enums.OrderStatusCompleted})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
}

func TestUpdateStatusRejectsPendingAndCustomers(t *testing.T) {
	ctx := context.Background()
	svc, repo, emitter := newTestService(t)
	order := seedOrder(t, repo, uuid.New(), enums.OrderStatusPending, time.Now().UTC())

	_, err := svc.UpdateStatus(ctx, admin, UpdateStatusInput{OrderID: order.ID, Status: enums.OrderStatusPending})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateStatus(ctx, admin, UpdateStatusInput{OrderID: order.ID, Status: enums.OrderStatusProcessing})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	_, err = svc.UpdateStatus(ctx, Actor{UserID: order.CustomerID, Role: enums.RoleCustomer}, UpdateStatusInput{OrderID: order.ID, Status: enums.OrderStatusCancelled})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	_, err = svc.UpdateStatus(ctx, admin, UpdateStatusInput{OrderID: uuid.New(), Status: enums.OrderStatusCancelled})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	assert.Empty(t, emitter.events)
}
