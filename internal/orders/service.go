package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/outbox"
	"github.com/angelmondragon/souq-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Actor is the authenticated principal calling the service. Customer, operator
// and admin routes share this one implementation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

func (a Actor) isStaff() bool {
	return a.Role.IsStaff()
}

func (a Actor) ref() *outbox.ActorRef {
	return &outbox.ActorRef{UserID: a.UserID, Role: a.Role.String()}
}

// Service defines order reads and staff status changes.
type Service interface {
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, actor Actor, filter ListFilter, params pagination.Params) (*OrderList, error)
	UpdateStatus(ctx context.Context, actor Actor, input UpdateStatusInput) (*OrderDTO, error)
}

// UpdateStatusInput carries a staff status change.
type UpdateStatusInput struct {
	OrderID           uuid.UUID
	Status            enums.OrderStatus
	TrackingNumber    *string
	EstimatedDelivery *time.Time
	AdminNotes        *string
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outbox.Emitter
	now    func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter, now: time.Now}, nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error) {
	if err := validateActor(actor); err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFindError(err)
	}
	if !actor.isStaff() && order.CustomerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := ToDTO(*order, actor.isStaff())
	return &dto, nil
}

func (s *service) List(ctx context.Context, actor Actor, filter ListFilter, params pagination.Params) (*OrderList, error) {
	if err := validateActor(actor); err != nil {
		return nil, err
	}
	if !actor.isStaff() {
		customerID := actor.UserID
		filter.CustomerID = &customerID
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}

	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	out := OrderList{Items: make([]OrderDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, o := range page.Items {
		out.Items = append(out.Items, ToDTO(o, actor.isStaff()))
	}
	return &out, nil
}

// UpdateStatus applies a staff transition. Pending is never a target and a
// pending order can only be cancelled by staff; payment moves it forward.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, input UpdateStatusInput) (*OrderDTO, error) {
	if err := validateActor(actor); err != nil {
		return nil, err
	}
	if !actor.isStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "staff role required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() || input.Status == enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status").
			WithDetails(map[string]any{"allowed": enums.StaffOrderStatuses()})
	}
	fields := StatusFields{
		TrackingNumber:    trimmed(input.TrackingNumber),
		EstimatedDelivery: input.EstimatedDelivery,
		AdminNotes:        trimmed(input.AdminNotes),
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return mapFindError(err)
		}

		from := order.Status
		if from == input.Status {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already has this status")
		}
		if !from.CanTransitionTo(input.Status) || (from == enums.OrderStatusPending && input.Status != enums.OrderStatusCancelled) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]any{"from": from, "to": input.Status})
		}

		ok, err := repo.UpdateStatus(ctx, order.ID, from, input.Status, fields)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently; retry")
		}

		if err := s.emitStatusEvent(ctx, tx, actor, order, from, input.Status, fields.TrackingNumber); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order status event")
		}

		updated, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := ToDTO(*updated, true)
	return &dto, nil
}

func (s *service) emitStatusEvent(ctx context.Context, tx *gorm.DB, actor Actor, order *models.Order, from, to enums.OrderStatus, tracking *string) error {
	if to == enums.OrderStatusCancelled {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor.ref(),
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				CustomerID:  order.CustomerID,
				From:        from,
				WasPaid:     order.IsPaid,
				CancelledAt: s.now().UTC(),
			},
		})
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor.ref(),
		Data: payloads.OrderStatusChangedEvent{
			OrderID:        order.ID,
			CustomerID:     order.CustomerID,
			From:           from,
			To:             to,
			TrackingNumber: tracking,
		},
	})
}

func validateActor(actor Actor) error {
	if actor.UserID == uuid.Nil || !actor.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return nil
}

func mapFindError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
