package orders

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/souq-backend/api/middleware"
	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/api/validators"
	internalorders "github.com/angelmondragon/souq-backend/internal/orders"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
)

// List returns a page of orders. Customers only ever see their own; staff may
// filter by customer, status, payment and urgency.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "orders", svc != nil, func(r *http.Request) (responses.Reply, error) {
		actor, err := actorFromRequest(r)
		if err != nil {
			return responses.Reply{}, err
		}
		params, err := validators.ParsePage(r)
		if err != nil {
			return responses.Reply{}, err
		}
		filter, err := buildFilter(r)
		if err != nil {
			return responses.Reply{}, err
		}
		list, err := svc.List(r.Context(), actor, filter, params)
		return responses.OK(list), err
	})
}

func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "orders", svc != nil, func(r *http.Request) (responses.Reply, error) {
		actor, err := actorFromRequest(r)
		if err != nil {
			return responses.Reply{}, err
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			return responses.Reply{}, err
		}
		order, err := svc.Get(r.Context(), actor, orderID)
		return responses.OK(order), err
	})
}

type statusBody struct {
	Status            string     `json:"status" validate:"required"`
	TrackingNumber    *string    `json:"trackingNumber"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
	AdminNotes        *string    `json:"adminNotes"`
}

// UpdateStatus moves an order to a new non-pending status.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "orders", svc != nil, func(r *http.Request) (responses.Reply, error) {
		actor, err := actorFromRequest(r)
		if err != nil {
			return responses.Reply{}, err
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			return responses.Reply{}, err
		}
		body, err := validators.Decode[statusBody](r)
		if err != nil {
			return responses.Reply{}, err
		}
		status, err := enums.ParseOrderStatus(strings.TrimSpace(body.Status))
		if err != nil {
			return responses.Reply{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").
				WithDetails(map[string]any{"allowed": enums.StaffOrderStatuses()})
		}
		order, err := svc.UpdateStatus(r.Context(), actor, internalorders.UpdateStatusInput{
			OrderID:           orderID,
			Status:            status,
			TrackingNumber:    body.TrackingNumber,
			EstimatedDelivery: body.EstimatedDelivery,
			AdminNotes:        body.AdminNotes,
		})
		return responses.OK(order), err
	})
}

func actorFromRequest(r *http.Request) (internalorders.Actor, error) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok || !actor.Role.IsValid() {
		return internalorders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user")
	}
	return internalorders.Actor{UserID: actor.ID, Role: actor.Role}, nil
}

func buildFilter(r *http.Request) (internalorders.ListFilter, error) {
	var filter internalorders.ListFilter
	q := r.URL.Query()

	customerID, err := validators.ParseOptionalUUIDQuery(r, "customerId")
	if err != nil {
		return filter, err
	}
	filter.CustomerID = customerID

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filter.Status = &status
	}
	if filter.IsPaid, err = parseOptionalBool(q.Get("isPaid"), "isPaid"); err != nil {
		return filter, err
	}
	if filter.IsUrgent, err = parseOptionalBool(q.Get("isUrgent"), "isUrgent"); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseOptionalBool(raw, field string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).WithDetails(map[string]any{"field": field})
	}
	return &v, nil
}
