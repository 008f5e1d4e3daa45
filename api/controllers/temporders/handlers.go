package temporders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/souq-backend/api/middleware"
	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/api/validators"
	internaltemp "github.com/angelmondragon/souq-backend/internal/temporders"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

const service = "temp order"

type lineBody struct {
	ProductID          uuid.UUID        `json:"productId" validate:"required"`
	Size               int              `json:"size" validate:"required,min=1"`
	Quantity           int              `json:"quantity" validate:"required,min=1"`
	SelectedAttributes types.Attributes `json:"selectedAttributes"`
	Notes              string           `json:"notes"`
}

type createBody struct {
	CustomerPhone string     `json:"customerPhone" validate:"required"`
	Products      []lineBody `json:"products" validate:"required,min=1,dive"`
	AdminNotes    string     `json:"adminNotes"`
	IsUrgent      bool       `json:"isUrgent"`
}

type convertBody struct {
	Address         types.AddressInput `json:"deliveryAddress" validate:"required"`
	Notes           string             `json:"notes"`
	CouponCode      string             `json:"couponCode"`
	PaymentMethodID string             `json:"paymentMethodId" validate:"required"`
}

// Get shows a temp order to the customer following the shared link.
func Get(svc internaltemp.Service, logg *logger.Logger) http.HandlerFunc {
	return show(svc, false, logg)
}

// AdminGet shows a temp order with staff-only fields.
func AdminGet(svc internaltemp.Service, logg *logger.Logger) http.HandlerFunc {
	return show(svc, true, logg)
}

func show(svc internaltemp.Service, staffView bool, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, service, svc != nil, func(r *http.Request) (responses.Reply, error) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			return responses.Reply{}, err
		}
		temp, err := svc.Get(r.Context(), id, staffView)
		return responses.OK(temp), err
	})
}

// Convert places an order from a temp order for the logged-in customer.
func Convert(svc internaltemp.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, service, svc != nil, func(r *http.Request) (responses.Reply, error) {
		customerID, err := middleware.ActorID(r.Context())
		if err != nil {
			return responses.Reply{}, err
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			return responses.Reply{}, err
		}
		body, err := validators.Decode[convertBody](r)
		if err != nil {
			return responses.Reply{}, err
		}
		body.CouponCode = strings.TrimSpace(body.CouponCode)
		body.PaymentMethodID = strings.TrimSpace(body.PaymentMethodID)
		result, err := svc.Convert(r.Context(), customerID, id, internaltemp.ConvertInput(body))
		return responses.Created(result), err
	})
}

func Create(svc internaltemp.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, service, svc != nil, func(r *http.Request) (responses.Reply, error) {
		staffID, err := middleware.ActorID(r.Context())
		if err != nil {
			return responses.Reply{}, err
		}
		body, err := validators.Decode[createBody](r)
		if err != nil {
			return responses.Reply{}, err
		}
		lines := make([]internaltemp.LineInput, len(body.Products))
		for i, p := range body.Products {
			lines[i] = internaltemp.LineInput(p)
		}
		result, err := svc.Create(r.Context(), staffID, internaltemp.CreateInput{
			CustomerPhone: body.CustomerPhone,
			Products:      lines,
			AdminNotes:    body.AdminNotes,
			IsUrgent:      body.IsUrgent,
		})
		return responses.Created(result), err
	})
}

func List(svc internaltemp.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, service, svc != nil, func(r *http.Request) (responses.Reply, error) {
		params, err := validators.ParsePage(r)
		if err != nil {
			return responses.Reply{}, err
		}
		list, err := svc.List(r.Context(), params)
		return responses.OK(list), err
	})
}
