package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/souq-backend/api/middleware"
	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/api/validators"
	"github.com/angelmondragon/souq-backend/internal/checkout"
	"github.com/angelmondragon/souq-backend/internal/customers"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

type previewBody struct {
	Address    types.AddressInput `json:"deliveryAddress" validate:"required"`
	CouponCode string             `json:"couponCode"`
}

type placeBody struct {
	Address         types.AddressInput `json:"deliveryAddress" validate:"required"`
	Notes           string             `json:"notes"`
	CouponCode      string             `json:"couponCode"`
	PaymentMethodID string             `json:"paymentMethodId" validate:"required"`
}

// onBehalfBody names the customer by one of id, phone or email.
type onBehalfBody struct {
	CustomerID      *uuid.UUID         `json:"customerId"`
	Phone           string             `json:"phone"`
	Email           string             `json:"email"`
	Address         types.AddressInput `json:"deliveryAddress" validate:"required"`
	Notes           string             `json:"notes"`
	AdminNotes      string             `json:"adminNotes"`
	CouponCode      string             `json:"couponCode"`
	PaymentMethodID string             `json:"paymentMethodId" validate:"required"`
	IsUrgent        bool               `json:"isUrgent"`
}

func (b placeBody) input(customerID uuid.UUID) checkout.PlaceOrderInput {
	return checkout.PlaceOrderInput{
		CustomerID:      customerID,
		Address:         b.Address,
		Notes:           b.Notes,
		CouponCode:      strings.TrimSpace(b.CouponCode),
		PaymentMethodID: strings.TrimSpace(b.PaymentMethodID),
	}
}

type customerFinder interface {
	Find(ctx context.Context, query customers.Lookup) (*customers.CustomerDTO, error)
}

// Preview prices the customer's cart against an address and optional coupon
// without writing anything.
func Preview(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "checkout", svc != nil, func(r *http.Request) (responses.Reply, error) {
		customerID, err := middleware.ActorID(r.Context())
		if err != nil {
			return responses.Reply{}, err
		}
		body, err := validators.Decode[previewBody](r)
		if err != nil {
			return responses.Reply{}, err
		}
		breakdown, err := svc.Preview(r.Context(), customerID, checkout.PreviewInput{
			Address:    body.Address,
			CouponCode: strings.TrimSpace(body.CouponCode),
		})
		return responses.OK(breakdown), err
	})
}

// Place turns the customer's cart into a pending order and returns the
// payment page URL.
func Place(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "checkout", svc != nil, func(r *http.Request) (responses.Reply, error) {
		customerID, err := middleware.ActorID(r.Context())
		if err != nil {
			return responses.Reply{}, err
		}
		body, err := validators.Decode[placeBody](r)
		if err != nil {
			return responses.Reply{}, err
		}
		result, err := svc.PlaceOrder(r.Context(), body.input(customerID))
		return responses.Created(result), err
	})
}

// AdminPlace places an order from a customer's cart on their behalf.
func AdminPlace(svc checkout.Service, finder customerFinder, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "checkout", svc != nil && finder != nil, func(r *http.Request) (responses.Reply, error) {
		staffID, err := middleware.ActorID(r.Context())
		if err != nil {
			return responses.Reply{}, err
		}
		body, err := validators.Decode[onBehalfBody](r)
		if err != nil {
			return responses.Reply{}, err
		}
		customer, err := finder.Find(r.Context(), customers.Lookup{
			ID:    body.CustomerID,
			Phone: body.Phone,
			Email: body.Email,
		})
		if err != nil {
			return responses.Reply{}, err
		}

		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"customer_id": customer.ID.String(),
				"staff_id":    staffID.String(),
			})
			logg.Info(ctx, "checkout.on_behalf")
		}

		in := placeBody{
			Address:         body.Address,
			Notes:           body.Notes,
			CouponCode:      body.CouponCode,
			PaymentMethodID: body.PaymentMethodID,
		}.input(customer.ID)
		in.AdminNotes = body.AdminNotes
		in.IsUrgent = body.IsUrgent
		in.StaffID = &staffID
		result, err := svc.PlaceOrder(r.Context(), in)
		return responses.Created(result), err
	})
}
