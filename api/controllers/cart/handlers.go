package cart

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/souq-backend/api/middleware"
	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/api/validators"
	cartsvc "github.com/angelmondragon/souq-backend/internal/cart"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

// CustomerResolver picks whose cart a request operates on.
type CustomerResolver func(r *http.Request) (uuid.UUID, error)

type customerLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

// FromActor resolves the authenticated customer.
func FromActor() CustomerResolver {
	return func(r *http.Request) (uuid.UUID, error) {
		return middleware.ActorID(r.Context())
	}
}

// FromPath resolves the customer named in the URL, for staff acting on a
// customer's behalf. The customer must exist.
func FromPath(customers customerLookup) CustomerResolver {
	return func(r *http.Request) (uuid.UUID, error) {
		id, err := validators.ParseUUIDParam(r, "customerId")
		if err != nil {
			return uuid.Nil, err
		}
		customer, err := customers.FindByID(r.Context(), id)
		if err != nil {
			return uuid.Nil, err
		}
		return customer.ID, nil
	}
}

type lineBody struct {
	ProductID          uuid.UUID        `json:"productId" validate:"required"`
	Size               int              `json:"size" validate:"required,min=1"`
	Quantity           int              `json:"quantity" validate:"required,min=1"`
	SelectedAttributes types.Attributes `json:"selectedAttributes"`
	Notes              string           `json:"notes"`
}

type offerBody struct {
	OfferID uuid.UUID  `json:"offerId" validate:"required"`
	Items   []lineBody `json:"items" validate:"required,min=1,dive"`
}

type deltaBody struct {
	Delta int `json:"delta" validate:"required"`
}

// cartAction is one cart operation on an already resolved customer.
type cartAction func(r *http.Request, customerID uuid.UUID) (responses.Reply, error)

func handle(svc cartsvc.Service, resolve CustomerResolver, logg *logger.Logger, action cartAction) http.HandlerFunc {
	return responses.Handler(logg, "cart", svc != nil, func(r *http.Request) (responses.Reply, error) {
		customerID, err := resolve(r)
		if err != nil {
			return responses.Reply{}, err
		}
		return action(r, customerID)
	})
}

func Get(svc cartsvc.Service, resolve CustomerResolver, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, resolve, logg, func(r *http.Request, customerID uuid.UUID) (responses.Reply, error) {
		view, err := svc.Get(r.Context(), customerID)
		return responses.OK(view), err
	})
}

// Add puts a product line into the cart, merging with an identical line.
func Add(svc cartsvc.Service, resolve CustomerResolver, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, resolve, logg, func(r *http.Request, customerID uuid.UUID) (responses.Reply, error) {
		line, err := validators.Decode[lineBody](r)
		if err != nil {
			return responses.Reply{}, err
		}
		view, err := svc.Add(r.Context(), customerID, cartsvc.AddInput(line))
		return responses.OK(view), err
	})
}

// AddOffer adds every line of an offer bundle at the offer's prices.
func AddOffer(svc cartsvc.Service, resolve CustomerResolver, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, resolve, logg, func(r *http.Request, customerID uuid.UUID) (responses.Reply, error) {
		body, err := validators.Decode[offerBody](r)
		if err != nil {
			return responses.Reply{}, err
		}
		items := make([]cartsvc.AddInput, len(body.Items))
		for i, item := range body.Items {
			items[i] = cartsvc.AddInput(item)
		}
		view, err := svc.AddOffer(r.Context(), customerID, body.OfferID, items)
		return responses.OK(view), err
	})
}

func ChangeQuantity(svc cartsvc.Service, resolve CustomerResolver, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, resolve, logg, func(r *http.Request, customerID uuid.UUID) (responses.Reply, error) {
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			return responses.Reply{}, err
		}
		body, err := validators.Decode[deltaBody](r)
		if err != nil {
			return responses.Reply{}, err
		}
		view, err := svc.ChangeQuantity(r.Context(), customerID, itemID, body.Delta)
		return responses.OK(view), err
	})
}

func Remove(svc cartsvc.Service, resolve CustomerResolver, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, resolve, logg, func(r *http.Request, customerID uuid.UUID) (responses.Reply, error) {
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			return responses.Reply{}, err
		}
		return responses.NoContent, svc.Remove(r.Context(), customerID, itemID)
	})
}

func Clear(svc cartsvc.Service, resolve CustomerResolver, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, resolve, logg, func(r *http.Request, customerID uuid.UUID) (responses.Reply, error) {
		return responses.NoContent, svc.Clear(r.Context(), customerID)
	})
}
