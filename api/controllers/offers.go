package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/api/validators"
	"github.com/angelmondragon/souq-backend/internal/offers"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

// ListOffers returns offers that have not expired.
func ListOffers(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "offer", svc != nil, func(r *http.Request) (responses.Reply, error) {
		active, err := svc.ListActive(r.Context())
		return responses.OK(active), err
	})
}

func AdminListOffers(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "offer", svc != nil, func(r *http.Request) (responses.Reply, error) {
		all, err := svc.List(r.Context())
		return responses.OK(all), err
	})
}

type offerBody struct {
	Title                string            `json:"title" validate:"required"`
	ExpirationDate       time.Time         `json:"expirationDate" validate:"required"`
	RequiredProductCount int               `json:"requiredProductCount" validate:"required,min=1"`
	Items                []types.OfferItem `json:"items" validate:"required,min=1"`
}

func AdminCreateOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "offer", svc != nil, func(r *http.Request) (responses.Reply, error) {
		body, err := validators.Decode[offerBody](r)
		if err != nil {
			return responses.Reply{}, err
		}
		offer, err := svc.Create(r.Context(), offers.CreateInput(body))
		return responses.Created(offer), err
	})
}

func AdminDeleteOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "offer", svc != nil, func(r *http.Request) (responses.Reply, error) {
		id, err := validators.ParseUUIDParam(r, "offerId")
		if err != nil {
			return responses.Reply{}, err
		}
		return responses.NoContent, svc.Delete(r.Context(), id)
	})
}
