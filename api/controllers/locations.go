package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/api/validators"
	"github.com/angelmondragon/souq-backend/internal/locations"
	"github.com/angelmondragon/souq-backend/pkg/logger"
)

func ListStates(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "location", svc != nil, func(r *http.Request) (responses.Reply, error) {
		states, err := svc.ListStates(r.Context())
		return responses.OK(states), err
	})
}

func ListGovernorates(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "location", svc != nil, func(r *http.Request) (responses.Reply, error) {
		stateID, err := validators.ParseUUIDParam(r, "stateId")
		if err != nil {
			return responses.Reply{}, err
		}
		governorates, err := svc.ListGovernorates(r.Context(), stateID)
		return responses.OK(governorates), err
	})
}

func ListCities(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "location", svc != nil, func(r *http.Request) (responses.Reply, error) {
		governorateID, err := validators.ParseUUIDParam(r, "governorateId")
		if err != nil {
			return responses.Reply{}, err
		}
		cities, err := svc.ListCities(r.Context(), governorateID)
		return responses.OK(cities), err
	})
}

type deliveryRates struct {
	FirstKiloDeliveryCost decimal.Decimal `json:"firstKiloDeliveryCost"`
	DeliveryCostPerKilo   decimal.Decimal `json:"deliveryCostPerKilo"`
}

type stateBody struct {
	Name string `json:"name" validate:"required"`
	deliveryRates
}

type nameBody struct {
	Name string `json:"name" validate:"required"`
}

func AdminCreateState(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "location", svc != nil, func(r *http.Request) (responses.Reply, error) {
		body, err := validators.Decode[stateBody](r)
		if err != nil {
			return responses.Reply{}, err
		}
		state, err := svc.CreateState(r.Context(), locations.StateInput{
			Name:                  body.Name,
			FirstKiloDeliveryCost: body.FirstKiloDeliveryCost,
			DeliveryCostPerKilo:   body.DeliveryCostPerKilo,
		})
		return responses.Created(state), err
	})
}

// AdminUpdateStateCosts replaces both delivery rates of a state.
func AdminUpdateStateCosts(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "location", svc != nil, func(r *http.Request) (responses.Reply, error) {
		stateID, err := validators.ParseUUIDParam(r, "stateId")
		if err != nil {
			return responses.Reply{}, err
		}
		rates, err := validators.Decode[deliveryRates](r)
		if err != nil {
			return responses.Reply{}, err
		}
		return responses.NoContent, svc.UpdateStateCosts(r.Context(), stateID, locations.StateCostsInput(rates))
	})
}

func AdminCreateGovernorate(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "location", svc != nil, func(r *http.Request) (responses.Reply, error) {
		stateID, err := validators.ParseUUIDParam(r, "stateId")
		if err != nil {
			return responses.Reply{}, err
		}
		body, err := validators.Decode[nameBody](r)
		if err != nil {
			return responses.Reply{}, err
		}
		governorate, err := svc.CreateGovernorate(r.Context(), stateID, body.Name)
		return responses.Created(governorate), err
	})
}

func AdminCreateCity(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "location", svc != nil, func(r *http.Request) (responses.Reply, error) {
		governorateID, err := validators.ParseUUIDParam(r, "governorateId")
		if err != nil {
			return responses.Reply{}, err
		}
		body, err := validators.Decode[nameBody](r)
		if err != nil {
			return responses.Reply{}, err
		}
		city, err := svc.CreateCity(r.Context(), governorateID, body.Name)
		return responses.Created(city), err
	})
}
