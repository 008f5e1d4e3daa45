package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/api/validators"
	"github.com/angelmondragon/souq-backend/internal/customers"
	"github.com/angelmondragon/souq-backend/pkg/logger"
)

func AdminListCustomers(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "customer", svc != nil, func(r *http.Request) (responses.Reply, error) {
		params, err := validators.ParsePage(r)
		if err != nil {
			return responses.Reply{}, err
		}
		list, err := svc.List(r.Context(), validators.SearchQuery(r), params)
		return responses.OK(list), err
	})
}

// AdminFindCustomer locates one customer by ?id=, ?phone= or ?email=.
func AdminFindCustomer(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "customer", svc != nil, func(r *http.Request) (responses.Reply, error) {
		id, err := validators.ParseOptionalUUIDQuery(r, "id")
		if err != nil {
			return responses.Reply{}, err
		}
		q := r.URL.Query()
		customer, err := svc.Find(r.Context(), customers.Lookup{
			ID:    id,
			Phone: strings.TrimSpace(q.Get("phone")),
			Email: strings.TrimSpace(q.Get("email")),
		})
		return responses.OK(customer), err
	})
}
