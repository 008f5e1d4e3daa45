package controllers

import (
	"net/http"

	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/pkg/enums"
)

// OrderStatuses lists the statuses staff can move an order to.
func OrderStatuses() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, enums.StaffOrderStatuses())
	}
}
