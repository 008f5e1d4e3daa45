package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/souq-backend/internal/offers"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
)

type stubOffers struct {
	offers.Service
	created offers.CreateInput
	deleted uuid.UUID
	err     error
}

func (s *stubOffers) Create(_ context.Context, in offers.CreateInput) (*models.Offer, error) {
	s.created = in
	return &models.Offer{Title: in.Title}, s.err
}

func (s *stubOffers) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = id
	return s.err
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func envelopeCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestUnwiredServiceIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	ListOffers(nil, quietLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/offers", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeInternal), envelopeCode(t, rec))
}

func TestAdminCreateOfferCreated(t *testing.T) {
	svc := &stubOffers{}
	body := `{"title":"bundle","expirationDate":"2030-01-01T00:00:00Z","requiredProductCount":2,
		"items":[{"productId":"` + uuid.NewString() + `","newPrice":"4.5"}]}`
	rec := httptest.NewRecorder()
	AdminCreateOffer(svc, quietLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/offers", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "bundle", svc.created.Title)
	assert.Equal(t, 2, svc.created.RequiredProductCount)
	require.Len(t, svc.created.Items, 1)
}

func TestAdminCreateOfferRejectsMissingItems(t *testing.T) {
	svc := &stubOffers{}
	body := `{"title":"bundle","expirationDate":"2030-01-01T00:00:00Z","requiredProductCount":2}`
	rec := httptest.NewRecorder()
	AdminCreateOffer(svc, quietLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/offers", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.created.Title)
}

func TestAdminDeleteOffer(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"deleted", nil, http.StatusNoContent},
		{"missing", pkgerrors.New(pkgerrors.CodeNotFound, "offer not found"), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubOffers{err: tc.err}
			req := httptest.NewRequest(http.MethodDelete, "/offers/"+id.String(), nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("offerId", id.String())
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			rec := httptest.NewRecorder()
			AdminDeleteOffer(svc, quietLogger()).ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, id, svc.deleted)
			if tc.status == http.StatusNoContent {
				assert.Zero(t, rec.Body.Len())
			}
		})
	}
}
