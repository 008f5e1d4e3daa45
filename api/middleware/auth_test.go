package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/souq-backend/pkg/auth"
	"github.com/angelmondragon/souq-backend/pkg/config"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
)

var jwtCfg = config.JWTConfig{Secret: "secret", Issuer: "souq", ExpirationMinutes: 60}

func bearer(t *testing.T, cfg config.JWTConfig, id uuid.UUID, role enums.Role) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{UserID: id, Role: role})
	require.NoError(t, err)
	return token
}

func TestAuthRejects(t *testing.T) {
	foreign := jwtCfg
	foreign.Secret = "other"

	cases := map[string]string{
		"no header":      "",
		"garbage":        "Bearer invalid",
		"foreign secret": "Bearer " + bearer(t, foreign, uuid.New(), enums.RoleAdmin),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			reached := false
			h := Auth(jwtCfg, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { reached = true }))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.False(t, reached)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, string(pkgerrors.CodeUnauthorized), errorCode(t, rec))
		})
	}
}

func TestAuthPlacesActorOnContext(t *testing.T) {
	userID := uuid.New()
	var got Actor
	h := Auth(jwtCfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = ActorFrom(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+bearer(t, jwtCfg, userID, enums.RoleCustomer))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Actor{ID: userID, Role: enums.RoleCustomer}, got)
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(nil, enums.RoleAdmin, enums.RoleOperator)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		actor *Actor
		want  int
	}{
		{&Actor{ID: uuid.New(), Role: enums.RoleAdmin}, http.StatusNoContent},
		{&Actor{ID: uuid.New(), Role: enums.RoleOperator}, http.StatusNoContent},
		{&Actor{ID: uuid.New(), Role: enums.RoleCustomer}, http.StatusForbidden},
		{&Actor{Role: enums.RoleAdmin}, http.StatusForbidden},
		{nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.actor != nil {
			req = req.WithContext(WithActor(req.Context(), *tc.actor))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "%+v", tc.actor)
	}
}

func TestActorID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := ActorID(req.Context())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))

	id := uuid.New()
	got, err := ActorID(WithActor(req.Context(), Actor{ID: id, Role: enums.RoleCustomer}))
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Equal(t, "anonymous", scopeOwner(req.Context()))
}
