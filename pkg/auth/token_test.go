package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/souq-backend/pkg/config"
	"github.com/angelmondragon/souq-backend/pkg/enums"
)

var testCfg = config.JWTConfig{Secret: "secret", Issuer: "souq", ExpirationMinutes: 30}

func TestAccessTokenRoundTrip(t *testing.T) {
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(testCfg, now, AccessTokenPayload{UserID: userID, Role: enums.RoleOperator})
	require.NoError(t, err)

	claims, err := ParseAccessToken(testCfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, enums.RoleOperator, claims.Role)
	assert.Equal(t, "souq", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestMintKeepsSuppliedJTI(t *testing.T) {
	token, err := MintAccessToken(testCfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleCustomer, JTI: "fixed"})
	require.NoError(t, err)
	claims, err := ParseAccessToken(testCfg, token)
	require.NoError(t, err)
	assert.Equal(t, "fixed", claims.ID)
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, err := MintAccessToken(testCfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleAdmin})
	require.NoError(t, err)
	expired, err := MintAccessToken(testCfg, time.Now().Add(-time.Hour), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleCustomer})
	require.NoError(t, err)

	otherIssuer := testCfg
	otherIssuer.Issuer = "someone-else"

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, AccessTokenClaims{
		UserID:           uuid.New(),
		Role:             enums.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "souq", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := []struct {
		name  string
		cfg   config.JWTConfig
		token string
		is    error
	}{
		{"tampered signature", testCfg, good + "x", jwt.ErrTokenSignatureInvalid},
		{"expired", testCfg, expired, jwt.ErrTokenExpired},
		{"wrong issuer", otherIssuer, good, jwt.ErrTokenInvalidIssuer},
		{"alg none", testCfg, noneAlg, jwt.ErrTokenSignatureInvalid},
		{"no secret", config.JWTConfig{}, good, ErrMissingSecret},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseAccessToken(tc.cfg, tc.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.is)
		})
	}
}

func TestMintAccessTokenValidation(t *testing.T) {
	_, err := MintAccessToken(testCfg, time.Now(), AccessTokenPayload{UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = MintAccessToken(testCfg, time.Now(), AccessTokenPayload{Role: enums.RoleCustomer})
	assert.Error(t, err)

	noTTL := testCfg
	noTTL.ExpirationMinutes = 0
	_, err = MintAccessToken(noTTL, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleCustomer})
	assert.Error(t, err)
}
