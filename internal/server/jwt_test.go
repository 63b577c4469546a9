package server

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonathan/form-autofill/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(secret string) *JWTService {
	return NewJWTService(&config.SessionConfig{
		Secret: secret,
		TTL:    24 * time.Hour,
		Issuer: config.DefaultSessionIssuer,
		Leeway: config.DefaultSessionLeeway,
	})
}

func TestJWTService_RoundTrip(t *testing.T) {
	s := newTestJWTService("secret")
	account := uuid.New()

	token, err := s.GenerateToken(account)
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, account, claims.AccountID)
	assert.Equal(t, config.DefaultSessionIssuer, claims.Issuer)
	assert.Equal(t, account.String(), claims.Subject)

	getter, err := s.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, account, getter.GetAccountID())
}

func TestJWTService_Rejects(t *testing.T) {
	s := newTestJWTService("secret")
	account := uuid.New()
	good, err := s.GenerateToken(account)
	require.NoError(t, err)

	expired := newTestJWTService("secret")
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	old, err := expired.GenerateToken(account)
	require.NoError(t, err)

	other, err := newTestJWTService("other").GenerateToken(account)
	require.NoError(t, err)

	noAccount, err := s.GenerateToken(uuid.Nil)
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		AccountID:        account,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"malformed", "not.a.token"},
		{"expired", old},
		{"wrong secret", other},
		{"no account", noAccount},
		{"wrong issuer", wrongIssuer},
		{"tampered", good + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ValidateToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestJWTService_LeewayAcceptsSkew(t *testing.T) {
	issuer := newTestJWTService("secret")
	issuedAt := time.Now()
	issuer.now = func() time.Time { return issuedAt }
	token, err := issuer.GenerateToken(uuid.New())
	require.NoError(t, err)

	validator := newTestJWTService("secret")

	validator.now = func() time.Time { return issuedAt.Add(-10 * time.Second) }
	_, err = validator.ValidateToken(token)
	assert.NoError(t, err, "validator clock slightly behind the issuer")

	validator.now = func() time.Time { return issuedAt.Add(24*time.Hour + 10*time.Second) }
	_, err = validator.ValidateToken(token)
	assert.NoError(t, err, "expiry within leeway")

	validator.now = func() time.Time { return issuedAt.Add(24*time.Hour + time.Minute) }
	_, err = validator.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_IssuerFromConfig(t *testing.T) {
	staging := NewJWTService(&config.SessionConfig{Secret: "secret", TTL: time.Hour, Issuer: "staging"})
	token, err := staging.GenerateToken(uuid.New())
	require.NoError(t, err)

	claims, err := staging.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "staging", claims.Issuer)

	_, err = newTestJWTService("secret").ValidateToken(token)
	assert.Error(t, err)
}
