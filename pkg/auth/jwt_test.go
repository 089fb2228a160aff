package auth_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/pkg/auth"
)

func newService() auth.JWTService {
	return auth.NewJWTService(auth.Config{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newService()
	subject := uuid.New()

	token, err := svc.GenerateAccessToken(subject, "ana@example.com", "patient")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, subject, claims.Subject)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "patient", claims.Role)
}

func TestRefreshTokenNotValidAsAccess(t *testing.T) {
	svc := newService()

	refresh, err := svc.GenerateRefreshToken(uuid.New(), "ana@example.com", "patient")
	require.NoError(t, err)

	_, err = svc.ValidateToken(refresh)
	assert.Error(t, err)

	_, err = svc.ValidateRefreshToken(refresh)
	assert.NoError(t, err)
}

func TestValidateRejectsTampering(t *testing.T) {
	svc := newService()

	token, err := svc.GenerateAccessToken(uuid.New(), "ana@example.com", "patient")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token + "x")
	assert.Error(t, err)

	other := auth.NewJWTService(auth.Config{Secret: "different", RefreshSecret: "different"})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}
