package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-vax-api/internal/models"
	appErrors "github.com/noah-isme/school-vax-api/pkg/errors"
)

func newAuthService(t *testing.T, password string) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(nil, nil, AuthConfig{
		AdminUsername:     "coordinator",
		AdminPasswordHash: string(hash),
		JWTSecret:         "test-secret",
		TokenExpiry:       time.Hour,
	})
}

func TestAuthServiceLogin(t *testing.T) {
	svc := newAuthService(t, "s3cret")

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "coordinator", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "coordinator", resp.Username)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := newAuthService(t, "s3cret")

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "coordinator", Password: "other"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownUsername(t *testing.T) {
	svc := newAuthService(t, "s3cret")

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "intruder", Password: "s3cret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRoundTrip(t *testing.T) {
	svc := newAuthService(t, "s3cret")

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "coordinator", Password: "s3cret"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "coordinator", claims.Username)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(t, "s3cret")

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenWrongSecret(t *testing.T) {
	issuer := newAuthService(t, "s3cret")
	verifier := NewAuthService(nil, nil, AuthConfig{
		AdminUsername:     "coordinator",
		AdminPasswordHash: "x",
		JWTSecret:         "different-secret",
		TokenExpiry:       time.Hour,
	})

	resp, err := issuer.Login(context.Background(), models.LoginRequest{Username: "coordinator", Password: "s3cret"})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(resp.AccessToken)
	require.Error(t, err)
}
