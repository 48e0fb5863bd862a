package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"project_amharicAI/internal/apperrors"
	"project_amharicAI/internal/config"
	"project_amharicAI/internal/repository"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
}

func TestAuthUsecase_RegisterValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	tests := []struct {
		name, company, email, password string
		want                           string
	}{
		{"missing name", "", "a@b.et", "secret1", "All fields are required"},
		{"missing email", "Acme", " ", "secret1", "All fields are required"},
		{"missing password", "Acme", "a@b.et", "", "All fields are required"},
		{"short password", "Acme", "a@b.et", "12345", "Password must be at least 6 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tt.company, tt.email, tt.password)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Equal(t, tt.want, apperrors.Message(err, ""))
		})
	}
}

func TestAuthUsecase_RegisterAndLogin(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	res, err := env.auth.Register(ctx, "Acme", " Owner@Acme.ET ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "owner@acme.et", res.Company.Email)
	assert.Len(t, res.Company.APIKey, 64)
	assert.NotEmpty(t, res.Token)

	_, err = env.auth.Register(ctx, "Other", "owner@acme.et", "secret1")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, "Company with this email already exists", apperrors.Message(err, ""))

	login, err := env.auth.Login(ctx, "OWNER@acme.et", "secret1")
	require.NoError(t, err)
	assert.Equal(t, res.Company.ID, login.Company.ID)

	_, err = env.auth.Login(ctx, "owner@acme.et", "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, "Invalid credentials", apperrors.Message(err, ""))

	_, err = env.auth.Login(ctx, "nobody@acme.et", "secret1")
	assert.Equal(t, "Invalid credentials", apperrors.Message(err, ""))

	company, err := env.auth.AuthenticateToken(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Company.ID, company.ID)
}

func TestAuthUsecase_DeactivatedAccount(t *testing.T) {
	mem := repository.NewMemoryStore()
	auth := NewAuthUsecase(mem.Companies(), testAuthConfig(), zap.NewNop())
	ctx := context.Background()

	res, err := auth.Register(ctx, "Acme", "a@acme.et", "secret1")
	require.NoError(t, err)
	mem.SetActive(res.Company.ID, false)

	_, err = auth.Login(ctx, "a@acme.et", "secret1")
	assert.Equal(t, "Account is deactivated", apperrors.Message(err, ""))

	_, err = auth.AuthenticateToken(ctx, res.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, "Invalid or inactive account", apperrors.Message(err, ""))

	_, err = auth.AuthenticateAPIKey(ctx, res.Company.APIKey)
	assert.Equal(t, "Invalid API key", apperrors.Message(err, ""))
}

func TestAuthUsecase_TokenValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	res, err := env.auth.Register(ctx, "Acme", "a@acme.et", "secret1")
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"companyId": res.Company.ID,
		"exp":       time.Now().Add(-time.Minute).Unix(),
	})
	expiredToken, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"companyId": res.Company.ID,
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	forgedToken, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{"expired": expiredToken, "forged": forgedToken, "garbage": "not-a-jwt"} {
		t.Run(name, func(t *testing.T) {
			_, err := env.auth.AuthenticateToken(ctx, token)
			assert.ErrorIs(t, err, apperrors.ErrForbidden)
			assert.Equal(t, "Invalid token", apperrors.Message(err, ""))
		})
	}
}

func TestAuthUsecase_RefreshAPIKey(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	res, err := env.auth.Register(ctx, "Acme", "a@acme.et", "secret1")
	require.NoError(t, err)

	newKey, err := env.auth.RefreshAPIKey(ctx, res.Company.ID)
	require.NoError(t, err)
	assert.NotEqual(t, res.Company.APIKey, newKey)

	_, err = env.auth.AuthenticateAPIKey(ctx, res.Company.APIKey)
	assert.Equal(t, "Invalid API key", apperrors.Message(err, ""))

	company, err := env.auth.AuthenticateAPIKey(ctx, newKey)
	require.NoError(t, err)
	assert.Equal(t, res.Company.ID, company.ID)

	_, err = env.auth.AuthenticateAPIKey(ctx, "")
	assert.Equal(t, "API key required", apperrors.Message(err, ""))
}
