package usecases

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"project_amharicAI/internal/apperrors"
	"project_amharicAI/internal/config"
	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/interfaces"
)

const minPasswordLength = 6

type AuthUsecase struct {
	companies  interfaces.CompanyStore
	jwtSecret  []byte
	expiry     time.Duration
	bcryptCost int
	logger     *zap.Logger
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token   string                 `json:"token"`
	Company entities.PublicCompany `json:"company"`
}

func NewAuthUsecase(companies interfaces.CompanyStore, cfg config.AuthConfig, logger *zap.Logger) *AuthUsecase {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthUsecase{
		companies:  companies,
		jwtSecret:  []byte(cfg.JWTSecret),
		expiry:     cfg.JWTExpiry,
		bcryptCost: cost,
		logger:     logger.Named("auth"),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewAPIKey returns 32 random bytes, hex encoded.
func NewAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (uc *AuthUsecase) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, apperrors.Validation("All fields are required")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.Validation("Password must be at least 6 characters")
	}

	if _, err := uc.companies.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict("Company with this email already exists")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), uc.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	apiKey, err := NewAPIKey()
	if err != nil {
		return nil, err
	}

	company := &entities.Company{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		APIKey:       apiKey,
		IsActive:     true,
	}
	// The unique index still guards against a concurrent register.
	if err := uc.companies.Create(ctx, company); err != nil {
		return nil, err
	}

	token, err := uc.issueToken(company.ID)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("Company registered", zap.String("company_id", company.ID))
	return &AuthResult{Token: token, Company: company.Public()}, nil
}

func (uc *AuthUsecase) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	company, err := uc.companies.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(company.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}
	if !company.IsActive {
		return nil, apperrors.Unauthorized("Account is deactivated")
	}

	token, err := uc.issueToken(company.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Company: company.Public()}, nil
}

func (uc *AuthUsecase) issueToken(companyID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"companyId": companyID,
		"exp":       time.Now().Add(uc.expiry).Unix(),
	})

	tokenString, err := token.SignedString(uc.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// AuthenticateToken resolves a bearer token to an active company.
// Bad signatures and expired tokens are ErrForbidden; unknown or inactive companies are ErrUnauthorized.
func (uc *AuthUsecase) AuthenticateToken(ctx context.Context, tokenString string) (*entities.Company, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return uc.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "Invalid token", err)
	}

	companyID, _ := claims["companyId"].(string)
	if companyID == "" {
		return nil, apperrors.New(apperrors.ErrForbidden, "Invalid token")
	}

	company, err := uc.companies.GetByID(ctx, companyID)
	if errors.Is(err, apperrors.ErrNotFound) || (err == nil && !company.IsActive) {
		return nil, apperrors.Unauthorized("Invalid or inactive account")
	}
	if err != nil {
		return nil, err
	}
	return company, nil
}

func (uc *AuthUsecase) AuthenticateAPIKey(ctx context.Context, apiKey string) (*entities.Company, error) {
	if apiKey == "" {
		return nil, apperrors.Unauthorized("API key required")
	}
	company, err := uc.companies.GetByAPIKey(ctx, apiKey)
	if errors.Is(err, apperrors.ErrNotFound) || (err == nil && !company.IsActive) {
		return nil, apperrors.Unauthorized("Invalid API key")
	}
	if err != nil {
		return nil, err
	}
	return company, nil
}

func (uc *AuthUsecase) RefreshAPIKey(ctx context.Context, companyID string) (string, error) {
	apiKey, err := NewAPIKey()
	if err != nil {
		return "", err
	}
	if err := uc.companies.UpdateAPIKey(ctx, companyID, apiKey); err != nil {
		return "", err
	}
	uc.logger.Info("API key rotated", zap.String("company_id", companyID))
	return apiKey, nil
}

func (uc *AuthUsecase) Profile(ctx context.Context, companyID string) (*entities.PublicCompany, error) {
	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	public := company.Public()
	return &public, nil
}
