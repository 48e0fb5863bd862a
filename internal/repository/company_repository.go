package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"project_amharicAI/internal/apperrors"
	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/interfaces"
)

type CompanyRepository struct {
	db *pgxpool.Pool
}

var _ interfaces.CompanyStore = (*CompanyRepository)(nil)

func NewCompanyRepository(db *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{db: db}
}

const companyColumns = `id, name, email, password_hash, api_key, is_active, created_at, updated_at`

func scanCompany(row pgx.Row) (*entities.Company, error) {
	var c entities.Company
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.APIKey, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("Company not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan company: %w", err)
	}
	return &c, nil
}

func (r *CompanyRepository) Create(ctx context.Context, c *entities.Company) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO companies (id, name, email, password_hash, api_key, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Email, c.PasswordHash, c.APIKey, c.IsActive,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err) {
		return apperrors.Conflict("Company with this email already exists")
	}
	if err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*entities.Company, error) {
	if !validID(id) {
		return nil, apperrors.NotFound("Company not found")
	}
	return scanCompany(r.db.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
}

func (r *CompanyRepository) GetByEmail(ctx context.Context, email string) (*entities.Company, error) {
	return scanCompany(r.db.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE email = $1`, email))
}

func (r *CompanyRepository) GetByAPIKey(ctx context.Context, apiKey string) (*entities.Company, error) {
	return scanCompany(r.db.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE api_key = $1`, apiKey))
}

func (r *CompanyRepository) UpdateAPIKey(ctx context.Context, id, apiKey string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE companies SET api_key = $2, updated_at = NOW() WHERE id = $1`, id, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("Company not found")
	}
	return nil
}
