package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/interfaces"
)

type WidgetRepository struct {
	db *pgxpool.Pool
}

var _ interfaces.WidgetStore = (*WidgetRepository)(nil)

func NewWidgetRepository(db *pgxpool.Pool) *WidgetRepository {
	return &WidgetRepository{db: db}
}

// Get returns the company's settings, inserting the defaults on first read.
func (r *WidgetRepository) Get(ctx context.Context, companyID string) (*entities.WidgetSettings, error) {
	s, err := r.find(ctx, companyID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get widget settings: %w", err)
	}

	d := entities.DefaultWidgetSettings(companyID)
	_, err = r.db.Exec(ctx, `
		INSERT INTO widget_settings (id, company_id, primary_color, welcome_message, welcome_message_am,
			bot_name, bot_name_am, logo_url, allowed_domains, is_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (company_id) DO NOTHING`,
		uuid.NewString(), companyID, d.PrimaryColor, d.WelcomeMessage, d.WelcomeMessageAm,
		d.BotName, d.BotNameAm, d.LogoURL, d.AllowedDomains, d.IsEnabled)
	if err != nil {
		return nil, fmt.Errorf("failed to create widget settings: %w", err)
	}

	// A concurrent first read may have won the insert; read whichever row exists.
	s, err = r.find(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get widget settings: %w", err)
	}
	return s, nil
}

func (r *WidgetRepository) find(ctx context.Context, companyID string) (*entities.WidgetSettings, error) {
	var s entities.WidgetSettings
	err := r.db.QueryRow(ctx, `
		SELECT id, company_id, primary_color, welcome_message, welcome_message_am,
			bot_name, bot_name_am, logo_url, allowed_domains, is_enabled, created_at, updated_at
		FROM widget_settings WHERE company_id = $1`, companyID,
	).Scan(&s.ID, &s.CompanyID, &s.PrimaryColor, &s.WelcomeMessage, &s.WelcomeMessageAm,
		&s.BotName, &s.BotNameAm, &s.LogoURL, &s.AllowedDomains, &s.IsEnabled, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *WidgetRepository) Save(ctx context.Context, s *entities.WidgetSettings) error {
	if s.AllowedDomains == nil {
		s.AllowedDomains = []string{}
	}
	err := r.db.QueryRow(ctx, `
		UPDATE widget_settings SET
			primary_color = $2, welcome_message = $3, welcome_message_am = $4,
			bot_name = $5, bot_name_am = $6, logo_url = $7, allowed_domains = $8,
			is_enabled = $9, updated_at = NOW()
		WHERE company_id = $1
		RETURNING updated_at`,
		s.CompanyID, s.PrimaryColor, s.WelcomeMessage, s.WelcomeMessageAm,
		s.BotName, s.BotNameAm, s.LogoURL, s.AllowedDomains, s.IsEnabled,
	).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save widget settings: %w", err)
	}
	return nil
}
