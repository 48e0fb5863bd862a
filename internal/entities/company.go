package entities

import "time"

type Company struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	APIKey       string    `json:"apiKey"`
	IsActive     bool      `json:"isActive"` // Deactivated accounts fail token and API-key auth
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicCompany is the shape returned by register and login.
type PublicCompany struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	APIKey    string    `json:"apiKey"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *Company) Public() PublicCompany {
	return PublicCompany{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		APIKey:    c.APIKey,
		CreatedAt: c.CreatedAt,
	}
}
