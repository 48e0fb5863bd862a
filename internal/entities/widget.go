package entities

import "time"

type WidgetSettings struct {
	ID               string    `json:"id"`
	CompanyID        string    `json:"companyId"`
	PrimaryColor     string    `json:"primaryColor"`
	WelcomeMessage   string    `json:"welcomeMessage"`
	WelcomeMessageAm string    `json:"welcomeMessageAm"`
	BotName          string    `json:"botName"`
	BotNameAm        string    `json:"botNameAm"`
	LogoURL          string    `json:"logoUrl"`
	AllowedDomains   []string  `json:"allowedDomains"`
	IsEnabled        bool      `json:"isEnabled"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func DefaultWidgetSettings(companyID string) WidgetSettings {
	return WidgetSettings{
		CompanyID:        companyID,
		PrimaryColor:     "#3B82F6",
		WelcomeMessage:   "How can I help you today?",
		WelcomeMessageAm: "ዛሬ እንዴት ልረዳዎ እችላለሁ?",
		BotName:          "AI Assistant",
		BotNameAm:        "AI ረዳት",
		AllowedDomains:   []string{},
		IsEnabled:        true,
	}
}

// WidgetSettingsUpdate carries a partial update; nil fields are left unchanged.
type WidgetSettingsUpdate struct {
	PrimaryColor     *string   `json:"primaryColor" binding:"omitempty,hexcolor"`
	WelcomeMessage   *string   `json:"welcomeMessage"`
	WelcomeMessageAm *string   `json:"welcomeMessageAm"`
	BotName          *string   `json:"botName"`
	BotNameAm        *string   `json:"botNameAm"`
	LogoURL          *string   `json:"logoUrl" binding:"omitempty,url"`
	AllowedDomains   *[]string `json:"allowedDomains"`
	IsEnabled        *bool     `json:"isEnabled"`
}

func (s *WidgetSettings) Apply(u WidgetSettingsUpdate) {
	if u.PrimaryColor != nil {
		s.PrimaryColor = *u.PrimaryColor
	}
	if u.WelcomeMessage != nil {
		s.WelcomeMessage = *u.WelcomeMessage
	}
	if u.WelcomeMessageAm != nil {
		s.WelcomeMessageAm = *u.WelcomeMessageAm
	}
	if u.BotName != nil {
		s.BotName = *u.BotName
	}
	if u.BotNameAm != nil {
		s.BotNameAm = *u.BotNameAm
	}
	if u.LogoURL != nil {
		s.LogoURL = *u.LogoURL
	}
	if u.AllowedDomains != nil {
		s.AllowedDomains = *u.AllowedDomains
	}
	if u.IsEnabled != nil {
		s.IsEnabled = *u.IsEnabled
	}
}
