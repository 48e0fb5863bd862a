package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	Port        string `env:"PORT" env-default:"3001"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	ClientURL   string `env:"CLIENT_URL" env-default:"http://localhost:5173"`
	PublicURL   string `env:"PUBLIC_URL" env-default:""` // Base URL used in widget embed links

	// postgres or memory
	Storage     string `env:"STORAGE" env-default:"postgres"`
	DatabaseURL string `env:"DATABASE_URL" env-default:""`
	RedisURL    string `env:"REDIS_URL" env-default:""`

	Auth   AuthConfig
	LLM    LLMConfig
	Upload UploadConfig
	Widget WidgetConfig

	WebhookTimeout time.Duration `env:"WEBHOOK_TIMEOUT" env-default:"30s"`
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET"`
	JWTExpiry  time.Duration `env:"JWT_EXPIRY" env-default:"168h"`
	BcryptCost int           `env:"BCRYPT_COST" env-default:"12"`

	// Per-IP limiter on register/login.
	RatePerSecond float64 `env:"AUTH_RATE_PER_SECOND" env-default:"1"`
	RateBurst     int     `env:"AUTH_RATE_BURST" env-default:"10"`
}

type LLMConfig struct {
	Provider        string `env:"LLM_PROVIDER" env-default:"openai"`
	Model           string `env:"LLM_MODEL" env-default:"gpt-4"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY" env-default:""`
	OpenAIBaseURL   string `env:"OPENAI_BASE_URL" env-default:""`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY" env-default:""`
	AnthropicModel  string `env:"ANTHROPIC_MODEL" env-default:"claude-3-5-sonnet-20241022"`
}

type UploadConfig struct {
	Path        string `env:"UPLOAD_PATH" env-default:"./uploads"`
	MaxFileSize int64  `env:"MAX_FILE_SIZE" env-default:"10485760"`
}

type WidgetConfig struct {
	AssetsDir  string        `env:"WIDGET_ASSETS_DIR" env-default:"./client/dist"`
	RateLimit  int           `env:"WIDGET_RATE_LIMIT" env-default:"100"`
	RateWindow time.Duration `env:"WIDGET_RATE_WINDOW" env-default:"15m"`
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://localhost:" + cfg.Port
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Storage != "postgres" && c.Storage != "memory" {
		return fmt.Errorf("unsupported STORAGE %q", c.Storage)
	}
	if c.Storage == "postgres" && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required when STORAGE=postgres")
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLM.Provider)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
