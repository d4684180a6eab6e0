package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Frontend  FrontendConfig  `yaml:"frontend"`
	Cache     CacheConfig     `yaml:"cache"`
	Worker    WorkerConfig    `yaml:"worker"`
	Amadeus   AmadeusConfig   `yaml:"amadeus"`
	Insurance InsuranceConfig `yaml:"insurance"`
	Email     EmailConfig     `yaml:"email"`
	Stripe    StripeConfig    `yaml:"-"`
	Auth      AuthConfig      `yaml:"-"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type FrontendConfig struct {
	BaseURL string `yaml:"base_url"`
}

type CacheConfig struct {
	FlightsTTLSeconds int `yaml:"flights_ttl_seconds"`
}

type WorkerConfig struct {
	ReviewSweepMinutes int    `yaml:"review_sweep_minutes"`
	ReviewDelayHours   int    `yaml:"review_delay_hours"`
	MetricsAddress     string `yaml:"metrics_address"`
}

type AmadeusConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"-"`
	APISecret string `yaml:"-"`
}

type InsuranceConfig struct {
	BaseURL    string `yaml:"base_url"`
	AgencyID   string `yaml:"agency_id"`
	AgencyCode string `yaml:"-"`
}

type EmailConfig struct {
	SMTPHost   string `yaml:"smtp_host"`
	SMTPPort   int    `yaml:"smtp_port"`
	From       string `yaml:"from"`
	AdminInbox string `yaml:"admin_inbox"`
	Username   string `yaml:"-"`
	Password   string `yaml:"-"`
}

// StripeConfig is environment-only; gateway keys never belong in a config file.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type AuthConfig struct {
	JWTSecret string
}

// LoadConfig reads the yaml file at path and overlays secrets from the
// environment (a .env file is honoured when present). Credentials that gate
// the payment gateway fail here, at startup, not per-request.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Stripe.SecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.Stripe.WebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	cfg.Amadeus.APIKey = os.Getenv("AMADEUS_API_KEY")
	cfg.Amadeus.APISecret = os.Getenv("AMADEUS_SECRET_KEY")
	cfg.Insurance.AgencyCode = os.Getenv("WIS_AGENCY_CODE")
	cfg.Email.Username = os.Getenv("SMTP_USERNAME")
	cfg.Email.Password = os.Getenv("SMTP_PASSWORD")
	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.Stripe.SecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if c.Stripe.WebhookSecret == "" {
		missing = append(missing, "STRIPE_WEBHOOK_SECRET")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment: %v", missing)
	}
	return nil
}
