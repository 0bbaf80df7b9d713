package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode      Mode   `yaml:"mode"`
	HTTPAddr  string `yaml:"http_addr"`
	PublicURL string `yaml:"public_url"`

	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`

	BlobBasePath string `yaml:"blob_base_path"`
	MaxUploadMB  int64  `yaml:"max_upload_mb"`

	AuthHMACSecret string `yaml:"auth_hmac_secret"`
	AdminUser      string `yaml:"admin_user"`
	AdminPassHash  string `yaml:"admin_pass_hash"` // bcrypt

	CORSOriginsOnline  []string `yaml:"cors_origins_online"`
	CORSOriginsOffline []string `yaml:"cors_origins_offline"`

	// Workflow webhooks. Only scoring is required online.
	ScoringWebhookURL string        `yaml:"scoring_webhook_url"`
	AnomalyWebhookURL string        `yaml:"anomaly_webhook_url"`
	IngestWebhookURL  string        `yaml:"ingest_webhook_url"`
	ChatWebhookURL    string        `yaml:"chat_webhook_url"`
	WebhookTimeout    time.Duration `yaml:"webhook_timeout"`

	// Optional client-credentials auth in front of the webhooks.
	WebhookTokenURL     string `yaml:"webhook_token_url"`
	WebhookClientID     string `yaml:"webhook_client_id"`
	WebhookClientSecret string `yaml:"webhook_client_secret"`

	// When set, the advisor chat talks to Anthropic instead of the chat webhook.
	AnthropicAPIKey string `yaml:"-"`
	ChatModel       string `yaml:"chat_model"`

	HandoffTTL time.Duration `yaml:"handoff_ttl"`
}

// Defaults is what FromEnv starts from before the file and env overlays.
func Defaults() Config {
	return Config{
		Mode:               ModeOffline,
		HTTPAddr:           ":8080",
		DBDriver:           "sqlite",
		BlobBasePath:       "./data",
		MaxUploadMB:        20,
		AuthHMACSecret:     "supersecret-dev-key",
		AdminUser:          "admin",
		CORSOriginsOnline:  []string{"https://app.venturelens.ai"},
		CORSOriginsOffline: []string{"http://localhost:5173", "http://localhost:8080"},
		WebhookTimeout:     120 * time.Second,
		ChatModel:          "claude-sonnet-4-20250514",
		HandoffTTL:         30 * time.Minute,
	}
}

// FromEnv loads defaults, then CONFIG_FILE (YAML) if set, then the environment.
func FromEnv() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Mode = Mode(envOr("MODE", string(c.Mode)))
	c.HTTPAddr = envOr("HTTP_ADDR", c.HTTPAddr)
	c.PublicURL = envOr("PUBLIC_URL", c.PublicURL)
	c.DBDriver = envOr("DB_DRIVER", c.DBDriver)
	c.DBDSN = envOr("DB_DSN", c.DBDSN)
	c.BlobBasePath = envOr("BLOB_BASE_PATH", c.BlobBasePath)
	c.MaxUploadMB = envInt("MAX_UPLOAD_MB", c.MaxUploadMB)
	c.AuthHMACSecret = envOr("AUTH_HMAC_SECRET", c.AuthHMACSecret)
	c.AdminUser = envOr("ADMIN_USER", c.AdminUser)
	c.AdminPassHash = envOr("ADMIN_PASS_HASH", c.AdminPassHash)
	c.CORSOriginsOnline = csvOr("CORS_ORIGINS_ONLINE", c.CORSOriginsOnline)
	c.CORSOriginsOffline = csvOr("CORS_ORIGINS_OFFLINE", c.CORSOriginsOffline)

	c.ScoringWebhookURL = envOr("SCORING_WEBHOOK_URL", c.ScoringWebhookURL)
	c.AnomalyWebhookURL = envOr("ANOMALY_WEBHOOK_URL", c.AnomalyWebhookURL)
	c.IngestWebhookURL = envOr("INGEST_WEBHOOK_URL", c.IngestWebhookURL)
	c.ChatWebhookURL = envOr("CHAT_WEBHOOK_URL", c.ChatWebhookURL)
	c.WebhookTimeout = envDuration("WEBHOOK_TIMEOUT", c.WebhookTimeout)
	c.WebhookTokenURL = envOr("WEBHOOK_TOKEN_URL", c.WebhookTokenURL)
	c.WebhookClientID = envOr("WEBHOOK_CLIENT_ID", c.WebhookClientID)
	c.WebhookClientSecret = envOr("WEBHOOK_CLIENT_SECRET", c.WebhookClientSecret)

	c.AnthropicAPIKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	c.ChatModel = envOr("CHAT_MODEL", c.ChatModel)
	c.HandoffTTL = envDuration("HANDOFF_TTL", c.HandoffTTL)
}

func (c Config) Validate() error {
	var errs []error
	switch c.Mode {
	case ModeOffline, ModeOnline:
	default:
		errs = append(errs, fmt.Errorf("unknown MODE %q", c.Mode))
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if c.Mode == ModeOnline {
		if c.ScoringWebhookURL == "" {
			errs = append(errs, errors.New("SCORING_WEBHOOK_URL is required in online mode"))
		}
		if c.AuthHMACSecret == Defaults().AuthHMACSecret {
			errs = append(errs, errors.New("AUTH_HMAC_SECRET must be set in online mode"))
		}
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	if c.WebhookTimeout <= 0 {
		errs = append(errs, errors.New("WEBHOOK_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// CORSOrigins picks the origin list for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int64) int64 {
	v, err := strconv.ParseInt(os.Getenv(k), 10, 64)
	if err != nil {
		return def
	}
	return v
}

func envDuration(k string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func csvOr(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
