package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MODE", "")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ModeOffline, cfg.Mode)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 30*time.Minute, cfg.HandoffTTL)
	assert.Equal(t, cfg.CORSOriginsOffline, cfg.CORSOrigins())
}

func TestFromEnvFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "venturelens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9000"
scoring_webhook_url: https://hooks.example/score
anomaly_webhook_url: https://hooks.example/anomaly
cors_origins_offline:
  - http://a.test
webhook_timeout: 45s
`), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ANOMALY_WEBHOOK_URL", "https://override.example/anomaly")
	t.Setenv("CORS_ORIGINS_OFFLINE", " http://b.test , ,http://c.test")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "https://hooks.example/score", cfg.ScoringWebhookURL)
	assert.Equal(t, "https://override.example/anomaly", cfg.AnomalyWebhookURL)
	assert.Equal(t, []string{"http://b.test", "http://c.test"}, cfg.CORSOriginsOffline)
	assert.Equal(t, 45*time.Second, cfg.WebhookTimeout)
}

func TestValidateOnline(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = ModeOnline
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCORING_WEBHOOK_URL")
	assert.Contains(t, err.Error(), "AUTH_HMAC_SECRET")

	cfg.ScoringWebhookURL = "https://hooks.example/score"
	cfg.AuthHMACSecret = "real-secret"
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, cfg.CORSOriginsOnline, cfg.CORSOrigins())
}

func TestValidateDriver(t *testing.T) {
	cfg := Defaults()
	cfg.DBDriver = "mysql"
	assert.ErrorContains(t, cfg.Validate(), "DB_DRIVER")
}

func TestValidateWebhookTimeout(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		cfg := Defaults()
		cfg.WebhookTimeout = d
		assert.ErrorContains(t, cfg.Validate(), "WEBHOOK_TIMEOUT")
	}
}

func TestEnvParsersFallBack(t *testing.T) {
	t.Setenv("MAX_UPLOAD_MB", "lots")
	t.Setenv("HANDOFF_TTL", "soon")
	assert.Equal(t, int64(7), envInt("MAX_UPLOAD_MB", 7))
	assert.Equal(t, time.Minute, envDuration("HANDOFF_TTL", time.Minute))
}
