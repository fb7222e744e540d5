package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("PENDING_PAYMENT_TTL", "")

	cfg := LoadConfig()

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "mongo", cfg.DBDriver)
	assert.Equal(t, "INR", cfg.PaymentCurrency)
	assert.Equal(t, 48*time.Hour, cfg.PendingPaymentTTL)
	assert.Same(t, cfg, AppConfig)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("ACCESS_TOKEN_TTL", "not-a-duration")

	cfg := LoadConfig()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.RateLimitEnabled)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment:           "production",
			DBDriver:              "mongo",
			ArchiveDriver:         "local",
			JWTSecret:             "s3cret",
			RazorpayKeyID:         "rzp_key",
			RazorpayKeySecret:     "rzp_secret",
			RazorpayWebhookSecret: "whsec",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid production", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "postgres" }, wantErr: "DB_DRIVER"},
		{name: "default jwt secret", mutate: func(c *Config) { c.JWTSecret = "change-me-in-production" }, wantErr: "JWT_SECRET"},
		{name: "missing webhook secret", mutate: func(c *Config) { c.RazorpayWebhookSecret = "" }, wantErr: "RAZORPAY_WEBHOOK_SECRET"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.ArchiveDriver = "s3" }, wantErr: "ARCHIVE_BUCKET"},
		{name: "memory in production", mutate: func(c *Config) { c.DBDriver = "memory" }, wantErr: "memory driver"},
		{name: "development skips secrets", mutate: func(c *Config) {
			c.Environment = "development"
			c.JWTSecret = ""
			c.RazorpayKeyID = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
