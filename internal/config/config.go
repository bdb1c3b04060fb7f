package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string
	HTTPAddress string

	DatabaseURL string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	ResetTokenKey string
	ResetTokenTTL time.Duration

	SessionSecret string
	CookieDomain  string

	SiteName string
	AppURL   string

	AllowedOrigins   []string
	AllowCredentials bool

	MailSMTPHost     string
	MailSMTPPort     int
	MailSMTPUsername string
	MailSMTPPassword string
	MailSMTPSecure   bool
	MailFromEmail    string
	MailFromName     string
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	for _, key := range []string{
		"ENVIRONMENT", "HTTP_ADDRESS",
		"DATABASE_URL",
		"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
		"JWT_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"RESET_TOKEN_KEY", "RESET_TOKEN_TTL",
		"SESSION_SECRET", "COOKIE_DOMAIN",
		"SITE_NAME", "APP_URL",
		"ALLOWED_ORIGINS", "ALLOW_CREDENTIALS",
		"MAIL_SMTP_HOST", "MAIL_SMTP_PORT", "MAIL_SMTP_USERNAME",
		"MAIL_SMTP_PASSWORD", "MAIL_SMTP_SECURE",
		"MAIL_FROM_EMAIL", "MAIL_FROM_NAME",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("RESET_TOKEN_TTL", "1h")
	v.SetDefault("SITE_NAME", "Forja")
	v.SetDefault("MAIL_SMTP_PORT", 25)

	cfg := &Config{
		Environment:      v.GetString("ENVIRONMENT"),
		HTTPAddress:      v.GetString("HTTP_ADDRESS"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		RedisAddress:     v.GetString("REDIS_ADDRESS"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		AccessTokenTTL:   v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:  v.GetDuration("REFRESH_TOKEN_TTL"),
		ResetTokenKey:    v.GetString("RESET_TOKEN_KEY"),
		ResetTokenTTL:    v.GetDuration("RESET_TOKEN_TTL"),
		SessionSecret:    v.GetString("SESSION_SECRET"),
		CookieDomain:     v.GetString("COOKIE_DOMAIN"),
		SiteName:         v.GetString("SITE_NAME"),
		AppURL:           v.GetString("APP_URL"),
		AllowedOrigins:   v.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials: v.GetBool("ALLOW_CREDENTIALS"),
		MailSMTPHost:     v.GetString("MAIL_SMTP_HOST"),
		MailSMTPPort:     v.GetInt("MAIL_SMTP_PORT"),
		MailSMTPUsername: v.GetString("MAIL_SMTP_USERNAME"),
		MailSMTPPassword: v.GetString("MAIL_SMTP_PASSWORD"),
		MailSMTPSecure:   v.GetBool("MAIL_SMTP_SECURE"),
		MailFromEmail:    v.GetString("MAIL_FROM_EMAIL"),
		MailFromName:     v.GetString("MAIL_FROM_NAME"),
	}

	required := map[string]string{
		"DATABASE_URL":    cfg.DatabaseURL,
		"REDIS_ADDRESS":   cfg.RedisAddress,
		"JWT_SECRET":      cfg.JWTSecret,
		"RESET_TOKEN_KEY": cfg.ResetTokenKey,
		"SESSION_SECRET":  cfg.SessionSecret,
		"APP_URL":         cfg.AppURL,
	}
	for key, val := range required {
		if val == "" {
			return nil, fmt.Errorf("config: %s is required", key)
		}
	}

	if _, err := cfg.ResetKeyBytes(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ResetKeyBytes decodes RESET_TOKEN_KEY, a hex-encoded AES key
// (32/48/64 hex chars).
func (c *Config) ResetKeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(c.ResetTokenKey)
	if err != nil {
		return nil, fmt.Errorf("config: RESET_TOKEN_KEY must be hex: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	}
	return nil, fmt.Errorf("config: RESET_TOKEN_KEY must decode to 16, 24 or 32 bytes, got %d", len(key))
}

// SessionName derives the deployment-scoped session cookie name from the
// site name, e.g. "Minha Forja" -> "minha-forja-session".
func (c *Config) SessionName() string {
	slug := strings.ToLower(strings.TrimSpace(c.SiteName))
	slug = strings.Join(strings.Fields(slug), "-")
	return slug + "-session"
}
