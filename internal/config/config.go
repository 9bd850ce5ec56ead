package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string   `mapstructure:"PORT"`
	Env               string   `mapstructure:"ENV"`
	DatabaseURL       string   `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32    `mapstructure:"DB_MIN_CONNS"`
	RedisURL          string   `mapstructure:"REDIS_URL"`
	CognitoRegion     string   `mapstructure:"COGNITO_REGION"`
	CognitoUserPoolID string   `mapstructure:"COGNITO_USER_POOL_ID"`
	CognitoClientID   string   `mapstructure:"COGNITO_CLIENT_ID"`
	AuthJWKSURL       string   `mapstructure:"AUTH_JWKS_URL"`
	AuthSigningKey    string   `mapstructure:"AUTH_SIGNING_KEY"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "5001")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("COGNITO_REGION", "us-east-2")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("COGNITO_REGION")
	v.BindEnv("COGNITO_USER_POOL_ID")
	v.BindEnv("COGNITO_CLIENT_ID")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_SIGNING_KEY")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// CognitoIssuer returns the token issuer URL for the configured user pool.
func (c *Config) CognitoIssuer() string {
	if c.CognitoUserPoolID == "" {
		return ""
	}
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.CognitoRegion, c.CognitoUserPoolID)
}

// JWKSURL returns the JWKS endpoint, honoring an explicit override.
func (c *Config) JWKSURL() string {
	if c.AuthJWKSURL != "" {
		return c.AuthJWKSURL
	}
	if iss := c.CognitoIssuer(); iss != "" {
		return iss + "/.well-known/jwks.json"
	}
	return ""
}

// Validate checks that the configuration is safe to run. Outside development
// the Cognito pool must be configured unless a static signing key is supplied
// (used by tests and local tooling).
func (c *Config) Validate() error {
	if c.IsDev() {
		return nil
	}
	if c.AuthSigningKey == "" && (c.CognitoUserPoolID == "" || c.CognitoClientID == "") {
		return fmt.Errorf("COGNITO_USER_POOL_ID and COGNITO_CLIENT_ID are required when ENV=%q", c.Env)
	}
	return nil
}
