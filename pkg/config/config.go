// Package config loads application configuration from environment variables
// and an optional .env file.
package config

import (
	"log"
	"time"

	"github.com/heraops/ledger-integrity-engine/internal/adapters/erp"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	// OrganizationID scopes audit runs when the caller does not pass one.
	OrganizationID string

	// DefaultCurrency is the settlement currency for generated postings.
	DefaultCurrency string

	// RateLimit is a ulule/limiter formatted rate, e.g. "100-M".
	RateLimit string

	// ERPTenantID names the tenant the statically configured connector
	// belongs to. Empty disables the static connector config.
	ERPTenantID string
	ERP         erp.Config
}

// LoadConfig loads configuration from environment variables and .env file if
// present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ORG_ID", "")
	viper.SetDefault("DEFAULT_CURRENCY", "AED")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("ERP_TENANT_ID", "")
	viper.SetDefault("ERP_FAMILY", "")
	viper.SetDefault("ERP_BASE_URL", "")
	viper.SetDefault("ERP_COMPANY_CODE", "")
	viper.SetDefault("ERP_CHART_OF_ACCOUNTS", "")
	viper.SetDefault("ERP_AUTH_KIND", "")
	viper.SetDefault("ERP_CLIENT_ID", "")
	viper.SetDefault("ERP_CLIENT_SECRET", "")
	viper.SetDefault("ERP_TOKEN_URL", "")
	viper.SetDefault("ERP_USERNAME", "")
	viper.SetDefault("ERP_PASSWORD", "")
	viper.SetDefault("ERP_COMPANY_DB", "")
	viper.SetDefault("ERP_PRIVATE_KEY_PEM", "")
	viper.SetDefault("ERP_KEY_ID", "")
	viper.SetDefault("ERP_TIMEOUT", "30s")
	viper.SetDefault("ERP_TOKEN_SKEW", "60s")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.OrganizationID = viper.GetString("ORG_ID")
	cfg.DefaultCurrency = viper.GetString("DEFAULT_CURRENCY")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	cfg.ERPTenantID = viper.GetString("ERP_TENANT_ID")
	cfg.ERP = erp.Config{
		Family:          erp.SystemFamily(viper.GetString("ERP_FAMILY")),
		BaseURL:         viper.GetString("ERP_BASE_URL"),
		CompanyCode:     viper.GetString("ERP_COMPANY_CODE"),
		ChartOfAccounts: viper.GetString("ERP_CHART_OF_ACCOUNTS"),
		Credentials: erp.Credentials{
			Kind:          erp.CredentialKind(viper.GetString("ERP_AUTH_KIND")),
			ClientID:      viper.GetString("ERP_CLIENT_ID"),
			ClientSecret:  viper.GetString("ERP_CLIENT_SECRET"),
			TokenURL:      viper.GetString("ERP_TOKEN_URL"),
			Username:      viper.GetString("ERP_USERNAME"),
			Password:      viper.GetString("ERP_PASSWORD"),
			CompanyDB:     viper.GetString("ERP_COMPANY_DB"),
			PrivateKeyPEM: viper.GetString("ERP_PRIVATE_KEY_PEM"),
			KeyID:         viper.GetString("ERP_KEY_ID"),
		},
		Timeout:   parseDurationOr("ERP_TIMEOUT", 30*time.Second),
		TokenSkew: parseDurationOr("ERP_TOKEN_SKEW", 60*time.Second),
	}

	return cfg, nil
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}
