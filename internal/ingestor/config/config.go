package config

import (
	"fmt"
	"time"

	"golang-insider-scanner/pkg/config"
)

// Filing policies for filings that report more than one purchase.
const (
	PolicyFirstPurchase = "first_purchase"
	PolicyAllPurchases  = "all_purchases"
)

// Ingestor holds ingestor-specific configuration.
type Ingestor struct {
	LookbackDays int           `mapstructure:"lookback_days"`
	PageSize     int           `mapstructure:"page_size"`
	FilingPolicy string        `mapstructure:"filing_policy"`
	SeenCacheTTL time.Duration `mapstructure:"seen_cache_ttl"`
}

// SecAPI holds the configuration for the sec-api.io insider trading endpoint.
type SecAPI struct {
	Key                 string        `mapstructure:"key"`
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
}

// Config holds the full configuration for the ingestor.
type Config struct {
	App       config.App       `mapstructure:"app"`
	Logger    config.Logger    `mapstructure:"logger"`
	Database  config.Database  `mapstructure:"database"`
	Redis     config.Redis     `mapstructure:"redis"`
	Scheduler config.Scheduler `mapstructure:"scheduler"`
	Ingestor  Ingestor         `mapstructure:"ingestor"`
	SecAPI    SecAPI           `mapstructure:"sec_api"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"ingestor.lookback_days":         3,
		"ingestor.page_size":             50,
		"ingestor.filing_policy":         PolicyFirstPurchase,
		"ingestor.seen_cache_ttl":        "24h",
		"sec_api.key":                    "",
		"sec_api.base_url":               "https://api.sec-api.io",
		"sec_api.timeout":                "30s",
		"sec_api.max_request_per_minute": 30,
		"scheduler.cron":                 "*/30 * * * *",
	}
}

// Load loads the ingestor configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, defaults(), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required credentials and policy values.
func (c *Config) Validate() error {
	if err := config.Require(map[string]string{
		"SEC_API_KEY":       c.SecAPI.Key,
		"DATABASE_URL":      c.Database.URL,
		"DATABASE_PASSWORD": c.Database.Password,
	}, "SEC_API_KEY", "DATABASE_URL", "DATABASE_PASSWORD"); err != nil {
		return err
	}

	switch c.Ingestor.FilingPolicy {
	case PolicyFirstPurchase, PolicyAllPurchases:
	default:
		return fmt.Errorf("invalid ingestor.filing_policy %q: want %s or %s", c.Ingestor.FilingPolicy, PolicyFirstPurchase, PolicyAllPurchases)
	}
	if c.Ingestor.LookbackDays < 0 {
		return fmt.Errorf("ingestor.lookback_days must not be negative")
	}
	if c.Ingestor.PageSize <= 0 {
		return fmt.Errorf("ingestor.page_size must be positive")
	}
	if c.SecAPI.MaxRequestPerMinute <= 0 {
		return fmt.Errorf("sec_api.max_request_per_minute must be positive")
	}
	return nil
}
