package config

import (
	"fmt"

	"golang-insider-scanner/pkg/config"
)

// Detector holds the cluster-buy rule parameters.
type Detector struct {
	WindowDays   int `mapstructure:"window_days"`
	MinInsiders  int `mapstructure:"min_insiders"`
	PreviewNames int `mapstructure:"preview_names"`
}

// Config holds the full configuration for the signal detector.
type Config struct {
	App       config.App       `mapstructure:"app"`
	Logger    config.Logger    `mapstructure:"logger"`
	Database  config.Database  `mapstructure:"database"`
	Redis     config.Redis     `mapstructure:"redis"`
	Telegram  config.Telegram  `mapstructure:"telegram"`
	Scheduler config.Scheduler `mapstructure:"scheduler"`
	Detector  Detector         `mapstructure:"detector"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"detector.window_days":   7,
		"detector.min_insiders":  3,
		"detector.preview_names": 2,
		"scheduler.cron":         "0 * * * *",
	}
}

// Load loads the detector configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, defaults(), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required credentials and rule parameters.
func (c *Config) Validate() error {
	if err := config.Require(map[string]string{
		"DATABASE_URL":      c.Database.URL,
		"DATABASE_PASSWORD": c.Database.Password,
	}, "DATABASE_URL", "DATABASE_PASSWORD"); err != nil {
		return err
	}
	if c.Detector.WindowDays <= 0 {
		return fmt.Errorf("detector.window_days must be positive")
	}
	if c.Detector.MinInsiders <= 0 {
		return fmt.Errorf("detector.min_insiders must be positive")
	}
	if c.Detector.PreviewNames <= 0 {
		return fmt.Errorf("detector.preview_names must be positive")
	}
	return nil
}
