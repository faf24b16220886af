package config

import (
	"path/filepath"
	"testing"

	"golang-insider-scanner/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadClean(t *testing.T) *Config {
	t.Helper()
	for _, name := range []string{"SEC_API_KEY", "DATABASE_URL", "DATABASE_PASSWORD", "INGESTOR_FILING_POLICY"} {
		t.Setenv(name, "")
	}
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadClean(t)
	assert.Equal(t, 3, cfg.Ingestor.LookbackDays)
	assert.Equal(t, 50, cfg.Ingestor.PageSize)
	assert.Equal(t, PolicyFirstPurchase, cfg.Ingestor.FilingPolicy)
	assert.Equal(t, "https://api.sec-api.io", cfg.SecAPI.BaseURL)
	assert.Equal(t, 30, cfg.SecAPI.MaxRequestPerMinute)
}

func TestValidate_MissingCredentials(t *testing.T) {
	cfg := loadClean(t)
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingConfig)
	assert.Contains(t, err.Error(), "SEC_API_KEY, DATABASE_URL, DATABASE_PASSWORD")
}

func TestValidate_FromEnvironment(t *testing.T) {
	loadClean(t)
	t.Setenv("SEC_API_KEY", "key")
	t.Setenv("DATABASE_URL", "postgres://db.local/insiders")
	t.Setenv("DATABASE_PASSWORD", "secret")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cfg.Ingestor.FilingPolicy = "every_other"
	assert.Error(t, cfg.Validate())
}
