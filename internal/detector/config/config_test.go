package config

import (
	"path/filepath"
	"testing"

	"golang-insider-scanner/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndValidate(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_PASSWORD", "secret")
	t.Setenv("DETECTOR_MIN_INSIDERS", "4")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Detector.WindowDays)
	assert.Equal(t, 4, cfg.Detector.MinInsiders)
	assert.Equal(t, 2, cfg.Detector.PreviewNames)

	err = cfg.Validate()
	require.ErrorIs(t, err, config.ErrMissingConfig)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.NotContains(t, err.Error(), "DATABASE_PASSWORD")

	cfg.Database.URL = "postgres://db.local/insiders"
	assert.NoError(t, cfg.Validate())

	cfg.Detector.WindowDays = 0
	assert.Error(t, cfg.Validate())
}
