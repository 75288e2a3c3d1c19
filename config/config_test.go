package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/mdf-accruals/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "./data/accruals.db", cfg.Database.Path)
	assert.Equal(t, "Accruals Report", cfg.Report.OutputName)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	// GIVEN: A config file setting only a few fields
	// WHEN: Loading
	// THEN: Set fields override and the rest keep their defaults

	path := writeConfig(t, `
server:
  port: 9000
accrual_year: 2024
logging:
  level: debug
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 2024, cfg.AccrualYear)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "Accruals Report", cfg.Report.OutputName)
}

func TestLoad_InvalidPortRejected(t *testing.T) {
	path := writeConfig(t, "server:\n  port: -1\n")
	_, err := config.Load(path)
	assert.ErrorContains(t, err, "invalid server port")
}

func TestLoad_InvalidYearRejected(t *testing.T) {
	path := writeConfig(t, "accrual_year: 1200\n")
	_, err := config.Load(path)
	assert.ErrorContains(t, err, "invalid accrual year")
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
