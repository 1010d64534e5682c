// SPDX-License-Identifier: AGPL-3.0-only
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func env(values map[string]string) getenvFunc {
	return func(k string) string { return values[k] }
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(env(map[string]string{"SESSION_SECRET": "s3cret"}))
	require.NoError(t, err)

	require.Equal(t, ":3000", cfg.ListenAddr)
	require.Equal(t, "http://127.0.0.1:3000", cfg.PublicURL)
	require.Equal(t, "http://localhost:8080", cfg.BackendURL)
	require.Equal(t, "skill_analytics_report", cfg.ReportName)
	require.Equal(t, 15*time.Second, cfg.FetchTimeout)
	require.False(t, cfg.QuickExportEnabled)
	require.False(t, cfg.S3.Enabled())
	require.Equal(t, "classic", cfg.Theme.Name)
	require.False(t, cfg.SecureCookies())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(env(map[string]string{
		"SESSION_SECRET":       "s3cret",
		"BACKEND_URL":          "http://api.internal:9000/",
		"FETCH_TIMEOUT":        "3s",
		"QUICK_EXPORT_ENABLED": "true",
		"THEME":                "modern",
		"S3_ENDPOINT":          "minio:9000",
		"S3_BUCKET":            "reports",
		"EXPORT_RATE_PER_MIN":  "2",
		"METRICS_TOKEN":        "scrape",
	}))
	require.NoError(t, err)

	require.Equal(t, "http://api.internal:9000", cfg.BackendURL)
	require.Equal(t, 3*time.Second, cfg.FetchTimeout)
	require.True(t, cfg.QuickExportEnabled)
	require.Equal(t, "modern", cfg.Theme.Name)
	require.True(t, cfg.S3.Enabled())
	require.Equal(t, 2, cfg.ExportRatePerMin)
	require.Equal(t, "scrape", cfg.MetricsToken)

	cfg.PublicURL = "https://skills.example.com"
	require.True(t, cfg.SecureCookies())
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	_, err := loadConfig(env(nil))
	require.ErrorIs(t, err, ErrMissingConfig)

	_, err = loadConfig(env(map[string]string{"SESSION_SECRET": "x", "FETCH_TIMEOUT": "soon"}))
	require.Error(t, err)

	_, err = loadConfig(env(map[string]string{"SESSION_SECRET": "x", "THEME": "neon"}))
	require.ErrorIs(t, err, ErrMissingConfig)

	_, err = loadConfig(env(map[string]string{"SESSION_SECRET": "x", "EXPORT_RATE_PER_MIN": "0"}))
	require.Error(t, err)
}

func TestLoadThemes(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "themes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
themes:
  - name: night
    accent: "#111111"
  - name: modern
    title: Overridden
`), 0o644))

	themes, err := LoadThemes(path)
	require.NoError(t, err)

	night, err := themes.Pick("night")
	require.NoError(t, err)
	require.Equal(t, "#111111", night.Accent)
	require.Equal(t, "Skill Analytics Dashboard", night.Title)
	require.NotEmpty(t, night.Palette)

	modern, err := themes.Pick("modern")
	require.NoError(t, err)
	require.Equal(t, "Overridden", modern.Title)

	classic, err := themes.Pick("")
	require.NoError(t, err)
	require.Equal(t, "classic", classic.Name)
}

func TestThemeColorCycles(t *testing.T) {
	t.Parallel()

	theme := Theme{Accent: "#000", Palette: []string{"#a", "#b"}}
	require.Equal(t, "#a", theme.Color(0))
	require.Equal(t, "#b", theme.Color(1))
	require.Equal(t, "#a", theme.Color(2))
	require.Equal(t, "#000", Theme{Accent: "#000"}.Color(3))
}
