package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
campaign:
  location: "Sydney, NSW"
  daily_budget: 300
  seed_keywords: ["locksmith", "emergency locksmith"]
monitoring:
  interval_minutes: 30
`)
	cfg, err := Load("test", path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "Sydney, NSW", cfg.Campaign.Location)
	assert.Equal(t, 300.0, cfg.Campaign.DailyBudget)
	assert.Equal(t, []string{"locksmith", "emergency locksmith"}, cfg.Campaign.SeedKeywords)
	assert.Equal(t, 30, cfg.Monitoring.IntervalMinutes)
	// 未配置的字段走默认值
	assert.Equal(t, "search", cfg.Campaign.CampaignType)
	assert.NotEmpty(t, cfg.Alerts.Rules)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfigFile(t, "campaign:\n  location: \"Perth, WA\"\n")
	t.Setenv("APP_CAMPAIGN_LOCATION", "Hobart, TAS")

	cfg, err := Load("test", path)
	require.NoError(t, err)
	assert.Equal(t, "Hobart, TAS", cfg.Campaign.Location)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load("test", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestCampaignConfig_MissingFieldsAndFallbacks(t *testing.T) {
	c := CampaignConfig{Radius: 10}
	assert.ElementsMatch(t, []string{"location", "daily_budget", "campaign_type", "seed_keywords"}, c.MissingFields())

	filled := c.WithFallbacks()
	assert.Empty(t, filled.MissingFields())
	assert.Equal(t, 10, filled.Radius)
	assert.Equal(t, DefaultCampaign().SeedKeywords, filled.SeedKeywords)
}
