package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "rod", cfg.Browser.Engine)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1920, cfg.Browser.ViewportWidth)
	assert.Equal(t, 1080, cfg.Browser.ViewportHeight)
	assert.Equal(t, "en-US", cfg.Browser.Locale)
	assert.Equal(t, "America/New_York", cfg.Browser.Timezone)

	assert.Equal(t, 60*time.Second, cfg.Fetch.NavigationTimeout)
	assert.Equal(t, 6, cfg.Fetch.ChallengeAttempts)
	assert.Equal(t, 5*time.Second, cfg.Fetch.ChallengeInterval)
	assert.Equal(t, 2*time.Second, cfg.Fetch.SettleDelay)
	assert.Equal(t, 10*time.Second, cfg.Fetch.CSSTimeout)
	assert.Equal(t, int64(10<<20), cfg.Fetch.CSSMaxBytes)

	assert.Equal(t, 1, cfg.Translate.Concurrency)
	assert.Equal(t, 50*time.Millisecond, cfg.Translate.GroupPause)
	assert.Equal(t, "deepl", cfg.Provider.Type)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".transflow.yaml")
	content := `
source_lang: EN
target_lang: JA
provider:
  type: google
  api_key: test-key
browser:
  engine: chromedp
fetch:
  challenge_attempts: 3
  challenge_interval: 1s
translate:
  concurrency: 4
  group_pause: 10ms
glossary:
  static:
    "en:ja": gls-123
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "JA", cfg.TargetLang)
	assert.Equal(t, "google", cfg.Provider.Type)
	assert.Equal(t, "test-key", cfg.Provider.APIKey)
	assert.Equal(t, "chromedp", cfg.Browser.Engine)
	assert.Equal(t, 3, cfg.Fetch.ChallengeAttempts)
	assert.Equal(t, time.Second, cfg.Fetch.ChallengeInterval)
	assert.Equal(t, 4, cfg.Translate.Concurrency)
	assert.Equal(t, 10*time.Millisecond, cfg.Translate.GroupPause)
	assert.Equal(t, "gls-123", cfg.Glossary.Static["en:ja"])

	// 未设置的值保持默认
	assert.Equal(t, 2*time.Second, cfg.Fetch.SettleDelay)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider:\n  type: deepl\n"), 0o644))

	t.Setenv("TRANSFLOW_PROVIDER_API_KEY", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Provider.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown engine", func(c *Config) { c.Browser.Engine = "selenium" }},
		{"zero attempts", func(c *Config) { c.Fetch.ChallengeAttempts = 0 }},
		{"zero concurrency", func(c *Config) { c.Translate.Concurrency = 0 }},
		{"empty provider", func(c *Config) { c.Provider.Type = "" }},
		{"missing glossary file", func(c *Config) { c.Glossary.File = "/nonexistent/glossary.toml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestIsNoTranslation(t *testing.T) {
	assert.True(t, IsNoTranslation(""))
	assert.True(t, IsNoTranslation("  "))
	assert.True(t, IsNoTranslation("NONE"))
	assert.True(t, IsNoTranslation("none"))
	assert.False(t, IsNoTranslation("KO"))
}

func TestLoadGlossaryFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glossary.toml")
	content := `
[[glossary]]
source_lang = "EN"
target_lang = "KO"
id = "def3a26b"

[[glossary]]
source_lang = "en"
target_lang = "ja"
id = "abc123"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	file, err := LoadGlossaryFile(path)
	require.NoError(t, err)
	require.Len(t, file.Glossaries, 2)
	assert.Equal(t, "def3a26b", file.Glossaries[0].ID)
	assert.Equal(t, "ja", file.Glossaries[1].TargetLang)

	_, err = LoadGlossaryFile(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[[glossary]]\nsource_lang = \"EN\"\n"), 0o644))
	_, err = LoadGlossaryFile(bad)
	assert.Error(t, err)
}
