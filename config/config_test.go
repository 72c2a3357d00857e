package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "en", cfg.Sitemap.DefaultLanguage)
	assert.Equal(t, time.Hour, cfg.GetRegenerateInterval())
	assert.Equal(t, "sitemap-admin", cfg.Fixture.ActorName)
	assert.Empty(t, cfg.Fixture.Languages)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	content := `database:
  driver: postgres
  url: postgres://localhost/sitemap
server:
  port: 9090
sitemap:
  baseurl: https://example.com
  regenerateinterval: 15m
fixture:
  languages:
    - code: de
      name: German
crawler:
  maxdepth: 5
  delay: 250ms
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/sitemap", cfg.Database.URL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://example.com", cfg.Sitemap.BaseURL)
	assert.Equal(t, 15*time.Minute, cfg.GetRegenerateInterval())
	assert.Equal(t, []LanguageConfig{{Code: "de", Name: "German"}}, cfg.Fixture.Languages)
	assert.Equal(t, 5, cfg.Crawler.MaxDepth)
	assert.Equal(t, 250*time.Millisecond, cfg.GetCrawlDelay())
}

func TestGetRegenerateInterval_Invalid(t *testing.T) {
	cfg := &Config{}
	cfg.Sitemap.RegenerateInterval = "soon"
	assert.Equal(t, time.Hour, cfg.GetRegenerateInterval())
}
