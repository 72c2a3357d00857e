package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/romangod6/xmlsitemap/config"
	"github.com/romangod6/xmlsitemap/internal/fixture"
	"github.com/romangod6/xmlsitemap/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupOptions_DefaultsWhenUnset(t *testing.T) {
	opts := setupOptions(&config.Config{})
	assert.Equal(t, fixture.DefaultOptions(), opts)
}

func TestSetupOptions_FromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Fixture.ActorName = "ops"
	cfg.Fixture.Languages = []config.LanguageConfig{{Code: "de", Name: "German"}}

	opts := setupOptions(cfg)
	assert.Equal(t, "ops", opts.ActorName)
	assert.Equal(t, fixture.DefaultCapabilities(), opts.Capabilities)
	assert.Equal(t, []fixture.LanguageSpec{{Code: "de", Name: "German"}}, opts.Languages)
	assert.Equal(t, []models.SitemapContext{{"language": "de"}}, opts.Contexts)
}

func TestSetupCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sitemap.db")
	content := fmt.Sprintf("database:\n  driver: sqlite\n  url: %s\n", dbPath)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"setup", "--config", dir, "--logs-dir", filepath.Join(dir, "logs")})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "language=en")
	assert.Contains(t, lines[1], "language=fr")

	logs, err := os.ReadDir(filepath.Join(dir, "logs", "setup"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
