package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/romangod6/xmlsitemap/internal/api"
	"github.com/romangod6/xmlsitemap/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// runSetupCommand seeds a sqlite database in a temp dir and leaves cfg and
// logger loaded from it, as serve would see them.
func runSetupCommand(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf("database:\n  driver: sqlite\n  url: %s\n", filepath.Join(dir, "sitemap.db"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))

	rootCmd.SetOut(&strings.Builder{})
	rootCmd.SetArgs([]string{"setup", "--config", dir, "--logs-dir", filepath.Join(dir, "logs")})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())
}

func TestAdminSession_AuthorizesAdminRoutesAfterSetup(t *testing.T) {
	runSetupCommand(t)
	logger = zap.NewNop()

	// A fresh environment over the same database, as in a separate serve process.
	env, err := openEnv(logger)
	require.NoError(t, err)
	t.Cleanup(func() { env.Store.Close() })

	session, err := openAdminSession(context.Background(), env, cfg.Fixture.ActorName)
	require.NoError(t, err)

	handler := api.NewServer(0, env).Handler()
	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+session.Token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := post("/api/languages", `{"code":"de","name":"German"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = post("/api/sitemaps/reset", `{"contexts":[{"language":"en"},{"language":"de"}]}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestAdminSession_UnknownActor(t *testing.T) {
	runSetupCommand(t)
	logger = zap.NewNop()

	env, err := openEnv(logger)
	require.NoError(t, err)
	t.Cleanup(func() { env.Store.Close() })

	_, err = openAdminSession(context.Background(), env, "nobody")
	assert.True(t, errors.Is(err, auth.ErrUnknownActor))
}
