package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/romangod6/xmlsitemap/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Requires Docker; enabled with XMLSITEMAP_INTEGRATION=1.
func newTestPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	if os.Getenv("XMLSITEMAP_INTEGRATION") == "" {
		t.Skip("set XMLSITEMAP_INTEGRATION=1 to run Postgres integration tests")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("xmlsitemap"),
		postgres.WithUsername("xmlsitemap"),
		postgres.WithPassword("xmlsitemap"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := NewPostgresStore(connStr)
	require.NoError(t, err)
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	store := newTestPostgresStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateLanguage(ctx, models.NewLanguage("en", "English")))
	err := store.CreateLanguage(ctx, models.NewLanguage("en", "English"))
	assert.True(t, errors.Is(err, ErrDuplicate), "expected ErrDuplicate, got: %v", err)

	en := models.NewSitemap(models.SitemapContext{"language": "en"})
	fr := models.NewSitemap(models.SitemapContext{"language": "fr"})
	require.NoError(t, store.ReplaceSitemaps(ctx, []*models.Sitemap{en, fr}))

	sitemaps, err := store.ListSitemaps(ctx)
	require.NoError(t, err)
	require.Len(t, sitemaps, 2)
	assert.Equal(t, en.ID, sitemaps[0].ID)
	assert.Equal(t, "fr", sitemaps[1].Context.Language())

	require.NoError(t, store.SaveLink(ctx, models.NewLink("/about", "en")))
	links, err := store.ListLinks(ctx, "en")
	require.NoError(t, err)
	require.Len(t, links, 1)

	actor := models.NewActor("admin", []string{"administer xmlsitemap"})
	require.NoError(t, store.CreateActor(ctx, actor))
	got, err := store.GetActor(ctx, actor.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, actor.Capabilities, got.Capabilities)

	byName, err := store.GetActorByName(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, actor.ID, byName.ID)
}
