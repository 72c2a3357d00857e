package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/romangod6/xmlsitemap/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_Languages(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	missing, err := store.GetLanguage(ctx, "fr")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.CreateLanguage(ctx, models.NewLanguage("fr", "French")))
	require.NoError(t, store.CreateLanguage(ctx, models.NewLanguage("en", "English")))

	err = store.CreateLanguage(ctx, models.NewLanguage("fr", "Français"))
	assert.True(t, errors.Is(err, ErrDuplicate), "expected ErrDuplicate, got: %v", err)

	fr, err := store.GetLanguage(ctx, "fr")
	require.NoError(t, err)
	require.NotNil(t, fr)
	assert.Equal(t, "French", fr.Name)

	languages, err := store.ListLanguages(ctx)
	require.NoError(t, err)
	require.Len(t, languages, 2)
	assert.Equal(t, "en", languages[0].Code)
	assert.Equal(t, "fr", languages[1].Code)
}

func TestSQLiteStore_ReplaceSitemaps(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	old := models.NewSitemap(models.SitemapContext{"language": "de"})
	require.NoError(t, store.ReplaceSitemaps(ctx, []*models.Sitemap{old}))

	en := models.NewSitemap(models.SitemapContext{"language": "en"})
	fr := models.NewSitemap(models.SitemapContext{"language": "fr"})
	require.NoError(t, store.ReplaceSitemaps(ctx, []*models.Sitemap{en, fr}))

	sitemaps, err := store.ListSitemaps(ctx)
	require.NoError(t, err)
	require.Len(t, sitemaps, 2)
	assert.Equal(t, en.ID, sitemaps[0].ID)
	assert.Equal(t, fr.ID, sitemaps[1].ID)
	assert.Equal(t, "fr", sitemaps[1].Context.Language())

	gone, err := store.GetSitemap(ctx, old.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	byContext, err := store.GetSitemapByContext(ctx, fr.ContextHash)
	require.NoError(t, err)
	require.NotNil(t, byContext)
	assert.Equal(t, fr.ID, byContext.ID)
}

func TestSQLiteStore_ReplaceSitemapsRollsBackOnConflict(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	existing := models.NewSitemap(models.SitemapContext{"language": "en"})
	require.NoError(t, store.ReplaceSitemaps(ctx, []*models.Sitemap{existing}))

	a := models.NewSitemap(models.SitemapContext{"language": "fr"})
	b := models.NewSitemap(models.SitemapContext{"language": "fr"})
	err := store.ReplaceSitemaps(ctx, []*models.Sitemap{a, b})
	assert.True(t, errors.Is(err, ErrDuplicate), "expected ErrDuplicate, got: %v", err)

	sitemaps, err := store.ListSitemaps(ctx)
	require.NoError(t, err)
	require.Len(t, sitemaps, 1)
	assert.Equal(t, existing.ID, sitemaps[0].ID)
}

func TestSQLiteStore_UpdateAndDeleteSitemap(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	sitemap := models.NewSitemap(models.SitemapContext{"language": "en"})
	require.NoError(t, store.ReplaceSitemaps(ctx, []*models.Sitemap{sitemap}))

	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sitemap.Links = 3
	sitemap.Chunks = 1
	sitemap.Updated = &updated
	require.NoError(t, store.UpdateSitemap(ctx, sitemap))

	got, err := store.GetSitemap(ctx, sitemap.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.Links)
	assert.Equal(t, 1, got.Chunks)
	require.NotNil(t, got.Updated)
	assert.True(t, updated.Equal(*got.Updated))

	require.NoError(t, store.DeleteSitemap(ctx, sitemap.ID))
	got, err = store.GetSitemap(ctx, sitemap.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_Links(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveLink(ctx, models.NewLink("/fr/accueil", "fr")))
	require.NoError(t, store.SaveLink(ctx, models.NewLink("/about", "en")))
	require.NoError(t, store.SaveLink(ctx, models.NewLink("/", models.LanguageNone)))

	disabled := models.NewLink("/hidden", "en")
	disabled.Status = false
	require.NoError(t, store.SaveLink(ctx, disabled))

	// Upsert on (loc, language) keeps a single row.
	again := models.NewLink("/about", "en")
	again.Priority = 0.9
	require.NoError(t, store.SaveLink(ctx, again))

	links, err := store.ListLinks(ctx, "en")
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "/", links[0].Loc)
	assert.Equal(t, "/about", links[1].Loc)
	assert.InDelta(t, 0.9, links[1].Priority, 0.0001)
	assert.True(t, links[1].Status)
}

func TestSQLiteStore_Actors(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	actor := models.NewActor("admin", []string{"access content", "administer languages"})
	require.NoError(t, store.CreateActor(ctx, actor))

	got, err := store.GetActor(ctx, actor.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "admin", got.Name)
	assert.Equal(t, actor.Capabilities, got.Capabilities)

	missing, err := store.GetActor(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	byName, err := store.GetActorByName(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, actor.ID, byName.ID)

	byName.Capabilities = []string{"administer xmlsitemap"}
	require.NoError(t, store.UpdateActorCapabilities(ctx, byName))
	got, err = store.GetActor(ctx, actor.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"administer xmlsitemap"}, got.Capabilities)

	missing, err = store.GetActorByName(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "")
	assert.Error(t, err)
}
