package fixture

import (
	"context"
	"errors"
	"testing"

	"github.com/romangod6/xmlsitemap/internal/auth"
	"github.com/romangod6/xmlsitemap/internal/models"
	"github.com/romangod6/xmlsitemap/internal/sitemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_SeedsLanguagesAndSitemaps(t *testing.T) {
	env := NewTestEnv(t)
	ctx := context.Background()

	result, err := Setup(ctx, env.Deps(), DefaultOptions())
	require.NoError(t, err)

	assert.True(t, result.Session.Can(auth.AdministerXMLSitemap))
	require.Len(t, result.Languages, 2)
	assert.Equal(t, "fr", result.Languages[0].Code)
	assert.Equal(t, "en", result.Languages[1].Code)

	for _, code := range []string{"en", "fr"} {
		exists, err := env.Languages.Exists(ctx, code)
		require.NoError(t, err)
		assert.True(t, exists, "language %s should be registered", code)
	}

	sitemaps, err := env.Sitemaps.List(ctx)
	require.NoError(t, err)
	require.Len(t, sitemaps, 2)
	assert.Equal(t, models.SitemapContext{"language": "en"}, sitemaps[0].Context)
	assert.Equal(t, models.SitemapContext{"language": "fr"}, sitemaps[1].Context)
}

func TestSetup_LookupByContextIsOrderIndependent(t *testing.T) {
	env := NewTestEnv(t)
	ctx := context.Background()

	_, err := Setup(ctx, env.Deps(), DefaultOptions())
	require.NoError(t, err)

	languages, err := env.Languages.List(ctx)
	require.NoError(t, err)
	assert.Len(t, languages, 2)

	for _, code := range []string{"fr", "en"} {
		sm, err := env.Sitemaps.Get(ctx, models.SitemapContext{"language": code})
		require.NoError(t, err)
		require.NotNil(t, sm, "sitemap for %s", code)
		assert.Equal(t, code, sm.Context.Language())
	}
}

func TestSetup_RerunReplacesSitemaps(t *testing.T) {
	env := NewTestEnv(t)
	ctx := context.Background()

	first, err := Setup(ctx, env.Deps(), DefaultOptions())
	require.NoError(t, err)
	second, err := Setup(ctx, env.Deps(), DefaultOptions())
	require.NoError(t, err)

	sitemaps, err := env.Sitemaps.List(ctx)
	require.NoError(t, err)
	require.Len(t, sitemaps, 2)

	for _, old := range first.Sitemaps {
		got, err := env.Sitemaps.GetByID(ctx, old.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
	assert.Equal(t, second.Sitemaps[0].ID, sitemaps[0].ID)
	assert.Equal(t, first.Actor.ID, second.Actor.ID, "the setup actor is reused by name")

	languages, err := env.Languages.List(ctx)
	require.NoError(t, err)
	assert.Len(t, languages, 2, "languages must not be duplicated by a second run")
}

func TestSetup_KeepsExistingLanguageName(t *testing.T) {
	env := NewTestEnv(t)
	ctx := context.Background()

	_, err := env.Languages.EnsureLanguage(ctx, "fr", "Français")
	require.NoError(t, err)

	_, err = Setup(ctx, env.Deps(), DefaultOptions())
	require.NoError(t, err)

	fr, err := env.Languages.Get(ctx, "fr")
	require.NoError(t, err)
	assert.Equal(t, "Français", fr.Name)
}

func TestSetup_MissingCapability(t *testing.T) {
	env := NewTestEnv(t)
	ctx := context.Background()

	opts := DefaultOptions()
	opts.Capabilities = []string{auth.AdministerLanguages, auth.AccessContent}

	_, err := Setup(ctx, env.Deps(), opts)
	assert.True(t, errors.Is(err, auth.ErrPermissionDenied), "expected ErrPermissionDenied, got: %v", err)

	sitemaps, err := env.Sitemaps.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sitemaps)
}

func TestSetup_UnregisteredContextLanguage(t *testing.T) {
	env := NewTestEnv(t)

	opts := DefaultOptions()
	opts.Contexts = append(opts.Contexts, models.SitemapContext{"language": "de"})

	_, err := Setup(context.Background(), env.Deps(), opts)
	assert.True(t, errors.Is(err, sitemap.ErrUnknownLanguage), "expected ErrUnknownLanguage, got: %v", err)
}

func TestSetup_CustomLanguages(t *testing.T) {
	env := NewTestEnv(t)
	ctx := context.Background()

	languages := []LanguageSpec{{Code: "de", Name: "German"}, {Code: "es", Name: "Spanish"}}
	opts := DefaultOptions()
	opts.Languages = languages
	opts.Contexts = LanguageContexts(languages)

	result, err := Setup(ctx, env.Deps(), opts)
	require.NoError(t, err)
	require.Len(t, result.Sitemaps, 2)
	assert.Equal(t, "de", result.Sitemaps[0].Context.Language())
	assert.Equal(t, "es", result.Sitemaps[1].Context.Language())
}

type failingRegistry struct{ err error }

func (f failingRegistry) EnsureLanguage(context.Context, string, string) (*models.Language, error) {
	return nil, f.err
}

type recordingSeeder struct{ called bool }

func (r *recordingSeeder) ResetAndSeed(context.Context, []models.SitemapContext) ([]*models.Sitemap, error) {
	r.called = true
	return nil, nil
}

func TestSetup_StopsAtFirstFailure(t *testing.T) {
	env := NewTestEnv(t)
	boom := errors.New("disk full")
	seeder := &recordingSeeder{}

	deps := env.Deps()
	deps.Languages = failingRegistry{err: boom}
	deps.Sitemaps = seeder

	_, err := Setup(context.Background(), deps, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "ensure language fr")
	assert.False(t, seeder.called, "sitemaps must not be seeded after a failed step")
}
