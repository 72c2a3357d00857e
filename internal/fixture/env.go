package fixture

import (
	"testing"

	"github.com/romangod6/xmlsitemap/internal/auth"
	"github.com/romangod6/xmlsitemap/internal/language"
	"github.com/romangod6/xmlsitemap/internal/sitemap"
	"github.com/romangod6/xmlsitemap/internal/storage"
	"go.uber.org/zap"
)

// Env wires every service over one store.
type Env struct {
	Store     storage.Store
	Languages *language.Registry
	Sitemaps  *sitemap.ContextStore
	Builder   *sitemap.Builder
	Accounts  *auth.Accounts
	Logger    *zap.Logger
}

func NewEnv(store storage.Store, builderConfig sitemap.BuilderConfig, logger *zap.Logger) *Env {
	if logger == nil {
		logger = zap.NewNop()
	}

	languages := language.NewRegistry(store, logger.Named("language"))
	return &Env{
		Store:     store,
		Languages: languages,
		Sitemaps:  sitemap.NewContextStore(store, languages, logger.Named("sitemap")),
		Builder:   sitemap.NewBuilder(store, store, builderConfig, logger.Named("builder")),
		Accounts:  auth.NewAccounts(store, logger.Named("auth")),
		Logger:    logger,
	}
}

func (e *Env) Deps() Deps {
	return Deps{
		Accounts:  e.Accounts,
		Languages: e.Languages,
		Sitemaps:  e.Sitemaps,
		Logger:    e.Logger,
	}
}

// NewTestEnv returns an Env over a private in-memory SQLite database that is
// closed when the test finishes.
func NewTestEnv(t testing.TB) *Env {
	t.Helper()

	store, err := storage.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewEnv(store, sitemap.BuilderConfig{
		BaseURL:         "http://example.com",
		DefaultLanguage: "en",
	}, zap.NewNop())
}
