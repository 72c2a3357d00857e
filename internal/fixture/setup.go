// Package fixture seeds a store with an administrative actor, the site
// languages and one sitemap per language context.
package fixture

import (
	"context"
	"fmt"

	"github.com/romangod6/xmlsitemap/internal/auth"
	"github.com/romangod6/xmlsitemap/internal/models"
	"go.uber.org/zap"
)

type ActorService interface {
	EnsureActor(ctx context.Context, name string, capabilities []string) (*models.Actor, error)
	Login(ctx context.Context, actor *models.Actor) (*auth.Session, error)
}

type LanguageRegistry interface {
	EnsureLanguage(ctx context.Context, code, name string) (*models.Language, error)
}

type SitemapSeeder interface {
	ResetAndSeed(ctx context.Context, contexts []models.SitemapContext) ([]*models.Sitemap, error)
}

type Deps struct {
	Accounts  ActorService
	Languages LanguageRegistry
	Sitemaps  SitemapSeeder
	Logger    *zap.Logger
}

type LanguageSpec struct {
	Code string
	Name string
}

type Options struct {
	ActorName    string
	Capabilities []string
	// Languages are ensured in order before any sitemap is seeded.
	Languages []LanguageSpec
	Contexts  []models.SitemapContext
}

type Result struct {
	Actor     *models.Actor
	Session   *auth.Session
	Languages []*models.Language
	Sitemaps  []*models.Sitemap
}

// DefaultCapabilities is the capability set granted to the setup actor.
func DefaultCapabilities() []string {
	return []string{
		auth.AdministerLanguages,
		auth.AccessAdministrationPages,
		auth.AdministerSiteConfiguration,
		auth.AdministerXMLSitemap,
		auth.AccessContent,
	}
}

// DefaultOptions registers French then English and seeds the English and
// French sitemaps, in that order.
func DefaultOptions() Options {
	return Options{
		ActorName:    "sitemap-admin",
		Capabilities: DefaultCapabilities(),
		Languages: []LanguageSpec{
			{Code: "fr", Name: "French"},
			{Code: "en", Name: "English"},
		},
		Contexts: []models.SitemapContext{
			{models.ContextLanguage: "en"},
			{models.ContextLanguage: "fr"},
		},
	}
}

// LanguageContexts builds one language context per language, in order.
func LanguageContexts(languages []LanguageSpec) []models.SitemapContext {
	contexts := make([]models.SitemapContext, 0, len(languages))
	for _, l := range languages {
		contexts = append(contexts, models.SitemapContext{models.ContextLanguage: l.Code})
	}
	return contexts
}

// Setup creates (or reuses, by name) and logs in the actor, ensures every language and replaces
// all sitemaps with opts.Contexts. The first failing step aborts the run.
func Setup(ctx context.Context, deps Deps, opts Options) (*Result, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	actor, err := deps.Accounts.EnsureActor(ctx, opts.ActorName, opts.Capabilities)
	if err != nil {
		return nil, fmt.Errorf("setup: ensure actor: %w", err)
	}

	session, err := deps.Accounts.Login(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("setup: login: %w", err)
	}

	result := &Result{Actor: actor, Session: session}

	if len(opts.Languages) > 0 {
		if err := session.Require(auth.AdministerLanguages); err != nil {
			return nil, fmt.Errorf("setup: ensure languages: %w", err)
		}
	}
	for _, l := range opts.Languages {
		lang, err := deps.Languages.EnsureLanguage(ctx, l.Code, l.Name)
		if err != nil {
			return nil, fmt.Errorf("setup: ensure language %s: %w", l.Code, err)
		}
		result.Languages = append(result.Languages, lang)
	}

	if err := session.Require(auth.AdministerXMLSitemap); err != nil {
		return nil, fmt.Errorf("setup: seed sitemaps: %w", err)
	}
	sitemaps, err := deps.Sitemaps.ResetAndSeed(ctx, opts.Contexts)
	if err != nil {
		return nil, fmt.Errorf("setup: seed sitemaps: %w", err)
	}
	result.Sitemaps = sitemaps

	logger.Info("fixture setup complete",
		zap.String("actor", actor.Name),
		zap.Int("languages", len(result.Languages)),
		zap.Int("sitemaps", len(sitemaps)),
	)
	return result, nil
}
