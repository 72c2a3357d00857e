// Package sitemap keeps one sitemap per context and renders the XML
// document for each.
package sitemap

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/romangod6/xmlsitemap/internal/language"
	"github.com/romangod6/xmlsitemap/internal/models"
	"github.com/romangod6/xmlsitemap/internal/storage"
	"go.uber.org/zap"
)

var (
	ErrUnknownLanguage  = errors.New("sitemap context references an unregistered language")
	ErrDuplicateContext = errors.New("duplicate sitemap context")
)

// LanguageChecker reports whether a language code is registered.
type LanguageChecker interface {
	Exists(ctx context.Context, code string) (bool, error)
}

type ContextStore struct {
	store     storage.SitemapStore
	languages LanguageChecker
	logger    *zap.Logger
}

func NewContextStore(store storage.SitemapStore, languages LanguageChecker, logger *zap.Logger) *ContextStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextStore{store: store, languages: languages, logger: logger}
}

// ResetAndSeed replaces every stored sitemap with one sitemap per context,
// created in the given order. All contexts are validated before anything is
// deleted, and the replace itself is a single transaction.
func (s *ContextStore) ResetAndSeed(ctx context.Context, contexts []models.SitemapContext) ([]*models.Sitemap, error) {
	sitemaps := make([]*models.Sitemap, 0, len(contexts))
	seen := make(map[string]bool, len(contexts))

	for _, c := range contexts {
		normalized, err := s.normalize(ctx, c)
		if err != nil {
			return nil, err
		}

		sitemap := models.NewSitemap(normalized)
		if seen[sitemap.ContextHash] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateContext, normalized.Canonical())
		}
		seen[sitemap.ContextHash] = true
		sitemaps = append(sitemaps, sitemap)
	}

	if err := s.store.ReplaceSitemaps(ctx, sitemaps); err != nil {
		return nil, fmt.Errorf("failed to replace sitemaps: %w", err)
	}

	s.logger.Info("sitemaps reset", zap.Int("count", len(sitemaps)))
	return sitemaps, nil
}

// normalize canonicalizes the language dimension and checks it is registered.
func (s *ContextStore) normalize(ctx context.Context, c models.SitemapContext) (models.SitemapContext, error) {
	out := c.Clone()

	code, ok := c[models.ContextLanguage]
	if !ok {
		return out, nil
	}

	canonical, err := language.Canonicalize(code)
	if err != nil {
		return nil, err
	}

	exists, err := s.languages.Exists(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to check language %s: %w", canonical, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, canonical)
	}

	out[models.ContextLanguage] = canonical
	return out, nil
}

// Get returns the sitemap for context, or nil when none exists.
func (s *ContextStore) Get(ctx context.Context, c models.SitemapContext) (*models.Sitemap, error) {
	lookup := c.Clone()
	if code, ok := lookup[models.ContextLanguage]; ok {
		if canonical, err := language.Canonicalize(code); err == nil {
			lookup[models.ContextLanguage] = canonical
		}
	}
	return s.store.GetSitemapByContext(ctx, lookup.Hash())
}

func (s *ContextStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Sitemap, error) {
	return s.store.GetSitemap(ctx, id)
}

func (s *ContextStore) List(ctx context.Context) ([]*models.Sitemap, error) {
	return s.store.ListSitemaps(ctx)
}
