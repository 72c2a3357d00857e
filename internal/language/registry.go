// Package language holds the registry of languages the site publishes in.
package language

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/romangod6/xmlsitemap/internal/models"
	"github.com/romangod6/xmlsitemap/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

var (
	ErrInvalidCode = errors.New("invalid language code")
	ErrNoLanguages = errors.New("no languages registered")
)

type Registry struct {
	store  storage.LanguageStore
	logger *zap.Logger
}

func NewRegistry(store storage.LanguageStore, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{store: store, logger: logger}
}

// Canonicalize validates code as a BCP 47 tag and returns its canonical form.
func Canonicalize(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, models.LanguageNone) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	return tag.String(), nil
}

// EnsureLanguage creates the language when absent. An existing language is
// returned unchanged; its name is never updated.
func (r *Registry) EnsureLanguage(ctx context.Context, code, name string) (*models.Language, error) {
	code, err := Canonicalize(code)
	if err != nil {
		return nil, err
	}

	existing, err := r.store.GetLanguage(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to load language %s: %w", code, err)
	}
	if existing != nil {
		r.logger.Debug("language already registered", zap.String("code", code))
		return existing, nil
	}

	lang := models.NewLanguage(code, name)
	if err := r.store.CreateLanguage(ctx, lang); err != nil {
		return nil, fmt.Errorf("failed to save language %s: %w", code, err)
	}

	r.logger.Info("language registered", zap.String("code", code), zap.String("name", name))
	return lang, nil
}

func (r *Registry) Get(ctx context.Context, code string) (*models.Language, error) {
	code, err := Canonicalize(code)
	if err != nil {
		return nil, err
	}
	return r.store.GetLanguage(ctx, code)
}

func (r *Registry) Exists(ctx context.Context, code string) (bool, error) {
	lang, err := r.Get(ctx, code)
	if err != nil {
		return false, err
	}
	return lang != nil, nil
}

func (r *Registry) List(ctx context.Context) ([]*models.Language, error) {
	return r.store.ListLanguages(ctx)
}

// Match picks the registered language that best serves an Accept-Language
// header. An empty or unparsable header yields the first registered language.
func (r *Registry) Match(ctx context.Context, acceptLanguage string) (string, error) {
	languages, err := r.store.ListLanguages(ctx)
	if err != nil {
		return "", err
	}
	if len(languages) == 0 {
		return "", ErrNoLanguages
	}

	tags := make([]language.Tag, 0, len(languages))
	for _, l := range languages {
		tags = append(tags, language.Make(l.Code))
	}

	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return languages[0].Code, nil
	}

	_, index, confidence := language.NewMatcher(tags).Match(desired...)
	if confidence == language.No {
		return languages[0].Code, nil
	}
	return languages[index].Code, nil
}
