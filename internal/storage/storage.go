package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/romangod6/xmlsitemap/internal/models"
)

// ErrDuplicate is returned when an insert collides with an existing key.
var ErrDuplicate = errors.New("storage: duplicate key")

// Getters return nil, nil when the record does not exist.

type LanguageStore interface {
	GetLanguage(ctx context.Context, code string) (*models.Language, error)
	CreateLanguage(ctx context.Context, language *models.Language) error
	ListLanguages(ctx context.Context) ([]*models.Language, error)
}

type SitemapStore interface {
	ListSitemaps(ctx context.Context) ([]*models.Sitemap, error)
	GetSitemap(ctx context.Context, id uuid.UUID) (*models.Sitemap, error)
	GetSitemapByContext(ctx context.Context, contextHash string) (*models.Sitemap, error)
	UpdateSitemap(ctx context.Context, sitemap *models.Sitemap) error
	DeleteSitemap(ctx context.Context, id uuid.UUID) error

	// ReplaceSitemaps deletes every sitemap and inserts sitemaps in order,
	// in a single transaction.
	ReplaceSitemaps(ctx context.Context, sitemaps []*models.Sitemap) error
}

type LinkStore interface {
	// SaveLink inserts or updates the link keyed by (loc, language).
	SaveLink(ctx context.Context, link *models.Link) error
	// ListLinks returns enabled links in language plus language-neutral
	// links, ordered by loc.
	ListLinks(ctx context.Context, language string) ([]*models.Link, error)
}

type ActorStore interface {
	CreateActor(ctx context.Context, actor *models.Actor) error
	GetActor(ctx context.Context, id uuid.UUID) (*models.Actor, error)
	// GetActorByName returns the most recently created actor with name.
	GetActorByName(ctx context.Context, name string) (*models.Actor, error)
	UpdateActorCapabilities(ctx context.Context, actor *models.Actor) error
}

type Store interface {
	Initialize() error
	Close() error

	LanguageStore
	SitemapStore
	LinkStore
	ActorStore
}

// Open connects to the configured driver ("sqlite" or "postgres") and
// creates the schema.
func Open(driver, url string) (Store, error) {
	var store Store
	var err error

	switch driver {
	case "sqlite", "sqlite3", "":
		store, err = NewSQLiteStore(url)
	case "postgres", "postgresql":
		store, err = NewPostgresStore(url)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Initialize(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}

	return store, nil
}
