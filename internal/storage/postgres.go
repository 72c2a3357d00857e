package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/romangod6/xmlsitemap/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS languages (
            code VARCHAR(35) PRIMARY KEY,
            name VARCHAR(255) NOT NULL,
            created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS sitemaps (
            seq BIGSERIAL,
            id UUID PRIMARY KEY,
            context JSONB NOT NULL,
            context_hash VARCHAR(64) UNIQUE NOT NULL,
            links INTEGER NOT NULL DEFAULT 0,
            chunks INTEGER NOT NULL DEFAULT 0,
            updated TIMESTAMP,
            created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS links (
            id UUID PRIMARY KEY,
            type VARCHAR(32) NOT NULL,
            loc VARCHAR(2048) NOT NULL,
            language VARCHAR(35) NOT NULL,
            lastmod TIMESTAMP,
            changefreq INTEGER NOT NULL DEFAULT 0,
            priority REAL NOT NULL DEFAULT 0.5,
            status BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (loc, language)
        )`,
		`CREATE TABLE IF NOT EXISTS actors (
            id UUID PRIMARY KEY,
            name VARCHAR(255) NOT NULL,
            capabilities TEXT[] NOT NULL,
            created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_links_language ON links(language)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	return nil
}

func (s *PostgresStore) GetLanguage(ctx context.Context, code string) (*models.Language, error) {
	query := `SELECT code, name, created_at FROM languages WHERE code = $1`

	language := &models.Language{}
	err := s.db.QueryRowContext(ctx, query, code).Scan(
		&language.Code,
		&language.Name,
		&language.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return language, nil
}

func (s *PostgresStore) CreateLanguage(ctx context.Context, language *models.Language) error {
	query := `INSERT INTO languages (code, name, created_at) VALUES ($1, $2, $3)`

	_, err := s.db.ExecContext(ctx, query, language.Code, language.Name, language.CreatedAt)
	return postgresError(err)
}

func (s *PostgresStore) ListLanguages(ctx context.Context) ([]*models.Language, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, name, created_at FROM languages ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var languages []*models.Language
	for rows.Next() {
		language := &models.Language{}
		if err := rows.Scan(&language.Code, &language.Name, &language.CreatedAt); err != nil {
			return nil, err
		}
		languages = append(languages, language)
	}

	return languages, rows.Err()
}

const postgresSitemapColumns = `id, context, context_hash, links, chunks, updated, created_at`

func (s *PostgresStore) ListSitemaps(ctx context.Context) ([]*models.Sitemap, error) {
	query := `SELECT ` + postgresSitemapColumns + ` FROM sitemaps ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sitemaps []*models.Sitemap
	for rows.Next() {
		sitemap, err := scanSitemap(rows)
		if err != nil {
			return nil, err
		}
		sitemaps = append(sitemaps, sitemap)
	}

	return sitemaps, rows.Err()
}

func (s *PostgresStore) GetSitemap(ctx context.Context, id uuid.UUID) (*models.Sitemap, error) {
	query := `SELECT ` + postgresSitemapColumns + ` FROM sitemaps WHERE id = $1`
	return nilIfNoRows(scanSitemap(s.db.QueryRowContext(ctx, query, id)))
}

func (s *PostgresStore) GetSitemapByContext(ctx context.Context, contextHash string) (*models.Sitemap, error) {
	query := `SELECT ` + postgresSitemapColumns + ` FROM sitemaps WHERE context_hash = $1`
	return nilIfNoRows(scanSitemap(s.db.QueryRowContext(ctx, query, contextHash)))
}

func (s *PostgresStore) UpdateSitemap(ctx context.Context, sitemap *models.Sitemap) error {
	query := `
        UPDATE sitemaps SET links = $1, chunks = $2, updated = $3
        WHERE id = $4
    `

	_, err := s.db.ExecContext(ctx, query,
		sitemap.Links,
		sitemap.Chunks,
		sitemap.Updated,
		sitemap.ID,
	)

	return err
}

func (s *PostgresStore) DeleteSitemap(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sitemaps WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) ReplaceSitemaps(ctx context.Context, sitemaps []*models.Sitemap) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sitemaps`); err != nil {
		return fmt.Errorf("failed to delete sitemaps: %w", err)
	}

	query := `
        INSERT INTO sitemaps (id, context, context_hash, links, chunks, updated, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `

	for _, sitemap := range sitemaps {
		contextJSON, err := json.Marshal(sitemap.Context)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, query,
			sitemap.ID,
			string(contextJSON),
			sitemap.ContextHash,
			sitemap.Links,
			sitemap.Chunks,
			sitemap.Updated,
			sitemap.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create sitemap %s: %w", sitemap.Context.Canonical(), postgresError(err))
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) SaveLink(ctx context.Context, link *models.Link) error {
	query := `
        INSERT INTO links (id, type, loc, language, lastmod, changefreq, priority, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (loc, language) DO UPDATE SET
            type = EXCLUDED.type,
            lastmod = EXCLUDED.lastmod,
            changefreq = EXCLUDED.changefreq,
            priority = EXCLUDED.priority,
            status = EXCLUDED.status,
            updated_at = CURRENT_TIMESTAMP
    `

	_, err := s.db.ExecContext(ctx, query,
		link.ID,
		link.Type,
		link.Loc,
		link.Language,
		link.LastMod,
		link.ChangeFreq,
		link.Priority,
		link.Status,
		link.CreatedAt,
		link.UpdatedAt,
	)

	return err
}

func (s *PostgresStore) ListLinks(ctx context.Context, language string) ([]*models.Link, error) {
	query := `
        SELECT id, type, loc, language, lastmod, changefreq, priority, status, created_at, updated_at
        FROM links
        WHERE status AND (language = $1 OR language = $2)
        ORDER BY loc, language
    `

	rows, err := s.db.QueryContext(ctx, query, language, models.LanguageNone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*models.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}

	return links, rows.Err()
}

func (s *PostgresStore) CreateActor(ctx context.Context, actor *models.Actor) error {
	query := `INSERT INTO actors (id, name, capabilities, created_at) VALUES ($1, $2, $3, $4)`

	_, err := s.db.ExecContext(ctx, query,
		actor.ID,
		actor.Name,
		pq.Array(actor.Capabilities),
		actor.CreatedAt,
	)

	return postgresError(err)
}

func (s *PostgresStore) GetActor(ctx context.Context, id uuid.UUID) (*models.Actor, error) {
	query := `SELECT id, name, capabilities, created_at FROM actors WHERE id = $1`
	return scanPostgresActor(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) GetActorByName(ctx context.Context, name string) (*models.Actor, error) {
	query := `SELECT id, name, capabilities, created_at FROM actors
        WHERE name = $1 ORDER BY created_at DESC LIMIT 1`
	return scanPostgresActor(s.db.QueryRowContext(ctx, query, name))
}

func (s *PostgresStore) UpdateActorCapabilities(ctx context.Context, actor *models.Actor) error {
	query := `UPDATE actors SET capabilities = $1 WHERE id = $2`
	_, err := s.db.ExecContext(ctx, query, pq.Array(actor.Capabilities), actor.ID)
	return err
}

func scanPostgresActor(row rowScanner) (*models.Actor, error) {
	actor := &models.Actor{}
	var capabilities []string

	err := row.Scan(
		&actor.ID,
		&actor.Name,
		pq.Array(&capabilities),
		&actor.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	actor.Capabilities = capabilities
	return actor, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func postgresError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
