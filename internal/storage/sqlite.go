package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/romangod6/xmlsitemap/internal/models"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens dbPath. ":memory:" gives a private database per store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS languages (
            code TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS sitemaps (
            id TEXT PRIMARY KEY,
            context TEXT NOT NULL,
            context_hash TEXT UNIQUE NOT NULL,
            links INTEGER NOT NULL DEFAULT 0,
            chunks INTEGER NOT NULL DEFAULT 0,
            updated DATETIME,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS links (
            id TEXT PRIMARY KEY,
            type TEXT NOT NULL,
            loc TEXT NOT NULL,
            language TEXT NOT NULL,
            lastmod DATETIME,
            changefreq INTEGER NOT NULL DEFAULT 0,
            priority REAL NOT NULL DEFAULT 0.5,
            status BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            UNIQUE(loc, language)
        )`,
		`CREATE TABLE IF NOT EXISTS actors (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            capabilities TEXT NOT NULL,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
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

func (s *SQLiteStore) GetLanguage(ctx context.Context, code string) (*models.Language, error) {
	query := `SELECT code, name, created_at FROM languages WHERE code = ?`

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

func (s *SQLiteStore) CreateLanguage(ctx context.Context, language *models.Language) error {
	query := `INSERT INTO languages (code, name, created_at) VALUES (?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query, language.Code, language.Name, language.CreatedAt)
	return sqliteError(err)
}

func (s *SQLiteStore) ListLanguages(ctx context.Context) ([]*models.Language, error) {
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

const sqliteSitemapColumns = `id, context, context_hash, links, chunks, updated, created_at`

func (s *SQLiteStore) ListSitemaps(ctx context.Context) ([]*models.Sitemap, error) {
	query := `SELECT ` + sqliteSitemapColumns + ` FROM sitemaps ORDER BY rowid`

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

func (s *SQLiteStore) GetSitemap(ctx context.Context, id uuid.UUID) (*models.Sitemap, error) {
	query := `SELECT ` + sqliteSitemapColumns + ` FROM sitemaps WHERE id = ?`
	return nilIfNoRows(scanSitemap(s.db.QueryRowContext(ctx, query, id.String())))
}

func (s *SQLiteStore) GetSitemapByContext(ctx context.Context, contextHash string) (*models.Sitemap, error) {
	query := `SELECT ` + sqliteSitemapColumns + ` FROM sitemaps WHERE context_hash = ?`
	return nilIfNoRows(scanSitemap(s.db.QueryRowContext(ctx, query, contextHash)))
}

func (s *SQLiteStore) UpdateSitemap(ctx context.Context, sitemap *models.Sitemap) error {
	query := `
        UPDATE sitemaps SET links = ?, chunks = ?, updated = ?
        WHERE id = ?
    `

	_, err := s.db.ExecContext(ctx, query,
		sitemap.Links,
		sitemap.Chunks,
		sitemap.Updated,
		sitemap.ID.String(),
	)

	return err
}

func (s *SQLiteStore) DeleteSitemap(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sitemaps WHERE id = ?`, id.String())
	return err
}

func (s *SQLiteStore) ReplaceSitemaps(ctx context.Context, sitemaps []*models.Sitemap) error {
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
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `

	for _, sitemap := range sitemaps {
		contextJSON, err := json.Marshal(sitemap.Context)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, query,
			sitemap.ID.String(),
			string(contextJSON),
			sitemap.ContextHash,
			sitemap.Links,
			sitemap.Chunks,
			sitemap.Updated,
			sitemap.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create sitemap %s: %w", sitemap.Context.Canonical(), sqliteError(err))
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) SaveLink(ctx context.Context, link *models.Link) error {
	query := `
        INSERT INTO links (id, type, loc, language, lastmod, changefreq, priority, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(loc, language) DO UPDATE SET
            type = excluded.type,
            lastmod = excluded.lastmod,
            changefreq = excluded.changefreq,
            priority = excluded.priority,
            status = excluded.status,
            updated_at = CURRENT_TIMESTAMP
    `

	_, err := s.db.ExecContext(ctx, query,
		link.ID.String(),
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

func (s *SQLiteStore) ListLinks(ctx context.Context, language string) ([]*models.Link, error) {
	query := `
        SELECT id, type, loc, language, lastmod, changefreq, priority, status, created_at, updated_at
        FROM links
        WHERE status = 1 AND (language = ? OR language = ?)
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

func (s *SQLiteStore) CreateActor(ctx context.Context, actor *models.Actor) error {
	capsJSON, err := json.Marshal(actor.Capabilities)
	if err != nil {
		return err
	}

	query := `INSERT INTO actors (id, name, capabilities, created_at) VALUES (?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		actor.ID.String(),
		actor.Name,
		string(capsJSON),
		actor.CreatedAt,
	)

	return sqliteError(err)
}

func (s *SQLiteStore) GetActor(ctx context.Context, id uuid.UUID) (*models.Actor, error) {
	query := `SELECT id, name, capabilities, created_at FROM actors WHERE id = ?`
	return scanSQLiteActor(s.db.QueryRowContext(ctx, query, id.String()))
}

func (s *SQLiteStore) GetActorByName(ctx context.Context, name string) (*models.Actor, error) {
	query := `SELECT id, name, capabilities, created_at FROM actors
        WHERE name = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`
	return scanSQLiteActor(s.db.QueryRowContext(ctx, query, name))
}

func (s *SQLiteStore) UpdateActorCapabilities(ctx context.Context, actor *models.Actor) error {
	capsJSON, err := json.Marshal(actor.Capabilities)
	if err != nil {
		return err
	}

	query := `UPDATE actors SET capabilities = ? WHERE id = ?`
	_, err = s.db.ExecContext(ctx, query, string(capsJSON), actor.ID.String())
	return err
}

func scanSQLiteActor(row rowScanner) (*models.Actor, error) {
	actor := &models.Actor{}
	var capsJSON string

	err := row.Scan(
		&actor.ID,
		&actor.Name,
		&capsJSON,
		&actor.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(capsJSON), &actor.Capabilities); err != nil {
		return nil, fmt.Errorf("invalid capabilities for actor %s: %w", actor.ID, err)
	}

	return actor, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSitemap(row rowScanner) (*models.Sitemap, error) {
	sitemap := &models.Sitemap{}
	var contextJSON string
	var updated sql.NullTime

	err := row.Scan(
		&sitemap.ID,
		&contextJSON,
		&sitemap.ContextHash,
		&sitemap.Links,
		&sitemap.Chunks,
		&updated,
		&sitemap.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(contextJSON), &sitemap.Context); err != nil {
		return nil, fmt.Errorf("invalid context for sitemap %s: %w", sitemap.ID, err)
	}

	if updated.Valid {
		sitemap.Updated = &updated.Time
	}

	return sitemap, nil
}

func scanLink(row rowScanner) (*models.Link, error) {
	link := &models.Link{}
	var lastmod sql.NullTime

	err := row.Scan(
		&link.ID,
		&link.Type,
		&link.Loc,
		&link.Language,
		&lastmod,
		&link.ChangeFreq,
		&link.Priority,
		&link.Status,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastmod.Valid {
		link.LastMod = &lastmod.Time
	}

	return link, nil
}

func nilIfNoRows(sitemap *models.Sitemap, err error) (*models.Sitemap, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return sitemap, err
}

func sqliteError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
