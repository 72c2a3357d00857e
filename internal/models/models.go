package models

import (
	"time"

	"github.com/google/uuid"
)

// LanguageNone marks a link that belongs in every language's sitemap.
const LanguageNone = "und"

// ContextLanguage is the sitemap context key holding the language code.
const ContextLanguage = "language"

type Language struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Sitemap struct {
	ID          uuid.UUID      `json:"id"`
	Context     SitemapContext `json:"context"`
	ContextHash string         `json:"context_hash"`
	Links       int            `json:"links"`
	Chunks      int            `json:"chunks"`
	Updated     *time.Time     `json:"updated,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

type Link struct {
	ID         uuid.UUID  `json:"id"`
	Type       string     `json:"type"`
	Loc        string     `json:"loc"`
	Language   string     `json:"language"`
	LastMod    *time.Time `json:"lastmod,omitempty"`
	ChangeFreq int        `json:"changefreq"`
	Priority   float64    `json:"priority"`
	Status     bool       `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type Actor struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Capabilities []string  `json:"capabilities"`
	CreatedAt    time.Time `json:"created_at"`
}
