// internal/models/sitemap.go
package models

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

	// MaxChunkLinks is the sitemaps.org limit of URLs per document.
	MaxChunkLinks = 50000
)

// SitemapContext discriminates which variant of the sitemap a record produces.
type SitemapContext map[string]string

// Language returns the context's language code, or "" when unset.
func (c SitemapContext) Language() string {
	return c[ContextLanguage]
}

// Canonical renders the context as sorted key=value pairs joined by "&".
func (c SitemapContext) Canonical() string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+c[k])
	}
	return strings.Join(parts, "&")
}

// Hash identifies the context independent of key order.
func (c SitemapContext) Hash() string {
	sum := sha256.Sum256([]byte(c.Canonical()))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Clone returns an independent copy of the context.
func (c SitemapContext) Clone() SitemapContext {
	out := make(SitemapContext, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// NewSitemap creates a sitemap record for context with generated UUID
func NewSitemap(context SitemapContext) *Sitemap {
	ctx := context.Clone()
	return &Sitemap{
		ID:          uuid.New(),
		Context:     ctx,
		ContextHash: ctx.Hash(),
		CreatedAt:   time.Now(),
	}
}

// URLSet represents the structure of an XML sitemap.
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNs   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// URL represents a single URL entry in the sitemap.
type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// SitemapIndex lists the chunk documents of a sitemap too large for one urlset.
type SitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	XMLNs    string       `xml:"xmlns,attr"`
	Sitemaps []IndexEntry `xml:"sitemap"`
}

type IndexEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}
