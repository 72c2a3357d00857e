package sitemap

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/romangod6/xmlsitemap/internal/models"
	"github.com/romangod6/xmlsitemap/internal/storage"
	"go.uber.org/zap"
)

// Change frequency thresholds in seconds, smallest first.
var changeFrequencies = []struct {
	seconds int
	name    string
}{
	{60, "always"},
	{3600, "hourly"},
	{86400, "daily"},
	{604800, "weekly"},
	{2419200, "monthly"},
	{31449600, "yearly"},
}

var ErrChunkNotFound = errors.New("sitemap chunk not found")

type BuilderConfig struct {
	BaseURL         string
	DefaultLanguage string
	// ChunkSize caps the URLs per document. Zero means models.MaxChunkLinks.
	ChunkSize int
}

type Builder struct {
	links    storage.LinkStore
	sitemaps storage.SitemapStore
	config   BuilderConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewBuilder(links storage.LinkStore, sitemaps storage.SitemapStore, config BuilderConfig, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.ChunkSize <= 0 || config.ChunkSize > models.MaxChunkLinks {
		config.ChunkSize = models.MaxChunkLinks
	}
	return &Builder{
		links:    links,
		sitemaps: sitemaps,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// Build collects the enabled links for the sitemap's language, plus
// language-neutral links, into a urlset.
func (b *Builder) Build(ctx context.Context, sitemap *models.Sitemap) (*models.URLSet, error) {
	lang := sitemap.Context.Language()

	links, err := b.links.ListLinks(ctx, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to load links for %s: %w", sitemap.Context.Canonical(), err)
	}

	set := &models.URLSet{
		XMLNs: models.SitemapNamespace,
		URLs:  make([]models.URL, 0, len(links)),
	}

	for _, link := range links {
		entry := models.URL{
			Loc:        b.absoluteLoc(link.Loc, lang),
			ChangeFreq: ChangeFreq(link.ChangeFreq),
			Priority:   fmt.Sprintf("%.1f", link.Priority),
		}
		if link.LastMod != nil {
			entry.LastMod = link.LastMod.UTC().Format(time.RFC3339)
		}
		set.URLs = append(set.URLs, entry)
	}

	return set, nil
}

// BuildChunk returns one chunk (1-based) of the sitemap's urlset together
// with the total number of chunks.
func (b *Builder) BuildChunk(ctx context.Context, sitemap *models.Sitemap, chunk int) (*models.URLSet, int, error) {
	set, err := b.Build(ctx, sitemap)
	if err != nil {
		return nil, 0, err
	}

	chunks := b.chunkCount(len(set.URLs))
	if chunk < 1 || chunk > chunks {
		return nil, chunks, fmt.Errorf("%w: %d of %d", ErrChunkNotFound, chunk, chunks)
	}

	start := (chunk - 1) * b.config.ChunkSize
	end := min(start+b.config.ChunkSize, len(set.URLs))
	set.URLs = set.URLs[start:end]

	return set, chunks, nil
}

// BuildIndex lists the chunk documents of a sitemap. loc returns the path or
// URL serving a given chunk.
func (b *Builder) BuildIndex(sitemap *models.Sitemap, chunks int, loc func(chunk int) string) *models.SitemapIndex {
	index := &models.SitemapIndex{
		XMLNs:    models.SitemapNamespace,
		Sitemaps: make([]models.IndexEntry, 0, chunks),
	}

	var lastMod string
	if sitemap.Updated != nil {
		lastMod = sitemap.Updated.UTC().Format(time.RFC3339)
	}

	for i := 1; i <= chunks; i++ {
		index.Sitemaps = append(index.Sitemaps, models.IndexEntry{
			Loc:     b.absoluteLoc(loc(i), ""),
			LastMod: lastMod,
		})
	}

	return index
}

// Generate builds the sitemap and records its link and chunk counts.
func (b *Builder) Generate(ctx context.Context, sitemap *models.Sitemap) (*models.URLSet, error) {
	set, err := b.Build(ctx, sitemap)
	if err != nil {
		return nil, err
	}

	now := b.now()
	sitemap.Links = len(set.URLs)
	sitemap.Chunks = b.chunkCount(sitemap.Links)
	sitemap.Updated = &now

	if err := b.sitemaps.UpdateSitemap(ctx, sitemap); err != nil {
		return nil, fmt.Errorf("failed to update sitemap %s: %w", sitemap.ID, err)
	}

	b.logger.Debug("sitemap generated",
		zap.String("context", sitemap.Context.Canonical()),
		zap.Int("links", sitemap.Links),
	)
	return set, nil
}

// GenerateAll regenerates every stored sitemap, stopping at the first error.
func (b *Builder) GenerateAll(ctx context.Context) (int, error) {
	sitemaps, err := b.sitemaps.ListSitemaps(ctx)
	if err != nil {
		return 0, err
	}

	for i, sitemap := range sitemaps {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := b.Generate(ctx, sitemap); err != nil {
			return i, err
		}
	}

	return len(sitemaps), nil
}

// Write renders set as an XML sitemap document.
func Write(w io.Writer, set *models.URLSet) error {
	if set.XMLNs == "" {
		set.XMLNs = models.SitemapNamespace
	}
	return writeDocument(w, set)
}

// WriteIndex renders index as an XML sitemap index document.
func WriteIndex(w io.Writer, index *models.SitemapIndex) error {
	if index.XMLNs == "" {
		index.XMLNs = models.SitemapNamespace
	}
	return writeDocument(w, index)
}

func writeDocument(w io.Writer, doc any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}

	_, err := io.WriteString(w, "\n")
	return err
}

// ChangeFreq maps an interval in seconds to the smallest sitemaps.org keyword
// whose interval covers it. Non-positive intervals have no keyword.
func ChangeFreq(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	for _, f := range changeFrequencies {
		if seconds <= f.seconds {
			return f.name
		}
	}
	return "never"
}

// absoluteLoc resolves site paths against the base URL, prefixing the
// language for every language except the default one.
func (b *Builder) absoluteLoc(loc, lang string) string {
	if u, err := url.Parse(loc); err == nil && u.IsAbs() {
		return loc
	}

	path := "/" + strings.TrimLeft(loc, "/")
	if lang != "" && lang != models.LanguageNone && lang != b.config.DefaultLanguage {
		path = "/" + lang + path
	}

	return b.config.BaseURL + path
}

// chunkCount is at least one so an empty sitemap still renders a urlset.
func (b *Builder) chunkCount(links int) int {
	chunks := (links + b.config.ChunkSize - 1) / b.config.ChunkSize
	if chunks < 1 {
		return 1
	}
	return chunks
}
