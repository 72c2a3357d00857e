package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/romangod6/xmlsitemap/internal/language"
	"github.com/romangod6/xmlsitemap/internal/models"
	"github.com/romangod6/xmlsitemap/internal/storage"
	"go.uber.org/zap"
)

type CrawlerConfig struct {
	UserAgent      string
	MaxDepth       int
	AllowedDomains []string
	Parallelism    int
	Delay          time.Duration
	LinkType       string
}

// LanguageLookup resolves a language code against the registry; nil means
// the language is not registered.
type LanguageLookup interface {
	Get(ctx context.Context, code string) (*models.Language, error)
}

type Crawler struct {
	store     storage.LinkStore
	languages LanguageLookup
	config    *CrawlerConfig
	logger    *zap.Logger
}

func NewCrawler(store storage.LinkStore, languages LanguageLookup, config *CrawlerConfig, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{
		store:     store,
		languages: languages,
		config:    config,
		logger:    logger,
	}
}

// Crawl walks pages reachable from startURL and saves one link per page in
// the page's language. Pages in unregistered languages are stored as
// language-neutral; pages marked noindex are stored disabled.
func (c *Crawler) Crawl(ctx context.Context, startURL string) ([]*models.Link, error) {
	start, err := url.Parse(startURL)
	if err != nil || !start.IsAbs() {
		return nil, fmt.Errorf("invalid start URL %q", startURL)
	}

	domains := c.config.AllowedDomains
	if len(domains) == 0 {
		domains = []string{start.Hostname()}
	}

	options := []colly.CollectorOption{
		colly.AllowedDomains(domains...),
		colly.MaxDepth(c.config.MaxDepth),
	}
	if c.config.UserAgent != "" {
		options = append(options, colly.UserAgent(c.config.UserAgent))
	}
	collector := colly.NewCollector(options...)

	parallelism := c.config.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: parallelism,
		RandomDelay: c.config.Delay,
	})

	var (
		mu    sync.Mutex
		links []*models.Link
	)

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		page, err := ParsePage(e.Response.Body)
		if err != nil {
			c.logger.Warn("failed to parse page", zap.String("url", e.Request.URL.String()), zap.Error(err))
			return
		}

		link := c.linkFor(ctx, e, page)
		if err := c.store.SaveLink(ctx, link); err != nil {
			c.logger.Error("failed to save link", zap.String("loc", link.Loc), zap.Error(err))
			return
		}

		c.logger.Debug("link saved", zap.String("loc", link.Loc), zap.String("language", link.Language))
		mu.Lock()
		links = append(links, link)
		mu.Unlock()

		for _, href := range page.Alternates {
			e.Request.Visit(href)
		}
	})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		e.Request.Visit(e.Attr("href"))
	})

	collector.OnError(func(r *colly.Response, err error) {
		c.logger.Warn("request failed", zap.String("url", r.Request.URL.String()), zap.Error(err))
	})

	if err := collector.Visit(start.String()); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", startURL, err)
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return links, err
	}

	c.logger.Info("crawl finished", zap.String("start", startURL), zap.Int("links", len(links)))
	return links, nil
}

func (c *Crawler) linkFor(ctx context.Context, e *colly.HTMLElement, page *ParsedPage) *models.Link {
	loc := e.Request.URL.String()
	if page.Canonical != "" {
		if abs := e.Request.AbsoluteURL(page.Canonical); abs != "" {
			loc = abs
		}
	}

	link := models.NewLink(loc, c.resolveLanguage(ctx, page.Language))
	if c.config.LinkType != "" {
		link.Type = c.config.LinkType
	} else {
		link.Type = "page"
	}
	link.Status = !page.NoIndex

	link.LastMod = page.LastModified
	if link.LastMod == nil {
		if header := e.Response.Headers.Get("Last-Modified"); header != "" {
			if t, err := http.ParseTime(header); err == nil {
				t = t.UTC()
				link.LastMod = &t
			}
		}
	}

	return link
}

func (c *Crawler) resolveLanguage(ctx context.Context, code string) string {
	if code == "" || c.languages == nil {
		return models.LanguageNone
	}

	canonical, err := language.Canonicalize(code)
	if err != nil {
		return models.LanguageNone
	}

	// "fr-CA" falls back to "fr" when only the base language is registered.
	candidates := []string{canonical}
	if base, _, found := strings.Cut(canonical, "-"); found {
		candidates = append(candidates, base)
	}

	for _, candidate := range candidates {
		lang, err := c.languages.Get(ctx, candidate)
		if err == nil && lang != nil {
			return lang.Code
		}
	}
	return models.LanguageNone
}
