// internal/crawler/parser.go
package crawler

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ParsedPage holds the sitemap-relevant facts extracted from an HTML page.
type ParsedPage struct {
	Title        string
	Language     string
	Canonical    string
	Alternates   map[string]string // hreflang -> href
	LastModified *time.Time
	NoIndex      bool
}

var lastModifiedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParsePage parses raw HTML and extracts language, canonical URL, hreflang
// alternates, modification time and robots directives.
func ParsePage(content []byte) (*ParsedPage, error) {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	parsed := &ParsedPage{
		Alternates: make(map[string]string),
	}

	parsed.Title = strings.TrimSpace(doc.Find("title").First().Text())

	parsed.Language = strings.TrimSpace(doc.Find("html").First().AttrOr("lang", ""))
	if parsed.Language == "" {
		doc.Find("meta[http-equiv]").Each(func(i int, s *goquery.Selection) {
			if strings.EqualFold(s.AttrOr("http-equiv", ""), "content-language") {
				parsed.Language = strings.TrimSpace(s.AttrOr("content", ""))
			}
		})
	}

	parsed.Canonical = strings.TrimSpace(doc.Find("link[rel='canonical']").First().AttrOr("href", ""))

	doc.Find("link[rel='alternate'][hreflang]").Each(func(i int, s *goquery.Selection) {
		hreflang := strings.TrimSpace(s.AttrOr("hreflang", ""))
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if hreflang != "" && href != "" {
			parsed.Alternates[hreflang] = href
		}
	})

	doc.Find("meta[name='last-modified'], meta[property='article:modified_time']").Each(func(i int, s *goquery.Selection) {
		if parsed.LastModified != nil {
			return
		}
		if t, ok := parseLastModified(s.AttrOr("content", "")); ok {
			parsed.LastModified = &t
		}
	})

	doc.Find("meta[name='robots']").Each(func(i int, s *goquery.Selection) {
		if strings.Contains(strings.ToLower(s.AttrOr("content", "")), "noindex") {
			parsed.NoIndex = true
		}
	})

	return parsed, nil
}

func parseLastModified(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range lastModifiedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
