// sitemapcheck fetches a rendered sitemap and checks that every listed page
// declares the expected language.
package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/romangod6/xmlsitemap/internal/crawler"
	"github.com/romangod6/xmlsitemap/internal/models"
	"github.com/spf13/cobra"
)

var (
	expectLanguage string
	samples        int
)

var client = &http.Client{Timeout: 30 * time.Second}

var rootCmd = &cobra.Command{
	Use:          "sitemapcheck [sitemap-url]",
	Short:        "Check that sitemap pages declare the expected language",
	Args:         cobra.ExactArgs(1),
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVarP(&expectLanguage, "language", "l", "", "expected page language (default: Content-Language of the sitemap response)")
	rootCmd.Flags().IntVarP(&samples, "samples", "n", 10, "number of URLs to check, 0 for all")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	set, contentLanguage, err := fetchSitemap(args[0])
	if err != nil {
		return fmt.Errorf("error fetching sitemap: %w", err)
	}

	want := expectLanguage
	if want == "" {
		want = contentLanguage
	}

	fmt.Fprintf(out, "Total URLs found: %d\n", len(set.URLs))

	limit := len(set.URLs)
	if samples > 0 && samples < limit {
		limit = samples
	}

	mismatches := 0
	for i := 0; i < limit; i++ {
		loc := set.URLs[i].Loc
		page, err := fetchPage(loc)
		if err != nil {
			fmt.Fprintf(out, "[%d/%d] %s: error: %v\n", i+1, limit, loc, err)
			mismatches++
			continue
		}

		status := "ok"
		if want != "" && !sameBaseLanguage(page.Language, want) {
			status = fmt.Sprintf("language %q, want %q", page.Language, want)
			mismatches++
		}
		fmt.Fprintf(out, "[%d/%d] %s: %s\n", i+1, limit, loc, status)
	}

	if mismatches > 0 {
		return fmt.Errorf("%d of %d pages failed", mismatches, limit)
	}
	return nil
}

// fetchSitemap returns the URLs of a urlset, following every chunk when the
// document is a sitemap index.
func fetchSitemap(url string) (*models.URLSet, string, error) {
	body, contentLanguage, err := fetch(url)
	if err != nil {
		return nil, "", err
	}

	var index models.SitemapIndex
	if err := xml.Unmarshal(body, &index); err != nil {
		var set models.URLSet
		if err := xml.Unmarshal(body, &set); err != nil {
			return nil, "", err
		}
		return &set, contentLanguage, nil
	}

	all := &models.URLSet{}
	for _, entry := range index.Sitemaps {
		chunk, _, err := fetch(entry.Loc)
		if err != nil {
			return nil, "", fmt.Errorf("chunk %s: %w", entry.Loc, err)
		}
		var set models.URLSet
		if err := xml.Unmarshal(chunk, &set); err != nil {
			return nil, "", fmt.Errorf("chunk %s: %w", entry.Loc, err)
		}
		all.URLs = append(all.URLs, set.URLs...)
	}

	return all, contentLanguage, nil
}

func fetch(url string) ([]byte, string, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Language"), nil
}

func fetchPage(url string) (*crawler.ParsedPage, error) {
	body, _, err := fetch(url)
	if err != nil {
		return nil, err
	}
	return crawler.ParsePage(body)
}

// sameBaseLanguage treats "fr-FR" and "fr" as the same language.
func sameBaseLanguage(got, want string) bool {
	base := func(code string) string {
		code = strings.ToLower(strings.TrimSpace(code))
		b, _, _ := strings.Cut(code, "-")
		return b
	}
	return base(got) == base(want)
}
