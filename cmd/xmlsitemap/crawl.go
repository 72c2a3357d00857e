package main

import (
	"fmt"

	"github.com/romangod6/xmlsitemap/internal/crawler"
	"github.com/romangod6/xmlsitemap/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [start-url]",
	Short: "Discover site pages and store them as sitemap links",
	Long: `Walks pages reachable from start-url, records each page in the
language declared by its <html lang> attribute and regenerates every
sitemap afterwards.

Example:
  xmlsitemap crawl https://example.com/`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawl,
}

func runCrawl(cmd *cobra.Command, args []string) error {
	runLog, err := utils.NewRunLogger(logger, logsDir, "crawl")
	if err != nil {
		return err
	}
	defer runLog.Close()

	env, err := openEnv(runLog.Logger)
	if err != nil {
		return err
	}
	defer env.Store.Close()

	runLog.Info("starting crawl",
		zap.String("start", args[0]),
		zap.Int("max_depth", cfg.Crawler.MaxDepth),
		zap.Strings("allowed_domains", cfg.Crawler.AllowedDomains),
	)

	c := crawler.NewCrawler(env.Store, env.Languages, &crawler.CrawlerConfig{
		UserAgent:      cfg.Crawler.UserAgent,
		MaxDepth:       cfg.Crawler.MaxDepth,
		AllowedDomains: cfg.Crawler.AllowedDomains,
		Parallelism:    cfg.Crawler.Parallelism,
		Delay:          cfg.GetCrawlDelay(),
	}, runLog.Named("crawler"))

	links, err := c.Crawl(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	n, err := env.Builder.GenerateAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to generate sitemaps: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d links saved, %d sitemaps regenerated\n", len(links), n)
	return nil
}
