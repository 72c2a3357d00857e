package main

import (
	"fmt"
	"os"

	"github.com/romangod6/xmlsitemap/config"
	"github.com/romangod6/xmlsitemap/internal/fixture"
	"github.com/romangod6/xmlsitemap/internal/sitemap"
	"github.com/romangod6/xmlsitemap/internal/storage"
	"github.com/romangod6/xmlsitemap/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	configPath string
	verbose    bool
	logsDir    string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "xmlsitemap",
	Short: "Multilingual XML sitemap service",
	Long: `xmlsitemap keeps a registry of site languages, one sitemap per
language context and the links each sitemap publishes.

Run "xmlsitemap setup" once to seed the languages and sitemaps, then
"xmlsitemap serve" to publish them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err = utils.NewLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "directory containing config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logsDir, "logs-dir", "logs", "directory for per-run log files")

	rootCmd.AddCommand(serveCmd, setupCmd, crawlCmd)
}

// openEnv opens the configured store and wires every service over it.
func openEnv(log *zap.Logger) (*fixture.Env, error) {
	store, err := storage.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return fixture.NewEnv(store, sitemap.BuilderConfig{
		BaseURL:         cfg.Sitemap.BaseURL,
		DefaultLanguage: cfg.Sitemap.DefaultLanguage,
	}, log), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
