package main

import (
	"fmt"

	"github.com/romangod6/xmlsitemap/config"
	"github.com/romangod6/xmlsitemap/internal/fixture"
	"github.com/romangod6/xmlsitemap/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the admin actor, register languages and reseed sitemaps",
	Long: `Creates an administrative actor, registers every configured language
(existing languages are left untouched) and replaces all sitemaps with one
sitemap per language, in configuration order.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	runLog, err := utils.NewRunLogger(logger, logsDir, "setup")
	if err != nil {
		return err
	}
	defer runLog.Close()

	env, err := openEnv(runLog.Logger)
	if err != nil {
		return err
	}
	defer env.Store.Close()

	result, err := fixture.Setup(cmd.Context(), env.Deps(), setupOptions(cfg))
	if err != nil {
		runLog.Error("setup failed", zap.Error(err))
		return err
	}

	if _, err := env.Builder.GenerateAll(cmd.Context()); err != nil {
		return fmt.Errorf("failed to generate sitemaps: %w", err)
	}

	for _, sm := range result.Sitemaps {
		fmt.Fprintf(cmd.OutOrStdout(), "sitemap %s  %s\n", sm.ID, sm.Context.Canonical())
	}
	return nil
}

// setupOptions derives fixture options from config, keeping the built-in
// defaults for anything left unset.
func setupOptions(cfg *config.Config) fixture.Options {
	opts := fixture.DefaultOptions()

	if cfg.Fixture.ActorName != "" {
		opts.ActorName = cfg.Fixture.ActorName
	}
	if len(cfg.Fixture.Capabilities) > 0 {
		opts.Capabilities = cfg.Fixture.Capabilities
	}
	if len(cfg.Fixture.Languages) > 0 {
		languages := make([]fixture.LanguageSpec, 0, len(cfg.Fixture.Languages))
		for _, l := range cfg.Fixture.Languages {
			languages = append(languages, fixture.LanguageSpec{Code: l.Code, Name: l.Name})
		}
		opts.Languages = languages
		opts.Contexts = fixture.LanguageContexts(languages)
	}

	return opts
}
