package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/romangod6/xmlsitemap/internal/api"
	"github.com/romangod6/xmlsitemap/internal/auth"
	"github.com/romangod6/xmlsitemap/internal/fixture"
	"github.com/romangod6/xmlsitemap/internal/sitemap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve sitemap.xml and the admin API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := openEnv(logger)
	if err != nil {
		return err
	}
	defer env.Store.Close()

	session, err := openAdminSession(cmd.Context(), env, cfg.Fixture.ActorName)
	switch {
	case errors.Is(err, auth.ErrUnknownActor):
		logger.Warn("admin API disabled, run setup to create the actor", zap.String("actor", cfg.Fixture.ActorName))
	case err != nil:
		return err
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "admin session token: %s\n", session.Token)
	}

	server := api.NewServer(cfg.Server.Port, env)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Periodic regeneration of sitemap statistics
	go regenerateLoop(ctx, env.Builder, cfg.GetRegenerateInterval())

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server", zap.Int("port", cfg.Server.Port))
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return waitForShutdown(cancel, server, errCh)
}

// openAdminSession logs in the actor created by setup. Its token authorizes
// the admin routes of this process only.
func openAdminSession(ctx context.Context, env *fixture.Env, actorName string) (*auth.Session, error) {
	session, err := env.Accounts.LoginByName(ctx, actorName)
	if err != nil {
		return nil, fmt.Errorf("failed to open admin session: %w", err)
	}

	logger.Info("admin session opened", zap.String("actor", session.Actor.Name))
	return session, nil
}

func regenerateLoop(ctx context.Context, builder *sitemap.Builder, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := builder.GenerateAll(ctx)
			if err != nil {
				logger.Error("sitemap regeneration failed", zap.Int("generated", n), zap.Error(err))
				continue
			}
			logger.Info("sitemaps regenerated", zap.Int("count", n))
		case <-ctx.Done():
			return
		}
	}
}

func waitForShutdown(cancel context.CancelFunc, server *api.Server, errCh <-chan error) error {
	// Handle system signals for shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case <-sigChan:
		logger.Info("shutting down")
	case serveErr = <-errCh:
		logger.Error("API server failed", zap.Error(serveErr))
	}
	cancel()

	// Graceful server shutdown
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("error shutting down server", zap.Error(err))
	}
	logger.Info("server shut down gracefully")
	return serveErr
}
