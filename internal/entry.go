// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/snlxnet/bridge/internal/history"
	"github.com/snlxnet/bridge/internal/idgen"
	"github.com/snlxnet/bridge/internal/mcpserver"
	"github.com/snlxnet/bridge/internal/notify"
	"github.com/snlxnet/bridge/internal/preview"
	"github.com/snlxnet/bridge/internal/publish"
	"github.com/snlxnet/bridge/internal/render"
	"github.com/snlxnet/bridge/internal/sink"
	"github.com/snlxnet/bridge/internal/vault"
)

func setup(opts []Option) (*application, *slog.Logger, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if app.notifier == nil {
		app.notifier = &notify.Log{Logger: logger}
	}

	return app, logger, nil
}

func buildPipeline(app *application, logger *slog.Logger) (*publish.Pipeline, func(), error) {
	cfg := app.config
	store, err := vault.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init vault: %w", err)
	}

	var db *history.DB
	cleanup := func() {}
	if cfg.History.Path != "" {
		db, err = history.Open(cfg.History.Path)
		if err != nil {
			logger.Warn("history disabled", slog.String("error", err.Error()))
		} else {
			cleanup = func() { db.Close() }
		}
	}

	p := &publish.Pipeline{
		Store:       store,
		Gen:         idgen.UUID{},
		Renderer:    render.New(cfg.Site.Stylesheet, cfg.Site.SourceURL),
		Site:        sink.NewGitHub(cfg.Site.Repo, cfg.Site.Branch, cfg.Site.Token),
		Blob:        sink.NewBlobStore(cfg.Store.URL, cfg.Store.Secret),
		BlobBaseURL: cfg.Store.ResolveURL(),
		Notifier:    app.notifier,
		History:     db,
		Logger:      logger,
	}
	return p, cleanup, nil
}

// RunPublish executes one full publish run.
func RunPublish(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger.Info("publishing",
		slog.String("vault", cfg.Vault.Path),
		slog.String("repo", cfg.Site.Repo),
		slog.String("branch", cfg.Site.Branch))

	p, cleanup, err := buildPipeline(app, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := p.Run(ctx); err != nil {
		return fmt.Errorf("publish run: %w", err)
	}
	logger.Info("publish complete")
	return nil
}

// RunPreview serves the rendered public site locally with live reload
// until interrupted.
func RunPreview(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	store, err := vault.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init vault: %w", err)
	}

	srv := preview.New(store, cfg.Vault.Path,
		render.New(cfg.Site.Stylesheet, cfg.Site.SourceURL), logger)
	defer srv.Close()

	if err := srv.Rebuild(ctx); err != nil {
		return fmt.Errorf("initial render: %w", err)
	}

	httpServer := &http.Server{
		Addr:    cfg.Preview.Address(),
		Handler: srv.Router(),
	}

	logger.Info("preview starting", slog.String("address", cfg.Preview.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Watch(gCtx)
	})

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("preview error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("preview stopped")
	return nil
}

// RunHistory prints the most recent publish runs.
func RunHistory(ctx context.Context, limit int, opts ...Option) error {
	app, _, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	if cfg.History.Path == "" {
		return fmt.Errorf("history is disabled (no history.path configured)")
	}
	db, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.Recent(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no publish runs recorded")
		return nil
	}
	for _, r := range runs {
		status := "ok"
		if !r.SiteOK || !r.StoreOK {
			status = "failed"
		}
		fmt.Printf("#%d  %s  %s  public %d+%d  secret %d+%d",
			r.ID, r.StartedAt.Format(time.RFC3339), status,
			r.PublicNotes, r.PublicAssets, r.SecretNotes, r.SecretAssets)
		if r.Detail != "" {
			fmt.Printf("  (%s)", r.Detail)
		}
		fmt.Println()
	}
	return nil
}

// RunUpgrade calls the blob store upgrade endpoint and prints its status.
func RunUpgrade(ctx context.Context, opts ...Option) error {
	app, _, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	status, err := sink.NewBlobStore(cfg.Store.URL, cfg.Store.Secret).Upgrade(ctx)
	if err != nil {
		return err
	}
	fmt.Println(status)
	return nil
}

// RunMCP serves publish tools over MCP stdio until the client hangs up.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	p, cleanup, err := buildPipeline(app, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	s := mcpserver.New(p.Store, p, p.History)
	return s.ServeStdio()
}
