package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/assetsync/internal/adapter/driven/github"
	metricsadapter "github.com/ericfisherdev/assetsync/internal/adapter/driven/metrics"
	sqliteadapter "github.com/ericfisherdev/assetsync/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/assetsync/internal/adapter/driving/http"
	"github.com/ericfisherdev/assetsync/internal/application"
	"github.com/ericfisherdev/assetsync/internal/config"
	"github.com/ericfisherdev/assetsync/internal/domain/model"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"branch", cfg.Branch,
		"staging_dir", cfg.StagingDir,
		"prod_dir", cfg.ProdDir,
		"repos", len(cfg.RepoMap),
		"auto_fetch", cfg.AutoFetch,
		"sweep_interval", cfg.SweepInterval,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the sync history database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	version, err := sqliteadapter.SchemaVersion(db.Writer)
	if err != nil {
		return err
	}
	slog.Info("migrations complete", "schema_version", version)

	// 5. Build the repository catalog.
	catalog := model.NewCatalog(cfg.RepoMap, cfg.LocalMap)
	for _, name := range catalog.Repositories() {
		if _, err := catalog.Lookup(name); err != nil {
			slog.Warn("repository will be rejected until it has a local mapping", "repo", name, "error", err)
		}
	}

	// 6. Wire adapters.
	ghClient, err := githubadapter.NewClient(cfg.GitHubToken, cfg.GitHubUserAgent, cfg.GitHubAPIURL)
	if err != nil {
		return err
	}
	rawClient := githubadapter.NewRawClient(
		&http.Client{Timeout: 2 * time.Minute},
		cfg.GitHubRawURL,
		cfg.GitHubUserAgent,
		cfg.GitHubToken,
	)
	runStore := sqliteadapter.NewSyncRunRepo(db)
	metrics := metricsadapter.NewPrometheus()

	// 7. Create the sync pipeline.
	logger := slog.Default()
	var locks *application.RepoLocks
	if cfg.SerializeRepos {
		locks = application.NewRepoLocks()
	}
	resolver := application.NewResolver(catalog, cfg.Branch, cfg.MaxCompareCommits, logger)
	stager := application.NewStager(rawClient, cfg.StagingDir, cfg.FetchConcurrency, metrics, logger)
	promoter := application.NewPromoter(cfg.StagingDir, cfg.ProdDir, metrics, logger)
	syncSvc := application.NewSyncService(resolver, ghClient, stager, promoter, runStore, metrics, locks, logger)

	// 8. Start the sweep scheduler (startup, periodic and on-demand sweeps).
	scheduler := application.NewSweepScheduler(syncSvc, cfg.SweepInterval, cfg.AutoFetch, logger)
	go scheduler.Start(ctx)

	// 9. Create HTTP handler and register routes.
	apiHandler := httphandler.NewHandler(
		application.NewSignatureVerifier(cfg.WebhookSecret),
		application.NewBearerVerifier(cfg.CompareBearer),
		syncSvc,
		scheduler,
		runStore,
		metrics.Handler(),
		logger,
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Triggers answer after the pass completes.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("assetsync started",
		"listen_addr", cfg.ListenAddr,
		"tracked_ref", resolver.TrackedRef(),
		"serialize_repos", cfg.SerializeRepos,
	)

	// 10. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 11. Graceful shutdown with 10s timeout for in-flight triggers.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
