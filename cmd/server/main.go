package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/alumnihub/gradimport/internal/config"
	"github.com/alumnihub/gradimport/internal/core"
	"github.com/alumnihub/gradimport/internal/logging"
	"github.com/alumnihub/gradimport/internal/store"
	"github.com/alumnihub/gradimport/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present; real environment variables win in production.
	_ = godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	core.MaxFileSize = cfg.Import.MaxFileSize
	core.ImportTimeout = cfg.Import.Timeout

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return err
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	poolCfg.MinConns = int32(cfg.Database.MinConns)
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	st := store.New(pool)
	if err := st.Ping(ctx); err != nil {
		return err
	}
	if err := st.Migrate(ctx); err != nil {
		return err
	}
	slog.Info("database ready")

	defaults := core.DefaultTransformDefaults()
	defaults.AllowEmployerContact = cfg.Import.DefaultAllowEmployerContact
	defaults.JobSearchActive = cfg.Import.DefaultJobSearchActive

	service := core.NewService(st.Courses, st.Graduates, st.Graduates, st.Runs, core.ServiceOptions{
		Defaults:      defaults,
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWait:       cfg.Import.MaxWaitTime,
		RunTimeout:    cfg.Import.Timeout,
	})

	server := web.New(cfg, service, st)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Let in-flight import runs finish writing their summaries before the
	// pool closes.
	if err := service.WaitForImports(shutdownCtx); err != nil {
		slog.Warn("imports still active at shutdown", "error", err)
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("shutdown complete")
	return nil
}
