// Command cowclash connects the database gateway, syncs the configured kits
// into it and serves the admin HTTP routes until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/koustreak/cowclash/internal/admin"
	"github.com/koustreak/cowclash/internal/config"
	"github.com/koustreak/cowclash/internal/database"
	"github.com/koustreak/cowclash/internal/database/drivers"
	"github.com/koustreak/cowclash/internal/kit"
	"github.com/koustreak/cowclash/internal/logger"
)

func main() {
	configPath := flag.String("config", "cowclash.yaml", "Path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "cowclash: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(&cfg.Logging)
	log.InfoWith("starting cowclash", map[string]interface{}{"config": cfg.String()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := drivers.Connect(ctx, cfg.Database, database.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() {
		if err := gw.Disconnect(); err != nil {
			log.ErrorWith("disconnect failed", err, nil)
		}
	}()

	repo, err := kit.NewRepository(gw,
		kit.WithCacheSize(cfg.Kits.CacheSize),
		kit.WithRepoLogger(log),
	)
	if err != nil {
		return err
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("create kits table: %w", err)
	}
	if err := syncKits(ctx, cfg.Kits, repo, log); err != nil {
		return fmt.Errorf("sync kits: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Admin.Addr,
		Handler:           admin.NewRouter(gw, repo, log, cfg.Admin.RequestTimeout),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("admin listening on %s", cfg.Admin.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("admin server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Admin.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorWith("admin shutdown failed", err, nil)
	}
	log.Info("cowclash stopped")
	return nil
}
