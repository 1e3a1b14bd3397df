package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"tailscale.com/tsnet"

	"github.com/meltforce/ironlog/internal/analytics"
	"github.com/meltforce/ironlog/internal/catalog"
	"github.com/meltforce/ironlog/internal/config"
	"github.com/meltforce/ironlog/internal/dashboard"
	"github.com/meltforce/ironlog/internal/history"
	"github.com/meltforce/ironlog/internal/ingest/alpha"
	"github.com/meltforce/ironlog/internal/localstore"
	"github.com/meltforce/ironlog/internal/logging"
	"github.com/meltforce/ironlog/internal/mcp"
	"github.com/meltforce/ironlog/internal/metrics"
	"github.com/meltforce/ironlog/internal/routine"
	"github.com/meltforce/ironlog/internal/server"
	"github.com/meltforce/ironlog/internal/session"
	"github.com/meltforce/ironlog/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, logCloser := logging.Setup(logging.Params{
		Level:    cfg.Logging.Level,
		JSON:     strings.EqualFold(cfg.Logging.Format, "json"),
		FileName: cfg.Logging.File,
		Stdout:   cfg.Logging.Stdout,
	})
	defer logCloser.Close()
	slog.SetDefault(log)

	if err := run(cfg, *migrateOnly, log); err != nil {
		log.Error("ironlog stopped", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, migrateOnly bool, log *slog.Logger) (err error) {
	log.Info("IronLog starting", "version", Version)

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		return err
	}
	log.Info("migrations applied")
	if migrateOnly {
		log.Info("migrate-only: exiting")
		return nil
	}

	ctx := context.Background()
	db, err := storage.New(ctx, dsn, cfg.Database.MaxConns)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer db.Close()
	log.Info("database connected")

	local, err := localstore.Open(cfg.Local.StateDir)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, local.Close()) }()

	reg := metrics.SetupPrometheus(metrics.PoolCollector(db.Pool, cfg.Database.Name))
	m := metrics.NewManager("ironlog", "server", reg)
	m.GaugeLifeSignal.Set(1)

	cache := analytics.NewCache(cfg.Cache.SizeMB, cfg.Cache.TTL, log)
	hist := history.New(db, local, cache.Invalidate, log)
	exercises := catalog.New(db, log)
	routines := routine.New(db, time.Now, log)
	sessions := session.NewRegistry(hist, session.Options{
		Snapshots:   local,
		SaveTimeout: cfg.Session.SaveTimeout,
		Logger:      log,
	})

	srv := server.New(server.Deps{
		Store:     db,
		Sessions:  sessions,
		History:   hist,
		Catalog:   exercises,
		Routines:  routines,
		Dashboard: dashboard.New(local, log),
		Cache:     cache,
		Importer:  alpha.NewProvider(hist, exercises, log),
		Metrics:   m,
		APIKey:    cfg.Auth.APIKey,
		Log:       log,
	})
	srv.Mount("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	mcpServer := mcp.New(&mcp.Local{
		History:  hist,
		Catalog:  exercises,
		Routines: routines,
		Cache:    cache,
		Store:    db,
	}, Version, log)
	srv.MountIdentified("/mcp", mcp.StreamableHandler(mcpServer, server.UserID))

	var listener net.Listener
	if cfg.Tailscale.Enabled {
		ts := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := ts.Start(); err != nil {
			return fmt.Errorf("tsnet start: %w", err)
		}
		defer func() { err = multierr.Append(err, ts.Close()) }()

		lc, err := ts.LocalClient()
		if err != nil {
			return fmt.Errorf("tsnet local client: %w", err)
		}
		srv.SetTailscale(lc)

		listener, err = ts.Listen("tcp", ":80")
		if err != nil {
			return fmt.Errorf("tsnet listen: %w", err)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", "signal", sig)
	case err := <-serveErr:
		return fmt.Errorf("serving: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
