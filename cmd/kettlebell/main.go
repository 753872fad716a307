package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/kettlebell/internal/config"
	"github.com/claude/kettlebell/internal/cues"
	kbmcp "github.com/claude/kettlebell/internal/mcp"
	"github.com/claude/kettlebell/internal/metrics"
	"github.com/claude/kettlebell/internal/server"
	"github.com/claude/kettlebell/internal/storage"
	"github.com/claude/kettlebell/internal/transfer"
	"github.com/claude/kettlebell/internal/workout"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	log.Info("kettlebell starting", "version", Version, "driver", cfg.Database.Driver)

	// Run migrations
	if err := storage.RunMigrations(cfg.Database.Driver, cfg.Database.MigrateURL()); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Connect database
	loc, err := cfg.Workout.Location()
	if err != nil {
		log.Error("invalid timezone", "error", err)
		os.Exit(1)
	}
	ctx := context.Background()
	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN(), loc)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	if err := db.SeedSettings(ctx); err != nil {
		log.Error("seeding settings failed", "error", err)
		os.Exit(1)
	}
	settings, err := db.LoadSettings(ctx)
	if err != nil {
		log.Error("loading settings failed", "error", err)
		os.Exit(1)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewManager("kettlebell", "", reg)

	// Workout controller
	hub := cues.NewHub(log)
	hub.SetEnabled(settings.SoundEnabled)
	ctrl := workout.New(db, hub, m, log, workout.WithConfig(settings.WorkoutConfig()))
	defer ctrl.Close()
	if err := ctrl.Refresh(ctx); err != nil {
		log.Warn("initial load failed", "error", err)
	}

	// Create server
	imp := transfer.New(db, log, m, false)
	srv := server.New(ctrl, db, hub, imp, m, cfg.Auth.APIKey, log)
	srv.Mount("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv.Mount("/mcp", mcpserver.NewStreamableHTTPServer(kbmcp.New(db, Version, log)))

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port))
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "plain http")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
