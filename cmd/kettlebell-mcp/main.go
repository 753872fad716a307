// Command kettlebell-mcp serves the read-only workout tools over stdio, either
// against a running kettlebell server or directly against its database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/kettlebell/internal/config"
	kbmcp "github.com/claude/kettlebell/internal/mcp"
	"github.com/claude/kettlebell/internal/storage"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "base URL of a running kettlebell server")
	configPath := flag.String("config", "config.yaml", "path to config file, used when -server is empty")
	flag.Parse()

	// stdout carries the protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds kbmcp.DataSource
	if *serverURL != "" {
		ds = kbmcp.NewHTTPClient(*serverURL)
		log.Info("using remote server", "url", *serverURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		loc, err := cfg.Workout.Location()
		if err != nil {
			log.Error("invalid timezone", "error", err)
			os.Exit(1)
		}
		db, err := storage.Open(context.Background(), cfg.Database.Driver, cfg.Database.DSN(), loc)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		ds = db
	}

	if err := server.ServeStdio(kbmcp.New(ds, Version, log)); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
