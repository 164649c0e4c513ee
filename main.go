package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"eve-wayfinder/internal/api"
	"eve-wayfinder/internal/catalog"
	"eve-wayfinder/internal/config"
	"eve-wayfinder/internal/db"
	"eve-wayfinder/internal/engine"
	"eve-wayfinder/internal/esi"
	"eve-wayfinder/internal/logger"
)

var version = "dev"

func main() {
	port := flag.Int("port", 0, "HTTP server port (overrides WAYFINDER_PORT)")
	flag.Parse()

	logger.Banner(version)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Config", fmt.Sprintf("Invalid configuration: %v", err))
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		wd, _ := os.Getwd()
		dataDir = filepath.Join(wd, "data")
	}

	// Open SQLite database
	database, err := db.Open(dataDir)
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
		os.Exit(1)
	}
	defer database.Close()

	// Overlay stored settings, drop expired cached routes
	database.LoadConfig(cfg)
	if n := database.PruneRoutes(); n > 0 {
		logger.Info("DB", fmt.Sprintf("Pruned %d expired cached routes", n))
	}

	esiClient := esi.NewClient(cfg.ESIBaseURL, cfg.UserAgent, database)
	cat := catalog.New(dataDir, cfg.CatalogURL, cfg.CatalogPath, cfg.UserAgent)
	planner := engine.NewPlanner(cat, esiClient)

	srv := api.NewServer(cfg, cat, esiClient, database, planner)

	// Load the system catalog in background; planning degrades to
	// map-only until it lands.
	go func() {
		ctx := context.Background()
		if err := cat.Ensure(ctx); err != nil {
			logger.Error("Catalog", fmt.Sprintf("Load failed: %v", err))
			return
		}
		logger.Success("Catalog", fmt.Sprintf("%d systems indexed", cat.Len()))
		srv.RefreshTracked(ctx)
	}()

	addr := cfg.Addr()
	logger.Server(addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Error("Server", fmt.Sprintf("Failed: %v", err))
		os.Exit(1)
	}
}
