package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lawnchairsociety/opendelve/internal/archive"
	"github.com/lawnchairsociety/opendelve/internal/config"
	"github.com/lawnchairsociety/opendelve/internal/logger"
	"github.com/lawnchairsociety/opendelve/internal/server"
)

func main() {
	configFile := flag.String("config", "data/delve.yaml", "Path to delve config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	addr := flag.String("addr", ":4443", "WebSocket listen address")
	seed := flag.Int64("seed", 0, "Dungeon seed (default: config value, 0 picks one from the clock)")
	flag.Parse()

	// Initialize logger first (before any logging)
	logConfig, err := logger.LoadConfig(*loggingConfig)
	if err != nil {
		log.Printf("Failed to load logging config, using defaults: %v", err)
	}
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Info("Starting delved")

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.Warning("Failed to load config, using defaults", "path", *configFile, "error", err)
	}
	random := resolveSeed(cfg, *seed, time.Now)
	logger.Info("Dungeon seed selected", "seed", cfg.Seed, "random", random)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if len(cfg.WebSocket.AllowedOrigins) == 0 {
		logger.Info("WebSocket CORS policy", "mode", "same-origin")
	} else {
		logger.Info("WebSocket CORS policy", "allowed_origins", cfg.WebSocket.AllowedOrigins)
	}

	srv := server.NewServer(cfg)

	if cfg.Archive.Enabled {
		a, err := archive.OpenWithConfig(archiveConfig(cfg.Archive))
		if err != nil {
			log.Fatalf("Failed to open level archive: %v", err)
		}
		defer a.Close()
		srv.SetArchive(a)
		logger.Info("Level archive opened", "driver", a.Dialect().DriverName())
	}

	go func() {
		if err := srv.Start(*addr); err != nil {
			log.Fatalf("WebSocket server error: %v", err)
		}
	}()

	logger.Info("delved running", "address", *addr, "radius", cfg.Vision.Radius)
	logger.Info("Press Ctrl+C to shutdown")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown did not complete cleanly", "error", err)
	}
	logger.Info("Server stopped")
}

// archiveConfig maps the YAML archive section onto archive.Config.
// resolveSeed applies the -seed flag over the config and falls back to the
// clock when neither sets one. It reports whether the seed was picked.
func resolveSeed(cfg *config.Config, flagSeed int64, now func() time.Time) bool {
	if flagSeed != 0 {
		cfg.Seed = flagSeed
	}
	if cfg.Seed != 0 {
		return false
	}
	cfg.Seed = now().UnixNano()
	return true
}

func archiveConfig(c config.ArchiveConfig) archive.Config {
	if c.Driver != "postgres" {
		return archive.DefaultConfig(c.SQLitePath)
	}

	pg := archive.DefaultPostgresConfig()
	pg.Host = c.Postgres.Host
	pg.Port = c.Postgres.Port
	pg.User = c.Postgres.User
	pg.Password = c.Postgres.Password
	pg.Database = c.Postgres.Database
	if c.Postgres.SSLMode != "" {
		pg.SSLMode = c.Postgres.SSLMode
	}
	return archive.Config{Driver: "postgres", Postgres: pg}
}
