// Package main is the entry point for the Cielo Roto diorama server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/MRamiBalles/CieloRoto/server/internal/data"
	"github.com/MRamiBalles/CieloRoto/server/internal/engine"
	"github.com/MRamiBalles/CieloRoto/server/internal/events"
	"github.com/MRamiBalles/CieloRoto/server/internal/feeds"
	"github.com/MRamiBalles/CieloRoto/server/internal/fx"
	"github.com/MRamiBalles/CieloRoto/server/internal/infra/storage"
	"github.com/MRamiBalles/CieloRoto/server/internal/network"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/config"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/metrics"
	"github.com/MRamiBalles/CieloRoto/server/internal/world"
)

func main() {
	configPath := flag.String("config", "diorama.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Logger is not up yet.
		panic(err)
	}

	appLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(err)
	}
	defer appLogger.Sync()

	appLogger.Info("initializing Cielo Roto diorama server",
		zap.String("config", *configPath),
		zap.String("db", cfg.Server.DBPath),
	)

	db, err := storage.InitSQLite(cfg.Server.DBPath)
	if err != nil {
		appLogger.Error("failed to initialize SQLite", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	journalRepo := storage.NewSQLiteJournalRepository(db)
	saveRepo := storage.NewSQLiteSaveRepository(db)

	bus := events.NewBus(appLogger)
	journal := events.NewJournal(appLogger, storage.NewJournalPersister(journalRepo))
	journal.WireTo(bus)

	worldData := world.New(bus, appLogger)
	locations, err := data.LoadLocations(filepath.Join(cfg.Server.DataDir, "locations.yaml"), appLogger)
	if err != nil {
		appLogger.Error("failed to load locations", zap.Error(err))
		os.Exit(1)
	}
	nations, err := data.LoadNations(filepath.Join(cfg.Server.DataDir, "nations.yaml"), appLogger)
	if err != nil {
		appLogger.Error("failed to load nations", zap.Error(err))
		os.Exit(1)
	}
	worldData.Initialize(locations, nations)

	alienFeed := feeds.New(bus, appLogger, feeds.PerspectiveAlien, cfg.Feeds.Capacity)
	humanFeed := feeds.New(bus, appLogger, feeds.PerspectiveHuman, cfg.Feeds.Capacity)
	weapons := fx.NewManager(bus, appLogger, worldData)

	eng := engine.New(cfg, bus, appLogger, worldData, saveRepo, weapons, alienFeed, humanFeed)
	metrics.Get().WireTo(bus)

	scen, err := data.LoadScenario(cfg.Server.Scenario, appLogger)
	if err != nil {
		appLogger.Error("failed to load scenario", zap.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := network.NewHub(appLogger, eng, journal,
		cfg.Network.ClientSendBuffer, cfg.Network.CatchUpEntries, cfg.Network.TickBroadcastInterval.Duration,
		cfg.Clock.SpeedPresets)
	hub.WireTo(bus)
	go hub.Run(ctx)

	eng.Start(ctx, scen)

	// Resume a previous session if the autosave slot holds one. A missing or
	// corrupt slot just means a fresh start.
	if cfg.Server.AutosaveSlot != "" {
		if eng.Load(ctx, cfg.Server.AutosaveSlot) {
			appLogger.Info("resumed session from autosave", zap.String("slot", cfg.Server.AutosaveSlot))
		}
	}

	// Automated autosave routine
	if cfg.Server.AutosaveEvery.Duration > 0 && cfg.Server.AutosaveSlot != "" {
		go func() {
			ticker := time.NewTicker(cfg.Server.AutosaveEvery.Duration)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					eng.Save(ctx, cfg.Server.AutosaveSlot)
				}
			}
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS(cfg.Network.CommandInterval.Duration, cfg.Network.CommandBurst))
	api := network.NewAPIHandler(journal, eng, worldData, alienFeed, humanFeed, appLogger)
	api.RegisterRoutes(mux)
	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())

	server := &http.Server{
		Addr:    cfg.Server.BindAddress,
		Handler: mux,
	}
	go func() {
		appLogger.Info("HTTP API & WS server listening", zap.String("addr", cfg.Server.BindAddress))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server failed", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")
	eng.Save(context.Background(), cfg.Server.AutosaveSlot)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("shutdown error", zap.Error(err))
	}
}
