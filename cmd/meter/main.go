package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"frostmeter/internal/api"
	"frostmeter/internal/capture"
	"frostmeter/internal/config"
	"frostmeter/internal/crypt"
	"frostmeter/internal/gamedata"
	"frostmeter/internal/heartbeat"
	"frostmeter/internal/localstore"
	"frostmeter/internal/meter"
	"frostmeter/internal/region"
	"frostmeter/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	log.Println("📊 ================================")
	log.Println("📊  FROSTMETER - ENCOUNTER TRACKER")
	log.Println("📊 ================================")

	cfg := config.Load()

	tables, err := gamedata.Load()
	if err != nil {
		log.Fatalf("❌ game data tables: %v", err)
	}

	store, err := localstore.Open(cfg.Meter.LocalStorePath)
	if err != nil {
		log.Fatalf("❌ local player store: %v", err)
	}

	repo, err := storage.Open(cfg.Database.Path, config.Version)
	if err != nil {
		log.Fatalf("❌ encounter database: %v", err)
	}
	defer repo.Close()

	listener := meter.NewCommandListener()
	server := api.NewServer(listener, repo, cfg.Server.AllowedOrigins)

	sender := meter.NewSender(server.Hub(), cfg.Meter.LowPerformance)
	handler := meter.NewHandler(tables, crypt.NewXORHandler(nil), store, repo, sender)
	handler.State.Encounter.BossOnlyDamage = cfg.Meter.BossOnlyDamage

	regions := region.NewAccessor(cfg.Meter.RegionPath)
	if r, ok := regions.Get(); ok {
		handler.State.Encounter.Region = r
		log.Printf("🌐 region: %s", r)
	}

	var beats meter.Heartbeater
	if cfg.Heartbeat.URL != "" {
		beats = heartbeat.NewClient(cfg.Heartbeat.URL, store.ClientID(), config.Version, regions.Get)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var source capture.Source
	if cfg.Capture.File != "" {
		source = capture.NewFileSource(cfg.Capture.File)
	} else {
		source = capture.NewLiveSource(cfg.Capture.Device, cfg.Capture.Port)
	}
	frames, err := source.Start(ctx)
	if err != nil {
		log.Fatalf("❌ capture start: %v", err)
	}

	api.StartDebugServer(api.ObservabilityConfig{
		Enabled:    cfg.Server.DebugAddr != "",
		ListenAddr: cfg.Server.DebugAddr,
	})

	go func() {
		if err := server.Start(cfg.Server.Addr); err != nil {
			log.Fatalf("❌ API server: %v", err)
		}
	}()
	defer server.Stop()

	engine := meter.NewEngine(handler, listener, sender, beats)
	if err := engine.Run(ctx, frames); err != nil && err != context.Canceled {
		log.Fatalf("❌ tracking loop: %v", err)
	}
	log.Println("👋 shutdown complete")
}
