package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"

	"github.com/animecon/program-sync/internal/animecon"
	"github.com/animecon/program-sync/internal/config"
	"github.com/animecon/program-sync/internal/database"
	"github.com/animecon/program-sync/internal/handler"
	"github.com/animecon/program-sync/internal/queue"
	"github.com/animecon/program-sync/internal/repository"
	"github.com/animecon/program-sync/internal/router"
	"github.com/animecon/program-sync/internal/service"
)

func main() {
	// Load .env first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	// nil when Redis is unreachable; every consumer degrades gracefully.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, caching and rate limiting disabled")
	}

	client, err := animecon.NewClient(animecon.Config{
		APIEndpoint: cfg.AnimeConAPIEndpoint,
		Auth: animecon.Credentials{
			AuthEndpoint: cfg.AnimeConAuthEndpoint,
			ClientID:     cfg.AnimeConClientID,
			ClientSecret: cfg.AnimeConClientSecret,
			Username:     cfg.AnimeConUsername,
			Password:     cfg.AnimeConPassword,
			Scopes:       cfg.AnimeConScopes,
		},
	})
	if err != nil {
		log.Fatalf("animecon client: %v", err)
	}

	snapshots := repository.NewSnapshotRepo(db)
	changes := repository.NewChangeRepo(db)
	tokens := repository.NewTokenRepo(db)
	importer := service.NewImporter(cfg, client, snapshots, changes, rdb)

	// Background consumer turns published change events into audit log
	// lines; it reconnects on its own and never stops the server.
	go func() {
		if err := queue.StartProgramConsumer(); err != nil {
			log.Printf("program consumer stopped: %v", err)
		}
	}()

	// Periodic imports on the configured schedule.
	cr := cron.New()
	if _, err := cr.AddFunc(cfg.ImportSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := importer.Run(ctx); err != nil {
			log.Printf("scheduled import failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("invalid IMPORT_SCHEDULE %q: %v", cfg.ImportSchedule, err)
	}
	cr.Start()

	e := echo.New()
	router.Register(e, cfg, rdb,
		handler.NewAuthHandler(cfg, tokens),
		handler.NewProgramHandler(cfg, snapshots, changes, rdb),
		handler.NewAdminHandler(importer))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, festival=%d)", addr, cfg.Env, cfg.FestivalID)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
