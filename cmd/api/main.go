package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"convivio/api/internal/app"
	"convivio/api/internal/config"
	"convivio/api/internal/export"
	"convivio/api/internal/labels"
	"convivio/api/internal/menu"
	"convivio/api/internal/menurepo"
	"convivio/api/internal/notify"
	"convivio/api/internal/schedule"
	"convivio/api/internal/search"
	"convivio/api/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	if err := os.MkdirAll(cfg.MenuReposDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("failed to create menu repos dir")
	}

	dataStore := store.NewPostgresStore(db)
	menuRepos := menurepo.New(cfg.MenuReposDir)
	menuGen := menu.NewGenerator(cfg.MenuAIURL, cfg.MenuAIKey)
	exporter := export.NewService()

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient, pgfts)
	if meiliClient != nil {
		defer meiliClient.Close()
		go searchService.ReindexAllFromPG(ctx)
	}

	var scheduler *schedule.Scheduler
	if strings.TrimSpace(cfg.RedisURL) != "" {
		registry, err := notify.NewRedisRegistry(cfg.RedisURL, cfg.ReminderGrace)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer registry.Close()
		scheduler = schedule.NewScheduler(registry, cfg.PostEventAfter)
	} else {
		log.Warn().Msg("REDIS_URL not set, wine reminders disabled")
	}

	var labelStore *labels.Store
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		labelStore, err = labels.New(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatal().Err(err).Msg("minio connection failed")
		}
	} else {
		log.Warn().Msg("MINIO_ENDPOINT not set, label uploads disabled")
	}

	service := app.New(cfg, dataStore, scheduler, menuRepos, menuGen, searchService, labelStore, exporter)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("Convivio API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
