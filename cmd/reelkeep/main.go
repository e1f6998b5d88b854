package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/reelkeep/reelkeep/internal/api"
	"github.com/reelkeep/reelkeep/internal/config"
	"github.com/reelkeep/reelkeep/internal/db"
	"github.com/reelkeep/reelkeep/internal/importer"
	"github.com/reelkeep/reelkeep/internal/jobs"
	"github.com/reelkeep/reelkeep/internal/repository"
	"github.com/reelkeep/reelkeep/internal/scheduler"
	"github.com/reelkeep/reelkeep/internal/tmdb"
)

func main() {
	log.Println("ReelKeep starting...")

	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database, "migrations"); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	cfg.MergeFromDB(database.DB)
	if !cfg.TMDBEnabled() {
		log.Println("TMDB_API_KEY is not set; imports and lookups are disabled")
	}

	cache := tmdb.NewCache(cfg.RedisAddr, time.Duration(cfg.TMDBCacheTTLHours())*time.Hour)
	defer cache.Close()
	tmdbClient := tmdb.NewClient(cfg.TMDBAPIKey(), cache)

	movieRepo := repository.NewMovieRepository(database.DB)
	watchRepo := repository.NewWatchRepository(database.DB)
	tagRepo := repository.NewTagRepository(database.DB)
	importRepo := repository.NewImportRepository(database.DB)
	applier := importer.NewApplier(tmdbClient, movieRepo, watchRepo, tagRepo)

	queue := jobs.NewQueue(cfg.RedisAddr)
	defer queue.Stop()

	srv, err := api.NewServer(cfg, database, queue, tmdbClient, applier)
	if err != nil {
		log.Fatalf("server init failed: %v", err)
	}

	jobs.RegisterHandlers(queue, cfg, tmdbClient, applier, importRepo, movieRepo, srv.WSHub())
	if err := queue.Start(context.Background()); err != nil {
		log.Fatalf("job queue failed: %v", err)
	}

	sched := scheduler.New(srv.UserRepo(), queue)
	if err := sched.Start(); err != nil {
		log.Fatalf("scheduler failed: %v", err)
	}
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
}
