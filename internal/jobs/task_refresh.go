package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/reelkeep/reelkeep/internal/importer"
	"github.com/reelkeep/reelkeep/internal/repository"
	"github.com/reelkeep/reelkeep/internal/tmdb"
)

type MetadataRefreshHandler struct {
	tmdb      *tmdb.Client
	movieRepo *repository.MovieRepository
}

func NewMetadataRefreshHandler(tmdbClient *tmdb.Client, movieRepo *repository.MovieRepository) *MetadataRefreshHandler {
	return &MetadataRefreshHandler{tmdb: tmdbClient, movieRepo: movieRepo}
}

// ProcessTask re-fetches canonical metadata for movies that have not been
// refreshed recently. Per-movie failures are logged and skipped; TMDB
// occasionally 404s retired records and that must not poison the rest.
func (h *MetadataRefreshHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload MetadataRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if payload.OlderThanDays <= 0 {
		payload.OlderThanDays = 7
	}
	if payload.Limit <= 0 {
		payload.Limit = 100
	}

	movies, err := h.movieRepo.ListStale(payload.OlderThanDays, payload.Limit)
	if err != nil {
		return fmt.Errorf("list stale movies: %w", err)
	}
	if len(movies) == 0 {
		return nil
	}
	log.Printf("Refresh: updating %d stale movies", len(movies))

	refreshed := 0
	for _, m := range movies {
		details, err := h.tmdb.GetDetails(ctx, m.TMDBID)
		if err != nil {
			log.Printf("Refresh: tmdb %d (%s): %v", m.TMDBID, m.Title, err)
			continue
		}
		updated := importer.MovieFromDetails(details)
		updated.ID = m.ID
		if err := h.movieRepo.UpsertByTMDBID(updated); err != nil {
			log.Printf("Refresh: upsert tmdb %d: %v", m.TMDBID, err)
			continue
		}
		refreshed++
	}
	log.Printf("Refresh: %d/%d movies updated", refreshed, len(movies))
	return nil
}
