package jobs

import (
	"github.com/reelkeep/reelkeep/internal/config"
	"github.com/reelkeep/reelkeep/internal/importer"
	"github.com/reelkeep/reelkeep/internal/repository"
	"github.com/reelkeep/reelkeep/internal/tmdb"
)

// ──────── Payloads ────────

type ImportBatchPayload struct {
	BatchID string `json:"batch_id"`
}

type MetadataRefreshPayload struct {
	OlderThanDays int `json:"older_than_days"`
	Limit         int `json:"limit"`
}

// EventNotifier pushes progress events to connected clients. Implemented by
// the API layer's WebSocket hub.
type EventNotifier interface {
	Broadcast(event string, data interface{})
}

// ──────── Register all handlers ────────

func RegisterHandlers(q *Queue, cfg *config.Config, tmdbClient *tmdb.Client,
	applier *importer.Applier, importRepo *repository.ImportRepository,
	movieRepo *repository.MovieRepository, notifier EventNotifier) {

	q.RegisterHandler(TaskImportBatch, NewImportBatchHandler(cfg, tmdbClient, applier, importRepo, notifier))
	q.RegisterHandler(TaskMetadataRefresh, NewMetadataRefreshHandler(tmdbClient, movieRepo))
}
