package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/reelkeep/reelkeep/internal/config"
	"github.com/reelkeep/reelkeep/internal/importer"
	"github.com/reelkeep/reelkeep/internal/match"
	"github.com/reelkeep/reelkeep/internal/models"
	"github.com/reelkeep/reelkeep/internal/repository"
	"github.com/reelkeep/reelkeep/internal/tmdb"
)

// maxCandidates bounds how many search results are scored per row. TMDB
// returns results in relevance order, so the right answer is almost always
// near the top.
const maxCandidates = 5

type ImportBatchHandler struct {
	cfg        *config.Config
	tmdb       *tmdb.Client
	applier    *importer.Applier
	importRepo *repository.ImportRepository
	notifier   EventNotifier
}

func NewImportBatchHandler(cfg *config.Config, tmdbClient *tmdb.Client, applier *importer.Applier,
	importRepo *repository.ImportRepository, notifier EventNotifier) *ImportBatchHandler {
	return &ImportBatchHandler{
		cfg: cfg, tmdb: tmdbClient, applier: applier,
		importRepo: importRepo, notifier: notifier,
	}
}

func (h *ImportBatchHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImportBatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal: %v: %w", err, asynq.SkipRetry)
	}

	batchID, err := uuid.Parse(payload.BatchID)
	if err != nil {
		return fmt.Errorf("parse batch id: %v: %w", err, asynq.SkipRetry)
	}

	// A batch stuck in "running" never clears from the UI, so when this
	// attempt is the last one the batch is marked failed before the error
	// goes back to asynq.
	if err := h.run(ctx, batchID); err != nil {
		if errors.Is(err, asynq.SkipRetry) || lastAttempt(ctx) {
			h.failBatch(batchID)
		}
		return err
	}
	return nil
}

func (h *ImportBatchHandler) run(ctx context.Context, batchID uuid.UUID) error {
	batch, err := h.importRepo.GetBatchAny(batchID)
	if err != nil {
		return fmt.Errorf("get batch: %w", err)
	}

	rows, err := h.importRepo.ListPendingRows(batchID)
	if err != nil {
		return fmt.Errorf("list pending rows: %w", err)
	}

	if err := h.importRepo.SetBatchStatus(batchID, models.BatchRunning); err != nil {
		return fmt.Errorf("set batch running: %w", err)
	}
	log.Printf("Import: processing %d rows in batch %s (%s)", len(rows), batchID, batch.FileName)
	h.broadcast(batch, "running", 0, len(rows))

	// Rows are independent; a small worker pool keeps TMDB round-trips
	// overlapped without hammering the API.
	concurrency := h.cfg.ImportConcurrency()
	if concurrency < 1 {
		concurrency = 1
	}
	var processed int64
	work := make(chan *models.ImportRow)
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for row := range work {
				h.processRow(ctx, batch, row)
				done := atomic.AddInt64(&processed, 1)
				if done%10 == 0 || int(done) == len(rows) {
					h.broadcast(batch, "running", int(done), len(rows))
				}
			}
		}()
	}
	for _, row := range rows {
		work <- row
	}
	close(work)
	wg.Wait()

	if err := h.importRepo.SetBatchStatus(batchID, models.BatchComplete); err != nil {
		return fmt.Errorf("set batch complete: %w", err)
	}
	h.broadcast(batch, "complete", len(rows), len(rows))
	log.Printf("Import: batch %s complete", batchID)
	return nil
}

// lastAttempt reports whether asynq will not retry this task again.
func lastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= maxRetry
}

func (h *ImportBatchHandler) failBatch(batchID uuid.UUID) {
	if err := h.importRepo.SetBatchStatus(batchID, models.BatchFailed); err != nil {
		log.Printf("Import: mark batch %s failed: %v", batchID, err)
		return
	}
	log.Printf("Import: batch %s failed", batchID)
	if batch, err := h.importRepo.GetBatchAny(batchID); err == nil {
		h.broadcast(batch, "failed", 0, batch.TotalRows)
	}
}

func (h *ImportBatchHandler) processRow(ctx context.Context, batch *models.ImportBatch, row *models.ImportRow) {
	status, movieID, tmdbID, conf, reasons, rowErr := h.matchRow(ctx, batch.UserID, row)

	if err := h.importRepo.SetRowOutcome(row.ID, status, movieID, tmdbID, conf, reasons, rowErr); err != nil {
		log.Printf("Import: record outcome row %d: %v", row.RowNumber, err)
		return
	}
	if err := h.importRepo.BumpBatchCounters(batch.ID, status); err != nil {
		log.Printf("Import: bump counters batch %s: %v", batch.ID, err)
	}
}

// matchRow searches TMDB for the row, scores the candidates, and applies the
// best one when it clears the auto-match threshold.
func (h *ImportBatchHandler) matchRow(ctx context.Context, userID uuid.UUID, row *models.ImportRow) (
	status models.RowStatus, movieID *uuid.UUID, tmdbID *int, confidence *int, reasons []string, rowErr *string) {

	fail := func(err error) (models.RowStatus, *uuid.UUID, *int, *int, []string, *string) {
		msg := err.Error()
		return models.RowFailed, nil, nil, nil, nil, &msg
	}

	results, err := h.tmdb.Search(ctx, row.Title, row.Year)
	if err != nil {
		return fail(fmt.Errorf("tmdb search: %w", err))
	}
	if len(results) == 0 {
		zero := 0
		return models.RowReview, nil, nil, &zero, []string{"No TMDB results"}, nil
	}
	if len(results) > maxCandidates {
		results = results[:maxCandidates]
	}

	src := match.Candidate{Title: row.Title, Year: row.Year}
	if row.Director != nil {
		src.Director = *row.Director
	}

	best := results[0]
	bestConf := scoreResult(src, best)
	for _, r := range results[1:] {
		if c := scoreResult(src, r); c.Score > bestConf.Score {
			best, bestConf = r, c
		}
	}

	// Search results carry no crew. When the source row names a director,
	// fetch the best candidate's details (cached) and rescore with it.
	if src.Director != "" {
		if details, err := h.tmdb.GetDetails(ctx, best.TMDBID); err == nil && details.Director != nil {
			cand := match.Candidate{Title: best.Title, Year: best.Year, Director: *details.Director}
			bestConf = match.Score(src, cand)
		}
	}

	id := best.TMDBID
	score := bestConf.Score
	if score < h.cfg.AutoMatchMinScore() {
		return models.RowReview, nil, &id, &score, bestConf.Reasons, nil
	}

	movie, err := h.applier.Apply(ctx, userID, row, best.TMDBID)
	if err != nil {
		return fail(err)
	}
	return models.RowMatched, &movie.ID, &id, &score, bestConf.Reasons, nil
}

// scoreResult scores a search result, taking the better of the display and
// original titles so foreign-language releases are not punished.
func scoreResult(src match.Candidate, r tmdb.SearchResult) match.Confidence {
	conf := match.Score(src, match.Candidate{Title: r.Title, Year: r.Year})
	if r.OriginalTitle != nil && *r.OriginalTitle != r.Title {
		if alt := match.Score(src, match.Candidate{Title: *r.OriginalTitle, Year: r.Year}); alt.Score > conf.Score {
			conf = alt
		}
	}
	return conf
}

func (h *ImportBatchHandler) broadcast(batch *models.ImportBatch, status string, done, total int) {
	if h.notifier == nil {
		return
	}
	h.notifier.Broadcast("import:update", map[string]interface{}{
		"batch_id":  batch.ID.String(),
		"file_name": batch.FileName,
		"status":    status,
		"processed": done,
		"total":     total,
	})
}
