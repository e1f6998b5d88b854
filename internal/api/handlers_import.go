package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/reelkeep/reelkeep/internal/httputil"
	"github.com/reelkeep/reelkeep/internal/importer"
	"github.com/reelkeep/reelkeep/internal/jobs"
	"github.com/reelkeep/reelkeep/internal/match"
	"github.com/reelkeep/reelkeep/internal/models"
	"github.com/reelkeep/reelkeep/internal/tmdb"
)

const maxUploadBytes = 10 << 20 // 10 MB

// handleStartImport accepts a CSV upload, persists one row per parsed line,
// and hands the batch to the background matcher.
func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	if !s.config.TMDBEnabled() {
		s.respondError(w, http.StatusServiceUnavailable, "TMDB API key is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	rows, err := importer.Parse(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(rows) == 0 {
		s.respondError(w, http.StatusBadRequest, "no rows found in file")
		return
	}

	userID := s.getUserID(r)
	batch := &models.ImportBatch{
		UserID:    userID,
		FileName:  header.Filename,
		Status:    models.BatchPending,
		TotalRows: len(rows),
	}
	if err := s.importRepo.CreateBatch(batch); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to create batch")
		return
	}

	for _, row := range rows {
		ir := &models.ImportRow{
			BatchID:   batch.ID,
			RowNumber: row.RowNumber,
			Title:     row.Title,
			Year:      row.Year,
			Director:  row.Director,
			WatchedAt: row.WatchedAt,
			Rating:    row.Rating,
			Tags:      pq.StringArray(row.Tags),
			Status:    models.RowPending,
		}
		// Lines that failed to parse are recorded for the report but never
		// sent to the matcher.
		if row.Err != nil {
			msg := row.Err.Error()
			ir.Status = models.RowFailed
			ir.Error = &msg
		}
		if err := s.importRepo.CreateRow(ir); err != nil {
			s.respondError(w, http.StatusInternalServerError, "failed to store rows")
			return
		}
		if ir.Status == models.RowFailed {
			if err := s.importRepo.BumpBatchCounters(batch.ID, models.RowFailed); err != nil {
				s.respondError(w, http.StatusInternalServerError, "failed to store rows")
				return
			}
		}
	}

	if _, err := s.jobQueue.EnqueueUnique(jobs.TaskImportBatch,
		jobs.ImportBatchPayload{BatchID: batch.ID.String()},
		"import:batch:"+batch.ID.String()); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to enqueue import")
		return
	}

	s.respondJSON(w, http.StatusAccepted, batch)
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	batches, err := s.importRepo.ListBatches(s.getUserID(r), limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list batches")
		return
	}
	s.respondJSON(w, http.StatusOK, batches)
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	batch, err := s.importRepo.GetBatch(s.getUserID(r), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "batch not found")
		return
	}
	s.respondJSON(w, http.StatusOK, batch)
}

func (s *Server) handleBatchRows(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	// Scoped batch lookup doubles as the ownership check.
	if _, err := s.importRepo.GetBatch(s.getUserID(r), id); err != nil {
		s.respondError(w, http.StatusNotFound, "batch not found")
		return
	}
	rows, err := s.importRepo.ListRowsByBatch(id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list rows")
		return
	}
	s.respondJSON(w, http.StatusOK, rows)
}

// ──────────────────── Approval dashboard ────────────────────

// ReviewRow decorates an import row with the severity bucket the dashboard
// uses for grouping.
type ReviewRow struct {
	*models.ImportRow
	Severity match.ReviewSeverity `json:"severity"`
}

func (s *Server) handleReviewQueue(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 50)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	rows, total, err := s.importRepo.ListReviewRows(s.getUserID(r), pageSize, (page-1)*pageSize)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list review queue")
		return
	}

	out := make([]ReviewRow, 0, len(rows))
	for _, row := range rows {
		score := 0
		if row.Confidence != nil {
			score = *row.Confidence
		}
		out = append(out, ReviewRow{ImportRow: row, Severity: match.Severity(score)})
	}
	s.respondPaginated(w, http.StatusOK, out, page, pageSize, total, r.URL.Path)
}

// RowCandidate is one scored TMDB alternative offered on the dashboard.
type RowCandidate struct {
	Result   tmdb.SearchResult    `json:"result"`
	Score    int                  `json:"score"`
	Reasons  []string             `json:"reasons"`
	Severity match.ReviewSeverity `json:"severity"`
}

// handleRowCandidates re-runs the TMDB search for a review row, optionally
// with a corrected query, and returns scored candidates.
func (s *Server) handleRowCandidates(w http.ResponseWriter, r *http.Request) {
	rowID, ok := s.pathUUID(w, r, "rowId")
	if !ok {
		return
	}
	row, ok := s.ownedRow(w, r, rowID)
	if !ok {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		query = row.Title
	}
	year := row.Year
	if y := queryInt(r, "year", 0); y > 0 {
		year = &y
	}

	results, err := s.tmdb.Search(r.Context(), query, year)
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "tmdb search failed")
		return
	}
	if len(results) > 10 {
		results = results[:10]
	}

	src := match.Candidate{Title: row.Title, Year: row.Year}
	if row.Director != nil {
		src.Director = *row.Director
	}

	out := make([]RowCandidate, 0, len(results))
	for _, res := range results {
		conf := scoreSearchResult(src, res)
		// Crew is absent from search results; pull details for the director
		// leg when the source row names one. Detail lookups are cached.
		if src.Director != "" {
			if details, err := s.tmdb.GetDetails(r.Context(), res.TMDBID); err == nil && details.Director != nil {
				conf = match.Score(src, match.Candidate{
					Title: res.Title, Year: res.Year, Director: *details.Director,
				})
			}
		}
		out = append(out, RowCandidate{
			Result:   res,
			Score:    conf.Score,
			Reasons:  conf.Reasons,
			Severity: match.Severity(conf.Score),
		})
	}
	s.respondJSON(w, http.StatusOK, out)
}

type ApproveRowRequest struct {
	TMDBID int `json:"tmdb_id"`
}

// handleApproveRow applies a human-chosen candidate to a review row. With no
// body override, the matcher's best guess is used.
func (s *Server) handleApproveRow(w http.ResponseWriter, r *http.Request) {
	rowID, ok := s.pathUUID(w, r, "rowId")
	if !ok {
		return
	}
	row, ok := s.ownedRow(w, r, rowID)
	if !ok {
		return
	}

	var req ApproveRowRequest
	_ = httputil.ReadJSON(r, &req)
	tmdbID := req.TMDBID
	if tmdbID == 0 && row.TMDBID != nil {
		tmdbID = *row.TMDBID
	}
	if tmdbID == 0 {
		s.respondError(w, http.StatusBadRequest, "tmdb_id is required")
		return
	}

	movie, err := s.applier.Apply(r.Context(), s.getUserID(r), row, tmdbID)
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "failed to apply match")
		return
	}

	if err := s.importRepo.ResolveRow(rowID, models.RowApproved, &movie.ID, &tmdbID); err != nil {
		s.respondError(w, http.StatusConflict, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, movie)
}

// collectReviewRows drains the review queue through the given pager. All
// pages are fetched before any row is resolved so offsets stay stable.
func collectReviewRows(fetch func(limit, offset int) ([]*models.ImportRow, int, error)) ([]*models.ImportRow, error) {
	const pageSize = 500
	var rows []*models.ImportRow
	for offset := 0; ; offset += pageSize {
		page, total, err := fetch(pageSize, offset)
		if err != nil {
			return nil, err
		}
		rows = append(rows, page...)
		if len(page) == 0 || len(rows) >= total {
			return rows, nil
		}
	}
}

// handleBulkApprove applies the matcher's best guess to every medium-severity
// review row in one shot. High-severity rows stay parked; they are the ones
// most likely to be wrong and deserve eyes.
func (s *Server) handleBulkApprove(w http.ResponseWriter, r *http.Request) {
	userID := s.getUserID(r)

	rows, err := collectReviewRows(func(limit, offset int) ([]*models.ImportRow, int, error) {
		return s.importRepo.ListReviewRows(userID, limit, offset)
	})
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list review queue")
		return
	}

	approved, skipped := 0, 0
	for _, row := range rows {
		if row.Confidence == nil || row.TMDBID == nil ||
			match.Severity(*row.Confidence) != match.SeverityMedium {
			skipped++
			continue
		}
		movie, err := s.applier.Apply(r.Context(), userID, row, *row.TMDBID)
		if err != nil {
			skipped++
			continue
		}
		if err := s.importRepo.ResolveRow(row.ID, models.RowApproved, &movie.ID, row.TMDBID); err != nil {
			skipped++
			continue
		}
		approved++
	}

	s.respondJSON(w, http.StatusOK, map[string]int{
		"approved": approved,
		"skipped":  skipped,
	})
}

func (s *Server) handleRejectRow(w http.ResponseWriter, r *http.Request) {
	rowID, ok := s.pathUUID(w, r, "rowId")
	if !ok {
		return
	}
	if _, ok := s.ownedRow(w, r, rowID); !ok {
		return
	}

	if err := s.importRepo.ResolveRow(rowID, models.RowRejected, nil, nil); err != nil {
		s.respondError(w, http.StatusConflict, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// ownedRow loads a row and verifies it belongs to the requesting user.
func (s *Server) ownedRow(w http.ResponseWriter, r *http.Request, rowID uuid.UUID) (*models.ImportRow, bool) {
	owner, err := s.importRepo.RowOwner(rowID)
	if err != nil || owner != s.getUserID(r) {
		s.respondError(w, http.StatusNotFound, "row not found")
		return nil, false
	}
	row, err := s.importRepo.GetRow(rowID)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "row not found")
		return nil, false
	}
	return row, true
}

// scoreSearchResult takes the better of the display and original titles so
// foreign-language releases are not punished.
func scoreSearchResult(src match.Candidate, r tmdb.SearchResult) match.Confidence {
	conf := match.Score(src, match.Candidate{Title: r.Title, Year: r.Year})
	if r.OriginalTitle != nil && *r.OriginalTitle != r.Title {
		if alt := match.Score(src, match.Candidate{Title: *r.OriginalTitle, Year: r.Year}); alt.Score > conf.Score {
			conf = alt
		}
	}
	return conf
}
