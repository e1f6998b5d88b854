package api

import (
	"net/http"
	"strconv"

	"github.com/reelkeep/reelkeep/internal/httputil"
	"github.com/reelkeep/reelkeep/internal/jobs"
)

// Settings keys persisted in the settings table. Unknown keys are rejected so
// typos don't silently create dead rows.
var editableSettings = map[string]bool{
	"automatch_min_score":  true,
	"import_concurrency":   true,
	"tmdb_cache_ttl_hours": true,
}

func (s *Server) handleGetSystemSettings(w http.ResponseWriter, r *http.Request) {
	stored, err := s.settingsRepo.All()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	// Effective values come from config; stored shows what's overridden.
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"effective": map[string]int{
			"automatch_min_score":  s.config.AutoMatchMinScore(),
			"import_concurrency":   s.config.ImportConcurrency(),
			"tmdb_cache_ttl_hours": s.config.TMDBCacheTTLHours(),
		},
		"stored": stored,
	})
}

func (s *Server) handleUpdateSystemSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]int
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	for key, value := range req {
		if !editableSettings[key] {
			s.respondError(w, http.StatusBadRequest, "unknown setting "+key)
			return
		}
		if value < 0 || (key == "automatch_min_score" && value > 100) {
			s.respondError(w, http.StatusBadRequest, "invalid value for "+key)
			return
		}
		if err := s.settingsRepo.Set(key, strconv.Itoa(value)); err != nil {
			s.respondError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	// Apply immediately; persisted values also survive restarts.
	s.config.MergeFromDB(s.db.DB)
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleTriggerRefresh enqueues an on-demand metadata refresh.
func (s *Server) handleTriggerRefresh(w http.ResponseWriter, r *http.Request) {
	olderThan := queryInt(r, "older_than_days", 7)
	limit := queryInt(r, "limit", 100)

	taskID, err := s.jobQueue.EnqueueUnique(jobs.TaskMetadataRefresh,
		jobs.MetadataRefreshPayload{OlderThanDays: olderThan, Limit: limit},
		"metadata:refresh:manual")
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to enqueue refresh")
		return
	}
	s.respondJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}
