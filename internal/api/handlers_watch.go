package api

import (
	"net/http"
	"time"

	"github.com/reelkeep/reelkeep/internal/httputil"
	"github.com/reelkeep/reelkeep/internal/models"
)

type LogWatchRequest struct {
	WatchedAt *time.Time `json:"watched_at"`
	Note      *string    `json:"note"`
}

func (s *Server) handleLogWatch(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req LogWatchRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := s.movieRepo.GetByID(movieID); err != nil {
		s.respondError(w, http.StatusNotFound, "movie not found")
		return
	}

	watchedAt := time.Now()
	if req.WatchedAt != nil {
		watchedAt = *req.WatchedAt
	}

	entry := &models.WatchEntry{
		UserID:    s.getUserID(r),
		MovieID:   movieID,
		WatchedAt: watchedAt,
		Note:      req.Note,
	}
	if err := s.watchRepo.Create(entry); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to log watch")
		return
	}
	s.respondJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleMovieWatches(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	entries, err := s.watchRepo.ListByMovie(s.getUserID(r), movieID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list watches")
		return
	}
	s.respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleRecentWatches(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	entries, err := s.watchRepo.Recent(s.getUserID(r), limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list watches")
		return
	}
	s.respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDeleteWatch(w http.ResponseWriter, r *http.Request) {
	entryID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.watchRepo.Delete(s.getUserID(r), entryID); err != nil {
		s.respondError(w, http.StatusNotFound, "watch entry not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
