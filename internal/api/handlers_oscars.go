package api

import (
	"net/http"
	"strings"

	"github.com/reelkeep/reelkeep/internal/httputil"
	"github.com/reelkeep/reelkeep/internal/models"
)

func (s *Server) handleMovieOscars(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	awards, err := s.oscarRepo.ListByMovie(movieID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list awards")
		return
	}
	s.respondJSON(w, http.StatusOK, awards)
}

type OscarRequest struct {
	Category     string  `json:"category"`
	CeremonyYear int     `json:"ceremony_year"`
	Won          bool    `json:"won"`
	Recipient    *string `json:"recipient"`
}

func (s *Server) handleUpsertOscar(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req OscarRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" || req.CeremonyYear < 1929 {
		s.respondError(w, http.StatusBadRequest, "category and ceremony_year are required")
		return
	}
	if _, err := s.movieRepo.GetByID(movieID); err != nil {
		s.respondError(w, http.StatusNotFound, "movie not found")
		return
	}

	award := &models.OscarAward{
		MovieID:      movieID,
		Category:     req.Category,
		CeremonyYear: req.CeremonyYear,
		Won:          req.Won,
		Recipient:    req.Recipient,
	}
	if err := s.oscarRepo.Upsert(award); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to save award")
		return
	}
	s.respondJSON(w, http.StatusCreated, award)
}

func (s *Server) handleDeleteOscar(w http.ResponseWriter, r *http.Request) {
	awardID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.oscarRepo.Delete(awardID); err != nil {
		s.respondError(w, http.StatusNotFound, "award not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ──────────────────── Stats ────────────────────

func (s *Server) handleOscarCategories(w http.ResponseWriter, r *http.Request) {
	counts, err := s.oscarRepo.WatchedByCategory(s.getUserID(r))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	s.respondJSON(w, http.StatusOK, counts)
}

func (s *Server) handleOscarYears(w http.ResponseWriter, r *http.Request) {
	counts, err := s.oscarRepo.WatchedByCeremonyYear(s.getUserID(r))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	s.respondJSON(w, http.StatusOK, counts)
}

func (s *Server) handleMostAwarded(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	movies, err := s.oscarRepo.MostAwarded(s.getUserID(r), limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	s.respondJSON(w, http.StatusOK, movies)
}

func (s *Server) handleBestPicture(w http.ResponseWriter, r *http.Request) {
	coverage, err := s.oscarRepo.BestPictureStats(s.getUserID(r))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	s.respondJSON(w, http.StatusOK, coverage)
}
