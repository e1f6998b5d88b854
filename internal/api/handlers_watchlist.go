package api

import (
	"net/http"
)

func (s *Server) handleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	items, err := s.watchlistRepo.List(s.getUserID(r))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list watchlist")
		return
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleAddToWatchlist(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.pathUUID(w, r, "movieId")
	if !ok {
		return
	}
	if _, err := s.movieRepo.GetByID(movieID); err != nil {
		s.respondError(w, http.StatusNotFound, "movie not found")
		return
	}
	if err := s.watchlistRepo.Add(s.getUserID(r), movieID); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to add to watchlist")
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (s *Server) handleRemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.pathUUID(w, r, "movieId")
	if !ok {
		return
	}
	if err := s.watchlistRepo.Remove(s.getUserID(r), movieID); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to remove from watchlist")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleCheckWatchlist(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.pathUUID(w, r, "movieId")
	if !ok {
		return
	}
	onList, err := s.watchlistRepo.Contains(s.getUserID(r), movieID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to check watchlist")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"on_watchlist": onList})
}
