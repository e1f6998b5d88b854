package api

import (
	"net/http"
	"strings"

	"github.com/reelkeep/reelkeep/internal/httputil"
	"github.com/reelkeep/reelkeep/internal/importer"
	"github.com/reelkeep/reelkeep/internal/repository"
)

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.ListFilter{
		UserID:     s.getUserID(r),
		Query:      strings.TrimSpace(q.Get("q")),
		Year:       queryInt(r, "year", 0),
		DecadeFrom: queryInt(r, "decade", 0),
		Genre:      q.Get("genre"),
		Tag:        q.Get("tag"),
		Letter:     q.Get("letter"),
		SortBy:     q.Get("sort"),
		Page:       queryInt(r, "page", 1),
		PageSize:   queryInt(r, "page_size", 50),
	}

	movies, total, err := s.movieRepo.List(f)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list movies")
		return
	}
	s.respondPaginated(w, http.StatusOK, movies, f.Page, f.PageSize, total, r.URL.Path)
}

func (s *Server) handleLetterIndex(w http.ResponseWriter, r *http.Request) {
	index, err := s.movieRepo.LetterIndex(s.getUserID(r))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to build index")
		return
	}
	s.respondJSON(w, http.StatusOK, index)
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	movie, err := s.movieRepo.GetByID(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "movie not found")
		return
	}

	userID := s.getUserID(r)
	if err := s.movieRepo.AttachUserData(movie, userID); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load annotations")
		return
	}

	awards, err := s.oscarRepo.ListByMovie(movie.ID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load awards")
		return
	}
	onWatchlist, _ := s.watchlistRepo.Contains(userID, movie.ID)

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"movie":        movie,
		"oscars":       awards,
		"on_watchlist": onWatchlist,
	})
}

// handleSearchTMDB proxies a TMDB title search for the manual add flow.
func (s *Server) handleSearchTMDB(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	var year *int
	if y := queryInt(r, "year", 0); y > 0 {
		year = &y
	}

	results, err := s.tmdb.Search(r.Context(), query, year)
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "tmdb search failed")
		return
	}
	s.respondJSON(w, http.StatusOK, results)
}

type AddMovieRequest struct {
	TMDBID int `json:"tmdb_id"`
}

// handleAddMovie pulls a movie into the collection directly by TMDB id,
// bypassing the CSV pipeline.
func (s *Server) handleAddMovie(w http.ResponseWriter, r *http.Request) {
	var req AddMovieRequest
	if err := httputil.ReadJSON(r, &req); err != nil || req.TMDBID <= 0 {
		s.respondError(w, http.StatusBadRequest, "tmdb_id is required")
		return
	}

	details, err := s.tmdb.GetDetails(r.Context(), req.TMDBID)
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "tmdb lookup failed")
		return
	}

	movie := importer.MovieFromDetails(details)
	if err := s.movieRepo.UpsertByTMDBID(movie); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to save movie")
		return
	}
	s.respondJSON(w, http.StatusCreated, movie)
}

type SetRatingRequest struct {
	Rating int `json:"rating"`
}

func (s *Server) handleSetRating(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req SetRatingRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.movieRepo.SetRating(s.getUserID(r), id, req.Rating); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"rating": req.Rating})
}

func (s *Server) handleDeleteRating(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.movieRepo.DeleteRating(s.getUserID(r), id); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to delete rating")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
