package api

import (
	"net/http"
	"strings"

	"github.com/reelkeep/reelkeep/internal/httputil"
)

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.tagRepo.ListByUser(s.getUserID(r))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list tags")
		return
	}
	s.respondJSON(w, http.StatusOK, tags)
}

type UpdateTagRequest struct {
	Color *string `json:"color"`
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	tagID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateTagRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.tagRepo.SetColor(s.getUserID(r), tagID, req.Color); err != nil {
		s.respondError(w, http.StatusNotFound, "tag not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	tagID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.tagRepo.Delete(s.getUserID(r), tagID); err != nil {
		s.respondError(w, http.StatusNotFound, "tag not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type AssignTagRequest struct {
	Name string `json:"name"`
}

// handleAssignTag attaches a tag to a movie, creating the tag when it does
// not exist yet.
func (s *Server) handleAssignTag(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req AssignTagRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	if _, err := s.movieRepo.GetByID(movieID); err != nil {
		s.respondError(w, http.StatusNotFound, "movie not found")
		return
	}

	tag, err := s.tagRepo.Ensure(s.getUserID(r), name)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to create tag")
		return
	}
	if err := s.tagRepo.AssignToMovie(tag.ID, movieID); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to assign tag")
		return
	}
	s.respondJSON(w, http.StatusCreated, tag)
}

func (s *Server) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	movieID, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	tagID, ok := s.pathUUID(w, r, "tagId")
	if !ok {
		return
	}
	if err := s.tagRepo.RemoveFromMovie(tagID, movieID); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to remove tag")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
