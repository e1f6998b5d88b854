package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/reelkeep/reelkeep/internal/httputil"
	"github.com/reelkeep/reelkeep/internal/models"
)

func (s *Server) handleListVaults(w http.ResponseWriter, r *http.Request) {
	vaults, err := s.vaultRepo.ListByUser(s.getUserID(r))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list vaults")
		return
	}
	s.respondJSON(w, http.StatusOK, vaults)
}

type VaultRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	CoverURL    *string `json:"cover_url"`
}

func (s *Server) handleCreateVault(w http.ResponseWriter, r *http.Request) {
	var req VaultRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	vault := &models.Vault{
		UserID:      s.getUserID(r),
		Name:        req.Name,
		Description: req.Description,
		CoverURL:    req.CoverURL,
	}
	if err := s.vaultRepo.Create(vault); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to create vault")
		return
	}
	s.respondJSON(w, http.StatusCreated, vault)
}

// ownedVault loads a vault scoped to the requesting user.
func (s *Server) ownedVault(w http.ResponseWriter, r *http.Request) (*models.Vault, bool) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return nil, false
	}
	vault, err := s.vaultRepo.Get(s.getUserID(r), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "vault not found")
		return nil, false
	}
	return vault, true
}

func (s *Server) handleGetVault(w http.ResponseWriter, r *http.Request) {
	vault, ok := s.ownedVault(w, r)
	if !ok {
		return
	}
	items, err := s.vaultRepo.Items(vault.ID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list vault items")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"vault": vault,
		"items": items,
	})
}

func (s *Server) handleUpdateVault(w http.ResponseWriter, r *http.Request) {
	vault, ok := s.ownedVault(w, r)
	if !ok {
		return
	}
	var req VaultRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		vault.Name = name
	}
	vault.Description = req.Description
	vault.CoverURL = req.CoverURL

	if err := s.vaultRepo.Update(vault); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to update vault")
		return
	}
	s.respondJSON(w, http.StatusOK, vault)
}

func (s *Server) handleDeleteVault(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.vaultRepo.Delete(s.getUserID(r), id); err != nil {
		s.respondError(w, http.StatusNotFound, "vault not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleVaultStats(w http.ResponseWriter, r *http.Request) {
	vault, ok := s.ownedVault(w, r)
	if !ok {
		return
	}
	stats, err := s.vaultRepo.Stats(s.getUserID(r), vault.ID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

type VaultItemRequest struct {
	MovieID uuid.UUID `json:"movie_id"`
}

func (s *Server) handleAddVaultItem(w http.ResponseWriter, r *http.Request) {
	vault, ok := s.ownedVault(w, r)
	if !ok {
		return
	}
	var req VaultItemRequest
	if err := httputil.ReadJSON(r, &req); err != nil || req.MovieID == uuid.Nil {
		s.respondError(w, http.StatusBadRequest, "movie_id is required")
		return
	}
	if _, err := s.movieRepo.GetByID(req.MovieID); err != nil {
		s.respondError(w, http.StatusNotFound, "movie not found")
		return
	}
	if err := s.vaultRepo.AddItem(vault.ID, req.MovieID); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to add item")
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (s *Server) handleRemoveVaultItem(w http.ResponseWriter, r *http.Request) {
	vault, ok := s.ownedVault(w, r)
	if !ok {
		return
	}
	movieID, ok := s.pathUUID(w, r, "movieId")
	if !ok {
		return
	}
	if err := s.vaultRepo.RemoveItem(vault.ID, movieID); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to remove item")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type ReorderRequest struct {
	MovieIDs []uuid.UUID `json:"movie_ids"`
}

func (s *Server) handleReorderVault(w http.ResponseWriter, r *http.Request) {
	vault, ok := s.ownedVault(w, r)
	if !ok {
		return
	}
	var req ReorderRequest
	if err := httputil.ReadJSON(r, &req); err != nil || len(req.MovieIDs) == 0 {
		s.respondError(w, http.StatusBadRequest, "movie_ids is required")
		return
	}
	if err := s.vaultRepo.Reorder(vault.ID, req.MovieIDs); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to reorder vault")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "reordered"})
}
