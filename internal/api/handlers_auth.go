package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelkeep/reelkeep/internal/auth"
	"github.com/reelkeep/reelkeep/internal/httputil"
	"github.com/reelkeep/reelkeep/internal/models"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"tmdb_enabled": s.config.TMDBEnabled(),
		"ws_clients":   s.wsHub.ClientCount(),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		s.respondError(w, http.StatusBadRequest, "username is required")
		return
	}

	hashedPassword, err := s.auth.HashPassword(req.Password)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	// The first account becomes the admin.
	role := models.RoleUser
	if n, err := s.userRepo.Count(); err == nil && n == 0 {
		role = models.RoleAdmin
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        auth.NormalizeEmail(req.Email),
		PasswordHash: hashedPassword,
		Role:         role,
		IsActive:     true,
	}

	if err := s.userRepo.Create(user); err != nil {
		s.respondError(w, http.StatusConflict, "username or email already taken")
		return
	}

	s.respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.userRepo.GetByUsername(req.Username)
	if err != nil {
		// Allow login by email as well.
		user, err = s.userRepo.GetByEmail(auth.NormalizeEmail(req.Username))
	}
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := s.auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !user.IsActive {
		s.respondError(w, http.StatusForbidden, "account is disabled")
		return
	}

	token, err := s.auth.GenerateToken(user)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	expiresAt := time.Now().Add(s.auth.ExpiresIn())
	if err := s.userRepo.CreateSession(token, user.ID, expiresAt); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	s.respondJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token != "" {
		if err := s.userRepo.DeleteSession(token); err != nil {
			s.respondError(w, http.StatusInternalServerError, "failed to end session")
			return
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.userRepo.GetByID(s.getUserID(r))
	if err != nil {
		s.respondError(w, http.StatusNotFound, "user not found")
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Email       string  `json:"email"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := s.getUserID(r)
	if err := s.userRepo.UpdateProfile(userID, req.DisplayName, auth.NormalizeEmail(req.Email)); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.userRepo.List()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	s.respondJSON(w, http.StatusOK, users)
}
