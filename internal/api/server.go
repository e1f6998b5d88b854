package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/reelkeep/reelkeep/internal/auth"
	"github.com/reelkeep/reelkeep/internal/config"
	"github.com/reelkeep/reelkeep/internal/db"
	"github.com/reelkeep/reelkeep/internal/httputil"
	"github.com/reelkeep/reelkeep/internal/importer"
	"github.com/reelkeep/reelkeep/internal/jobs"
	"github.com/reelkeep/reelkeep/internal/models"
	"github.com/reelkeep/reelkeep/internal/repository"
	"github.com/reelkeep/reelkeep/internal/tmdb"
)

type Server struct {
	config        *config.Config
	db            *db.DB
	auth          *auth.Auth
	userRepo      *repository.UserRepository
	movieRepo     *repository.MovieRepository
	watchRepo     *repository.WatchRepository
	tagRepo       *repository.TagRepository
	watchlistRepo *repository.WatchlistRepository
	vaultRepo     *repository.VaultRepository
	oscarRepo     *repository.OscarRepository
	importRepo    *repository.ImportRepository
	settingsRepo  *repository.SettingsRepository
	tmdb          *tmdb.Client
	applier       *importer.Applier
	jobQueue      *jobs.Queue
	wsHub         *WSHub
	router        *http.ServeMux
}

func NewServer(cfg *config.Config, database *db.DB, jobQueue *jobs.Queue,
	tmdbClient *tmdb.Client, applier *importer.Applier) (*Server, error) {

	authService, err := auth.NewAuth(cfg.JWTSecret, 0)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:        cfg,
		db:            database,
		auth:          authService,
		userRepo:      repository.NewUserRepository(database.DB),
		movieRepo:     repository.NewMovieRepository(database.DB),
		watchRepo:     repository.NewWatchRepository(database.DB),
		tagRepo:       repository.NewTagRepository(database.DB),
		watchlistRepo: repository.NewWatchlistRepository(database.DB),
		vaultRepo:     repository.NewVaultRepository(database.DB),
		oscarRepo:     repository.NewOscarRepository(database.DB),
		importRepo:    repository.NewImportRepository(database.DB),
		settingsRepo:  repository.NewSettingsRepository(database.DB),
		tmdb:          tmdbClient,
		applier:       applier,
		jobQueue:      jobQueue,
		wsHub:         NewWSHub(),
		router:        http.NewServeMux(),
	}

	s.setupRoutes()
	return s, nil
}

// WSHub exposes the hub so the job layer can broadcast progress events.
func (s *Server) WSHub() *WSHub {
	return s.wsHub
}

func (s *Server) UserRepo() *repository.UserRepository {
	return s.userRepo
}

func (s *Server) setupRoutes() {
	// Static frontend
	fs := http.FileServer(http.Dir("web"))
	s.router.Handle("/", fs)

	// Public
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /api/v1/status", s.handleStatus)
	s.router.HandleFunc("POST /api/v1/auth/register", s.rlAuth(s.handleRegister))
	s.router.HandleFunc("POST /api/v1/auth/login", s.rlAuth(s.handleLogin))

	// Session
	s.router.HandleFunc("POST /api/v1/auth/logout", s.authMiddleware(s.handleLogout, models.RoleUser))

	// WebSocket
	s.router.HandleFunc("GET /api/v1/ws", s.handleWebSocket)

	// Profile
	s.router.HandleFunc("GET /api/v1/profile", s.authMiddleware(s.handleGetProfile, models.RoleUser))
	s.router.HandleFunc("PUT /api/v1/profile", s.authMiddleware(s.handleUpdateProfile, models.RoleUser))

	// Users (admin)
	s.router.HandleFunc("GET /api/v1/users", s.authMiddleware(s.handleListUsers, models.RoleAdmin))

	// Movies
	s.router.HandleFunc("GET /api/v1/movies", s.authMiddleware(s.handleListMovies, models.RoleUser))
	s.router.HandleFunc("GET /api/v1/movies/index", s.authMiddleware(s.handleLetterIndex, models.RoleUser))
	s.router.HandleFunc("GET /api/v1/movies/search", s.authMiddleware(s.handleSearchTMDB, models.RoleUser))
	s.router.HandleFunc("GET /api/v1/movies/{id}", s.authMiddleware(s.handleGetMovie, models.RoleUser))
	s.router.HandleFunc("POST /api/v1/movies", s.authMiddleware(s.handleAddMovie, models.RoleUser))
	s.router.HandleFunc("PUT /api/v1/movies/{id}/rating", s.authMiddleware(s.handleSetRating, models.RoleUser))
	s.router.HandleFunc("DELETE /api/v1/movies/{id}/rating", s.authMiddleware(s.handleDeleteRating, models.RoleUser))

	// Watch diary
	s.router.HandleFunc("POST /api/v1/movies/{id}/watches", s.authMiddleware(s.handleLogWatch, models.RoleUser))
	s.router.HandleFunc("GET /api/v1/movies/{id}/watches", s.authMiddleware(s.handleMovieWatches, models.RoleUser))
	s.router.HandleFunc("GET /api/v1/watches/recent", s.authMiddleware(s.handleRecentWatches, models.RoleUser))
	s.router.HandleFunc("DELETE /api/v1/watches/{id}", s.authMiddleware(s.handleDeleteWatch, models.RoleUser))

	// Tags
	s.router.HandleFunc("GET /api/v1/tags", s.authMiddleware(s.handleListTags, models.RoleUser))
	s.router.HandleFunc("PUT /api/v1/tags/{id}", s.authMiddleware(s.handleUpdateTag, models.RoleUser))
	s.router.HandleFunc("DELETE /api/v1/tags/{id}", s.authMiddleware(s.handleDeleteTag, models.RoleUser))
	s.router.HandleFunc("POST /api/v1/movies/{id}/tags", s.authMiddleware(s.handleAssignTag, models.RoleUser))
	s.router.HandleFunc("DELETE /api/v1/movies/{id}/tags/{tagId}", s.authMiddleware(s.handleRemoveTag, models.RoleUser))

	// Watchlist
	s.router.HandleFunc("GET /api/v1/watchlist", s.authMiddleware(s.handleGetWatchlist, models.RoleUser))
	s.router.HandleFunc("POST /api/v1/watchlist/{movieId}", s.authMiddleware(s.handleAddToWatchlist, models.RoleUser))
	s.router.HandleFunc("DELETE /api/v1/watchlist/{movieId}", s.authMiddleware(s.handleRemoveFromWatchlist, models.RoleUser))
	s.router.HandleFunc("GET /api/v1/watchlist/{movieId}/check", s.authMiddleware(s.handleCheckWatchlist, models.RoleUser))

	// Vaults
	s.router.HandleFunc("GET /api/v1/vaults", s.authMiddleware(s.handleListVaults, models.RoleUser))
	s.router.HandleFunc("POST /api/v1/vaults", s.authMiddleware(s.handleCreateVault, models.RoleUser))
	s.router.HandleFunc("GET /api/v1/vaults/{id}", s.authMiddleware(s.handleGetVault, models.RoleUser))
	s.router.HandleFunc("PUT /api/v1/vaults/{id}", s.authMiddleware(s.handleUpdateVault, models.RoleUser))
	s.router.HandleFunc("DELETE /api/v1/vaults/{id}", s.authMiddleware(s.handleDeleteVault, models.RoleUser))
	s.router.HandleFunc("GET /api/v1/vaults/{id}/stats", s.authMiddleware(s.handleVaultStats, models.RoleUser))
	s.router.HandleFunc("POST /api/v1/vaults/{id}/items", s.authMiddleware(s.handleAddVaultItem, models.RoleUser))
	s.router.HandleFunc("DELETE /api/v1/vaults/{id}/items/{movieId}", s.authMiddleware(s.handleRemoveVaultItem, models.RoleUser))
	s.router.HandleFunc("PUT /api/v1/vaults/{id}/reorder", s.authMiddleware(s.handleReorderVault, models.RoleUser))

	// CSV import
	s.router.HandleFunc("POST /api/v1/import", s.authMiddleware(s.handleStartImport, models.RoleUser))
	s.router.HandleFunc("GET /api/v1/import/batches", s.authMiddleware(s.handleListBatches, models.RoleUser))
	s.router.HandleFunc("GET /api/v1/import/batches/{id}", s.authMiddleware(s.handleGetBatch, models.RoleUser))
	s.router.HandleFunc("GET /api/v1/import/batches/{id}/rows", s.authMiddleware(s.handleBatchRows, models.RoleUser))

	// Approval dashboard
	s.router.HandleFunc("GET /api/v1/import/review", s.authMiddleware(s.handleReviewQueue, models.RoleUser))
	s.router.HandleFunc("GET /api/v1/import/review/{rowId}/candidates", s.authMiddleware(s.handleRowCandidates, models.RoleUser))
	s.router.HandleFunc("POST /api/v1/import/review/{rowId}/approve", s.authMiddleware(s.handleApproveRow, models.RoleUser))
	s.router.HandleFunc("POST /api/v1/import/review/{rowId}/reject", s.authMiddleware(s.handleRejectRow, models.RoleUser))
	s.router.HandleFunc("POST /api/v1/import/review/bulk-approve", s.authMiddleware(s.handleBulkApprove, models.RoleUser))

	// Oscars
	s.router.HandleFunc("GET /api/v1/movies/{id}/oscars", s.authMiddleware(s.handleMovieOscars, models.RoleUser))
	s.router.HandleFunc("POST /api/v1/movies/{id}/oscars", s.authMiddleware(s.handleUpsertOscar, models.RoleAdmin))
	s.router.HandleFunc("DELETE /api/v1/oscars/{id}", s.authMiddleware(s.handleDeleteOscar, models.RoleAdmin))
	s.router.HandleFunc("GET /api/v1/oscars/stats/categories", s.authMiddleware(s.handleOscarCategories, models.RoleUser))
	s.router.HandleFunc("GET /api/v1/oscars/stats/years", s.authMiddleware(s.handleOscarYears, models.RoleUser))
	s.router.HandleFunc("GET /api/v1/oscars/stats/most-awarded", s.authMiddleware(s.handleMostAwarded, models.RoleUser))
	s.router.HandleFunc("GET /api/v1/oscars/stats/best-picture", s.authMiddleware(s.handleBestPicture, models.RoleUser))

	// System settings (admin)
	s.router.HandleFunc("GET /api/v1/settings/system", s.authMiddleware(s.handleGetSystemSettings, models.RoleAdmin))
	s.router.HandleFunc("PUT /api/v1/settings/system", s.authMiddleware(s.handleUpdateSystemSettings, models.RoleAdmin))

	// Maintenance triggers (admin)
	s.router.HandleFunc("POST /api/v1/admin/refresh-metadata", s.authMiddleware(s.handleTriggerRefresh, models.RoleAdmin))
}

// ──────────────────── Middleware ────────────────────

func (s *Server) authMiddleware(next http.HandlerFunc, requiredRole models.UserRole) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else if t := r.URL.Query().Get("token"); t != "" {
			tokenString = t
		} else {
			s.respondError(w, http.StatusUnauthorized, "missing authorization")
			return
		}

		claims, err := s.auth.ValidateToken(tokenString)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		// Tokens die early when the session was revoked by logout.
		if !s.userRepo.SessionValid(tokenString) {
			s.respondError(w, http.StatusUnauthorized, "session revoked")
			return
		}

		if !s.auth.CheckPermission(claims.Role, requiredRole) {
			s.respondError(w, http.StatusForbidden, "insufficient permissions")
			return
		}

		r.Header.Set("X-User-ID", claims.UserID.String())
		r.Header.Set("X-User-Role", string(claims.Role))

		next(w, r)
	}
}

// securityHeadersMiddleware adds standard security headers to all responses.
func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware handles CORS preflight and response headers globally.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.Header().Set("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler returns the fully wrapped handler chain for the HTTP server.
func (s *Server) Handler() http.Handler {
	return s.securityHeadersMiddleware(s.corsMiddleware(s.router))
}

// ──────────────────── Helpers ────────────────────

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	httputil.WriteJSON(w, statusCode, data)
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	httputil.WriteError(w, statusCode, message)
}

// respondPaginated sends a JSON response with pagination headers (X-Total-Count, Link).
func (s *Server) respondPaginated(w http.ResponseWriter, statusCode int, data interface{}, page, pageSize, total int, baseURL string) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	lastPage := (total + pageSize - 1) / pageSize
	if lastPage < 1 {
		lastPage = 1
	}
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	pageSizeStr := strconv.Itoa(pageSize)
	var links []string
	links = append(links, fmt.Sprintf(`<%s%spage=1&page_size=%s>; rel="first"`, baseURL, sep, pageSizeStr))
	links = append(links, fmt.Sprintf(`<%s%spage=%d&page_size=%s>; rel="last"`, baseURL, sep, lastPage, pageSizeStr))
	if page < lastPage {
		links = append(links, fmt.Sprintf(`<%s%spage=%d&page_size=%s>; rel="next"`, baseURL, sep, page+1, pageSizeStr))
	}
	if page > 1 {
		links = append(links, fmt.Sprintf(`<%s%spage=%d&page_size=%s>; rel="prev"`, baseURL, sep, page-1, pageSizeStr))
	}
	w.Header().Set("Link", strings.Join(links, ", "))
	httputil.WriteJSON(w, statusCode, data)
}

func (s *Server) getUserID(r *http.Request) uuid.UUID {
	id, _ := uuid.Parse(r.Header.Get("X-User-ID"))
	return id
}

// pathUUID parses the named path segment as a UUID and writes a 400 on
// failure. Callers must return when ok is false.
func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
