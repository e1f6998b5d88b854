package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ──────────────────── Enums ────────────────────

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

type BatchStatus string

const (
	BatchPending  BatchStatus = "pending"
	BatchRunning  BatchStatus = "running"
	BatchComplete BatchStatus = "complete"
	BatchFailed   BatchStatus = "failed"
)

type RowStatus string

const (
	RowPending  RowStatus = "pending"  // not yet processed
	RowMatched  RowStatus = "matched"  // auto-applied above threshold
	RowReview   RowStatus = "review"   // parked for manual approval
	RowApproved RowStatus = "approved" // manually approved from review
	RowRejected RowStatus = "rejected" // manually discarded
	RowFailed   RowStatus = "failed"   // parse or lookup error
)

// ──────────────────── User ────────────────────

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	DisplayName  *string   `json:"display_name,omitempty" db:"display_name"`
	Role         UserRole  `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type Session struct {
	Token     string    `json:"-" db:"token"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ──────────────────── Movie ────────────────────

// Movie is the canonical TMDB-backed record. Personal annotations (ratings,
// tags, watch entries) live in their own tables keyed by user.
type Movie struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	TMDBID          int            `json:"tmdb_id" db:"tmdb_id"`
	IMDBID          *string        `json:"imdb_id,omitempty" db:"imdb_id"`
	Title           string         `json:"title" db:"title"`
	OriginalTitle   *string        `json:"original_title,omitempty" db:"original_title"`
	Year            *int           `json:"year,omitempty" db:"year"`
	ReleaseDate     *string        `json:"release_date,omitempty" db:"release_date"`
	Overview        *string        `json:"overview,omitempty" db:"overview"`
	Tagline         *string        `json:"tagline,omitempty" db:"tagline"`
	PosterURL       *string        `json:"poster_url,omitempty" db:"poster_url"`
	BackdropURL     *string        `json:"backdrop_url,omitempty" db:"backdrop_url"`
	Genres          pq.StringArray `json:"genres" db:"genres"`
	RuntimeMinutes  *int           `json:"runtime_minutes,omitempty" db:"runtime_minutes"`
	Director        *string        `json:"director,omitempty" db:"director"`
	ContentRating   *string        `json:"content_rating,omitempty" db:"content_rating"`
	CommunityRating *float64       `json:"community_rating,omitempty" db:"community_rating"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`

	// Per-user fields populated by queries that join annotations.
	PersonalRating *int           `json:"personal_rating,omitempty" db:"-"`
	WatchCount     int            `json:"watch_count" db:"-"`
	LastWatchedAt  *time.Time     `json:"last_watched_at,omitempty" db:"-"`
	Tags           pq.StringArray `json:"tags,omitempty" db:"-"`
}

// WatchEntry is a single logged viewing of a movie by a user.
type WatchEntry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	MovieID   uuid.UUID `json:"movie_id" db:"movie_id"`
	WatchedAt time.Time `json:"watched_at" db:"watched_at"`
	Rewatch   bool      `json:"rewatch" db:"rewatch"`
	Note      *string   `json:"note,omitempty" db:"note"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Movie *Movie `json:"movie,omitempty" db:"-"`
}

type Tag struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Color     *string   `json:"color,omitempty" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	MovieCount int `json:"movie_count" db:"-"`
}

type WatchlistItem struct {
	ID      uuid.UUID `json:"id" db:"id"`
	UserID  uuid.UUID `json:"user_id" db:"user_id"`
	MovieID uuid.UUID `json:"movie_id" db:"movie_id"`
	AddedAt time.Time `json:"added_at" db:"added_at"`

	Movie *Movie `json:"movie,omitempty" db:"-"`
}

// ──────────────────── Vaults ────────────────────

// Vault is a named, manually ordered collection of movies owned by a user.
type Vault struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CoverURL    *string   `json:"cover_url,omitempty" db:"cover_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	ItemCount int `json:"item_count" db:"-"`
}

type VaultItem struct {
	VaultID  uuid.UUID `json:"vault_id" db:"vault_id"`
	MovieID  uuid.UUID `json:"movie_id" db:"movie_id"`
	Position int       `json:"position" db:"position"`
	AddedAt  time.Time `json:"added_at" db:"added_at"`

	Movie *Movie `json:"movie,omitempty" db:"-"`
}

type VaultStats struct {
	ItemCount      int      `json:"item_count"`
	AvgRating      *float64 `json:"avg_rating,omitempty"`
	TotalRuntime   int      `json:"total_runtime_minutes"`
	WatchedCount   int      `json:"watched_count"`
	UnwatchedCount int      `json:"unwatched_count"`
}

// ──────────────────── Oscars ────────────────────

type OscarAward struct {
	ID           uuid.UUID `json:"id" db:"id"`
	MovieID      uuid.UUID `json:"movie_id" db:"movie_id"`
	Category     string    `json:"category" db:"category"`
	CeremonyYear int       `json:"ceremony_year" db:"ceremony_year"`
	Won          bool      `json:"won" db:"won"`
	Recipient    *string   `json:"recipient,omitempty" db:"recipient"`
}

// ──────────────────── CSV Import ────────────────────

type ImportBatch struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	UserID        uuid.UUID   `json:"user_id" db:"user_id"`
	FileName      string      `json:"file_name" db:"file_name"`
	Status        BatchStatus `json:"status" db:"status"`
	TotalRows     int         `json:"total_rows" db:"total_rows"`
	ProcessedRows int         `json:"processed_rows" db:"processed_rows"`
	MatchedRows   int         `json:"matched_rows" db:"matched_rows"`
	ReviewRows    int         `json:"review_rows" db:"review_rows"`
	FailedRows    int         `json:"failed_rows" db:"failed_rows"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
}

// ImportRow is one CSV line: the parsed source fields, the match outcome, and
// (for review rows) the confidence breakdown shown on the approval dashboard.
type ImportRow struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	BatchID   uuid.UUID      `json:"batch_id" db:"batch_id"`
	RowNumber int            `json:"row_number" db:"row_number"`
	Title     string         `json:"title" db:"title"`
	Year      *int           `json:"year,omitempty" db:"year"`
	Director  *string        `json:"director,omitempty" db:"director"`
	WatchedAt *time.Time     `json:"watched_at,omitempty" db:"watched_at"`
	Rating    *int           `json:"rating,omitempty" db:"rating"`
	Tags      pq.StringArray `json:"tags,omitempty" db:"tags"`

	Status     RowStatus      `json:"status" db:"status"`
	MovieID    *uuid.UUID     `json:"movie_id,omitempty" db:"movie_id"`
	TMDBID     *int           `json:"tmdb_id,omitempty" db:"tmdb_id"`
	Confidence *int           `json:"confidence,omitempty" db:"confidence"`
	Reasons    pq.StringArray `json:"reasons,omitempty" db:"reasons"`
	Error      *string        `json:"error,omitempty" db:"error"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	ResolvedAt *time.Time     `json:"resolved_at,omitempty" db:"resolved_at"`

	Movie *Movie `json:"matched_movie,omitempty" db:"-"`
}
