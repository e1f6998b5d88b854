package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/reelkeep/reelkeep/internal/models"
)

type MovieRepository struct {
	db *sql.DB
}

func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

const movieColumns = `m.id, m.tmdb_id, m.imdb_id, m.title, m.original_title, m.year,
	m.release_date, m.overview, m.tagline, m.poster_url, m.backdrop_url, m.genres,
	m.runtime_minutes, m.director, m.content_rating, m.community_rating,
	m.created_at, m.updated_at`

func scanMovie(s interface{ Scan(...interface{}) error }, m *models.Movie) error {
	return s.Scan(
		&m.ID, &m.TMDBID, &m.IMDBID, &m.Title, &m.OriginalTitle, &m.Year,
		&m.ReleaseDate, &m.Overview, &m.Tagline, &m.PosterURL, &m.BackdropURL, &m.Genres,
		&m.RuntimeMinutes, &m.Director, &m.ContentRating, &m.CommunityRating,
		&m.CreatedAt, &m.UpdatedAt,
	)
}

// UpsertByTMDBID inserts the movie or refreshes canonical metadata on an
// existing record. Movies are shared across users; annotations are not.
func (r *MovieRepository) UpsertByTMDBID(m *models.Movie) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	query := `
		INSERT INTO movies (id, tmdb_id, imdb_id, title, original_title, year,
			release_date, overview, tagline, poster_url, backdrop_url, genres,
			runtime_minutes, director, content_rating, community_rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (tmdb_id) DO UPDATE SET
			imdb_id = EXCLUDED.imdb_id,
			title = EXCLUDED.title,
			original_title = EXCLUDED.original_title,
			year = EXCLUDED.year,
			release_date = EXCLUDED.release_date,
			overview = EXCLUDED.overview,
			tagline = EXCLUDED.tagline,
			poster_url = EXCLUDED.poster_url,
			backdrop_url = EXCLUDED.backdrop_url,
			genres = EXCLUDED.genres,
			runtime_minutes = EXCLUDED.runtime_minutes,
			director = EXCLUDED.director,
			content_rating = EXCLUDED.content_rating,
			community_rating = EXCLUDED.community_rating,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`
	return r.db.QueryRow(query, m.ID, m.TMDBID, m.IMDBID, m.Title, m.OriginalTitle, m.Year,
		m.ReleaseDate, m.Overview, m.Tagline, m.PosterURL, m.BackdropURL, pq.Array([]string(m.Genres)),
		m.RuntimeMinutes, m.Director, m.ContentRating, m.CommunityRating).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *MovieRepository) GetByID(id uuid.UUID) (*models.Movie, error) {
	m := &models.Movie{}
	err := scanMovie(r.db.QueryRow(`SELECT `+movieColumns+` FROM movies m WHERE m.id = $1`, id), m)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("movie not found")
	}
	return m, err
}

func (r *MovieRepository) GetByTMDBID(tmdbID int) (*models.Movie, error) {
	m := &models.Movie{}
	err := scanMovie(r.db.QueryRow(`SELECT `+movieColumns+` FROM movies m WHERE m.tmdb_id = $1`, tmdbID), m)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("movie not found")
	}
	return m, err
}

// AttachUserData fills per-user annotation fields on a movie.
func (r *MovieRepository) AttachUserData(m *models.Movie, userID uuid.UUID) error {
	err := r.db.QueryRow(`
		SELECT
			(SELECT rating FROM movie_ratings WHERE movie_id = $1 AND user_id = $2),
			(SELECT COUNT(*) FROM watch_entries WHERE movie_id = $1 AND user_id = $2),
			(SELECT MAX(watched_at) FROM watch_entries WHERE movie_id = $1 AND user_id = $2),
			COALESCE((SELECT ARRAY_AGG(t.name ORDER BY t.name)
				FROM movie_tags mt JOIN tags t ON mt.tag_id = t.id
				WHERE mt.movie_id = $1 AND t.user_id = $2), '{}')`,
		m.ID, userID).Scan(&m.PersonalRating, &m.WatchCount, &m.LastWatchedAt, &m.Tags)
	return err
}

// ListFilter narrows the collection browse query. Zero values mean "no filter".
type ListFilter struct {
	UserID     uuid.UUID // required: scopes to movies the user has interacted with
	Query      string
	Year       int
	DecadeFrom int // inclusive decade start, e.g. 1990
	Genre      string
	Tag        string
	Letter     string // first letter of title, "#" for non-alphabetic
	SortBy     string // title | year | rating | watched
	Page       int
	PageSize   int
}

// List returns the user's collection (movies with at least one watch entry,
// rating, or tag from that user) plus the total row count for pagination.
func (r *MovieRepository) List(f ListFilter) ([]*models.Movie, int, error) {
	where := []string{`EXISTS (
		SELECT 1 FROM watch_entries w WHERE w.movie_id = m.id AND w.user_id = $1
		UNION SELECT 1 FROM movie_ratings mr WHERE mr.movie_id = m.id AND mr.user_id = $1
		UNION SELECT 1 FROM movie_tags mt JOIN tags t ON mt.tag_id = t.id
			WHERE mt.movie_id = m.id AND t.user_id = $1)`}
	args := []interface{}{f.UserID}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Query != "" {
		p := arg("%" + strings.ToLower(f.Query) + "%")
		where = append(where, fmt.Sprintf("(LOWER(m.title) LIKE %s OR LOWER(COALESCE(m.original_title,'')) LIKE %s)", p, p))
	}
	if f.Year > 0 {
		where = append(where, "m.year = "+arg(f.Year))
	}
	if f.DecadeFrom > 0 {
		where = append(where, fmt.Sprintf("m.year >= %s AND m.year < %s", arg(f.DecadeFrom), arg(f.DecadeFrom+10)))
	}
	if f.Genre != "" {
		where = append(where, arg(f.Genre)+" = ANY(m.genres)")
	}
	if f.Tag != "" {
		where = append(where, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM movie_tags mt JOIN tags t ON mt.tag_id = t.id
			WHERE mt.movie_id = m.id AND t.user_id = $1 AND t.name = %s)`, arg(f.Tag)))
	}
	if f.Letter != "" {
		if f.Letter == "#" {
			where = append(where, "UPPER(LEFT(m.title, 1)) NOT BETWEEN 'A' AND 'Z'")
		} else {
			where = append(where, "UPPER(LEFT(m.title, 1)) = "+arg(strings.ToUpper(f.Letter)))
		}
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM movies m WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy := "m.title ASC"
	switch f.SortBy {
	case "year":
		orderBy = "m.year DESC NULLS LAST, m.title ASC"
	case "rating":
		orderBy = "(SELECT rating FROM movie_ratings WHERE movie_id = m.id AND user_id = $1) DESC NULLS LAST, m.title ASC"
	case "watched":
		orderBy = "(SELECT MAX(watched_at) FROM watch_entries WHERE movie_id = m.id AND user_id = $1) DESC NULLS LAST"
	}

	if f.PageSize <= 0 {
		f.PageSize = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	query := fmt.Sprintf("SELECT %s FROM movies m WHERE %s ORDER BY %s LIMIT %s OFFSET %s",
		movieColumns, whereClause, orderBy, arg(f.PageSize), arg((f.Page-1)*f.PageSize))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var movies []*models.Movie
	for rows.Next() {
		m := &models.Movie{}
		if err := scanMovie(rows, m); err != nil {
			return nil, 0, err
		}
		movies = append(movies, m)
	}
	return movies, total, rows.Err()
}

// LetterIndex returns title-initial counts for the user's collection, with
// non-alphabetic initials bucketed under "#".
func (r *MovieRepository) LetterIndex(userID uuid.UUID) (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT CASE WHEN UPPER(LEFT(m.title, 1)) BETWEEN 'A' AND 'Z'
			THEN UPPER(LEFT(m.title, 1)) ELSE '#' END AS letter, COUNT(*)
		FROM movies m
		WHERE EXISTS (SELECT 1 FROM watch_entries w WHERE w.movie_id = m.id AND w.user_id = $1)
		GROUP BY letter ORDER BY letter`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	index := map[string]int{}
	for rows.Next() {
		var letter string
		var count int
		if err := rows.Scan(&letter, &count); err != nil {
			return nil, err
		}
		index[letter] = count
	}
	return index, rows.Err()
}

// ──────────────────── Ratings ────────────────────

func (r *MovieRepository) SetRating(userID, movieID uuid.UUID, rating int) error {
	if rating < 1 || rating > 10 {
		return fmt.Errorf("rating must be between 1 and 10")
	}
	_, err := r.db.Exec(`
		INSERT INTO movie_ratings (user_id, movie_id, rating)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, movie_id) DO UPDATE SET rating = EXCLUDED.rating, updated_at = NOW()`,
		userID, movieID, rating)
	return err
}

func (r *MovieRepository) DeleteRating(userID, movieID uuid.UUID) error {
	_, err := r.db.Exec("DELETE FROM movie_ratings WHERE user_id = $1 AND movie_id = $2", userID, movieID)
	return err
}

// ListStale returns movies whose canonical metadata has not been refreshed
// within the given interval, oldest first.
func (r *MovieRepository) ListStale(olderThanDays, limit int) ([]*models.Movie, error) {
	rows, err := r.db.Query(`
		SELECT `+movieColumns+` FROM movies m
		WHERE m.updated_at < NOW() - ($1 || ' days')::interval
		ORDER BY m.updated_at ASC LIMIT $2`, olderThanDays, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movies []*models.Movie
	for rows.Next() {
		m := &models.Movie{}
		if err := scanMovie(rows, m); err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}
