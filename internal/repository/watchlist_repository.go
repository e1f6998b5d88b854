package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/reelkeep/reelkeep/internal/models"
)

type WatchlistRepository struct {
	db *sql.DB
}

func NewWatchlistRepository(db *sql.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

func (r *WatchlistRepository) Add(userID, movieID uuid.UUID) error {
	_, err := r.db.Exec(`
		INSERT INTO watchlist (id, user_id, movie_id) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, movie_id) DO NOTHING`,
		uuid.New(), userID, movieID)
	return err
}

func (r *WatchlistRepository) Remove(userID, movieID uuid.UUID) error {
	_, err := r.db.Exec("DELETE FROM watchlist WHERE user_id = $1 AND movie_id = $2", userID, movieID)
	return err
}

func (r *WatchlistRepository) Contains(userID, movieID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM watchlist WHERE user_id = $1 AND movie_id = $2)`,
		userID, movieID).Scan(&exists)
	return exists, err
}

// List returns the user's watchlist newest first, movies attached.
func (r *WatchlistRepository) List(userID uuid.UUID) ([]*models.WatchlistItem, error) {
	rows, err := r.db.Query(`
		SELECT wl.id, wl.user_id, wl.movie_id, wl.added_at, `+movieColumns+`
		FROM watchlist wl
		JOIN movies m ON wl.movie_id = m.id
		WHERE wl.user_id = $1
		ORDER BY wl.added_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.WatchlistItem
	for rows.Next() {
		it := &models.WatchlistItem{Movie: &models.Movie{}}
		m := it.Movie
		if err := rows.Scan(
			&it.ID, &it.UserID, &it.MovieID, &it.AddedAt,
			&m.ID, &m.TMDBID, &m.IMDBID, &m.Title, &m.OriginalTitle, &m.Year,
			&m.ReleaseDate, &m.Overview, &m.Tagline, &m.PosterURL, &m.BackdropURL, &m.Genres,
			&m.RuntimeMinutes, &m.Director, &m.ContentRating, &m.CommunityRating,
			&m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
