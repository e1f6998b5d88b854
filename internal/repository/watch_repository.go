package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/reelkeep/reelkeep/internal/models"
)

type WatchRepository struct {
	db *sql.DB
}

func NewWatchRepository(db *sql.DB) *WatchRepository {
	return &WatchRepository{db: db}
}

func (r *WatchRepository) Create(w *models.WatchEntry) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	// Any prior watch of the same movie makes this one a rewatch.
	query := `
		INSERT INTO watch_entries (id, user_id, movie_id, watched_at, rewatch, note)
		VALUES ($1, $2, $3, $4,
			EXISTS(SELECT 1 FROM watch_entries WHERE user_id = $2 AND movie_id = $3),
			$5)
		RETURNING rewatch, created_at`
	return r.db.QueryRow(query, w.ID, w.UserID, w.MovieID, w.WatchedAt, w.Note).
		Scan(&w.Rewatch, &w.CreatedAt)
}

func (r *WatchRepository) ListByMovie(userID, movieID uuid.UUID) ([]*models.WatchEntry, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, movie_id, watched_at, rewatch, note, created_at
		FROM watch_entries
		WHERE user_id = $1 AND movie_id = $2
		ORDER BY watched_at DESC`, userID, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWatchEntries(rows, false)
}

// Recent returns the user's latest watch entries with their movies attached,
// for the diary view.
func (r *WatchRepository) Recent(userID uuid.UUID, limit int) ([]*models.WatchEntry, error) {
	rows, err := r.db.Query(`
		SELECT w.id, w.user_id, w.movie_id, w.watched_at, w.rewatch, w.note, w.created_at,
		       `+movieColumns+`
		FROM watch_entries w
		JOIN movies m ON w.movie_id = m.id
		WHERE w.user_id = $1
		ORDER BY w.watched_at DESC, w.created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWatchEntries(rows, true)
}

func scanWatchEntries(rows *sql.Rows, withMovie bool) ([]*models.WatchEntry, error) {
	var entries []*models.WatchEntry
	for rows.Next() {
		w := &models.WatchEntry{}
		dest := []interface{}{&w.ID, &w.UserID, &w.MovieID, &w.WatchedAt, &w.Rewatch, &w.Note, &w.CreatedAt}
		if withMovie {
			m := &models.Movie{}
			w.Movie = m
			dest = append(dest,
				&m.ID, &m.TMDBID, &m.IMDBID, &m.Title, &m.OriginalTitle, &m.Year,
				&m.ReleaseDate, &m.Overview, &m.Tagline, &m.PosterURL, &m.BackdropURL, &m.Genres,
				&m.RuntimeMinutes, &m.Director, &m.ContentRating, &m.CommunityRating,
				&m.CreatedAt, &m.UpdatedAt)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		entries = append(entries, w)
	}
	return entries, rows.Err()
}

func (r *WatchRepository) Delete(userID, entryID uuid.UUID) error {
	res, err := r.db.Exec("DELETE FROM watch_entries WHERE id = $1 AND user_id = $2", entryID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("watch entry not found")
	}
	return nil
}
