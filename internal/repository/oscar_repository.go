package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/reelkeep/reelkeep/internal/models"
)

type OscarRepository struct {
	db *sql.DB
}

func NewOscarRepository(db *sql.DB) *OscarRepository {
	return &OscarRepository{db: db}
}

func (r *OscarRepository) Upsert(a *models.OscarAward) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	query := `
		INSERT INTO oscar_awards (id, movie_id, category, ceremony_year, won, recipient)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (movie_id, category, ceremony_year) DO UPDATE SET
			won = EXCLUDED.won, recipient = EXCLUDED.recipient
		RETURNING id`
	return r.db.QueryRow(query, a.ID, a.MovieID, a.Category, a.CeremonyYear, a.Won, a.Recipient).
		Scan(&a.ID)
}

func (r *OscarRepository) ListByMovie(movieID uuid.UUID) ([]*models.OscarAward, error) {
	rows, err := r.db.Query(`
		SELECT id, movie_id, category, ceremony_year, won, recipient
		FROM oscar_awards WHERE movie_id = $1
		ORDER BY ceremony_year, category`, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAwards(rows)
}

func (r *OscarRepository) Delete(awardID uuid.UUID) error {
	_, err := r.db.Exec("DELETE FROM oscar_awards WHERE id = $1", awardID)
	return err
}

func collectAwards(rows *sql.Rows) ([]*models.OscarAward, error) {
	var awards []*models.OscarAward
	for rows.Next() {
		a := &models.OscarAward{}
		if err := rows.Scan(&a.ID, &a.MovieID, &a.Category, &a.CeremonyYear, &a.Won, &a.Recipient); err != nil {
			return nil, err
		}
		awards = append(awards, a)
	}
	return awards, rows.Err()
}

// ──────────────────── Stats queries ────────────────────

// CategoryCount is nominations/wins seen by a user in one category.
type CategoryCount struct {
	Category    string `json:"category"`
	Nominations int    `json:"nominations"`
	Wins        int    `json:"wins"`
}

// WatchedByCategory aggregates Oscar exposure across the movies the user has
// logged at least one watch for.
func (r *OscarRepository) WatchedByCategory(userID uuid.UUID) ([]CategoryCount, error) {
	rows, err := r.db.Query(`
		SELECT oa.category,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE oa.won)
		FROM oscar_awards oa
		WHERE EXISTS (SELECT 1 FROM watch_entries w WHERE w.movie_id = oa.movie_id AND w.user_id = $1)
		GROUP BY oa.category
		ORDER BY COUNT(*) DESC, oa.category`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Nominations, &c.Wins); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// CeremonyYearCount is a user's watched nominations/wins for one ceremony.
type CeremonyYearCount struct {
	CeremonyYear int `json:"ceremony_year"`
	Nominations  int `json:"nominations"`
	Wins         int `json:"wins"`
}

func (r *OscarRepository) WatchedByCeremonyYear(userID uuid.UUID) ([]CeremonyYearCount, error) {
	rows, err := r.db.Query(`
		SELECT oa.ceremony_year,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE oa.won)
		FROM oscar_awards oa
		WHERE EXISTS (SELECT 1 FROM watch_entries w WHERE w.movie_id = oa.movie_id AND w.user_id = $1)
		GROUP BY oa.ceremony_year
		ORDER BY oa.ceremony_year`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []CeremonyYearCount
	for rows.Next() {
		var c CeremonyYearCount
		if err := rows.Scan(&c.CeremonyYear, &c.Nominations, &c.Wins); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// AwardedMovie is a movie ranked by its Oscar tally.
type AwardedMovie struct {
	Movie       *models.Movie `json:"movie"`
	Nominations int           `json:"nominations"`
	Wins        int           `json:"wins"`
}

// MostAwarded returns the user's watched movies ranked by wins, then
// nominations.
func (r *OscarRepository) MostAwarded(userID uuid.UUID, limit int) ([]AwardedMovie, error) {
	rows, err := r.db.Query(`
		SELECT `+movieColumns+`,
		       COUNT(oa.id),
		       COUNT(oa.id) FILTER (WHERE oa.won)
		FROM movies m
		JOIN oscar_awards oa ON oa.movie_id = m.id
		WHERE EXISTS (SELECT 1 FROM watch_entries w WHERE w.movie_id = m.id AND w.user_id = $1)
		GROUP BY m.id
		ORDER BY COUNT(oa.id) FILTER (WHERE oa.won) DESC, COUNT(oa.id) DESC, m.title
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AwardedMovie
	for rows.Next() {
		m := &models.Movie{}
		var am AwardedMovie
		if err := rows.Scan(
			&m.ID, &m.TMDBID, &m.IMDBID, &m.Title, &m.OriginalTitle, &m.Year,
			&m.ReleaseDate, &m.Overview, &m.Tagline, &m.PosterURL, &m.BackdropURL, &m.Genres,
			&m.RuntimeMinutes, &m.Director, &m.ContentRating, &m.CommunityRating,
			&m.CreatedAt, &m.UpdatedAt,
			&am.Nominations, &am.Wins,
		); err != nil {
			return nil, err
		}
		am.Movie = m
		result = append(result, am)
	}
	return result, rows.Err()
}

// BestPictureCoverage reports how many Best Picture winners in the database
// the user has watched.
type BestPictureCoverage struct {
	TotalWinners   int `json:"total_winners"`
	WatchedWinners int `json:"watched_winners"`
}

func (r *OscarRepository) BestPictureStats(userID uuid.UUID) (*BestPictureCoverage, error) {
	c := &BestPictureCoverage{}
	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE EXISTS (
		           SELECT 1 FROM watch_entries w WHERE w.movie_id = oa.movie_id AND w.user_id = $1))
		FROM oscar_awards oa
		WHERE oa.category = 'Best Picture' AND oa.won`, userID).
		Scan(&c.TotalWinners, &c.WatchedWinners)
	return c, err
}
