package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/reelkeep/reelkeep/internal/models"
)

type VaultRepository struct {
	db *sql.DB
}

func NewVaultRepository(db *sql.DB) *VaultRepository {
	return &VaultRepository{db: db}
}

func (r *VaultRepository) Create(v *models.Vault) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	query := `
		INSERT INTO vaults (id, user_id, name, description, cover_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`
	return r.db.QueryRow(query, v.ID, v.UserID, v.Name, v.Description, v.CoverURL).
		Scan(&v.CreatedAt, &v.UpdatedAt)
}

func (r *VaultRepository) Get(userID, vaultID uuid.UUID) (*models.Vault, error) {
	v := &models.Vault{}
	err := r.db.QueryRow(`
		SELECT v.id, v.user_id, v.name, v.description, v.cover_url, v.created_at, v.updated_at,
		       (SELECT COUNT(*) FROM vault_items vi WHERE vi.vault_id = v.id)
		FROM vaults v WHERE v.id = $1 AND v.user_id = $2`, vaultID, userID).
		Scan(&v.ID, &v.UserID, &v.Name, &v.Description, &v.CoverURL, &v.CreatedAt, &v.UpdatedAt, &v.ItemCount)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("vault not found")
	}
	return v, err
}

func (r *VaultRepository) ListByUser(userID uuid.UUID) ([]*models.Vault, error) {
	rows, err := r.db.Query(`
		SELECT v.id, v.user_id, v.name, v.description, v.cover_url, v.created_at, v.updated_at,
		       (SELECT COUNT(*) FROM vault_items vi WHERE vi.vault_id = v.id)
		FROM vaults v WHERE v.user_id = $1 ORDER BY v.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vaults []*models.Vault
	for rows.Next() {
		v := &models.Vault{}
		if err := rows.Scan(&v.ID, &v.UserID, &v.Name, &v.Description, &v.CoverURL,
			&v.CreatedAt, &v.UpdatedAt, &v.ItemCount); err != nil {
			return nil, err
		}
		vaults = append(vaults, v)
	}
	return vaults, rows.Err()
}

func (r *VaultRepository) Update(v *models.Vault) error {
	res, err := r.db.Exec(`
		UPDATE vaults SET name = $3, description = $4, cover_url = $5, updated_at = NOW()
		WHERE id = $1 AND user_id = $2`,
		v.ID, v.UserID, v.Name, v.Description, v.CoverURL)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("vault not found")
	}
	return nil
}

func (r *VaultRepository) Delete(userID, vaultID uuid.UUID) error {
	res, err := r.db.Exec("DELETE FROM vaults WHERE id = $1 AND user_id = $2", vaultID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("vault not found")
	}
	return nil
}

// AddItem appends a movie at the end of the vault's manual order.
func (r *VaultRepository) AddItem(vaultID, movieID uuid.UUID) error {
	_, err := r.db.Exec(`
		INSERT INTO vault_items (vault_id, movie_id, position)
		VALUES ($1, $2, COALESCE((SELECT MAX(position) FROM vault_items WHERE vault_id = $1), 0) + 1)
		ON CONFLICT (vault_id, movie_id) DO NOTHING`, vaultID, movieID)
	return err
}

func (r *VaultRepository) RemoveItem(vaultID, movieID uuid.UUID) error {
	_, err := r.db.Exec("DELETE FROM vault_items WHERE vault_id = $1 AND movie_id = $2", vaultID, movieID)
	return err
}

// Reorder rewrites positions to match the given movie ID order. IDs missing
// from the vault are ignored; items missing from the list keep their spot at
// the end.
func (r *VaultRepository) Reorder(vaultID uuid.UUID, movieIDs []uuid.UUID) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, movieID := range movieIDs {
		if _, err := tx.Exec(
			"UPDATE vault_items SET position = $3 WHERE vault_id = $1 AND movie_id = $2",
			vaultID, movieID, i+1); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *VaultRepository) Items(vaultID uuid.UUID) ([]*models.VaultItem, error) {
	rows, err := r.db.Query(`
		SELECT vi.vault_id, vi.movie_id, vi.position, vi.added_at, `+movieColumns+`
		FROM vault_items vi
		JOIN movies m ON vi.movie_id = m.id
		WHERE vi.vault_id = $1
		ORDER BY vi.position, vi.added_at`, vaultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.VaultItem
	for rows.Next() {
		it := &models.VaultItem{Movie: &models.Movie{}}
		m := it.Movie
		if err := rows.Scan(
			&it.VaultID, &it.MovieID, &it.Position, &it.AddedAt,
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

func (r *VaultRepository) Stats(userID, vaultID uuid.UUID) (*models.VaultStats, error) {
	stats := &models.VaultStats{}
	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       AVG(mr.rating),
		       COALESCE(SUM(m.runtime_minutes), 0),
		       COUNT(*) FILTER (WHERE EXISTS (
		           SELECT 1 FROM watch_entries w WHERE w.movie_id = m.id AND w.user_id = $1))
		FROM vault_items vi
		JOIN movies m ON vi.movie_id = m.id
		LEFT JOIN movie_ratings mr ON mr.movie_id = m.id AND mr.user_id = $1
		WHERE vi.vault_id = $2`, userID, vaultID).
		Scan(&stats.ItemCount, &stats.AvgRating, &stats.TotalRuntime, &stats.WatchedCount)
	if err != nil {
		return nil, err
	}
	stats.UnwatchedCount = stats.ItemCount - stats.WatchedCount
	return stats, nil
}
