package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/reelkeep/reelkeep/internal/models"
)

type TagRepository struct {
	db *sql.DB
}

func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

// Ensure returns the user's tag with the given name, creating it if needed.
func (r *TagRepository) Ensure(userID uuid.UUID, name string) (*models.Tag, error) {
	t := &models.Tag{}
	query := `
		INSERT INTO tags (id, user_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, user_id, name, color, created_at`
	err := r.db.QueryRow(query, uuid.New(), userID, name).
		Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt)
	return t, err
}

func (r *TagRepository) ListByUser(userID uuid.UUID) ([]*models.Tag, error) {
	rows, err := r.db.Query(`
		SELECT t.id, t.user_id, t.name, t.color, t.created_at,
		       (SELECT COUNT(*) FROM movie_tags mt WHERE mt.tag_id = t.id)
		FROM tags t WHERE t.user_id = $1 ORDER BY t.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		t := &models.Tag{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt, &t.MovieCount); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *TagRepository) AssignToMovie(tagID, movieID uuid.UUID) error {
	_, err := r.db.Exec(`
		INSERT INTO movie_tags (tag_id, movie_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, tagID, movieID)
	return err
}

func (r *TagRepository) RemoveFromMovie(tagID, movieID uuid.UUID) error {
	_, err := r.db.Exec("DELETE FROM movie_tags WHERE tag_id = $1 AND movie_id = $2", tagID, movieID)
	return err
}

func (r *TagRepository) SetColor(userID, tagID uuid.UUID, color *string) error {
	res, err := r.db.Exec("UPDATE tags SET color = $3 WHERE id = $1 AND user_id = $2", tagID, userID, color)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("tag not found")
	}
	return nil
}

func (r *TagRepository) Delete(userID, tagID uuid.UUID) error {
	res, err := r.db.Exec("DELETE FROM tags WHERE id = $1 AND user_id = $2", tagID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("tag not found")
	}
	return nil
}
