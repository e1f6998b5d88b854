package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reelkeep/reelkeep/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, display_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`
	return r.db.QueryRow(query, u.ID, u.Username, u.Email, u.PasswordHash,
		u.DisplayName, u.Role, u.IsActive).Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	return r.getBy("id = $1", id)
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	return r.getBy("username = $1", username)
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.getBy("email = $1", email)
}

func (r *UserRepository) getBy(where string, arg interface{}) (*models.User, error) {
	u := &models.User{}
	query := `
		SELECT id, username, email, password_hash, display_name, role, is_active, created_at, updated_at
		FROM users WHERE ` + where
	err := r.db.QueryRow(query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DisplayName,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	return u, err
}

func (r *UserRepository) List() ([]*models.User, error) {
	rows, err := r.db.Query(`
		SELECT id, username, email, password_hash, display_name, role, is_active, created_at, updated_at
		FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DisplayName,
			&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

func (r *UserRepository) UpdateProfile(id uuid.UUID, displayName *string, email string) error {
	_, err := r.db.Exec(`
		UPDATE users SET display_name = $2, email = $3, updated_at = NOW()
		WHERE id = $1`, id, displayName, email)
	return err
}

// ──────────────────── Sessions ────────────────────

func (r *UserRepository) CreateSession(token string, userID uuid.UUID, expiresAt time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		token, userID, expiresAt)
	return err
}

// SessionValid reports whether a token exists and has not expired. Validated
// JWTs are still checked here so logout and admin revocation take effect.
func (r *UserRepository) SessionValid(token string) bool {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM sessions WHERE token = $1 AND expires_at > NOW())`,
		token).Scan(&exists)
	return err == nil && exists
}

func (r *UserRepository) DeleteSession(token string) error {
	_, err := r.db.Exec("DELETE FROM sessions WHERE token = $1", token)
	return err
}

func (r *UserRepository) DeleteExpiredSessions() (int64, error) {
	res, err := r.db.Exec("DELETE FROM sessions WHERE expires_at <= NOW()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
