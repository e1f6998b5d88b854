package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/reelkeep/reelkeep/internal/models"
)

type ImportRepository struct {
	db *sql.DB
}

func NewImportRepository(db *sql.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

// ──────────────────── Batches ────────────────────

func (r *ImportRepository) CreateBatch(b *models.ImportBatch) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	query := `
		INSERT INTO import_batches (id, user_id, file_name, status, total_rows)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	return r.db.QueryRow(query, b.ID, b.UserID, b.FileName, b.Status, b.TotalRows).
		Scan(&b.CreatedAt)
}

const batchColumns = `id, user_id, file_name, status, total_rows, processed_rows,
	matched_rows, review_rows, failed_rows, created_at, completed_at`

func scanBatch(s interface{ Scan(...interface{}) error }) (*models.ImportBatch, error) {
	b := &models.ImportBatch{}
	err := s.Scan(&b.ID, &b.UserID, &b.FileName, &b.Status, &b.TotalRows, &b.ProcessedRows,
		&b.MatchedRows, &b.ReviewRows, &b.FailedRows, &b.CreatedAt, &b.CompletedAt)
	return b, err
}

func (r *ImportRepository) GetBatch(userID, batchID uuid.UUID) (*models.ImportBatch, error) {
	b, err := scanBatch(r.db.QueryRow(
		`SELECT `+batchColumns+` FROM import_batches WHERE id = $1 AND user_id = $2`,
		batchID, userID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("import batch not found")
	}
	return b, err
}

// GetBatchAny looks up a batch without a user scope; used by the background
// worker, which runs outside any request.
func (r *ImportRepository) GetBatchAny(batchID uuid.UUID) (*models.ImportBatch, error) {
	b, err := scanBatch(r.db.QueryRow(
		`SELECT `+batchColumns+` FROM import_batches WHERE id = $1`, batchID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("import batch not found")
	}
	return b, err
}

func (r *ImportRepository) ListBatches(userID uuid.UUID, limit int) ([]*models.ImportBatch, error) {
	rows, err := r.db.Query(`
		SELECT `+batchColumns+` FROM import_batches
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*models.ImportBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func (r *ImportRepository) SetBatchStatus(batchID uuid.UUID, status models.BatchStatus) error {
	var completedAt *time.Time
	if status == models.BatchComplete || status == models.BatchFailed {
		now := time.Now()
		completedAt = &now
	}
	_, err := r.db.Exec(
		"UPDATE import_batches SET status = $2, completed_at = $3 WHERE id = $1",
		batchID, status, completedAt)
	return err
}

// BumpBatchCounters increments processed plus one outcome counter, keeping
// progress reads consistent under concurrent row workers.
func (r *ImportRepository) BumpBatchCounters(batchID uuid.UUID, outcome models.RowStatus) error {
	column := ""
	switch outcome {
	case models.RowMatched:
		column = "matched_rows"
	case models.RowReview:
		column = "review_rows"
	case models.RowFailed:
		column = "failed_rows"
	default:
		return fmt.Errorf("unexpected row outcome %q", outcome)
	}
	query := fmt.Sprintf(
		"UPDATE import_batches SET processed_rows = processed_rows + 1, %s = %s + 1 WHERE id = $1",
		column, column)
	_, err := r.db.Exec(query, batchID)
	return err
}

// ──────────────────── Rows ────────────────────

func (r *ImportRepository) CreateRow(row *models.ImportRow) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	query := `
		INSERT INTO import_rows (id, batch_id, row_number, title, year, director,
			watched_at, rating, tags, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`
	return r.db.QueryRow(query, row.ID, row.BatchID, row.RowNumber, row.Title, row.Year,
		row.Director, row.WatchedAt, row.Rating, pq.Array([]string(row.Tags)), row.Status, row.Error).
		Scan(&row.CreatedAt)
}

const rowColumns = `r.id, r.batch_id, r.row_number, r.title, r.year, r.director,
	r.watched_at, r.rating, r.tags, r.status, r.movie_id, r.tmdb_id,
	r.confidence, r.reasons, r.error, r.created_at, r.resolved_at`

func scanRow(s interface{ Scan(...interface{}) error }) (*models.ImportRow, error) {
	row := &models.ImportRow{}
	err := s.Scan(&row.ID, &row.BatchID, &row.RowNumber, &row.Title, &row.Year, &row.Director,
		&row.WatchedAt, &row.Rating, &row.Tags, &row.Status, &row.MovieID, &row.TMDBID,
		&row.Confidence, &row.Reasons, &row.Error, &row.CreatedAt, &row.ResolvedAt)
	return row, err
}

func (r *ImportRepository) GetRow(rowID uuid.UUID) (*models.ImportRow, error) {
	row, err := scanRow(r.db.QueryRow(
		`SELECT `+rowColumns+` FROM import_rows r WHERE r.id = $1`, rowID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("import row not found")
	}
	return row, err
}

func (r *ImportRepository) ListPendingRows(batchID uuid.UUID) ([]*models.ImportRow, error) {
	rows, err := r.db.Query(`
		SELECT `+rowColumns+` FROM import_rows r
		WHERE r.batch_id = $1 AND r.status = $2
		ORDER BY r.row_number`, batchID, models.RowPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRows(rows)
}

// SetRowOutcome records the match result for a processed row.
func (r *ImportRepository) SetRowOutcome(rowID uuid.UUID, status models.RowStatus,
	movieID *uuid.UUID, tmdbID *int, confidence *int, reasons []string, rowErr *string) error {
	_, err := r.db.Exec(`
		UPDATE import_rows SET status = $2, movie_id = $3, tmdb_id = $4,
			confidence = $5, reasons = $6, error = $7
		WHERE id = $1`,
		rowID, status, movieID, tmdbID, confidence, pq.Array(reasons), rowErr)
	return err
}

// ResolveRow finalizes a review-queue row as approved or rejected.
func (r *ImportRepository) ResolveRow(rowID uuid.UUID, status models.RowStatus,
	movieID *uuid.UUID, tmdbID *int) error {
	res, err := r.db.Exec(`
		UPDATE import_rows SET status = $2, movie_id = $3, tmdb_id = $4, resolved_at = NOW()
		WHERE id = $1 AND status = $5`,
		rowID, status, movieID, tmdbID, models.RowReview)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("row is not awaiting review")
	}
	return nil
}

// ListReviewRows returns rows awaiting approval for a user, worst score
// first so the most likely mismatches surface at the top of the dashboard.
func (r *ImportRepository) ListReviewRows(userID uuid.UUID, limit, offset int) ([]*models.ImportRow, int, error) {
	var total int
	if err := r.db.QueryRow(`
		SELECT COUNT(*) FROM import_rows r
		JOIN import_batches b ON r.batch_id = b.id
		WHERE b.user_id = $1 AND r.status = $2`, userID, models.RowReview).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(`
		SELECT `+rowColumns+` FROM import_rows r
		JOIN import_batches b ON r.batch_id = b.id
		WHERE b.user_id = $1 AND r.status = $2
		ORDER BY r.confidence ASC NULLS FIRST, r.created_at ASC
		LIMIT $3 OFFSET $4`, userID, models.RowReview, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result, err := collectRows(rows)
	return result, total, err
}

func (r *ImportRepository) ListRowsByBatch(batchID uuid.UUID) ([]*models.ImportRow, error) {
	rows, err := r.db.Query(`
		SELECT `+rowColumns+` FROM import_rows r
		WHERE r.batch_id = $1 ORDER BY r.row_number`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRows(rows)
}

func collectRows(rows *sql.Rows) ([]*models.ImportRow, error) {
	var result []*models.ImportRow
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// RowOwner returns the user owning the batch a row belongs to.
func (r *ImportRepository) RowOwner(rowID uuid.UUID) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.db.QueryRow(`
		SELECT b.user_id FROM import_rows r
		JOIN import_batches b ON r.batch_id = b.id
		WHERE r.id = $1`, rowID).Scan(&userID)
	if err == sql.ErrNoRows {
		return uuid.Nil, fmt.Errorf("import row not found")
	}
	return userID, err
}
