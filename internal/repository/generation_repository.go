package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/basel-ax/dallegen/internal/domain"
)

// GenerationRepository defines the interface for generation history access
type GenerationRepository interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, prompt string) (int, error)
	MarkDone(ctx context.Context, id int, filePath, imageURL string) error
	MarkFailed(ctx context.Context, id int, reason string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Generation, error)
}

// PostgresGenerationRepository implements GenerationRepository for PostgreSQL
type PostgresGenerationRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresGenerationRepository creates a new PostgreSQL generation repository
func NewPostgresGenerationRepository(db *sql.DB) *PostgresGenerationRepository {
	return &PostgresGenerationRepository{db: db, now: time.Now}
}

// EnsureSchema creates the generations table if it does not exist
func (r *PostgresGenerationRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS generations (
			id         SERIAL PRIMARY KEY,
			prompt     TEXT NOT NULL,
			file_path  TEXT NOT NULL DEFAULT '',
			image_url  TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL,
			error      TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`

	_, err := r.db.ExecContext(ctx, query)
	return err
}

// Create stores a pending generation and returns its id
func (r *PostgresGenerationRepository) Create(ctx context.Context, prompt string) (int, error) {
	query := `
		INSERT INTO generations (prompt, status, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING id
	`

	var id int
	err := r.db.QueryRowContext(ctx, query, prompt, domain.StatusPending, r.now()).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

// MarkDone records where the generated image was stored
func (r *PostgresGenerationRepository) MarkDone(ctx context.Context, id int, filePath, imageURL string) error {
	query := `
		UPDATE generations
		SET status = $1, file_path = $2, image_url = $3, updated_at = $4
		WHERE id = $5
	`

	_, err := r.db.ExecContext(ctx, query, domain.StatusDone, filePath, imageURL, r.now(), id)
	return err
}

// MarkFailed records why a generation failed
func (r *PostgresGenerationRepository) MarkFailed(ctx context.Context, id int, reason string) error {
	query := `
		UPDATE generations
		SET status = $1, error = $2, updated_at = $3
		WHERE id = $4
	`

	_, err := r.db.ExecContext(ctx, query, domain.StatusFailed, reason, r.now(), id)
	return err
}

// DeleteOlderThan removes history rows created before cutoff
func (r *PostgresGenerationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM generations
		WHERE created_at < $1
	`

	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// ListRecent returns the newest generations first
func (r *PostgresGenerationRepository) ListRecent(ctx context.Context, limit int) ([]domain.Generation, error) {
	query := `
		SELECT id, prompt, file_path, image_url, status, error, created_at, updated_at
		FROM generations
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var generations []domain.Generation
	for rows.Next() {
		var g domain.Generation
		if err := rows.Scan(
			&g.ID,
			&g.Prompt,
			&g.FilePath,
			&g.ImageURL,
			&g.Status,
			&g.Error,
			&g.CreatedAt,
			&g.UpdatedAt,
		); err != nil {
			return nil, err
		}
		generations = append(generations, g)
	}

	return generations, rows.Err()
}

// NopGenerationRepository is used when no history database is configured
type NopGenerationRepository struct{}

func (NopGenerationRepository) EnsureSchema(context.Context) error { return nil }

func (NopGenerationRepository) Create(context.Context, string) (int, error) { return 0, nil }

func (NopGenerationRepository) MarkDone(context.Context, int, string, string) error { return nil }

func (NopGenerationRepository) MarkFailed(context.Context, int, string) error { return nil }

func (NopGenerationRepository) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (NopGenerationRepository) ListRecent(context.Context, int) ([]domain.Generation, error) {
	return nil, nil
}
