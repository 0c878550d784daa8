package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run statuses stored in run_history.status.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DefaultQueryLimit is used when a query is given a non-positive limit.
const DefaultQueryLimit = 10

// RunRecord is one row of run_history: a single attempted run, whether it
// produced an image or not.
type RunRecord struct {
	ID             int64     // Auto-incremented primary key
	RunID          string    // UUID assigned by the run loop
	Mode           string    // text2img, img2img or inpaint
	Backend        string    // local, openai or azure
	Model          string    // Model id the engine was built with
	Prompt         string    // Prompt as typed, before parser escaping
	NegativePrompt string    // Empty when not given
	OutputPath     string    // Resolved path, {seed} already substituted
	InitImage      string    // Path of the init image, empty for text2img
	Mask           string    // Path of the mask, empty unless inpainting
	Seed           int64     // Seed used (drawn by the loop when absent)
	Steps          int       // Inference steps
	GuidanceScale  float64   // Classifier-free guidance scale
	Eta            float64   // DDIM eta
	Strength       float64   // Init image strength
	Status         string    // StatusSuccess or StatusError
	ErrorStage     string    // parse, load or generate; empty on success
	ErrorMessage   string    // Error text; empty on success
	DurationMS     int64     // Wall time of the run in milliseconds
	CreatedAt      time.Time // When the run finished
}

// Repository reads and writes run_history.
type Repository struct {
	db  *Database
	now func() time.Time
}

// NewRepository creates a repository over an opened Database.
func NewRepository(db *Database) *Repository {
	return &Repository{db: db, now: time.Now}
}

// InsertRun stores rec and returns its row id. CreatedAt defaults to now.
func (r *Repository) InsertRun(ctx context.Context, rec RunRecord) (int64, error) {
	if r.db == nil {
		return 0, fmt.Errorf("database connection is nil")
	}
	if rec.RunID == "" {
		return 0, fmt.Errorf("run id is required")
	}
	if rec.Status == "" {
		rec.Status = StatusSuccess
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
	}

	query := `
		INSERT INTO run_history (
			run_id, mode, backend, model, prompt, negative_prompt, output_path,
			init_image, mask, seed, steps, guidance_scale, eta, strength,
			status, error_stage, error_message, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		rec.RunID,
		rec.Mode,
		rec.Backend,
		rec.Model,
		rec.Prompt,
		nullString(rec.NegativePrompt),
		rec.OutputPath,
		nullString(rec.InitImage),
		nullString(rec.Mask),
		rec.Seed,
		rec.Steps,
		rec.GuidanceScale,
		rec.Eta,
		rec.Strength,
		rec.Status,
		nullString(rec.ErrorStage),
		nullString(rec.ErrorMessage),
		rec.DurationMS,
		rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// QueryRecentRuns returns up to limit runs, newest first.
func (r *Repository) QueryRecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	query := `
		SELECT id, run_id, mode, backend, model, prompt,
			   COALESCE(negative_prompt, ''), output_path,
			   COALESCE(init_image, ''), COALESCE(mask, ''),
			   seed, steps, guidance_scale, eta, strength, status,
			   COALESCE(error_stage, ''), COALESCE(error_message, ''),
			   duration_ms, created_at
		FROM run_history
		ORDER BY id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var createdAt int64

		err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.Mode,
			&rec.Backend,
			&rec.Model,
			&rec.Prompt,
			&rec.NegativePrompt,
			&rec.OutputPath,
			&rec.InitImage,
			&rec.Mask,
			&rec.Seed,
			&rec.Steps,
			&rec.GuidanceScale,
			&rec.Eta,
			&rec.Strength,
			&rec.Status,
			&rec.ErrorStage,
			&rec.ErrorMessage,
			&rec.DurationMS,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run history row: %w", err)
		}

		rec.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run history rows: %w", err)
	}
	return records, nil
}

// CountRuns returns the number of stored runs. An empty status counts all
// of them.
func (r *Repository) CountRuns(ctx context.Context, status string) (int64, error) {
	if r.db == nil {
		return 0, fmt.Errorf("database connection is nil")
	}

	query := "SELECT COUNT(*) FROM run_history"
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}

	row, err := r.db.QueryRowContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}

	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// nullString converts an empty string to sql.NullString for NULL storage.
func nullString(s string) interface{} {
	if s == "" {
		return sql.NullString{}
	}
	return s
}
