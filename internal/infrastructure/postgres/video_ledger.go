package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bad-Al-code/video-proccessing-service/internal/domain/model"
	"github.com/bad-Al-code/video-proccessing-service/internal/domain/repository"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// VideoLedger implements repository.VideoLedger using PostgreSQL.
type VideoLedger struct {
	db DBTX
}

// NewVideoLedger creates a new VideoLedger instance.
func NewVideoLedger(db DBTX) *VideoLedger {
	return &VideoLedger{db: db}
}

// GetByID retrieves a video record by its unique identifier.
func (l *VideoLedger) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	const query = `
		SELECT id, status, outputs, original_name, mime_type, processed_at, created_at, updated_at
		FROM videos
		WHERE id = $1
	`

	video, err := scanVideo(l.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video by ID: %w", err)
	}

	return video, nil
}

// ClaimProcessing transitions the record to PROCESSING only if it is still in
// a pre-processing state. The conditional WHERE clause is what makes the
// idempotency gate safe against two near-simultaneous deliveries: only one
// of them can match a row.
func (l *VideoLedger) ClaimProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `
		UPDATE videos
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status IN ($4, $5)
	`

	tag, err := l.db.Exec(ctx, query,
		id,
		model.StatusProcessing.String(),
		time.Now(),
		model.StatusPendingUpload.String(),
		model.StatusUploaded.String(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim video for processing: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// MarkReady transitions the record to READY, recording outputs and completion time.
func (l *VideoLedger) MarkReady(ctx context.Context, id uuid.UUID, outputs map[string]string, processedAt time.Time) error {
	const query = `
		UPDATE videos
		SET status = $2, outputs = $3, processed_at = $4, updated_at = $5
		WHERE id = $1
	`

	outputsJSON, err := json.Marshal(outputs)
	if err != nil {
		return fmt.Errorf("failed to marshal outputs: %w", err)
	}

	tag, err := l.db.Exec(ctx, query,
		id,
		model.StatusReady.String(),
		outputsJSON,
		processedAt,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark video ready: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrVideoNotFound
	}

	return nil
}

// MarkError transitions the record to ERROR.
func (l *VideoLedger) MarkError(ctx context.Context, id uuid.UUID) error {
	const query = `
		UPDATE videos
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := l.db.Exec(ctx, query, id, model.StatusError.String(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark video errored: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrVideoNotFound
	}

	return nil
}

// scanVideo scans a single row into a Video model.
func scanVideo(row pgx.Row) (*model.Video, error) {
	var (
		video        model.Video
		status       string
		outputsJSON  []byte
		originalName *string
		mimeType     *string
	)

	err := row.Scan(
		&video.ID,
		&status,
		&outputsJSON,
		&originalName,
		&mimeType,
		&video.ProcessedAt,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	video.Status = model.Status(status)
	if !video.Status.IsValid() {
		return nil, fmt.Errorf("unknown video status %q", status)
	}
	if len(outputsJSON) > 0 {
		if err := json.Unmarshal(outputsJSON, &video.Outputs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outputs: %w", err)
		}
	}
	if originalName != nil {
		video.OriginalName = *originalName
	}
	if mimeType != nil {
		video.MimeType = *mimeType
	}

	return &video, nil
}

// Compile-time verification that VideoLedger implements repository.VideoLedger.
var _ repository.VideoLedger = (*VideoLedger)(nil)
