package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bad-Al-code/video-proccessing-service/internal/domain/model"
)

// VideoLedger defines the interface for the durable per-video job ledger.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL).
type VideoLedger interface {
	// GetByID retrieves a video record by its unique identifier.
	// Returns nil and ErrVideoNotFound if the record does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error)

	// ClaimProcessing transitions the record to PROCESSING, but only if it is
	// still in a pre-processing state (PENDING_UPLOAD or UPLOADED). Returns
	// false when the conditional update matched no rows, meaning another
	// delivery already claimed the job or it has reached a terminal state.
	ClaimProcessing(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkReady transitions the record to READY, recording the variant label
	// to storage key mapping and the completion timestamp.
	MarkReady(ctx context.Context, id uuid.UUID, outputs map[string]string, processedAt time.Time) error

	// MarkError transitions the record to ERROR.
	MarkError(ctx context.Context, id uuid.UUID) error
}
