package repository

import (
	"context"

	"github.com/google/uuid"
)

// UploadEvent is the parsed "video uploaded" message that drives one
// pipeline run. One event corresponds to exactly one queue message.
type UploadEvent struct {
	VideoID          uuid.UUID `json:"videoId"`
	SourceKey        string    `json:"s3Key"`
	OriginalFilename string    `json:"originalFilename"`
	MimeType         string    `json:"mimeType"`
}

// ResultKind identifies the outcome carried by a ResultEvent.
type ResultKind string

const (
	ResultCompleted ResultKind = "completed"
	ResultFailed    ResultKind = "failed"
)

// ResultEvent is the notification emitted after a pipeline run settles.
// Completed events carry the output-key mapping; failed events carry the
// error message and the original source key.
type ResultEvent struct {
	Kind      ResultKind        `json:"-"`
	VideoID   uuid.UUID         `json:"videoId"`
	Status    string            `json:"status"`
	Outputs   map[string]string `json:"outputs,omitempty"`
	Error     string            `json:"error,omitempty"`
	SourceKey string            `json:"s3Key,omitempty"`
}

// ResultPublisher emits completion/failure notifications. Publishing is
// best-effort: the ledger is the source of truth and callers must not let a
// publish failure change a job verdict.
type ResultPublisher interface {
	Publish(ctx context.Context, event ResultEvent) error
}

// UploadEventConsumer receives upload events one at a time and translates the
// handler's verdict into queue acknowledgement: nil acks the message, a non-nil
// error rejects it without requeue, landing it on the dead-letter queue.
type UploadEventConsumer interface {
	// Consume blocks, delivering events to handler until the context is
	// cancelled or the underlying channel closes.
	Consume(ctx context.Context, handler func(ctx context.Context, event UploadEvent) error) error

	// Close gracefully closes the connection to the message broker.
	Close() error
}
