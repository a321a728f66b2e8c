package model

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the processing state of a video.
//
// Transitions are forward-only and enforced by the ledger's conditional
// writes:
//
//	PENDING_UPLOAD / UPLOADED -> PROCESSING -> READY
//	                                       \-> ERROR
//
// READY and ERROR are terminal; a record never moves backward.
type Status string

const (
	StatusPendingUpload Status = "PENDING_UPLOAD"
	StatusUploaded      Status = "UPLOADED"
	StatusProcessing    Status = "PROCESSING"
	StatusReady         Status = "READY"
	StatusError         Status = "ERROR"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPendingUpload, StatusUploaded, StatusProcessing, StatusReady, StatusError:
		return true
	default:
		return false
	}
}

// IsProcessable reports whether a video in this state may be claimed for
// processing. Anything already PROCESSING or terminal is a duplicate delivery.
func (s Status) IsProcessable() bool {
	return s == StatusPendingUpload || s == StatusUploaded
}

func (s Status) String() string {
	return string(s)
}

// Video represents the durable per-video record in the job ledger.
type Video struct {
	ID           uuid.UUID
	Status       Status
	Outputs      map[string]string // variant label -> storage key
	OriginalName string
	MimeType     string
	ProcessedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
