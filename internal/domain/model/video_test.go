package model

import (
	"testing"
)

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"PENDING_UPLOAD is valid", StatusPendingUpload, true},
		{"UPLOADED is valid", StatusUploaded, true},
		{"PROCESSING is valid", StatusProcessing, true},
		{"READY is valid", StatusReady, true},
		{"ERROR is valid", StatusError, true},
		{"empty string is invalid", Status(""), false},
		{"unknown status is invalid", Status("UNKNOWN"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.want {
				t.Errorf("Status.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus_IsProcessable(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPendingUpload, true},
		{StatusUploaded, true},
		{StatusProcessing, false},
		{StatusReady, false},
		{StatusError, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := tt.status.IsProcessable(); got != tt.want {
				t.Errorf("Status.IsProcessable() = %v, want %v", got, tt.want)
			}
		})
	}
}
