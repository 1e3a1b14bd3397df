// Package ingest holds what import providers share.
package ingest

import (
	"context"
	"io"
)

// Result holds the outcome of an import.
type Result struct {
	WorkoutsReceived int      `json:"workouts_received"`
	WorkoutsImported int      `json:"workouts_imported"`
	WorkoutsFailed   int      `json:"workouts_failed"`
	SetsReceived     int      `json:"sets_received"`
	SetsImported     int      `json:"sets_imported"`
	Volume           float64  `json:"volume"`
	Errors           []string `json:"errors,omitempty"`

	Message string `json:"message,omitempty"`
}

// Provider imports one export format into a user's history.
type Provider interface {
	Ingest(ctx context.Context, r io.Reader, userID int) (*Result, error)
}
