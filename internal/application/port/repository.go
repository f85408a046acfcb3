package port

import (
	"context"
	"errors"
	"time"
)

// ErrRecordingNotFound is returned when no response was recorded for a key
var ErrRecordingNotFound = errors.New("recording not found")

// Recording is a stored provider exchange
type Recording struct {
	Key         string
	ValidatorID string
	ContentType string
	Response    ProviderResponse
	RecordedAt  time.Time
}

// RecordingStore persists provider responses for record/playback
type RecordingStore interface {
	// Get returns ErrRecordingNotFound when key has no recording
	Get(ctx context.Context, key string) (*Recording, error)
	// Put stores or replaces the recording under rec.Key
	Put(ctx context.Context, rec *Recording) error
	Count(ctx context.Context) (int, error)
}
