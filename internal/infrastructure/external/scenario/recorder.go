package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/application/port"
)

// Mode selects how a Recorder treats requests
type Mode string

const (
	// ModeRecord forwards requests and stores every response
	ModeRecord Mode = "record"
	// ModePlayback answers from the store only
	ModePlayback Mode = "playback"
	// ModePassthrough forwards requests without touching the store
	ModePassthrough Mode = "passthrough"
)

// ParseMode converts a case-insensitive mode name
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeRecord, ModePlayback, ModePassthrough:
		return m, nil
	default:
		return "", fmt.Errorf("unknown recorder mode: %q", s)
	}
}

// Recorder wraps a provider with record-once, playback-many fixtures keyed
// by port.CacheKey
type Recorder struct {
	mode     Mode
	upstream port.ContentGenerationProvider
	store    port.RecordingStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewRecorder creates a recorder. upstream may be nil in playback mode.
func NewRecorder(mode Mode, upstream port.ContentGenerationProvider, store port.RecordingStore, logger *zap.Logger) (*Recorder, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if store == nil && mode != ModePassthrough {
		return nil, fmt.Errorf("recorder in %s mode needs a store", mode)
	}
	if upstream == nil && mode != ModePlayback {
		return nil, fmt.Errorf("recorder in %s mode needs an upstream provider", mode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		mode:     mode,
		upstream: upstream,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Mode returns the recorder's mode
func (r *Recorder) Mode() Mode {
	return r.mode
}

// GetResponse serves req according to the recorder's mode
func (r *Recorder) GetResponse(ctx context.Context, req port.ProviderRequest) (*port.ProviderResponse, error) {
	key := port.CacheKey(req)

	switch r.mode {
	case ModePlayback:
		rec, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, port.ErrRecordingNotFound) {
				r.logger.Warn("No recording for request",
					zap.String("validator_id", req.ValidatorID),
					zap.String("cache_key", key))
			}
			return nil, fmt.Errorf("playback %s: %w", req.ValidatorID, err)
		}
		resp := rec.Response
		return &resp, nil

	case ModeRecord:
		resp, err := r.upstream.GetResponse(ctx, req)
		if err != nil {
			return nil, err
		}
		rec := &port.Recording{
			Key:         key,
			ValidatorID: req.ValidatorID,
			ContentType: req.ContentType,
			Response:    *resp,
			RecordedAt:  r.now(),
		}
		if err := r.store.Put(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to record response for %s: %w", req.ValidatorID, err)
		}
		r.logger.Debug("Recorded response",
			zap.String("validator_id", req.ValidatorID),
			zap.String("cache_key", key))
		return resp, nil

	default:
		return r.upstream.GetResponse(ctx, req)
	}
}

// MemoryStore is an in-process RecordingStore
type MemoryStore struct {
	mu         sync.RWMutex
	recordings map[string]port.Recording
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recordings: make(map[string]port.Recording)}
}

// Get returns the recording stored under key
func (s *MemoryStore) Get(ctx context.Context, key string) (*port.Recording, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recordings[key]
	if !ok {
		return nil, port.ErrRecordingNotFound
	}
	return &rec, nil
}

// Put stores rec, replacing any recording with the same key
func (s *MemoryStore) Put(ctx context.Context, rec *port.Recording) error {
	if rec == nil || rec.Key == "" {
		return fmt.Errorf("recording has no key")
	}
	s.mu.Lock()
	s.recordings[rec.Key] = *rec
	s.mu.Unlock()
	return nil
}

// Count returns the number of stored recordings
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recordings), nil
}
