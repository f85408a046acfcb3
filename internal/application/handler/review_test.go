package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/garyjia/content-validation/internal/application/dispatcher"
	"github.com/garyjia/content-validation/internal/application/port"
	"github.com/garyjia/content-validation/internal/domain/event"
)

type recordingNotifier struct {
	requests []port.ReviewRequest
	err      error
}

func (n *recordingNotifier) NotifyReview(ctx context.Context, req port.ReviewRequest) error {
	n.requests = append(n.requests, req)
	return n.err
}

func reviewEvent() *event.Event {
	return event.NewEvent(event.TypeReviewRequested, "val-9", map[string]interface{}{
		event.KeyProjectID:        "book-1",
		event.KeyQualityScore:     55.0,
		event.KeyThreshold:        70.0,
		event.KeyFindings:         6,
		event.KeyCriticalFindings: 2,
	})
}

func TestReviewHandlerBuildsRequest(t *testing.T) {
	n := &recordingNotifier{}
	h := NewReviewHandler(n, nil)

	require.NoError(t, h.Handle(context.Background(), reviewEvent()))
	require.Len(t, n.requests, 1)
	assert.Equal(t, port.ReviewRequest{
		ValidationID:     "val-9",
		ProjectID:        "book-1",
		QualityScore:     55,
		Threshold:        70,
		CriticalFindings: 2,
		TotalFindings:    6,
	}, n.requests[0])
}

func TestReviewHandlerIgnoresOtherEvents(t *testing.T) {
	n := &recordingNotifier{}
	h := NewReviewHandler(n, nil)

	require.NoError(t, h.Handle(context.Background(), event.NewEvent(event.TypeValidationCompleted, "v", nil)))
	assert.Empty(t, n.requests)
}

func TestReviewHandlerNotifierError(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	boom := errors.New("lark unavailable")
	h := NewReviewHandler(&recordingNotifier{err: boom}, zap.New(core))

	err := h.Handle(context.Background(), reviewEvent())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, logs.FilterMessage("Failed to notify reviewers").Len())
}

func TestReviewHandlerSubscribe(t *testing.T) {
	n := &recordingNotifier{}
	d := dispatcher.NewDispatcher()
	defer d.Close()

	NewReviewHandler(n, nil).Subscribe(d)
	require.NoError(t, d.Dispatch(context.Background(), reviewEvent()))
	assert.Len(t, n.requests, 1)
}
