// Package handler holds lifecycle event subscribers that drive ports
package handler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/application/dispatcher"
	"github.com/garyjia/content-validation/internal/application/port"
	"github.com/garyjia/content-validation/internal/domain/event"
)

const reviewHandlerName = "review-notifier"

// ReviewHandler forwards review.requested events to a ReviewNotifier
type ReviewHandler struct {
	notifier port.ReviewNotifier
	logger   *zap.Logger
}

// NewReviewHandler creates a review handler
func NewReviewHandler(notifier port.ReviewNotifier, logger *zap.Logger) *ReviewHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewHandler{
		notifier: notifier,
		logger:   logger,
	}
}

// Subscribe registers the handler for review.requested
func (h *ReviewHandler) Subscribe(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeReviewRequested, reviewHandlerName, h.Handle)
}

// Handle converts the event into a review request and sends it
func (h *ReviewHandler) Handle(ctx context.Context, evt *event.Event) error {
	if evt.Type != event.TypeReviewRequested {
		return nil
	}

	req := port.ReviewRequest{
		ValidationID:     evt.ValidationID,
		ProjectID:        evt.GetPayloadString(event.KeyProjectID),
		QualityScore:     evt.GetPayloadFloat(event.KeyQualityScore),
		Threshold:        evt.GetPayloadFloat(event.KeyThreshold),
		CriticalFindings: int(evt.GetPayloadInt(event.KeyCriticalFindings)),
		TotalFindings:    int(evt.GetPayloadInt(event.KeyFindings)),
	}

	if err := h.notifier.NotifyReview(ctx, req); err != nil {
		h.logger.Error("Failed to notify reviewers",
			zap.String("validation_id", req.ValidationID),
			zap.Error(err))
		return fmt.Errorf("notify review: %w", err)
	}
	return nil
}
