package lark

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/application/port"
)

const (
	defaultReceiveIDType = "chat_id"
	msgTypeInteractive   = "interactive"
)

// MessageSender is the part of Client the notifier needs
type MessageSender interface {
	SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error)
}

// ReviewNotifier posts human review requests as interactive cards
type ReviewNotifier struct {
	sender        MessageSender
	receiveID     string
	receiveIDType string
	logger        *zap.Logger
}

// NewReviewNotifier creates a notifier posting to receiveID. receiveIDType
// defaults to chat_id.
func NewReviewNotifier(sender MessageSender, receiveIDType, receiveID string, logger *zap.Logger) (*ReviewNotifier, error) {
	if sender == nil {
		return nil, fmt.Errorf("message sender is required")
	}
	if receiveID == "" {
		return nil, fmt.Errorf("review receive id cannot be empty")
	}
	if receiveIDType == "" {
		receiveIDType = defaultReceiveIDType
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewNotifier{
		sender:        sender,
		receiveID:     receiveID,
		receiveIDType: receiveIDType,
		logger:        logger,
	}, nil
}

// NotifyReview sends one review card
func (n *ReviewNotifier) NotifyReview(ctx context.Context, req port.ReviewRequest) error {
	card, err := json.Marshal(buildReviewCard(req))
	if err != nil {
		return fmt.Errorf("failed to marshal card content: %w", err)
	}

	messageID, err := n.sender.SendMessage(ctx, n.receiveIDType, n.receiveID, msgTypeInteractive, string(card))
	if err != nil {
		return fmt.Errorf("failed to send review request for %s: %w", req.ValidationID, err)
	}

	n.logger.Info("Review request sent",
		zap.String("validation_id", req.ValidationID),
		zap.String("project_id", req.ProjectID),
		zap.String("message_id", messageID))
	return nil
}

var _ port.ReviewNotifier = (*ReviewNotifier)(nil)
