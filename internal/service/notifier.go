package service

import (
	"context"
	"time"

	"fra-atlas/internal/models"
	"fra-atlas/pkg/events"

	"go.uber.org/zap"
)

type ClaimEvent struct {
	ID         string    `json:"id"`
	ClaimID    string    `json:"claimId"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type FileEvent struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	Status     string    `json:"status"`
	ClaimID    *string   `json:"claimId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// notifier publishes lifecycle events best-effort. A failed publish is
// logged and never fails the request that triggered it.
type notifier struct {
	publisher events.Publisher
	logger    *zap.Logger
}

func (n notifier) publish(ctx context.Context, subject string, payload any) {
	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(context.WithoutCancel(ctx), subject, payload); err != nil {
		n.logger.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

func (n notifier) claim(ctx context.Context, subject string, c *models.Claim) {
	n.publish(ctx, subject, ClaimEvent{
		ID:         c.ID.String(),
		ClaimID:    c.ClaimID,
		Status:     string(c.Status),
		OccurredAt: time.Now().UTC(),
	})
}

func (n notifier) file(ctx context.Context, subject string, f *models.UploadedFile) {
	ev := FileEvent{
		ID:         f.ID.String(),
		FileName:   f.FileName,
		Status:     string(f.Status),
		OccurredAt: time.Now().UTC(),
	}
	if f.ClaimID != nil {
		id := f.ClaimID.String()
		ev.ClaimID = &id
	}
	n.publish(ctx, subject, ev)
}
