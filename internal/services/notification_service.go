package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourly/internal/helpers"
	"github.com/joshua-takyi/tourly/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultInboxLimit = 50

// Notifier delivers an inbox message. Delivery is best effort: failures are
// logged by the implementation and never reported to the caller.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, message string, meta map[string]string)
}

type NotificationService struct {
	repo   models.NotificationRepo
	logger *slog.Logger
}

func NewNotificationService(repo models.NotificationRepo, logger *slog.Logger) *NotificationService {
	return &NotificationService{repo: repo, logger: logger}
}

type Inbox struct {
	Notifications []*models.Notification `json:"notifications"`
	Unread        int64                  `json:"unread"`
}

func (ns *NotificationService) Notify(ctx context.Context, userID uuid.UUID, kind, message string, meta map[string]string) {
	n := &models.Notification{
		UserID:    userID,
		Type:      kind,
		Message:   message,
		Meta:      meta,
		CreatedAt: time.Now(),
	}
	if err := ns.repo.InsertNotification(ctx, n); err != nil {
		ns.logger.Error("failed to store notification",
			"user_id", userID,
			"type", kind,
			"error", err,
		)
	}
}

func (ns *NotificationService) ListNotifications(ctx context.Context, id helpers.Identity, limit int64) (*Inbox, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthorized
	}
	if limit <= 0 || limit > defaultInboxLimit {
		limit = defaultInboxLimit
	}
	list, err := ns.repo.ListNotifications(ctx, id.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := ns.repo.CountUnreadNotifications(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	return &Inbox{Notifications: list, Unread: unread}, nil
}

func (ns *NotificationService) MarkRead(ctx context.Context, id helpers.Identity, notificationID string) error {
	if !id.Authenticated() {
		return ErrUnauthorized
	}
	oid, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		return fmt.Errorf("%w: invalid notification ID", ErrInvalidInput)
	}
	if err := ns.repo.MarkNotificationRead(ctx, id.UserID, oid); err != nil {
		if errors.Is(err, models.ErrNoMatch) {
			return fmt.Errorf("notification: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (ns *NotificationService) MarkAllRead(ctx context.Context, id helpers.Identity) (int64, error) {
	if !id.Authenticated() {
		return 0, ErrUnauthorized
	}
	n, err := ns.repo.MarkAllNotificationsRead(ctx, id.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}
