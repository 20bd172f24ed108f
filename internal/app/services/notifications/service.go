// Package notifications dispatches notification records and manages their
// read state.
package notifications

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/identity"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/notification"
	"github.com/ProvenDev-Labs/review_layer/internal/app/metrics"
	"github.com/ProvenDev-Labs/review_layer/internal/app/storage"
	apperrors "github.com/ProvenDev-Labs/review_layer/internal/errors"
	"github.com/ProvenDev-Labs/review_layer/pkg/logger"
)

// Service creates notifications and exposes read/unread semantics.
type Service struct {
	store storage.NotificationStore
	log   *logger.Logger
}

// New constructs a notification service.
func New(store storage.NotificationStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("notifications")
	}
	return &Service{store: store, log: log}
}

// Notify writes a notification for a specific actor id or the ADMIN role.
func (s *Service) Notify(ctx context.Context, recipient, title, message string) (notification.Notification, error) {
	if strings.TrimSpace(recipient) == "" {
		return notification.Notification{}, apperrors.Validation("recipient is required")
	}

	created, err := s.store.CreateNotification(ctx, notification.Notification{
		Recipient: recipient,
		Title:     title,
		Message:   message,
	})
	if err != nil {
		return notification.Notification{}, fmt.Errorf("dispatch notification: %w", err)
	}

	metrics.ObserveNotification(created.Recipient == notification.RecipientAdmin)
	s.log.Debugf("notification %s dispatched to %s", created.ID, created.Recipient)
	return created, nil
}

// MarkRead flips a notification's read flag. Already-read notifications are
// a no-op.
func (s *Service) MarkRead(ctx context.Context, id string) (notification.Notification, error) {
	return s.store.MarkNotificationRead(ctx, id)
}

// MarkAllRead marks every unread notification in the caller's current view.
// Notifications arriving after the snapshot was taken are untouched; the
// operation is safely re-runnable. It returns the number marked.
func (s *Service) MarkAllRead(ctx context.Context, view []notification.Notification) (int, error) {
	marked := 0
	for _, n := range view {
		if n.Read {
			continue
		}
		if _, err := s.store.MarkNotificationRead(ctx, n.ID); err != nil {
			// Deleted or already gone entries do not fail the sweep.
			if apperrors.IsKind(err, apperrors.KindNotFound) {
				continue
			}
			return marked, fmt.Errorf("mark all read: %w", err)
		}
		marked++
	}
	return marked, nil
}

// ListFor returns the recipient-scoped notification list for an actor,
// newest first.
func (s *Service) ListFor(ctx context.Context, actor identity.Actor) ([]notification.Notification, error) {
	all, err := s.store.ListNotifications(ctx)
	if err != nil {
		return nil, err
	}

	target := RecipientFor(actor)
	result := make([]notification.Notification, 0, len(all))
	for _, n := range all {
		if n.Recipient == target {
			result = append(result, n)
		}
	}
	SortNewestFirst(result)
	return result, nil
}

// RecipientFor resolves the notification recipient key for an actor: admins
// read the ADMIN role mailbox, everyone else their own.
func RecipientFor(actor identity.Actor) string {
	if actor.IsAdmin {
		return notification.RecipientAdmin
	}
	return actor.ID
}

// SortNewestFirst orders notifications by creation time descending. The
// store imposes no ordering, so every consumer re-sorts its snapshot.
func SortNewestFirst(list []notification.Notification) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

// Unread counts the unread notifications in a snapshot.
func Unread(list []notification.Notification) int {
	count := 0
	for _, n := range list {
		if !n.Read {
			count++
		}
	}
	return count
}
