// Package views maintains live, role-scoped projections of the item and
// notification collections for connected actors.
package views

import (
	"context"
	"sort"

	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/identity"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/item"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/notification"
	"github.com/ProvenDev-Labs/review_layer/internal/app/services/notifications"
	"github.com/ProvenDev-Labs/review_layer/internal/app/storage"
	"github.com/ProvenDev-Labs/review_layer/pkg/logger"
)

// Synchronizer derives per-actor views from store subscriptions. Every
// delivered snapshot fully replaces the previous one; consumers must not
// merge. Cancelling the subscription context closes the channel and releases
// the underlying store watch.
type Synchronizer struct {
	items  storage.ItemStore
	notifs storage.NotificationStore
	log    *logger.Logger
}

// New constructs a synchronizer over the two collections.
func New(items storage.ItemStore, notifs storage.NotificationStore, log *logger.Logger) *Synchronizer {
	if log == nil {
		log = logger.NewDefault("views")
	}
	return &Synchronizer{items: items, notifs: notifs, log: log}
}

// Items streams the actor's item view: the full collection for the
// administrator, otherwise only the actor's own submissions. Snapshots are
// sorted newest first.
func (s *Synchronizer) Items(ctx context.Context, actor identity.Actor) (<-chan []item.Item, error) {
	var filter storage.ItemFilter
	if !actor.IsAdmin {
		ownerID := actor.ID
		filter = func(it item.Item) bool { return it.OwnerID == ownerID }
	}

	raw, err := s.items.WatchItems(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make(chan []item.Item, 1)
	go func() {
		defer close(out)
		for snap := range raw {
			sortItemsNewestFirst(snap)
			replace(out, snap)
		}
	}()
	return out, nil
}

// Notifications streams the actor's notification view: the ADMIN mailbox for
// the administrator, otherwise the actor's own. Snapshots are sorted newest
// first.
func (s *Synchronizer) Notifications(ctx context.Context, actor identity.Actor) (<-chan []notification.Notification, error) {
	target := notifications.RecipientFor(actor)
	filter := func(n notification.Notification) bool { return n.Recipient == target }

	raw, err := s.notifs.WatchNotifications(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make(chan []notification.Notification, 1)
	go func() {
		defer close(out)
		for snap := range raw {
			notifications.SortNewestFirst(snap)
			replace(out, snap)
		}
	}()
	return out, nil
}

// ItemsSnapshot returns the actor's current item view without subscribing.
func (s *Synchronizer) ItemsSnapshot(ctx context.Context, actor identity.Actor) ([]item.Item, error) {
	all, err := s.items.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	snap := make([]item.Item, 0, len(all))
	for _, it := range all {
		if actor.IsAdmin || it.OwnerID == actor.ID {
			snap = append(snap, it)
		}
	}
	sortItemsNewestFirst(snap)
	return snap, nil
}

// NotificationsSnapshot returns the actor's current notification view
// without subscribing.
func (s *Synchronizer) NotificationsSnapshot(ctx context.Context, actor identity.Actor) ([]notification.Notification, error) {
	all, err := s.notifs.ListNotifications(ctx)
	if err != nil {
		return nil, err
	}
	target := notifications.RecipientFor(actor)
	snap := make([]notification.Notification, 0, len(all))
	for _, n := range all {
		if n.Recipient == target {
			snap = append(snap, n)
		}
	}
	notifications.SortNewestFirst(snap)
	return snap, nil
}

// replace delivers snap with latest-wins semantics: a pending undelivered
// snapshot is discarded in favour of the newer one.
func replace[T any](out chan []T, snap []T) {
	for {
		select {
		case out <- snap:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}

func sortItemsNewestFirst(list []item.Item) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
