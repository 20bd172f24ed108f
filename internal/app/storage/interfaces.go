package storage

import (
	"context"

	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/item"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/notification"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/profile"
)

// ItemFilter selects the items visible to one subscriber. A nil filter
// selects everything.
type ItemFilter func(item.Item) bool

// NotificationFilter selects the notifications visible to one subscriber.
type NotificationFilter func(notification.Notification) bool

// ItemStore persists submission records and exposes live snapshots of them.
//
// Watch channels carry full filtered result sets, not diffs: a new snapshot
// is delivered whenever any member of the collection changes, the first one
// immediately after subscription. Intra-snapshot ordering is undefined and
// must be imposed by the consumer. Cancelling the context closes the channel
// and releases the subscription; slow consumers may observe dropped
// intermediate snapshots but always receive the latest.
type ItemStore interface {
	CreateItem(ctx context.Context, it item.Item) (item.Item, error)
	GetItem(ctx context.Context, id string) (item.Item, error)
	UpdateItem(ctx context.Context, it item.Item) (item.Item, error)
	DeleteItem(ctx context.Context, id string) error
	ListItems(ctx context.Context) ([]item.Item, error)
	WatchItems(ctx context.Context, filter ItemFilter) (<-chan []item.Item, error)
}

// NotificationStore persists notification records. Records are append-only
// apart from the read flag, which MarkNotificationRead moves monotonically
// from false to true.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error)
	GetNotification(ctx context.Context, id string) (notification.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) (notification.Notification, error)
	ListNotifications(ctx context.Context) ([]notification.Notification, error)
	WatchNotifications(ctx context.Context, filter NotificationFilter) (<-chan []notification.Notification, error)
}

// ProfileStore persists directory entries for authenticated users.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error)
	GetProfile(ctx context.Context, id string) (profile.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (profile.Profile, error)
	UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
	ListProfiles(ctx context.Context) ([]profile.Profile, error)
}
