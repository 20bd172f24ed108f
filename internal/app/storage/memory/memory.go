package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/item"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/notification"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/profile"
	"github.com/ProvenDev-Labs/review_layer/internal/app/storage"
	apperrors "github.com/ProvenDev-Labs/review_layer/internal/errors"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local
// development. Watch subscriptions get latest-wins delivery: a subscriber
// that lags only skips intermediate snapshots, never the newest one.
type Store struct {
	mu              sync.RWMutex
	nextID          int64
	watcherSeq      int64
	items           map[string]item.Item
	notifications   map[string]notification.Notification
	profiles        map[string]profile.Profile
	profilesByEmail map[string]string
	itemWatchers    map[int64]*itemWatcher
	notifWatchers   map[int64]*notificationWatcher
}

type itemWatcher struct {
	filter storage.ItemFilter
	ch     chan []item.Item
}

type notificationWatcher struct {
	filter storage.NotificationFilter
	ch     chan []notification.Notification
}

var _ storage.ItemStore = (*Store)(nil)
var _ storage.NotificationStore = (*Store)(nil)
var _ storage.ProfileStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:          1,
		items:           make(map[string]item.Item),
		notifications:   make(map[string]notification.Notification),
		profiles:        make(map[string]profile.Profile),
		profilesByEmail: make(map[string]string),
		itemWatchers:    make(map[int64]*itemWatcher),
		notifWatchers:   make(map[int64]*notificationWatcher),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// ItemStore implementation ----------------------------------------------------

func (s *Store) CreateItem(_ context.Context, it item.Item) (item.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it.ID == "" {
		it.ID = s.nextIDLocked()
	} else if _, exists := s.items[it.ID]; exists {
		return item.Item{}, apperrors.Persistence("item "+it.ID+" already exists", nil)
	}

	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now().UTC()
	}

	s.items[it.ID] = it
	s.publishItemsLocked()
	return it, nil
}

func (s *Store) GetItem(_ context.Context, id string) (item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return item.Item{}, apperrors.NotFound("item %s not found", id)
	}
	return it, nil
}

func (s *Store) UpdateItem(_ context.Context, it item.Item) (item.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.items[it.ID]
	if !ok {
		return item.Item{}, apperrors.NotFound("item %s not found", it.ID)
	}

	it.OwnerID = original.OwnerID
	it.OwnerEmail = original.OwnerEmail
	it.CreatedAt = original.CreatedAt

	s.items[it.ID] = it
	s.publishItemsLocked()
	return it, nil
}

func (s *Store) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return apperrors.NotFound("item %s not found", id)
	}
	delete(s.items, id)
	s.publishItemsLocked()
	return nil
}

func (s *Store) ListItems(_ context.Context) ([]item.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemSnapshotLocked(nil), nil
}

func (s *Store) WatchItems(ctx context.Context, filter storage.ItemFilter) (<-chan []item.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.watcherSeq++
	id := s.watcherSeq
	w := &itemWatcher{filter: filter, ch: make(chan []item.Item, 1)}
	s.itemWatchers[id] = w
	w.ch <- s.itemSnapshotLocked(filter)

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.itemWatchers[id]; ok {
			delete(s.itemWatchers, id)
			close(w.ch)
		}
	}()

	return w.ch, nil
}

func (s *Store) itemSnapshotLocked(filter storage.ItemFilter) []item.Item {
	result := make([]item.Item, 0, len(s.items))
	for _, it := range s.items {
		if filter == nil || filter(it) {
			result = append(result, it)
		}
	}
	return result
}

func (s *Store) publishItemsLocked() {
	for _, w := range s.itemWatchers {
		snap := s.itemSnapshotLocked(w.filter)
		for {
			select {
			case w.ch <- snap:
			default:
				// Replace the undelivered snapshot with the newer one.
				select {
				case <-w.ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// NotificationStore implementation --------------------------------------------

func (s *Store) CreateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = s.nextIDLocked()
	} else if _, exists := s.notifications[n.ID]; exists {
		return notification.Notification{}, apperrors.Persistence("notification "+n.ID+" already exists", nil)
	}

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	s.notifications[n.ID] = n
	s.publishNotificationsLocked()
	return n, nil
}

func (s *Store) GetNotification(_ context.Context, id string) (notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return notification.Notification{}, apperrors.NotFound("notification %s not found", id)
	}
	return n, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id string) (notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return notification.Notification{}, apperrors.NotFound("notification %s not found", id)
	}
	if n.Read {
		return n, nil
	}
	n.Read = true
	s.notifications[id] = n
	s.publishNotificationsLocked()
	return n, nil
}

func (s *Store) ListNotifications(_ context.Context) ([]notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notificationSnapshotLocked(nil), nil
}

func (s *Store) WatchNotifications(ctx context.Context, filter storage.NotificationFilter) (<-chan []notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.watcherSeq++
	id := s.watcherSeq
	w := &notificationWatcher{filter: filter, ch: make(chan []notification.Notification, 1)}
	s.notifWatchers[id] = w
	w.ch <- s.notificationSnapshotLocked(filter)

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.notifWatchers[id]; ok {
			delete(s.notifWatchers, id)
			close(w.ch)
		}
	}()

	return w.ch, nil
}

func (s *Store) notificationSnapshotLocked(filter storage.NotificationFilter) []notification.Notification {
	result := make([]notification.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if filter == nil || filter(n) {
			result = append(result, n)
		}
	}
	return result
}

func (s *Store) publishNotificationsLocked() {
	for _, w := range s.notifWatchers {
		snap := s.notificationSnapshotLocked(w.filter)
		for {
			select {
			case w.ch <- snap:
			default:
				select {
				case <-w.ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// ProfileStore implementation --------------------------------------------------

func (s *Store) CreateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	} else if _, exists := s.profiles[p.ID]; exists {
		return profile.Profile{}, apperrors.Persistence("profile "+p.ID+" already exists", nil)
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.AccountStatus == "" {
		p.AccountStatus = profile.StatusActive
	}

	s.profiles[p.ID] = p
	s.profilesByEmail[strings.ToLower(p.Email)] = p.ID
	return p, nil
}

func (s *Store) GetProfile(_ context.Context, id string) (profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return profile.Profile{}, apperrors.NotFound("profile %s not found", id)
	}
	return p, nil
}

func (s *Store) GetProfileByEmail(_ context.Context, email string) (profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.profilesByEmail[strings.ToLower(email)]
	if !ok {
		return profile.Profile{}, apperrors.NotFound("profile for %s not found", email)
	}
	return s.profiles[id], nil
}

func (s *Store) UpdateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.profiles[p.ID]
	if !ok {
		return profile.Profile{}, apperrors.NotFound("profile %s not found", p.ID)
	}

	p.Email = original.Email
	p.CreatedAt = original.CreatedAt

	s.profiles[p.ID] = p
	return p, nil
}

func (s *Store) DeleteProfile(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return apperrors.NotFound("profile %s not found", id)
	}
	delete(s.profiles, id)
	delete(s.profilesByEmail, strings.ToLower(p.Email))
	return nil
}

func (s *Store) ListProfiles(_ context.Context) ([]profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]profile.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		result = append(result, p)
	}
	return result, nil
}
