// Package postgres implements the storage interfaces on PostgreSQL. Watch
// subscriptions are driven by LISTEN/NOTIFY: row triggers raise a channel
// event on every mutation and each subscriber re-queries a full snapshot.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/item"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/notification"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/profile"
	"github.com/ProvenDev-Labs/review_layer/internal/app/storage"
	apperrors "github.com/ProvenDev-Labs/review_layer/internal/errors"
	"github.com/ProvenDev-Labs/review_layer/pkg/logger"
)

const (
	itemsChannel         = "review_items_changed"
	notificationsChannel = "review_notifications_changed"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db  *sql.DB
	dsn string
	log *logger.Logger
}

var _ storage.ItemStore = (*Store)(nil)
var _ storage.NotificationStore = (*Store)(nil)
var _ storage.ProfileStore = (*Store)(nil)

// New creates a Store using the provided database handle. The dsn is reused
// for the dedicated listener connections backing Watch subscriptions.
func New(db *sql.DB, dsn string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewDefault("postgres-store")
	}
	return &Store{db: db, dsn: dsn, log: log}
}

// Schema creates the collections and their notify triggers.
const Schema = `
CREATE TABLE IF NOT EXISTS review_items (
	id UUID PRIMARY KEY,
	owner_id TEXT NOT NULL,
	owner_email TEXT NOT NULL,
	name TEXT NOT NULL,
	tech_stack TEXT NOT NULL,
	repo_url TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	feedback TEXT NOT NULL DEFAULT '',
	ledger_receipt TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS review_notifications (
	id UUID PRIMARY KEY,
	recipient TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	read BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS review_profiles (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	photo_url TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'USER',
	account_status TEXT NOT NULL DEFAULT 'Active',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE OR REPLACE FUNCTION review_notify_change() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify(TG_ARGV[0], TG_OP);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS review_items_notify ON review_items;
CREATE TRIGGER review_items_notify
	AFTER INSERT OR UPDATE OR DELETE ON review_items
	FOR EACH STATEMENT EXECUTE FUNCTION review_notify_change('review_items_changed');

DROP TRIGGER IF EXISTS review_notifications_notify ON review_notifications;
CREATE TRIGGER review_notifications_notify
	AFTER INSERT OR UPDATE OR DELETE ON review_notifications
	FOR EACH STATEMENT EXECUTE FUNCTION review_notify_change('review_notifications_changed');
`

// EnsureSchema applies the schema idempotently.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return apperrors.Persistence("apply schema", err)
	}
	return nil
}

// --- ItemStore ---------------------------------------------------------------

func (s *Store) CreateItem(ctx context.Context, it item.Item) (item.Item, error) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_items (id, owner_id, owner_email, name, tech_stack, repo_url, status, feedback, ledger_receipt, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, it.ID, it.OwnerID, it.OwnerEmail, it.Name, it.TechStack, it.RepoURL, string(it.Status), it.Feedback, it.LedgerReceipt, it.CreatedAt)
	if err != nil {
		return item.Item{}, apperrors.Persistence("insert item", err)
	}
	return it, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (item.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, owner_email, name, tech_stack, repo_url, status, feedback, ledger_receipt, created_at
		FROM review_items WHERE id = $1
	`, id)
	return scanItem(row, id)
}

func (s *Store) UpdateItem(ctx context.Context, it item.Item) (item.Item, error) {
	existing, err := s.GetItem(ctx, it.ID)
	if err != nil {
		return item.Item{}, err
	}

	it.OwnerID = existing.OwnerID
	it.OwnerEmail = existing.OwnerEmail
	it.CreatedAt = existing.CreatedAt

	result, err := s.db.ExecContext(ctx, `
		UPDATE review_items
		SET name = $2, tech_stack = $3, repo_url = $4, status = $5, feedback = $6, ledger_receipt = $7
		WHERE id = $1
	`, it.ID, it.Name, it.TechStack, it.RepoURL, string(it.Status), it.Feedback, it.LedgerReceipt)
	if err != nil {
		return item.Item{}, apperrors.Persistence("update item", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return item.Item{}, apperrors.NotFound("item %s not found", it.ID)
	}
	return it, nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM review_items WHERE id = $1`, id)
	if err != nil {
		return apperrors.Persistence("delete item", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return apperrors.NotFound("item %s not found", id)
	}
	return nil
}

func (s *Store) ListItems(ctx context.Context) ([]item.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, owner_email, name, tech_stack, repo_url, status, feedback, ledger_receipt, created_at
		FROM review_items
	`)
	if err != nil {
		return nil, apperrors.Persistence("list items", err)
	}
	defer rows.Close()

	var result []item.Item
	for rows.Next() {
		var it item.Item
		var status string
		if err := rows.Scan(&it.ID, &it.OwnerID, &it.OwnerEmail, &it.Name, &it.TechStack, &it.RepoURL, &status, &it.Feedback, &it.LedgerReceipt, &it.CreatedAt); err != nil {
			return nil, apperrors.Persistence("scan item", err)
		}
		it.Status = item.Status(status)
		result = append(result, it)
	}
	return result, rows.Err()
}

func (s *Store) WatchItems(ctx context.Context, filter storage.ItemFilter) (<-chan []item.Item, error) {
	out := make(chan []item.Item, 1)
	query := func(ctx context.Context) (any, error) {
		all, err := s.ListItems(ctx)
		if err != nil {
			return nil, err
		}
		snap := make([]item.Item, 0, len(all))
		for _, it := range all {
			if filter == nil || filter(it) {
				snap = append(snap, it)
			}
		}
		return snap, nil
	}
	send := func(snap any) {
		items := snap.([]item.Item)
		select {
		case out <- items:
		default:
			select {
			case <-out:
			default:
			}
			out <- items
		}
	}
	if err := s.watch(ctx, itemsChannel, query, send, func() { close(out) }); err != nil {
		return nil, err
	}
	return out, nil
}

// --- NotificationStore -------------------------------------------------------

func (s *Store) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_notifications (id, recipient, title, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.ID, n.Recipient, n.Title, n.Message, n.Read, n.CreatedAt)
	if err != nil {
		return notification.Notification{}, apperrors.Persistence("insert notification", err)
	}
	return n, nil
}

func (s *Store) GetNotification(ctx context.Context, id string) (notification.Notification, error) {
	var n notification.Notification
	err := s.db.QueryRowContext(ctx, `
		SELECT id, recipient, title, message, read, created_at
		FROM review_notifications WHERE id = $1
	`, id).Scan(&n.ID, &n.Recipient, &n.Title, &n.Message, &n.Read, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return notification.Notification{}, apperrors.NotFound("notification %s not found", id)
	}
	if err != nil {
		return notification.Notification{}, apperrors.Persistence("get notification", err)
	}
	return n, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) (notification.Notification, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE review_notifications SET read = TRUE WHERE id = $1
	`, id)
	if err != nil {
		return notification.Notification{}, apperrors.Persistence("mark notification read", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return notification.Notification{}, apperrors.NotFound("notification %s not found", id)
	}
	return s.GetNotification(ctx, id)
}

func (s *Store) ListNotifications(ctx context.Context) ([]notification.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipient, title, message, read, created_at
		FROM review_notifications
	`)
	if err != nil {
		return nil, apperrors.Persistence("list notifications", err)
	}
	defer rows.Close()

	var result []notification.Notification
	for rows.Next() {
		var n notification.Notification
		if err := rows.Scan(&n.ID, &n.Recipient, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, apperrors.Persistence("scan notification", err)
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (s *Store) WatchNotifications(ctx context.Context, filter storage.NotificationFilter) (<-chan []notification.Notification, error) {
	out := make(chan []notification.Notification, 1)
	query := func(ctx context.Context) (any, error) {
		all, err := s.ListNotifications(ctx)
		if err != nil {
			return nil, err
		}
		snap := make([]notification.Notification, 0, len(all))
		for _, n := range all {
			if filter == nil || filter(n) {
				snap = append(snap, n)
			}
		}
		return snap, nil
	}
	send := func(snap any) {
		notifs := snap.([]notification.Notification)
		select {
		case out <- notifs:
		default:
			select {
			case <-out:
			default:
			}
			out <- notifs
		}
	}
	if err := s.watch(ctx, notificationsChannel, query, send, func() { close(out) }); err != nil {
		return nil, err
	}
	return out, nil
}

// watch LISTENs on a notify channel with a dedicated connection and invokes
// query+send for the initial state and after every wakeup. Query errors are
// logged and the subscription stays active for the next change.
func (s *Store) watch(ctx context.Context, channel string, query func(context.Context) (any, error), send func(any), closeOut func()) error {
	listener := pq.NewListener(s.dsn, 250*time.Millisecond, 30*time.Second, func(event pq.ListenerEventType, err error) {
		if err != nil {
			s.log.WithError(err).Warnf("listener event %d on %s", event, channel)
		}
	})
	if err := listener.Listen(channel); err != nil {
		listener.Close()
		return apperrors.Persistence("listen "+channel, err)
	}

	deliver := func() {
		snap, err := query(ctx)
		if err != nil {
			s.log.WithError(err).Warnf("snapshot query on %s failed; awaiting next change", channel)
			return
		}
		send(snap)
	}

	go func() {
		defer closeOut()
		defer listener.Close()

		deliver()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-listener.Notify:
				if !ok {
					return
				}
				deliver()
			case <-time.After(90 * time.Second):
				// Liveness probe; also resyncs after silently dropped
				// notifications during reconnects.
				if err := listener.Ping(); err != nil {
					s.log.WithError(err).Warnf("listener ping on %s", channel)
				}
				deliver()
			}
		}
	}()
	return nil
}

// --- ProfileStore ------------------------------------------------------------

func (s *Store) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.AccountStatus == "" {
		p.AccountStatus = profile.StatusActive
	}
	if p.Role == "" {
		p.Role = "USER"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_profiles (id, email, name, photo_url, role, account_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.Email, p.Name, p.PhotoURL, p.Role, string(p.AccountStatus), p.CreatedAt)
	if err != nil {
		return profile.Profile{}, apperrors.Persistence("insert profile", err)
	}
	return p, nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (profile.Profile, error) {
	return s.scanProfileRow(s.db.QueryRowContext(ctx, `
		SELECT id, email, name, photo_url, role, account_status, created_at
		FROM review_profiles WHERE id = $1
	`, id), id)
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (profile.Profile, error) {
	return s.scanProfileRow(s.db.QueryRowContext(ctx, `
		SELECT id, email, name, photo_url, role, account_status, created_at
		FROM review_profiles WHERE lower(email) = lower($1)
	`, email), email)
}

func (s *Store) UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	existing, err := s.GetProfile(ctx, p.ID)
	if err != nil {
		return profile.Profile{}, err
	}
	p.Email = existing.Email
	p.CreatedAt = existing.CreatedAt

	_, err = s.db.ExecContext(ctx, `
		UPDATE review_profiles
		SET name = $2, photo_url = $3, role = $4, account_status = $5
		WHERE id = $1
	`, p.ID, p.Name, p.PhotoURL, p.Role, string(p.AccountStatus))
	if err != nil {
		return profile.Profile{}, apperrors.Persistence("update profile", err)
	}
	return p, nil
}

func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM review_profiles WHERE id = $1`, id)
	if err != nil {
		return apperrors.Persistence("delete profile", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return apperrors.NotFound("profile %s not found", id)
	}
	return nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]profile.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, name, photo_url, role, account_status, created_at
		FROM review_profiles
	`)
	if err != nil {
		return nil, apperrors.Persistence("list profiles", err)
	}
	defer rows.Close()

	var result []profile.Profile
	for rows.Next() {
		var p profile.Profile
		var status string
		if err := rows.Scan(&p.ID, &p.Email, &p.Name, &p.PhotoURL, &p.Role, &status, &p.CreatedAt); err != nil {
			return nil, apperrors.Persistence("scan profile", err)
		}
		p.AccountStatus = profile.AccountStatus(status)
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) scanProfileRow(row *sql.Row, key string) (profile.Profile, error) {
	var p profile.Profile
	var status string
	err := row.Scan(&p.ID, &p.Email, &p.Name, &p.PhotoURL, &p.Role, &status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Profile{}, apperrors.NotFound("profile %s not found", key)
	}
	if err != nil {
		return profile.Profile{}, apperrors.Persistence("get profile", err)
	}
	p.AccountStatus = profile.AccountStatus(status)
	return p, nil
}

func scanItem(row *sql.Row, id string) (item.Item, error) {
	var it item.Item
	var status string
	err := row.Scan(&it.ID, &it.OwnerID, &it.OwnerEmail, &it.Name, &it.TechStack, &it.RepoURL, &status, &it.Feedback, &it.LedgerReceipt, &it.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return item.Item{}, apperrors.NotFound("item %s not found", id)
	}
	if err != nil {
		return item.Item{}, apperrors.Persistence("get item", err)
	}
	it.Status = item.Status(status)
	return it, nil
}
